package schema

const CartEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "cart_event",
	"fields" : [
		{"name": "event_type", "type": "string"},
		{"name": "cart_id", "type": "string"},
		{"name": "session_id", "type": "string"},
		{"name": "customer_id", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "quantity", "type": "long"},
		{"name": "occurred_at", "type": "long"}
	]
}`

// CartEventV1 is the wire shape of one cart mutation event.
// OccurredAt is unix milliseconds.
type CartEventV1 struct {
	EventType  string `avro:"event_type"`
	CartID     string `avro:"cart_id"`
	SessionID  string `avro:"session_id"`
	CustomerID string `avro:"customer_id"`
	ProductID  string `avro:"product_id"`
	Quantity   int64  `avro:"quantity"`
	OccurredAt int64  `avro:"occurred_at"`
}
