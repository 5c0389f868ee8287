package port

import (
	"context"

	"github.com/crazybooks/storefront/internal/core/domain"
)

// ProductQuery is the server-expressible part of a catalog view,
// translated into the commerce platform's query language.
type ProductQuery struct {
	Where  []string
	Sort   []string
	Limit  int
	Offset int
}

// CartAction is one mutation within a cart update request. All actions
// of a single update are applied atomically against one cart version.
type CartAction struct {
	Action     CartActionType
	ProductID  string
	LineItemID string
	Quantity   int
	PromoCode  string
	PromoID    string
}

type CartActionType string

const (
	ActionAddLineItem        CartActionType = "addLineItem"
	ActionRemoveLineItem     CartActionType = "removeLineItem"
	ActionChangeQuantity     CartActionType = "changeLineItemQuantity"
	ActionAddDiscountCode    CartActionType = "addDiscountCode"
	ActionRemoveDiscountCode CartActionType = "removeDiscountCode"
)

// Inbound ports: the storefront HTTP surface depends on these.

type CatalogBrowser interface {
	Browse(ctx context.Context, f domain.ProductFilters, page int) (domain.CatalogPage, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	ResolveCategory(slugOrID string) (domain.Category, bool)
}

type CartManager interface {
	GetOrCreateCart(ctx context.Context, sessionID string) (domain.Cart, error)
	AddProduct(ctx context.Context, sessionID, productID string, quantity int) (domain.Cart, error)
	RemoveLineItem(ctx context.Context, sessionID, lineItemID string) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, lineItemID string, quantity int) (domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) (domain.Cart, error)
	ApplyPromoCode(ctx context.Context, sessionID, code string) (domain.Cart, error)
	RemovePromoCode(ctx context.Context, sessionID string) (domain.Cart, error)
	CurrentCart(sessionID string) (domain.Cart, bool)
	ClearCartCache(sessionID string)
}

type CustomerSignIn interface {
	Login(ctx context.Context, sessionID, email, password string) (customerID string, err error)
}

// Outbound ports: implemented by the platform, storage and kafka adapters.

type ProductsProvider interface {
	SearchProducts(ctx context.Context, q ProductQuery) ([]domain.Product, int, error)
	FetchCategories(ctx context.Context) ([]domain.Category, error)
}

type CartStore interface {
	CartByID(ctx context.Context, id string) (domain.Cart, error)
	ActiveCartOfCustomer(ctx context.Context, customerID string) (domain.Cart, error)
	CreateAnonymousCart(ctx context.Context) (domain.Cart, error)
	CreateCustomerCart(ctx context.Context, customerID string) (domain.Cart, error)
	UpdateCart(ctx context.Context, id string, version int, actions []CartAction) (domain.Cart, error)
	DeleteCart(ctx context.Context, id string, version int) error
}

type TaxCategoryStore interface {
	ProductTaxCategory(ctx context.Context, productID string) (taxCategoryID string, err error)
	TaxCategoryByName(ctx context.Context, name string) (taxCategoryID string, err error)
	CreateTaxCategory(ctx context.Context, name string) (taxCategoryID string, err error)
	SetProductTaxCategory(ctx context.Context, productID, taxCategoryID string) error
}

type PromoCodeProvider interface {
	PromoCodeByCode(ctx context.Context, code string) (domain.PromoCode, error)
}

type CustomerAuthenticator interface {
	AuthenticateCustomer(ctx context.Context, email, password string) (customerID string, err error)
}

// CartRefStore remembers the anonymous cart of a session between
// process restarts, the way a browser keeps it in local storage.
type CartRefStore interface {
	Get(ctx context.Context, sessionID string) (cartID string, err error)
	Set(ctx context.Context, sessionID, cartID string) error
	Clear(ctx context.Context, sessionID string) error
}

type CartEventsProducer interface {
	ProduceCartEvent(ctx context.Context, e domain.CartEvent) error
}
