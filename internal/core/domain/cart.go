package domain

import "time"

type (
	// Cart is the normalized current cart of a session.
	//
	// Version is the monotonic optimistic-concurrency counter of the
	// remote record. Every mutation must carry the last observed value.
	Cart struct {
		ID         string
		Version    int
		CustomerID string
		Items      []LineItem
		TotalPrice float64
		Currency   string
		ItemCount  int
		Promo      *AppliedPromo
	}

	// AppliedPromo is the discount code currently attached to the cart.
	AppliedPromo struct {
		ID   string
		Code string
	}

	// LineItem is one product+quantity entry within a cart.
	LineItem struct {
		ID         string
		ProductID  string
		ProductKey string
		Name       string
		Quantity   int
		Price      float64
		TotalPrice float64
		ImageURL   string
	}

	// PromoCode is a cart-scoped discount code. At most one promo code
	// is applied to a cart at a time; the remote cart is the single
	// source of truth for which one.
	PromoCode struct {
		ID                 string
		Code               string
		IsActive           bool
		ValidFrom          *time.Time
		ValidUntil         *time.Time
		DiscountPercentage int
	}
)

// Usable reports whether the promo code is active and inside its
// validity window [ValidFrom, ValidUntil) at the given instant.
func (p PromoCode) Usable(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && !now.Before(*p.ValidUntil) {
		return false
	}
	return true
}

type CartEventType string

const (
	CartEventCreated         CartEventType = "cart_created"
	CartEventProductAdded    CartEventType = "product_added"
	CartEventProductRemoved  CartEventType = "product_removed"
	CartEventQuantityChanged CartEventType = "quantity_changed"
	CartEventCleared         CartEventType = "cart_cleared"
	CartEventMerged          CartEventType = "cart_merged"
	CartEventPromoApplied    CartEventType = "promo_applied"
	CartEventPromoRemoved    CartEventType = "promo_removed"
)

// CartEvent describes one successful cart mutation for analytics.
type CartEvent struct {
	Type       CartEventType
	CartID     string
	SessionID  string
	CustomerID string
	ProductID  string
	Quantity   int
	Occurred   time.Time
}
