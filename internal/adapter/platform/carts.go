package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
)

var _ port.CartStore = (*Client)(nil)

type (
	lineItemResource struct {
		ID         string            `json:"id"`
		ProductID  string            `json:"productId"`
		ProductKey string            `json:"productKey,omitempty"`
		Name       map[string]string `json:"name"`
		Quantity   int               `json:"quantity"`
		Price      price             `json:"price"`
		TotalPrice money             `json:"totalPrice"`
		Variant    variant           `json:"variant"`
	}

	discountCodeInfo struct {
		DiscountCode struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		} `json:"discountCode"`
	}

	cartResource struct {
		ID            string             `json:"id"`
		Version       int                `json:"version"`
		CustomerID    string             `json:"customerId,omitempty"`
		AnonymousID   string             `json:"anonymousId,omitempty"`
		LineItems     []lineItemResource `json:"lineItems"`
		TotalPrice    money              `json:"totalPrice"`
		DiscountCodes []discountCodeInfo `json:"discountCodes,omitempty"`
	}

	cartDraft struct {
		Currency   string `json:"currency"`
		CustomerID string `json:"customerId,omitempty"`
	}

	cartUpdateAction struct {
		Action         string `json:"action"`
		ProductID      string `json:"productId,omitempty"`
		LineItemID     string `json:"lineItemId,omitempty"`
		Quantity       *int   `json:"quantity,omitempty"`
		Code           string `json:"code,omitempty"`
		DiscountCodeID string `json:"discountCodeId,omitempty"`
	}

	cartUpdate struct {
		Version int                `json:"version"`
		Actions []cartUpdateAction `json:"actions"`
	}
)

func (c *Client) CartByID(ctx context.Context, id string) (domain.Cart, error) {
	const op = "platform.Client.CartByID"

	var r cartResource
	err := c.do(ctx, http.MethodGet, c.endpoint("/carts/"+id, nil), nil, &r)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.toDomainCart(r), nil
}

func (c *Client) ActiveCartOfCustomer(
	ctx context.Context, customerID string,
) (domain.Cart, error) {
	const op = "platform.Client.ActiveCartOfCustomer"

	vals := url.Values{"customerId": {customerID}}
	var r cartResource
	err := c.do(ctx, http.MethodGet, c.endpoint("/carts/active", vals), nil, &r)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.toDomainCart(r), nil
}

func (c *Client) CreateAnonymousCart(ctx context.Context) (domain.Cart, error) {
	const op = "platform.Client.CreateAnonymousCart"
	return c.createCart(ctx, op, cartDraft{Currency: c.currency})
}

func (c *Client) CreateCustomerCart(
	ctx context.Context, customerID string,
) (domain.Cart, error) {
	const op = "platform.Client.CreateCustomerCart"
	return c.createCart(ctx, op,
		cartDraft{Currency: c.currency, CustomerID: customerID})
}

func (c *Client) createCart(
	ctx context.Context, op string, draft cartDraft,
) (domain.Cart, error) {
	var r cartResource
	err := c.do(ctx, http.MethodPost, c.endpoint("/carts", nil), draft, &r)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.toDomainCart(r), nil
}

func (c *Client) UpdateCart(
	ctx context.Context, id string, version int, actions []port.CartAction,
) (domain.Cart, error) {
	const op = "platform.Client.UpdateCart"

	upd := cartUpdate{Version: version}
	for _, a := range actions {
		upd.Actions = append(upd.Actions, toUpdateAction(a))
	}

	var r cartResource
	err := c.do(ctx, http.MethodPost, c.endpoint("/carts/"+id, nil), upd, &r)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}
	return c.toDomainCart(r), nil
}

func (c *Client) DeleteCart(ctx context.Context, id string, version int) error {
	const op = "platform.Client.DeleteCart"

	vals := url.Values{"version": {strconv.Itoa(version)}}
	err := c.do(ctx, http.MethodDelete, c.endpoint("/carts/"+id, vals), nil, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func toUpdateAction(a port.CartAction) cartUpdateAction {
	ua := cartUpdateAction{
		Action:         string(a.Action),
		ProductID:      a.ProductID,
		LineItemID:     a.LineItemID,
		Code:           a.PromoCode,
		DiscountCodeID: a.PromoID,
	}
	switch a.Action {
	case port.ActionAddLineItem, port.ActionChangeQuantity:
		q := a.Quantity
		ua.Quantity = &q
	}
	return ua
}

func (c *Client) toDomainCart(r cartResource) domain.Cart {
	cart := domain.Cart{
		ID:         r.ID,
		Version:    r.Version,
		CustomerID: r.CustomerID,
		TotalPrice: fromCents(r.TotalPrice.CentAmount),
		Currency:   r.TotalPrice.CurrencyCode,
	}

	for _, li := range r.LineItems {
		item := domain.LineItem{
			ID:         li.ID,
			ProductID:  li.ProductID,
			ProductKey: li.ProductKey,
			Name:       c.localized(li.Name),
			Quantity:   li.Quantity,
			Price:      fromCents(li.Price.Value.CentAmount),
			TotalPrice: fromCents(li.TotalPrice.CentAmount),
		}
		if li.Price.Discounted != nil {
			item.Price = fromCents(li.Price.Discounted.Value.CentAmount)
		}
		if len(li.Variant.Images) > 0 {
			item.ImageURL = li.Variant.Images[0].URL
		}
		cart.Items = append(cart.Items, item)
		cart.ItemCount += li.Quantity
	}

	if len(r.DiscountCodes) > 0 {
		dc := r.DiscountCodes[len(r.DiscountCodes)-1].DiscountCode
		cart.Promo = &domain.AppliedPromo{ID: dc.ID, Code: dc.Code}
	}

	return cart
}
