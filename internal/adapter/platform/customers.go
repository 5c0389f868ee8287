package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
)

var _ port.CustomerAuthenticator = (*Client)(nil)
var _ port.PromoCodeProvider = (*Client)(nil)

type (
	loginBody struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginResult struct {
		Customer struct {
			ID string `json:"id"`
		} `json:"customer"`
	}

	discountCodeResource struct {
		ID                 string     `json:"id"`
		Code               string     `json:"code"`
		IsActive           bool       `json:"isActive"`
		ValidFrom          *time.Time `json:"validFrom,omitempty"`
		ValidUntil         *time.Time `json:"validUntil,omitempty"`
		DiscountPercentage int        `json:"discountPercentage"`
	}

	pagedDiscountCodes struct {
		Results []discountCodeResource `json:"results"`
	}
)

// AuthenticateCustomer signs the customer in. Wrong credentials map to
// domain.ErrNotAuthenticated.
func (c *Client) AuthenticateCustomer(
	ctx context.Context, email, password string,
) (string, error) {
	const op = "platform.Client.AuthenticateCustomer"

	body := loginBody{Email: email, Password: password}
	var r loginResult
	err := c.do(ctx, http.MethodPost, c.endpoint("/login", nil), body, &r)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) ||
			isStatus(err, http.StatusUnauthorized) {
			return "", fmt.Errorf("%s: %w", op, domain.ErrNotAuthenticated)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return r.Customer.ID, nil
}

func (c *Client) PromoCodeByCode(
	ctx context.Context, code string,
) (domain.PromoCode, error) {
	const op = "platform.Client.PromoCodeByCode"

	vals := url.Values{"where": {fmt.Sprintf("code=%q", code)}}
	var page pagedDiscountCodes
	err := c.do(ctx, http.MethodGet,
		c.endpoint("/discount-codes", vals), nil, &page)
	if err != nil {
		return domain.PromoCode{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(page.Results) == 0 {
		return domain.PromoCode{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	r := page.Results[0]
	return domain.PromoCode{
		ID:                 r.ID,
		Code:               r.Code,
		IsActive:           r.IsActive,
		ValidFrom:          r.ValidFrom,
		ValidUntil:         r.ValidUntil,
		DiscountPercentage: r.DiscountPercentage,
	}, nil
}
