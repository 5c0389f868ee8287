package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
)

var _ port.TaxCategoryStore = (*Client)(nil)

type (
	taxRateDraft struct {
		Name            string  `json:"name"`
		Amount          float64 `json:"amount"`
		IncludedInPrice bool    `json:"includedInPrice"`
		Country         string  `json:"country"`
	}

	taxCategoryDraft struct {
		Name  string         `json:"name"`
		Rates []taxRateDraft `json:"rates"`
	}

	taxCategoryResource struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	pagedTaxCategories struct {
		Results []taxCategoryResource `json:"results"`
	}

	productTaxInfo struct {
		ID          string     `json:"id"`
		Version     int        `json:"version"`
		TaxCategory *reference `json:"taxCategory,omitempty"`
	}

	setTaxCategoryBody struct {
		TaxCategoryID string `json:"taxCategoryId"`
	}
)

// ProductTaxCategory returns the product's tax category id, or an
// empty id when the product does not carry one yet.
func (c *Client) ProductTaxCategory(
	ctx context.Context, productID string,
) (string, error) {
	const op = "platform.Client.ProductTaxCategory"

	var r productTaxInfo
	err := c.do(ctx, http.MethodGet,
		c.endpoint("/products/"+productID, nil), nil, &r)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if r.TaxCategory == nil {
		return "", nil
	}
	return r.TaxCategory.ID, nil
}

func (c *Client) TaxCategoryByName(
	ctx context.Context, name string,
) (string, error) {
	const op = "platform.Client.TaxCategoryByName"

	vals := url.Values{"where": {fmt.Sprintf("name=%q", name)}}
	var page pagedTaxCategories
	err := c.do(ctx, http.MethodGet,
		c.endpoint("/tax-categories", vals), nil, &page)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(page.Results) == 0 {
		return "", fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return page.Results[0].ID, nil
}

// CreateTaxCategory creates a zero-rate single-country tax category,
// enough for merged items to price correctly.
func (c *Client) CreateTaxCategory(
	ctx context.Context, name string,
) (string, error) {
	const op = "platform.Client.CreateTaxCategory"

	draft := taxCategoryDraft{
		Name: name,
		Rates: []taxRateDraft{{
			Name:            "Zero rate",
			Amount:          0,
			IncludedInPrice: true,
			Country:         c.taxCountry,
		}},
	}

	var r taxCategoryResource
	err := c.do(ctx, http.MethodPost,
		c.endpoint("/tax-categories", nil), draft, &r)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return r.ID, nil
}

func (c *Client) SetProductTaxCategory(
	ctx context.Context, productID, taxCategoryID string,
) error {
	const op = "platform.Client.SetProductTaxCategory"

	body := setTaxCategoryBody{TaxCategoryID: taxCategoryID}
	err := c.do(ctx, http.MethodPost,
		c.endpoint("/products/"+productID+"/tax-category", nil), body, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
