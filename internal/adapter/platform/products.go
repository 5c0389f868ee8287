package platform

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
)

var _ port.ProductsProvider = (*Client)(nil)

// authorAttributes are the attribute keys known to carry the author of
// a book, checked in order.
var authorAttributes = []string{"author", "book-author", "writer"}

type (
	money struct {
		CentAmount   int64  `json:"centAmount"`
		CurrencyCode string `json:"currencyCode"`
	}

	discounted struct {
		Value money `json:"value"`
	}

	price struct {
		Value      money       `json:"value"`
		Discounted *discounted `json:"discounted,omitempty"`
	}

	image struct {
		URL string `json:"url"`
	}

	attribute struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}

	variant struct {
		Images     []image     `json:"images,omitempty"`
		Prices     []price     `json:"prices,omitempty"`
		Attributes []attribute `json:"attributes,omitempty"`
	}

	reference struct {
		ID string `json:"id"`
	}

	productProjection struct {
		ID            string            `json:"id"`
		Key           string            `json:"key,omitempty"`
		Name          map[string]string `json:"name"`
		Description   map[string]string `json:"description,omitempty"`
		MasterVariant variant           `json:"masterVariant"`
		Categories    []reference       `json:"categories,omitempty"`
		TaxCategory   *reference        `json:"taxCategory,omitempty"`
	}

	pagedProducts struct {
		Limit   int                 `json:"limit"`
		Offset  int                 `json:"offset"`
		Count   int                 `json:"count"`
		Total   int                 `json:"total"`
		Results []productProjection `json:"results"`
	}

	categoryResource struct {
		ID   string            `json:"id"`
		Key  string            `json:"key,omitempty"`
		Name map[string]string `json:"name"`
		Slug map[string]string `json:"slug"`
	}

	pagedCategories struct {
		Results []categoryResource `json:"results"`
	}
)

// SearchProducts runs one product-projection search with the given
// where/sort clauses and page window.
func (c *Client) SearchProducts(
	ctx context.Context, q port.ProductQuery,
) ([]domain.Product, int, error) {
	const op = "platform.Client.SearchProducts"

	vals := url.Values{}
	for _, w := range q.Where {
		vals.Add("where", w)
	}
	for _, s := range q.Sort {
		vals.Add("sort", s)
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		vals.Set("offset", strconv.Itoa(q.Offset))
	}

	var page pagedProducts
	err := c.do(ctx, http.MethodGet,
		c.endpoint("/product-projections/search", vals), nil, &page)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	ps := make([]domain.Product, 0, len(page.Results))
	for _, r := range page.Results {
		ps = append(ps, c.toDomainProduct(r))
	}
	return ps, page.Total, nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "platform.Client.FetchCategories"

	var page pagedCategories
	err := c.do(ctx, http.MethodGet,
		c.endpoint("/categories", url.Values{"limit": {"500"}}), nil, &page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cs := make([]domain.Category, 0, len(page.Results))
	for _, r := range page.Results {
		cs = append(cs, domain.Category{
			ID:   r.ID,
			Key:  r.Key,
			Name: c.localized(r.Name),
			Slug: c.localized(r.Slug),
		})
	}
	return cs, nil
}

// toDomainProduct normalizes a projection: the effective price is the
// discounted one when present, the original price is kept only then.
func (c *Client) toDomainProduct(r productProjection) domain.Product {
	p := domain.Product{
		ID:          r.ID,
		Key:         r.Key,
		Name:        c.localized(r.Name),
		Description: c.localized(r.Description),
		Attributes:  make(map[string]string),
	}

	if len(r.Categories) > 0 {
		p.CategoryID = r.Categories[0].ID
	}
	if len(r.MasterVariant.Images) > 0 {
		p.ImageURL = r.MasterVariant.Images[0].URL
	}

	for _, a := range r.MasterVariant.Attributes {
		if s, ok := a.Value.(string); ok {
			p.Attributes[a.Name] = s
		}
	}
	for _, key := range authorAttributes {
		if v, ok := p.Attributes[key]; ok && v != "" {
			p.Author = v
			break
		}
	}

	if len(r.MasterVariant.Prices) > 0 {
		pr := r.MasterVariant.Prices[0]
		original := fromCents(pr.Value.CentAmount)
		p.Price = original

		if pr.Discounted != nil {
			p.HasDiscount = true
			p.Price = fromCents(pr.Discounted.Value.CentAmount)
			p.OriginalPrice = &original
			p.DiscountAmount = original - p.Price
			if original > 0 {
				p.DiscountPercentage = int(
					math.Round(p.DiscountAmount / original * 100))
			}
		}
	}

	return p
}

func fromCents(v int64) float64 {
	return float64(v) / 100
}
