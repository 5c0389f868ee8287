package service

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/crazybooks/storefront/internal/core/domain"
)

// The storefront query-parameter contract. Every filtered catalog view
// serializes to these keys, in this order, so the resulting URL is
// shareable and reconstructs the same view when parsed back.
const (
	paramCategory = "category"
	paramSearch   = "search"
	paramAuthor   = "author"
	paramMinPrice = "minPrice"
	paramMaxPrice = "maxPrice"
	paramDiscount = "discount"
	paramSort     = "sort"
	paramPage     = "page"
)

// CategoryResolver resolves a category slug or id against the loaded
// category list.
type CategoryResolver interface {
	ResolveCategory(slugOrID string) (domain.Category, bool)
}

// ParseFilters reconstructs filter state from query parameters.
// An unresolvable category value and an invalid sort value are
// dropped, not errors. The page counter is 1-based and clamped.
func ParseFilters(vals url.Values, r CategoryResolver) (domain.ProductFilters, int) {
	var f domain.ProductFilters
	f.SortBy = domain.SortDefault

	if v := vals.Get(paramCategory); v != "" {
		if c, ok := r.ResolveCategory(v); ok {
			f.CategoryID = &c.ID
		}
	}

	if v := vals.Get(paramSearch); v != "" {
		f.SearchText = &v
	}

	if v := vals.Get(paramAuthor); v != "" {
		f.Author = &v
	}

	var pr domain.PriceRange
	if v, err := strconv.ParseFloat(vals.Get(paramMinPrice), 64); err == nil {
		pr.Min = &v
	}
	if v, err := strconv.ParseFloat(vals.Get(paramMaxPrice), 64); err == nil {
		pr.Max = &v
	}
	if pr.Min != nil || pr.Max != nil {
		f.PriceRange = &pr
	}

	if vals.Get(paramDiscount) == "true" {
		t := true
		f.HasDiscount = &t
	}

	if v := vals.Get(paramSort); v != "" {
		if s, ok := domain.ParseSortOption(v); ok {
			f.SortBy = s
		}
	}

	page := 1
	if v, err := strconv.Atoi(vals.Get(paramPage)); err == nil && v > 1 {
		page = v
	}

	return f, page
}

// CanonicalQuery serializes filter state back into a query string with
// the fixed key order, omitting absent and default values. It is the
// inverse of ParseFilters up to unresolvable category values.
func CanonicalQuery(f domain.ProductFilters, page int) string {
	var pairs []string
	add := func(k, v string) {
		pairs = append(pairs, k+"="+url.QueryEscape(v))
	}

	if f.CategoryID != nil {
		add(paramCategory, *f.CategoryID)
	}
	if f.SearchText != nil {
		add(paramSearch, *f.SearchText)
	}
	if f.Author != nil {
		add(paramAuthor, *f.Author)
	}
	if f.PriceRange != nil {
		if f.PriceRange.Min != nil {
			add(paramMinPrice, formatPrice(*f.PriceRange.Min))
		}
		if f.PriceRange.Max != nil {
			add(paramMaxPrice, formatPrice(*f.PriceRange.Max))
		}
	}
	if f.HasDiscount != nil && *f.HasDiscount {
		add(paramDiscount, "true")
	}
	if f.SortBy != domain.SortDefault && f.SortBy != "" {
		add(paramSort, string(f.SortBy))
	}
	if page > 1 {
		add(paramPage, strconv.Itoa(page))
	}

	return strings.Join(pairs, "&")
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RemoveFilter resets exactly one filter to absent. An unknown key is
// a no-op.
func RemoveFilter(f *domain.ProductFilters, key string) {
	switch key {
	case paramCategory:
		f.CategoryID = nil
	case paramSearch:
		f.SearchText = nil
	case paramAuthor:
		f.Author = nil
	case "price":
		f.PriceRange = nil
	case paramDiscount:
		f.HasDiscount = nil
	}
}

// ClearFilters resets all filters and the sort to defaults.
func ClearFilters(f *domain.ProductFilters) {
	*f = domain.ProductFilters{SortBy: domain.SortDefault}
}
