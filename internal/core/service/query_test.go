package service_test

import (
	"net/url"
	"testing"
	"unicode/utf8"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }

func TestBuildProductQuery(t *testing.T) {

	t.Run("NoFilters", func(t *testing.T) {
		q := service.BuildProductQuery(domain.ProductFilters{}, 1)
		assert.Empty(t, q.Where)
		assert.Empty(t, q.Sort)
		assert.Equal(t, service.PageSize, q.Limit)
		assert.Equal(t, 0, q.Offset)
	})

	t.Run("CategoryOnly", func(t *testing.T) {
		f := domain.ProductFilters{CategoryID: strPtr("cat-1")}
		q := service.BuildProductQuery(f, 1)
		require.Len(t, q.Where, 1)
		assert.Equal(t, `categories(id="cat-1")`, q.Where[0])
	})

	t.Run("DiscountExistence", func(t *testing.T) {
		d := true
		f := domain.ProductFilters{HasDiscount: &d}
		q := service.BuildProductQuery(f, 1)
		require.Len(t, q.Where, 1)
		assert.Equal(t,
			"variants(prices(discounted is defined))", q.Where[0])
	})

	t.Run("PriceRangeRoundsToCents", func(t *testing.T) {
		f := domain.ProductFilters{PriceRange: &domain.PriceRange{
			Min: floatPtr(4.995),
			Max: floatPtr(19.99),
		}}
		q := service.BuildProductQuery(f, 1)
		require.Len(t, q.Where, 1)
		assert.Equal(t,
			"variants(prices(centAmount >= 500 and centAmount <= 1999))",
			q.Where[0])
	})

	t.Run("DegeneratePriceRange", func(t *testing.T) {
		f := domain.ProductFilters{PriceRange: &domain.PriceRange{
			Min: floatPtr(5),
			Max: floatPtr(5),
		}}
		q := service.BuildProductQuery(f, 1)
		require.Len(t, q.Where, 1)
		assert.Equal(t,
			"variants(prices(centAmount >= 500 and centAmount <= 500))",
			q.Where[0])
	})

	t.Run("OpenEndedPriceRange", func(t *testing.T) {
		f := domain.ProductFilters{PriceRange: &domain.PriceRange{
			Max: floatPtr(10),
		}}
		q := service.BuildProductQuery(f, 1)
		require.Len(t, q.Where, 1)
		assert.Equal(t,
			"variants(prices(centAmount <= 1000))", q.Where[0])
	})

	t.Run("NameSortIsServerSide", func(t *testing.T) {
		f := domain.ProductFilters{SortBy: domain.SortNameDesc}
		q := service.BuildProductQuery(f, 1)
		require.Len(t, q.Sort, 1)
		assert.Equal(t, "name desc", q.Sort[0])
	})

	t.Run("PriceSortStaysClientSide", func(t *testing.T) {
		f := domain.ProductFilters{SortBy: domain.SortPriceDesc}
		q := service.BuildProductQuery(f, 1)
		assert.Empty(t, q.Sort)
	})

	t.Run("Pagination", func(t *testing.T) {
		q := service.BuildProductQuery(domain.ProductFilters{}, 3)
		assert.Equal(t, 2*service.PageSize, q.Offset)

		q = service.BuildProductQuery(domain.ProductFilters{}, 0)
		assert.Equal(t, 0, q.Offset)
	})
}

func TestRefine(t *testing.T) {
	catalog := []domain.Product{
		{ID: "p1", Name: "Atlas Shrugged", Author: "Ayn Rand", Price: 12.99},
		{ID: "p2", Name: "World Atlas 2025", Author: "Various", Price: 39.50},
		{ID: "p3", Name: "Go in Practice", Description: "a hands-on atlas of Go idioms", Author: "M. Ryer", Price: 29.00},
		{ID: "p4", Name: "Clean Code", Author: "Robert Martin", Price: 24.99},
	}

	t.Run("SearchAcrossFields", func(t *testing.T) {
		f := domain.ProductFilters{SearchText: strPtr("atlas")}
		got := service.Refine(catalog, f)
		require.Len(t, got, 3)
		assert.Equal(t, "p1", got[0].ID)
		assert.Equal(t, "p2", got[1].ID)
		assert.Equal(t, "p3", got[2].ID)
	})

	t.Run("SearchIsCaseInsensitive", func(t *testing.T) {
		f := domain.ProductFilters{SearchText: strPtr("ATLAS")}
		got := service.Refine(catalog, f)
		assert.Len(t, got, 3)
	})

	t.Run("AuthorFilter", func(t *testing.T) {
		f := domain.ProductFilters{Author: strPtr("ayn rand")}
		got := service.Refine(catalog, f)
		require.Len(t, got, 1)
		assert.Equal(t, "p1", got[0].ID)
	})

	t.Run("PriceDesc", func(t *testing.T) {
		f := domain.ProductFilters{SortBy: domain.SortPriceDesc}
		got := service.Refine(append([]domain.Product(nil), catalog...), f)
		require.Len(t, got, 4)
		assert.Equal(t, "p2", got[0].ID)
		assert.Equal(t, "p3", got[1].ID)
		assert.Equal(t, "p4", got[2].ID)
		assert.Equal(t, "p1", got[3].ID)
	})

	t.Run("SearchThenPriceAsc", func(t *testing.T) {
		f := domain.ProductFilters{
			SearchText: strPtr("atlas"),
			SortBy:     domain.SortPriceAsc,
		}
		got := service.Refine(append([]domain.Product(nil), catalog...), f)
		require.Len(t, got, 3)
		assert.Equal(t, "p1", got[0].ID)
		assert.Equal(t, "p3", got[1].ID)
		assert.Equal(t, "p2", got[2].ID)
	})

	t.Run("NoMatches", func(t *testing.T) {
		f := domain.ProductFilters{SearchText: strPtr("zzzz")}
		got := service.Refine(catalog, f)
		assert.Empty(t, got)
	})
}

func TestHighlightMatches(t *testing.T) {

	t.Run("PreservesCasing", func(t *testing.T) {
		got := service.HighlightMatches("World Atlas 2025", "atlas")
		assert.Equal(t, "World <mark>Atlas</mark> 2025", got)
	})

	t.Run("MultipleOccurrences", func(t *testing.T) {
		got := service.HighlightMatches("go go go", "go")
		assert.Equal(t,
			"<mark>go</mark> <mark>go</mark> <mark>go</mark>", got)
	})

	t.Run("EmptyTerm", func(t *testing.T) {
		got := service.HighlightMatches("unchanged", "")
		assert.Equal(t, "unchanged", got)
	})

	t.Run("NoMatch", func(t *testing.T) {
		got := service.HighlightMatches("Clean Code", "atlas")
		assert.Equal(t, "Clean Code", got)
	})

	t.Run("MultibyteTextKeepsMarkersAligned", func(t *testing.T) {
		got := service.HighlightMatches("İstanbul Atlas", "atlas")
		assert.Equal(t, "İstanbul <mark>Atlas</mark>", got)

		got = service.HighlightMatches("İİİİ atlas", "atlas")
		assert.Equal(t, "İİİİ <mark>atlas</mark>", got)
		assert.True(t, utf8.ValidString(got))
	})
}

type staticResolver map[string]domain.Category

func (r staticResolver) ResolveCategory(slugOrID string) (domain.Category, bool) {
	c, ok := r[slugOrID]
	return c, ok
}

func TestQueryParams(t *testing.T) {
	resolver := staticResolver{
		"fiction": {ID: "cat-1", Slug: "fiction", Name: "Fiction"},
		"cat-1":   {ID: "cat-1", Slug: "fiction", Name: "Fiction"},
	}

	t.Run("RoundTrip", func(t *testing.T) {
		raw := "category=cat-1&search=atlas&minPrice=5&maxPrice=19.99" +
			"&discount=true&sort=price-desc&page=3"

		vals, err := url.ParseQuery(raw)
		require.NoError(t, err)

		f, page := service.ParseFilters(vals, resolver)
		assert.Equal(t, raw, service.CanonicalQuery(f, page))
	})

	t.Run("SlugResolvesToID", func(t *testing.T) {
		vals := url.Values{"category": {"fiction"}}
		f, _ := service.ParseFilters(vals, resolver)
		require.NotNil(t, f.CategoryID)
		assert.Equal(t, "cat-1", *f.CategoryID)
	})

	t.Run("UnknownCategoryDropped", func(t *testing.T) {
		vals := url.Values{"category": {"no-such"}}
		f, _ := service.ParseFilters(vals, resolver)
		assert.Nil(t, f.CategoryID)
	})

	t.Run("InvalidSortFallsBack", func(t *testing.T) {
		vals := url.Values{"sort": {"by-weight"}}
		f, _ := service.ParseFilters(vals, resolver)
		assert.Equal(t, domain.SortDefault, f.SortBy)
	})

	t.Run("PageClamped", func(t *testing.T) {
		vals := url.Values{"page": {"-4"}}
		_, page := service.ParseFilters(vals, resolver)
		assert.Equal(t, 1, page)

		vals = url.Values{"page": {"garbage"}}
		_, page = service.ParseFilters(vals, resolver)
		assert.Equal(t, 1, page)
	})

	t.Run("DefaultsOmitted", func(t *testing.T) {
		f := domain.ProductFilters{SortBy: domain.SortDefault}
		assert.Equal(t, "", service.CanonicalQuery(f, 1))
	})

	t.Run("RemoveFilterIsolated", func(t *testing.T) {
		d := true
		f := domain.ProductFilters{
			CategoryID:  strPtr("cat-1"),
			SearchText:  strPtr("atlas"),
			Author:      strPtr("Ayn Rand"),
			PriceRange:  &domain.PriceRange{Min: floatPtr(5)},
			HasDiscount: &d,
			SortBy:      domain.SortPriceAsc,
		}

		service.RemoveFilter(&f, "price")
		assert.Nil(t, f.PriceRange)
		assert.NotNil(t, f.CategoryID)
		assert.NotNil(t, f.SearchText)
		assert.NotNil(t, f.Author)
		assert.NotNil(t, f.HasDiscount)
		assert.Equal(t, domain.SortPriceAsc, f.SortBy)

		service.RemoveFilter(&f, "unknown")
		assert.Equal(t, 4, f.ActiveCount())
	})

	t.Run("ClearFilters", func(t *testing.T) {
		f := domain.ProductFilters{
			SearchText: strPtr("atlas"),
			SortBy:     domain.SortPriceAsc,
		}
		service.ClearFilters(&f)
		assert.Equal(t, 0, f.ActiveCount())
		assert.Equal(t, domain.SortDefault, f.SortBy)
	})
}
