package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
)

// PageSize is the fixed catalog page size.
const PageSize = 12

// BuildProductQuery translates the server-expressible constraints of f
// into a platform query: category equality, discount existence and the
// price range become where-clauses, name ordering becomes a sort
// clause. Substring search and price ordering stay client-side, see
// Refine.
func BuildProductQuery(f domain.ProductFilters, page int) port.ProductQuery {
	if page < 1 {
		page = 1
	}

	q := port.ProductQuery{
		Limit:  PageSize,
		Offset: (page - 1) * PageSize,
	}

	if f.CategoryID != nil {
		q.Where = append(q.Where,
			fmt.Sprintf("categories(id=%q)", *f.CategoryID))
	}

	if f.HasDiscount != nil && *f.HasDiscount {
		q.Where = append(q.Where, "variants(prices(discounted is defined))")
	}

	if clause, ok := priceClause(f.PriceRange); ok {
		q.Where = append(q.Where, clause)
	}

	switch f.SortBy {
	case domain.SortNameAsc:
		q.Sort = append(q.Sort, "name asc")
	case domain.SortNameDesc:
		q.Sort = append(q.Sort, "name desc")
	}

	return q
}

// priceClause converts the inclusive decimal bounds into integer
// minor-currency-unit comparisons. A degenerate min==max range is a
// valid exact match, not an error.
func priceClause(r *domain.PriceRange) (string, bool) {
	if r == nil || (r.Min == nil && r.Max == nil) {
		return "", false
	}

	var parts []string
	if r.Min != nil {
		parts = append(parts,
			fmt.Sprintf("centAmount >= %d", toCents(*r.Min)))
	}
	if r.Max != nil {
		parts = append(parts,
			fmt.Sprintf("centAmount <= %d", toCents(*r.Max)))
	}

	inner := strings.Join(parts, " and ")
	return fmt.Sprintf("variants(prices(%s))", inner), true
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Refine applies the constraints the platform cannot express: the
// author filter, the case-insensitive substring search across name,
// description, author and category, and price ordering.
func Refine(ps []domain.Product, f domain.ProductFilters) []domain.Product {
	if f.Author != nil {
		filtered := make([]domain.Product, 0, len(ps))
		for _, p := range ps {
			if strings.EqualFold(p.Author, *f.Author) {
				filtered = append(filtered, p)
			}
		}
		ps = filtered
	}

	if f.SearchText != nil {
		term := *f.SearchText
		filtered := make([]domain.Product, 0, len(ps))
		for _, p := range ps {
			if matchesSearch(p, term) {
				filtered = append(filtered, p)
			}
		}
		ps = filtered
	}

	switch f.SortBy {
	case domain.SortPriceAsc:
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].Price < ps[j].Price
		})
	case domain.SortPriceDesc:
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].Price > ps[j].Price
		})
	}

	return ps
}

// matchesSearch reports whether any of the product's name,
// description, author or category contains term, case-insensitively.
func matchesSearch(p domain.Product, term string) bool {
	t := strings.ToLower(term)
	for _, s := range []string{p.Name, p.Description, p.Author, p.Category} {
		if strings.Contains(strings.ToLower(s), t) {
			return true
		}
	}
	return false
}

// HighlightMatches wraps every case-insensitive occurrence of term in
// text with <mark> markers, preserving the original casing. It is used
// purely for rendering and is independent of filtering. Matching folds
// per rune on the original string, so multibyte characters never shift
// or split the markers.
func HighlightMatches(text, term string) string {
	if term == "" {
		return text
	}
	termRunes := utf8.RuneCountInString(term)

	var b strings.Builder
	for i := 0; i < len(text); {
		if end := runeWindowEnd(text, i, termRunes); end > 0 &&
			strings.EqualFold(text[i:end], term) {
			b.WriteString("<mark>")
			b.WriteString(text[i:end])
			b.WriteString("</mark>")
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		i += size
	}
	return b.String()
}

// runeWindowEnd returns the byte offset just past n runes starting at
// i, or 0 when fewer than n runes remain.
func runeWindowEnd(s string, i, n int) int {
	end := i
	for ; n > 0; n-- {
		if end >= len(s) {
			return 0
		}
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	return end
}
