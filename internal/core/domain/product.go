package domain

type SortOption string

const (
	SortDefault   SortOption = "default"
	SortNameAsc   SortOption = "name-asc"
	SortNameDesc  SortOption = "name-desc"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
)

// ParseSortOption validates s against the closed sort option set.
// Unknown values are reported with ok=false and the default option.
func ParseSortOption(s string) (SortOption, bool) {
	switch SortOption(s) {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc, SortDefault:
		return SortOption(s), true
	}
	return SortDefault, false
}

// PriceRange is an inclusive price constraint in decimal currency units.
// Either bound may be absent.
type PriceRange struct {
	Min *float64
	Max *float64
}

// ProductFilters describes the customer's current catalog view.
// A nil field means "no constraint".
type ProductFilters struct {
	CategoryID  *string
	SearchText  *string
	Author      *string
	PriceRange  *PriceRange
	HasDiscount *bool
	SortBy      SortOption
}

// ActiveCount reports how many filters are active, used for the
// removable filter tags in the storefront response.
func (f ProductFilters) ActiveCount() int {
	var n int
	if f.CategoryID != nil {
		n++
	}
	if f.SearchText != nil {
		n++
	}
	if f.Author != nil {
		n++
	}
	if f.PriceRange != nil {
		n++
	}
	if f.HasDiscount != nil {
		n++
	}
	return n
}

type (
	// Product is the normalized projection of a remote product.
	//
	// Price always reflects the currently effective unit price.
	// OriginalPrice is set if and only if HasDiscount is true.
	Product struct {
		ID                 string
		Key                string
		Name               string
		Description        string
		Price              float64
		OriginalPrice      *float64
		ImageURL           string
		CategoryID         string
		Category           string
		HasDiscount        bool
		DiscountPercentage int
		DiscountAmount     float64
		Author             string
		Attributes         map[string]string
	}

	Category struct {
		ID   string
		Key  string
		Name string
		Slug string
	}

	// CatalogPage is one page of a filtered catalog view.
	// Total counts server-side matches before client-side refinement.
	CatalogPage struct {
		Items    []Product
		Page     int
		PageSize int
		Total    int
	}
)
