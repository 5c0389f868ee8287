package httphandler

import (
	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/service"
)

type (
	Product struct {
		ID                 string   `json:"id"`
		Key                string   `json:"key,omitempty"`
		Name               string   `json:"name"`
		HighlightedName    string   `json:"highlighted_name,omitempty"`
		Description        string   `json:"description,omitempty"`
		Price              float64  `json:"price"`
		OriginalPrice      *float64 `json:"original_price,omitempty"`
		ImageURL           string   `json:"image_url,omitempty"`
		Category           string   `json:"category,omitempty"`
		HasDiscount        bool     `json:"has_discount"`
		DiscountPercentage int      `json:"discount_percentage,omitempty"`
		Author             string   `json:"author,omitempty"`
	}

	CatalogPage struct {
		Items         []Product `json:"items"`
		Page          int       `json:"page"`
		PageSize      int       `json:"page_size"`
		Total         int       `json:"total"`
		ActiveFilters int       `json:"active_filters"`
		Query         string    `json:"query"`
	}

	Category struct {
		ID   string `json:"id"`
		Key  string `json:"key,omitempty"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}

	LineItem struct {
		ID         string  `json:"id"`
		ProductID  string  `json:"product_id"`
		ProductKey string  `json:"product_key,omitempty"`
		Name       string  `json:"name"`
		Quantity   int     `json:"quantity"`
		Price      float64 `json:"price"`
		TotalPrice float64 `json:"total_price"`
		ImageURL   string  `json:"image_url,omitempty"`
	}

	Cart struct {
		ID         string     `json:"id"`
		Version    int        `json:"version"`
		Items      []LineItem `json:"items"`
		TotalPrice float64    `json:"total_price"`
		Currency   string     `json:"currency"`
		ItemCount  int        `json:"item_count"`
		PromoCode  string     `json:"promo_code,omitempty"`
	}

	AddItemRequest struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}

	QuantityRequest struct {
		Quantity int `json:"quantity"`
	}

	PromoRequest struct {
		Code string `json:"code"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		CustomerID string `json:"customer_id"`
	}

	ErrorResponse struct {
		Error     string `json:"error"`
		Retryable bool   `json:"retryable,omitempty"`
	}
)

func toProductDTO(p domain.Product, searchTerm string) Product {
	dto := Product{
		ID:                 p.ID,
		Key:                p.Key,
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price,
		OriginalPrice:      p.OriginalPrice,
		ImageURL:           p.ImageURL,
		Category:           p.Category,
		HasDiscount:        p.HasDiscount,
		DiscountPercentage: p.DiscountPercentage,
		Author:             p.Author,
	}
	if searchTerm != "" {
		dto.HighlightedName = service.HighlightMatches(p.Name, searchTerm)
	}
	return dto
}

func toCartDTO(c domain.Cart) Cart {
	dto := Cart{
		ID:         c.ID,
		Version:    c.Version,
		Items:      make([]LineItem, 0, len(c.Items)),
		TotalPrice: c.TotalPrice,
		Currency:   c.Currency,
		ItemCount:  c.ItemCount,
	}
	if c.Promo != nil {
		dto.PromoCode = c.Promo.Code
	}
	for _, li := range c.Items {
		dto.Items = append(dto.Items, LineItem{
			ID:         li.ID,
			ProductID:  li.ProductID,
			ProductKey: li.ProductKey,
			Name:       li.Name,
			Quantity:   li.Quantity,
			Price:      li.Price,
			TotalPrice: li.TotalPrice,
			ImageURL:   li.ImageURL,
		})
	}
	return dto
}
