package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
	"github.com/crazybooks/storefront/internal/core/service"
)

// GET /v1/catalog/products?category=&search=&author=&minPrice=&maxPrice=&discount=true&sort=&page=
// GET /v1/catalog/categories

type CatalogHandler struct {
	catalog port.CatalogBrowser
}

func RegisterCatalog(mux *http.ServeMux, catalog port.CatalogBrowser) {
	h := CatalogHandler{catalog}
	mux.HandleFunc("GET /v1/catalog/products", h.GetProducts)
	mux.HandleFunc("GET /v1/catalog/categories", h.GetCategories)
}

func (h CatalogHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProducts"
	log := slog.With("op", op)

	filters, page := service.ParseFilters(r.URL.Query(), h.catalog)

	result, err := h.catalog.Browse(r.Context(), filters, page)
	if err != nil {
		writeError(w, http.StatusBadGateway,
			ErrorResponse{Error: "items failed to load", Retryable: true})
		log.Error("failed to browse catalog", "err", err)
		return
	}

	var term string
	if filters.SearchText != nil {
		term = *filters.SearchText
	}

	resp := CatalogPage{
		Items:         make([]Product, 0, len(result.Items)),
		Page:          result.Page,
		PageSize:      result.PageSize,
		Total:         result.Total,
		ActiveFilters: filters.ActiveCount(),
		Query:         service.CanonicalQuery(filters, result.Page),
	}
	for _, p := range result.Items {
		resp.Items = append(resp.Items, toProductDTO(p, term))
	}

	writeJSON(w, http.StatusOK, resp)
	log.Info("catalog page served", "items", len(resp.Items), "query", resp.Query)
}

func (h CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetCategories"
	log := slog.With("op", op)

	cs, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway,
			ErrorResponse{Error: "categories failed to load", Retryable: true})
		log.Error("failed to fetch categories", "err", err)
		return
	}

	dtos := make([]Category, 0, len(cs))
	for _, c := range cs {
		dtos = append(dtos, Category{ID: c.ID, Key: c.Key, Name: c.Name, Slug: c.Slug})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, e ErrorResponse) {
	writeJSON(w, status, e)
}

// writeDomainError maps core failures onto the storefront's status
// contract.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict,
			ErrorResponse{Error: "cart was modified concurrently, try again"})
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized,
			ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrInvalidPromo):
		writeError(w, http.StatusUnprocessableEntity,
			ErrorResponse{Error: "promo code is not valid"})
	default:
		writeError(w, http.StatusBadGateway,
			ErrorResponse{Error: "storefront is temporarily unavailable", Retryable: true})
	}
}
