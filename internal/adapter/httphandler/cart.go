package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crazybooks/storefront/internal/core/domain"
	"github.com/crazybooks/storefront/internal/core/port"
)

// GET    /v1/cart
// POST   /v1/cart/items            {"product_id", "quantity"}
// PATCH  /v1/cart/items/{id}       {"quantity"}
// DELETE /v1/cart/items/{id}
// DELETE /v1/cart
// POST   /v1/cart/promo            {"code"}
// DELETE /v1/cart/promo

type CartHandler struct {
	carts port.CartManager
}

func RegisterCart(mux *http.ServeMux, carts port.CartManager) {
	h := CartHandler{carts}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("POST /v1/cart/items", h.AddItem)
	mux.HandleFunc("PATCH /v1/cart/items/{id}", h.ChangeQuantity)
	mux.HandleFunc("DELETE /v1/cart/items/{id}", h.RemoveItem)
	mux.HandleFunc("DELETE /v1/cart", h.ClearCart)
	mux.HandleFunc("POST /v1/cart/promo", h.ApplyPromo)
	mux.HandleFunc("DELETE /v1/cart/promo", h.RemovePromo)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	log := slog.With("op", op)

	c, err := h.carts.GetOrCreateCart(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, err)
		log.Error("failed to resolve cart", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"
	log := slog.With("op", op)

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest,
			ErrorResponse{Error: "product_id is required"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest,
			ErrorResponse{Error: "quantity must be positive"})
		return
	}

	c, err := h.carts.AddProduct(r.Context(), sessionID(r), req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		log.Error("failed to add product", "productID", req.ProductID, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

func (h CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.ChangeQuantity"
	log := slog.With("op", op)

	var req QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest,
			ErrorResponse{Error: "quantity must be positive"})
		return
	}

	c, err := h.carts.UpdateQuantity(
		r.Context(), sessionID(r), r.PathValue("id"), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		log.Error("failed to change quantity", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

func (h CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.RemoveItem"
	log := slog.With("op", op)

	c, err := h.carts.RemoveLineItem(r.Context(), sessionID(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		log.Error("failed to remove line item", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

func (h CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.ClearCart"
	log := slog.With("op", op)

	c, err := h.carts.ClearCart(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, err)
		log.Error("failed to clear cart", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

func (h CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.ApplyPromo"
	log := slog.With("op", op)

	var req PromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest,
			ErrorResponse{Error: "code is required"})
		return
	}

	c, err := h.carts.ApplyPromoCode(r.Context(), sessionID(r), req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusUnprocessableEntity,
				ErrorResponse{Error: "promo code is not valid"})
			return
		}
		writeDomainError(w, err)
		log.Error("failed to apply promo code", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}

func (h CartHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.RemovePromo"
	log := slog.With("op", op)

	c, err := h.carts.RemovePromoCode(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, err)
		log.Error("failed to remove promo code", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(c))
}
