package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/crazybooks/storefront/internal/core/port"
)

// POST /v1/login {"email", "password"}

type AuthHandler struct {
	signIn port.CustomerSignIn
}

func RegisterAuth(mux *http.ServeMux, signIn port.CustomerSignIn) {
	h := AuthHandler{signIn}
	mux.HandleFunc("POST /v1/login", h.Login)
}

// Login authenticates against the commerce platform. The anonymous
// cart merge runs inside the sign-in flow and never fails the login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Login"
	log := slog.With("op", op)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest,
			ErrorResponse{Error: "email and password are required"})
		return
	}

	customerID, err := h.signIn.Login(r.Context(), sessionID(r), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		log.Warn("failed login attempt", "err", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{CustomerID: customerID})
	log.Info("customer signed in", "customerID", customerID)
}
