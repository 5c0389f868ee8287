package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("version conflict")
	ErrNotAuthenticated = errors.New("customer is not authenticated")
	ErrInvalidPromo     = errors.New("promo code is not valid")
)
