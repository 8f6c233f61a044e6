package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedPlan    = errors.New("unsupported plan")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrDuplicateOperation = errors.New("duplicate operation")
)
