package billing

import "errors"

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrCommissionNotFound   = errors.New("commission not found")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidAmount        = errors.New("payment amount must be positive")
	ErrInvalidPaidAmount    = errors.New("paid amount cannot be negative")
)
