package core

import "errors"

// Engine error kinds. Callers distinguish them with errors.Is:
// ErrInvalidInput is a structural problem with the request itself,
// the other two indicate a denomination-configuration or cash-supply
// defect and are never the caller's fault.
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidInput           = errors.New("invalid distribution input")
	ErrUnrepresentableAmount  = errors.New("amount not representable with configured denominations")
	ErrInsufficientInventory  = errors.New("insufficient denomination inventory")
	ErrInvalidDenominationSet = errors.New("invalid denomination set")
)
