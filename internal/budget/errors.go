package budget

import "errors"

var (
	// ErrTransactionNotFound is returned when a referenced transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrOrganizationNotFound is returned when the owning organization does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrInsufficientFunds is returned when a mutation would drive the
	// organization's balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds for this expense")

	// ErrInvalidAmount is returned for non-positive transaction amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)
