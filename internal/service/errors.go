package service

import "errors"

// Business outcomes. These are expected results, returned as typed errors
// and mapped to payloads by the HTTP layer; only infrastructure failures
// propagate unwrapped.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrJobNotPayable       = errors.New("job not payable")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrSettlementFailed    = errors.New("settlement failed")
)
