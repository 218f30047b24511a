package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidSymbol indicates an inbound symbol that failed validation.
// Surfaces as HTTP 400 with code INVALID_STOCK_SYMBOL.
var ErrInvalidSymbol = errors.New("invalid stock symbol")

// ErrAskTimeout indicates a cell did not reply within the ask timeout.
// Surfaces as HTTP 504 for single-symbol lookups; all-symbol queries
// omit the timed-out cell instead.
var ErrAskTimeout = errors.New("ask timed out waiting for cell reply")

// StatusError reports a non-2xx response from the market data provider.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
}

// Retryable reports whether the failure class permits a retry. Client
// errors (4xx) are permanent; server errors are transient.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500
}
