package http

import "time"

// Error codes returned in the error envelope. Stable strings; clients
// branch on them.
const (
	CodeInvalidSymbol = "INVALID_STOCK_SYMBOL"
	CodeAskTimeout    = "ASK_TIMEOUT"
	CodeNotFound      = "ENDPOINT_NOT_FOUND"
	CodeInternal      = "INTERNAL_ERROR"
)

// ErrorResponse is the envelope every error response carries.
type ErrorResponse struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// HealthResponse is the readiness snapshot served on /health.
type HealthResponse struct {
	State     string    `json:"state"` // starting, warming, degraded, ready
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Percent   int       `json:"percent"`
	Timestamp time.Time `json:"timestamp"`
}

// WarmupResponse is the detailed warm-up progress served on /warmup.
type WarmupResponse struct {
	State     string `json:"state"`
	Started   bool   `json:"started"`
	Completed bool   `json:"completed"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Percent   int    `json:"percent"`
	Cells     int    `json:"cells"`
}
