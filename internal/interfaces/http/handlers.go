package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/stockrun/internal/cell"
	"github.com/sawpanic/stockrun/internal/domain"
	"github.com/sawpanic/stockrun/internal/query"
)

// Handlers holds the endpoint handlers and their collaborators.
type Handlers struct {
	bridge    *query.Bridge
	readiness *query.ReadinessReporter
	registry  *cell.Registry
}

// NewHandlers wires the endpoint handlers.
func NewHandlers(bridge *query.Bridge, readiness *query.ReadinessReporter, registry *cell.Registry) *Handlers {
	return &Handlers{
		bridge:    bridge,
		readiness: readiness,
		registry:  registry,
	}
}

// GetStock serves GET /stocks/{symbol}. Unknown symbols answer 200
// with the minimum-viable stock; only validation failures are 400.
func (h *Handlers) GetStock(w http.ResponseWriter, r *http.Request) {
	symbol := domain.Canonicalize(mux.Vars(r)["symbol"])
	if err := domain.ValidateSymbol(symbol); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeInvalidSymbol,
			"symbol must be 1-10 characters from [A-Z0-9.-]")
		return
	}

	stock, err := h.bridge.AskOne(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrAskTimeout) {
			h.writeError(w, r, http.StatusGatewayTimeout, CodeAskTimeout,
				"cell did not reply within the ask timeout")
			return
		}
		log.Error().Str("symbol", symbol).Err(err).Msg("stock query failed")
		h.writeError(w, r, http.StatusInternalServerError, CodeInternal,
			"unexpected error handling the request")
		return
	}

	h.writeJSON(w, http.StatusOK, stock)
}

// ListStocks serves GET /stocks: every cell's current value, timed-out
// cells omitted.
func (h *Handlers) ListStocks(w http.ResponseWriter, r *http.Request) {
	stocks := h.bridge.AskAll(r.Context())
	h.writeJSON(w, http.StatusOK, stocks)
}

// Health serves GET /health with the four-state readiness report.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	report := h.readiness.Report()
	h.writeJSON(w, http.StatusOK, HealthResponse{
		State:     report.State,
		Total:     report.Total,
		Processed: report.Processed,
		Percent:   report.Percent,
		Timestamp: time.Now().UTC(),
	})
}

// Warmup serves GET /warmup with the detailed progress counters.
func (h *Handlers) Warmup(w http.ResponseWriter, r *http.Request) {
	report := h.readiness.Report()
	h.writeJSON(w, http.StatusOK, WarmupResponse{
		State:     report.State,
		Started:   report.Started,
		Completed: report.Completed,
		Total:     report.Total,
		Processed: report.Processed,
		Skipped:   report.Skipped,
		Percent:   report.Percent,
		Cells:     h.registry.Count(),
	})
}

// NotFound handles unmatched routes with the standard envelope.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusNotFound, CodeNotFound,
		"the requested endpoint does not exist")
}

// writeJSON writes a JSON response with a fallback on encode failure.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("response encoding failed")
		http.Error(w, `{"code":"INTERNAL_ERROR","message":"json encoding failed"}`,
			http.StatusInternalServerError)
	}
}

// writeError writes the standardized error envelope.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
	})
}
