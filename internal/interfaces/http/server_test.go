package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/stockrun/internal/cell"
	"github.com/sawpanic/stockrun/internal/domain"
	"github.com/sawpanic/stockrun/internal/query"
	"github.com/sawpanic/stockrun/internal/telemetry/metrics"
	"github.com/sawpanic/stockrun/internal/warmup"
)

type fixture struct {
	server   *Server
	registry *cell.Registry
	progress *warmup.Progress
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	m := metrics.NewRegistry()
	registry := cell.NewRegistry()
	progress := warmup.NewProgress()
	bridge := query.NewBridge(registry, time.Second, m)
	readiness := query.NewReadinessReporter(progress)
	handlers := NewHandlers(bridge, readiness, registry)

	server, err := NewServer(ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		IdleTimeout:  time.Second,
	}, handlers, m)
	require.NoError(t, err)

	return &fixture{server: server, registry: registry, progress: progress}
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_GetStockPopulated(t *testing.T) {
	f := newFixture(t)
	f.registry.Get("AAPL").Initialize(
		domain.Listing{Symbol: "AAPL", Type: "Common Stock", Currency: "USD"},
		domain.Profile{Name: "Apple Inc.", Industry: "Technology"},
	)

	rec := f.do("GET", "/stocks/AAPL")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var stock map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stock))
	assert.Equal(t, "AAPL", stock["symbol"])
	assert.Equal(t, "Apple Inc.", stock["name"])
	assert.Equal(t, "Technology", stock["finnhubIndustry"])
	assert.NotEmpty(t, stock["lastUpdated"])
}

func TestServer_GetStockUnknownSymbolIsOK(t *testing.T) {
	f := newFixture(t)

	rec := f.do("GET", "/stocks/ZZZZ")

	require.Equal(t, http.StatusOK, rec.Code)

	var stock map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stock))
	assert.Equal(t, "ZZZZ", stock["symbol"])
	assert.Equal(t, "", stock["name"])
	assert.Nil(t, stock["marketCapitalization"])

	// The lookup created a placeholder cell.
	assert.Equal(t, 1, f.registry.Count())
}

func TestServer_GetStockLowercasePathCanonicalized(t *testing.T) {
	f := newFixture(t)
	f.registry.Get("AAPL").Initialize(
		domain.Listing{Symbol: "AAPL"},
		domain.Profile{Name: "Apple Inc."},
	)

	rec := f.do("GET", "/stocks/aapl")

	require.Equal(t, http.StatusOK, rec.Code)
	var stock map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stock))
	assert.Equal(t, "Apple Inc.", stock["name"])
}

func TestServer_GetStockInvalidSymbol(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "special_characters", path: "/stocks/aa$$"},
		{name: "too_long", path: "/stocks/ABCDEFGHIJK"},
		{name: "underscore", path: "/stocks/AA_B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do("GET", tt.path)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, CodeInvalidSymbol, errResp.Code)
			assert.Equal(t, tt.path, errResp.Path)
			assert.False(t, errResp.Timestamp.IsZero())

			// Validation failures never create cells.
			assert.Equal(t, 0, f.registry.Count())
		})
	}
}

func TestServer_GetStockAskTimeout(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("GET", "/stocks/AAPL", nil)
	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	req = req.WithContext(expired)

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, CodeAskTimeout, errResp.Code)
}

func TestServer_ListStocks(t *testing.T) {
	f := newFixture(t)

	rec := f.do("GET", "/stocks")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, s := range []string{"AAPL", "MSFT"} {
		f.registry.Get(s).Initialize(
			domain.Listing{Symbol: s, Type: "Common Stock"},
			domain.Profile{Name: s + " Inc."},
		)
	}

	rec = f.do("GET", "/stocks")
	require.Equal(t, http.StatusOK, rec.Code)

	var stocks []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stocks))
	assert.Len(t, stocks, 2)
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)

	rec := f.do("GET", "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "starting", health.State)

	f.progress.Start()
	f.progress.SetTotal(2)
	f.progress.IncProcessed()

	rec = f.do("GET", "/health")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "warming", health.State)
	assert.Equal(t, 2, health.Total)
	assert.Equal(t, 1, health.Processed)
	assert.Equal(t, 50, health.Percent)

	f.progress.IncProcessed()
	f.progress.Complete()

	rec = f.do("GET", "/health")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ready", health.State)
	assert.Equal(t, 100, health.Percent)
}

func TestServer_Warmup(t *testing.T) {
	f := newFixture(t)
	f.progress.Start()
	f.progress.SetTotal(4)
	f.progress.IncProcessed()
	f.progress.IncSkipped()

	rec := f.do("GET", "/warmup")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp WarmupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Started)
	assert.False(t, resp.Completed)
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, 1, resp.Processed)
	assert.Equal(t, 1, resp.Skipped)
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do("GET", "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stockrun_")
}

func TestServer_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do("GET", "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, CodeNotFound, errResp.Code)
}
