package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/stockrun/internal/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		APIKey:  "test-token",
		BaseURL: server.URL,
	})
}

func TestClient_ListSymbols(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stock/symbol", r.URL.Path)
		assert.Equal(t, "US", r.URL.Query().Get("exchange"))
		assert.Equal(t, "XNYS", r.URL.Query().Get("mic"))
		assert.Equal(t, "test-token", r.Header.Get("X-Finnhub-Token"))

		w.Write([]byte(`[
			{"currency":"USD","description":"APPLE INC","displaySymbol":"AAPL","symbol":"AAPL","type":"Common Stock","mic":"XNYS"},
			{"currency":"USD","description":"MICROSOFT CORP","displaySymbol":"MSFT","symbol":"MSFT","type":"Common Stock","mic":"XNYS"}
		]`))
	})

	listings, err := client.ListSymbols(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "AAPL", listings[0].Symbol)
	assert.Equal(t, "APPLE INC", listings[0].Description)
	assert.Equal(t, "Common Stock", listings[1].Type)
}

func TestClient_ListSymbolsEmptyUniverse(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	listings, err := client.ListSymbols(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestClient_FetchProfile(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stock/profile2", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-token", r.Header.Get("X-Finnhub-Token"))

		w.Write([]byte(`{"country":"US","name":"Apple Inc.","ticker":"AAPL","marketCapitalization":2500000,"finnhubIndustry":"Technology"}`))
	})

	// Symbol is canonicalized before it goes on the wire.
	profile, err := client.FetchProfile(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", profile.Name)
	assert.Equal(t, "US", profile.Country)
	assert.Equal(t, "Technology", profile.Industry)
	require.NotNil(t, profile.MarketCapitalization)
	assert.Equal(t, 2500000.0, *profile.MarketCapitalization)
}

func TestClient_FetchProfileEmptyObject(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	profile, err := client.FetchProfile(context.Background(), "ILQD")
	require.NoError(t, err)
	assert.True(t, profile.Empty())
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "not_found", status: http.StatusNotFound, retryable: false},
		{name: "rate_limited", status: http.StatusTooManyRequests, retryable: false},
		{name: "bad_gateway", status: http.StatusBadGateway, retryable: true},
		{name: "service_unavailable", status: http.StatusServiceUnavailable, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.FetchProfile(context.Background(), "AAPL")
			require.Error(t, err)

			var statusErr *domain.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.retryable, statusErr.Retryable())
		})
	}
}

func TestClient_BreakerOpensOnConsecutiveServerErrors(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := client.FetchProfile(context.Background(), "AAPL")
		require.Error(t, err)
	}

	_, err := client.FetchProfile(context.Background(), "AAPL")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestClient_BreakerIgnoresClientErrors(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	// 4xx answers are per-symbol conditions and must never open the
	// breaker, no matter how many arrive in a row.
	for i := 0; i < 20; i++ {
		_, err := client.FetchProfile(context.Background(), "AAPL")
		var statusErr *domain.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := NewClient(Config{APIKey: "test-token", BaseURL: server.URL})

	_, err := client.ListSymbols(context.Background())
	require.Error(t, err)

	var statusErr *domain.StatusError
	assert.False(t, errors.As(err, &statusErr), "transport failures are not status errors")
}
