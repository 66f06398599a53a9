package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yemen-sarraf/sarraf/storage/memory"
	"github.com/yemen-sarraf/sarraf/storage/mock"
	"github.com/yemen-sarraf/sarraf/storage/types"
)

func seededStore(t *testing.T) *memory.Storage {
	t.Helper()

	store := memory.NewStorage()

	require.NoError(t, store.Update(context.Background(), map[string]any{
		"rates/last_update":     "2026-03-15 12:30 AM",
		"rates/sanaa/usd_buy":   535,
		"rates/sanaa/usd_sell":  538,
		"rates/sanaa/sar_buy":   141,
		"rates/sanaa/sar_sell":  142,
		"rates/sanaa/trend":     0,
		"rates/aden/usd_buy":    1630,
		"rates/aden/usd_sell":   1642,
		"gold/global_ounce_usd": 4189.60,
		"gold/sanaa/gram_21":    63000,
		"gold/aden/gram_21":     192100,

		"history/sanaa/usd/2026-03-14": 534,
		"history/sanaa/usd/2026-03-15": 535,
	}))

	return store
}

func testRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()

	s.mux.ServeHTTP(rec, req)

	return rec
}

func TestRates(t *testing.T) {
	t.Parallel()

	s, err := New(seededStore(t))
	require.NoError(t, err)

	rec := testRequest(t, s, "/rates")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "2026-03-15 12:30 AM", resp.LastUpdate)

	assert.Equal(t, 535, resp.Sanaa.USDBuy)
	assert.Equal(t, 538, resp.Sanaa.USDSell)
	assert.Equal(t, 141, resp.Sanaa.SARBuy)

	assert.Equal(t, 1630, resp.Aden.USDBuy)
}

func TestRates_StoreFailure(t *testing.T) {
	t.Parallel()

	store := &mock.Store{
		GetFn: func(_ context.Context, _ string, _ any) error {
			return errors.New("store down")
		},
	}

	s, err := New(store)
	require.NoError(t, err)

	rec := testRequest(t, s, "/rates")

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, errUnableToFetchRates.Error(), resp.Error)
}

func TestGold(t *testing.T) {
	t.Parallel()

	s, err := New(seededStore(t))
	require.NoError(t, err)

	rec := testRequest(t, s, "/gold")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.GoldSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.InDelta(t, 4189.60, resp.GlobalOunceUSD, 0.001)
	assert.Equal(t, 63000, resp.Sanaa.Gram21)
	assert.Equal(t, 192100, resp.Aden.Gram21)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	s, err := New(seededStore(t))
	require.NoError(t, err)

	rec := testRequest(t, s, "/history/sanaa/usd")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, types.RegionSanaa, resp.Region)
	assert.Equal(t, types.HistoryUSD, resp.Series)
	assert.Equal(t, map[string]int{
		"2026-03-14": 534,
		"2026-03-15": 535,
	}, resp.Points)
}

func TestHistory_InvalidParams(t *testing.T) {
	t.Parallel()

	s, err := New(seededStore(t))
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "unknown region", path: "/history/taiz/usd", want: errInvalidRegion},
		{name: "unknown series", path: "/history/sanaa/btc", want: errInvalidSeries},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			rec := testRequest(t, s, test.path)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

			assert.Equal(t, test.want.Error(), resp.Error)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s, err := New(memory.NewStorage())
	require.NoError(t, err)

	rec := testRequest(t, s, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
}
