package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioTracker/internal/config"
	"portfolioTracker/internal/fx"
	"portfolioTracker/internal/market"
	"portfolioTracker/internal/report"
	"portfolioTracker/internal/storage"
	"portfolioTracker/internal/valuation"
)

type stubMarket struct {
	quotes  map[string]market.Quote
	history map[string][]market.PricePoint
}

func (m *stubMarket) GetCurrentPrice(_ context.Context, ticker string) (market.Quote, error) {
	q, ok := m.quotes[ticker]
	if !ok {
		return market.Quote{}, fmt.Errorf("%w: %s", market.ErrTickerNotFound, ticker)
	}
	return q, nil
}

func (m *stubMarket) GetMonthlyHistory(_ context.Context, ticker string, _ int) ([]market.PricePoint, error) {
	points, ok := m.history[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", market.ErrTickerNotFound, ticker)
	}
	return points, nil
}

type stubRates struct{}

func (stubRates) GetLatestRates(context.Context, string) (fx.RateTable, error) {
	return fx.RateTable{"EUR": 0.93}, nil
}

func (stubRates) GetRatesForRange(context.Context, string, string, string) (fx.RateTableByDate, error) {
	return fx.RateTableByDate{}, nil
}

func newTestServer(t *testing.T, m market.Provider) *httptest.Server {
	t.Helper()
	db, err := storage.OpenSQLite("file::memory:?cache=shared&_fk=1")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, storage.InitSchema(db))

	log := zerolog.Nop()
	emitter, err := report.NewEmitter(t.TempDir(), log)
	require.NoError(t, err)

	s := New(Deps{
		Config:  &config.Config{Port: 0, MediaDir: "media", BaseCurrency: "USD", TZOffsetHrs: 3},
		Log:     log,
		Repo:    storage.NewPortfolioRepository(db, log),
		Engine:  valuation.NewEngine(m, stubRates{}, time.FixedZone("", 3*3600), log),
		Emitter: emitter,
		Market:  m,
	})
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func createPortfolio(t *testing.T, base, title string) int64 {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, base+"/api/portfolios/", map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return int64(body["id"].(float64))
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubMarket{})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestPortfolioLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, &stubMarket{})
	id := createPortfolio(t, srv.URL, "retirement")

	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/portfolios/%d/", srv.URL, id), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "retirement", body["portfolio"].(map[string]any)["title"])
	assert.Empty(t, body["items"])

	resp, _ = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/portfolios/%d/", srv.URL, id), map[string]string{"title": "long term"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/portfolios/%d/", srv.URL, id), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/portfolios/%d/", srv.URL, id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePortfolioRequiresTitle(t *testing.T) {
	srv := newTestServer(t, &stubMarket{})

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/portfolios/", map[string]string{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddItemValidatesTicker(t *testing.T) {
	m := &stubMarket{quotes: map[string]market.Quote{"AAPL": {Price: 150, Currency: "USD"}}}
	srv := newTestServer(t, m)
	id := createPortfolio(t, srv.URL, "growth")

	url := fmt.Sprintf("%s/api/portfolios/%d/items", srv.URL, id)

	resp, body := doJSON(t, http.MethodPost, url, map[string]any{"ticker": "aapl", "quantity": 10})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "AAPL", body["ticker"])

	resp, body = doJSON(t, http.MethodPost, url, map[string]any{"ticker": "NOSUCH", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "does not exist")

	resp, _ = doJSON(t, http.MethodPost, url, map[string]any{"ticker": "AAPL", "quantity": 5})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, url, map[string]any{"ticker": "AAPL", "quantity": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComputeCurrentValue(t *testing.T) {
	m := &stubMarket{quotes: map[string]market.Quote{"AAPL": {Price: 150, Currency: "USD"}}}
	srv := newTestServer(t, m)
	id := createPortfolio(t, srv.URL, "growth")

	resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/portfolios/%d/items", srv.URL, id),
		map[string]any{"ticker": "AAPL", "quantity": 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/portfolios/%d/compute", srv.URL, id),
		map[string]string{"kind": "current"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := body["result"].(map[string]any)["current"].(map[string]any)
	assert.Equal(t, 1500.0, result["total"])
	assert.Equal(t, "USD", result["base_currency"])

	artifacts := body["artifacts"].(map[string]any)
	assert.Contains(t, artifacts["csv"], "portfolio_value_")
	assert.Nil(t, artifacts["warnings"])
}

func TestComputeValidation(t *testing.T) {
	srv := newTestServer(t, &stubMarket{})
	id := createPortfolio(t, srv.URL, "growth")
	url := fmt.Sprintf("%s/api/portfolios/%d/compute", srv.URL, id)

	resp, body := doJSON(t, http.MethodPost, url, map[string]string{"kind": "bogus"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "kind")

	resp, body = doJSON(t, http.MethodPost, url, map[string]string{"kind": "current", "base_currency": "ZZZ"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "unknown base currency")
}

func TestComputeUnknownTickerIsBadGateway(t *testing.T) {
	m := &stubMarket{quotes: map[string]market.Quote{"AAPL": {Price: 150, Currency: "USD"}}}
	srv := newTestServer(t, m)
	id := createPortfolio(t, srv.URL, "growth")

	resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/portfolios/%d/items", srv.URL, id),
		map[string]any{"ticker": "AAPL", "quantity": 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// market data disappears between add and compute
	delete(m.quotes, "AAPL")

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/portfolios/%d/compute", srv.URL, id),
		map[string]string{"kind": "current"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
