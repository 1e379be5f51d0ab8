package valuation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"portfolioTracker/internal/fx"
	"portfolioTracker/internal/market"
)

// mockMarket serves canned quotes and monthly series.
type mockMarket struct {
	quotes  map[string]market.Quote
	history map[string][]market.PricePoint
}

func (m *mockMarket) GetCurrentPrice(_ context.Context, ticker string) (market.Quote, error) {
	q, ok := m.quotes[ticker]
	if !ok {
		return market.Quote{}, fmt.Errorf("%w: %s", market.ErrTickerNotFound, ticker)
	}
	return q, nil
}

func (m *mockMarket) GetMonthlyHistory(_ context.Context, ticker string, _ int) ([]market.PricePoint, error) {
	points, ok := m.history[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", market.ErrTickerNotFound, ticker)
	}
	return points, nil
}

// mockRates serves canned rate tables and counts latest-rate calls.
type mockRates struct {
	latest      fx.RateTable
	byDate      fx.RateTableByDate
	latestCalls atomic.Int64
	rangeCalls  atomic.Int64
	err         error
}

func (m *mockRates) GetLatestRates(_ context.Context, _ string) (fx.RateTable, error) {
	m.latestCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.latest, nil
}

func (m *mockRates) GetRatesForRange(_ context.Context, _, _, _ string) (fx.RateTableByDate, error) {
	m.rangeCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.byDate, nil
}

var testRequestTime = time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)

func newTestEngine(m *mockMarket, r *mockRates) *Engine {
	e := NewEngine(m, r, FixedZone(3), zerolog.Nop())
	e.now = func() time.Time { return testRequestTime }
	return e
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyPoints(closes map[string]float64) []market.PricePoint {
	// Keys are dates formatted 2006-01-02; returned in ascending date order.
	points := make([]market.PricePoint, 0, len(closes))
	for ds, close := range closes {
		t, err := time.Parse(dateLayout, ds)
		if err != nil {
			panic(err)
		}
		points = append(points, market.PricePoint{Date: t, Close: close})
	}
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if points[j].Date.Before(points[i].Date) {
				points[i], points[j] = points[j], points[i]
			}
		}
	}
	return points
}
