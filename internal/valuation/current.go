package valuation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"portfolioTracker/internal/fx"
	"portfolioTracker/internal/market"
)

// CurrentValue computes the current per-ticker and total portfolio value in
// the base currency. Quotes are fetched in parallel; rows are assembled in
// snapshot ticker order once all fetches are done. A single latest rate table
// keyed by the base currency is shared across tickers. Any unavailable ticker
// fails the whole computation before artifacts exist.
func (e *Engine) CurrentValue(ctx context.Context, holdings Holdings, base string) (*CurrentValueResult, error) {
	requestedAt := e.now().In(e.loc)
	result := &CurrentValueResult{
		Rows:         []Row{},
		BaseCurrency: base,
		RequestedAt:  requestedAt,
	}
	if len(holdings) == 0 {
		return result, nil
	}

	quotes := make([]market.Quote, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, holding := range holdings {
		i, holding := i, holding
		g.Go(func() error {
			q, err := e.market.GetCurrentPrice(gctx, holding.Ticker)
			if err != nil {
				return fmt.Errorf("quote %s: %w", holding.Ticker, err)
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var latest fx.RateTable
	for _, q := range quotes {
		if q.Currency != base {
			rates, err := e.rates.GetLatestRates(ctx, base)
			if err != nil {
				return nil, err
			}
			latest = rates
			break
		}
	}

	total := 0.0
	for i, holding := range holdings {
		q := quotes[i]
		rate := 1.0
		if q.Currency != base {
			r, ok := latest[q.Currency]
			if !ok {
				return nil, fmt.Errorf("%w: no %s rate for base %s", fx.ErrRateProviderUnavailable, q.Currency, base)
			}
			rate = r
		}
		subtotal := round2(q.Price * float64(holding.Quantity))
		// The rate table expresses base->other, so converting back divides.
		subtotalBase := round2(subtotal / rate)
		result.Rows = append(result.Rows, Row{
			Ticker:       holding.Ticker,
			Quantity:     holding.Quantity,
			Currency:     q.Currency,
			Price:        q.Price,
			Subtotal:     subtotal,
			Rate:         rate,
			SubtotalBase: subtotalBase,
		})
		total += subtotalBase
	}
	result.Total = round2(total)

	e.log.Debug().
		Str("base", base).
		Int("tickers", len(holdings)).
		Float64("total", result.Total).
		Msg("current value computed")
	return result, nil
}
