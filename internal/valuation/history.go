package valuation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"portfolioTracker/internal/fx"
	"portfolioTracker/internal/market"
)

const lookbackMonths = 12

type tickerSeries struct {
	currency string
	samples  map[string]float64 // canonical date -> close
	all      []float64          // closes in sample order
}

// History computes the trailing 1-year monthly time series of per-ticker and
// total value in the base currency.
//
// The shared date axis is seeded from the first ticker of the snapshot; other
// tickers are aligned onto it and gaps are filled with that ticker's own mean
// close. Providers can return slightly different calendars per ticker, so the
// axis is a best-effort shared frame rather than an exact union.
func (e *Engine) History(ctx context.Context, holdings Holdings, base string) (*HistoryResult, error) {
	requestedAt := e.now().In(e.loc)
	result := &HistoryResult{
		Table:        Table{Dates: []string{}, Tickers: []string{}, Cells: [][]float64{}},
		BaseCurrency: base,
		RequestedAt:  requestedAt,
	}
	if len(holdings) == 0 {
		return result, nil
	}
	result.Table.Tickers = holdings.Tickers()

	series := make([]tickerSeries, len(holdings))
	var axis []string
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, holding := range holdings {
		i, holding := i, holding
		g.Go(func() error {
			points, err := e.market.GetMonthlyHistory(gctx, holding.Ticker, lookbackMonths)
			if err != nil {
				return fmt.Errorf("history %s: %w", holding.Ticker, err)
			}
			quote, err := e.market.GetCurrentPrice(gctx, holding.Ticker)
			if err != nil {
				return fmt.Errorf("quote %s: %w", holding.Ticker, err)
			}
			s := tickerSeries{
				currency: quote.Currency,
				samples:  make(map[string]float64, len(points)),
				all:      make([]float64, 0, len(points)),
			}
			for _, p := range points {
				key := CanonicalDate(p.Date).Format(dateLayout)
				s.samples[key] = p.Close
				s.all = append(s.all, p.Close)
			}
			series[i] = s
			if i == 0 {
				axis = canonicalAxis(points)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(axis) == 0 {
		return nil, fmt.Errorf("empty date axis for %s", holdings[0].Ticker)
	}
	result.Table.Dates = axis

	// Align each ticker onto the axis, filling gaps with its own mean.
	filled := make([][]float64, len(holdings))
	for i := range holdings {
		filled[i] = alignSeries(series[i], axis)
	}

	var rangeRates fx.RateTableByDate
	for i := range series {
		if series[i].currency != base {
			rates, err := e.rates.GetRatesForRange(ctx, base, axis[0], axis[len(axis)-1])
			if err != nil {
				return nil, err
			}
			rangeRates = rates
			break
		}
	}

	for di, date := range axis {
		row := make([]float64, 0, len(holdings)+1)
		rowSum := 0.0
		for ti, holding := range holdings {
			rate := 1.0
			if series[ti].currency != base {
				r, err := rateOnOrBefore(rangeRates, date, series[ti].currency)
				if err != nil {
					return nil, err
				}
				rate = r
			}
			value := round2(filled[ti][di] * float64(holding.Quantity) / rate)
			row = append(row, value)
			rowSum += value
		}
		row = append(row, round2(rowSum))
		result.Table.Cells = append(result.Table.Cells, row)
	}

	e.log.Debug().
		Str("base", base).
		Int("tickers", len(holdings)).
		Int("dates", len(axis)).
		Msg("history computed")
	return result, nil
}

// canonicalAxis builds a strictly increasing, duplicate-free canonical date
// axis from one ticker's samples.
func canonicalAxis(points []market.PricePoint) []string {
	axis := make([]string, 0, len(points))
	prev := ""
	for _, p := range points {
		key := CanonicalDate(p.Date).Format(dateLayout)
		if key <= prev {
			continue
		}
		axis = append(axis, key)
		prev = key
	}
	return axis
}

// alignSeries maps a ticker's samples onto the axis. Dates the ticker has no
// sample for take the mean of its own available samples, never zero and never
// another ticker's value.
func alignSeries(s tickerSeries, axis []string) []float64 {
	matched := make([]float64, 0, len(axis))
	for _, date := range axis {
		if v, ok := s.samples[date]; ok {
			matched = append(matched, v)
		}
	}
	fill := mean(matched)
	if len(matched) == 0 {
		fill = mean(s.all)
	}

	out := make([]float64, len(axis))
	for i, date := range axis {
		if v, ok := s.samples[date]; ok {
			out[i] = v
		} else {
			out[i] = fill
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// rateOnOrBefore finds the rate for currency on date, stepping back one day at
// a time over weekends and holidays. The search is bounded; exceeding the
// window is a typed failure rather than an endless walk.
func rateOnOrBefore(rates fx.RateTableByDate, date, currency string) (float64, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("bad axis date %q: %w", date, err)
	}
	for back := 0; back <= maxRateLookbackDays; back++ {
		key := day.AddDate(0, 0, -back).Format(dateLayout)
		if table, ok := rates[key]; ok {
			if r, ok := table[currency]; ok {
				return r, nil
			}
		}
	}
	return 0, &RateLookupError{Currency: currency, Date: date}
}
