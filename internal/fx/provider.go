package fx

import (
	"context"
	"errors"
)

// ErrRateProviderUnavailable is returned on network or parse failure of the rate source.
var ErrRateProviderUnavailable = errors.New("rate provider unavailable")

// RateTable maps a currency code to its multiplicative rate relative to a base
// currency. The base currency itself is implicitly 1.0 and never present.
type RateTable map[string]float64

// RateTableByDate maps a date ("2006-01-02") to the RateTable of that date.
type RateTableByDate map[string]RateTable

// Provider supplies exchange rates relative to a base currency.
type Provider interface {
	// GetLatestRates returns the most recent rate table for base.
	GetLatestRates(ctx context.Context, base string) (RateTable, error)
	// GetRatesForRange returns rate tables for every working day in [start, end].
	GetRatesForRange(ctx context.Context, base, start, end string) (RateTableByDate, error)
}
