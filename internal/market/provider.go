package market

import (
	"context"
	"errors"
	"time"
)

// ErrTickerNotFound is returned when the market data source does not know the symbol.
var ErrTickerNotFound = errors.New("ticker not found")

// Quote is the latest traded price of a symbol together with its quote currency.
type Quote struct {
	Price    float64
	Currency string
}

// PricePoint is one historical close sample.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// Provider supplies current and historical market data for a single ticker.
type Provider interface {
	// GetCurrentPrice returns the latest price and quote currency for ticker.
	GetCurrentPrice(ctx context.Context, ticker string) (Quote, error)
	// GetMonthlyHistory returns the trailing monthly close series, oldest first.
	GetMonthlyHistory(ctx context.Context, ticker string, lookbackMonths int) ([]PricePoint, error)
}
