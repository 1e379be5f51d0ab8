package valuation

import (
	"sort"
	"time"
)

// Holding is one line item of a portfolio snapshot.
type Holding struct {
	Ticker   string
	Quantity int64
}

// Holdings is an immutable portfolio snapshot, kept sorted by ticker. The
// engines never mutate it.
type Holdings []Holding

// NewHoldings builds a sorted snapshot from a ticker -> quantity mapping.
func NewHoldings(quantities map[string]int64) Holdings {
	h := make(Holdings, 0, len(quantities))
	for ticker, qty := range quantities {
		h = append(h, Holding{Ticker: ticker, Quantity: qty})
	}
	sort.Slice(h, func(i, j int) bool { return h[i].Ticker < h[j].Ticker })
	return h
}

// Tickers returns the tickers in snapshot order.
func (h Holdings) Tickers() []string {
	out := make([]string, len(h))
	for i, holding := range h {
		out[i] = holding.Ticker
	}
	return out
}

// Row is one per-ticker line of a current valuation.
type Row struct {
	Ticker       string  `json:"ticker"`
	Quantity     int64   `json:"quantity"`
	Currency     string  `json:"currency"`
	Price        float64 `json:"price"`
	Subtotal     float64 `json:"subtotal"`      // price x quantity, in ticker currency
	Rate         float64 `json:"exchange_rate"` // base -> ticker currency
	SubtotalBase float64 `json:"subtotal_base"` // subtotal / rate, in base currency
}

// CurrentValueResult is the output of CurrentValue.
type CurrentValueResult struct {
	Rows         []Row     `json:"rows"`
	Total        float64   `json:"total"`
	BaseCurrency string    `json:"base_currency"`
	RequestedAt  time.Time `json:"requested_at"`
}

// Table is a date-indexed table with one column per ticker plus a trailing
// "Sum" column. Dates are canonical, strictly increasing and unique. Each row
// of Cells has len(Tickers)+1 values, the last being the row sum.
type Table struct {
	Dates   []string    `json:"dates"`
	Tickers []string    `json:"tickers"`
	Cells   [][]float64 `json:"cells"`
}

// Columns returns the column headers: tickers followed by "Sum".
func (t Table) Columns() []string {
	return append(append([]string{}, t.Tickers...), "Sum")
}

// SumColumn returns the trailing column, one value per date.
func (t Table) SumColumn() []float64 {
	out := make([]float64, len(t.Cells))
	for i, row := range t.Cells {
		out[i] = row[len(row)-1]
	}
	return out
}

// HistoryResult is the output of History.
type HistoryResult struct {
	Table        Table     `json:"table"`
	BaseCurrency string    `json:"base_currency"`
	RequestedAt  time.Time `json:"requested_at"`
}

// GainResult is the output of Gain: absolute deltas in base currency and
// relative deltas in percent, both on the history date axis.
type GainResult struct {
	Absolute     Table     `json:"absolute"`
	Relative     Table     `json:"relative"`
	BaseCurrency string    `json:"base_currency"`
	RequestedAt  time.Time `json:"requested_at"`
}
