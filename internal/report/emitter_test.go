package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioTracker/internal/valuation"
)

var emitTime = time.Date(2024, 6, 15, 12, 30, 0, 0, time.FixedZone("", 3*3600))

func testValuationResult() *valuation.CurrentValueResult {
	return &valuation.CurrentValueResult{
		Rows: []valuation.Row{
			{Ticker: "AAPL", Quantity: 10, Currency: "USD", Price: 150, Subtotal: 1500, Rate: 1, SubtotalBase: 1500},
			{Ticker: "MSFT", Quantity: 5, Currency: "USD", Price: 400, Subtotal: 2000, Rate: 1, SubtotalBase: 2000},
		},
		Total:        3500,
		BaseCurrency: "USD",
		RequestedAt:  emitTime,
	}
}

func testHistoryResult() *valuation.HistoryResult {
	return &valuation.HistoryResult{
		Table: valuation.Table{
			Dates:   []string{"2024-04-30", "2024-05-31"},
			Tickers: []string{"AAPL", "MSFT"},
			Cells: [][]float64{
				{1400, 1900, 3300},
				{1450, 1950, 3400},
			},
		},
		BaseCurrency: "USD",
		RequestedAt:  emitTime,
	}
}

func TestEmitCurrentValueArtifacts(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEmitter(dir, zerolog.Nop())
	require.NoError(t, err)

	a := e.EmitCurrentValue(testValuationResult())

	assert.Empty(t, a.Warnings)
	assert.Equal(t, "portfolio_value_20240615_123000.csv", a.CSV)
	require.Equal(t, []string{"pie_portfolio_value_20240615_123000.png"}, a.Images)
	for _, name := range append([]string{a.CSV}, a.Images...) {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestEmitHistoryArtifacts(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEmitter(dir, zerolog.Nop())
	require.NoError(t, err)

	a := e.EmitHistory(testHistoryResult())

	assert.Empty(t, a.Warnings)
	assert.Equal(t, "portfolio_1Y_data_20240615_123000.csv", a.CSV)
	assert.Equal(t, []string{
		"portfolio_history_stackplot_20240615_123000.png",
		"portfolio_history_sum_20240615_123000.png",
	}, a.Images)
}

func TestEmitGainArtifacts(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEmitter(dir, zerolog.Nop())
	require.NoError(t, err)

	table := valuation.Table{
		Dates:   []string{"2024-04-30", "2024-05-31"},
		Tickers: []string{"AAPL", "MSFT"},
		Cells: [][]float64{
			{100, -50, 50},
			{150, 50, 200},
		},
	}
	a := e.EmitGain(&valuation.GainResult{
		Absolute:     table,
		Relative:     table,
		BaseCurrency: "USD",
		RequestedAt:  emitTime,
	})

	assert.Empty(t, a.Warnings)
	assert.Empty(t, a.CSV)
	assert.Equal(t, []string{
		"portfolio_gain_absolute_20240615_123000.png",
		"portfolio_gain_percent_20240615_123000.png",
	}, a.Images)
}

func TestEmitEmptyResultsProduceNoArtifacts(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEmitter(dir, zerolog.Nop())
	require.NoError(t, err)

	a := e.EmitCurrentValue(&valuation.CurrentValueResult{BaseCurrency: "USD", RequestedAt: emitTime})
	assert.Equal(t, Artifacts{}, a)

	a = e.EmitHistory(&valuation.HistoryResult{BaseCurrency: "USD", RequestedAt: emitTime})
	assert.Equal(t, Artifacts{}, a)

	a = e.EmitGain(&valuation.GainResult{BaseCurrency: "USD", RequestedAt: emitTime})
	assert.Equal(t, Artifacts{}, a)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEmitWriteFailureIsWarningNotFatal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	e, err := NewEmitter(dir, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	a := e.EmitCurrentValue(testValuationResult())

	assert.Empty(t, a.CSV)
	assert.Empty(t, a.Images)
	assert.Len(t, a.Warnings, 2)
}
