package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"portfolioTracker/internal/valuation"
)

// valuationCSV renders the per-ticker valuation record: header, one row per
// ticker, a blank row and a summary row.
func valuationCSV(res *valuation.CurrentValueResult) []byte {
	records := [][]string{{
		"Ticker", "Quantity", "Ticker currency", "Current Price",
		"totalPerShare", "Exchange rate", "totalPerShare " + res.BaseCurrency,
	}}
	for _, row := range res.Rows {
		records = append(records, []string{
			row.Ticker,
			strconv.FormatInt(row.Quantity, 10),
			row.Currency,
			formatFloat(row.Price),
			formatFloat(row.Subtotal),
			formatFloat(row.Rate),
			formatFloat(row.SubtotalBase),
		})
	}
	records = append(records, []string{""})
	records = append(records, []string{
		"currentPortfolioValue:",
		formatFloat(res.Total),
		res.BaseCurrency,
		"timeOfRequest:",
		res.RequestedAt.Format("2006-01-02 15:04:05 -07:00"),
	})
	return encodeCSV(records)
}

// tableCSV renders a date-indexed table: one row per date, one column per
// ticker plus Sum.
func tableCSV(t valuation.Table) []byte {
	header := append([]string{"Date"}, t.Columns()...)
	records := [][]string{header}
	for i, date := range t.Dates {
		row := make([]string, 0, len(header))
		row = append(row, date)
		for _, v := range t.Cells[i] {
			row = append(row, formatFloat(v))
		}
		records = append(records, row)
	}
	return encodeCSV(records)
}

func encodeCSV(records [][]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(records)
	w.Flush()
	return buf.Bytes()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
