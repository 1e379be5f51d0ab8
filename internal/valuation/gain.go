package valuation

import "context"

// Gain computes absolute and relative month-over-month gain/loss per ticker
// and total: each historical cell is compared against the current base
// currency value of the same column. The relative variant divides by the
// historical value; a historical value of 0 is a typed error, never a silent
// infinity.
func (e *Engine) Gain(ctx context.Context, holdings Holdings, base string) (*GainResult, error) {
	requestedAt := e.now().In(e.loc)

	current, err := e.CurrentValue(ctx, holdings, base)
	if err != nil {
		return nil, err
	}
	history, err := e.History(ctx, holdings, base)
	if err != nil {
		return nil, err
	}

	// Current value per column, "Sum" last, mirroring the history row shape.
	currentByColumn := make([]float64, 0, len(current.Rows)+1)
	for _, row := range current.Rows {
		currentByColumn = append(currentByColumn, row.SubtotalBase)
	}
	currentByColumn = append(currentByColumn, current.Total)

	columns := history.Table.Columns()
	absolute := Table{Dates: history.Table.Dates, Tickers: history.Table.Tickers, Cells: [][]float64{}}
	relative := Table{Dates: history.Table.Dates, Tickers: history.Table.Tickers, Cells: [][]float64{}}

	for di, histRow := range history.Table.Cells {
		absRow := make([]float64, len(histRow))
		relRow := make([]float64, len(histRow))
		for ci, histValue := range histRow {
			cur := currentByColumn[ci]
			absRow[ci] = round2(cur - histValue)
			if histValue == 0 {
				return nil, &DivisionByZeroError{Ticker: columns[ci], Date: history.Table.Dates[di]}
			}
			relRow[ci] = round1((cur - histValue) / histValue * 100)
		}
		absolute.Cells = append(absolute.Cells, absRow)
		relative.Cells = append(relative.Cells, relRow)
	}

	e.log.Debug().
		Str("base", base).
		Int("dates", len(absolute.Dates)).
		Msg("gain computed")
	return &GainResult{
		Absolute:     absolute,
		Relative:     relative,
		BaseCurrency: base,
		RequestedAt:  requestedAt,
	}, nil
}
