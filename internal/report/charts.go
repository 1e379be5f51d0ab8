package report

import (
	"errors"
	"fmt"

	"github.com/vicanso/go-charts/v2"

	"portfolioTracker/internal/valuation"
)

// renderValuePie draws the per-ticker share of the current portfolio value.
func renderValuePie(res *valuation.CurrentValueResult) ([]byte, error) {
	values := make([]float64, 0, len(res.Rows))
	labels := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		values = append(values, row.SubtotalBase)
		labels = append(labels, row.Ticker)
	}
	title := fmt.Sprintf("Total portfolio value: %.2f %s", res.Total, res.BaseCurrency)
	painter, err := charts.PieRender(values,
		charts.TitleTextOptionFunc(title, res.RequestedAt.Format("2006-01-02 15:04")),
		charts.LegendOptionFunc(charts.LegendOption{Data: labels, Orient: charts.OrientVertical}),
		charts.PieSeriesShowLabel(),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// renderHistoryStack draws the per-ticker history as a stacked area: series
// are cumulative row sums, painted largest first so each band stays visible.
func renderHistoryStack(res *valuation.HistoryResult) ([]byte, error) {
	t := res.Table
	if len(t.Tickers) == 0 {
		return nil, errors.New("no ticker columns")
	}
	// cumulative[i] = column 0 + ... + column i, per date
	cumulative := make([][]float64, len(t.Tickers))
	for ti := range t.Tickers {
		cumulative[ti] = make([]float64, len(t.Dates))
		for di, row := range t.Cells {
			v := row[ti]
			if ti > 0 {
				v += cumulative[ti-1][di]
			}
			cumulative[ti][di] = v
		}
	}
	values := make([][]float64, 0, len(t.Tickers))
	names := make([]string, 0, len(t.Tickers))
	for ti := len(t.Tickers) - 1; ti >= 0; ti-- {
		values = append(values, cumulative[ti])
		names = append(names, t.Tickers[ti])
	}

	painter, err := charts.LineRender(values,
		charts.TitleTextOptionFunc("Portfolio total price stacked by Ticker"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: t.Dates, BoundaryGap: charts.FalseFlag(), SplitNumber: 6}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		func(opt *charts.ChartOption) {
			opt.FillArea = true
		},
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// renderHistorySum draws the Sum column of the history table as a line.
func renderHistorySum(res *valuation.HistoryResult) ([]byte, error) {
	t := res.Table
	painter, err := charts.LineRender([][]float64{t.SumColumn()},
		charts.TitleTextOptionFunc("Portfolio total price, 1Y period", "Price, "+res.BaseCurrency),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: t.Dates, BoundaryGap: charts.FalseFlag(), SplitNumber: 6}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// renderGainBars draws the Sum column most-recent-first, split into a
// non-negative and a negative series so the theme colors them apart.
func renderGainBars(t valuation.Table, title string) ([]byte, error) {
	sum := t.SumColumn()
	n := len(sum)
	dates := make([]string, n)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 0; i < n; i++ {
		j := n - 1 - i
		dates[i] = t.Dates[j]
		if sum[j] >= 0 {
			gains[i] = sum[j]
		} else {
			losses[i] = sum[j]
		}
	}

	painter, err := charts.BarRender([][]float64{gains, losses},
		charts.TitleTextOptionFunc(title),
		charts.XAxisDataOptionFunc(dates),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"Gain", "Loss"}}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}
