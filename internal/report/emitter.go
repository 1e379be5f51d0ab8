package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"portfolioTracker/internal/valuation"
)

const timestampLayout = "20060102_150405"

// Artifacts names the durable records produced for one computation, plus any
// write failures. Artifact failures never invalidate the numeric result; they
// are reported here alongside it.
type Artifacts struct {
	CSV      string   `json:"csv,omitempty"`
	Images   []string `json:"images,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Emitter writes tabular records and chart images into a media directory.
// Tables are fully computed before the emitter runs, so every write is a
// single bulk operation.
type Emitter struct {
	dir string
	log zerolog.Logger
}

func NewEmitter(dir string, log zerolog.Logger) (*Emitter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Emitter{dir: dir, log: log.With().Str("component", "report").Logger()}, nil
}

// EmitCurrentValue writes the valuation CSV record and the pie chart.
func (e *Emitter) EmitCurrentValue(res *valuation.CurrentValueResult) Artifacts {
	var a Artifacts
	if len(res.Rows) == 0 {
		return a
	}
	stamp := res.RequestedAt.Format(timestampLayout)

	name := fmt.Sprintf("portfolio_value_%s.csv", stamp)
	if err := e.writeFile(name, valuationCSV(res)); err != nil {
		a.warn(&e.log, name, err)
	} else {
		a.CSV = name
	}

	img := fmt.Sprintf("pie_portfolio_value_%s.png", stamp)
	if data, err := renderValuePie(res); err != nil {
		a.warn(&e.log, img, err)
	} else if err := e.writeFile(img, data); err != nil {
		a.warn(&e.log, img, err)
	} else {
		a.Images = append(a.Images, img)
	}
	return a
}

// EmitHistory writes the 1-year CSV record, the stacked area chart of the
// ticker columns and the line chart of the Sum column.
func (e *Emitter) EmitHistory(res *valuation.HistoryResult) Artifacts {
	var a Artifacts
	if len(res.Table.Dates) == 0 {
		return a
	}
	stamp := res.RequestedAt.Format(timestampLayout)

	name := fmt.Sprintf("portfolio_1Y_data_%s.csv", stamp)
	if err := e.writeFile(name, tableCSV(res.Table)); err != nil {
		a.warn(&e.log, name, err)
	} else {
		a.CSV = name
	}

	stack := fmt.Sprintf("portfolio_history_stackplot_%s.png", stamp)
	if data, err := renderHistoryStack(res); err != nil {
		a.warn(&e.log, stack, err)
	} else if err := e.writeFile(stack, data); err != nil {
		a.warn(&e.log, stack, err)
	} else {
		a.Images = append(a.Images, stack)
	}

	sum := fmt.Sprintf("portfolio_history_sum_%s.png", stamp)
	if data, err := renderHistorySum(res); err != nil {
		a.warn(&e.log, sum, err)
	} else if err := e.writeFile(sum, data); err != nil {
		a.warn(&e.log, sum, err)
	} else {
		a.Images = append(a.Images, sum)
	}
	return a
}

// EmitGain writes the sign-colored bar charts of the absolute and relative
// gain Sum columns.
func (e *Emitter) EmitGain(res *valuation.GainResult) Artifacts {
	var a Artifacts
	if len(res.Absolute.Dates) == 0 {
		return a
	}
	stamp := res.RequestedAt.Format(timestampLayout)

	abs := fmt.Sprintf("portfolio_gain_absolute_%s.png", stamp)
	title := fmt.Sprintf("Absolute Gain/Loss from each month within last year, %s", res.BaseCurrency)
	if data, err := renderGainBars(res.Absolute, title); err != nil {
		a.warn(&e.log, abs, err)
	} else if err := e.writeFile(abs, data); err != nil {
		a.warn(&e.log, abs, err)
	} else {
		a.Images = append(a.Images, abs)
	}

	rel := fmt.Sprintf("portfolio_gain_percent_%s.png", stamp)
	if data, err := renderGainBars(res.Relative, "Relative Gain/Loss from each month within last year, %"); err != nil {
		a.warn(&e.log, rel, err)
	} else if err := e.writeFile(rel, data); err != nil {
		a.warn(&e.log, rel, err)
	} else {
		a.Images = append(a.Images, rel)
	}
	return a
}

func (e *Emitter) writeFile(name string, data []byte) error {
	return os.WriteFile(filepath.Join(e.dir, name), data, 0o644)
}

func (a *Artifacts) warn(log *zerolog.Logger, name string, err error) {
	log.Warn().Err(err).Str("artifact", name).Msg("artifact write failed")
	a.Warnings = append(a.Warnings, fmt.Sprintf("%s: %v", name, err))
}
