package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"portfolioTracker/internal/fx"
	"portfolioTracker/internal/market"
)

// fetchConcurrency bounds parallel per-ticker market calls.
const fetchConcurrency = 4

// Engine computes valuation, history and gain views over a holding snapshot.
// It holds no state between computations; every call is request scoped.
type Engine struct {
	market market.Provider
	rates  fx.Provider
	loc    *time.Location
	log    zerolog.Logger
	now    func() time.Time
}

func NewEngine(m market.Provider, r fx.Provider, loc *time.Location, log zerolog.Logger) *Engine {
	return &Engine{
		market: m,
		rates:  r,
		loc:    loc,
		log:    log.With().Str("component", "valuation").Logger(),
		now:    time.Now,
	}
}

// Kind selects which computation a Request runs.
type Kind string

const (
	KindCurrentValue Kind = "current"
	KindHistory      Kind = "history"
	KindGain         Kind = "gain"
)

// Request is an explicit tagged computation request.
type Request struct {
	Kind         Kind
	Holdings     Holdings
	BaseCurrency string
}

// Outcome carries the result of exactly one computation kind.
type Outcome struct {
	Current *CurrentValueResult `json:"current,omitempty"`
	History *HistoryResult      `json:"history,omitempty"`
	Gain    *GainResult         `json:"gain,omitempty"`
}

// Run dispatches a tagged request to the matching engine.
func (e *Engine) Run(ctx context.Context, req Request) (*Outcome, error) {
	switch req.Kind {
	case KindCurrentValue:
		res, err := e.CurrentValue(ctx, req.Holdings, req.BaseCurrency)
		if err != nil {
			return nil, err
		}
		return &Outcome{Current: res}, nil
	case KindHistory:
		res, err := e.History(ctx, req.Holdings, req.BaseCurrency)
		if err != nil {
			return nil, err
		}
		return &Outcome{History: res}, nil
	case KindGain:
		res, err := e.Gain(ctx, req.Holdings, req.BaseCurrency)
		if err != nil {
			return nil, err
		}
		return &Outcome{Gain: res}, nil
	default:
		return nil, fmt.Errorf("unknown computation kind %q", req.Kind)
	}
}
