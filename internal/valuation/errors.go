package valuation

import "fmt"

// maxRateLookbackDays bounds the backward search for an FX rate when the exact
// date is missing from a range rate table (weekends, holidays).
const maxRateLookbackDays = 7

// DivisionByZeroError reports a historical value of 0 used as the denominator
// of a relative gain.
type DivisionByZeroError struct {
	Ticker string
	Date   string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("historical value is zero for %s on %s", e.Ticker, e.Date)
}

// RateLookupError reports that no FX rate was found within the lookback window.
type RateLookupError struct {
	Currency string
	Date     string
}

func (e *RateLookupError) Error() string {
	return fmt.Sprintf("no %s rate within %d days before %s", e.Currency, maxRateLookbackDays, e.Date)
}
