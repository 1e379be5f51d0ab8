package valuation

import "time"

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "20060102_150405"
)

// CanonicalDate snaps a sample date that falls on the first day of a month
// back one day, so a series reported at period starts anchors on the end of
// the prior period. Applied identically wherever a historical date is used,
// otherwise cross-ticker joins misalign.
func CanonicalDate(t time.Time) time.Time {
	if t.Day() == 1 {
		return t.AddDate(0, 0, -1)
	}
	return t
}

// FixedZone returns the fixed local offset used for request timestamps.
func FixedZone(offsetHours int) *time.Location {
	return time.FixedZone("local", offsetHours*3600)
}
