package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalDate(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "first of month snaps back one day",
			in:   day(2024, time.May, 1),
			want: day(2024, time.April, 30),
		},
		{
			name: "first of january crosses the year",
			in:   day(2024, time.January, 1),
			want: day(2023, time.December, 31),
		},
		{
			name: "first of march lands on leap day",
			in:   day(2024, time.March, 1),
			want: day(2024, time.February, 29),
		},
		{
			name: "mid-month is unchanged",
			in:   day(2024, time.May, 15),
			want: day(2024, time.May, 15),
		},
		{
			name: "last of month is unchanged",
			in:   day(2024, time.April, 30),
			want: day(2024, time.April, 30),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalDate(tt.in))
		})
	}
}
