package aggregator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/diillson/aws-cost-report-go/internal/application/aggregator"
)

// TestPercentageDifference verifies the division-by-zero guards and the sign
// convention: a zero baseline reports a full swing in the direction of v2.
func TestPercentageDifference(t *testing.T) {
	tests := []struct {
		name string
		v1   float64
		v2   float64
		want float64
	}{
		{"both zero", 0, 0, 0.0},
		{"zero baseline, positive", 0, 100, 1.0},
		{"zero baseline, negative", 0, -100, -1.0},
		{"increase", 100, 150, 0.5},
		{"decrease", 200, 150, -0.25},
		{"no change", 80, 80, 0.0},
		{"drop to zero", 50, 0, -1.0},
		{"negative baseline, increase", -100, 50, 1.5},
		{"negative baseline, decrease", -100, -150, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, aggregator.PercentageDifference(tt.v1, tt.v2), 1e-9)
		})
	}
}

func TestPercentageOfSpend(t *testing.T) {
	assert.InDelta(t, 0.25, aggregator.PercentageOfSpend(50, 200), 1e-9)
	assert.Equal(t, 0.0, aggregator.PercentageOfSpend(50, 0))
	assert.Equal(t, 0.0, aggregator.PercentageOfSpend(50, -10))
}

func TestAbsoluteDifference(t *testing.T) {
	assert.InDelta(t, 70.0, aggregator.AbsoluteDifference(100, 30), 1e-9)
	assert.InDelta(t, 70.0, aggregator.AbsoluteDifference(30, 100), 1e-9)
	assert.Equal(t, 0.0, aggregator.AbsoluteDifference(42, 42))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.01, aggregator.Round2(10.005))
	assert.Equal(t, 10.0, aggregator.Round2(10.004))
	assert.Equal(t, -3.33, aggregator.Round2(-3.3333))
	assert.Equal(t, 0.0, aggregator.Round2(0))
}

// TestDaysInMonth verifies the day count comes from the year embedded in the
// date itself: leap February has 29 days, century non-leap years 28.
func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"leap february", time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 29},
		{"regular february", time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC), 28},
		{"century leap", time.Date(2000, time.February, 15, 0, 0, 0, 0, time.UTC), 29},
		{"century non-leap", time.Date(1900, time.February, 1, 0, 0, 0, 0, time.UTC), 28},
		{"january", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 31},
		{"april", time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC), 30},
		{"december", time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregator.DaysInMonth(tt.date))
		})
	}
}
