package types

import (
	"math"
	"testing"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTax(t *testing.T) {
	rate := decimal.RequireFromString("0.19")

	tests := []struct {
		name     string
		subtotal int64
		rate     decimal.Decimal
		want     int64
	}{
		{name: "exact", subtotal: 3_275_000, rate: rate, want: 622_250},
		{name: "half rounds up", subtotal: 50, rate: rate, want: 10},
		{name: "below half rounds down", subtotal: 2, rate: rate, want: 0},
		{name: "above half rounds up", subtotal: 3, rate: rate, want: 1},
		{name: "zero subtotal", subtotal: 0, rate: rate, want: 0},
		{name: "zero rate", subtotal: 1_000, rate: decimal.Zero, want: 0},
		{name: "fractional rate", subtotal: 1_000, rate: decimal.RequireFromString("0.055"), want: 55},
		{name: "fractional rate half up", subtotal: 10, rate: decimal.RequireFromString("0.05"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeTax(tt.subtotal, tt.rate))
		})
	}
}

func TestComputeTotals(t *testing.T) {
	subtotal, tax, total, err := ComputeTotals([]int64{3_000_000, 275_000}, decimal.RequireFromString("0.19"))
	require.NoError(t, err)
	assert.Equal(t, int64(3_275_000), subtotal)
	assert.Equal(t, int64(622_250), tax)
	assert.Equal(t, int64(3_897_250), total)

	subtotal, tax, total, err = ComputeTotals(nil, decimal.RequireFromString("0.19"))
	require.NoError(t, err)
	assert.Zero(t, subtotal)
	assert.Zero(t, tax)
	assert.Zero(t, total)
}

func TestComputeTotalsOverflow(t *testing.T) {
	rate := decimal.RequireFromString("0.19")

	_, _, _, err := ComputeTotals([]int64{math.MaxInt64, 1}, rate)
	assert.True(t, ierr.IsValidation(err))

	// the subtotal fits but adding tax does not
	_, _, _, err = ComputeTotals([]int64{math.MaxInt64 - 10}, rate)
	assert.True(t, ierr.IsValidation(err))

	subtotal, _, _, err := ComputeTotals([]int64{math.MaxInt64}, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), subtotal)
}

func TestLineTotal(t *testing.T) {
	got, err := LineTotal(3, 1_250)
	require.NoError(t, err)
	assert.Equal(t, int64(3_750), got)

	got, err = LineTotal(MAX_LINE_QUANTITY, MAX_UNIT_PRICE)
	require.NoError(t, err)
	assert.Equal(t, int64(MAX_LINE_QUANTITY*MAX_UNIT_PRICE), got)

	_, err = LineTotal(4, math.MaxInt64/2)
	assert.True(t, ierr.IsValidation(err))
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		name              string
		current, previous int64
		want              string
	}{
		{name: "no previous month", current: 500, previous: 0, want: "0"},
		{name: "doubled", current: 200, previous: 100, want: "100"},
		{name: "dropped", current: 75, previous: 100, want: "-25"},
		{name: "rounded to one decimal", current: 309_400, previous: 130_900, want: "136.4"},
		{name: "flat", current: 100, previous: 100, want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GrowthPercent(tt.current, tt.previous)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}
