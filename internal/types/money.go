package types

import (
	"math"

	ierr "github.com/RiveraMg/MiaBot/internal/errors"
	"github.com/shopspring/decimal"
)

// Amounts are int64 minor currency units throughout the ledger.

const (
	// MAX_LINE_QUANTITY and MAX_UNIT_PRICE bound what a single line may carry
	MAX_LINE_QUANTITY = 1_000_000
	MAX_UNIT_PRICE    = 1_000_000_000_000
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

func amountOverflow(field string, value decimal.Decimal) error {
	return ierr.NewError("amount out of range").
		WithHint("Amount is too large").
		WithReportableDetails(map[string]any{
			"field": field,
			"value": value.String(),
		}).
		Mark(ierr.ErrValidation)
}

func toAmount(field string, d decimal.Decimal) (int64, error) {
	if d.GreaterThan(maxAmount) || d.LessThan(maxAmount.Neg()) {
		return 0, amountOverflow(field, d)
	}
	return d.IntPart(), nil
}

// ComputeTax returns subtotal * rate rounded half-up to the minor unit.
// Subtotals are never negative so decimal's half-away-from-zero Round(0) is half-up here.
func ComputeTax(subtotal int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotal).Mul(rate).Round(0).IntPart()
}

// LineTotal returns quantity * unitPrice, failing with ErrValidation when it does not fit an amount
func LineTotal(quantity, unitPrice int64) (int64, error) {
	return toAmount("line_total", decimal.NewFromInt(quantity).Mul(decimal.NewFromInt(unitPrice)))
}

// ComputeTotals returns subtotal, tax and total for a set of line totals.
// Sums that do not fit an amount fail with ErrValidation.
func ComputeTotals(lineTotals []int64, rate decimal.Decimal) (subtotal, tax, total int64, err error) {
	sum := decimal.Zero
	for _, lt := range lineTotals {
		sum = sum.Add(decimal.NewFromInt(lt))
	}
	if subtotal, err = toAmount("subtotal", sum); err != nil {
		return 0, 0, 0, err
	}
	taxAmount := sum.Mul(rate).Round(0)
	if tax, err = toAmount("tax", taxAmount); err != nil {
		return 0, 0, 0, err
	}
	if total, err = toAmount("total", sum.Add(taxAmount)); err != nil {
		return 0, 0, 0, err
	}
	return subtotal, tax, total, nil
}

// GrowthPercent returns (current-previous)/previous*100 rounded to one decimal, zero when previous is zero
func GrowthPercent(current, previous int64) decimal.Decimal {
	if previous == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(current).Sub(decimal.NewFromInt(previous)).
		Div(decimal.NewFromInt(previous)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
}
