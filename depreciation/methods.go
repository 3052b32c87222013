package depreciation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/generic"
)

var twelve = decimal.NewFromInt(12)

// linear spreads the depreciable amount evenly over the useful life.
// Multiplying before dividing keeps the end-of-life value exact.
func linear(depreciable decimal.Decimal, lifeMonths, monthsPassed int) decimal.Decimal {
	return depreciable.
		Mul(decimal.NewFromInt(int64(monthsPassed))).
		Div(decimal.NewFromInt(int64(lifeMonths)))
}

// sumOfYears is the accelerated sum-of-the-years'-digits method.
//
//	n = ceil(lifeYears), S = n(n+1)/2
//	year i (0-indexed) depreciates (n-i)/S of the depreciable amount
//
// The current, incomplete year contributes its weight scaled by the fraction
// of the year elapsed. Lives that aren't whole years never reach the full
// depreciable amount; the safety clamp in ComputeMetrics still applies.
func sumOfYears(depreciable decimal.Decimal, lifeMonths, monthsPassed int) decimal.Decimal {
	n := (lifeMonths + 11) / 12
	digits := decimal.NewFromInt(int64(n * (n + 1) / 2))

	fullYears := monthsPassed / 12
	partialMonths := monthsPassed % 12

	accumulated := decimal.Zero
	for i := 0; i < fullYears && i < n; i++ {
		weight := decimal.NewFromInt(int64(n - i))
		accumulated = accumulated.Add(depreciable.Mul(weight).Div(digits))
	}

	if partialMonths > 0 && fullYears < n {
		weight := decimal.NewFromInt(int64(n - fullYears))
		yearShare := depreciable.Mul(weight).Div(digits)
		accumulated = accumulated.Add(yearShare.Mul(decimal.NewFromInt(int64(partialMonths))).Div(twelve))
	}

	return accumulated
}

// decliningBalance is the 200% double-declining-balance method.
//
// rate = 2 / lifeYears is applied to the running book value year by year.
// When a year's depreciation would push book value below residual, only the
// remaining gap is taken and accumulation stops. The partial current year is
// pro-rated by months elapsed under the same floor.
func decliningBalance(initial, residual decimal.Decimal, lifeMonths, monthsPassed int) decimal.Decimal {
	// 2 / (lifeMonths/12) == 24 / lifeMonths
	rate := decimal.NewFromInt(24).Div(decimal.NewFromInt(int64(lifeMonths)))

	book := initial
	fullYears := monthsPassed / 12
	partialMonths := monthsPassed % 12

	for i := 0; i < fullYears; i++ {
		charge := book.Mul(rate)
		if book.Sub(charge).LessThan(residual) {
			return initial.Sub(residual)
		}
		book = book.Sub(charge)
	}

	if partialMonths > 0 {
		charge := book.Mul(rate).Mul(decimal.NewFromInt(int64(partialMonths))).Div(twelve)
		if book.Sub(charge).LessThan(residual) {
			book = residual
		} else {
			book = book.Sub(charge)
		}
	}

	return initial.Sub(book)
}

// unitsOfProduction depreciates by usage, independent of elapsed time.
// A missing or zero estimate is treated as 1 so the ratio stays defined;
// that's a guard, not an accounting rule.
func unitsOfProduction(depreciable decimal.Decimal, current, total *decimal.Decimal) decimal.Decimal {
	estimate := decimal.NewFromInt(1)
	if total != nil && !total.IsZero() {
		estimate = *total
	}
	used := decimal.Zero
	if current != nil {
		used = *current
	}

	ratio := generic.Clamp(used.Div(estimate), decimal.Zero, decimal.NewFromInt(1))
	return ratio.Mul(depreciable)
}
