/*
calculator.go - Accumulated depreciation and book value at an evaluation date

PURPOSE:
  Answers "what is this asset worth on date X?" for the four supported
  methods. The caller supplies an Asset snapshot and a date; nothing is read
  from or written to storage.

ELAPSED TIME:
  monthsPassed = clamp(yearsDiff*12 + monthsDiff, 0, usefulLifeMonths)

  Day of month is ignored (generic.MonthsBetween). An asset bought on the
  31st has a full month elapsed on the 1st of the next month. Historical
  figures were produced this way, so it stays.

METHODS (depreciable = initial - residual):
  LINEAR:              depreciable * monthsPassed / life
  SUM_OF_YEARS:        digit weights (n-i)/S per year, partial year pro-rated
  DECLINING_BALANCE:   200% rate = 2/lifeYears on the running book value,
                       floored at residual value
  UNITS_OF_PRODUCTION: min(1, usageCurrent/usageTotal) * depreciable,
                       independent of time

POST-CONDITIONS (all methods):
  0 <= accumulated <= depreciable
  currentValue = initial - accumulated   (so residual <= currentValue <= initial)
  progress = accumulated/depreciable*100 in [0, 100], 0 when depreciable is 0
  monthsRemaining = max(0, life - monthsPassed)

SEE ALSO:
  - methods.go: Per-method accumulation
  - projection.go: Year-by-year schedule built on ComputeMetrics
*/
package depreciation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/generic"
)

// ComputeMetrics evaluates the asset at asOf.
//
// Errors are only returned for data-integrity problems (unknown method,
// non-positive life, residual above initial). Everything else is clamped.
func ComputeMetrics(asset Asset, asOf generic.TimePoint) (Metrics, error) {
	if err := asset.Validate(); err != nil {
		return Metrics{}, err
	}

	monthsPassed := ElapsedMonths(asset, asOf)
	depreciable := asset.DepreciableAmount()

	var accumulated decimal.Decimal
	switch asset.Method {
	case MethodLinear:
		accumulated = linear(depreciable, asset.UsefulLifeMonths, monthsPassed)
	case MethodSumOfYears:
		accumulated = sumOfYears(depreciable, asset.UsefulLifeMonths, monthsPassed)
	case MethodDecliningBalance:
		accumulated = decliningBalance(asset.InitialValue, asset.ResidualValue, asset.UsefulLifeMonths, monthsPassed)
	case MethodUnitsOfProduction:
		accumulated = unitsOfProduction(depreciable, asset.UsageCurrent, asset.UsageTotalEstimated)
	}

	// Safety clamp, then round to cents. Rounding is monotone and depreciable
	// is cent-aligned, so neither bound can be crossed afterwards.
	accumulated = generic.RoundCents(generic.Clamp(accumulated, decimal.Zero, depreciable))

	progress := decimal.Zero
	if depreciable.IsPositive() {
		progress = accumulated.Div(depreciable).Mul(generic.Hundred)
		progress = generic.Clamp(progress, decimal.Zero, generic.Hundred).Round(2)
	}

	remaining := asset.UsefulLifeMonths - monthsPassed
	if remaining < 0 {
		remaining = 0
	}

	return Metrics{
		AsOf:                    asOf,
		CurrentValue:            asset.InitialValue.Sub(accumulated),
		AccumulatedDepreciation: accumulated,
		ProgressPercent:         progress,
		MonthsPassed:            monthsPassed,
		MonthsRemaining:         remaining,
	}, nil
}

// ComputeMetricsNow evaluates the asset as of today.
func ComputeMetricsNow(asset Asset) (Metrics, error) {
	return ComputeMetrics(asset, generic.Today())
}

// ElapsedMonths is the clamped calendar month difference between the
// acquisition date and asOf.
func ElapsedMonths(asset Asset, asOf generic.TimePoint) int {
	months := generic.MonthsBetween(asset.AcquisitionDate, asOf)
	if months < 0 {
		return 0
	}
	if months > asset.UsefulLifeMonths {
		return asset.UsefulLifeMonths
	}
	return months
}
