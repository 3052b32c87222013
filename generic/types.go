/*
Package generic provides the money, date and storage primitives shared by the
depreciation and amortization engines.

PURPOSE:
  The engines never touch persistence or HTTP. They operate on decimal money
  values and calendar dates, and they report problems through the sentinel
  errors in errors.go. Everything both engines need lives here so neither one
  depends on the other.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal.Decimal with two-decimal currency semantics
  - Epsilon: the tolerance for every money comparison (0.01)
  - Identifiers: type-safe IDs for companies, assets, items, accounts

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, never float64 for money
  2. Tolerance: comparisons against zero/equality use Epsilon, not ==
  3. Type Safety: distinct ID types so an AccountID can't be passed as an AssetID

USAGE:
  total := generic.MustMoney("1000.00")
  base := generic.FloorCents(total.Div(decimal.NewFromInt(3))) // 333.33
  if generic.IsNegligible(total.Sub(base.Mul(decimal.NewFromInt(3)))) { ... }

SEE ALSO:
  - time.go: TimePoint and calendar month arithmetic
  - errors.go: Error taxonomy
  - store.go: Persistence interfaces implemented by collaborators
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - decimal amounts with two-decimal currency semantics
// =============================================================================

// MoneyPlaces is the number of decimal places of the currency unit.
const MoneyPlaces int32 = 2

// Epsilon is the smallest meaningful money difference. Differences strictly
// below it are float/rounding noise and are treated as zero.
// Tune together with MoneyPlaces for currencies with other precisions.
var Epsilon = decimal.New(1, -MoneyPlaces)

// MaxInstallments caps the length of a generated schedule (100 years of
// monthly payments).
const MaxInstallments = 1200

// Hundred is used for percentage conversions.
var Hundred = decimal.NewFromInt(100)

// Money builds a money value from a float. Use only for literals and tests;
// parse user input with ParseMoney.
func Money(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// MoneyFromInt builds a whole-unit money value.
func MoneyFromInt(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

// ParseMoney parses a decimal string such as "1234.56".
func ParseMoney(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustMoney parses a decimal string and returns zero on failure.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func RoundCents(d decimal.Decimal) decimal.Decimal { return d.Round(MoneyPlaces) }
func FloorCents(d decimal.Decimal) decimal.Decimal { return d.RoundFloor(MoneyPlaces) }

// IsNegligible reports whether |d| < Epsilon.
func IsNegligible(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}

// SnapToZero returns zero for negligible differences and d otherwise.
func SnapToZero(d decimal.Decimal) decimal.Decimal {
	if IsNegligible(d) {
		return decimal.Zero
	}
	return d
}

// Clamp bounds v to [lo, hi]. Callers guarantee lo <= hi.
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CompanyID string
type AssetID string
type ItemID string
type AccountID string
type InstallmentID string

// DefaultCompany is the tenant used when a caller doesn't name one.
const DefaultCompany CompanyID = "default"
