// Package depreciation computes book value and accumulated depreciation of
// fixed assets under the four supported accounting methods.
// It is pure computation: same asset + same evaluation date, same answer.
package depreciation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/generic"
)

// =============================================================================
// METHOD & STATUS
// =============================================================================

type Method string

const (
	MethodLinear            Method = "LINEAR"
	MethodSumOfYears        Method = "SUM_OF_YEARS"
	MethodDecliningBalance  Method = "DECLINING_BALANCE"
	MethodUnitsOfProduction Method = "UNITS_OF_PRODUCTION"
)

// Methods lists every supported method in display order.
var Methods = []Method{MethodLinear, MethodSumOfYears, MethodDecliningBalance, MethodUnitsOfProduction}

func (m Method) Valid() bool {
	switch m {
	case MethodLinear, MethodSumOfYears, MethodDecliningBalance, MethodUnitsOfProduction:
		return true
	}
	return false
}

// ParseMethod converts a stored/user string into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", generic.ErrUnknownMethod, s)
	}
	return m, nil
}

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusSold       Status = "SOLD"
	StatusWrittenOff Status = "WRITTEN_OFF"
)

// =============================================================================
// ASSET - Caller-supplied snapshot
// =============================================================================

// Asset is a frozen copy of a fixed asset. The calculator never mutates it.
type Asset struct {
	ID                  generic.AssetID
	CompanyID           generic.CompanyID
	Name                string
	InitialValue        decimal.Decimal
	ResidualValue       decimal.Decimal
	AcquisitionDate     generic.TimePoint
	UsefulLifeMonths    int
	Method              Method
	UsageTotalEstimated *decimal.Decimal // UNITS_OF_PRODUCTION only
	UsageCurrent        *decimal.Decimal // UNITS_OF_PRODUCTION only
	Status              Status
}

// DepreciableAmount is InitialValue - ResidualValue.
func (a Asset) DepreciableAmount() decimal.Decimal {
	return a.InitialValue.Sub(a.ResidualValue)
}

// UsefulLifeYears is the useful life as a (possibly fractional) number of years.
func (a Asset) UsefulLifeYears() decimal.Decimal {
	return decimal.NewFromInt(int64(a.UsefulLifeMonths)).Div(decimal.NewFromInt(12))
}

// Validate checks the invariants the calculator relies on.
func (a Asset) Validate() error {
	if a.UsefulLifeMonths <= 0 {
		return fmt.Errorf("%w: useful life must be positive, got %d months", generic.ErrInvalidAsset, a.UsefulLifeMonths)
	}
	if a.InitialValue.IsNegative() || a.ResidualValue.IsNegative() {
		return fmt.Errorf("%w: values must not be negative", generic.ErrInvalidAsset)
	}
	if a.ResidualValue.GreaterThan(a.InitialValue) {
		return fmt.Errorf("%w: residual value %s exceeds initial value %s",
			generic.ErrInvalidAsset, a.ResidualValue, a.InitialValue)
	}
	if !a.Method.Valid() {
		return fmt.Errorf("%w: %q", generic.ErrUnknownMethod, a.Method)
	}
	return nil
}

// =============================================================================
// METRICS - Calculator output
// =============================================================================

type Metrics struct {
	AsOf                    generic.TimePoint
	CurrentValue            decimal.Decimal
	AccumulatedDepreciation decimal.Decimal
	ProgressPercent         decimal.Decimal
	MonthsPassed            int
	MonthsRemaining         int
}
