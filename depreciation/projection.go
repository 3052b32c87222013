package depreciation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/generic"
)

var (
	// ErrTimeIndependent is returned when projecting a UNITS_OF_PRODUCTION
	// asset: its depreciation follows usage, not the calendar.
	ErrTimeIndependent = errors.New("units of production depreciation has no time schedule")

	// ErrAssetRetired is returned when disposing of an asset that is no longer ACTIVE.
	ErrAssetRetired = errors.New("asset already retired")
)

// =============================================================================
// YEARLY PROJECTION
// =============================================================================

// YearRow is one life-year of a depreciation projection.
type YearRow struct {
	Year         int // 1-based
	Period       generic.Period
	OpeningValue decimal.Decimal
	Depreciation decimal.Decimal
	ClosingValue decimal.Decimal
	Accumulated  decimal.Decimal
}

// ProjectSchedule evaluates the asset at every life-year boundary from
// acquisition to end of life. Each row is the difference of two
// ComputeMetrics calls, so the projection can never disagree with the
// point-in-time figures.
func ProjectSchedule(asset Asset) ([]YearRow, error) {
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	if asset.Method == MethodUnitsOfProduction {
		return nil, ErrTimeIndependent
	}

	periods := generic.LifeYears(asset.AcquisitionDate, asset.UsefulLifeMonths)
	rows := make([]YearRow, 0, len(periods))
	for i, p := range periods {
		opening, err := ComputeMetrics(asset, p.Start)
		if err != nil {
			return nil, err
		}
		closing, err := ComputeMetrics(asset, p.End)
		if err != nil {
			return nil, err
		}
		rows = append(rows, YearRow{
			Year:         i + 1,
			Period:       p,
			OpeningValue: opening.CurrentValue,
			Depreciation: closing.AccumulatedDepreciation.Sub(opening.AccumulatedDepreciation),
			ClosingValue: closing.CurrentValue,
			Accumulated:  closing.AccumulatedDepreciation,
		})
	}
	return rows, nil
}

// =============================================================================
// DISPOSAL
// =============================================================================

// Disposal is the outcome of selling or writing off an asset.
type Disposal struct {
	AsOf        generic.TimePoint
	BookValue   decimal.Decimal
	Accumulated decimal.Decimal
	Proceeds    decimal.Decimal
	GainOrLoss  decimal.Decimal // proceeds - book value; negative is a loss
	Status      Status
}

// Dispose computes the book value at date and the gain or loss against the
// sale proceeds. Zero proceeds is a write-off.
func Dispose(asset Asset, proceeds decimal.Decimal, date generic.TimePoint) (Disposal, error) {
	if asset.Status != "" && asset.Status != StatusActive {
		return Disposal{}, fmt.Errorf("%w: %s is %s", ErrAssetRetired, asset.ID, asset.Status)
	}
	if proceeds.IsNegative() {
		return Disposal{}, fmt.Errorf("%w: proceeds %s", generic.ErrInvalidAdjustment, proceeds)
	}

	m, err := ComputeMetrics(asset, date)
	if err != nil {
		return Disposal{}, err
	}

	status := StatusWrittenOff
	if proceeds.IsPositive() {
		status = StatusSold
	}

	return Disposal{
		AsOf:        date,
		BookValue:   m.CurrentValue,
		Accumulated: m.AccumulatedDepreciation,
		Proceeds:    proceeds,
		GainOrLoss:  proceeds.Sub(m.CurrentValue),
		Status:      status,
	}, nil
}
