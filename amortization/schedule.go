/*
schedule.go - Installment generation and edit reconciliation

PURPOSE:
  Splits a contract total into an evenly spaced installment plan and keeps
  track of whether a hand-edited plan still adds up to the contract total.

GENERATION:
  base      = floor(total / count) to cents
  remainder = total - base*count
  row 0     = base + remainder
  row i     = base                      (i = 1..count-1)
  due date  = start + i calendar months (day kept, clamped to month end)

  Example: Generate(1000.00, 3, 2024-01-01)
    0  2024-01-01  333.34
    1  2024-02-01  333.33
    2  2024-03-01  333.33

RECONCILIATION:
  difference = total - sum(amounts), snapped to 0 once |difference| < 0.01.
  A schedule can only be confirmed when difference is exactly 0.
  Edits never rebalance other rows, so balloon or irregular plans are allowed
  as long as the total still matches.

SEE ALSO:
  - settlement.go: Paying a single installment
  - generic/types.go: Money helpers and Epsilon
*/
package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/generic"
)

// Generate builds the preview rows for a contract. The amounts sum exactly
// to total for any total >= 0 and count >= 1.
func Generate(total decimal.Decimal, count int, start generic.TimePoint) ([]InstallmentPreview, error) {
	if err := validateConfig(total, count); err != nil {
		return nil, err
	}

	n := decimal.NewFromInt(int64(count))
	base := generic.FloorCents(total.Div(n))
	remainder := total.Sub(base.Mul(n))

	rows := make([]InstallmentPreview, count)
	for i := range rows {
		amount := base
		if i == 0 {
			amount = base.Add(remainder)
		}
		rows[i] = InstallmentPreview{
			SequenceIndex: i,
			DueDate:       start.AddMonths(i),
			Amount:        amount,
		}
	}
	return rows, nil
}

// GenerateFor is Generate driven by a contract's own fields.
func GenerateFor(item LongTermItem) ([]InstallmentPreview, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return Generate(item.TotalValue, item.InstallmentsCount, item.AcquisitionDate)
}

// Reconcile sums the rows and compares them to total.
func Reconcile(total decimal.Decimal, rows []InstallmentPreview) Reconciliation {
	allocated := decimal.Zero
	for _, r := range rows {
		allocated = allocated.Add(r.Amount)
	}
	diff := generic.SnapToZero(total.Sub(allocated))
	return Reconciliation{
		TotalAllocated: allocated,
		Difference:     diff,
		IsBalanced:     diff.IsZero(),
	}
}

// =============================================================================
// SCHEDULE - Editable plan
// =============================================================================

// Schedule is an editable installment plan bound to a contract total.
// The zero value is not useful; build one with NewSchedule or FromRows.
type Schedule struct {
	total decimal.Decimal
	rows  []InstallmentPreview
}

// NewSchedule generates the default plan for total/count/start.
func NewSchedule(total decimal.Decimal, count int, start generic.TimePoint) (*Schedule, error) {
	rows, err := Generate(total, count, start)
	if err != nil {
		return nil, err
	}
	return &Schedule{total: total, rows: rows}, nil
}

// FromRows wraps rows the caller already has (for example, a plan posted
// back from a client). Rows are copied.
func FromRows(total decimal.Decimal, rows []InstallmentPreview) *Schedule {
	cp := make([]InstallmentPreview, len(rows))
	copy(cp, rows)
	return &Schedule{total: total, rows: cp}
}

func (s *Schedule) Total() decimal.Decimal { return s.total }
func (s *Schedule) Len() int               { return len(s.rows) }

// Rows returns a copy of the current rows.
func (s *Schedule) Rows() []InstallmentPreview {
	cp := make([]InstallmentPreview, len(s.rows))
	copy(cp, s.rows)
	return cp
}

// SetAmount replaces the amount of row i and returns the new reconciliation.
func (s *Schedule) SetAmount(i int, amount decimal.Decimal) (Reconciliation, error) {
	if err := s.checkIndex(i); err != nil {
		return Reconciliation{}, err
	}
	if amount.IsNegative() {
		return Reconciliation{}, fmt.Errorf("%w: installment %d amount %s is negative",
			generic.ErrInvalidAdjustment, i, amount)
	}
	s.rows[i].Amount = amount
	return s.Reconciliation(), nil
}

// SetDueDate moves row i. Dates don't affect the balance, so no
// reconciliation is returned.
func (s *Schedule) SetDueDate(i int, due generic.TimePoint) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.rows[i].DueDate = due
	return nil
}

func (s *Schedule) Reconciliation() Reconciliation {
	return Reconcile(s.total, s.rows)
}

// Confirm returns the final rows when they add up to the total, or a
// *generic.ScheduleNotBalancedError otherwise.
func (s *Schedule) Confirm() ([]InstallmentPreview, error) {
	rec := s.Reconciliation()
	if !rec.IsBalanced {
		return nil, &generic.ScheduleNotBalancedError{
			Total:      s.total,
			Allocated:  rec.TotalAllocated,
			Difference: rec.Difference,
		}
	}
	return s.Rows(), nil
}

func (s *Schedule) checkIndex(i int) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("%w: installment %d out of range [0, %d)",
			generic.ErrInvalidScheduleConfiguration, i, len(s.rows))
	}
	return nil
}
