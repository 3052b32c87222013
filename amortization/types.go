// Package amortization splits long-term items (loans, financings, licenses)
// into installment schedules and settles individual installments against an
// account balance.
//
// Everything here is pure computation over decimal money. Persistence and the
// atomic debit live in the service package.
package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/generic"
)

// =============================================================================
// LONG-TERM ITEM
// =============================================================================

type ItemType string

const (
	ItemLoan      ItemType = "LOAN"
	ItemFinancing ItemType = "FINANCING"
	ItemLicense   ItemType = "LICENSE"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemLoan, ItemFinancing, ItemLicense:
		return true
	}
	return false
}

type ItemStatus string

const (
	ItemActive    ItemStatus = "ACTIVE"
	ItemPaid      ItemStatus = "PAID"
	ItemCancelled ItemStatus = "CANCELLED"
)

// LongTermItem is a liability or prepaid right repaid in installments.
type LongTermItem struct {
	ID                generic.ItemID
	CompanyID         generic.CompanyID
	Name              string
	Type              ItemType
	TotalValue        decimal.Decimal
	AcquisitionDate   generic.TimePoint
	InstallmentsCount int
	Status            ItemStatus
}

// Validate checks the fields Generate depends on plus the item type.
func (i LongTermItem) Validate() error {
	if !i.Type.Valid() {
		return fmt.Errorf("%w: unknown item type %q", generic.ErrInvalidScheduleConfiguration, i.Type)
	}
	return validateConfig(i.TotalValue, i.InstallmentsCount)
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

// InstallmentPreview is one generated row before persistence.
type InstallmentPreview struct {
	SequenceIndex int // 0-based
	DueDate       generic.TimePoint
	Amount        decimal.Decimal
}

// Reconciliation compares an edited schedule against the item total.
// Difference is snapped to zero when it is below generic.Epsilon.
type Reconciliation struct {
	TotalAllocated decimal.Decimal
	Difference     decimal.Decimal // total - allocated; positive means under-allocated
	IsBalanced     bool
}

func validateConfig(total decimal.Decimal, count int) error {
	if count < 1 {
		return fmt.Errorf("%w: installments count must be at least 1, got %d",
			generic.ErrInvalidScheduleConfiguration, count)
	}
	if count > generic.MaxInstallments {
		return fmt.Errorf("%w: installments count must be at most %d, got %d",
			generic.ErrInvalidScheduleConfiguration, generic.MaxInstallments, count)
	}
	if total.IsNegative() {
		return fmt.Errorf("%w: total value must not be negative, got %s",
			generic.ErrInvalidScheduleConfiguration, total)
	}
	return nil
}
