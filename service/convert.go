package service

import (
	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/depreciation"
	"github.com/warp/amortization-engine/generic"
)

// =============================================================================
// RECORD <-> DOMAIN
// =============================================================================

func assetToRecord(a depreciation.Asset) generic.AssetRecord {
	return generic.AssetRecord{
		ID:                  a.ID,
		CompanyID:           a.CompanyID,
		Name:                a.Name,
		InitialValue:        a.InitialValue,
		ResidualValue:       a.ResidualValue,
		AcquisitionDate:     a.AcquisitionDate,
		UsefulLifeMonths:    a.UsefulLifeMonths,
		Method:              string(a.Method),
		UsageTotalEstimated: a.UsageTotalEstimated,
		UsageCurrent:        a.UsageCurrent,
		Status:              string(a.Status),
	}
}

// assetFromRecord doesn't validate the method: a corrupted enum surfaces as
// ErrUnknownMethod from the calculator, where it belongs.
func assetFromRecord(r generic.AssetRecord) depreciation.Asset {
	return depreciation.Asset{
		ID:                  r.ID,
		CompanyID:           r.CompanyID,
		Name:                r.Name,
		InitialValue:        r.InitialValue,
		ResidualValue:       r.ResidualValue,
		AcquisitionDate:     r.AcquisitionDate,
		UsefulLifeMonths:    r.UsefulLifeMonths,
		Method:              depreciation.Method(r.Method),
		UsageTotalEstimated: r.UsageTotalEstimated,
		UsageCurrent:        r.UsageCurrent,
		Status:              depreciation.Status(r.Status),
	}
}

func itemToRecord(it amortization.LongTermItem) generic.ItemRecord {
	return generic.ItemRecord{
		ID:                it.ID,
		CompanyID:         it.CompanyID,
		Name:              it.Name,
		Type:              string(it.Type),
		TotalValue:        it.TotalValue,
		AcquisitionDate:   it.AcquisitionDate,
		InstallmentsCount: it.InstallmentsCount,
		Status:            string(it.Status),
	}
}

func itemFromRecord(r generic.ItemRecord) amortization.LongTermItem {
	return amortization.LongTermItem{
		ID:                r.ID,
		CompanyID:         r.CompanyID,
		Name:              r.Name,
		Type:              amortization.ItemType(r.Type),
		TotalValue:        r.TotalValue,
		AcquisitionDate:   r.AcquisitionDate,
		InstallmentsCount: r.InstallmentsCount,
		Status:            amortization.ItemStatus(r.Status),
	}
}

// previews turns persisted rows back into schedule rows, e.g. for
// reconciling a stored contract. Paid rows count their principal.
func previews(rows []generic.InstallmentRecord) []amortization.InstallmentPreview {
	out := make([]amortization.InstallmentPreview, len(rows))
	for i, r := range rows {
		out[i] = amortization.InstallmentPreview{
			SequenceIndex: r.SequenceIndex,
			DueDate:       r.DueDate,
			Amount:        principal(r),
		}
	}
	return out
}

// principal is the part of an installment that counts toward the contract
// total. A PAID row stores the effective amount, so interest is taken back
// out and discount added back in.
func principal(r generic.InstallmentRecord) decimal.Decimal {
	if r.Status != generic.InstallmentPaid {
		return r.Amount
	}
	return r.Amount.Sub(r.Interest).Add(r.Discount)
}
