package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/generic"
)

// =============================================================================
// SETTLEMENT
// =============================================================================

// SettlementRequest pays one installment from a cash account.
type SettlementRequest struct {
	InstallmentTransactionID generic.InstallmentID
	PayDate                  generic.TimePoint
	BaseAmount               decimal.Decimal
	Interest                 decimal.Decimal // >= 0
	Discount                 decimal.Decimal // >= 0, <= BaseAmount
	AccountID                generic.AccountID
}

// EffectiveAmount is BaseAmount + Interest - Discount.
func (r SettlementRequest) EffectiveAmount() decimal.Decimal {
	return r.BaseAmount.Add(r.Interest).Sub(r.Discount)
}

type RejectionReason string

const (
	ReasonInvalidDiscount     RejectionReason = "INVALID_DISCOUNT"
	ReasonInsufficientBalance RejectionReason = "INSUFFICIENT_BALANCE"
	ReasonInvalidAdjustment   RejectionReason = "INVALID_ADJUSTMENT"
)

// SettlementResult tells the caller what to commit. On success the caller
// marks the installment PAID, sets its date to PayDate and its amount to
// EffectiveAmount, and debits the account by DebitAmount, all atomically.
type SettlementResult struct {
	EffectiveAmount decimal.Decimal
	DebitAmount     decimal.Decimal // EffectiveAmount, or zero when EffectiveAmount <= 0
	Success         bool
	Reason          RejectionReason // empty on success

	// Populated for INSUFFICIENT_BALANCE so Err can report the shortfall.
	accountID generic.AccountID
	available decimal.Decimal
}

// Err converts a rejected result into the matching sentinel (or structured)
// error. It returns nil for a successful settlement.
func (r SettlementResult) Err() error {
	switch r.Reason {
	case "":
		return nil
	case ReasonInvalidDiscount:
		return generic.ErrInvalidDiscount
	case ReasonInvalidAdjustment:
		return generic.ErrInvalidAdjustment
	case ReasonInsufficientBalance:
		return &generic.InsufficientBalanceError{
			AccountID: r.accountID,
			Available: r.available,
			Requested: r.EffectiveAmount,
		}
	}
	return fmt.Errorf("settlement rejected: %s", r.Reason)
}

// Settle validates req against the account balance the caller read.
//
// Check order:
//  1. negative base, interest or discount -> INVALID_ADJUSTMENT
//  2. discount > base                      -> INVALID_DISCOUNT
//  3. effective > balance (effective > 0)  -> INSUFFICIENT_BALANCE
//
// A rejected settlement suggests no debit. An effective amount at or below
// zero is treated as free: nothing is debited and the balance isn't checked.
//
// Settle itself is pure. The caller must run "read balance, Settle, debit"
// as one atomic unit per account or concurrent settlements can overdraw it.
func Settle(req SettlementRequest, balance decimal.Decimal) SettlementResult {
	effective := req.EffectiveAmount()
	result := SettlementResult{EffectiveAmount: effective, DebitAmount: decimal.Zero}

	if req.BaseAmount.IsNegative() || req.Interest.IsNegative() || req.Discount.IsNegative() {
		result.Reason = ReasonInvalidAdjustment
		return result
	}
	if req.Discount.GreaterThan(req.BaseAmount) {
		result.Reason = ReasonInvalidDiscount
		return result
	}

	if effective.IsPositive() {
		if effective.GreaterThan(balance) {
			result.Reason = ReasonInsufficientBalance
			result.accountID = req.AccountID
			result.available = balance
			return result
		}
		result.DebitAmount = effective
	}

	result.Success = true
	return result
}
