/*
errors.go - Centralized error types for the engines and their collaborators

PURPOSE:
  All error types in one place for consistency and discoverability.
  Engine packages return these (or structured errors unwrapping to them);
  the service and API layers classify them with errors.Is.

ERROR CATEGORIES:
  1. Schedule errors - configuration and reconciliation failures
  2. Settlement errors - discount and balance checks
  3. Data-integrity errors - malformed enums, impossible assets
  4. Store errors - missing records, lost compare-and-swap races

USER INPUT vs BUGS:
  Schedule and settlement errors are expected user-input outcomes and are
  usually carried inside result structs (Reconciliation, SettlementResult).
  ErrUnknownMethod and ErrInvalidAsset mean the caller handed the engine
  data that should never have been persisted.

SEE ALSO:
  - amortization/settlement.go: SettlementResult.Err maps reasons here
  - store.go: ErrNotFound / ErrConcurrentModification contract
*/
package generic

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidScheduleConfiguration is returned for a non-positive
	// installment count or a negative contract total.
	ErrInvalidScheduleConfiguration = errors.New("invalid schedule configuration")

	// ErrScheduleNotBalanced is returned when edited installments don't sum
	// to the contract total within Epsilon.
	ErrScheduleNotBalanced = errors.New("schedule not balanced")

	// ErrInvalidDiscount is returned when a settlement discount exceeds the
	// base installment amount.
	ErrInvalidDiscount = errors.New("discount exceeds installment amount")

	// ErrInvalidAdjustment is returned for negative interest, discount or base.
	ErrInvalidAdjustment = errors.New("settlement adjustments must not be negative")

	// ErrInsufficientBalance is returned when the effective payment exceeds
	// the target account balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUnknownMethod is returned for a depreciation method outside the
	// supported enum. This is a data-integrity bug, not user input.
	ErrUnknownMethod = errors.New("unknown depreciation method")

	// ErrInvalidAsset is returned for assets violating their own invariants
	// (non-positive useful life, residual above initial value).
	ErrInvalidAsset = errors.New("invalid asset")

	// ErrAlreadySettled is returned when settling an installment twice.
	ErrAlreadySettled = errors.New("installment already settled")

	// ErrInvalidInput is returned for missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a referenced record doesn't exist for the tenant.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification is returned when a compare-and-swap on an
	// account balance detects that another writer got there first.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	AccountID AccountID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on account %s: available %s, requested %s, shortfall %s",
		e.AccountID, e.Available.StringFixed(MoneyPlaces), e.Requested.StringFixed(MoneyPlaces),
		e.Shortfall().StringFixed(MoneyPlaces))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// ScheduleNotBalancedError reports how far an edited schedule is from its total.
type ScheduleNotBalancedError struct {
	Total      decimal.Decimal
	Allocated  decimal.Decimal
	Difference decimal.Decimal
}

func (e *ScheduleNotBalancedError) Error() string {
	return fmt.Sprintf("schedule not balanced: total %s, allocated %s, difference %s",
		e.Total.StringFixed(MoneyPlaces), e.Allocated.StringFixed(MoneyPlaces),
		e.Difference.StringFixed(MoneyPlaces))
}

func (e *ScheduleNotBalancedError) Unwrap() error {
	return ErrScheduleNotBalanced
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidScheduleConfiguration) ||
		errors.Is(err, ErrScheduleNotBalanced) ||
		errors.Is(err, ErrInvalidDiscount) ||
		errors.Is(err, ErrInvalidAdjustment) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrAlreadySettled) ||
		errors.Is(err, ErrInvalidAsset) ||
		errors.Is(err, ErrUnknownMethod)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
