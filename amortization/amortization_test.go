package amortization_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/generic"
)

func money(s string) decimal.Decimal { return generic.MustMoney(s) }

func date(y int, m time.Month, d int) generic.TimePoint { return generic.NewTimePoint(y, m, d) }

func assertMoney(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, money(expected).Equal(actual),
		append([]any{fmt.Sprintf("expected %s, got %s", expected, actual.String())}, msgAndArgs...)...)
}

// =============================================================================
// GENERATE
// =============================================================================

func TestGenerate_RemainderGoesToFirstInstallment(t *testing.T) {
	// GIVEN: 1000.00 split over 3 installments from Jan 1 2024
	// WHEN: Generating the preview
	// THEN: 333.34 + 333.33 + 333.33, monthly dates
	rows, err := amortization.Generate(money("1000.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assertMoney(t, "333.34", rows[0].Amount)
	assertMoney(t, "333.33", rows[1].Amount)
	assertMoney(t, "333.33", rows[2].Amount)

	assert.Equal(t, "2024-01-01", rows[0].DueDate.String())
	assert.Equal(t, "2024-02-01", rows[1].DueDate.String())
	assert.Equal(t, "2024-03-01", rows[2].DueDate.String())

	for i, r := range rows {
		assert.Equal(t, i, r.SequenceIndex)
	}
}

func TestGenerate_SumsExactlyToTotal(t *testing.T) {
	totals := []string{"0", "0.01", "0.05", "1", "99.99", "1000", "1234.56", "100000.07", "7"}
	counts := []int{1, 2, 3, 6, 7, 12, 13, 36, 360}

	for _, total := range totals {
		for _, count := range counts {
			t.Run(fmt.Sprintf("%s/%d", total, count), func(t *testing.T) {
				rows, err := amortization.Generate(money(total), count, date(2024, time.March, 10))
				require.NoError(t, err)
				require.Len(t, rows, count)

				sum := decimal.Zero
				for _, r := range rows {
					sum = sum.Add(r.Amount)
				}
				assertMoney(t, total, sum)

				rec := amortization.Reconcile(money(total), rows)
				assert.True(t, rec.IsBalanced)
				assert.True(t, rec.Difference.IsZero())
			})
		}
	}
}

func TestGenerate_DatesNonDecreasing(t *testing.T) {
	rows, err := amortization.Generate(money("500"), 24, date(2024, time.January, 31))
	require.NoError(t, err)

	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].DueDate.After(rows[i-1].DueDate), "row %d", i)
	}
}

func TestGenerate_MonthEndClamping(t *testing.T) {
	// GIVEN: A contract starting on Jan 31 of a leap year
	// THEN: Feb clamps to the 29th and March returns to the 31st
	rows, err := amortization.Generate(money("300"), 4, date(2024, time.January, 31))
	require.NoError(t, err)

	assert.Equal(t, "2024-01-31", rows[0].DueDate.String())
	assert.Equal(t, "2024-02-29", rows[1].DueDate.String())
	assert.Equal(t, "2024-03-31", rows[2].DueDate.String())
	assert.Equal(t, "2024-04-30", rows[3].DueDate.String())

	rows, err = amortization.Generate(money("200"), 2, date(2023, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, "2023-02-28", rows[1].DueDate.String())
}

func TestGenerate_InvalidConfiguration(t *testing.T) {
	_, err := amortization.Generate(money("100"), 0, date(2024, time.January, 1))
	assert.ErrorIs(t, err, generic.ErrInvalidScheduleConfiguration)

	_, err = amortization.Generate(money("-1"), 3, date(2024, time.January, 1))
	assert.ErrorIs(t, err, generic.ErrInvalidScheduleConfiguration)

	_, err = amortization.Generate(money("1000"), math.MaxInt64, date(2024, time.January, 1))
	assert.ErrorIs(t, err, generic.ErrInvalidScheduleConfiguration)

	_, err = amortization.Generate(money("1000"), generic.MaxInstallments+1, date(2024, time.January, 1))
	assert.ErrorIs(t, err, generic.ErrInvalidScheduleConfiguration)

	rows, err := amortization.Generate(money("1000"), generic.MaxInstallments, date(2024, time.January, 1))
	require.NoError(t, err)
	assert.Len(t, rows, generic.MaxInstallments)
}

func TestGenerateFor_RejectsUnknownType(t *testing.T) {
	item := amortization.LongTermItem{
		Type:              "LEASE",
		TotalValue:        money("100"),
		InstallmentsCount: 2,
		AcquisitionDate:   date(2024, time.January, 1),
	}
	_, err := amortization.GenerateFor(item)
	assert.ErrorIs(t, err, generic.ErrInvalidScheduleConfiguration)

	item.Type = amortization.ItemLicense
	rows, err := amortization.GenerateFor(item)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestReconcile_SnapsFloatNoiseToZero(t *testing.T) {
	rows := []amortization.InstallmentPreview{
		{SequenceIndex: 0, Amount: money("500.004")},
		{SequenceIndex: 1, Amount: money("500")},
	}
	rec := amortization.Reconcile(money("1000"), rows)

	assert.True(t, rec.IsBalanced)
	assert.True(t, rec.Difference.IsZero())
	assertMoney(t, "1000.004", rec.TotalAllocated)
}

func TestReconcile_ReportsSignedDifference(t *testing.T) {
	under := amortization.Reconcile(money("1000"), []amortization.InstallmentPreview{{Amount: money("900")}})
	assert.False(t, under.IsBalanced)
	assertMoney(t, "100", under.Difference)

	over := amortization.Reconcile(money("1000"), []amortization.InstallmentPreview{{Amount: money("1000.01")}})
	assert.False(t, over.IsBalanced)
	assertMoney(t, "-0.01", over.Difference)
}

func TestSchedule_EditThenRebalanceByHand(t *testing.T) {
	// GIVEN: A generated 3-installment plan
	s, err := amortization.NewSchedule(money("1000"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	// WHEN: The first installment becomes a balloon payment
	rec, err := s.SetAmount(0, money("600"))
	require.NoError(t, err)

	// THEN: The plan is over-allocated and nothing was rebalanced
	assert.False(t, rec.IsBalanced)
	assertMoney(t, "-266.66", rec.Difference)
	assertMoney(t, "333.33", s.Rows()[1].Amount)

	_, err = s.Confirm()
	var notBalanced *generic.ScheduleNotBalancedError
	require.True(t, errors.As(err, &notBalanced))
	assert.ErrorIs(t, err, generic.ErrScheduleNotBalanced)
	assertMoney(t, "-266.66", notBalanced.Difference)

	// WHEN: The operator fixes the other rows
	_, err = s.SetAmount(1, money("200"))
	require.NoError(t, err)
	rec, err = s.SetAmount(2, money("200"))
	require.NoError(t, err)

	// THEN: The plan confirms
	assert.True(t, rec.IsBalanced)
	rows, err := s.Confirm()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSchedule_SetDueDateDoesNotAffectBalance(t *testing.T) {
	s, err := amortization.NewSchedule(money("90"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	require.NoError(t, s.SetDueDate(2, date(2024, time.December, 24)))
	assert.True(t, s.Reconciliation().IsBalanced)
	assert.Equal(t, "2024-12-24", s.Rows()[2].DueDate.String())
}

func TestSchedule_InvalidEdits(t *testing.T) {
	s, err := amortization.NewSchedule(money("90"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	_, err = s.SetAmount(3, money("1"))
	assert.ErrorIs(t, err, generic.ErrInvalidScheduleConfiguration)

	_, err = s.SetAmount(0, money("-1"))
	assert.ErrorIs(t, err, generic.ErrInvalidAdjustment)

	assert.ErrorIs(t, s.SetDueDate(-1, date(2024, time.May, 1)), generic.ErrInvalidScheduleConfiguration)
}

func TestFromRows_CopiesInput(t *testing.T) {
	rows := []amortization.InstallmentPreview{{Amount: money("10")}, {Amount: money("20")}}
	s := amortization.FromRows(money("30"), rows)

	rows[0].Amount = money("999")
	assertMoney(t, "10", s.Rows()[0].Amount)
	assert.True(t, s.Reconciliation().IsBalanced)
}

// =============================================================================
// SETTLEMENT
// =============================================================================

func request(base, interest, discount string) amortization.SettlementRequest {
	return amortization.SettlementRequest{
		InstallmentTransactionID: "inst-1",
		PayDate:                  date(2024, time.February, 5),
		BaseAmount:               money(base),
		Interest:                 money(interest),
		Discount:                 money(discount),
		AccountID:                "acc-1",
	}
}

func TestSettle_EffectiveAmount(t *testing.T) {
	result := amortization.Settle(request("100", "10", "5"), money("1000"))

	assert.True(t, result.Success)
	assert.Empty(t, result.Reason)
	assertMoney(t, "105", result.EffectiveAmount)
	assertMoney(t, "105", result.DebitAmount)
	assert.NoError(t, result.Err())
}

func TestSettle_InsufficientBalance(t *testing.T) {
	// GIVEN: An account with 50 and an effective payment of 105
	result := amortization.Settle(request("100", "10", "5"), money("50"))

	// THEN: Rejected with no debit suggested
	assert.False(t, result.Success)
	assert.Equal(t, amortization.ReasonInsufficientBalance, result.Reason)
	assertMoney(t, "105", result.EffectiveAmount)
	assert.True(t, result.DebitAmount.IsZero())

	var insufficient *generic.InsufficientBalanceError
	require.True(t, errors.As(result.Err(), &insufficient))
	assert.ErrorIs(t, result.Err(), generic.ErrInsufficientBalance)
	assertMoney(t, "55", insufficient.Shortfall())
	assert.Equal(t, generic.AccountID("acc-1"), insufficient.AccountID)
}

func TestSettle_ExactBalanceSucceeds(t *testing.T) {
	result := amortization.Settle(request("100", "0", "0"), money("100"))
	assert.True(t, result.Success)
}

func TestSettle_DiscountCheckedBeforeBalance(t *testing.T) {
	// Discount too big AND balance too small: discount wins
	result := amortization.Settle(request("100", "0", "150"), money("0"))

	assert.False(t, result.Success)
	assert.Equal(t, amortization.ReasonInvalidDiscount, result.Reason)
	assert.ErrorIs(t, result.Err(), generic.ErrInvalidDiscount)
}

func TestSettle_FullDiscountIsFree(t *testing.T) {
	// Effective amount 0: no debit, no balance check
	result := amortization.Settle(request("100", "0", "100"), money("0"))

	assert.True(t, result.Success)
	assert.True(t, result.EffectiveAmount.IsZero())
	assert.True(t, result.DebitAmount.IsZero())
}

func TestSettle_NegativeAdjustmentsRejected(t *testing.T) {
	tests := []struct {
		name                     string
		base, interest, discount string
	}{
		{"negative interest", "100", "-1", "0"},
		{"negative discount", "100", "0", "-5"},
		{"negative base", "-100", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := amortization.Settle(request(tt.base, tt.interest, tt.discount), money("1000"))
			assert.False(t, result.Success)
			assert.Equal(t, amortization.ReasonInvalidAdjustment, result.Reason)
			assert.ErrorIs(t, result.Err(), generic.ErrInvalidAdjustment)
		})
	}
}
