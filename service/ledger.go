/*
Package service is the caller layer around the pure engines.

PURPOSE:
  The depreciation and amortization packages compute; they never read or
  write storage. Ledger loads snapshots from a generic.TxStore, hands them to
  the engines, and commits what comes back. It is the only place that
  touches both.

SETTLEMENT (the one critical section):
  1. WithTx opens a serialized transaction
  2. load installment (must be PENDING) and account
  3. amortization.Settle(request, account.Balance)
  4. DebitAccount(amount, expected = balance read in step 2)
  5. installment -> PAID, date = pay date, amount = effective amount
  6. contract -> PAID once no PENDING installment remains

  Any failure rolls the whole unit back, so a rejected or raced settlement
  leaves balance and schedule untouched. DebitAccount is a compare-and-swap:
  if another writer moved the balance between steps 2 and 4 it returns
  generic.ErrConcurrentModification and nothing is written.

SEE ALSO:
  - assets.go: Asset registration, metrics, projection, disposal, snapshots
  - generic/store.go: Store and TxStore contracts
*/
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/generic"
)

// =============================================================================
// LEDGER SERVICE
// =============================================================================

type Ledger struct {
	Store generic.TxStore
	Log   zerolog.Logger

	// Now is the clock used for CreatedAt/PaidAt. Tests may replace it.
	Now func() time.Time
}

func NewLedger(store generic.TxStore, logger zerolog.Logger) *Ledger {
	return &Ledger{
		Store: store,
		Log:   logger.With().Str("component", "ledger").Logger(),
		Now:   time.Now,
	}
}

func newID() string { return uuid.NewString() }

// =============================================================================
// ACCOUNTS
// =============================================================================

// CreateAccount opens a cash account with an initial balance.
func (l *Ledger) CreateAccount(ctx context.Context, companyID generic.CompanyID, name string, balance decimal.Decimal) (*generic.AccountRecord, error) {
	if balance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance must not be negative", generic.ErrInvalidInput)
	}
	acc := generic.AccountRecord{
		ID:        generic.AccountID(newID()),
		CompanyID: companyID,
		Name:      name,
		Balance:   balance,
		CreatedAt: l.Now(),
	}
	if err := l.Store.SaveAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	l.Log.Info().Str("company_id", string(companyID)).Str("account_id", string(acc.ID)).
		Str("balance", acc.Balance.String()).Msg("account created")
	return &acc, nil
}

func (l *Ledger) GetAccount(ctx context.Context, companyID generic.CompanyID, id generic.AccountID) (*generic.AccountRecord, error) {
	return l.Store.GetAccount(ctx, companyID, id)
}

// =============================================================================
// CONTRACTS
// =============================================================================

// Contract is a persisted long-term item with its installment rows.
type Contract struct {
	Item         amortization.LongTermItem
	Installments []generic.InstallmentRecord
}

// Reconciliation reports the current rows against the contract total.
func (c *Contract) Reconciliation() amortization.Reconciliation {
	return amortization.Reconcile(c.Item.TotalValue, previews(c.Installments))
}

// PreviewSchedule generates the default plan without persisting anything.
func (l *Ledger) PreviewSchedule(total decimal.Decimal, count int, start generic.TimePoint) ([]amortization.InstallmentPreview, error) {
	return amortization.Generate(total, count, start)
}

// CreateContract persists the item and one PENDING installment per row.
// rows must reconcile to item.TotalValue; nil rows means the default plan.
func (l *Ledger) CreateContract(ctx context.Context, companyID generic.CompanyID, item amortization.LongTermItem, rows []amortization.InstallmentPreview) (*Contract, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if rows == nil {
		var err error
		if rows, err = amortization.GenerateFor(item); err != nil {
			return nil, err
		}
	}
	confirmed, err := amortization.FromRows(item.TotalValue, rows).Confirm()
	if err != nil {
		return nil, err
	}

	item.CompanyID = companyID
	if item.ID == "" {
		item.ID = generic.ItemID(newID())
	}
	if item.Status == "" {
		item.Status = amortization.ItemActive
	}
	item.InstallmentsCount = len(confirmed)

	now := l.Now()
	records := l.installmentRecords(companyID, item.ID, confirmed, now)

	err = l.Store.WithTx(ctx, func(tx generic.Store) error {
		rec := itemToRecord(item)
		rec.CreatedAt = now
		if err := tx.SaveItem(ctx, rec); err != nil {
			return fmt.Errorf("failed to save contract: %w", err)
		}
		if err := tx.SaveInstallments(ctx, records); err != nil {
			return fmt.Errorf("failed to save installments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Log.Info().Str("company_id", string(companyID)).Str("item_id", string(item.ID)).
		Str("type", string(item.Type)).Str("total", item.TotalValue.String()).
		Int("installments", len(records)).Msg("contract created")
	return &Contract{Item: item, Installments: records}, nil
}

// GetContract loads the item and its installments ordered by sequence.
func (l *Ledger) GetContract(ctx context.Context, companyID generic.CompanyID, id generic.ItemID) (*Contract, error) {
	return loadContract(ctx, l.Store, companyID, id)
}

func loadContract(ctx context.Context, s generic.Store, companyID generic.CompanyID, id generic.ItemID) (*Contract, error) {
	rec, err := s.GetItem(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.ListInstallments(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return &Contract{Item: itemFromRecord(*rec), Installments: rows}, nil
}

// RegenerateSchedule replaces the PENDING installments of a contract with a
// freshly generated plan. PAID installments are history and stay as they
// are: the new plan spreads total minus the principal already paid over the
// installments still to come (count minus paid ones), starting at start.
func (l *Ledger) RegenerateSchedule(ctx context.Context, companyID generic.CompanyID, id generic.ItemID, total decimal.Decimal, count int, start generic.TimePoint) (*Contract, error) {
	var result *Contract
	err := l.Store.WithTx(ctx, func(tx generic.Store) error {
		c, err := loadContract(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if c.Item.Status == amortization.ItemCancelled {
			return fmt.Errorf("%w: contract %s is cancelled", generic.ErrInvalidScheduleConfiguration, id)
		}

		paid := make([]generic.InstallmentRecord, 0, len(c.Installments))
		paidSum := decimal.Zero
		nextIndex := 0
		for _, r := range c.Installments {
			if r.Status != generic.InstallmentPaid {
				continue
			}
			paid = append(paid, r)
			paidSum = paidSum.Add(principal(r))
			if r.SequenceIndex >= nextIndex {
				nextIndex = r.SequenceIndex + 1
			}
		}

		remaining := total.Sub(paidSum)
		pendingCount := count - len(paid)
		if remaining.IsNegative() {
			return fmt.Errorf("%w: new total %s is below the %s already paid",
				generic.ErrInvalidScheduleConfiguration, total, paidSum)
		}
		if pendingCount < 1 && !generic.IsNegligible(remaining) {
			return fmt.Errorf("%w: %d installments already paid, count %d leaves no room for the remaining %s",
				generic.ErrInvalidScheduleConfiguration, len(paid), count, remaining)
		}

		var fresh []amortization.InstallmentPreview
		if pendingCount >= 1 {
			if fresh, err = amortization.Generate(remaining, pendingCount, start); err != nil {
				return err
			}
			for i := range fresh {
				fresh[i].SequenceIndex = nextIndex + i
			}
		}

		if err := tx.DeletePendingInstallments(ctx, companyID, id); err != nil {
			return fmt.Errorf("failed to drop pending installments: %w", err)
		}
		records := l.installmentRecords(companyID, id, fresh, l.Now())
		if err := tx.SaveInstallments(ctx, records); err != nil {
			return fmt.Errorf("failed to save installments: %w", err)
		}

		item := c.Item
		item.TotalValue = total
		item.InstallmentsCount = len(paid) + len(records)
		if len(paid) == 0 {
			item.AcquisitionDate = start
		}
		item.Status = amortization.ItemActive
		if len(records) == 0 {
			item.Status = amortization.ItemPaid
		}
		if err := tx.SaveItem(ctx, itemToRecord(item)); err != nil {
			return fmt.Errorf("failed to save contract: %w", err)
		}

		result = &Contract{Item: item, Installments: append(paid, records...)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Log.Info().Str("company_id", string(companyID)).Str("item_id", string(id)).
		Str("total", total.String()).Int("installments", len(result.Installments)).
		Msg("schedule regenerated")
	return result, nil
}

func (l *Ledger) installmentRecords(companyID generic.CompanyID, itemID generic.ItemID, rows []amortization.InstallmentPreview, now time.Time) []generic.InstallmentRecord {
	records := make([]generic.InstallmentRecord, len(rows))
	for i, r := range rows {
		records[i] = generic.InstallmentRecord{
			ID:            generic.InstallmentID(newID()),
			CompanyID:     companyID,
			ItemID:        itemID,
			SequenceIndex: r.SequenceIndex,
			DueDate:       r.DueDate,
			Amount:        r.Amount,
			Status:        generic.InstallmentPending,
			Interest:      decimal.Zero,
			Discount:      decimal.Zero,
			CreatedAt:     now,
		}
	}
	return records
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// SettleInput identifies the installment and account and carries the
// adjustments. A nil BaseAmount settles the installment's scheduled amount.
type SettleInput struct {
	InstallmentID generic.InstallmentID
	AccountID     generic.AccountID
	PayDate       generic.TimePoint
	BaseAmount    *decimal.Decimal
	Interest      decimal.Decimal
	Discount      decimal.Decimal
}

// Settlement is the committed outcome of SettleInstallment.
type Settlement struct {
	Result       amortization.SettlementResult
	Installment  generic.InstallmentRecord
	Account      generic.AccountRecord
	ContractPaid bool
}

// SettleInstallment pays one installment from a cash account as a single
// atomic unit. A rejected settlement returns the engine's result alongside
// its error (generic.ErrInvalidDiscount, *generic.InsufficientBalanceError,
// ...) and leaves storage untouched.
func (l *Ledger) SettleInstallment(ctx context.Context, companyID generic.CompanyID, in SettleInput) (*Settlement, error) {
	var out *Settlement
	err := l.Store.WithTx(ctx, func(tx generic.Store) error {
		inst, err := tx.GetInstallment(ctx, companyID, in.InstallmentID)
		if err != nil {
			return err
		}
		if inst.Status == generic.InstallmentPaid {
			return fmt.Errorf("%w: %s", generic.ErrAlreadySettled, inst.ID)
		}
		item, err := tx.GetItem(ctx, companyID, inst.ItemID)
		if err != nil {
			return err
		}
		if status := amortization.ItemStatus(item.Status); status != amortization.ItemActive {
			return fmt.Errorf("%w: contract %s is %s", generic.ErrInvalidScheduleConfiguration, item.ID, status)
		}
		acc, err := tx.GetAccount(ctx, companyID, in.AccountID)
		if err != nil {
			return err
		}

		req := amortization.SettlementRequest{
			InstallmentTransactionID: inst.ID,
			PayDate:                  in.PayDate,
			BaseAmount:               inst.Amount,
			Interest:                 in.Interest,
			Discount:                 in.Discount,
			AccountID:                acc.ID,
		}
		if in.BaseAmount != nil {
			req.BaseAmount = *in.BaseAmount
		}
		if req.PayDate.IsZero() {
			req.PayDate = generic.FromTime(l.Now())
		}

		result := amortization.Settle(req, acc.Balance)
		out = &Settlement{Result: result}
		if !result.Success {
			return result.Err()
		}

		if result.DebitAmount.IsPositive() {
			if err := tx.DebitAccount(ctx, companyID, acc.ID, result.DebitAmount, acc.Balance); err != nil {
				return err
			}
			acc.Balance = acc.Balance.Sub(result.DebitAmount)
		}

		paidAt := l.Now()
		inst.Status = generic.InstallmentPaid
		inst.DueDate = req.PayDate
		inst.Amount = result.EffectiveAmount
		inst.AccountID = acc.ID
		inst.Interest = req.Interest
		inst.Discount = req.Discount
		inst.PaidAt = &paidAt
		if err := tx.SaveInstallments(ctx, []generic.InstallmentRecord{*inst}); err != nil {
			return fmt.Errorf("failed to save installment: %w", err)
		}

		contractPaid, err := closeIfFullyPaid(ctx, tx, companyID, inst.ItemID)
		if err != nil {
			return err
		}

		out.Installment = *inst
		out.Account = *acc
		out.ContractPaid = contractPaid
		return nil
	})
	if err != nil {
		l.Log.Warn().Err(err).Str("company_id", string(companyID)).
			Str("installment_id", string(in.InstallmentID)).Str("account_id", string(in.AccountID)).
			Msg("settlement rejected")
		return out, err
	}

	l.Log.Info().Str("company_id", string(companyID)).
		Str("installment_id", string(out.Installment.ID)).Str("account_id", string(out.Account.ID)).
		Str("effective", out.Result.EffectiveAmount.String()).Str("balance", out.Account.Balance.String()).
		Bool("contract_paid", out.ContractPaid).Msg("installment settled")
	return out, nil
}

// closeIfFullyPaid marks the contract PAID when none of its installments
// is still PENDING.
func closeIfFullyPaid(ctx context.Context, tx generic.Store, companyID generic.CompanyID, itemID generic.ItemID) (bool, error) {
	rows, err := tx.ListInstallments(ctx, companyID, itemID)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if r.Status == generic.InstallmentPending {
			return false, nil
		}
	}
	item, err := tx.GetItem(ctx, companyID, itemID)
	if err != nil {
		return false, err
	}
	item.Status = string(amortization.ItemPaid)
	if err := tx.SaveItem(ctx, *item); err != nil {
		return false, fmt.Errorf("failed to close contract: %w", err)
	}
	return true, nil
}
