/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.TxStore using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  accounts:               Cash accounts debited by settlements
  assets:                 Fixed assets and their depreciation parameters
  long_term_items:        Loans, financings, licenses
  installments:           One row per schedule installment (PENDING/PAID)
  depreciation_snapshots: Monthly book values written by the scheduler

MONEY:
  Stored as TEXT decimal strings and parsed back with shopspring/decimal.
  Never REAL: a float column would reintroduce the rounding drift the
  engines are careful to avoid.

SETTLEMENT ATOMICITY:
  WithTx holds the store mutex for the whole closure and runs it in one SQL
  transaction, so "read balance, validate, debit" is serialized.
  DebitAccount is additionally a compare-and-swap:

    UPDATE accounts SET balance = ? WHERE id = ? AND balance = <expected>

  and zero affected rows is reported as generic.ErrConcurrentModification.
  This keeps the guarantee even if another process writes the same file.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Every query inside WithTx goes
  through the *sql.Tx, never the pool, so a single-connection database
  (":memory:") cannot deadlock against itself.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/amortization.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := service.NewLedger(store, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/generic"
)

// Store implements generic.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per-connection, and SQLite
	// has a single writer anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		balance TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_company ON accounts(company_id);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		initial_value TEXT NOT NULL,
		residual_value TEXT NOT NULL,
		acquisition_date TEXT NOT NULL,
		useful_life_months INTEGER NOT NULL,
		method TEXT NOT NULL,
		usage_total_estimated TEXT,
		usage_current TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_company ON assets(company_id);
	CREATE INDEX IF NOT EXISTS idx_assets_status ON assets(status);

	CREATE TABLE IF NOT EXISTS long_term_items (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		item_type TEXT NOT NULL,
		total_value TEXT NOT NULL,
		acquisition_date TEXT NOT NULL,
		installments_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_company ON long_term_items(company_id);

	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		item_id TEXT NOT NULL REFERENCES long_term_items(id),
		sequence_index INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		account_id TEXT,
		interest TEXT NOT NULL DEFAULT '0',
		discount TEXT NOT NULL DEFAULT '0',
		paid_at TEXT,
		created_at TEXT NOT NULL
	);

	-- Schedule reads are always "all rows of one contract, in order"
	CREATE INDEX IF NOT EXISTS idx_installments_item
		ON installments(company_id, item_id, sequence_index);

	CREATE TABLE IF NOT EXISTS depreciation_snapshots (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		as_of TEXT NOT NULL,
		book_value TEXT NOT NULL,
		accumulated TEXT NOT NULL,
		progress_percent TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(asset_id, as_of)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) SaveAccount(ctx context.Context, a generic.AccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAccount(ctx, s.db, a)
}

func (s *Store) GetAccount(ctx context.Context, companyID generic.CompanyID, id generic.AccountID) (*generic.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAccount(ctx, s.db, companyID, id)
}

func (s *Store) DebitAccount(ctx context.Context, companyID generic.CompanyID, id generic.AccountID, amount, expected decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return debitAccount(ctx, s.db, companyID, id, amount, expected)
}

func saveAccount(ctx context.Context, q querier, a generic.AccountRecord) error {
	query := `
		INSERT INTO accounts (id, company_id, name, balance, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			balance = excluded.balance
	`
	_, err := q.ExecContext(ctx, query,
		string(a.ID), string(a.CompanyID), a.Name, a.Balance.String(), formatTimestamp(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func getAccount(ctx context.Context, q querier, companyID generic.CompanyID, id generic.AccountID) (*generic.AccountRecord, error) {
	query := `SELECT id, company_id, name, balance, created_at FROM accounts WHERE id = ? AND company_id = ?`

	var (
		a                  generic.AccountRecord
		balance, createdAt string
	)
	err := q.QueryRowContext(ctx, query, string(id), string(companyID)).
		Scan(&a.ID, &a.CompanyID, &a.Name, &balance, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("corrupt balance on account %s: %w", id, err)
	}
	a.CreatedAt = parseTimestamp(createdAt)
	return &a, nil
}

// debitAccount is the compare-and-swap described in the package doc. The
// WHERE clause matches the exact stored text so formatting differences
// ("100" vs "100.00") can't produce a false mismatch.
func debitAccount(ctx context.Context, q querier, companyID generic.CompanyID, id generic.AccountID, amount, expected decimal.Decimal) error {
	var stored string
	err := q.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ? AND company_id = ?`,
		string(id), string(companyID)).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	current, err := decimal.NewFromString(stored)
	if err != nil {
		return fmt.Errorf("corrupt balance on account %s: %w", id, err)
	}
	if !current.Equal(expected) {
		return generic.ErrConcurrentModification
	}

	res, err := q.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ? AND company_id = ? AND balance = ?`,
		current.Sub(amount).String(), string(id), string(companyID), stored)
	if err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	if n == 0 {
		return generic.ErrConcurrentModification
	}
	return nil
}

// =============================================================================
// ASSETS
// =============================================================================

const assetColumns = `id, company_id, name, initial_value, residual_value, acquisition_date,
	useful_life_months, method, usage_total_estimated, usage_current, status, created_at`

func (s *Store) SaveAsset(ctx context.Context, a generic.AssetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAsset(ctx, s.db, a)
}

func (s *Store) GetAsset(ctx context.Context, companyID generic.CompanyID, id generic.AssetID) (*generic.AssetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAsset(ctx, s.db, companyID, id)
}

func (s *Store) ListAssets(ctx context.Context, companyID generic.CompanyID) ([]generic.AssetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAssets(ctx, s.db, `WHERE company_id = ?`, string(companyID))
}

func (s *Store) ListActiveAssets(ctx context.Context) ([]generic.AssetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAssets(ctx, s.db, `WHERE status = ?`, generic.AssetStatusActive)
}

func saveAsset(ctx context.Context, q querier, a generic.AssetRecord) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			initial_value = excluded.initial_value,
			residual_value = excluded.residual_value,
			acquisition_date = excluded.acquisition_date,
			useful_life_months = excluded.useful_life_months,
			method = excluded.method,
			usage_total_estimated = excluded.usage_total_estimated,
			usage_current = excluded.usage_current,
			status = excluded.status
	`
	_, err := q.ExecContext(ctx, query,
		string(a.ID), string(a.CompanyID), a.Name,
		a.InitialValue.String(), a.ResidualValue.String(), a.AcquisitionDate.String(),
		a.UsefulLifeMonths, a.Method,
		nullDecimal(a.UsageTotalEstimated), nullDecimal(a.UsageCurrent),
		a.Status, formatTimestamp(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

func getAsset(ctx context.Context, q querier, companyID generic.CompanyID, id generic.AssetID) (*generic.AssetRecord, error) {
	rows, err := listAssets(ctx, q, `WHERE id = ? AND company_id = ?`, string(id), string(companyID))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, generic.ErrNotFound
	}
	return &rows[0], nil
}

func listAssets(ctx context.Context, q querier, where string, args ...any) ([]generic.AssetRecord, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var result []generic.AssetRecord
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanAsset(rows *sql.Rows) (generic.AssetRecord, error) {
	var (
		a                                      generic.AssetRecord
		initial, residual, acquired, createdAt string
		usageTotal, usageCurrent               sql.NullString
	)
	err := rows.Scan(&a.ID, &a.CompanyID, &a.Name, &initial, &residual, &acquired,
		&a.UsefulLifeMonths, &a.Method, &usageTotal, &usageCurrent, &a.Status, &createdAt)
	if err != nil {
		return a, fmt.Errorf("failed to scan asset: %w", err)
	}

	if a.InitialValue, err = decimal.NewFromString(initial); err != nil {
		return a, fmt.Errorf("corrupt initial_value on asset %s: %w", a.ID, err)
	}
	if a.ResidualValue, err = decimal.NewFromString(residual); err != nil {
		return a, fmt.Errorf("corrupt residual_value on asset %s: %w", a.ID, err)
	}
	if a.AcquisitionDate, err = generic.ParseDate(acquired); err != nil {
		return a, fmt.Errorf("corrupt acquisition_date on asset %s: %w", a.ID, err)
	}
	a.UsageTotalEstimated = parseNullDecimal(usageTotal)
	a.UsageCurrent = parseNullDecimal(usageCurrent)
	a.CreatedAt = parseTimestamp(createdAt)
	return a, nil
}

// =============================================================================
// LONG-TERM ITEMS
// =============================================================================

func (s *Store) SaveItem(ctx context.Context, it generic.ItemRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveItem(ctx, s.db, it)
}

func (s *Store) GetItem(ctx context.Context, companyID generic.CompanyID, id generic.ItemID) (*generic.ItemRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getItem(ctx, s.db, companyID, id)
}

func saveItem(ctx context.Context, q querier, it generic.ItemRecord) error {
	query := `
		INSERT INTO long_term_items (id, company_id, name, item_type, total_value,
			acquisition_date, installments_count, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			item_type = excluded.item_type,
			total_value = excluded.total_value,
			acquisition_date = excluded.acquisition_date,
			installments_count = excluded.installments_count,
			status = excluded.status
	`
	_, err := q.ExecContext(ctx, query,
		string(it.ID), string(it.CompanyID), it.Name, it.Type, it.TotalValue.String(),
		it.AcquisitionDate.String(), it.InstallmentsCount, it.Status, formatTimestamp(it.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

func getItem(ctx context.Context, q querier, companyID generic.CompanyID, id generic.ItemID) (*generic.ItemRecord, error) {
	query := `
		SELECT id, company_id, name, item_type, total_value, acquisition_date,
			installments_count, status, created_at
		FROM long_term_items WHERE id = ? AND company_id = ?
	`
	var (
		it                         generic.ItemRecord
		total, acquired, createdAt string
	)
	err := q.QueryRowContext(ctx, query, string(id), string(companyID)).Scan(
		&it.ID, &it.CompanyID, &it.Name, &it.Type, &total, &acquired,
		&it.InstallmentsCount, &it.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if it.TotalValue, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("corrupt total_value on item %s: %w", id, err)
	}
	if it.AcquisitionDate, err = generic.ParseDate(acquired); err != nil {
		return nil, fmt.Errorf("corrupt acquisition_date on item %s: %w", id, err)
	}
	it.CreatedAt = parseTimestamp(createdAt)
	return &it, nil
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

const installmentColumns = `id, company_id, item_id, sequence_index, due_date, amount, status,
	account_id, interest, discount, paid_at, created_at`

func (s *Store) SaveInstallments(ctx context.Context, rows []generic.InstallmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Outside WithTx the batch still goes in as one unit.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveInstallments(ctx, tx, rows); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetInstallment(ctx context.Context, companyID generic.CompanyID, id generic.InstallmentID) (*generic.InstallmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getInstallment(ctx, s.db, companyID, id)
}

func (s *Store) ListInstallments(ctx context.Context, companyID generic.CompanyID, itemID generic.ItemID) ([]generic.InstallmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listInstallments(ctx, s.db, `WHERE company_id = ? AND item_id = ?`, string(companyID), string(itemID))
}

func (s *Store) DeletePendingInstallments(ctx context.Context, companyID generic.CompanyID, itemID generic.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deletePending(ctx, s.db, companyID, itemID)
}

func saveInstallments(ctx context.Context, q querier, rows []generic.InstallmentRecord) error {
	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sequence_index = excluded.sequence_index,
			due_date = excluded.due_date,
			amount = excluded.amount,
			status = excluded.status,
			account_id = excluded.account_id,
			interest = excluded.interest,
			discount = excluded.discount,
			paid_at = excluded.paid_at
	`
	for _, r := range rows {
		var accountID sql.NullString
		if r.AccountID != "" {
			accountID = sql.NullString{String: string(r.AccountID), Valid: true}
		}
		var paidAt sql.NullString
		if r.PaidAt != nil {
			paidAt = sql.NullString{String: formatTimestamp(*r.PaidAt), Valid: true}
		}
		_, err := q.ExecContext(ctx, query,
			string(r.ID), string(r.CompanyID), string(r.ItemID), r.SequenceIndex,
			r.DueDate.String(), r.Amount.String(), string(r.Status), accountID,
			r.Interest.String(), r.Discount.String(), paidAt, formatTimestamp(r.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save installment %s: %w", r.ID, err)
		}
	}
	return nil
}

func getInstallment(ctx context.Context, q querier, companyID generic.CompanyID, id generic.InstallmentID) (*generic.InstallmentRecord, error) {
	rows, err := listInstallments(ctx, q, `WHERE id = ? AND company_id = ?`, string(id), string(companyID))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, generic.ErrNotFound
	}
	return &rows[0], nil
}

func listInstallments(ctx context.Context, q querier, where string, args ...any) ([]generic.InstallmentRecord, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments ` + where + ` ORDER BY sequence_index`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments: %w", err)
	}
	defer rows.Close()

	var result []generic.InstallmentRecord
	for rows.Next() {
		r, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanInstallment(rows *sql.Rows) (generic.InstallmentRecord, error) {
	var (
		r                                                generic.InstallmentRecord
		due, amount, status, interest, discount, created string
		accountID, paidAt                                sql.NullString
	)
	err := rows.Scan(&r.ID, &r.CompanyID, &r.ItemID, &r.SequenceIndex, &due, &amount, &status,
		&accountID, &interest, &discount, &paidAt, &created)
	if err != nil {
		return r, fmt.Errorf("failed to scan installment: %w", err)
	}

	if r.DueDate, err = generic.ParseDate(due); err != nil {
		return r, fmt.Errorf("corrupt due_date on installment %s: %w", r.ID, err)
	}
	if r.Amount, err = decimal.NewFromString(amount); err != nil {
		return r, fmt.Errorf("corrupt amount on installment %s: %w", r.ID, err)
	}
	r.Interest = generic.MustMoney(interest)
	r.Discount = generic.MustMoney(discount)
	r.Status = generic.InstallmentStatus(status)
	r.AccountID = generic.AccountID(accountID.String)
	if paidAt.Valid {
		t := parseTimestamp(paidAt.String)
		r.PaidAt = &t
	}
	r.CreatedAt = parseTimestamp(created)
	return r, nil
}

func deletePending(ctx context.Context, q querier, companyID generic.CompanyID, itemID generic.ItemID) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM installments WHERE company_id = ? AND item_id = ? AND status = ?`,
		string(companyID), string(itemID), string(generic.InstallmentPending))
	if err != nil {
		return fmt.Errorf("failed to delete pending installments: %w", err)
	}
	return nil
}

// =============================================================================
// DEPRECIATION SNAPSHOTS
// =============================================================================

func (s *Store) SaveSnapshot(ctx context.Context, snap generic.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveSnapshot(ctx, s.db, snap)
}

func (s *Store) ListSnapshots(ctx context.Context, companyID generic.CompanyID, assetID generic.AssetID) ([]generic.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSnapshots(ctx, s.db, companyID, assetID)
}

func saveSnapshot(ctx context.Context, q querier, snap generic.SnapshotRecord) error {
	query := `
		INSERT INTO depreciation_snapshots (id, company_id, asset_id, as_of, book_value,
			accumulated, progress_percent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asset_id, as_of) DO UPDATE SET
			book_value = excluded.book_value,
			accumulated = excluded.accumulated,
			progress_percent = excluded.progress_percent,
			created_at = excluded.created_at
	`
	_, err := q.ExecContext(ctx, query,
		snap.ID, string(snap.CompanyID), string(snap.AssetID), snap.AsOf.String(),
		snap.BookValue.String(), snap.Accumulated.String(), snap.ProgressPercent.String(),
		formatTimestamp(snap.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func listSnapshots(ctx context.Context, q querier, companyID generic.CompanyID, assetID generic.AssetID) ([]generic.SnapshotRecord, error) {
	query := `
		SELECT id, company_id, asset_id, as_of, book_value, accumulated, progress_percent, created_at
		FROM depreciation_snapshots
		WHERE company_id = ? AND asset_id = ?
		ORDER BY as_of
	`
	rows, err := q.QueryContext(ctx, query, string(companyID), string(assetID))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var result []generic.SnapshotRecord
	for rows.Next() {
		var (
			snap                                       generic.SnapshotRecord
			asOf, book, accumulated, progress, created string
		)
		if err := rows.Scan(&snap.ID, &snap.CompanyID, &snap.AssetID, &asOf,
			&book, &accumulated, &progress, &created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if snap.AsOf, err = generic.ParseDate(asOf); err != nil {
			return nil, fmt.Errorf("corrupt as_of on snapshot %s: %w", snap.ID, err)
		}
		snap.BookValue = generic.MustMoney(book)
		snap.Accumulated = generic.MustMoney(accumulated)
		snap.ProgressPercent = generic.MustMoney(progress)
		snap.CreatedAt = parseTimestamp(created)
		result = append(result, snap)
	}
	return result, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every call on the open transaction. The parent mutex is
// already held by WithTx, so nothing here locks.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveAccount(ctx context.Context, a generic.AccountRecord) error {
	return saveAccount(ctx, ts.tx, a)
}

func (ts *txStore) GetAccount(ctx context.Context, companyID generic.CompanyID, id generic.AccountID) (*generic.AccountRecord, error) {
	return getAccount(ctx, ts.tx, companyID, id)
}

func (ts *txStore) DebitAccount(ctx context.Context, companyID generic.CompanyID, id generic.AccountID, amount, expected decimal.Decimal) error {
	return debitAccount(ctx, ts.tx, companyID, id, amount, expected)
}

func (ts *txStore) SaveAsset(ctx context.Context, a generic.AssetRecord) error {
	return saveAsset(ctx, ts.tx, a)
}

func (ts *txStore) GetAsset(ctx context.Context, companyID generic.CompanyID, id generic.AssetID) (*generic.AssetRecord, error) {
	return getAsset(ctx, ts.tx, companyID, id)
}

func (ts *txStore) ListAssets(ctx context.Context, companyID generic.CompanyID) ([]generic.AssetRecord, error) {
	return listAssets(ctx, ts.tx, `WHERE company_id = ?`, string(companyID))
}

func (ts *txStore) ListActiveAssets(ctx context.Context) ([]generic.AssetRecord, error) {
	return listAssets(ctx, ts.tx, `WHERE status = ?`, generic.AssetStatusActive)
}

func (ts *txStore) SaveItem(ctx context.Context, it generic.ItemRecord) error {
	return saveItem(ctx, ts.tx, it)
}

func (ts *txStore) GetItem(ctx context.Context, companyID generic.CompanyID, id generic.ItemID) (*generic.ItemRecord, error) {
	return getItem(ctx, ts.tx, companyID, id)
}

func (ts *txStore) SaveInstallments(ctx context.Context, rows []generic.InstallmentRecord) error {
	return saveInstallments(ctx, ts.tx, rows)
}

func (ts *txStore) GetInstallment(ctx context.Context, companyID generic.CompanyID, id generic.InstallmentID) (*generic.InstallmentRecord, error) {
	return getInstallment(ctx, ts.tx, companyID, id)
}

func (ts *txStore) ListInstallments(ctx context.Context, companyID generic.CompanyID, itemID generic.ItemID) ([]generic.InstallmentRecord, error) {
	return listInstallments(ctx, ts.tx, `WHERE company_id = ? AND item_id = ?`, string(companyID), string(itemID))
}

func (ts *txStore) DeletePendingInstallments(ctx context.Context, companyID generic.CompanyID, itemID generic.ItemID) error {
	return deletePending(ctx, ts.tx, companyID, itemID)
}

func (ts *txStore) SaveSnapshot(ctx context.Context, snap generic.SnapshotRecord) error {
	return saveSnapshot(ctx, ts.tx, snap)
}

func (ts *txStore) ListSnapshots(ctx context.Context, companyID generic.CompanyID, assetID generic.AssetID) ([]generic.SnapshotRecord, error) {
	return listSnapshots(ctx, ts.tx, companyID, assetID)
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDecimal(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid {
		return nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil
	}
	return &d
}

// Interface compliance.
var (
	_ generic.TxStore = (*Store)(nil)
	_ generic.Store   = (*txStore)(nil)
)
