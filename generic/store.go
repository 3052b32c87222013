/*
store.go - Persistence interface for assets, contracts, installments and accounts

PURPOSE:
  Defines the interface between the caller layer (service package) and the
  database. The engines themselves never see a Store: the service loads a
  snapshot, hands it to the engine, and persists what comes back.

KEY INTERFACES:
  Store:   Tenant-scoped CRUD for the records the engines operate on
  TxStore: Store + WithTx for atomic multi-record writes

THE SETTLEMENT BOUNDARY:
  Settling an installment is "read balance, validate, debit". Two settlements
  racing on one account could both pass validation against a stale balance.
  Implementations MUST make this safe:
  - WithTx serializes the whole read-validate-write closure
  - DebitAccount is a compare-and-swap: it only applies when the stored
    balance still equals the balance the caller validated against, and
    returns ErrConcurrentModification otherwise

TENANCY:
  Every record carries a CompanyID and every lookup takes one. A record that
  exists for another company is reported as ErrNotFound.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite (WAL)
  - generic/store/memory.go: In-memory for tests and demos

SEE ALSO:
  - service/ledger.go: The only caller
*/
package generic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORDS - Persisted shapes (enums as strings, owned by the store)
// =============================================================================

// AccountRecord is a cash account (FinancialAccount) that settlements debit.
type AccountRecord struct {
	ID        AccountID
	CompanyID CompanyID
	Name      string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// AssetStatusActive is the persisted status of assets still depreciating.
const AssetStatusActive = "ACTIVE"

// AssetRecord is a persisted fixed asset.
type AssetRecord struct {
	ID                  AssetID
	CompanyID           CompanyID
	Name                string
	InitialValue        decimal.Decimal
	ResidualValue       decimal.Decimal
	AcquisitionDate     TimePoint
	UsefulLifeMonths    int
	Method              string
	UsageTotalEstimated *decimal.Decimal
	UsageCurrent        *decimal.Decimal
	Status              string
	CreatedAt           time.Time
}

// ItemRecord is a persisted long-term contract (loan, financing, license).
type ItemRecord struct {
	ID                ItemID
	CompanyID         CompanyID
	Name              string
	Type              string
	TotalValue        decimal.Decimal
	AcquisitionDate   TimePoint
	InstallmentsCount int
	Status            string
	CreatedAt         time.Time
}

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
)

// InstallmentRecord is the ledger transaction created for each confirmed
// schedule row. Settlement rewrites DueDate/Amount with the paid values.
type InstallmentRecord struct {
	ID            InstallmentID
	CompanyID     CompanyID
	ItemID        ItemID
	SequenceIndex int
	DueDate       TimePoint
	Amount        decimal.Decimal
	Status        InstallmentStatus
	AccountID     AccountID // set on settlement
	Interest      decimal.Decimal
	Discount      decimal.Decimal
	PaidAt        *time.Time
	CreatedAt     time.Time
}

// SnapshotRecord is a monthly depreciation figure captured by the scheduler.
type SnapshotRecord struct {
	ID              string
	CompanyID       CompanyID
	AssetID         AssetID
	AsOf            TimePoint
	BookValue       decimal.Decimal
	Accumulated     decimal.Decimal
	ProgressPercent decimal.Decimal
	CreatedAt       time.Time
}

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// Accounts
	SaveAccount(ctx context.Context, a AccountRecord) error
	GetAccount(ctx context.Context, companyID CompanyID, id AccountID) (*AccountRecord, error)

	// DebitAccount subtracts amount from the balance if, and only if, the
	// stored balance still equals expected. Returns ErrConcurrentModification
	// on mismatch.
	DebitAccount(ctx context.Context, companyID CompanyID, id AccountID, amount, expected decimal.Decimal) error

	// Assets
	SaveAsset(ctx context.Context, a AssetRecord) error
	GetAsset(ctx context.Context, companyID CompanyID, id AssetID) (*AssetRecord, error)
	ListAssets(ctx context.Context, companyID CompanyID) ([]AssetRecord, error)
	// ListActiveAssets returns ACTIVE assets across every company.
	ListActiveAssets(ctx context.Context) ([]AssetRecord, error)

	// Long-term items
	SaveItem(ctx context.Context, it ItemRecord) error
	GetItem(ctx context.Context, companyID CompanyID, id ItemID) (*ItemRecord, error)

	// Installments
	SaveInstallments(ctx context.Context, rows []InstallmentRecord) error
	GetInstallment(ctx context.Context, companyID CompanyID, id InstallmentID) (*InstallmentRecord, error)
	// ListInstallments returns rows ordered by SequenceIndex.
	ListInstallments(ctx context.Context, companyID CompanyID, itemID ItemID) ([]InstallmentRecord, error)
	DeletePendingInstallments(ctx context.Context, companyID CompanyID, itemID ItemID) error

	// Snapshots (upsert on AssetID + AsOf)
	SaveSnapshot(ctx context.Context, s SnapshotRecord) error
	ListSnapshots(ctx context.Context, companyID CompanyID, assetID AssetID) ([]SnapshotRecord, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
