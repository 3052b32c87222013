// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	accounts     map[generic.AccountID]generic.AccountRecord
	assets       map[generic.AssetID]generic.AssetRecord
	items        map[generic.ItemID]generic.ItemRecord
	installments map[generic.InstallmentID]generic.InstallmentRecord
	snapshots    map[snapshotKey]generic.SnapshotRecord
}

type snapshotKey struct {
	AssetID generic.AssetID
	AsOf    string
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[generic.AccountID]generic.AccountRecord),
		assets:       make(map[generic.AssetID]generic.AssetRecord),
		items:        make(map[generic.ItemID]generic.ItemRecord),
		installments: make(map[generic.InstallmentID]generic.InstallmentRecord),
		snapshots:    make(map[snapshotKey]generic.SnapshotRecord),
	}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The write lock is held for the whole closure, which serializes settlements.
func (m *Memory) WithTx(_ context.Context, fn func(generic.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&memoryView{m: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memoryState struct {
	accounts     map[generic.AccountID]generic.AccountRecord
	assets       map[generic.AssetID]generic.AssetRecord
	items        map[generic.ItemID]generic.ItemRecord
	installments map[generic.InstallmentID]generic.InstallmentRecord
	snapshots    map[snapshotKey]generic.SnapshotRecord
}

func (m *Memory) snapshot() memoryState {
	return memoryState{
		accounts:     copyMap(m.accounts),
		assets:       copyMap(m.assets),
		items:        copyMap(m.items),
		installments: copyMap(m.installments),
		snapshots:    copyMap(m.snapshots),
	}
}

func (m *Memory) restore(s memoryState) {
	m.accounts = s.accounts
	m.assets = s.assets
	m.items = s.items
	m.installments = s.installments
	m.snapshots = s.snapshots
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// =============================================================================
// LOCKED PUBLIC API
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, a generic.AccountRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAccount(a)
}

func (m *Memory) GetAccount(_ context.Context, companyID generic.CompanyID, id generic.AccountID) (*generic.AccountRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAccount(companyID, id)
}

func (m *Memory) DebitAccount(_ context.Context, companyID generic.CompanyID, id generic.AccountID, amount, expected decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debitAccount(companyID, id, amount, expected)
}

func (m *Memory) SaveAsset(_ context.Context, a generic.AssetRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveAsset(a)
	return nil
}

func (m *Memory) GetAsset(_ context.Context, companyID generic.CompanyID, id generic.AssetID) (*generic.AssetRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAsset(companyID, id)
}

func (m *Memory) ListAssets(_ context.Context, companyID generic.CompanyID) ([]generic.AssetRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listAssets(func(a generic.AssetRecord) bool { return a.CompanyID == companyID }), nil
}

func (m *Memory) ListActiveAssets(_ context.Context) ([]generic.AssetRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listAssets(func(a generic.AssetRecord) bool { return a.Status == generic.AssetStatusActive }), nil
}

func (m *Memory) SaveItem(_ context.Context, it generic.ItemRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveItem(it)
	return nil
}

func (m *Memory) GetItem(_ context.Context, companyID generic.CompanyID, id generic.ItemID) (*generic.ItemRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getItem(companyID, id)
}

func (m *Memory) SaveInstallments(_ context.Context, rows []generic.InstallmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveInstallments(rows)
	return nil
}

func (m *Memory) GetInstallment(_ context.Context, companyID generic.CompanyID, id generic.InstallmentID) (*generic.InstallmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getInstallment(companyID, id)
}

func (m *Memory) ListInstallments(_ context.Context, companyID generic.CompanyID, itemID generic.ItemID) ([]generic.InstallmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listInstallments(companyID, itemID), nil
}

func (m *Memory) DeletePendingInstallments(_ context.Context, companyID generic.CompanyID, itemID generic.ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletePending(companyID, itemID)
	return nil
}

func (m *Memory) SaveSnapshot(_ context.Context, s generic.SnapshotRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshotKey{AssetID: s.AssetID, AsOf: s.AsOf.String()}] = s
	return nil
}

func (m *Memory) ListSnapshots(_ context.Context, companyID generic.CompanyID, assetID generic.AssetID) ([]generic.SnapshotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSnapshots(companyID, assetID), nil
}

// =============================================================================
// UNLOCKED INTERNALS (callers hold m.mu)
// =============================================================================

func (m *Memory) saveAccount(a generic.AccountRecord) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) getAccount(companyID generic.CompanyID, id generic.AccountID) (*generic.AccountRecord, error) {
	a, ok := m.accounts[id]
	if !ok || a.CompanyID != companyID {
		return nil, generic.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) debitAccount(companyID generic.CompanyID, id generic.AccountID, amount, expected decimal.Decimal) error {
	a, err := m.getAccount(companyID, id)
	if err != nil {
		return err
	}
	if !a.Balance.Equal(expected) {
		return generic.ErrConcurrentModification
	}
	a.Balance = a.Balance.Sub(amount)
	m.accounts[id] = *a
	return nil
}

// saveAsset and saveItem upsert, keeping the original CreatedAt like the
// SQL stores do.
func (m *Memory) saveAsset(a generic.AssetRecord) {
	if prev, ok := m.assets[a.ID]; ok && a.CreatedAt.IsZero() {
		a.CreatedAt = prev.CreatedAt
	}
	m.assets[a.ID] = a
}

func (m *Memory) saveItem(it generic.ItemRecord) {
	if prev, ok := m.items[it.ID]; ok && it.CreatedAt.IsZero() {
		it.CreatedAt = prev.CreatedAt
	}
	m.items[it.ID] = it
}

func (m *Memory) getAsset(companyID generic.CompanyID, id generic.AssetID) (*generic.AssetRecord, error) {
	a, ok := m.assets[id]
	if !ok || a.CompanyID != companyID {
		return nil, generic.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) listAssets(keep func(generic.AssetRecord) bool) []generic.AssetRecord {
	var result []generic.AssetRecord
	for _, a := range m.assets {
		if keep(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *Memory) getItem(companyID generic.CompanyID, id generic.ItemID) (*generic.ItemRecord, error) {
	it, ok := m.items[id]
	if !ok || it.CompanyID != companyID {
		return nil, generic.ErrNotFound
	}
	return &it, nil
}

func (m *Memory) saveInstallments(rows []generic.InstallmentRecord) {
	for _, r := range rows {
		m.installments[r.ID] = r
	}
}

func (m *Memory) getInstallment(companyID generic.CompanyID, id generic.InstallmentID) (*generic.InstallmentRecord, error) {
	r, ok := m.installments[id]
	if !ok || r.CompanyID != companyID {
		return nil, generic.ErrNotFound
	}
	return &r, nil
}

func (m *Memory) listInstallments(companyID generic.CompanyID, itemID generic.ItemID) []generic.InstallmentRecord {
	var result []generic.InstallmentRecord
	for _, r := range m.installments {
		if r.CompanyID == companyID && r.ItemID == itemID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SequenceIndex < result[j].SequenceIndex })
	return result
}

func (m *Memory) deletePending(companyID generic.CompanyID, itemID generic.ItemID) {
	for id, r := range m.installments {
		if r.CompanyID == companyID && r.ItemID == itemID && r.Status == generic.InstallmentPending {
			delete(m.installments, id)
		}
	}
}

func (m *Memory) listSnapshots(companyID generic.CompanyID, assetID generic.AssetID) []generic.SnapshotRecord {
	var result []generic.SnapshotRecord
	for _, s := range m.snapshots {
		if s.CompanyID == companyID && s.AssetID == assetID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AsOf.Before(result[j].AsOf) })
	return result
}

// =============================================================================
// TRANSACTIONAL VIEW - used inside WithTx, lock already held
// =============================================================================

type memoryView struct {
	m *Memory
}

func (v *memoryView) SaveAccount(_ context.Context, a generic.AccountRecord) error {
	return v.m.saveAccount(a)
}

func (v *memoryView) GetAccount(_ context.Context, companyID generic.CompanyID, id generic.AccountID) (*generic.AccountRecord, error) {
	return v.m.getAccount(companyID, id)
}

func (v *memoryView) DebitAccount(_ context.Context, companyID generic.CompanyID, id generic.AccountID, amount, expected decimal.Decimal) error {
	return v.m.debitAccount(companyID, id, amount, expected)
}

func (v *memoryView) SaveAsset(_ context.Context, a generic.AssetRecord) error {
	v.m.saveAsset(a)
	return nil
}

func (v *memoryView) GetAsset(_ context.Context, companyID generic.CompanyID, id generic.AssetID) (*generic.AssetRecord, error) {
	return v.m.getAsset(companyID, id)
}

func (v *memoryView) ListAssets(_ context.Context, companyID generic.CompanyID) ([]generic.AssetRecord, error) {
	return v.m.listAssets(func(a generic.AssetRecord) bool { return a.CompanyID == companyID }), nil
}

func (v *memoryView) ListActiveAssets(_ context.Context) ([]generic.AssetRecord, error) {
	return v.m.listAssets(func(a generic.AssetRecord) bool { return a.Status == generic.AssetStatusActive }), nil
}

func (v *memoryView) SaveItem(_ context.Context, it generic.ItemRecord) error {
	v.m.saveItem(it)
	return nil
}

func (v *memoryView) GetItem(_ context.Context, companyID generic.CompanyID, id generic.ItemID) (*generic.ItemRecord, error) {
	return v.m.getItem(companyID, id)
}

func (v *memoryView) SaveInstallments(_ context.Context, rows []generic.InstallmentRecord) error {
	v.m.saveInstallments(rows)
	return nil
}

func (v *memoryView) GetInstallment(_ context.Context, companyID generic.CompanyID, id generic.InstallmentID) (*generic.InstallmentRecord, error) {
	return v.m.getInstallment(companyID, id)
}

func (v *memoryView) ListInstallments(_ context.Context, companyID generic.CompanyID, itemID generic.ItemID) ([]generic.InstallmentRecord, error) {
	return v.m.listInstallments(companyID, itemID), nil
}

func (v *memoryView) DeletePendingInstallments(_ context.Context, companyID generic.CompanyID, itemID generic.ItemID) error {
	v.m.deletePending(companyID, itemID)
	return nil
}

func (v *memoryView) SaveSnapshot(_ context.Context, s generic.SnapshotRecord) error {
	v.m.snapshots[snapshotKey{AssetID: s.AssetID, AsOf: s.AsOf.String()}] = s
	return nil
}

func (v *memoryView) ListSnapshots(_ context.Context, companyID generic.CompanyID, assetID generic.AssetID) ([]generic.SnapshotRecord, error) {
	return v.m.listSnapshots(companyID, assetID), nil
}
