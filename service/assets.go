package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/amortization-engine/depreciation"
	"github.com/warp/amortization-engine/generic"
)

// =============================================================================
// ASSETS
// =============================================================================

// RegisterAsset validates and stores a new asset. A missing ID is assigned.
func (l *Ledger) RegisterAsset(ctx context.Context, companyID generic.CompanyID, asset depreciation.Asset) (depreciation.Asset, error) {
	if err := asset.Validate(); err != nil {
		return depreciation.Asset{}, err
	}
	asset.CompanyID = companyID
	if asset.ID == "" {
		asset.ID = generic.AssetID(newID())
	}
	if asset.Status == "" {
		asset.Status = depreciation.StatusActive
	}

	rec := assetToRecord(asset)
	rec.CreatedAt = l.Now()
	if err := l.Store.SaveAsset(ctx, rec); err != nil {
		return depreciation.Asset{}, fmt.Errorf("failed to save asset: %w", err)
	}

	l.Log.Info().Str("company_id", string(companyID)).Str("asset_id", string(asset.ID)).
		Str("method", string(asset.Method)).Int("life_months", asset.UsefulLifeMonths).
		Msg("asset registered")
	return asset, nil
}

func (l *Ledger) GetAsset(ctx context.Context, companyID generic.CompanyID, id generic.AssetID) (depreciation.Asset, error) {
	rec, err := l.Store.GetAsset(ctx, companyID, id)
	if err != nil {
		return depreciation.Asset{}, err
	}
	return assetFromRecord(*rec), nil
}

func (l *Ledger) ListAssets(ctx context.Context, companyID generic.CompanyID) ([]depreciation.Asset, error) {
	recs, err := l.Store.ListAssets(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]depreciation.Asset, len(recs))
	for i, r := range recs {
		out[i] = assetFromRecord(r)
	}
	return out, nil
}

// AssetMetrics evaluates a stored asset at asOf.
func (l *Ledger) AssetMetrics(ctx context.Context, companyID generic.CompanyID, id generic.AssetID, asOf generic.TimePoint) (depreciation.Metrics, error) {
	asset, err := l.GetAsset(ctx, companyID, id)
	if err != nil {
		return depreciation.Metrics{}, err
	}
	m, err := depreciation.ComputeMetrics(asset, asOf)
	if err != nil {
		// A stored asset failing validation is corrupted data, not bad input.
		l.Log.Error().Err(err).Str("company_id", string(companyID)).Str("asset_id", string(id)).
			Msg("stored asset cannot be evaluated")
		return depreciation.Metrics{}, err
	}
	return m, nil
}

func (l *Ledger) AssetProjection(ctx context.Context, companyID generic.CompanyID, id generic.AssetID) ([]depreciation.YearRow, error) {
	asset, err := l.GetAsset(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return depreciation.ProjectSchedule(asset)
}

// RecordUsage updates the usage counter of an ACTIVE UNITS_OF_PRODUCTION
// asset. Usage never goes backwards.
func (l *Ledger) RecordUsage(ctx context.Context, companyID generic.CompanyID, id generic.AssetID, usage decimal.Decimal) (depreciation.Asset, error) {
	var updated depreciation.Asset
	err := l.Store.WithTx(ctx, func(tx generic.Store) error {
		rec, err := tx.GetAsset(ctx, companyID, id)
		if err != nil {
			return err
		}
		asset := assetFromRecord(*rec)
		if asset.Status != depreciation.StatusActive {
			return fmt.Errorf("%w: %s is %s", depreciation.ErrAssetRetired, id, asset.Status)
		}
		if asset.Method != depreciation.MethodUnitsOfProduction {
			return fmt.Errorf("%w: %s depreciates by %s, not usage", generic.ErrInvalidAsset, id, asset.Method)
		}
		if asset.UsageCurrent != nil && usage.LessThan(*asset.UsageCurrent) {
			return fmt.Errorf("%w: usage %s is below the recorded %s", generic.ErrInvalidAdjustment, usage, asset.UsageCurrent)
		}
		asset.UsageCurrent = &usage
		if err := tx.SaveAsset(ctx, assetToRecord(asset)); err != nil {
			return fmt.Errorf("failed to save asset: %w", err)
		}
		updated = asset
		return nil
	})
	if err != nil {
		return depreciation.Asset{}, err
	}
	l.Log.Info().Str("company_id", string(companyID)).Str("asset_id", string(id)).
		Str("usage", usage.String()).Msg("usage recorded")
	return updated, nil
}

// DisposeAsset sells (proceeds > 0) or writes off (proceeds = 0) an asset
// and retires it. Retired assets keep their figures but stop appearing in
// depreciation snapshots.
func (l *Ledger) DisposeAsset(ctx context.Context, companyID generic.CompanyID, id generic.AssetID, proceeds decimal.Decimal, date generic.TimePoint) (depreciation.Disposal, error) {
	var disposal depreciation.Disposal
	err := l.Store.WithTx(ctx, func(tx generic.Store) error {
		rec, err := tx.GetAsset(ctx, companyID, id)
		if err != nil {
			return err
		}
		asset := assetFromRecord(*rec)
		if disposal, err = depreciation.Dispose(asset, proceeds, date); err != nil {
			return err
		}
		asset.Status = disposal.Status
		if err := tx.SaveAsset(ctx, assetToRecord(asset)); err != nil {
			return fmt.Errorf("failed to save asset: %w", err)
		}
		return nil
	})
	if err != nil {
		return depreciation.Disposal{}, err
	}

	l.Log.Info().Str("company_id", string(companyID)).Str("asset_id", string(id)).
		Str("status", string(disposal.Status)).Str("book_value", disposal.BookValue.String()).
		Str("gain_or_loss", disposal.GainOrLoss.String()).Msg("asset disposed")
	return disposal, nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// SnapshotDepreciation records month-start figures for every ACTIVE asset of
// every company. Snapshots are keyed by asset and month, so running it more
// than once in a month overwrites rather than duplicates. Assets that fail
// to evaluate are logged and skipped.
func (l *Ledger) SnapshotDepreciation(ctx context.Context, asOf generic.TimePoint) (int, error) {
	month := generic.StartOfMonth(asOf.Year(), asOf.Month())

	recs, err := l.Store.ListActiveAssets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list assets: %w", err)
	}

	written := 0
	for _, r := range recs {
		asset := assetFromRecord(r)
		m, err := depreciation.ComputeMetrics(asset, month)
		if err != nil {
			l.Log.Error().Err(err).Str("company_id", string(r.CompanyID)).Str("asset_id", string(r.ID)).
				Msg("snapshot skipped")
			continue
		}
		snap := generic.SnapshotRecord{
			ID:              newID(),
			CompanyID:       r.CompanyID,
			AssetID:         r.ID,
			AsOf:            month,
			BookValue:       m.CurrentValue,
			Accumulated:     m.AccumulatedDepreciation,
			ProgressPercent: m.ProgressPercent,
			CreatedAt:       l.Now(),
		}
		if err := l.Store.SaveSnapshot(ctx, snap); err != nil {
			return written, fmt.Errorf("failed to save snapshot for %s: %w", r.ID, err)
		}
		written++
	}

	l.Log.Info().Str("as_of", month.String()).Int("assets", written).Msg("depreciation snapshot written")
	return written, nil
}

func (l *Ledger) ListSnapshots(ctx context.Context, companyID generic.CompanyID, id generic.AssetID) ([]generic.SnapshotRecord, error) {
	return l.Store.ListSnapshots(ctx, companyID, id)
}
