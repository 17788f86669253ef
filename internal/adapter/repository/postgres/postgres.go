package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
)

var _ port.AssetRepository = (*AssetRepository)(nil)

const MaxListLimit = 200

type AssetRepository struct {
	PostgresDB *dbpg.DB
}

func NewAssetRepository(cfg *config.Config) (*AssetRepository, error) {
	opts := &dbpg.Options{MaxOpenConns: 10, MaxIdleConns: 5}
	db, err := dbpg.New(cfg.MasterDSN, cfg.SlaveDSNs, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset ledger: %w", err)
	}

	return &AssetRepository{
		PostgresDB: db,
	}, nil
}

// SaveAsset upserts by key so a redelivered event is harmless.
func (a *AssetRepository) SaveAsset(ctx context.Context, asset domain.Asset) error {
	query := `
        INSERT INTO media_assets (
            object_key, url, preset, original_size, processed_size,
            width, height, status, uploaded_by, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (object_key) DO UPDATE SET
            url = EXCLUDED.url,
            preset = EXCLUDED.preset,
            original_size = EXCLUDED.original_size,
            processed_size = EXCLUDED.processed_size,
            width = EXCLUDED.width,
            height = EXCLUDED.height,
            uploaded_by = EXCLUDED.uploaded_by
    `

	_, err := a.PostgresDB.ExecWithRetry(ctx, createRetryStrategy(), query,
		asset.Key,
		asset.URL,
		asset.Preset,
		asset.OriginalSize,
		asset.ProcessedSize,
		asset.Dimensions.Width,
		asset.Dimensions.Height,
		asset.Status,
		asset.UploadedBy,
		asset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save asset %s: %w", asset.Key, err)
	}

	return nil
}

// MarkDeleted keeps the row for auditing. A delete event can arrive before
// its publish event when partitions rebalance, so a missing row is inserted.
func (a *AssetRepository) MarkDeleted(ctx context.Context, key string) error {
	query := `
        INSERT INTO media_assets (object_key, url, status, created_at, deleted_at)
        VALUES ($1, '', $2, $3, $3)
        ON CONFLICT (object_key) DO UPDATE SET
            status = EXCLUDED.status,
            deleted_at = EXCLUDED.deleted_at
    `

	_, err := a.PostgresDB.ExecWithRetry(ctx, createRetryStrategy(), query, key, domain.AssetStatusDeleted, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark asset %s deleted: %w", key, err)
	}

	return nil
}

func (a *AssetRepository) ListAssets(ctx context.Context, limit int) ([]domain.Asset, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `
        SELECT
            object_key,
            url,
            preset,
            original_size,
            processed_size,
            width,
            height,
            status,
            uploaded_by,
            created_at,
            deleted_at
        FROM media_assets
        ORDER BY created_at DESC
        LIMIT $1
    `

	rows, err := a.PostgresDB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]domain.Asset, 0, limit)
	for rows.Next() {
		var asset domain.Asset
		if err := rows.Scan(
			&asset.Key,
			&asset.URL,
			&asset.Preset,
			&asset.OriginalSize,
			&asset.ProcessedSize,
			&asset.Dimensions.Width,
			&asset.Dimensions.Height,
			&asset.Status,
			&asset.UploadedBy,
			&asset.CreatedAt,
			&asset.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return assets, nil
}

func createRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: 3,
		Delay:    2 * time.Second,
		Backoff:  2}
}
