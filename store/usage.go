package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// PostgresUsageTracker implements interfaces.UsageTracker over the
// storage_usage table, one row per provider type.
type PostgresUsageTracker struct {
	db *sql.DB
}

// NewPostgresUsageTracker constructs a tracker bound to db.
func NewPostgresUsageTracker(db *sql.DB) *PostgresUsageTracker {
	return &PostgresUsageTracker{db: db}
}

// UpdateStorageUsage upserts the gauge for a provider. The second call
// for the same provider wins, and the health status resets to healthy
// until the next probe sweep overrides it.
func (t *PostgresUsageTracker) UpdateStorageUsage(ctx context.Context, pt interfaces.ProviderType, usedMB, totalMB float64) error {
	query := `
		INSERT INTO storage_usage (provider_type, used_space_mb, total_space_mb, last_updated, health_status)
		VALUES ($1, $2, $3, now(), 'healthy')
		ON CONFLICT (provider_type)
		DO UPDATE SET
			used_space_mb = EXCLUDED.used_space_mb,
			total_space_mb = EXCLUDED.total_space_mb,
			last_updated = now(),
			health_status = 'healthy'
	`
	if _, err := t.db.ExecContext(ctx, query, pt, usedMB, totalMB); err != nil {
		return fmt.Errorf("failed to upsert storage usage: %w", err)
	}
	return nil
}

// GetStorageUsage returns all gauges ordered by provider type.
func (t *PostgresUsageTracker) GetStorageUsage(ctx context.Context) ([]interfaces.StorageUsage, error) {
	query := `
		SELECT provider_type, used_space_mb, total_space_mb, last_updated, health_status
		FROM storage_usage
		ORDER BY provider_type
	`
	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select storage usage: %w", err)
	}
	defer rows.Close()

	result := []interfaces.StorageUsage{}
	for rows.Next() {
		var u interfaces.StorageUsage
		if err := rows.Scan(&u.ProviderType, &u.UsedSpaceMB, &u.TotalSpaceMB, &u.LastUpdated, &u.HealthStatus); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetHealthStatus records the probe-derived health of a provider without
// touching the capacity figures. Providers without a usage row get one.
func (t *PostgresUsageTracker) SetHealthStatus(ctx context.Context, pt interfaces.ProviderType, status interfaces.HealthStatus) error {
	query := `
		INSERT INTO storage_usage (provider_type, last_updated, health_status)
		VALUES ($1, now(), $2)
		ON CONFLICT (provider_type)
		DO UPDATE SET health_status = EXCLUDED.health_status, last_updated = now()
	`
	if _, err := t.db.ExecContext(ctx, query, pt, status); err != nil {
		return fmt.Errorf("failed to set health status: %w", err)
	}
	return nil
}

// RecomputeUsage derives used space per provider from the sum of known
// FileLocation sizes in cloud_files, replacing externally supplied
// estimates. Total space figures are left untouched.
func (t *PostgresUsageTracker) RecomputeUsage(ctx context.Context) error {
	query := `
		INSERT INTO storage_usage (provider_type, used_space_mb, last_updated)
		SELECT file_location->>'provider',
		       SUM((file_location->>'size')::bigint) / 1048576.0,
		       now()
		FROM cloud_files
		GROUP BY file_location->>'provider'
		ON CONFLICT (provider_type)
		DO UPDATE SET
			used_space_mb = EXCLUDED.used_space_mb,
			last_updated = now()
	`
	if _, err := t.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to recompute storage usage: %w", err)
	}
	return nil
}
