package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// PostgresLocationRegistry implements interfaces.LocationRegistry over
// the cloud_files table. FileLocation records are stored as JSONB.
type PostgresLocationRegistry struct {
	db *sql.DB
}

// NewPostgresLocationRegistry constructs a registry bound to db.
func NewPostgresLocationRegistry(db *sql.DB) *PostgresLocationRegistry {
	return &PostgresLocationRegistry{db: db}
}

// SaveFileLocation persists a location and its entity association.
func (r *PostgresLocationRegistry) SaveFileLocation(ctx context.Context, loc *interfaces.FileLocation, entityType interfaces.EntityType, entityID string, isPrimary bool) error {
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("invalid file location: %w", err)
	}

	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to encode file location: %w", err)
	}

	query := `
		INSERT INTO cloud_files (file_id, entity_type, entity_id, file_location, is_primary)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, loc.ID, entityType, entityID, payload, isPrimary); err != nil {
		return fmt.Errorf("failed to save file location: %w", err)
	}
	return nil
}

// GetFileLocations returns all associations for an entity. An entity with
// no records yields an empty slice and no error.
func (r *PostgresLocationRegistry) GetFileLocations(ctx context.Context, entityType interfaces.EntityType, entityID string) ([]interfaces.CloudFile, error) {
	query := `
		SELECT file_id, entity_type, entity_id, file_location, is_primary, created_at, updated_at
		FROM cloud_files
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to select file locations: %w", err)
	}
	defer rows.Close()

	result := []interfaces.CloudFile{}
	for rows.Next() {
		var cf interfaces.CloudFile
		var payload []byte
		if err := rows.Scan(&cf.ID, &cf.EntityType, &cf.EntityID, &payload, &cf.IsPrimary, &cf.CreatedAt, &cf.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &cf.FileLocation); err != nil {
			return nil, fmt.Errorf("failed to decode file location: %w", err)
		}
		result = append(result, cf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetFileLocation looks up a location by file ID.
func (r *PostgresLocationRegistry) GetFileLocation(ctx context.Context, fileID string) (*interfaces.FileLocation, error) {
	query := `SELECT file_location FROM cloud_files WHERE file_id = $1`

	var payload []byte
	if err := r.db.QueryRowContext(ctx, query, fileID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select file location: %w", err)
	}

	var loc interfaces.FileLocation
	if err := json.Unmarshal(payload, &loc); err != nil {
		return nil, fmt.Errorf("failed to decode file location: %w", err)
	}
	return &loc, nil
}

// AppendBackupURL records a completed backup copy. Appending the same URL
// twice is a no-op, which keeps replication retries idempotent.
func (r *PostgresLocationRegistry) AppendBackupURL(ctx context.Context, fileID, url string) error {
	query := `
		UPDATE cloud_files
		SET file_location = jsonb_set(file_location, '{backupUrls}',
		        (file_location->'backupUrls') || to_jsonb($2::text)),
		    updated_at = now()
		WHERE file_id = $1
		  AND NOT (file_location->'backupUrls') @> to_jsonb($2::text)
	`
	if _, err := r.db.ExecContext(ctx, query, fileID, url); err != nil {
		return fmt.Errorf("failed to append backup url: %w", err)
	}
	return nil
}

// SetReplicationStatus updates the replication status of a file.
func (r *PostgresLocationRegistry) SetReplicationStatus(ctx context.Context, fileID string, status interfaces.ReplicationStatus) error {
	query := `
		UPDATE cloud_files
		SET file_location = jsonb_set(file_location, '{replicationStatus}', to_jsonb($2::text)),
		    updated_at = now()
		WHERE file_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, fileID, status)
	if err != nil {
		return fmt.Errorf("failed to set replication status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
