package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// claimVisibilityTimeout bounds how long a claimed job may sit in the
// running state before another worker can reclaim it. It must exceed the
// longest plausible single replication attempt.
const claimVisibilityTimeout = 10 * time.Minute

// PostgresReplicationQueue implements interfaces.ReplicationQueue over
// the replication_jobs table. Claiming uses FOR UPDATE SKIP LOCKED so
// multiple workers never process the same job.
type PostgresReplicationQueue struct {
	db *sql.DB
}

// NewPostgresReplicationQueue constructs a queue bound to db.
func NewPostgresReplicationQueue(db *sql.DB) *PostgresReplicationQueue {
	return &PostgresReplicationQueue{db: db}
}

// Enqueue adds a job in pending state.
func (q *PostgresReplicationQueue) Enqueue(ctx context.Context, job *interfaces.ReplicationJob) error {
	query := `
		INSERT INTO replication_jobs
			(id, file_id, filename, checksum, source_provider, source_url, target_provider, state, next_attempt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8)
	`
	_, err := q.db.ExecContext(ctx, query,
		job.ID, job.FileID, job.Filename, job.Checksum,
		job.SourceProvider, job.SourceURL, job.TargetProvider, job.NextAttempt)
	if err != nil {
		return fmt.Errorf("failed to enqueue replication job: %w", err)
	}
	return nil
}

// Due claims up to limit jobs whose next attempt is at or before now.
// Running jobs untouched for longer than claimVisibilityTimeout are
// treated as abandoned by a crashed worker and reclaimed.
func (q *PostgresReplicationQueue) Due(ctx context.Context, now time.Time, limit int) ([]interfaces.ReplicationJob, error) {
	query := `
		UPDATE replication_jobs
		SET state = 'running', updated_at = now()
		WHERE id IN (
			SELECT id FROM replication_jobs
			WHERE (state = 'pending' AND next_attempt <= $1)
			   OR (state = 'running' AND updated_at <= $3)
			ORDER BY next_attempt
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, file_id, filename, checksum, source_provider, source_url,
		          target_provider, state, attempts, last_error, next_attempt, created_at, updated_at
	`
	rows, err := q.db.QueryContext(ctx, query, now, limit, now.Add(-claimVisibilityTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to claim replication jobs: %w", err)
	}
	defer rows.Close()

	var jobs []interfaces.ReplicationJob
	for rows.Next() {
		var j interfaces.ReplicationJob
		if err := rows.Scan(&j.ID, &j.FileID, &j.Filename, &j.Checksum, &j.SourceProvider,
			&j.SourceURL, &j.TargetProvider, &j.State, &j.Attempts, &j.LastError,
			&j.NextAttempt, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkDone marks a job successfully completed.
func (q *PostgresReplicationQueue) MarkDone(ctx context.Context, jobID string) error {
	return q.setState(ctx, jobID, `
		UPDATE replication_jobs
		SET state = 'done', last_error = '', updated_at = now()
		WHERE id = $1
	`)
}

// Reschedule returns a job to pending with an incremented attempt count.
func (q *PostgresReplicationQueue) Reschedule(ctx context.Context, jobID string, lastErr string, nextAttempt time.Time) error {
	query := `
		UPDATE replication_jobs
		SET state = 'pending', attempts = attempts + 1, last_error = $2,
		    next_attempt = $3, updated_at = now()
		WHERE id = $1
	`
	res, err := q.db.ExecContext(ctx, query, jobID, lastErr, nextAttempt)
	if err != nil {
		return fmt.Errorf("failed to reschedule replication job: %w", err)
	}
	return oneRow(res)
}

// MarkFailed marks a job terminally failed.
func (q *PostgresReplicationQueue) MarkFailed(ctx context.Context, jobID string, lastErr string) error {
	query := `
		UPDATE replication_jobs
		SET state = 'failed', attempts = attempts + 1, last_error = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := q.db.ExecContext(ctx, query, jobID, lastErr)
	if err != nil {
		return fmt.Errorf("failed to mark replication job failed: %w", err)
	}
	return oneRow(res)
}

// JobsForFile returns all jobs, in any state, for one file.
func (q *PostgresReplicationQueue) JobsForFile(ctx context.Context, fileID string) ([]interfaces.ReplicationJob, error) {
	query := `
		SELECT id, file_id, filename, checksum, source_provider, source_url,
		       target_provider, state, attempts, last_error, next_attempt, created_at, updated_at
		FROM replication_jobs
		WHERE file_id = $1
		ORDER BY created_at
	`
	rows, err := q.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select replication jobs: %w", err)
	}
	defer rows.Close()

	jobs := []interfaces.ReplicationJob{}
	for rows.Next() {
		var j interfaces.ReplicationJob
		if err := rows.Scan(&j.ID, &j.FileID, &j.Filename, &j.Checksum, &j.SourceProvider,
			&j.SourceURL, &j.TargetProvider, &j.State, &j.Attempts, &j.LastError,
			&j.NextAttempt, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (q *PostgresReplicationQueue) setState(ctx context.Context, jobID, query string) error {
	res, err := q.db.ExecContext(ctx, query, jobID)
	if err != nil {
		return fmt.Errorf("failed to update replication job: %w", err)
	}
	return oneRow(res)
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
