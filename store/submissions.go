package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// PostgresSubmissionStore implements interfaces.SubmissionStore over the
// submissions table.
type PostgresSubmissionStore struct {
	db *sql.DB
}

// NewPostgresSubmissionStore constructs a store bound to db.
func NewPostgresSubmissionStore(db *sql.DB) *PostgresSubmissionStore {
	return &PostgresSubmissionStore{db: db}
}

// GetStatus returns the current status for a submission.
func (s *PostgresSubmissionStore) GetStatus(ctx context.Context, submissionID string) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM submissions WHERE id = $1`, submissionID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", interfaces.ErrNotFound
		}
		return "", fmt.Errorf("failed to select submission status: %w", err)
	}
	return status, nil
}

// SetStatus writes the status for a submission.
func (s *PostgresSubmissionStore) SetStatus(ctx context.Context, submissionID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET status = $2, updated_at = now() WHERE id = $1`,
		submissionID, status)
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	return oneRow(res)
}
