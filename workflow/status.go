package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// Status is a submission's position in the editorial workflow.
type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusPublished   Status = "published"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusSubmitted, StatusUnderReview, StatusAccepted, StatusRejected, StatusPublished:
		return st, nil
	default:
		return "", fmt.Errorf("unknown submission status: %q", s)
	}
}

// transitions is the closed table of permitted status changes.
// Rejected and published are terminal.
var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview},
	StatusUnderReview: {StatusAccepted, StatusRejected},
	StatusAccepted:    {StatusPublished},
}

// CanTransition reports whether moving from one status to another is
// permitted by the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Service drives submission status changes through the transition table.
type Service struct {
	store interfaces.SubmissionStore
	log   *slog.Logger
}

// NewService creates a workflow service over the given store.
func NewService(store interfaces.SubmissionStore, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Transition moves a submission to the requested status. Invalid moves
// return ErrInvalidTransition and leave the stored status unchanged.
func (s *Service) Transition(ctx context.Context, submissionID string, to Status) error {
	current, err := s.store.GetStatus(ctx, submissionID)
	if err != nil {
		return err
	}

	from, err := ParseStatus(current)
	if err != nil {
		return fmt.Errorf("stored status is invalid: %w", err)
	}

	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", interfaces.ErrInvalidTransition, from, to)
	}

	if err := s.store.SetStatus(ctx, submissionID, string(to)); err != nil {
		return err
	}

	s.log.Info("Submission status changed",
		slog.String("submission_id", submissionID),
		slog.String("from", string(from)),
		slog.String("to", string(to)))
	return nil
}
