package interfaces

import (
	"context"
	"time"
)

// LocationRegistry persists FileLocation records keyed by owning entity.
type LocationRegistry interface {
	// SaveFileLocation persists a location and its entity association.
	SaveFileLocation(ctx context.Context, loc *FileLocation, entityType EntityType, entityID string, isPrimary bool) error

	// GetFileLocations returns all associations for an entity. An entity
	// with no records yields an empty slice and no error.
	GetFileLocations(ctx context.Context, entityType EntityType, entityID string) ([]CloudFile, error)

	// GetFileLocation looks up a location by file ID.
	// Returns ErrNotFound when no record exists.
	GetFileLocation(ctx context.Context, fileID string) (*FileLocation, error)

	// AppendBackupURL records a completed backup copy for a file.
	AppendBackupURL(ctx context.Context, fileID, url string) error

	// SetReplicationStatus updates the replication status of a file.
	SetReplicationStatus(ctx context.Context, fileID string, status ReplicationStatus) error
}

// UsageTracker persists per-provider capacity figures.
type UsageTracker interface {
	// UpdateStorageUsage upserts the gauge for a provider. A second call
	// for the same provider overwrites prior figures and resets the
	// health status to healthy.
	UpdateStorageUsage(ctx context.Context, pt ProviderType, usedMB, totalMB float64) error

	// GetStorageUsage returns all gauges ordered by provider type.
	GetStorageUsage(ctx context.Context) ([]StorageUsage, error)

	// SetHealthStatus records the probe-derived health of a provider
	// without touching the capacity figures.
	SetHealthStatus(ctx context.Context, pt ProviderType, status HealthStatus) error

	// RecomputeUsage derives used space per provider from the sum of
	// known FileLocation sizes, replacing externally supplied estimates.
	RecomputeUsage(ctx context.Context) error
}

// ReplicationQueue is the durable queue of backup replication jobs.
type ReplicationQueue interface {
	// Enqueue adds a job in pending state.
	Enqueue(ctx context.Context, job *ReplicationJob) error

	// Due claims up to limit jobs whose next attempt is at or before now,
	// marking them running.
	Due(ctx context.Context, now time.Time, limit int) ([]ReplicationJob, error)

	// MarkDone marks a job successfully completed.
	MarkDone(ctx context.Context, jobID string) error

	// Reschedule returns a job to pending with an incremented attempt
	// count and a new next-attempt time.
	Reschedule(ctx context.Context, jobID string, lastErr string, nextAttempt time.Time) error

	// MarkFailed marks a job terminally failed.
	MarkFailed(ctx context.Context, jobID string, lastErr string) error

	// JobsForFile returns all jobs, in any state, for one file.
	JobsForFile(ctx context.Context, fileID string) ([]ReplicationJob, error)
}

// SubmissionStore reads and writes submission workflow state.
type SubmissionStore interface {
	// GetStatus returns the current status string for a submission.
	// Returns ErrNotFound when the submission does not exist.
	GetStatus(ctx context.Context, submissionID string) (string, error)

	// SetStatus writes the status for a submission. Callers go through
	// the workflow service, which enforces the transition table.
	SetStatus(ctx context.Context, submissionID, status string) error
}
