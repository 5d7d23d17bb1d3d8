package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// InMemory is a process-local implementation of LocationRegistry,
// UsageTracker, ReplicationQueue, and SubmissionStore. It backs tests
// and single-node development setups without Postgres.
type InMemory struct {
	mu          sync.Mutex
	files       []interfaces.CloudFile
	usage       map[interfaces.ProviderType]interfaces.StorageUsage
	jobs        map[string]*interfaces.ReplicationJob
	submissions map[string]string
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		usage:       make(map[interfaces.ProviderType]interfaces.StorageUsage),
		jobs:        make(map[string]*interfaces.ReplicationJob),
		submissions: make(map[string]string),
	}
}

// SaveFileLocation persists a location and its entity association.
func (m *InMemory) SaveFileLocation(ctx context.Context, loc *interfaces.FileLocation, entityType interfaces.EntityType, entityID string, isPrimary bool) error {
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("invalid file location: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	copied := *loc
	copied.BackupURLs = append([]string(nil), loc.BackupURLs...)
	m.files = append(m.files, interfaces.CloudFile{
		ID:           loc.ID,
		EntityType:   entityType,
		EntityID:     entityID,
		FileLocation: copied,
		IsPrimary:    isPrimary,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return nil
}

// GetFileLocations returns all associations for an entity.
func (m *InMemory) GetFileLocations(ctx context.Context, entityType interfaces.EntityType, entityID string) ([]interfaces.CloudFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []interfaces.CloudFile{}
	for _, cf := range m.files {
		if cf.EntityType == entityType && cf.EntityID == entityID {
			result = append(result, cf)
		}
	}
	return result, nil
}

// GetFileLocation looks up a location by file ID.
func (m *InMemory) GetFileLocation(ctx context.Context, fileID string) (*interfaces.FileLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.files {
		if m.files[i].FileLocation.ID == fileID {
			loc := m.files[i].FileLocation
			loc.BackupURLs = append([]string(nil), loc.BackupURLs...)
			return &loc, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

// AppendBackupURL records a completed backup copy, ignoring duplicates.
func (m *InMemory) AppendBackupURL(ctx context.Context, fileID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.files {
		if m.files[i].FileLocation.ID != fileID {
			continue
		}
		for _, existing := range m.files[i].FileLocation.BackupURLs {
			if existing == url {
				return nil
			}
		}
		m.files[i].FileLocation.BackupURLs = append(m.files[i].FileLocation.BackupURLs, url)
		m.files[i].UpdatedAt = time.Now()
		return nil
	}
	return interfaces.ErrNotFound
}

// SetReplicationStatus updates the replication status of a file.
func (m *InMemory) SetReplicationStatus(ctx context.Context, fileID string, status interfaces.ReplicationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.files {
		if m.files[i].FileLocation.ID == fileID {
			m.files[i].FileLocation.ReplicationStatus = status
			m.files[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return interfaces.ErrNotFound
}

// UpdateStorageUsage upserts the gauge for a provider; the second call
// for the same provider wins and health resets to healthy.
func (m *InMemory) UpdateStorageUsage(ctx context.Context, pt interfaces.ProviderType, usedMB, totalMB float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage[pt] = interfaces.StorageUsage{
		ProviderType: pt,
		UsedSpaceMB:  usedMB,
		TotalSpaceMB: totalMB,
		LastUpdated:  time.Now(),
		HealthStatus: interfaces.HealthHealthy,
	}
	return nil
}

// GetStorageUsage returns all gauges ordered by provider type.
func (m *InMemory) GetStorageUsage(ctx context.Context) ([]interfaces.StorageUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]interfaces.StorageUsage, 0, len(m.usage))
	for _, u := range m.usage {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProviderType < result[j].ProviderType
	})
	return result, nil
}

// SetHealthStatus records probe-derived health without touching figures.
func (m *InMemory) SetHealthStatus(ctx context.Context, pt interfaces.ProviderType, status interfaces.HealthStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.usage[pt]
	u.ProviderType = pt
	u.HealthStatus = status
	u.LastUpdated = time.Now()
	m.usage[pt] = u
	return nil
}

// RecomputeUsage derives used space per provider from stored locations.
func (m *InMemory) RecomputeUsage(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sums := make(map[interfaces.ProviderType]int64)
	for _, cf := range m.files {
		sums[cf.FileLocation.Provider] += cf.FileLocation.Size
	}
	for pt, total := range sums {
		u := m.usage[pt]
		u.ProviderType = pt
		u.UsedSpaceMB = float64(total) / (1 << 20)
		u.LastUpdated = time.Now()
		if u.HealthStatus == "" {
			u.HealthStatus = interfaces.HealthHealthy
		}
		m.usage[pt] = u
	}
	return nil
}

// Enqueue adds a job in pending state.
func (m *InMemory) Enqueue(ctx context.Context, job *interfaces.ReplicationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	copied := *job
	copied.State = interfaces.JobPending
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = now
	}
	copied.UpdatedAt = now
	m.jobs[copied.ID] = &copied
	return nil
}

// Due claims up to limit pending jobs whose next attempt is due. Running
// jobs untouched for longer than claimVisibilityTimeout are reclaimed.
func (m *InMemory) Due(ctx context.Context, now time.Time, limit int) ([]interfaces.ReplicationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stale := now.Add(-claimVisibilityTimeout)
	var due []*interfaces.ReplicationJob
	for _, j := range m.jobs {
		switch {
		case j.State == interfaces.JobPending && !j.NextAttempt.After(now):
			due = append(due, j)
		case j.State == interfaces.JobRunning && !j.UpdatedAt.After(stale):
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextAttempt.Before(due[j].NextAttempt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]interfaces.ReplicationJob, 0, len(due))
	for _, j := range due {
		j.State = interfaces.JobRunning
		j.UpdatedAt = now
		claimed = append(claimed, *j)
	}
	return claimed, nil
}

// MarkDone marks a job successfully completed.
func (m *InMemory) MarkDone(ctx context.Context, jobID string) error {
	return m.updateJob(jobID, func(j *interfaces.ReplicationJob) {
		j.State = interfaces.JobDone
		j.LastError = ""
	})
}

// Reschedule returns a job to pending with an incremented attempt count.
func (m *InMemory) Reschedule(ctx context.Context, jobID string, lastErr string, nextAttempt time.Time) error {
	return m.updateJob(jobID, func(j *interfaces.ReplicationJob) {
		j.State = interfaces.JobPending
		j.Attempts++
		j.LastError = lastErr
		j.NextAttempt = nextAttempt
	})
}

// MarkFailed marks a job terminally failed.
func (m *InMemory) MarkFailed(ctx context.Context, jobID string, lastErr string) error {
	return m.updateJob(jobID, func(j *interfaces.ReplicationJob) {
		j.State = interfaces.JobFailed
		j.Attempts++
		j.LastError = lastErr
	})
}

// JobsForFile returns all jobs for one file, oldest first.
func (m *InMemory) JobsForFile(ctx context.Context, fileID string) ([]interfaces.ReplicationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []interfaces.ReplicationJob{}
	for _, j := range m.jobs {
		if j.FileID == fileID {
			result = append(result, *j)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *InMemory) updateJob(jobID string, update func(*interfaces.ReplicationJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return interfaces.ErrNotFound
	}
	update(j)
	j.UpdatedAt = time.Now()
	return nil
}

// GetStatus returns the current status for a submission.
func (m *InMemory) GetStatus(ctx context.Context, submissionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.submissions[submissionID]
	if !ok {
		return "", interfaces.ErrNotFound
	}
	return status, nil
}

// SetStatus writes the status for a submission.
func (m *InMemory) SetStatus(ctx context.Context, submissionID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submissions[submissionID] = status
	return nil
}
