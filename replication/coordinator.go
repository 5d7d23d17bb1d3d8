package replication

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/metrics"
)

// File is a binary payload handed to the coordinator for storage.
type File struct {
	Name string
	Data []byte
}

// CoordinatorConfig tunes upload and replication behavior.
type CoordinatorConfig struct {
	// ReplicationFactor is the number of backup providers each upload is
	// replicated to, in addition to the primary.
	ReplicationFactor int

	// UploadTimeout bounds the synchronous primary upload. A hung
	// provider call fails with a typed UploadError instead of hanging
	// the caller.
	UploadTimeout time.Duration
}

// DefaultCoordinatorConfig returns the production defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		ReplicationFactor: 2,
		UploadTimeout:     60 * time.Second,
	}
}

// Coordinator uploads a file to its primary provider synchronously and
// schedules durable backup replication jobs for the rest.
type Coordinator struct {
	factory   interfaces.ConnectorFactory
	locations interfaces.LocationRegistry
	queue     interfaces.ReplicationQueue
	cfg       CoordinatorConfig
	log       *slog.Logger
}

// NewCoordinator creates a coordinator with the given collaborators.
func NewCoordinator(factory interfaces.ConnectorFactory, locations interfaces.LocationRegistry, queue interfaces.ReplicationQueue, cfg CoordinatorConfig, log *slog.Logger) *Coordinator {
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = DefaultCoordinatorConfig().ReplicationFactor
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultCoordinatorConfig().UploadTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		factory:   factory,
		locations: locations,
		queue:     queue,
		cfg:       cfg,
		log:       log,
	}
}

// UploadWithRedundancy uploads the file to the primary provider, blocks
// until that single upload succeeds or fails, persists the resulting
// FileLocation under the owning entity, and enqueues one replication job
// per backup target.
//
// On success the returned location's BackupURLs equals [primaryURL] and
// its replication status is pending until workers land backup copies.
// If the primary upload fails, nothing is persisted and no backups are
// attempted.
func (c *Coordinator) UploadWithRedundancy(ctx context.Context, file File, primary interfaces.ProviderType, entityType interfaces.EntityType, entityID string, isPrimary bool) (*interfaces.FileLocation, error) {
	start := time.Now()

	connector, err := c.factory.ConnectorFor(primary)
	if err != nil {
		return nil, &interfaces.UploadError{Provider: primary, Err: err}
	}

	fileID := interfaces.NewFileID()
	objectName := fileID + "_" + file.Name

	uploadCtx, cancel := context.WithTimeout(ctx, c.cfg.UploadTimeout)
	defer cancel()

	primaryURL, err := connector.Upload(uploadCtx, objectName, file.Data)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(string(primary), "error").Inc()
		c.log.Error("Primary upload failed",
			slog.String("provider", string(primary)),
			slog.String("filename", file.Name),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, &interfaces.UploadError{Provider: primary, Err: err}
	}
	metrics.UploadsTotal.WithLabelValues(string(primary), "ok").Inc()

	targets := c.backupTargets(primary)

	now := time.Now().UTC()
	loc := &interfaces.FileLocation{
		ID:                fileID,
		Filename:          file.Name,
		FileType:          interfaces.FileTypeOf(file.Name),
		Size:              int64(len(file.Data)),
		Provider:          primary,
		URL:               primaryURL,
		BackupURLs:        []string{primaryURL},
		Checksum:          interfaces.ComputeChecksum(file.Data),
		UploadDate:        now,
		LastVerified:      now,
		ReplicationStatus: interfaces.ReplicationPending,
	}
	if len(targets) == 0 {
		loc.ReplicationStatus = interfaces.ReplicationComplete
	}

	if err := c.locations.SaveFileLocation(ctx, loc, entityType, entityID, isPrimary); err != nil {
		return nil, fmt.Errorf("failed to persist file location: %w", err)
	}

	for _, target := range targets {
		job := &interfaces.ReplicationJob{
			ID:             uuid.NewString(),
			FileID:         fileID,
			Filename:       objectName,
			Checksum:       loc.Checksum,
			SourceProvider: primary,
			SourceURL:      primaryURL,
			TargetProvider: target.Type(),
			NextAttempt:    now,
		}
		if err := c.queue.Enqueue(ctx, job); err != nil {
			// A lost job costs one backup copy, not the upload.
			c.log.Warn("Failed to enqueue replication job",
				slog.String("file_id", fileID),
				slog.String("target", string(target.Type())),
				"err", err)
		}
	}

	c.log.Info("Stored file with redundancy",
		slog.String("file_id", fileID),
		slog.String("provider", string(primary)),
		slog.Int("backup_targets", len(targets)),
		slog.Duration("duration", time.Since(start)))

	return loc, nil
}

// backupTargets selects up to ReplicationFactor upload-capable providers,
// excluding the primary, in catalog order.
func (c *Coordinator) backupTargets(primary interfaces.ProviderType) []interfaces.ProviderConnector {
	var targets []interfaces.ProviderConnector
	for _, connector := range c.factory.UploadTargets() {
		if connector.Type() == primary {
			continue
		}
		targets = append(targets, connector)
		if len(targets) == c.cfg.ReplicationFactor {
			break
		}
	}
	return targets
}

// ReplicationState summarizes backup progress for one file.
type ReplicationState struct {
	Status interfaces.ReplicationStatus `json:"status"`
	Jobs   []interfaces.ReplicationJob  `json:"jobs"`
}

// Status reports the stored replication status and the per-target jobs
// for a file.
func (c *Coordinator) Status(ctx context.Context, fileID string) (*ReplicationState, error) {
	loc, err := c.locations.GetFileLocation(ctx, fileID)
	if err != nil {
		return nil, err
	}
	jobs, err := c.queue.JobsForFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return &ReplicationState{Status: loc.ReplicationStatus, Jobs: jobs}, nil
}
