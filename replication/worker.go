package replication

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/metrics"
)

// WorkerConfig tunes the background replication worker.
type WorkerConfig struct {
	// PollInterval is how often the worker claims due jobs.
	PollInterval time.Duration

	// BatchSize caps jobs claimed per poll.
	BatchSize int

	// MaxAttempts is the total number of attempts before a job is marked
	// terminally failed.
	MaxAttempts int

	// BaseBackoff is the first retry delay; delays double per attempt.
	BaseBackoff time.Duration
}

// DefaultWorkerConfig returns the production defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: 15 * time.Second,
		BatchSize:    10,
		MaxAttempts:  5,
		BaseBackoff:  30 * time.Second,
	}
}

// Worker drains the replication queue: for each due job it re-fetches the
// payload from the primary location, verifies the checksum, uploads to the
// target provider and records the backup URL. Failed attempts are
// rescheduled with exponential backoff until MaxAttempts is exhausted.
type Worker struct {
	factory   interfaces.ConnectorFactory
	locations interfaces.LocationRegistry
	queue     interfaces.ReplicationQueue
	cfg       WorkerConfig
	log       *slog.Logger
}

// NewWorker creates a replication worker.
func NewWorker(factory interfaces.ConnectorFactory, locations interfaces.LocationRegistry, queue interfaces.ReplicationQueue, cfg WorkerConfig, log *slog.Logger) *Worker {
	def := DefaultWorkerConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		factory:   factory,
		locations: locations,
		queue:     queue,
		cfg:       cfg,
		log:       log,
	}
}

// Run polls for due jobs until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.log.Info("Replication worker started", slog.Duration("poll_interval", w.cfg.PollInterval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Replication worker stopped")
			return
		case <-ticker.C:
			w.ProcessDue(ctx)
		}
	}
}

// ProcessDue claims and processes one batch of due jobs. It returns the
// number of jobs processed, successful or not.
func (w *Worker) ProcessDue(ctx context.Context) int {
	jobs, err := w.queue.Due(ctx, time.Now().UTC(), w.cfg.BatchSize)
	if err != nil {
		w.log.Error("Failed to claim replication jobs", "err", err)
		return 0
	}
	for i := range jobs {
		w.process(ctx, &jobs[i])
	}
	return len(jobs)
}

func (w *Worker) process(ctx context.Context, job *interfaces.ReplicationJob) {
	err := w.replicate(ctx, job)
	if err == nil {
		if err := w.queue.MarkDone(ctx, job.ID); err != nil {
			w.log.Error("Failed to mark replication job done", slog.String("job_id", job.ID), "err", err)
		}
		metrics.ReplicationJobsTotal.WithLabelValues(string(job.TargetProvider), "ok").Inc()
		w.log.Info("Replicated backup copy",
			slog.String("file_id", job.FileID),
			slog.String("target", string(job.TargetProvider)),
			slog.Int("attempts", job.Attempts+1))
		w.refreshStatus(ctx, job.FileID)
		return
	}

	attempts := job.Attempts + 1
	if attempts >= w.cfg.MaxAttempts {
		if err := w.queue.MarkFailed(ctx, job.ID, err.Error()); err != nil {
			w.log.Error("Failed to mark replication job failed", slog.String("job_id", job.ID), "err", err)
		}
		metrics.ReplicationJobsTotal.WithLabelValues(string(job.TargetProvider), "failed").Inc()
		w.log.Error("Replication job exhausted retries",
			slog.String("file_id", job.FileID),
			slog.String("target", string(job.TargetProvider)),
			slog.Int("attempts", attempts),
			"err", err)
	} else {
		next := time.Now().UTC().Add(w.backoff(attempts))
		if err := w.queue.Reschedule(ctx, job.ID, err.Error(), next); err != nil {
			w.log.Error("Failed to reschedule replication job", slog.String("job_id", job.ID), "err", err)
		}
		metrics.ReplicationJobsTotal.WithLabelValues(string(job.TargetProvider), "retry").Inc()
		w.log.Warn("Replication attempt failed, rescheduled",
			slog.String("file_id", job.FileID),
			slog.String("target", string(job.TargetProvider)),
			slog.Int("attempts", attempts),
			slog.Time("next_attempt", next),
			"err", err)
	}
	w.refreshStatus(ctx, job.FileID)
}

// replicate performs one fetch-verify-upload cycle. Transient transport
// errors are retried in-process a couple of times before the job goes back
// to the durable queue; a checksum mismatch aborts immediately since the
// source copy is corrupt.
func (w *Worker) replicate(ctx context.Context, job *interfaces.ReplicationJob) error {
	source, err := w.factory.ConnectorFor(job.SourceProvider)
	if err != nil {
		return err
	}
	target, err := w.factory.ConnectorFor(job.TargetProvider)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		data, err := source.Fetch(ctx, job.SourceURL)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("fetch from %s: %w", job.SourceProvider, err))
		}
		if sum := interfaces.ComputeChecksum(data); sum != job.Checksum {
			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", job.FileID, sum, job.Checksum)
		}
		url, err := target.Upload(ctx, job.Filename, data)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("upload to %s: %w", job.TargetProvider, err))
		}
		if err := w.locations.AppendBackupURL(ctx, job.FileID, url); err != nil {
			return fmt.Errorf("record backup url: %w", err)
		}
		return nil
	})
}

// backoff returns the durable-queue delay before the given attempt number,
// doubling from BaseBackoff.
func (w *Worker) backoff(attempts int) time.Duration {
	d := w.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
	}
	return d
}

// refreshStatus recomputes the file's replication status from its job set.
func (w *Worker) refreshStatus(ctx context.Context, fileID string) {
	jobs, err := w.queue.JobsForFile(ctx, fileID)
	if err != nil {
		w.log.Error("Failed to load jobs for status refresh", slog.String("file_id", fileID), "err", err)
		return
	}
	status := StatusFromJobs(jobs)
	if err := w.locations.SetReplicationStatus(ctx, fileID, status); err != nil {
		w.log.Error("Failed to update replication status", slog.String("file_id", fileID), "err", err)
	}
}

// StatusFromJobs derives the aggregate replication status of a file from
// its job set. With no jobs the file has nothing to replicate and counts
// as complete.
func StatusFromJobs(jobs []interfaces.ReplicationJob) interfaces.ReplicationStatus {
	if len(jobs) == 0 {
		return interfaces.ReplicationComplete
	}
	var done, failed int
	for _, j := range jobs {
		switch j.State {
		case interfaces.JobDone:
			done++
		case interfaces.JobFailed:
			failed++
		}
	}
	switch {
	case done == len(jobs):
		return interfaces.ReplicationComplete
	case failed == len(jobs):
		return interfaces.ReplicationFailed
	case done > 0:
		return interfaces.ReplicationPartial
	case failed > 0 && done+failed == len(jobs):
		return interfaces.ReplicationFailed
	default:
		return interfaces.ReplicationPending
	}
}
