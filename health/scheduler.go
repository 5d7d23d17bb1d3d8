package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// SchedulerConfig sets the periodic maintenance intervals.
type SchedulerConfig struct {
	// HealthInterval is how often providers are probed and their health
	// status persisted.
	HealthInterval time.Duration

	// UsageInterval is how often per-provider usage is recomputed from
	// stored file sizes.
	UsageInterval time.Duration
}

// DefaultSchedulerConfig returns the production defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		HealthInterval: 5 * time.Minute,
		UsageInterval:  30 * time.Minute,
	}
}

// Scheduler runs periodic health sweeps and usage recomputation.
type Scheduler struct {
	monitor   *Monitor
	usage     interfaces.UsageTracker
	scheduler *gocron.Scheduler
	cfg       SchedulerConfig
	log       *slog.Logger
}

// NewScheduler creates a scheduler wired to the monitor and usage tracker.
func NewScheduler(monitor *Monitor, usage interfaces.UsageTracker, cfg SchedulerConfig, log *slog.Logger) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = def.HealthInterval
	}
	if cfg.UsageInterval <= 0 {
		cfg.UsageInterval = def.UsageInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		monitor:   monitor,
		usage:     usage,
		scheduler: gocron.NewScheduler(time.UTC),
		cfg:       cfg,
		log:       log,
	}
}

// Start registers the jobs and begins running them asynchronously.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.scheduler.Every(s.cfg.HealthInterval).Do(func() {
		s.RunHealthSweep(ctx)
	}); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(s.cfg.UsageInterval).Do(func() {
		s.RunUsageRecompute(ctx)
	}); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info("Maintenance scheduler started",
		slog.Duration("health_interval", s.cfg.HealthInterval),
		slog.Duration("usage_interval", s.cfg.UsageInterval))
	return nil
}

// Stop halts all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunHealthSweep probes every provider and persists the resulting health
// status on its usage row.
func (s *Scheduler) RunHealthSweep(ctx context.Context) {
	results := s.monitor.CheckStorageHealth(ctx)
	for pt, ok := range results {
		status := interfaces.HealthHealthy
		if !ok {
			status = interfaces.HealthError
		}
		if err := s.usage.SetHealthStatus(ctx, pt, status); err != nil {
			s.log.Error("Failed to persist provider health",
				slog.String("provider", string(pt)), "err", err)
		}
	}
}

// RunUsageRecompute refreshes per-provider used space from file sizes.
func (s *Scheduler) RunUsageRecompute(ctx context.Context) {
	if err := s.usage.RecomputeUsage(ctx); err != nil {
		s.log.Error("Failed to recompute storage usage", "err", err)
		return
	}
	s.log.Debug("Recomputed storage usage from file locations")
}
