package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// ReloadFunc performs one full reload. It must not panic on upstream failure.
type ReloadFunc func(ctx context.Context)

// Scheduler periodically reloads the fleet and wind field.
type Scheduler struct {
	scheduler *gocron.Scheduler
	reload    ReloadFunc
	schedule  string
	logger    *slog.Logger
}

// New creates a new Scheduler. An empty schedule disables it.
func New(schedule string, reload ReloadFunc, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		reload:    reload,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start schedules the reload job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("scheduler: no reload schedule configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Cron(s.schedule).Do(func() {
		s.logger.Info("scheduler: running reload job")
		start := time.Now()
		s.reload(context.Background())
		s.logger.Info("scheduler: completed reload job", "duration", time.Since(start))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
