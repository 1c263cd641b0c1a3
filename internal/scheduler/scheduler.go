package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Refresher is the part of the exchange service the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler periodically refreshes the cached latest quote so page loads rarely wait on the provider.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	log       *zap.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, service Refresher, log *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
// A non-positive interval disables the job.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("scheduler: refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.service.Refresh(ctx); err != nil {
		s.log.Warn("scheduler: quote refresh failed", zap.Error(err))
		return
	}
	s.log.Debug("scheduler: quote refreshed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
