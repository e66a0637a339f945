package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/MMN3003/telegram-commander/internal/watcher"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron          *cron.Cron
	watcher       *watcher.Watcher
	sweepInterval time.Duration
	logger        *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(w *watcher.Watcher, sweepInterval time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		watcher:       w,
		sweepInterval: sweepInterval,
		logger:        logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Periodic drop directory sweep, catches events the watcher missed
	spec := fmt.Sprintf("@every %s", s.sweepInterval)
	_, err := s.cron.AddFunc(spec, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to add sweep job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	s.logger.Debug("Running scheduled drop directory sweep")
	s.watcher.Sweep()
}
