package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
)

// Scheduler drives the reminder service on a fixed interval in a background
// goroutine. One pass runs immediately on start so restarts do not delay
// overdue reminders by a full interval.
type Scheduler struct {
	reminders *services.ReminderService
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
}

func New(reminders *services.ReminderService, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.loop()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce()
	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopChan:
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	s.reminders.Run(ctx, time.Now().UTC())
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
}
