// Package scheduler runs background jobs on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// TaskFn is the work of one job run
type TaskFn func(ctx context.Context) error

// Scheduler wraps a gocron scheduler. Runs of one job never overlap.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    logrus.FieldLogger
}

// New creates a stopped scheduler
func New(logger logrus.FieldLogger) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: scheduler,
		logger:    logger.WithField("component", "scheduler"),
	}, nil
}

// Start begins running the registered jobs
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// NewIntervalJob runs fn every interval, optionally once right away
func (s *Scheduler) NewIntervalJob(name string, fn TaskFn, interval time.Duration, startImmediately bool) error {
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}

	if startImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.taskWithRecover(fn, name)),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}

	return nil
}

func (s *Scheduler) taskWithRecover(fn TaskFn, jobName string) func(ctx context.Context) {
	logger := s.logger.WithField("job", jobName)

	return func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"panic":      r,
					"stacktrace": string(debug.Stack()),
				}).Error("panic recovered in scheduler job")
			}
		}()

		start := time.Now()
		logger.Debug("job start")

		if err := fn(ctx); err != nil {
			logger.WithError(err).Error("job failed")
			return
		}

		logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("job completed")
	}
}
