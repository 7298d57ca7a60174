// Package scheduler runs jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"rentroll/internal/log"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs. A job still running when its next
// tick arrives skips that tick.
type Scheduler struct {
	cron *cron.Cron
	log  *log.Logger
	ctx  context.Context
}

// New creates a scheduler whose jobs run with ctx. Schedules use the
// standard five field syntax plus descriptors such as @hourly.
func New(ctx context.Context, logger *log.Logger) *Scheduler {
	logger = logger.WithComponent(log.ComponentScheduler)
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
		log: logger,
		ctx: ctx,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "*/5 * * * *"   - Every 5 minutes
//   - "@hourly"       - Every hour
//   - "0 9 * * 1-5"   - 9 AM weekdays
//   - "@every 30s"    - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}

	s.log.Info("Job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info("Running job immediately", "job", job.Name())
	return job.Run(s.ctx)
}

func (s *Scheduler) run(job Job) {
	if s.ctx.Err() != nil {
		return
	}
	s.log.Debug("Running job", "job", job.Name())
	if err := job.Run(s.ctx); err != nil {
		s.log.Error("Job failed", "job", job.Name(), "error", err)
		return
	}
	s.log.Debug("Job completed", "job", job.Name())
}

// cronLogger adapts log.Logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
