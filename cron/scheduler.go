package cron

import (
	"context"
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler triggers Jobs in-process. A job still running when its next slot arrives is skipped.
type Scheduler struct {
	cron   *robfig.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler registers both jobs. Specs use five fields or descriptors such as "@every 1m", in UTC.
func NewScheduler(jobs *Jobs, dispatchSpec, scanSpec string, logger *zap.Logger) (*Scheduler, error) {
	clog := cronLogger{logger: logger.Sugar()}
	parser := robfig.NewParser(robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow | robfig.Descriptor)
	c := robfig.New(
		robfig.WithParser(parser),
		robfig.WithLocation(time.UTC),
		robfig.WithLogger(clog),
		robfig.WithChain(robfig.Recover(clog), robfig.SkipIfStillRunning(clog)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, ctx: ctx, cancel: cancel}

	if _, err := c.AddFunc(dispatchSpec, func() { _ = jobs.Dispatch(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid dispatch schedule %q: %w", dispatchSpec, err)
	}
	if _, err := c.AddFunc(scanSpec, func() { _ = jobs.ScanOverdueRentals(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid overdue scan schedule %q: %w", scanSpec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs, or until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.cancel()
}

// Entries is the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger adapts zap to robfig's logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
