package cron

import (
	"context"
	"time"

	"bridge/services/reminder"

	"go.uber.org/zap"
)

// DispatchLeaseKey guards the reminder tick across instances.
const DispatchLeaseKey = "reminders:tick"

type TickRunner interface {
	Tick(ctx context.Context) (*reminder.TickReport, error)
}

type Scanner interface {
	Scan(ctx context.Context) (int, error)
}

// Jobs are the periodic units of work, shared by the in-process and the asynq triggers.
type Jobs struct {
	dispatcher TickRunner
	scanner    Scanner
	lease      Lease
	leaseTTL   time.Duration
	logger     *zap.Logger
}

// NewJobs wires the periodic work. lease may be nil, and leaseTTL <= 0 disables it.
func NewJobs(dispatcher TickRunner, scanner Scanner, lease Lease, leaseTTL time.Duration, logger *zap.Logger) *Jobs {
	return &Jobs{
		dispatcher: dispatcher,
		scanner:    scanner,
		lease:      lease,
		leaseTTL:   leaseTTL,
		logger:     logger,
	}
}

// Dispatch runs one reminder tick unless another instance holds the lease.
// Lease errors do not block the tick; overlapping ticks are safe, only wasteful.
func (j *Jobs) Dispatch(ctx context.Context) error {
	if j.lease != nil && j.leaseTTL > 0 {
		release, ok, err := j.lease.Acquire(ctx, DispatchLeaseKey, j.leaseTTL)
		switch {
		case err != nil:
			j.logger.Warn("tick lease unavailable, dispatching anyway", zap.Error(err))
		case !ok:
			j.logger.Info("reminder tick already running elsewhere, skipping")
			return nil
		default:
			defer release()
		}
	}

	if _, err := j.dispatcher.Tick(ctx); err != nil {
		j.logger.Error("reminder tick failed", zap.Error(err))
		return err
	}
	return nil
}

// ScanOverdueRentals seeds reminders for overdue rentals.
func (j *Jobs) ScanOverdueRentals(ctx context.Context) error {
	created, err := j.scanner.Scan(ctx)
	if err != nil {
		j.logger.Error("overdue rental scan failed", zap.Error(err))
		return err
	}
	j.logger.Debug("overdue rental scan finished", zap.Int("created", created))
	return nil
}
