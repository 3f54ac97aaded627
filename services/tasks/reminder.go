package tasks

import (
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeDispatchReminders  = "reminders:dispatch"
	TypeScanOverdueRentals = "rentals:scan-overdue"

	// a tick that has not finished by the next one is abandoned
	DispatchTimeout = 55 * time.Second
	ScanTimeout     = 10 * time.Minute
)

// NewDispatchTask is one reminder tick. It is never retried: the next tick picks up whatever it left.
// Unique keeps a slow scheduler from enqueueing a second tick while one is pending.
func NewDispatchTask() (*asynq.Task, []asynq.Option) {
	task := asynq.NewTask(TypeDispatchReminders, nil)
	opts := []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Timeout(DispatchTimeout),
		asynq.Unique(DispatchTimeout),
	}
	return task, opts
}

// NewOverdueScanTask is the daily overdue-rental scan. Reruns are harmless, so it retries.
func NewOverdueScanTask() (*asynq.Task, []asynq.Option) {
	task := asynq.NewTask(TypeScanOverdueRentals, nil)
	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(ScanTimeout),
	}
	return task, opts
}
