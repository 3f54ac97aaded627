package cron

import (
	"context"
	"fmt"
	"time"

	"bridge/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker triggers Jobs through asynq: the scheduler enqueues periodic tasks in redis,
// and the server runs them on whichever instance dequeues first.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

func NewWorker(redisOpt asynq.RedisClientOpt, jobs *Jobs, dispatchSpec, scanSpec string, logger *zap.Logger) (*Worker, error) {
	sugar := logger.Sugar()

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			// ticks must not overlap on one instance
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: sugar,
		},
	)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   sugar,
	})
	dispatchTask, dispatchOpts := tasks.NewDispatchTask()
	if _, err := scheduler.Register(dispatchSpec, dispatchTask, dispatchOpts...); err != nil {
		return nil, fmt.Errorf("invalid dispatch schedule %q: %w", dispatchSpec, err)
	}
	scanTask, scanOpts := tasks.NewOverdueScanTask()
	if _, err := scheduler.Register(scanSpec, scanTask, scanOpts...); err != nil {
		return nil, fmt.Errorf("invalid overdue scan schedule %q: %w", scanSpec, err)
	}

	return &Worker{
		server:    srv,
		scheduler: scheduler,
		mux:       newServeMux(jobs),
		logger:    logger,
	}, nil
}

func newServeMux(jobs *Jobs) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDispatchReminders, func(ctx context.Context, _ *asynq.Task) error {
		return jobs.Dispatch(ctx)
	})
	mux.HandleFunc(tasks.TypeScanOverdueRentals, func(ctx context.Context, _ *asynq.Task) error {
		return jobs.ScanOverdueRentals(ctx)
	})
	return mux
}

// Start brings up the server and the scheduler, retrying the server start with a growing delay.
func (w *Worker) Start(ctx context.Context) error {
	const maxAttempts = 5

	for attempts := 1; ; attempts++ {
		err := w.server.Start(w.mux)
		if err == nil {
			break
		}
		w.logger.Warn("failed to start asynq server",
			zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
		if attempts == maxAttempts {
			return fmt.Errorf("asynq server did not start after %d attempts: %w", maxAttempts, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempts*2) * time.Second):
		}
	}

	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("failed to start asynq scheduler: %w", err)
	}
	w.logger.Info("asynq worker started")
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}
