package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bridge/config"
	"bridge/cron"
	borrowRepo "bridge/database/repository/borrow"
	reminderRepo "bridge/database/repository/reminder"
	rentalRepo "bridge/database/repository/rental"
	userRepo "bridge/database/repository/user"
	"bridge/handlers"
	"bridge/middleware"
	"bridge/routes"
	"bridge/services/events"
	"bridge/services/notification"
	"bridge/services/recipient"
	"bridge/services/reminder"
	"bridge/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// backend is the store-specific half of the wiring.
type backend struct {
	reminders reminderRepo.Store
	tokens    userRepo.TokenSource
	rentals   rentalRepo.Source
	borrows   borrowRepo.Watcher
	ping      utils.HealthCheck
	close     func()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	logger, err := utils.InitializeLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("main: invalid reminder timezone", zap.Error(err))
	}

	// Firebase app: push delivery, and the store when running on Firestore.
	app, err := utils.FirebaseInit(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID)
	if err != nil {
		logger.Fatal("main: firebase init failed", zap.Error(err))
	}
	fcm, err := utils.MessagingClient(ctx, app)
	if err != nil {
		logger.Fatal("main: firebase messaging init failed", zap.Error(err))
	}
	pusher := notification.NewFCMPusher(fcm, cfg.PushRatePerSecond)

	var be backend
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		be, err = firestoreBackend(ctx, cfg, app)
	default:
		be, err = mongoBackend(ctx, cfg, logger)
	}
	if err != nil {
		logger.Fatal("main: store init failed", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer be.close()

	// services.
	resolver := recipient.NewResolver(be.tokens, logger)
	dispatcher := reminder.NewDispatcher(be.reminders, resolver, pusher, reminder.DispatcherConfig{
		DuePageSize:   cfg.DuePageSize,
		RetryPageSize: cfg.RetryPageSize,
		Location:      loc,
	}, logger)
	scanner := reminder.NewOverdueScanner(be.rentals, be.reminders, logger)
	borrowNotifier := events.NewBorrowRequestNotifier(resolver, pusher, logger)

	// redis: tick lease and health. A missing redis only costs the lease.
	checks := map[string]utils.HealthCheck{"store": be.ping}
	lockClient, err := utils.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisLockDB)
	if err != nil {
		logger.Warn("main: redis unavailable, running without tick lease", zap.Error(err))
		lockClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisLockDB})
	}
	defer lockClient.Close()
	lease := cron.NewRedisLease(lockClient, logger)
	checks["redis"] = func(ctx context.Context) error { return lockClient.Ping(ctx).Err() }

	jobs := cron.NewJobs(dispatcher, scanner, lease, cfg.TickLeaseTTL, logger)

	// periodic trigger.
	switch cfg.SchedulerMode {
	case config.SchedulerAsynq:
		worker, err := cron.NewWorker(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisQueueDB,
		}, jobs, cfg.DispatchSchedule, cfg.OverdueScanSchedule, logger)
		if err != nil {
			logger.Fatal("main: asynq worker init failed", zap.Error(err))
		}
		if err := worker.Start(ctx); err != nil {
			logger.Fatal("main: asynq worker failed to start", zap.Error(err))
		}
		defer worker.Shutdown()
	default:
		scheduler, err := cron.NewScheduler(jobs, cfg.DispatchSchedule, cfg.OverdueScanSchedule, logger)
		if err != nil {
			logger.Fatal("main: scheduler init failed", zap.Error(err))
		}
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}
	logger.Info("main: reminder trigger running",
		zap.String("mode", cfg.SchedulerMode),
		zap.String("dispatch", cfg.DispatchSchedule),
		zap.String("overdueScan", cfg.OverdueScanSchedule))

	// one-shot borrow request notifications, restarted if the watch drops.
	go borrowNotifier.Supervise(ctx, be.borrows)

	monitor := utils.NewHealthMonitor(checks, logger)
	monitor.Start(ctx, time.Minute)

	// admin HTTP surface.
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler(logger))
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.AdminRequestsPerMin, logger))

	reminderHandler := handlers.NewReminderHandler(be.reminders, dispatcher, logger)
	handlerBundle := &handlers.HandlerBundle{
		ListDueRemindersHandler: reminderHandler.ListDueRemindersHandler,
		DispatchHandler:         reminderHandler.DispatchHandler,
		HealthHandler:           handlers.HealthHandler(monitor),
	}
	routes.RegisterRoutes(router, handlerBundle, routes.Options{
		AllowOrigins: cfg.AdminCORSOrigins,
		AdminToken:   cfg.AdminToken,
	})

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
