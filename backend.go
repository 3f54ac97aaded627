package main

import (
	"context"
	"time"

	"bridge/config"
	"bridge/database"
	borrowRepo "bridge/database/repository/borrow"
	reminderRepo "bridge/database/repository/reminder"
	rentalRepo "bridge/database/repository/rental"
	userRepo "bridge/database/repository/user"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
)

func mongoBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (backend, error) {
	client, err := database.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return backend{}, err
	}
	db := client.Database(cfg.DatabaseName)

	return backend{
		reminders: reminderRepo.NewMongoReminderStore(db, logger),
		tokens:    userRepo.NewMongoTokenSource(db),
		rentals:   rentalRepo.NewMongoRentalSource(db),
		borrows:   borrowRepo.NewMongoWatcher(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logger.Warn("main: mongo disconnect failed", zap.Error(err))
			}
		},
	}, nil
}

func firestoreBackend(ctx context.Context, _ *config.Config, app *firebase.App) (backend, error) {
	client, err := database.InitFirestore(ctx, app)
	if err != nil {
		return backend{}, err
	}

	return backend{
		reminders: reminderRepo.NewFirestoreReminderStore(client),
		tokens:    userRepo.NewFirestoreTokenSource(client),
		rentals:   rentalRepo.NewFirestoreRentalSource(client),
		borrows:   borrowRepo.NewFirestoreWatcher(client),
		ping: func(ctx context.Context) error {
			_, err := client.Collection(database.RemindersCollection).Limit(1).Documents(ctx).GetAll()
			return err
		},
		close: func() { _ = client.Close() },
	}, nil
}
