package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitDB connects to MongoDB and verifies the connection with a ping.
// Batched reminder commits use multi-document transactions, so the deployment must be a replica set.
func InitDB(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// Collection names shared by both store backends.
const (
	RemindersCollection     = "reminders"
	NotificationsCollection = "notifications"
	UsersCollection         = "users"
	FCMTokensCollection     = "fcm_tokens"
	RentalsCollection       = "rental_requests"
	BorrowRequestCollection = "borrow_requests"
)
