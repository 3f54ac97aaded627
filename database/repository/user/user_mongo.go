package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bridge/database"
	"bridge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTokenSource implements TokenSource using MongoDB.
type MongoTokenSource struct {
	users  *mongo.Collection
	tokens *mongo.Collection
}

// NewMongoTokenSource creates a token source over the users and fcm_tokens collections.
func NewMongoTokenSource(db *mongo.Database) *MongoTokenSource {
	return &MongoTokenSource{
		users:  db.Collection(database.UsersCollection),
		tokens: db.Collection(database.FCMTokensCollection),
	}
}

// newContext creates a context with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

func (s *MongoTokenSource) ProfileToken(ctx context.Context, userID string) (string, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{"fcmToken": 1})

	var user models.UserProfile
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("failed to fetch user with id %s: %w", userID, err)
	}
	return user.FCMToken, nil
}

func (s *MongoTokenSource) FallbackToken(ctx context.Context, userID string) (string, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var record models.FCMTokenRecord
	if err := s.tokens.FindOne(ctx, bson.M{"_id": userID}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("failed to fetch fcm token record for %s: %w", userID, err)
	}
	return record.Token, nil
}
