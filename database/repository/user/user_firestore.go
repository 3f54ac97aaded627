package userRepo

import (
	"context"
	"fmt"

	"bridge/database"
	"bridge/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreTokenSource implements TokenSource on Cloud Firestore.
type FirestoreTokenSource struct {
	client *firestore.Client
}

func NewFirestoreTokenSource(client *firestore.Client) *FirestoreTokenSource {
	return &FirestoreTokenSource{client: client}
}

func (s *FirestoreTokenSource) ProfileToken(ctx context.Context, userID string) (string, error) {
	var user models.UserProfile
	found, err := s.get(ctx, database.UsersCollection, userID, &user)
	if err != nil || !found {
		return "", err
	}
	return user.FCMToken, nil
}

func (s *FirestoreTokenSource) FallbackToken(ctx context.Context, userID string) (string, error) {
	var record models.FCMTokenRecord
	found, err := s.get(ctx, database.FCMTokensCollection, userID, &record)
	if err != nil || !found {
		return "", err
	}
	return record.Token, nil
}

func (s *FirestoreTokenSource) get(ctx context.Context, collection, id string, dst interface{}) (bool, error) {
	doc, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch %s/%s: %w", collection, id, err)
	}
	if err := doc.DataTo(dst); err != nil {
		return false, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	return true, nil
}
