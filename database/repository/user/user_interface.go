package userRepo

import "context"

// TokenSource exposes the two places a user's push token can live.
// Both lookups return "" with a nil error when the document or field is missing.
type TokenSource interface {
	// ProfileToken reads fcmToken from the user's profile document.
	ProfileToken(ctx context.Context, userID string) (string, error)
	// FallbackToken reads token from the user's fcm_tokens record.
	FallbackToken(ctx context.Context, userID string) (string, error)
}
