package recipient

import (
	"context"

	userRepo "bridge/database/repository/user"

	"go.uber.org/zap"
)

// Resolver finds the push token for a user.
type Resolver struct {
	tokens userRepo.TokenSource
	logger *zap.Logger
}

func NewResolver(tokens userRepo.TokenSource, logger *zap.Logger) *Resolver {
	return &Resolver{tokens: tokens, logger: logger}
}

// Resolve returns the profile token, falling back to the fcm_tokens record.
// Lookup errors are logged and reported as absent.
func (r *Resolver) Resolve(ctx context.Context, userID string) (string, bool) {
	if userID == "" {
		return "", false
	}

	token, err := r.tokens.ProfileToken(ctx, userID)
	if err != nil {
		r.logger.Warn("token lookup failed", zap.String("userId", userID), zap.String("source", "profile"), zap.Error(err))
		return "", false
	}
	if token != "" {
		return token, true
	}

	token, err = r.tokens.FallbackToken(ctx, userID)
	if err != nil {
		r.logger.Warn("token lookup failed", zap.String("userId", userID), zap.String("source", "fcm_tokens"), zap.Error(err))
		return "", false
	}
	return token, token != ""
}

// ResolveGuarded resolves userID's token and refuses it when it equals the counterparty's token.
// Used wherever a message to one side of a borrow or rental must not reach the other side.
func (r *Resolver) ResolveGuarded(ctx context.Context, userID, counterpartyID string) (string, bool) {
	token, ok := r.Resolve(ctx, userID)
	if !ok || counterpartyID == "" || counterpartyID == userID {
		return token, ok
	}

	other, found := r.Resolve(ctx, counterpartyID)
	if found && other == token {
		r.logger.Error("recipient token matches counterparty token, refusing delivery",
			zap.String("userId", userID),
			zap.String("counterpartyId", counterpartyID))
		return "", false
	}
	return token, true
}
