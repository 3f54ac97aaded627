package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"golang.org/x/time/rate"
)

// Pusher delivers one push message and returns the provider message id.
type Pusher interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// FCMPusher sends through Firebase Cloud Messaging behind a token-bucket limiter.
type FCMPusher struct {
	client  Pusher
	limiter *rate.Limiter
}

// NewFCMPusher wraps client (normally *messaging.Client). ratePerSecond <= 0 disables throttling.
func NewFCMPusher(client Pusher, ratePerSecond float64) *FCMPusher {
	limit := rate.Inf
	burst := 1
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = int(ratePerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &FCMPusher{client: client, limiter: rate.NewLimiter(limit, burst)}
}

func (p *FCMPusher) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("push throttled: %w", err)
	}
	return p.client.Send(ctx, msg)
}
