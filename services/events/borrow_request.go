package events

import (
	"context"
	"fmt"
	"time"

	borrowRepo "bridge/database/repository/borrow"
	"bridge/models"
	"bridge/services/notification"

	"go.uber.org/zap"
)

const (
	borrowRequestChannel = "borrow_requests"

	defaultRestartDelay    = time.Second
	defaultMaxRestartDelay = time.Minute
)

// GuardedResolver resolves a recipient's token, refusing it when it belongs to the counterparty too.
type GuardedResolver interface {
	ResolveGuarded(ctx context.Context, userID, counterpartyID string) (string, bool)
}

// BorrowRequestNotifier tells a lender about a new pending borrow request.
// Delivery is one-shot: failures are logged and dropped.
type BorrowRequestNotifier struct {
	tokens GuardedResolver
	pusher notification.Pusher
	logger *zap.Logger

	restartDelay    time.Duration
	maxRestartDelay time.Duration
}

func NewBorrowRequestNotifier(tokens GuardedResolver, pusher notification.Pusher, logger *zap.Logger) *BorrowRequestNotifier {
	return &BorrowRequestNotifier{
		tokens:          tokens,
		pusher:          pusher,
		logger:          logger,
		restartDelay:    defaultRestartDelay,
		maxRestartDelay: defaultMaxRestartDelay,
	}
}

// Supervise keeps Run going until ctx ends. A watch that stops is restarted after a delay
// that doubles up to maxRestartDelay and resets once a watch has stayed up that long.
func (n *BorrowRequestNotifier) Supervise(ctx context.Context, w borrowRepo.Watcher) {
	delay := n.restartDelay
	for {
		started := time.Now()
		err := n.Run(ctx, w)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) >= n.maxRestartDelay {
			delay = n.restartDelay
		}
		n.logger.Error("borrow request watch ended, restarting",
			zap.Duration("retryIn", delay), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > n.maxRestartDelay {
			delay = n.maxRestartDelay
		}
	}
}

// Run feeds every borrow-request creation from w into Handle until ctx ends.
func (n *BorrowRequestNotifier) Run(ctx context.Context, w borrowRepo.Watcher) error {
	n.logger.Info("borrow request notifier started")
	if err := w.Watch(ctx, n.Handle); err != nil && ctx.Err() == nil {
		return fmt.Errorf("borrow request watch stopped: %w", err)
	}
	return nil
}

// Handle sends the lender push for req. It matches borrowRepo.HandlerFunc.
func (n *BorrowRequestNotifier) Handle(ctx context.Context, req models.BorrowRequest) {
	n.handle(ctx, req)
}

// handle reports whether a message was sent.
func (n *BorrowRequestNotifier) handle(ctx context.Context, req models.BorrowRequest) bool {
	log := n.logger.With(zap.String("requestId", req.ID), zap.String("lenderId", req.LenderID))

	if req.Status != models.BorrowStatusPending {
		log.Debug("borrow request not pending, skipping", zap.String("status", req.Status))
		return false
	}
	if req.LenderID == "" {
		log.Warn("borrow request has no lender")
		return false
	}

	token, ok := n.tokens.ResolveGuarded(ctx, req.LenderID, req.BorrowerID)
	if !ok {
		log.Warn("no usable FCM token for lender")
		return false
	}

	msg := notification.Build(borrowRequestPush(req, token))
	id, err := n.pusher.Send(ctx, msg)
	if err != nil {
		log.Error("failed to send borrow request notification",
			zap.String("code", notification.ErrorCode(err)), zap.Error(err))
		return false
	}
	log.Info("borrow request notification sent", zap.String("messageId", id))
	return true
}

func borrowRequestPush(req models.BorrowRequest, token string) notification.Push {
	borrowerName := req.BorrowerName
	if borrowerName == "" {
		borrowerName = "Someone"
	}
	itemTitle := req.ItemTitle
	if itemTitle == "" {
		itemTitle = "an item"
	}

	return notification.Push{
		Token: token,
		Title: "New Borrow Request",
		Body:  fmt.Sprintf("%s wants to borrow %q", borrowerName, itemTitle),
		Data: map[string]string{
			"type":         "borrow_request",
			"requestId":    req.ID,
			"itemId":       req.ItemID,
			"itemTitle":    itemTitle,
			"borrowerId":   req.BorrowerID,
			"borrowerName": borrowerName,
		},
		ChannelID: borrowRequestChannel,
	}
}
