package events

import (
	"context"
	"errors"
	"testing"
	"time"

	borrowRepo "bridge/database/repository/borrow"
	"bridge/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResolver struct {
	tokens  map[string]string
	guarded map[string]bool
}

func (f *fakeResolver) ResolveGuarded(_ context.Context, userID, counterpartyID string) (string, bool) {
	if f.guarded[userID+"/"+counterpartyID] {
		return "", false
	}
	token, ok := f.tokens[userID]
	return token, ok
}

type fakePusher struct {
	sent []*messaging.Message
	err  error
}

func (p *fakePusher) Send(_ context.Context, msg *messaging.Message) (string, error) {
	p.sent = append(p.sent, msg)
	return "msg-1", p.err
}

type fakeWatcher struct {
	requests []models.BorrowRequest
	err      error
}

func (w *fakeWatcher) Watch(ctx context.Context, handle borrowRepo.HandlerFunc) error {
	for _, r := range w.requests {
		handle(ctx, r)
	}
	return w.err
}

func newTestNotifier(pusher *fakePusher) *BorrowRequestNotifier {
	resolver := &fakeResolver{
		tokens:  map[string]string{"lender": "token-lender", "shared": "token-shared"},
		guarded: map[string]bool{"shared/borrower": true},
	}
	return NewBorrowRequestNotifier(resolver, pusher, zap.NewNop())
}

func TestHandle_SendsToLender(t *testing.T) {
	pusher := &fakePusher{}
	n := newTestNotifier(pusher)

	ok := n.handle(context.Background(), models.BorrowRequest{
		ID:           "req1",
		ItemID:       "i1",
		ItemTitle:    "Drill",
		LenderID:     "lender",
		BorrowerID:   "borrower",
		BorrowerName: "Ann",
		Status:       models.BorrowStatusPending,
	})
	require.True(t, ok)
	require.Len(t, pusher.sent, 1)

	msg := pusher.sent[0]
	assert.Equal(t, "token-lender", msg.Token)
	assert.Equal(t, "New Borrow Request", msg.Notification.Title)
	assert.Equal(t, `Ann wants to borrow "Drill"`, msg.Notification.Body)
	assert.Equal(t, "borrow_request", msg.Data["type"])
	assert.Equal(t, "req1", msg.Data["requestId"])
	assert.Equal(t, "borrower", msg.Data["borrowerId"])
	assert.Equal(t, "FLUTTER_NOTIFICATION_CLICK", msg.Data["click_action"])
	assert.Equal(t, "borrow_requests", msg.Android.Notification.ChannelID)
	assert.Equal(t, messaging.PriorityHigh, msg.Android.Notification.Priority)
}

func TestHandle_Defaults(t *testing.T) {
	pusher := &fakePusher{}
	n := newTestNotifier(pusher)

	require.True(t, n.handle(context.Background(), models.BorrowRequest{ID: "req1", LenderID: "lender", Status: models.BorrowStatusPending}))
	assert.Equal(t, `Someone wants to borrow "an item"`, pusher.sent[0].Notification.Body)
}

func TestHandle_Skips(t *testing.T) {
	tests := []struct {
		name string
		req  models.BorrowRequest
	}{
		{"not pending", models.BorrowRequest{ID: "r", LenderID: "lender", Status: "accepted"}},
		{"no lender", models.BorrowRequest{ID: "r", Status: models.BorrowStatusPending}},
		{"no token", models.BorrowRequest{ID: "r", LenderID: "ghost", Status: models.BorrowStatusPending}},
		{"token shared with borrower", models.BorrowRequest{ID: "r", LenderID: "shared", BorrowerID: "borrower", Status: models.BorrowStatusPending}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pusher := &fakePusher{}
			assert.False(t, newTestNotifier(pusher).handle(context.Background(), tt.req))
			assert.Empty(t, pusher.sent)
		})
	}
}

func TestHandle_SendErrorIsSwallowed(t *testing.T) {
	pusher := &fakePusher{err: errors.New("unavailable")}
	n := newTestNotifier(pusher)

	assert.False(t, n.handle(context.Background(), models.BorrowRequest{ID: "r", LenderID: "lender", Status: models.BorrowStatusPending}))
	assert.Len(t, pusher.sent, 1)
}

func TestRun(t *testing.T) {
	pusher := &fakePusher{}
	n := newTestNotifier(pusher)
	w := &fakeWatcher{requests: []models.BorrowRequest{
		{ID: "a", LenderID: "lender", Status: models.BorrowStatusPending},
		{ID: "b", LenderID: "lender", Status: "declined"},
	}}

	require.NoError(t, n.Run(context.Background(), w))
	assert.Len(t, pusher.sent, 1)

	w.err = errors.New("stream closed")
	assert.Error(t, n.Run(context.Background(), w))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, n.Run(ctx, w), "cancellation is a clean stop")
}

// flakyWatcher errors on its first few calls, then delivers requests and cancels the run.
type flakyWatcher struct {
	failures int
	calls    int
	requests []models.BorrowRequest
	cancel   context.CancelFunc
}

func (w *flakyWatcher) Watch(ctx context.Context, handle borrowRepo.HandlerFunc) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("listener disconnected")
	}
	for _, r := range w.requests {
		handle(ctx, r)
	}
	w.cancel()
	return ctx.Err()
}

func TestSupervise_RestartsFailedWatch(t *testing.T) {
	pusher := &fakePusher{}
	n := newTestNotifier(pusher)
	n.restartDelay = time.Millisecond
	n.maxRestartDelay = 4 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &flakyWatcher{
		failures: 3,
		requests: []models.BorrowRequest{{ID: "a", LenderID: "lender", Status: models.BorrowStatusPending}},
		cancel:   cancel,
	}

	done := make(chan struct{})
	go func() {
		n.Supervise(ctx, w)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervise did not return after cancellation")
	}
	assert.Equal(t, 4, w.calls)
	assert.Len(t, pusher.sent, 1)
}

func TestSupervise_StopsWhenCancelled(t *testing.T) {
	n := newTestNotifier(&fakePusher{})
	n.restartDelay = time.Hour
	n.maxRestartDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	w := &fakeWatcher{err: errors.New("stream closed")}

	done := make(chan struct{})
	go func() {
		n.Supervise(ctx, w)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervise ignored cancellation while waiting to restart")
	}
}
