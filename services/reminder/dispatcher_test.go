package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	reminderRepo "bridge/database/repository/reminder"
	"bridge/models"
	"bridge/services/notification"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePusher struct {
	mu   sync.Mutex
	sent []*messaging.Message
	err  error
}

func (p *fakePusher) Send(_ context.Context, msg *messaging.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	if p.err != nil {
		return "", p.err
	}
	return "projects/test/messages/1", nil
}

func (p *fakePusher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, userID string) (string, bool) {
	token, ok := f[userID]
	return token, ok && token != ""
}

type dispatchFixture struct {
	store  *reminderRepo.MemoryStore
	pusher *fakePusher
	d      *Dispatcher
	now    time.Time
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	f := &dispatchFixture{
		store:  reminderRepo.NewMemoryStore(),
		pusher: &fakePusher{},
		now:    testNow,
	}
	f.d = NewDispatcher(f.store, fakeResolver{"u1": "token-u1", "u2": "token-u2"}, f.pusher,
		DispatcherConfig{DuePageSize: 100, RetryPageSize: 50, Location: time.UTC}, zap.NewNop())
	f.d.now = func() time.Time { return f.now }
	return f
}

func (f *dispatchFixture) tick(t *testing.T) *TickReport {
	t.Helper()
	report, err := f.d.Tick(context.Background())
	require.NoError(t, err)
	return report
}

func (f *dispatchFixture) get(t *testing.T, id string) models.Reminder {
	t.Helper()
	r, err := f.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return *r
}

func TestTick_DueReminderDelivered(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{
		ID:            "r1",
		UserID:        "u1",
		ItemID:        "i1",
		Title:         "Return soon",
		Body:          "Your ladder is due",
		Type:          models.KindDue,
		ScheduledTime: testNow.Add(-time.Minute),
	})

	report := f.tick(t)

	r := f.get(t, "r1")
	assert.True(t, r.Sent)
	require.NotNil(t, r.SentAt)
	assert.Equal(t, testNow, *r.SentAt)
	assert.Zero(t, r.RetryCount)
	assert.Empty(t, r.LastError)
	assert.Empty(t, r.Error)
	assert.Len(t, f.store.Reminders(), 1, "no new reminder for a non-recurring kind")

	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 0, report.RecurringScheduled)
	assert.Equal(t, 1, f.store.Commits)
}

func TestTick_OverdueReminderSchedulesTomorrow(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{
		ID:            "seed-1",
		UserID:        "u1",
		ItemID:        "i1",
		ItemTitle:     "Ladder",
		Type:          models.KindOverdue,
		ScheduledTime: testNow.Add(-time.Minute),
		BorrowerName:  "Ann",
	})

	report := f.tick(t)

	assert.True(t, f.get(t, "seed-1").Sent)

	next := f.get(t, "i1_overdue_u1")
	assert.False(t, next.Sent)
	assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), next.ScheduledTime)
	assert.Equal(t, "Ann", next.BorrowerName)
	assert.Equal(t, "Ladder", next.ItemTitle)
	assert.Equal(t, 1, report.RecurringScheduled)
}

func TestTick_MissingTokenFailsWithoutDelivery(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{
		ID:            "r1",
		UserID:        "nobody",
		Type:          models.KindDue,
		ScheduledTime: testNow.Add(-time.Minute),
	})

	report := f.tick(t)

	r := f.get(t, "r1")
	assert.True(t, r.Sent)
	assert.Equal(t, "No FCM token found", r.Error)
	assert.Nil(t, r.NextRetryTime)
	assert.Zero(t, f.pusher.calls())
	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, f.store.Notifications())
}

func TestTick_TransientErrorSchedulesRetry(t *testing.T) {
	f := newDispatchFixture(t)
	f.pusher.err = errors.New("service unavailable")
	f.store.Put(models.Reminder{
		ID:            "r1",
		UserID:        "u1",
		Type:          models.KindDue,
		ScheduledTime: testNow.Add(-5 * time.Minute),
		RetryCount:    2,
	})

	report := f.tick(t)

	r := f.get(t, "r1")
	assert.False(t, r.Sent)
	assert.Equal(t, 3, r.RetryCount)
	require.NotNil(t, r.NextRetryTime)
	assert.Equal(t, testNow.Add(240*time.Second), *r.NextRetryTime)
	assert.Equal(t, "service unavailable", r.LastError)
	require.NotNil(t, r.LastRetryAttempt)
	assert.Equal(t, testNow, *r.LastRetryAttempt)
	assert.Equal(t, 1, report.Retried)
}

func TestTick_RetryBudgetExhausted(t *testing.T) {
	f := newDispatchFixture(t)
	ready := testNow.Add(-time.Second)
	f.store.Put(models.Reminder{
		ID:            "r1",
		UserID:        "u1",
		Type:          models.KindDue,
		ScheduledTime: testNow.Add(-10 * time.Minute),
		RetryCount:    3,
		NextRetryTime: &ready,
	})

	f.tick(t)

	r := f.get(t, "r1")
	assert.True(t, r.Sent)
	assert.Equal(t, "Failed after 3 retries", r.Error)
	assert.Nil(t, r.NextRetryTime)
	assert.Zero(t, f.pusher.calls())
}

func TestTick_StaleReminderFailsBeforeDelivery(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{
		ID:            "r1",
		UserID:        "u1",
		Type:          models.KindDue,
		ScheduledTime: testNow.Add(-25 * time.Hour),
	})

	f.tick(t)

	r := f.get(t, "r1")
	assert.True(t, r.Sent)
	assert.Equal(t, errTooOld, r.Error)
	assert.Zero(t, f.pusher.calls())
}

func TestTick_MissingUserID(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{ID: "r1", Type: models.KindDue, ScheduledTime: testNow.Add(-time.Minute)})

	f.tick(t)

	r := f.get(t, "r1")
	assert.True(t, r.Sent)
	assert.Equal(t, errMissingUserID, r.Error)
	assert.Zero(t, f.pusher.calls())
}

func TestTick_PermanentErrorIsTerminal(t *testing.T) {
	f := newDispatchFixture(t)
	f.pusher.err = &notification.DeliveryError{
		Code:    "messaging/registration-token-not-registered",
		Message: "Requested entity was not found.",
	}
	f.store.Put(models.Reminder{ID: "r1", UserID: "u1", Type: models.KindDue, ScheduledTime: testNow.Add(-time.Minute)})

	report := f.tick(t)

	r := f.get(t, "r1")
	assert.True(t, r.Sent)
	assert.Contains(t, r.Error, "registration-token-not-registered")
	assert.Zero(t, r.RetryCount)
	assert.Nil(t, r.NextRetryTime)
	assert.Equal(t, 1, report.Failed)
}

func TestTick_SkipsReminderWaitingForRetry(t *testing.T) {
	f := newDispatchFixture(t)
	later := testNow.Add(30 * time.Second)
	f.store.Put(models.Reminder{
		ID:            "r1",
		UserID:        "u1",
		Type:          models.KindDue,
		ScheduledTime: testNow.Add(-2 * time.Minute),
		RetryCount:    1,
		NextRetryTime: &later,
	})

	report := f.tick(t)

	r := f.get(t, "r1")
	assert.False(t, r.Sent)
	assert.Equal(t, 1, r.RetryCount)
	assert.Zero(t, f.pusher.calls())
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, f.store.Commits, "nothing to write")
}

func TestTick_ReminderInBothQueriesAttemptedOnce(t *testing.T) {
	f := newDispatchFixture(t)
	ready := testNow.Add(-time.Second)
	f.store.Put(models.Reminder{
		ID:            "r1",
		UserID:        "u1",
		Type:          models.KindDue,
		ScheduledTime: testNow.Add(-2 * time.Minute),
		RetryCount:    1,
		NextRetryTime: &ready,
	})

	report := f.tick(t)

	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 1, f.pusher.calls())
	assert.True(t, f.get(t, "r1").Sent)
}

func TestTick_MessageShape(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{
		ID:            "r1",
		UserID:        "u1",
		ItemID:        "i1",
		Type:          models.KindOverdue,
		ScheduledTime: testNow.Add(-time.Minute),
	})

	f.tick(t)

	require.Equal(t, 1, f.pusher.calls())
	msg := f.pusher.sent[0]
	assert.Equal(t, "token-u1", msg.Token)
	assert.Equal(t, "Reminder", msg.Notification.Title)
	assert.Equal(t, map[string]string{
		"reminderId":   "r1",
		"itemId":       "i1",
		"reminderType": "overdue",
		"type":         "reminder",
		"click_action": "FLUTTER_NOTIFICATION_CLICK",
	}, msg.Data)
	assert.Equal(t, "high", msg.Android.Priority)
	assert.Equal(t, "overdue_reminders", msg.Android.Notification.ChannelID)
	assert.Equal(t, messaging.PriorityMax, msg.Android.Notification.Priority)
}

func TestTick_CompanionNotification(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{
		ID:            "r1",
		UserID:        "u1",
		ItemID:        "i1",
		ItemTitle:     "Ladder",
		Title:         "Due now",
		Type:          models.KindDue,
		ScheduledTime: testNow.Add(-time.Minute),
	})

	report := f.tick(t)

	got := f.store.Notifications()
	require.Len(t, got, 1)
	n := got[0]
	assert.Equal(t, "u1_return_reminder_due_i1_2025-03-10", n.ID)
	assert.Equal(t, "u1", n.ToUserID)
	assert.Equal(t, "return_reminder_due", n.Type)
	assert.Equal(t, "Due now", n.Title)
	assert.Equal(t, "r1", n.ReminderID)
	assert.Equal(t, models.NotificationUnread, n.Status)
	assert.Equal(t, 1, report.CompanionsWritten)
}

func TestTick_NoCompanionForOverdue(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{ID: "r1", UserID: "u1", ItemID: "i1", Type: models.KindOverdue, ScheduledTime: testNow.Add(-time.Minute)})

	f.tick(t)

	assert.Empty(t, f.store.Notifications())
}

func TestTick_CommitFailureLeavesStateUntouched(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.CommitErr = errors.New("deadline exceeded")
	f.store.Put(models.Reminder{ID: "r1", UserID: "u1", ItemID: "i1", Type: models.KindOverdue, ScheduledTime: testNow.Add(-time.Minute)})

	report, err := f.d.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "deadline exceeded")
	require.NotNil(t, report)

	r := f.get(t, "r1")
	assert.False(t, r.Sent)
	assert.Len(t, f.store.Reminders(), 1)
}

func TestTick_QueryFailureIsFatal(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.QueryErr = errors.New("unavailable")

	_, err := f.d.Tick(context.Background())
	require.Error(t, err)
	assert.Zero(t, f.pusher.calls())
}

func TestTick_EmptyStore(t *testing.T) {
	f := newDispatchFixture(t)

	report := f.tick(t)

	assert.Zero(t, report.Candidates)
	assert.NotEmpty(t, report.TickID)
	assert.Zero(t, f.store.Commits)
}

func TestTick_RecurringReminderStaysSingleAcrossDays(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{
		ID:            "seed-1",
		UserID:        "u1",
		ItemID:        "i1",
		Type:          models.KindOverdue,
		ScheduledTime: testNow.Add(-time.Minute),
	})

	for day := 0; day < 5; day++ {
		report := f.tick(t)
		require.Equal(t, 1, report.Sent, "day %d", day)

		all := f.store.Reminders()
		assert.Len(t, all, 2, "day %d", day)

		pending := 0
		for _, r := range all {
			if !r.Sent {
				pending++
				assert.Equal(t, "i1_overdue_u1", r.ID)
			}
		}
		assert.Equal(t, 1, pending, "day %d", day)

		next := f.get(t, "i1_overdue_u1")
		f.now = next.ScheduledTime.Add(time.Minute)
	}
}

func TestTick_RetriesNeverExceedCap(t *testing.T) {
	f := newDispatchFixture(t)
	f.pusher.err = errors.New("internal error")
	f.store.Put(models.Reminder{ID: "r1", UserID: "u1", Type: models.KindDue, ScheduledTime: testNow.Add(-time.Minute)})

	var delays []time.Duration
	for i := 0; i < 6; i++ {
		f.tick(t)
		r := f.get(t, "r1")
		assert.LessOrEqual(t, r.RetryCount, MaxRetries)
		if r.Sent {
			break
		}
		require.NotNil(t, r.NextRetryTime)
		delays = append(delays, r.NextRetryTime.Sub(f.now))
		f.now = *r.NextRetryTime
	}

	r := f.get(t, "r1")
	assert.True(t, r.Sent)
	assert.Equal(t, "Failed after 3 retries", r.Error)
	assert.Equal(t, []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute}, delays)
	assert.Equal(t, 3, f.pusher.calls())
}

func TestTick_CompanionWrittenOncePerDay(t *testing.T) {
	f := newDispatchFixture(t)
	due := models.Reminder{ID: "r1", UserID: "u1", ItemID: "i1", Type: models.KindDue, ScheduledTime: testNow.Add(-time.Minute)}
	f.store.Put(due)
	f.tick(t)

	// a racing tick that read the reminder before the first commit delivers it again
	f.store.Put(due)
	f.now = testNow.Add(2 * time.Hour)
	report := f.tick(t)

	assert.Equal(t, 1, report.Sent)
	assert.Zero(t, report.CompanionsWritten)
	assert.Len(t, f.store.Notifications(), 1)
}

func TestTick_CompanionDedupedWithinTick(t *testing.T) {
	f := newDispatchFixture(t)
	f.store.Put(models.Reminder{ID: "a", UserID: "u1", ItemID: "i1", Type: models.KindDue, ScheduledTime: testNow.Add(-2 * time.Minute)})
	f.store.Put(models.Reminder{ID: "b", UserID: "u1", ItemID: "i1", Type: models.KindDue, ScheduledTime: testNow.Add(-time.Minute)})

	report := f.tick(t)

	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.CompanionsWritten)
	assert.Len(t, f.store.Notifications(), 1)
}

func TestTick_NewDayWritesNewCompanion(t *testing.T) {
	f := newDispatchFixture(t)
	due := models.Reminder{ID: "r1", UserID: "u1", ItemID: "i1", Type: models.KindDue, ScheduledTime: testNow.Add(-time.Minute)}
	f.store.Put(due)
	f.tick(t)

	due.ScheduledTime = testNow.Add(12 * time.Hour)
	f.store.Put(due)
	f.now = testNow.Add(12*time.Hour + time.Minute)
	f.tick(t)

	assert.Len(t, f.store.Notifications(), 2)
}
