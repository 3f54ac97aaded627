package reminder

import (
	"context"
	"fmt"
	"time"

	reminderRepo "bridge/database/repository/reminder"
	"bridge/models"
	"bridge/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTitle = "Reminder"

// TokenResolver looks up the push token for a user; absent tokens are not errors.
type TokenResolver interface {
	Resolve(ctx context.Context, userID string) (string, bool)
}

type DispatcherConfig struct {
	DuePageSize   int
	RetryPageSize int
	// Location is the reference zone for recurrence and companion notification days.
	Location *time.Location
}

// TickReport summarizes one dispatch tick.
type TickReport struct {
	TickID             string    `json:"tickId"`
	StartedAt          time.Time `json:"startedAt"`
	Candidates         int       `json:"candidates"`
	Sent               int       `json:"sent"`
	Retried            int       `json:"retried"`
	Failed             int       `json:"failed"`
	Skipped            int       `json:"skipped"`
	RecurringScheduled int       `json:"recurringScheduled"`
	CompanionsWritten  int       `json:"companionsWritten"`
}

// Dispatcher delivers due and retry-ready reminders and commits every state change
// of a tick in one batch.
type Dispatcher struct {
	store      reminderRepo.Store
	tokens     TokenResolver
	pusher     notification.Pusher
	recurrence *Recurrence
	cfg        DispatcherConfig
	logger     *zap.Logger
	now        func() time.Time
}

func NewDispatcher(store reminderRepo.Store, tokens TokenResolver, pusher notification.Pusher, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Dispatcher{
		store:      store,
		tokens:     tokens,
		pusher:     pusher,
		recurrence: NewRecurrence(cfg.Location),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// tick carries the per-invocation state shared by every reminder in it.
type tick struct {
	id         string
	now        time.Time
	batch      *reminderRepo.Batch
	companions map[string]bool
	report     *TickReport
	logger     *zap.Logger
}

// Tick runs one dispatch pass. Only a failed query or a failed commit is returned;
// every per-reminder problem becomes a state change on that reminder.
func (d *Dispatcher) Tick(ctx context.Context) (*TickReport, error) {
	now := d.now()
	t := &tick{
		id:         uuid.NewString(),
		now:        now,
		batch:      &reminderRepo.Batch{},
		companions: map[string]bool{},
		logger:     d.logger,
	}
	t.report = &TickReport{TickID: t.id, StartedAt: now}
	t.logger = d.logger.With(zap.String("tickId", t.id))

	// 1. Load both candidate pages
	due, err := d.store.DueReminders(ctx, now, d.cfg.DuePageSize)
	if err != nil {
		return t.report, fmt.Errorf("failed to load due reminders: %w", err)
	}
	retry, err := d.store.RetryReadyReminders(ctx, now, d.cfg.RetryPageSize)
	if err != nil {
		return t.report, fmt.Errorf("failed to load retry-ready reminders: %w", err)
	}
	candidates := mergeByID(due, retry)
	t.report.Candidates = len(candidates)
	if len(candidates) == 0 {
		return t.report, nil
	}

	// 2. Attempt each one in query order
	for _, r := range candidates {
		d.process(ctx, t, r)
	}

	// 3. Commit everything at once
	if err := d.store.Commit(ctx, t.batch); err != nil {
		t.logger.Error("reminder tick commit failed", zap.Int("candidates", len(candidates)), zap.Error(err))
		return t.report, fmt.Errorf("failed to commit tick %s: %w", t.id, err)
	}

	t.logger.Info("reminder tick complete",
		zap.Int("candidates", t.report.Candidates),
		zap.Int("sent", t.report.Sent),
		zap.Int("retried", t.report.Retried),
		zap.Int("failed", t.report.Failed),
		zap.Int("skipped", t.report.Skipped))
	return t.report, nil
}

// mergeByID concatenates the pages, keeping the first copy of a reminder present in both.
func mergeByID(pages ...[]models.Reminder) []models.Reminder {
	seen := map[string]bool{}
	var out []models.Reminder
	for _, page := range pages {
		for _, r := range page {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out
}

func (d *Dispatcher) process(ctx context.Context, t *tick, r models.Reminder) {
	log := t.logger.With(
		zap.String("reminderId", r.ID),
		zap.String("userId", r.UserID),
		zap.String("reminderType", string(r.Type)),
		zap.Int("retryCount", r.RetryCount))

	if r.NextRetryTime != nil && r.NextRetryTime.After(t.now) {
		t.report.Skipped++
		return
	}

	decision, attempted := d.attempt(ctx, r, t.now, log)
	t.batch.Update(decision.Update(r.ID, t.now))

	switch decision.Outcome {
	case OutcomeSent:
		t.report.Sent++
		log.Info("reminder sent")
		d.afterSend(ctx, t, r, log)
	case OutcomeRetry:
		t.report.Retried++
		log.Warn("reminder delivery failed, will retry",
			zap.Int("attempt", decision.RetryCount),
			zap.Time("nextRetryTime", decision.NextRetryTime),
			zap.String("error", decision.Error))
	case OutcomeFailed:
		t.report.Failed++
		log.Warn("reminder failed permanently",
			zap.Bool("attempted", attempted),
			zap.String("error", decision.Error))
	}
}

// attempt runs the checks and, when they pass, one delivery. attempted reports whether
// the push provider was called.
func (d *Dispatcher) attempt(ctx context.Context, r models.Reminder, now time.Time, log *zap.Logger) (decision Decision, attempted bool) {
	if r.UserID == "" {
		return Failed(errMissingUserID), false
	}
	if pre, ok := PreCheck(r, now); !ok {
		return pre, false
	}

	token, ok := d.tokens.Resolve(ctx, r.UserID)
	if !ok {
		return Failed(errNoToken), false
	}

	profile := Classify(r.Type)
	msg := notification.Build(pushFor(r, token, profile))
	messageID, err := d.pusher.Send(ctx, msg)
	if err == nil {
		log.Debug("push accepted", zap.String("messageId", messageID))
	}
	return Decide(r, now, err), true
}

func pushFor(r models.Reminder, token string, profile Profile) notification.Push {
	title := r.Title
	if title == "" {
		title = defaultTitle
	}
	return notification.Push{
		Token: token,
		Title: title,
		Body:  r.Body,
		Data: map[string]string{
			"reminderId":   r.ID,
			"itemId":       r.ItemID,
			"reminderType": string(r.Type),
			"type":         "reminder",
		},
		ChannelID: profile.Channel.AndroidChannelID(),
		Urgent:    profile.Urgent(),
	}
}

// afterSend queues the follow-up writes of a successful delivery.
func (d *Dispatcher) afterSend(ctx context.Context, t *tick, r models.Reminder, log *zap.Logger) {
	if next, ok := d.recurrence.ScheduleNext(r, t.now); ok {
		t.batch.Upsert(next)
		t.report.RecurringScheduled++
		log.Info("scheduled next recurring reminder",
			zap.String("nextReminderId", next.ID),
			zap.Time("scheduledTime", next.ScheduledTime))
	}

	profile := Classify(r.Type)
	if profile.CompanionType == "" {
		return
	}
	n := d.companion(r, profile.CompanionType, t.now)
	if t.companions[n.ID] {
		return
	}
	t.companions[n.ID] = true

	exists, err := d.store.NotificationExists(ctx, n.ID)
	if err != nil {
		// the commit still creates it only if absent
		log.Warn("companion notification lookup failed", zap.String("notificationId", n.ID), zap.Error(err))
	}
	if exists {
		return
	}
	t.batch.AddNotification(n)
	t.report.CompanionsWritten++
}

// CompanionID is the idempotency key of an in-app notification: one per user, type, item and day.
func CompanionID(userID, notificationType, itemID, day string) string {
	return fmt.Sprintf("%s_%s_%s_%s", userID, notificationType, itemID, day)
}

func (d *Dispatcher) companion(r models.Reminder, notificationType string, now time.Time) models.Notification {
	day := now.In(d.cfg.Location).Format("2006-01-02")
	title := r.Title
	if title == "" {
		title = defaultTitle
	}
	return models.Notification{
		ID:         CompanionID(r.UserID, notificationType, r.ItemID, day),
		ToUserID:   r.UserID,
		Type:       notificationType,
		Title:      title,
		Body:       r.Body,
		ItemID:     r.ItemID,
		ItemTitle:  r.ItemTitle,
		ReminderID: r.ID,
		Day:        day,
		Status:     models.NotificationUnread,
		CreatedAt:  now,
	}
}
