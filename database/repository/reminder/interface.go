package reminderRepo

import (
	"context"
	"errors"
	"time"

	"bridge/models"
)

var ErrNotFound = errors.New("reminder not found")

// Store is the document-store surface the dispatch loop depends on.
type Store interface {
	// DueReminders returns unsent reminders with scheduledTime <= now, at most limit.
	DueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	// RetryReadyReminders returns unsent reminders with nextRetryTime <= now, at most limit.
	// Documents without nextRetryTime never match.
	RetryReadyReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	GetByID(ctx context.Context, id string) (*models.Reminder, error)
	// CreateIfAbsent inserts r under r.ID unless a document with that id exists.
	CreateIfAbsent(ctx context.Context, r models.Reminder) (bool, error)
	NotificationExists(ctx context.Context, id string) (bool, error)
	// Commit applies the whole batch atomically.
	Commit(ctx context.Context, b *Batch) error
}

// Update is a partial write on one reminder document.
type Update struct {
	ID     string
	Fields map[string]interface{}
	Unset  []string
}

// Batch accumulates every write produced by one dispatch tick.
// Updates are applied before Upserts, so an upsert may re-arm a document updated in the same batch.
type Batch struct {
	Updates       []Update
	Upserts       []models.Reminder
	Notifications []models.Notification
}

func (b *Batch) Update(u Update) {
	b.Updates = append(b.Updates, u)
}

func (b *Batch) Upsert(r models.Reminder) {
	b.Upserts = append(b.Upserts, r)
}

// AddNotification queues a create-if-absent write keyed by n.ID.
func (b *Batch) AddNotification(n models.Notification) {
	b.Notifications = append(b.Notifications, n)
}

func (b *Batch) Empty() bool {
	return len(b.Updates) == 0 && len(b.Upserts) == 0 && len(b.Notifications) == 0
}
