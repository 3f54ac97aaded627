package reminderRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"bridge/models"
)

// MemoryStore is an in-process Store with the same query semantics as the document backends.
// Service and handler tests share it.
type MemoryStore struct {
	mu            sync.Mutex
	reminders     map[string]models.Reminder
	notifications map[string]models.Notification

	// CommitErr, when set, fails every Commit without applying anything.
	CommitErr error
	// QueryErr, when set, fails the due and retry queries.
	QueryErr error
	Commits  int
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reminders:     map[string]models.Reminder{},
		notifications: map[string]models.Notification{},
		now:           time.Now,
	}
}

// Put stores r as-is, replacing any document with the same id.
func (m *MemoryStore) Put(r models.Reminder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[r.ID] = r
}

func (m *MemoryStore) PutNotification(n models.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[n.ID] = n
}

// Reminders returns a snapshot of every stored reminder.
func (m *MemoryStore) Reminders() []models.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Reminder, 0, len(m.reminders))
	for _, r := range m.reminders {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) Notifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) DueReminders(_ context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	return m.filter(limit, func(r models.Reminder) (time.Time, bool) {
		return r.ScheduledTime, !r.Sent && !r.ScheduledTime.After(now)
	})
}

func (m *MemoryStore) RetryReadyReminders(_ context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	return m.filter(limit, func(r models.Reminder) (time.Time, bool) {
		if r.NextRetryTime == nil {
			return time.Time{}, false
		}
		return *r.NextRetryTime, !r.Sent && !r.NextRetryTime.After(now)
	})
}

func (m *MemoryStore) filter(limit int, match func(models.Reminder) (time.Time, bool)) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	type keyed struct {
		key time.Time
		r   models.Reminder
	}
	var hits []keyed
	for _, r := range m.reminders {
		if key, ok := match(r); ok {
			hits = append(hits, keyed{key: key, r: r})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].key.Equal(hits[j].key) {
			return hits[i].r.ID < hits[j].r.ID
		}
		return hits[i].key.Before(hits[j].key)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]models.Reminder, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.r)
	}
	return out, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) CreateIfAbsent(_ context.Context, r models.Reminder) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reminders[r.ID]; ok {
		return false, nil
	}
	m.reminders[r.ID] = r
	return true, nil
}

func (m *MemoryStore) NotificationExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.notifications[id]
	return ok, nil
}

// Commit applies the batch to a copy and swaps it in, so a failed update leaves nothing applied.
func (m *MemoryStore) Commit(_ context.Context, b *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitErr != nil {
		return m.CommitErr
	}
	if b == nil || b.Empty() {
		return nil
	}

	reminders := make(map[string]models.Reminder, len(m.reminders))
	for id, r := range m.reminders {
		reminders[id] = r
	}
	now := m.now()

	for _, u := range b.Updates {
		r, ok := reminders[u.ID]
		if !ok {
			return ErrNotFound
		}
		applyUpdate(&r, u)
		r.UpdatedAt = now
		reminders[u.ID] = r
	}
	for _, r := range b.Upserts {
		reminders[r.ID] = r
	}

	m.reminders = reminders
	for _, n := range b.Notifications {
		if _, ok := m.notifications[n.ID]; !ok {
			m.notifications[n.ID] = n
		}
	}
	m.Commits++
	return nil
}

func applyUpdate(r *models.Reminder, u Update) {
	for field, value := range u.Fields {
		switch field {
		case models.FieldSent:
			r.Sent = value.(bool)
		case models.FieldSentAt:
			t := value.(time.Time)
			r.SentAt = &t
		case models.FieldRetryCount:
			r.RetryCount = value.(int)
		case models.FieldLastError:
			r.LastError = value.(string)
		case models.FieldLastRetryAttempt:
			t := value.(time.Time)
			r.LastRetryAttempt = &t
		case models.FieldNextRetryTime:
			t := value.(time.Time)
			r.NextRetryTime = &t
		case models.FieldError:
			r.Error = value.(string)
		}
	}
	for _, field := range u.Unset {
		switch field {
		case models.FieldSentAt:
			r.SentAt = nil
		case models.FieldLastError:
			r.LastError = ""
		case models.FieldLastRetryAttempt:
			r.LastRetryAttempt = nil
		case models.FieldNextRetryTime:
			r.NextRetryTime = nil
		case models.FieldError:
			r.Error = ""
		}
	}
}
