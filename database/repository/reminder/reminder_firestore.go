package reminderRepo

import (
	"context"
	"fmt"
	"time"

	"bridge/database"
	"bridge/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreReminderStore implements Store on Cloud Firestore.
// The due and retry queries need composite indexes on (sent, scheduledTime) and (sent, nextRetryTime).
type FirestoreReminderStore struct {
	client *firestore.Client
}

func NewFirestoreReminderStore(client *firestore.Client) *FirestoreReminderStore {
	return &FirestoreReminderStore{client: client}
}

func (s *FirestoreReminderStore) reminders() *firestore.CollectionRef {
	return s.client.Collection(database.RemindersCollection)
}

func (s *FirestoreReminderStore) notifications() *firestore.CollectionRef {
	return s.client.Collection(database.NotificationsCollection)
}

func (s *FirestoreReminderStore) DueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	q := s.reminders().
		Where("sent", "==", false).
		Where("scheduledTime", "<=", now).
		OrderBy("scheduledTime", firestore.Asc).
		Limit(limit)
	return s.query(ctx, q)
}

// RetryReadyReminders relies on Firestore range filters skipping documents that lack the field.
func (s *FirestoreReminderStore) RetryReadyReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	q := s.reminders().
		Where("sent", "==", false).
		Where("nextRetryTime", "<=", now).
		OrderBy("nextRetryTime", firestore.Asc).
		Limit(limit)
	return s.query(ctx, q)
}

func (s *FirestoreReminderStore) query(ctx context.Context, q firestore.Query) ([]models.Reminder, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	reminders := make([]models.Reminder, 0, len(docs))
	for _, doc := range docs {
		var r models.Reminder
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("failed to decode reminder %s: %w", doc.Ref.ID, err)
		}
		r.ID = doc.Ref.ID
		reminders = append(reminders, r)
	}
	return reminders, nil
}

func (s *FirestoreReminderStore) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	doc, err := s.reminders().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch reminder with id %s: %w", id, err)
	}
	var r models.Reminder
	if err := doc.DataTo(&r); err != nil {
		return nil, fmt.Errorf("failed to decode reminder %s: %w", id, err)
	}
	r.ID = doc.Ref.ID
	return &r, nil
}

func (s *FirestoreReminderStore) CreateIfAbsent(ctx context.Context, r models.Reminder) (bool, error) {
	if _, err := s.reminders().Doc(r.ID).Create(ctx, r); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, fmt.Errorf("failed to create reminder %s: %w", r.ID, err)
	}
	return true, nil
}

func (s *FirestoreReminderStore) NotificationExists(ctx context.Context, id string) (bool, error) {
	_, err := s.notifications().Doc(id).Get(ctx)
	if err == nil {
		return true, nil
	}
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to check notification %s: %w", id, err)
}

// Commit applies the batch in one Firestore transaction. Notification existence is read
// inside the transaction first, because Firestore requires all reads before any write.
func (s *FirestoreReminderStore) Commit(ctx context.Context, b *Batch) error {
	if b == nil || b.Empty() {
		return nil
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		pending := make([]models.Notification, 0, len(b.Notifications))
		for _, n := range b.Notifications {
			_, err := tx.Get(s.notifications().Doc(n.ID))
			switch {
			case err == nil:
				continue
			case status.Code(err) == codes.NotFound:
				pending = append(pending, n)
			default:
				return fmt.Errorf("failed to read notification %s: %w", n.ID, err)
			}
		}

		for _, u := range b.Updates {
			if err := tx.Update(s.reminders().Doc(u.ID), firestoreUpdates(u)); err != nil {
				return fmt.Errorf("failed to update reminder %s: %w", u.ID, err)
			}
		}
		for _, r := range b.Upserts {
			if err := tx.Set(s.reminders().Doc(r.ID), r); err != nil {
				return fmt.Errorf("failed to upsert reminder %s: %w", r.ID, err)
			}
		}
		for _, n := range pending {
			if err := tx.Create(s.notifications().Doc(n.ID), n); err != nil {
				return fmt.Errorf("failed to create notification %s: %w", n.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reminder batch transaction failed: %w", err)
	}
	return nil
}

func firestoreUpdates(u Update) []firestore.Update {
	updates := make([]firestore.Update, 0, len(u.Fields)+len(u.Unset)+1)
	for path, value := range u.Fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	for _, path := range u.Unset {
		updates = append(updates, firestore.Update{Path: path, Value: firestore.Delete})
	}
	updates = append(updates, firestore.Update{Path: models.FieldUpdatedAt, Value: firestore.ServerTimestamp})
	return updates
}
