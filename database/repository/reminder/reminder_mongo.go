package reminderRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bridge/database"
	"bridge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoReminderStore implements Store using MongoDB.
type MongoReminderStore struct {
	reminders     *mongo.Collection
	notifications *mongo.Collection
}

// NewMongoReminderStore creates a reminder store on db and ensures its query indexes.
func NewMongoReminderStore(db *mongo.Database, logger *zap.Logger) *MongoReminderStore {
	s := &MongoReminderStore{
		reminders:     db.Collection(database.RemindersCollection),
		notifications: db.Collection(database.NotificationsCollection),
	}
	if err := s.ensureIndexes(); err != nil {
		logger.Warn("reminder store: failed to create indexes", zap.Error(err))
	}
	return s
}

// newContext creates a context with the given timeout, derived from parent.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates indexes backing the due and retry-ready queries.
func (s *MongoReminderStore) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sent", Value: 1}, {Key: "scheduledTime", Value: 1}}},
		{Keys: bson.D{{Key: "sent", Value: 1}, {Key: "nextRetryTime", Value: 1}}},
	}

	if _, err := s.reminders.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *MongoReminderStore) DueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	filter := bson.M{
		"sent":          false,
		"scheduledTime": bson.M{"$lte": now},
	}
	return s.find(ctx, filter, "scheduledTime", limit)
}

func (s *MongoReminderStore) RetryReadyReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	// $lte on a date never matches a missing field; $exists keeps that explicit.
	filter := bson.M{
		"sent":          false,
		"nextRetryTime": bson.M{"$exists": true, "$lte": now},
	}
	return s.find(ctx, filter, "nextRetryTime", limit)
}

func (s *MongoReminderStore) find(ctx context.Context, filter bson.M, sortField string, limit int) ([]models.Reminder, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.reminders.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer cursor.Close(ctx)

	var reminders []models.Reminder
	for cursor.Next(ctx) {
		var r models.Reminder
		if err := cursor.Decode(&r); err != nil {
			return nil, fmt.Errorf("failed to decode reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("reminder cursor failed: %w", err)
	}
	return reminders, nil
}

func (s *MongoReminderStore) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var r models.Reminder
	if err := s.reminders.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch reminder with id %s: %w", id, err)
	}
	return &r, nil
}

func (s *MongoReminderStore) CreateIfAbsent(ctx context.Context, r models.Reminder) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	doc, err := insertDocument(r)
	if err != nil {
		return false, err
	}
	res, err := s.reminders.UpdateOne(ctx,
		bson.M{"_id": r.ID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create reminder %s: %w", r.ID, err)
	}
	return res.UpsertedCount == 1, nil
}

func (s *MongoReminderStore) NotificationExists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	n, err := s.notifications.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check notification %s: %w", id, err)
	}
	return n > 0, nil
}

// Commit writes the batch inside one multi-document transaction.
func (s *MongoReminderStore) Commit(ctx context.Context, b *Batch) error {
	if b == nil || b.Empty() {
		return nil
	}

	reminderWrites := reminderWriteModels(b)
	notificationWrites, err := notificationWriteModels(b.Notifications)
	if err != nil {
		return err
	}

	client := s.reminders.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	ordered := options.BulkWrite().SetOrdered(true)
	txnFn := func(sc mongo.SessionContext) error {
		if len(reminderWrites) > 0 {
			if _, err := s.reminders.BulkWrite(sc, reminderWrites, ordered); err != nil {
				return fmt.Errorf("reminder writes failed: %w", err)
			}
		}
		if len(notificationWrites) > 0 {
			if _, err := s.notifications.BulkWrite(sc, notificationWrites, ordered); err != nil {
				return fmt.Errorf("notification writes failed: %w", err)
			}
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return fmt.Errorf("reminder batch transaction failed: %w", err)
	}
	return nil
}

func reminderWriteModels(b *Batch) []mongo.WriteModel {
	writes := make([]mongo.WriteModel, 0, len(b.Updates)+len(b.Upserts))
	for _, u := range b.Updates {
		update := bson.M{
			"$currentDate": bson.M{models.FieldUpdatedAt: true},
		}
		if len(u.Fields) > 0 {
			update["$set"] = bson.M(u.Fields)
		}
		if len(u.Unset) > 0 {
			unset := bson.M{}
			for _, f := range u.Unset {
				unset[f] = ""
			}
			update["$unset"] = unset
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(update))
	}
	for _, r := range b.Upserts {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": r.ID}).
			SetReplacement(r).
			SetUpsert(true))
	}
	return writes
}

func notificationWriteModels(notifications []models.Notification) ([]mongo.WriteModel, error) {
	writes := make([]mongo.WriteModel, 0, len(notifications))
	for _, n := range notifications {
		doc, err := insertDocument(n)
		if err != nil {
			return nil, err
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": n.ID}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}
	return writes, nil
}

// insertDocument marshals v for $setOnInsert, leaving _id to the upsert filter.
func insertDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	delete(doc, "_id")
	return doc, nil
}
