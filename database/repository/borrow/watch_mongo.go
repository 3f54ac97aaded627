package borrowRepo

import (
	"context"
	"errors"
	"fmt"

	"bridge/database"
	"bridge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWatcher follows inserts on borrow_requests through a change stream.
type MongoWatcher struct {
	coll *mongo.Collection
}

func NewMongoWatcher(db *mongo.Database) *MongoWatcher {
	return &MongoWatcher{coll: db.Collection(database.BorrowRequestCollection)}
}

type insertEvent struct {
	FullDocument models.BorrowRequest `bson:"fullDocument"`
}

func (w *MongoWatcher) Watch(ctx context.Context, handle HandlerFunc) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
	stream, err := w.coll.Watch(ctx, pipeline, options.ChangeStream())
	if err != nil {
		return fmt.Errorf("failed to open borrow request change stream: %w", err)
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var ev insertEvent
		if err := stream.Decode(&ev); err != nil {
			return fmt.Errorf("failed to decode borrow request event: %w", err)
		}
		handle(ctx, ev.FullDocument)
	}
	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("borrow request change stream failed: %w", err)
	}
	return nil
}
