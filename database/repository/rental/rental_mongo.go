package rentalRepo

import (
	"context"
	"fmt"
	"time"

	"bridge/database"
	"bridge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRentalSource struct {
	coll *mongo.Collection
}

func NewMongoRentalSource(db *mongo.Database) *MongoRentalSource {
	return &MongoRentalSource{coll: db.Collection(database.RentalsCollection)}
}

func (s *MongoRentalSource) ActivePastDue(ctx context.Context, now time.Time, limit int) ([]models.RentalRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":  models.RentalStatusActive,
		"endDate": bson.M{"$lt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "endDate", Value: 1}}).SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue rentals: %w", err)
	}
	defer cursor.Close(ctx)

	var rentals []models.RentalRequest
	if err := cursor.All(ctx, &rentals); err != nil {
		return nil, fmt.Errorf("failed to decode rentals: %w", err)
	}
	return rentals, nil
}
