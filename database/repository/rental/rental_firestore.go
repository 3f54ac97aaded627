package rentalRepo

import (
	"context"
	"fmt"
	"time"

	"bridge/database"
	"bridge/models"

	"cloud.google.com/go/firestore"
)

type FirestoreRentalSource struct {
	client *firestore.Client
}

func NewFirestoreRentalSource(client *firestore.Client) *FirestoreRentalSource {
	return &FirestoreRentalSource{client: client}
}

func (s *FirestoreRentalSource) ActivePastDue(ctx context.Context, now time.Time, limit int) ([]models.RentalRequest, error) {
	docs, err := s.client.Collection(database.RentalsCollection).
		Where("status", "==", models.RentalStatusActive).
		Where("endDate", "<", now).
		OrderBy("endDate", firestore.Asc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue rentals: %w", err)
	}

	rentals := make([]models.RentalRequest, 0, len(docs))
	for _, doc := range docs {
		var r models.RentalRequest
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("failed to decode rental %s: %w", doc.Ref.ID, err)
		}
		r.ID = doc.Ref.ID
		rentals = append(rentals, r)
	}
	return rentals, nil
}
