// Command seed fills a development MongoDB with users, tokens, reminders and rentals
// covering every reminder kind and retry state.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"bridge/config"
	"bridge/database"
	"bridge/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("seed: refusing to run with ENV=production")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := database.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.DatabaseName)

	// Clear existing seed data.
	for _, name := range []string{
		database.RemindersCollection,
		database.NotificationsCollection,
		database.UsersCollection,
		database.FCMTokensCollection,
		database.RentalsCollection,
	} {
		if _, err := db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			log.Fatalf("seed: failed to clear %s: %v", name, err)
		}
	}

	now := time.Now().UTC()

	// u1 has a profile token, u2 only the fallback record, u3 none at all.
	users := []interface{}{
		models.UserProfile{ID: "u1", FCMToken: "dev-token-u1", FCMTokenUpdatedAt: now},
		models.UserProfile{ID: "u2"},
		models.UserProfile{ID: "u3"},
	}
	tokens := []interface{}{
		models.FCMTokenRecord{UserID: "u2", Token: "dev-token-u2", UpdatedAt: now},
	}

	kinds := []models.ReminderKind{
		models.KindDueIn24h, models.KindDueIn1h, models.KindDue, models.KindOverdue,
		models.KindRentalStart, models.KindRentalDueIn24h, models.KindRentalDueIn1h, models.KindRentalDue,
		models.KindRentalOverdue,
		models.KindMonthlyPaymentUpcoming, models.KindMonthlyPaymentDue, models.KindMonthlyPaymentOverdue,
	}
	userIDs := []string{"u1", "u2", "u3"}

	var reminders []interface{}
	for i, kind := range kinds {
		userID := userIDs[i%len(userIDs)]
		itemID := fmt.Sprintf("item-%d", i+1)
		r := models.Reminder{
			ID:            fmt.Sprintf("seed-%02d", i+1),
			UserID:        userID,
			ItemID:        itemID,
			ItemTitle:     fmt.Sprintf("Sample item %d", i+1),
			Title:         fmt.Sprintf("Reminder: %s", kind),
			Body:          fmt.Sprintf("Sample %s reminder for %s", kind, itemID),
			Type:          kind,
			ScheduledTime: now.Add(-time.Duration(i+1) * time.Minute),
			BorrowerName:  "Sample Borrower",
			LenderName:    "Sample Lender",
			IsBorrower:    true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if kind == models.KindRentalOverdue {
			r.RentalRequestID = "rental-seed-1"
			r.RenterName, r.OwnerName, r.IsRenter = "Sample Renter", "Sample Owner", true
		}
		reminders = append(reminders, r)
	}

	// Retry states: waiting, ready, exhausted and stale.
	waiting := now.Add(10 * time.Minute)
	ready := now.Add(-time.Minute)
	reminders = append(reminders,
		models.Reminder{ID: "seed-retry-waiting", UserID: "u1", ItemID: "item-90", Type: models.KindDue,
			ScheduledTime: now.Add(-5 * time.Minute), RetryCount: 1, NextRetryTime: &waiting, LastError: "unavailable", CreatedAt: now, UpdatedAt: now},
		models.Reminder{ID: "seed-retry-ready", UserID: "u1", ItemID: "item-91", Type: models.KindDue,
			ScheduledTime: now.Add(-5 * time.Minute), RetryCount: 2, NextRetryTime: &ready, LastError: "unavailable", CreatedAt: now, UpdatedAt: now},
		models.Reminder{ID: "seed-retry-exhausted", UserID: "u1", ItemID: "item-92", Type: models.KindDue,
			ScheduledTime: now.Add(-30 * time.Minute), RetryCount: 3, NextRetryTime: &ready, CreatedAt: now, UpdatedAt: now},
		models.Reminder{ID: "seed-stale", UserID: "u1", ItemID: "item-93", Type: models.KindDue,
			ScheduledTime: now.Add(-30 * time.Hour), CreatedAt: now, UpdatedAt: now},
	)

	rentals := []interface{}{
		models.RentalRequest{ID: "rental-seed-2", ItemID: "item-50", ItemTitle: "Camping tent",
			RenterID: "u1", RenterName: "Sample Renter", OwnerID: "u2", OwnerName: "Sample Owner",
			Status: models.RentalStatusActive, EndDate: now.Add(-48 * time.Hour)},
	}

	insert(ctx, db.Collection(database.UsersCollection), users)
	insert(ctx, db.Collection(database.FCMTokensCollection), tokens)
	insert(ctx, db.Collection(database.RemindersCollection), reminders)
	insert(ctx, db.Collection(database.RentalsCollection), rentals)
}

func insert(ctx context.Context, coll *mongo.Collection, docs []interface{}) {
	res, err := coll.InsertMany(ctx, docs)
	if err != nil {
		log.Fatalf("seed: failed to insert into %s: %v", coll.Name(), err)
	}
	fmt.Printf("Inserted %d documents into %s\n", len(res.InsertedIDs), coll.Name())
}
