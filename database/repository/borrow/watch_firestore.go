package borrowRepo

import (
	"context"
	"fmt"

	"bridge/database"
	"bridge/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreWatcher follows additions to borrow_requests through a snapshot listener.
type FirestoreWatcher struct {
	client *firestore.Client
}

func NewFirestoreWatcher(client *firestore.Client) *FirestoreWatcher {
	return &FirestoreWatcher{client: client}
}

func (w *FirestoreWatcher) Watch(ctx context.Context, handle HandlerFunc) error {
	it := w.client.Collection(database.BorrowRequestCollection).Snapshots(ctx)
	defer it.Stop()

	initial := true
	for {
		snap, err := it.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("borrow request listener failed: %w", err)
		}
		// The first snapshot replays existing documents.
		if initial {
			initial = false
			continue
		}
		for _, change := range snap.Changes {
			if change.Kind != firestore.DocumentAdded {
				continue
			}
			var req models.BorrowRequest
			if err := change.Doc.DataTo(&req); err != nil {
				return fmt.Errorf("failed to decode borrow request %s: %w", change.Doc.Ref.ID, err)
			}
			req.ID = change.Doc.Ref.ID
			handle(ctx, req)
		}
	}
}
