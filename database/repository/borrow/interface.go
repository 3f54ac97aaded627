package borrowRepo

import (
	"context"

	"bridge/models"
)

// HandlerFunc receives each newly created borrow request.
type HandlerFunc func(ctx context.Context, req models.BorrowRequest)

// Watcher streams borrow-request creations until ctx is cancelled.
type Watcher interface {
	Watch(ctx context.Context, handle HandlerFunc) error
}
