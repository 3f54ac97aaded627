package rentalRepo

import (
	"context"
	"time"

	"bridge/models"
)

// Source lists rentals the daily overdue scan has to look at.
type Source interface {
	// ActivePastDue returns active rentals whose endDate is before now.
	ActivePastDue(ctx context.Context, now time.Time, limit int) ([]models.RentalRequest, error)
}
