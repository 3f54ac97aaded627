package reminder

import (
	"context"
	"fmt"
	"time"

	reminderRepo "bridge/database/repository/reminder"
	rentalRepo "bridge/database/repository/rental"
	"bridge/models"

	"go.uber.org/zap"
)

const overdueScanLimit = 500

// OverdueScanner seeds a rental_overdue reminder for every active rental past its end date.
// Once seeded, the reminder recurs through the dispatcher.
type OverdueScanner struct {
	rentals rentalRepo.Source
	store   reminderRepo.Store
	logger  *zap.Logger
	now     func() time.Time
}

func NewOverdueScanner(rentals rentalRepo.Source, store reminderRepo.Store, logger *zap.Logger) *OverdueScanner {
	return &OverdueScanner{rentals: rentals, store: store, logger: logger, now: time.Now}
}

// Scan returns how many reminders it armed. A rental's existing reminder is left alone
// unless it ended in a terminal failure, in which case it is replaced by a fresh one.
func (s *OverdueScanner) Scan(ctx context.Context) (int, error) {
	now := s.now()
	rentals, err := s.rentals.ActivePastDue(ctx, now, overdueScanLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue rentals: %w", err)
	}

	created := 0
	for _, rr := range rentals {
		if rr.RenterID == "" {
			s.logger.Warn("overdue rental has no renter", zap.String("rentalRequestId", rr.ID))
			continue
		}
		r := overdueRentalReminder(rr, now)
		ok, err := s.store.CreateIfAbsent(ctx, r)
		if err != nil {
			s.logger.Error("failed to create overdue rental reminder",
				zap.String("reminderId", r.ID), zap.Error(err))
			continue
		}
		if ok {
			created++
			continue
		}
		if s.rearm(ctx, r) {
			created++
		}
	}

	s.logger.Info("overdue rental scan complete",
		zap.Int("rentals", len(rentals)),
		zap.Int("created", created))
	return created, nil
}

// rearm replaces r's stored copy when that copy was terminally failed and reports whether it did.
func (s *OverdueScanner) rearm(ctx context.Context, r models.Reminder) bool {
	existing, err := s.store.GetByID(ctx, r.ID)
	if err != nil {
		s.logger.Warn("failed to load existing overdue rental reminder", zap.String("reminderId", r.ID), zap.Error(err))
		return false
	}
	if !existing.Sent || existing.Error == "" {
		return false
	}

	b := &reminderRepo.Batch{}
	b.Upsert(r)
	if err := s.store.Commit(ctx, b); err != nil {
		s.logger.Error("failed to re-arm overdue rental reminder", zap.String("reminderId", r.ID), zap.Error(err))
		return false
	}
	s.logger.Info("re-armed failed overdue rental reminder",
		zap.String("reminderId", r.ID), zap.String("previousError", existing.Error))
	return true
}

func overdueRentalReminder(rr models.RentalRequest, now time.Time) models.Reminder {
	itemTitle := rr.ItemTitle
	if itemTitle == "" {
		itemTitle = "your rental"
	}
	body := fmt.Sprintf("%q was due back on %s. Please return it", itemTitle, rr.EndDate.Format("Jan 2"))
	if rr.OwnerName != "" {
		body += " to " + rr.OwnerName
	}
	body += "."

	return models.Reminder{
		ID:              RecurringID(models.KindRentalOverdue, rr.ID, rr.RenterID),
		UserID:          rr.RenterID,
		ItemID:          rr.ItemID,
		ItemTitle:       rr.ItemTitle,
		Title:           "Rental Overdue",
		Body:            body,
		Type:            models.KindRentalOverdue,
		ScheduledTime:   now,
		RentalRequestID: rr.ID,
		RenterName:      rr.RenterName,
		OwnerName:       rr.OwnerName,
		IsRenter:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
