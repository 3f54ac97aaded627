package reminder

import (
	"fmt"
	"strings"
	"time"

	"bridge/models"
)

// recurrenceHour is the local hour recurring reminders fire at.
const recurrenceHour = 9

// Recurrence plans the next instance of recurring reminders in a fixed time zone.
type Recurrence struct {
	loc *time.Location
}

func NewRecurrence(loc *time.Location) *Recurrence {
	if loc == nil {
		loc = time.UTC
	}
	return &Recurrence{loc: loc}
}

// NextOccurrence is 09:00 on the calendar day after now, in the reference zone.
func (rc *Recurrence) NextOccurrence(now time.Time) time.Time {
	local := now.In(rc.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, recurrenceHour, 0, 0, 0, rc.loc)
}

// RecurringID is the deterministic id of a recurring reminder: <source>_<kind>_<user>.
func RecurringID(kind models.ReminderKind, sourceID, userID string) string {
	return fmt.Sprintf("%s_%s_%s", sourceID, kind, userID)
}

// sourceID is the entity a recurring reminder is about: the rental request when known, else the item.
func sourceID(r models.Reminder) string {
	if r.Type == models.KindRentalOverdue && r.RentalRequestID != "" {
		return r.RentalRequestID
	}
	return r.ItemID
}

// hasRecurringID reports whether r.ID already follows RecurringID for r's kind and user.
func hasRecurringID(r models.Reminder) bool {
	suffix := fmt.Sprintf("_%s_%s", r.Type, r.UserID)
	prefix, found := strings.CutSuffix(r.ID, suffix)
	return found && prefix != ""
}

// ScheduleNext returns tomorrow's instance of r, or false when r's kind does not recur.
// The instance reuses r.ID when it already has the recurring shape, so repeated runs
// overwrite one document instead of adding new ones.
func (rc *Recurrence) ScheduleNext(r models.Reminder, now time.Time) (models.Reminder, bool) {
	if !Classify(r.Type).Recurring {
		return models.Reminder{}, false
	}

	id := r.ID
	if !hasRecurringID(r) {
		id = RecurringID(r.Type, sourceID(r), r.UserID)
	}

	return models.Reminder{
		ID:              id,
		UserID:          r.UserID,
		ItemID:          r.ItemID,
		ItemTitle:       r.ItemTitle,
		Title:           r.Title,
		Body:            r.Body,
		Type:            r.Type,
		ScheduledTime:   rc.NextOccurrence(now),
		Sent:            false,
		RentalRequestID: r.RentalRequestID,
		BorrowerName:    r.BorrowerName,
		LenderName:      r.LenderName,
		IsBorrower:      r.IsBorrower,
		RenterName:      r.RenterName,
		OwnerName:       r.OwnerName,
		IsRenter:        r.IsRenter,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, true
}
