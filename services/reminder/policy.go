package reminder

import (
	"fmt"
	"time"

	reminderRepo "bridge/database/repository/reminder"
	"bridge/models"
	"bridge/services/notification"
)

const (
	// MaxRetries caps retryCount; a reminder at the cap is failed on its next attempt.
	MaxRetries = 3
	// StaleAfter is how long past scheduledTime a reminder may still be delivered.
	StaleAfter = 24 * time.Hour

	baseBackoff = time.Minute
	maxBackoff  = time.Hour
)

// Terminal failure messages persisted in the reminder's error field.
const (
	errNoToken       = "No FCM token found"
	errMissingUserID = "Reminder has no userId"
	errTooOld        = "Reminder too old to retry (scheduled more than 24h ago)"
)

var errRetriesExhausted = fmt.Sprintf("Failed after %d retries", MaxRetries)

// Outcome is the state a dispatch attempt leaves a reminder in.
type Outcome int

const (
	// OutcomeSent: delivered, sent=true without error.
	OutcomeSent Outcome = iota
	// OutcomeRetry: still pending, waiting for nextRetryTime.
	OutcomeRetry
	// OutcomeFailed: sent=true with error, never attempted again.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeRetry:
		return "retry"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Decision is the result of one attempt for one reminder.
type Decision struct {
	Outcome       Outcome
	Error         string
	RetryCount    int
	NextRetryTime time.Time
}

func Sent() Decision {
	return Decision{Outcome: OutcomeSent}
}

func Failed(msg string) Decision {
	return Decision{Outcome: OutcomeFailed, Error: msg}
}

// PreCheck fails reminders that must not be attempted at all. ok is false when d is terminal.
func PreCheck(r models.Reminder, now time.Time) (d Decision, ok bool) {
	if now.Sub(r.ScheduledTime) > StaleAfter {
		return Failed(errTooOld), false
	}
	if r.RetryCount >= MaxRetries {
		return Failed(errRetriesExhausted), false
	}
	return Decision{}, true
}

// Decide turns a delivery result into the reminder's next state.
func Decide(r models.Reminder, now time.Time, deliveryErr error) Decision {
	if deliveryErr == nil {
		return Sent()
	}
	msg := notification.Describe(deliveryErr)
	if notification.IsPermanent(deliveryErr) {
		return Failed(msg)
	}

	count := r.RetryCount + 1
	return Decision{
		Outcome:       OutcomeRetry,
		Error:         msg,
		RetryCount:    count,
		NextRetryTime: now.Add(Backoff(count)),
	}
}

// Backoff is the wait before attempt number retryCount+1: 1m, 2m, 4m, ... capped at 1h.
func Backoff(retryCount int) time.Duration {
	if retryCount < 1 {
		return baseBackoff
	}
	// past 2^6 minutes the cap applies anyway; avoid shifting into overflow
	if retryCount > 7 {
		return maxBackoff
	}
	d := baseBackoff << (retryCount - 1)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Update converts d into the write applied to reminder id.
func (d Decision) Update(id string, now time.Time) reminderRepo.Update {
	switch d.Outcome {
	case OutcomeSent:
		return reminderRepo.Update{
			ID: id,
			Fields: map[string]interface{}{
				models.FieldSent:       true,
				models.FieldSentAt:     now,
				models.FieldRetryCount: 0,
			},
			Unset: []string{models.FieldLastError, models.FieldNextRetryTime, models.FieldError},
		}
	case OutcomeRetry:
		return reminderRepo.Update{
			ID: id,
			Fields: map[string]interface{}{
				models.FieldSent:             false,
				models.FieldRetryCount:       d.RetryCount,
				models.FieldNextRetryTime:    d.NextRetryTime,
				models.FieldLastError:        d.Error,
				models.FieldLastRetryAttempt: now,
			},
		}
	default:
		return reminderRepo.Update{
			ID: id,
			Fields: map[string]interface{}{
				models.FieldSent:   true,
				models.FieldSentAt: now,
				models.FieldError:  d.Error,
			},
			Unset: []string{models.FieldNextRetryTime},
		}
	}
}
