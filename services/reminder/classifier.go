package reminder

import (
	"strings"

	"bridge/models"
)

// Channel is the delivery channel a reminder is shown on.
type Channel string

const (
	ChannelDue           Channel = "due"
	ChannelOverdue       Channel = "overdue"
	ChannelRental        Channel = "rental"
	ChannelRentalOverdue Channel = "rental-overdue"
)

// AndroidChannelID is the notification channel registered by the mobile app.
func (c Channel) AndroidChannelID() string {
	switch c {
	case ChannelOverdue:
		return "overdue_reminders"
	case ChannelRentalOverdue:
		return "rental_overdue_reminders"
	case ChannelRental:
		return "rental_reminders"
	default:
		return "due_reminders"
	}
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Profile is how a reminder kind is delivered.
type Profile struct {
	Channel      Channel
	Priority     Priority
	OverdueClass bool
	// Recurring kinds spawn tomorrow's instance after a successful send.
	Recurring bool
	// CompanionType is the in-app notification type written on success, "" for none.
	CompanionType string
}

func (p Profile) Urgent() bool {
	return p.Priority == PriorityUrgent
}

// Classify maps a reminder kind to its delivery profile. Unknown kinds fall back to
// the default due channel rather than being rejected.
func Classify(kind models.ReminderKind) Profile {
	switch kind {
	case models.KindOverdue:
		return Profile{Channel: ChannelOverdue, Priority: PriorityUrgent, OverdueClass: true, Recurring: true}
	case models.KindRentalOverdue:
		return Profile{Channel: ChannelRentalOverdue, Priority: PriorityUrgent, OverdueClass: true, Recurring: true}
	case models.KindMonthlyPaymentOverdue:
		return Profile{Channel: ChannelRental, Priority: PriorityUrgent}
	case models.KindMonthlyPaymentDue, models.KindMonthlyPaymentUpcoming:
		return Profile{Channel: ChannelRental, Priority: PriorityHigh}
	case models.KindRentalStart, models.KindRentalDueIn24h, models.KindRentalDueIn1h, models.KindRentalDue:
		return Profile{Channel: ChannelRental, Priority: PriorityHigh}
	case models.KindDueIn24h, models.KindDueIn1h, models.KindDue:
		return Profile{Channel: ChannelDue, Priority: PriorityHigh, CompanionType: "return_reminder_" + string(kind)}
	default:
		return classifyUnknown(kind)
	}
}

// classifyUnknown keeps subtypes added by the app after this build on their family's channel.
func classifyUnknown(kind models.ReminderKind) Profile {
	s := string(kind)
	switch {
	case strings.HasPrefix(s, "monthly_payment"):
		if strings.HasSuffix(s, "overdue") {
			return Profile{Channel: ChannelRental, Priority: PriorityUrgent}
		}
		return Profile{Channel: ChannelRental, Priority: PriorityHigh}
	case strings.HasPrefix(s, "rental_"):
		return Profile{Channel: ChannelRental, Priority: PriorityHigh}
	default:
		return Profile{Channel: ChannelDue, Priority: PriorityHigh}
	}
}
