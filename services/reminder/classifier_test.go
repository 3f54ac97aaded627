package reminder

import (
	"testing"

	"bridge/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		kind models.ReminderKind
		want Profile
	}{
		{models.KindOverdue, Profile{Channel: ChannelOverdue, Priority: PriorityUrgent, OverdueClass: true, Recurring: true}},
		{models.KindRentalOverdue, Profile{Channel: ChannelRentalOverdue, Priority: PriorityUrgent, OverdueClass: true, Recurring: true}},
		{models.KindMonthlyPaymentOverdue, Profile{Channel: ChannelRental, Priority: PriorityUrgent}},
		{models.KindMonthlyPaymentDue, Profile{Channel: ChannelRental, Priority: PriorityHigh}},
		{models.KindMonthlyPaymentUpcoming, Profile{Channel: ChannelRental, Priority: PriorityHigh}},
		{models.KindRentalStart, Profile{Channel: ChannelRental, Priority: PriorityHigh}},
		{models.KindRentalDue, Profile{Channel: ChannelRental, Priority: PriorityHigh}},
		{models.KindDueIn24h, Profile{Channel: ChannelDue, Priority: PriorityHigh, CompanionType: "return_reminder_24h"}},
		{models.KindDueIn1h, Profile{Channel: ChannelDue, Priority: PriorityHigh, CompanionType: "return_reminder_1h"}},
		{models.KindDue, Profile{Channel: ChannelDue, Priority: PriorityHigh, CompanionType: "return_reminder_due"}},
		// unknown members of known families
		{"rental_extension", Profile{Channel: ChannelRental, Priority: PriorityHigh}},
		{"monthly_payment_final_overdue", Profile{Channel: ChannelRental, Priority: PriorityUrgent}},
		{"monthly_payment_receipt", Profile{Channel: ChannelRental, Priority: PriorityHigh}},
		// fully unknown
		{"", Profile{Channel: ChannelDue, Priority: PriorityHigh}},
		{"weekly_digest", Profile{Channel: ChannelDue, Priority: PriorityHigh}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.kind))
		})
	}
}

func TestClassify_OnlyOverdueKindsRecur(t *testing.T) {
	for _, kind := range []models.ReminderKind{
		models.KindDueIn24h, models.KindDueIn1h, models.KindDue,
		models.KindRentalStart, models.KindRentalDueIn24h, models.KindRentalDueIn1h, models.KindRentalDue,
		models.KindMonthlyPaymentUpcoming, models.KindMonthlyPaymentDue, models.KindMonthlyPaymentOverdue,
	} {
		assert.False(t, Classify(kind).Recurring, kind)
	}
}

func TestChannel_AndroidChannelID(t *testing.T) {
	assert.Equal(t, "due_reminders", ChannelDue.AndroidChannelID())
	assert.Equal(t, "overdue_reminders", ChannelOverdue.AndroidChannelID())
	assert.Equal(t, "rental_reminders", ChannelRental.AndroidChannelID())
	assert.Equal(t, "rental_overdue_reminders", ChannelRentalOverdue.AndroidChannelID())
}
