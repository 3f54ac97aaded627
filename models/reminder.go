package models

import "time"

// ReminderKind is the closed vocabulary of reminder types stored in `reminderType`.
type ReminderKind string

const (
	KindDueIn24h ReminderKind = "24h"
	KindDueIn1h  ReminderKind = "1h"
	KindDue      ReminderKind = "due"
	KindOverdue  ReminderKind = "overdue"

	KindRentalOverdue  ReminderKind = "rental_overdue"
	KindRentalStart    ReminderKind = "rental_start"
	KindRentalDueIn24h ReminderKind = "rental_24h"
	KindRentalDueIn1h  ReminderKind = "rental_1h"
	KindRentalDue      ReminderKind = "rental_due"

	KindMonthlyPaymentUpcoming ReminderKind = "monthly_payment_upcoming"
	KindMonthlyPaymentDue      ReminderKind = "monthly_payment_due"
	KindMonthlyPaymentOverdue  ReminderKind = "monthly_payment_overdue"
)

// Reminder is a persisted unit of scheduled push work.
type Reminder struct {
	ID        string       `bson:"_id" firestore:"-" json:"id"`
	UserID    string       `bson:"userId" firestore:"userId" json:"userId"`
	ItemID    string       `bson:"itemId" firestore:"itemId" json:"itemId"`
	ItemTitle string       `bson:"itemTitle" firestore:"itemTitle" json:"itemTitle"`
	Title     string       `bson:"title" firestore:"title" json:"title"`
	Body      string       `bson:"body" firestore:"body" json:"body"`
	Type      ReminderKind `bson:"reminderType" firestore:"reminderType" json:"reminderType"`

	ScheduledTime time.Time  `bson:"scheduledTime" firestore:"scheduledTime" json:"scheduledTime"`
	Sent          bool       `bson:"sent" firestore:"sent" json:"sent"`
	SentAt        *time.Time `bson:"sentAt,omitempty" firestore:"sentAt,omitempty" json:"sentAt,omitempty"`

	// Retry bookkeeping.
	RetryCount       int        `bson:"retryCount" firestore:"retryCount" json:"retryCount"`
	LastError        string     `bson:"lastError,omitempty" firestore:"lastError,omitempty" json:"lastError,omitempty"`
	LastRetryAttempt *time.Time `bson:"lastRetryAttempt,omitempty" firestore:"lastRetryAttempt,omitempty" json:"lastRetryAttempt,omitempty"`
	NextRetryTime    *time.Time `bson:"nextRetryTime,omitempty" firestore:"nextRetryTime,omitempty" json:"nextRetryTime,omitempty"`
	// Error is only set on terminal failure.
	Error string `bson:"error,omitempty" firestore:"error,omitempty" json:"error,omitempty"`

	RentalRequestID string `bson:"rentalRequestId,omitempty" firestore:"rentalRequestId,omitempty" json:"rentalRequestId,omitempty"`

	// Display metadata for either side of a borrow or rental.
	BorrowerName string `bson:"borrowerName,omitempty" firestore:"borrowerName,omitempty" json:"borrowerName,omitempty"`
	LenderName   string `bson:"lenderName,omitempty" firestore:"lenderName,omitempty" json:"lenderName,omitempty"`
	IsBorrower   bool   `bson:"isBorrower" firestore:"isBorrower" json:"isBorrower"`
	RenterName   string `bson:"renterName,omitempty" firestore:"renterName,omitempty" json:"renterName,omitempty"`
	OwnerName    string `bson:"ownerName,omitempty" firestore:"ownerName,omitempty" json:"ownerName,omitempty"`
	IsRenter     bool   `bson:"isRenter" firestore:"isRenter" json:"isRenter"`

	CreatedAt time.Time `bson:"createdAt" firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" firestore:"updatedAt" json:"updatedAt"`
}

// Stored field names used by partial updates.
const (
	FieldSent             = "sent"
	FieldSentAt           = "sentAt"
	FieldRetryCount       = "retryCount"
	FieldLastError        = "lastError"
	FieldLastRetryAttempt = "lastRetryAttempt"
	FieldNextRetryTime    = "nextRetryTime"
	FieldError            = "error"
	FieldUpdatedAt        = "updatedAt"
)
