package models

import "time"

// Notification is the in-app record shown in a user's notification list.
type Notification struct {
	ID         string    `bson:"_id" firestore:"-" json:"id"`
	ToUserID   string    `bson:"toUserId" firestore:"toUserId" json:"toUserId"`
	Type       string    `bson:"type" firestore:"type" json:"type"`
	Title      string    `bson:"title" firestore:"title" json:"title"`
	Body       string    `bson:"body" firestore:"body" json:"body"`
	ItemID     string    `bson:"itemId,omitempty" firestore:"itemId,omitempty" json:"itemId,omitempty"`
	ItemTitle  string    `bson:"itemTitle,omitempty" firestore:"itemTitle,omitempty" json:"itemTitle,omitempty"`
	ReminderID string    `bson:"reminderId,omitempty" firestore:"reminderId,omitempty" json:"reminderId,omitempty"`
	Day        string    `bson:"day" firestore:"day" json:"day"`
	Status     string    `bson:"status" firestore:"status" json:"status"`
	CreatedAt  time.Time `bson:"createdAt" firestore:"createdAt" json:"createdAt"`
}

const NotificationUnread = "unread"
