// models/user.go
package models

import "time"

// UserProfile is the subset of a user document this service reads.
type UserProfile struct {
	ID                string    `bson:"_id" firestore:"-" json:"id"`
	FCMToken          string    `bson:"fcmToken,omitempty" firestore:"fcmToken,omitempty" json:"fcmToken,omitempty"`
	FCMTokenUpdatedAt time.Time `bson:"fcmTokenUpdatedAt,omitempty" firestore:"fcmTokenUpdatedAt,omitempty" json:"fcmTokenUpdatedAt,omitempty"`
}

// FCMTokenRecord is the per-user fallback token document in `fcm_tokens`.
type FCMTokenRecord struct {
	UserID    string    `bson:"_id" firestore:"-" json:"userId"`
	Token     string    `bson:"token" firestore:"token" json:"token"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" firestore:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
