package models

import "time"

const RentalStatusActive = "active"

// RentalRequest is the subset of a rental document the overdue scan needs.
type RentalRequest struct {
	ID         string    `bson:"_id" firestore:"-" json:"id"`
	ItemID     string    `bson:"itemId" firestore:"itemId" json:"itemId"`
	ItemTitle  string    `bson:"itemTitle" firestore:"itemTitle" json:"itemTitle"`
	RenterID   string    `bson:"renterId" firestore:"renterId" json:"renterId"`
	RenterName string    `bson:"renterName" firestore:"renterName" json:"renterName"`
	OwnerID    string    `bson:"ownerId" firestore:"ownerId" json:"ownerId"`
	OwnerName  string    `bson:"ownerName" firestore:"ownerName" json:"ownerName"`
	Status     string    `bson:"status" firestore:"status" json:"status"`
	EndDate    time.Time `bson:"endDate" firestore:"endDate" json:"endDate"`
}
