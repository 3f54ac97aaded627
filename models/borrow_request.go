package models

const BorrowStatusPending = "pending"

// BorrowRequest is a request from a borrower to a lender for an item.
type BorrowRequest struct {
	ID           string `bson:"_id" firestore:"-" json:"id"`
	ItemID       string `bson:"itemId" firestore:"itemId" json:"itemId"`
	ItemTitle    string `bson:"itemTitle" firestore:"itemTitle" json:"itemTitle"`
	LenderID     string `bson:"lenderId" firestore:"lenderId" json:"lenderId"`
	BorrowerID   string `bson:"borrowerId" firestore:"borrowerId" json:"borrowerId"`
	BorrowerName string `bson:"borrowerName" firestore:"borrowerName" json:"borrowerName"`
	Status       string `bson:"status" firestore:"status" json:"status"`
}
