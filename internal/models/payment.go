package models

import "time"

// Payment is an append-only ledger row recorded after the gateway confirms
// a charge. Amount is in minor currency units.
type Payment struct {
	ID              string    `db:"id" json:"id"`
	StudentEmail    string    `db:"student_email" json:"student_email"`
	InstructorEmail string    `db:"instructor_email" json:"instructor_email"`
	ClassID         string    `db:"class_id" json:"class_id"`
	ClassName       string    `db:"class_name" json:"class_name"`
	Amount          int64     `db:"amount" json:"amount"`
	Currency        string    `db:"currency" json:"currency"`
	TransactionID   string    `db:"transaction_id" json:"transaction_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
