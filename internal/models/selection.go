package models

import "time"

// Selection is a student's uncommitted intent to enroll in a class. It
// exists only between select and either cancel or confirm, and snapshots
// the class fields visible at selection time.
type Selection struct {
	ID              string    `db:"id" json:"id"`
	ClassID         string    `db:"class_id" json:"class_id"`
	StudentEmail    string    `db:"student_email" json:"student_email"`
	ClassName       string    `db:"class_name" json:"class_name"`
	ClassImageURL   string    `db:"class_image_url" json:"class_image_url,omitempty"`
	InstructorEmail string    `db:"instructor_email" json:"instructor_email"`
	Price           int64     `db:"price" json:"price"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
