package models

import "time"

// Enrollment is the confirmed, terminal record of a student occupying a
// seat. Created exactly once per consumed selection, immutable after.
type Enrollment struct {
	ID              string    `db:"id" json:"id"`
	ClassID         string    `db:"class_id" json:"class_id"`
	StudentEmail    string    `db:"student_email" json:"student_email"`
	ClassName       string    `db:"class_name" json:"class_name"`
	InstructorEmail string    `db:"instructor_email" json:"instructor_email"`
	EnrolledAt      time.Time `db:"enrolled_at" json:"enrolled_at"`
}
