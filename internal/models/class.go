package models

import "time"

// ClassStatus is the moderation state of a class listing.
type ClassStatus string

const (
	ClassStatusPending  ClassStatus = "PENDING"
	ClassStatusApproved ClassStatus = "APPROVED"
	ClassStatusDenied   ClassStatus = "DENIED"
)

// Valid reports whether the status is one of the known values.
func (s ClassStatus) Valid() bool {
	switch s {
	case ClassStatusPending, ClassStatusApproved, ClassStatusDenied:
		return true
	}
	return false
}

// Terminal reports whether the status is a final moderation decision.
func (s ClassStatus) Terminal() bool {
	return s == ClassStatusApproved || s == ClassStatusDenied
}

// Class is a bookable listing. TotalSeats and EnrolledCount move only
// through the reservation confirm path, by one, together.
type Class struct {
	ID              string      `db:"id" json:"id"`
	InstructorEmail string      `db:"instructor_email" json:"instructor_email"`
	InstructorName  string      `db:"instructor_name" json:"instructor_name"`
	Name            string      `db:"name" json:"name"`
	ImageURL        string      `db:"image_url" json:"image_url,omitempty"`
	Price           int64       `db:"price" json:"price"`
	TotalSeats      int         `db:"total_seats" json:"total_seats"`
	EnrolledCount   int         `db:"enrolled_count" json:"enrolled_count"`
	Status          ClassStatus `db:"status" json:"status"`
	Feedback        *string     `db:"feedback" json:"feedback,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassFilter narrows class listings.
type ClassFilter struct {
	InstructorEmail string
	Status          ClassStatus
	Page            int
	PageSize        int
}

// ClassUpdate carries the optional fields of a partial update; nil fields
// are left unchanged.
type ClassUpdate struct {
	Name       *string `json:"name,omitempty"`
	ImageURL   *string `json:"image_url,omitempty"`
	Price      *int64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	TotalSeats *int    `json:"total_seats,omitempty" validate:"omitempty,gte=0"`
}
