package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookingStatusPending  = "pending"
	BookingStatusApproved = "approved"
	BookingStatusRejected = "rejected"
)

// Booking is one student's claim on one (teacher, day, start, end) tuple.
// At most one row per tuple may ever hold the approved status; several
// pending rows from different students may coexist until the teacher
// decides.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID uuid.UUID `gorm:"not null;index" json:"student_id"`
	TeacherID uuid.UUID `gorm:"not null;index" json:"teacher_id"`
	Day       string    `gorm:"size:10;not null" json:"day"`
	StartTime string    `gorm:"size:5;not null" json:"start_time"`
	EndTime   string    `gorm:"size:5;not null" json:"end_time"`
	Status    string    `gorm:"size:10;not null;default:'pending'" json:"status"`

	Student User `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Teacher User `gorm:"foreignkey:TeacherID" json:"teacher,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
