package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Layouts for the date-only and time-of-day strings used across the
// availability and booking tables. Both sort lexicographically.
const (
	DayLayout  = "2006-01-02"
	TimeLayout = "15:04"
)

type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeRangeList is stored as a single jsonb column.
type TimeRangeList []TimeRange

func (l TimeRangeList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *TimeRangeList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into TimeRangeList", value)
	}
}

// Validate checks that every range is a well-formed HH:MM pair with
// start before end, and that no two ranges overlap.
func (l TimeRangeList) Validate() error {
	if len(l) == 0 {
		return errors.New("at least one time range is required")
	}
	for _, r := range l {
		if _, err := time.Parse(TimeLayout, r.Start); err != nil {
			return fmt.Errorf("invalid start time %q", r.Start)
		}
		if _, err := time.Parse(TimeLayout, r.End); err != nil {
			return fmt.Errorf("invalid end time %q", r.End)
		}
		if r.Start >= r.End {
			return fmt.Errorf("start time %q must be before end time %q", r.Start, r.End)
		}
	}
	sorted := make(TimeRangeList, len(l))
	copy(sorted, l)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End {
			return fmt.Errorf("time ranges %s-%s and %s-%s overlap",
				sorted[i-1].Start, sorted[i-1].End, sorted[i].Start, sorted[i].End)
		}
	}
	return nil
}

// Sorted returns the ranges ordered by start time.
func (l TimeRangeList) Sorted() TimeRangeList {
	sorted := make(TimeRangeList, len(l))
	copy(sorted, l)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return sorted
}

// AvailabilitySlot holds a teacher's offered time ranges for either one
// concrete calendar date or a recurring weekday. Exactly one of Date and
// Weekday is set. A booking references the concrete day and times, not
// this row, so deleting a slot never cascades into bookings.
type AvailabilitySlot struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TeacherID  uuid.UUID     `gorm:"not null;index" json:"teacher_id"`
	Date       *string       `gorm:"size:10" json:"date,omitempty"`
	Weekday    *string       `gorm:"size:9" json:"weekday,omitempty"`
	TimeRanges TimeRangeList `gorm:"type:jsonb;not null" json:"time_ranges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
