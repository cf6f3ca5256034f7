package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/brianodhis/lessonlink/database"
	"github.com/brianodhis/lessonlink/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// SlotSpec is the teacher-supplied shape of an availability slot: either
// a concrete date or a recurring weekday, plus the offered time ranges.
type SlotSpec struct {
	Date       *string
	Weekday    *string
	TimeRanges models.TimeRangeList
}

func (s SlotSpec) validate() error {
	if (s.Date == nil) == (s.Weekday == nil) {
		return Invalid("exactly one of date or weekday is required")
	}
	if s.Date != nil {
		if _, err := time.Parse(models.DayLayout, *s.Date); err != nil {
			return Invalid(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", *s.Date))
		}
	}
	if s.Weekday != nil && !weekdays[*s.Weekday] {
		return Invalid(fmt.Sprintf("invalid weekday %q", *s.Weekday))
	}
	if err := s.TimeRanges.Validate(); err != nil {
		return Invalid(err.Error())
	}
	return nil
}

func CreateAvailabilitySlot(teacherID uuid.UUID, spec SlotSpec) (*models.AvailabilitySlot, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	slot := models.AvailabilitySlot{
		TeacherID:  teacherID,
		Date:       spec.Date,
		Weekday:    spec.Weekday,
		TimeRanges: spec.TimeRanges.Sorted(),
	}
	if err := database.DB.Create(&slot).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func UpdateAvailabilitySlot(slotID, teacherID uuid.UUID, spec SlotSpec) (*models.AvailabilitySlot, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	var slot models.AvailabilitySlot
	if err := database.DB.First(&slot, "id = ?", slotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("availability slot not found")
		}
		return nil, err
	}
	if slot.TeacherID != teacherID {
		return nil, Forbidden("you do not own this availability slot")
	}

	slot.Date = spec.Date
	slot.Weekday = spec.Weekday
	slot.TimeRanges = spec.TimeRanges.Sorted()
	if err := database.DB.Save(&slot).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// DeleteAvailabilitySlot removes a declared slot. Bookings reference the
// concrete day and times rather than this row, so nothing cascades.
func DeleteAvailabilitySlot(slotID, teacherID uuid.UUID) error {
	var slot models.AvailabilitySlot
	if err := database.DB.First(&slot, "id = ?", slotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("availability slot not found")
		}
		return err
	}
	if slot.TeacherID != teacherID {
		return Forbidden("you do not own this availability slot")
	}
	return database.DB.Delete(&models.AvailabilitySlot{}, "id = ?", slotID).Error
}

// ListTeacherSlots returns every declared slot for a teacher, unfiltered.
func ListTeacherSlots(teacherID uuid.UUID) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	err := database.DB.
		Where("teacher_id = ?", teacherID).
		Order("created_at asc").
		Find(&slots).Error
	return slots, err
}

// EffectiveAvailability projects the bookable view for a teacher: declared
// slots minus the time ranges of currently approved bookings. Dated slots
// strictly before today are dropped; recurring weekday slots have no
// concrete date and are always kept. The result is recomputed from the two
// source tables on every call and is never cached.
func EffectiveAvailability(teacherID uuid.UUID) ([]models.AvailabilitySlot, error) {
	slots, err := ListTeacherSlots(teacherID)
	if err != nil {
		return nil, err
	}

	var approved []models.Booking
	if err := database.DB.
		Where("teacher_id = ? AND status = ?", teacherID, models.BookingStatusApproved).
		Find(&approved).Error; err != nil {
		return nil, err
	}

	booked := make(map[string]bool, len(approved))
	for _, b := range approved {
		booked[bookingKey(b.Day, b.StartTime, b.EndTime)] = true
	}

	result := make([]models.AvailabilitySlot, 0, len(slots))
	today := time.Now().Format(models.DayLayout)
	for _, slot := range slots {
		if slot.Date != nil && *slot.Date < today {
			continue
		}
		var free models.TimeRangeList
		for _, r := range slot.TimeRanges {
			if slot.Date != nil && booked[bookingKey(*slot.Date, r.Start, r.End)] {
				continue
			}
			free = append(free, r)
		}
		if len(free) == 0 {
			continue
		}
		slot.TimeRanges = free
		result = append(result, slot)
	}
	return result, nil
}

func bookingKey(day, start, end string) string {
	return day + "|" + start + "|" + end
}
