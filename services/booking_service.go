package services

import (
	"errors"

	"github.com/brianodhis/lessonlink/database"
	"github.com/brianodhis/lessonlink/models"
	"github.com/brianodhis/lessonlink/websocket"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompetingRequestWarning is attached to a successful booking creation
// when another student already holds a pending request for the same slot.
// Competitive requests are allowed; the teacher decides at approval time.
const CompetingRequestWarning = "another student has also requested this slot; the teacher will decide"

// CreateBooking validates a student's claim on a (teacher, day, start, end)
// tuple and inserts it as pending. The returned warning is empty unless
// another student's pending request already exists for the same tuple.
func CreateBooking(studentID, teacherID uuid.UUID, day, start, end string) (*models.Booking, string, error) {
	if start >= end {
		return nil, "", Invalid("start time must be before end time")
	}

	var teacher models.User
	err := database.DB.First(&teacher, "id = ? AND role = ?", teacherID, models.RoleTeacher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", NotFound("teacher not found")
		}
		return nil, "", err
	}

	contacted, err := HasMessageHistory(studentID, teacherID)
	if err != nil {
		return nil, "", err
	}
	if !contacted {
		return nil, "", Forbidden("you must message this teacher before requesting a lesson")
	}

	var approvedCount int64
	err = database.DB.Model(&models.Booking{}).
		Where("teacher_id = ? AND day = ? AND start_time = ? AND end_time = ? AND status = ?",
			teacherID, day, start, end, models.BookingStatusApproved).
		Count(&approvedCount).Error
	if err != nil {
		return nil, "", err
	}
	if approvedCount > 0 {
		return nil, "", Conflict("slot already booked")
	}

	var ownCount int64
	err = database.DB.Model(&models.Booking{}).
		Where("student_id = ? AND teacher_id = ? AND day = ? AND start_time = ? AND end_time = ? AND status IN ?",
			studentID, teacherID, day, start, end,
			[]string{models.BookingStatusPending, models.BookingStatusApproved}).
		Count(&ownCount).Error
	if err != nil {
		return nil, "", err
	}
	if ownCount > 0 {
		return nil, "", Conflict("duplicate request")
	}

	var competingCount int64
	err = database.DB.Model(&models.Booking{}).
		Where("student_id <> ? AND teacher_id = ? AND day = ? AND start_time = ? AND end_time = ? AND status = ?",
			studentID, teacherID, day, start, end, models.BookingStatusPending).
		Count(&competingCount).Error
	if err != nil {
		return nil, "", err
	}

	booking := models.Booking{
		StudentID: studentID,
		TeacherID: teacherID,
		Day:       day,
		StartTime: start,
		EndTime:   end,
		Status:    models.BookingStatusPending,
	}
	if err := database.DB.Create(&booking).Error; err != nil {
		return nil, "", err
	}

	websocket.Publish(
		[]string{websocket.UserRoom(teacherID), websocket.BookingsRoom(teacherID)},
		websocket.Event{Type: websocket.EventBookingRequested, Payload: booking},
	)

	warning := ""
	if competingCount > 0 {
		warning = CompetingRequestWarning
	}
	return &booking, warning, nil
}

// SetBookingStatus applies a teacher's decision. Approval runs as one
// transaction over every row sharing the tuple: the rows are locked,
// re-checked for a concurrently approved winner, every other pending row
// is rejected, and the chosen row's own status is written last. Without
// the lock and re-check, two concurrent approvals on the same tuple could
// both land as approved.
func SetBookingStatus(bookingID, actingTeacherID uuid.UUID, status string) (*models.Booking, error) {
	if status != models.BookingStatusApproved && status != models.BookingStatusRejected {
		return nil, Invalid("status must be approved or rejected")
	}

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("booking not found")
		}
		return nil, err
	}
	if booking.TeacherID != actingTeacherID {
		return nil, Forbidden("you are not the teacher for this booking")
	}
	if booking.Status == status {
		return &booking, nil
	}
	if booking.Status != models.BookingStatusPending {
		return nil, Conflict("booking already decided")
	}

	if status == models.BookingStatusRejected {
		if err := database.DB.Model(&booking).Update("status", models.BookingStatusRejected).Error; err != nil {
			return nil, err
		}
		booking.Status = models.BookingStatusRejected
		websocket.Publish(
			[]string{websocket.UserRoom(booking.StudentID), websocket.BookingsRoom(booking.StudentID)},
			websocket.Event{Type: websocket.EventBookingStatusChanged, Status: booking.Status, Payload: booking},
		)
		return &booking, nil
	}

	var rejected []models.Booking
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var rows []models.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("teacher_id = ? AND day = ? AND start_time = ? AND end_time = ?",
				booking.TeacherID, booking.Day, booking.StartTime, booking.EndTime).
			Find(&rows).Error; err != nil {
			return err
		}

		var loserIDs []uuid.UUID
		for _, row := range rows {
			if row.ID == booking.ID {
				continue
			}
			switch row.Status {
			case models.BookingStatusApproved:
				return Conflict("slot was just booked by another student; refresh and retry")
			case models.BookingStatusPending:
				loserIDs = append(loserIDs, row.ID)
				row.Status = models.BookingStatusRejected
				rejected = append(rejected, row)
			}
		}

		if len(loserIDs) > 0 {
			if err := tx.Model(&models.Booking{}).
				Where("id IN ?", loserIDs).
				Update("status", models.BookingStatusRejected).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("status", models.BookingStatusApproved).Error
	})
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		return nil, err
	}
	booking.Status = models.BookingStatusApproved

	websocket.Publish(
		[]string{
			websocket.UserRoom(booking.StudentID),
			websocket.BookingsRoom(booking.StudentID),
			websocket.BookingsRoom(booking.TeacherID),
		},
		websocket.Event{Type: websocket.EventBookingStatusChanged, Status: booking.Status, Payload: booking},
	)
	for _, loser := range rejected {
		websocket.Publish(
			[]string{websocket.UserRoom(loser.StudentID), websocket.BookingsRoom(loser.StudentID)},
			websocket.Event{Type: websocket.EventBookingStatusChanged, Status: loser.Status, Payload: loser},
		)
	}
	websocket.Publish(
		[]string{websocket.AvailabilityRoom(booking.TeacherID)},
		websocket.Event{Type: websocket.EventAvailabilityInvalidated, Payload: booking.TeacherID},
	)

	return &booking, nil
}

// DeleteBooking cancels a booking and removes the row. Rejection is
// terminal: deleting an approved booking frees the slot but never
// resurrects rows that were cascade-rejected earlier.
func DeleteBooking(bookingID, actingSubjectID uuid.UUID, actingRole string) error {
	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("booking not found")
		}
		return err
	}
	if actingSubjectID != booking.StudentID && actingSubjectID != booking.TeacherID && actingRole != models.RoleAdmin {
		return Forbidden("you cannot cancel this booking")
	}

	if err := database.DB.Delete(&models.Booking{}, "id = ?", bookingID).Error; err != nil {
		return err
	}

	websocket.Publish(
		[]string{
			websocket.UserRoom(booking.StudentID),
			websocket.UserRoom(booking.TeacherID),
			websocket.BookingsRoom(booking.StudentID),
			websocket.BookingsRoom(booking.TeacherID),
		},
		websocket.Event{Type: websocket.EventBookingCancelled, Payload: booking},
	)
	if booking.Status == models.BookingStatusApproved {
		websocket.Publish(
			[]string{websocket.AvailabilityRoom(booking.TeacherID)},
			websocket.Event{Type: websocket.EventAvailabilityInvalidated, Payload: booking.TeacherID},
		)
	}
	return nil
}

func ListStudentBookings(studentID uuid.UUID, page, limit int) ([]models.Booking, error) {
	return listBookings("student_id = ?", studentID, page, limit)
}

func ListTeacherBookings(teacherID uuid.UUID, page, limit int) ([]models.Booking, error) {
	return listBookings("teacher_id = ?", teacherID, page, limit)
}

func listBookings(cond string, id uuid.UUID, page, limit int) ([]models.Booking, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var bookings []models.Booking
	err := database.DB.
		Where(cond, id).
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&bookings).Error
	return bookings, err
}
