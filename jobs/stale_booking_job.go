package jobs

import (
	"log"
	"time"

	"github.com/brianodhis/lessonlink/database"
	"github.com/brianodhis/lessonlink/models"
)

// ExpireStalePendingBookings rejects pending requests whose day has
// already passed, so a student ignored by the teacher is not left pending
// forever. Rejection is terminal, same as a cascade rejection.
func ExpireStalePendingBookings() {
	log.Println("Running job: ExpireStalePendingBookings...")

	today := time.Now().Format(models.DayLayout)

	result := database.DB.Model(&models.Booking{}).
		Where("status = ? AND day < ?", models.BookingStatusPending, today).
		Update("status", models.BookingStatusRejected)
	if result.Error != nil {
		log.Printf("Error expiring stale pending bookings: %v", result.Error)
		return
	}

	if result.RowsAffected == 0 {
		log.Println("No stale pending bookings found.")
		return
	}
	log.Printf("Rejected %d stale pending booking(s).", result.RowsAffected)
}
