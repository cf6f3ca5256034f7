package routes

import (
	"github.com/brianodhis/lessonlink/handlers"
	"github.com/brianodhis/lessonlink/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("", handlers.CreateBooking)
	booking.Delete("/:bookingId", handlers.DeleteBooking)

	teacherBooking := api.Group("/teacher/bookings", middleware.Protected(), middleware.TeacherRequired())
	teacherBooking.Get("", handlers.GetMyTeacherBookings)
	teacherBooking.Patch("/:bookingId/status", handlers.SetBookingStatus)

	adminBooking := api.Group("/admin/bookings", middleware.Protected(), middleware.AdminRequired())
	adminBooking.Delete("/:bookingId", handlers.DeleteBooking)
}
