package routes

import (
	"github.com/brianodhis/lessonlink/handlers"
	"github.com/brianodhis/lessonlink/middleware"
	"github.com/gofiber/fiber/v2"
)

func TeacherRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/teachers/:teacherId/availability", handlers.GetTeacherAvailability)

	availability := api.Group("/teacher/availability", middleware.Protected(), middleware.TeacherRequired())
	availability.Post("", handlers.CreateAvailabilitySlot)
	availability.Get("/me", handlers.GetMyAvailability)
	availability.Put("/:slotId", handlers.UpdateAvailabilitySlot)
	availability.Delete("/:slotId", handlers.DeleteAvailabilitySlot)
}
