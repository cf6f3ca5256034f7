package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/brianodhis/lessonlink/middleware"
	"github.com/brianodhis/lessonlink/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

func serviceError(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return c.Status(svcErr.Code).JSON(fiber.Map{"error": svcErr.Message})
	}
	log.Printf("🔥 Unexpected service error: %v | Path: %s", err, c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong, please try again."})
}

type CreateBookingRequest struct {
	TeacherID string `json:"teacher_id" validate:"required,uuid"`
	Day       string `json:"day" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

func CreateBooking(c *fiber.Ctx) error {
	studentID, _ := middleware.Subject(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	teacherID, _ := uuid.Parse(req.TeacherID)

	booking, warning, err := services.CreateBooking(studentID, teacherID, req.Day, req.StartTime, req.EndTime)
	if err != nil {
		return serviceError(c, err)
	}

	body := fiber.Map{"booking": booking}
	if warning != "" {
		body["warning"] = warning
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

type SetBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func SetBookingStatus(c *fiber.Ctx) error {
	teacherID, _ := middleware.Subject(c)

	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req SetBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, err := services.SetBookingStatus(bookingID, teacherID, req.Status)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(booking)
}

func DeleteBooking(c *fiber.Ctx) error {
	subjectID, role := middleware.Subject(c)

	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	if err := services.DeleteBooking(bookingID, subjectID, role); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func GetMyBookings(c *fiber.Ctx) error {
	studentID, _ := middleware.Subject(c)
	page, limit := pagination(c)

	bookings, err := services.ListStudentBookings(studentID, page, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(bookings)
}

func GetMyTeacherBookings(c *fiber.Ctx) error {
	teacherID, _ := middleware.Subject(c)
	page, limit := pagination(c)

	bookings, err := services.ListTeacherBookings(teacherID, page, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(bookings)
}

func pagination(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	return page, limit
}
