package handlers

import (
	"github.com/brianodhis/lessonlink/middleware"
	"github.com/brianodhis/lessonlink/models"
	"github.com/brianodhis/lessonlink/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AvailabilitySlotRequest struct {
	Date       *string            `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Weekday    *string            `json:"weekday,omitempty"`
	TimeRanges []models.TimeRange `json:"time_ranges" validate:"required,min=1"`
}

func (r AvailabilitySlotRequest) spec() services.SlotSpec {
	return services.SlotSpec{
		Date:       r.Date,
		Weekday:    r.Weekday,
		TimeRanges: models.TimeRangeList(r.TimeRanges),
	}
}

func CreateAvailabilitySlot(c *fiber.Ctx) error {
	teacherID, _ := middleware.Subject(c)

	var req AvailabilitySlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	slot, err := services.CreateAvailabilitySlot(teacherID, req.spec())
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(slot)
}

func UpdateAvailabilitySlot(c *fiber.Ctx) error {
	teacherID, _ := middleware.Subject(c)

	slotID, err := uuid.Parse(c.Params("slotId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	var req AvailabilitySlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	slot, err := services.UpdateAvailabilitySlot(slotID, teacherID, req.spec())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(slot)
}

func DeleteAvailabilitySlot(c *fiber.Ctx) error {
	teacherID, _ := middleware.Subject(c)

	slotID, err := uuid.Parse(c.Params("slotId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot id"})
	}

	if err := services.DeleteAvailabilitySlot(slotID, teacherID); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyAvailability returns the teacher's own schedule in its effective
// form: past-dated slots dropped, approved bookings subtracted.
func GetMyAvailability(c *fiber.Ctx) error {
	teacherID, _ := middleware.Subject(c)

	slots, err := services.EffectiveAvailability(teacherID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(slots)
}

// GetTeacherAvailability is the public, student-facing bookable view.
func GetTeacherAvailability(c *fiber.Ctx) error {
	teacherID, err := uuid.Parse(c.Params("teacherId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid teacher id"})
	}

	slots, err := services.EffectiveAvailability(teacherID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(slots)
}
