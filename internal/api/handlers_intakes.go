package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/meditrack/internal/services"
)

func (handler *Handler) ListIntakes(c *fiber.Ctx) error {
	intakes, err := handler.intakeService.ListAll(currentUser(c).ID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(newIntakeViews(intakes))
}

func (handler *Handler) ListTodayIntakes(c *fiber.Ctx) error {
	intakes, err := handler.intakeService.ListToday(currentUser(c).ID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(newIntakeViews(intakes))
}

func (handler *Handler) IntakeHistory(c *fiber.Ctx) error {
	intakes, err := handler.intakeService.History(currentUser(c).ID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(newIntakeViews(intakes))
}

// RecordIntake answers 201 for a new intake and 200 with the existing one
// when the schedule was already recorded today.
func (handler *Handler) RecordIntake(c *fiber.Ctx) error {
	var payload intakePayload
	if err := c.BodyParser(&payload); err != nil {
		return handler.respondServiceError(c, fmt.Errorf("%w: %v", services.ErrInvalidIntakeInput, err))
	}

	details, created, err := handler.intakeService.RecordIntake(currentUser(c).ID, services.IntakeInput{
		ScheduleID:    uint(payload.ScheduleID),
		Schedule:      uint(payload.Schedule),
		MedicineID:    uint(payload.MedicineID),
		Medicine:      uint(payload.Medicine),
		ScheduledTime: payload.ScheduledTime,
		Time:          payload.Time,
		Status:        payload.Status,
		Notes:         payload.Notes,
	})
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(newIntakeView(details))
}

func (handler *Handler) DeleteIntake(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid intake id")
	}

	if err := handler.intakeService.DeleteIntake(currentUser(c).ID, id); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Intake deleted successfully"})
}
