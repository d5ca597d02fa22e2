package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/meditrack/internal/services"
)

func (handler *Handler) ListSchedules(c *fiber.Ctx) error {
	activeOnly := strings.EqualFold(strings.TrimSpace(c.Query("active")), "true")

	schedules, err := handler.scheduleService.ListSchedules(currentUser(c).ID, activeOnly)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(newScheduleViews(schedules))
}

func (handler *Handler) ListSchedulesByMedicine(c *fiber.Ctx) error {
	medicineID, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid medicine id")
	}

	schedules, err := handler.scheduleService.ListByMedicine(currentUser(c).ID, medicineID)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(newScheduleViews(schedules))
}

func (handler *Handler) CreateSchedule(c *fiber.Ctx) error {
	input, err := parseScheduleInput(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	details, err := handler.scheduleService.CreateSchedule(currentUser(c).ID, input)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newScheduleView(details))
}

func (handler *Handler) UpdateSchedule(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid schedule id")
	}
	input, err := parseScheduleInput(c)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	details, err := handler.scheduleService.UpdateSchedule(currentUser(c).ID, id, input)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(newScheduleView(details))
}

func (handler *Handler) DeleteSchedule(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid schedule id")
	}

	if err := handler.scheduleService.DeleteSchedule(currentUser(c).ID, id); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Schedule deleted successfully"})
}

func parseScheduleInput(c *fiber.Ctx) (services.ScheduleInput, error) {
	var payload schedulePayload
	if err := c.BodyParser(&payload); err != nil {
		return services.ScheduleInput{}, fmt.Errorf("%w: %v", services.ErrInvalidScheduleInput, err)
	}
	return services.ScheduleInput{
		MedicineID: uint(payload.MedicineID),
		Medicine:   uint(payload.Medicine),
		Times:      payload.Times,
		Time:       payload.Time,
		Days:       payload.Days,
		Frequency:  payload.Frequency,
		IsActive:   payload.IsActive,
		StartDate:  payload.StartDate,
		EndDate:    payload.EndDate,
	}, nil
}
