package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/meditrack/internal/services"
)

func (handler *Handler) ListNotifications(c *fiber.Ctx) error {
	notifications, err := handler.notificationService.ListRecent(currentUser(c).ID, c.QueryInt("limit", 0))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(notifications)
}

func (handler *Handler) CreateNotification(c *fiber.Ctx) error {
	var payload notificationPayload
	if err := c.BodyParser(&payload); err != nil {
		return handler.respondServiceError(c, fmt.Errorf("%w: %v", services.ErrInvalidNotificationInput, err))
	}

	input := services.NotificationInput{
		Title:         payload.Title,
		Body:          payload.Body,
		Medicine:      payload.Medicine,
		ScheduledTime: payload.ScheduledTime,
	}
	if payload.ScheduleID != 0 {
		scheduleID := uint(payload.ScheduleID)
		input.ScheduleID = &scheduleID
	}

	notification, err := handler.notificationService.Append(currentUser(c).ID, input)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(notification)
}

func (handler *Handler) ClearNotifications(c *fiber.Ctx) error {
	if _, err := handler.notificationService.Clear(currentUser(c).ID); err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "All notifications cleared"})
}
