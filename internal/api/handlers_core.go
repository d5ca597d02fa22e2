package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/meditrack/internal/db"
	"go.uber.org/zap"
)

func (handler *Handler) Health(c *fiber.Ctx) error {
	if err := db.Ping(handler.db); err != nil {
		handler.logger.Warn("health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	return apiError(c, fiber.StatusNotFound, "not found")
}

// RunCleanup runs the retention sweep on demand.
func (handler *Handler) RunCleanup(c *fiber.Ctx) error {
	result, err := handler.retentionService.Sweep(c.UserContext())
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	handler.logger.Info("manual retention sweep",
		zap.Int64("deleted_intakes", result.DeletedIntakes),
		zap.Int64("deleted_notifications", result.DeletedNotifications),
	)
	return c.JSON(fiber.Map{
		"success":              true,
		"deletedCount":         result.DeletedIntakes,
		"deletedNotifications": result.DeletedNotifications,
		"message":              fmt.Sprintf("Removed %d old intake records", result.DeletedIntakes),
	})
}

// ErrorHandler renders errors escaping the handlers, such as fiber's body
// limit and routing errors, as JSON.
func (handler *Handler) ErrorHandler(c *fiber.Ctx, err error) error {
	if fiberErr, ok := err.(*fiber.Error); ok {
		return apiError(c, fiberErr.Code, fiberErr.Message)
	}
	return handler.respondServiceError(c, err)
}
