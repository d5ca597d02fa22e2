package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/meditrack/internal/services"
	"github.com/terraincognita07/meditrack/internal/storage"
	"go.uber.org/zap"
)

var badRequestErrors = []error{
	services.ErrInvalidMedicineInput,
	services.ErrInvalidScheduleInput,
	services.ErrInvalidIntakeInput,
	services.ErrInvalidNotificationInput,
	services.ErrInvalidRegistration,
	services.ErrAuthCredentialsInvalid,
	services.ErrWeakPassword,
	services.ErrPasswordTooLong,
	storage.ErrInvalidImage,
}

var notFoundErrors = []error{
	services.ErrMedicineNotFound,
	services.ErrScheduleNotFound,
	services.ErrIntakeNotFound,
	services.ErrUserNotFound,
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognized is logged and reported as an internal error.
func (handler *Handler) respondServiceError(c *fiber.Ctx, err error) error {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return apiError(c, fiber.StatusBadRequest, err.Error())
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return apiError(c, fiber.StatusNotFound, target.Error())
		}
	}
	switch {
	case errors.Is(err, storage.ErrImageTooLarge):
		return apiError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		return apiError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return apiError(c, fiber.StatusUnauthorized, err.Error())
	}

	handler.logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return apiError(c, fiber.StatusInternalServerError, "internal error")
}

func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}
