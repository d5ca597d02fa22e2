package api

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	user, err := handler.authenticateRequest(c)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(contextUserKey, user)
	return c.Next()
}

// AdminOnly guards operator routes with the X-Admin-Token header.
func (handler *Handler) AdminOnly(c *fiber.Ctx) error {
	provided := c.Get("X-Admin-Token")
	if handler.adminToken == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(handler.adminToken)) != 1 {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.Next()
}
