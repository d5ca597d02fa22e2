package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/meditrack/internal/models"
	"github.com/terraincognita07/meditrack/internal/services"
)

func (handler *Handler) Register(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	user, err := handler.authService.Register(input.Name, input.Email, input.Password)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return handler.respondWithToken(c, fiber.StatusCreated, user)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	key := requestLimiterKey(c)
	now := time.Now()
	if handler.loginLimiter.blocked(key, now) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts, try again later")
	}

	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	user, err := handler.authService.Authenticate(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			handler.loginLimiter.addFailure(key, now)
		}
		return handler.respondServiceError(c, err)
	}

	handler.loginLimiter.reset(key)
	return handler.respondWithToken(c, fiber.StatusOK, user)
}

func (handler *Handler) CurrentUser(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(newUserView(*user))
}

func (handler *Handler) respondWithToken(c *fiber.Ctx, status int, user models.User) error {
	token, err := handler.buildToken(&user, handler.tokenTTL)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(status).JSON(authResponse{Token: token, User: newUserView(user)})
}
