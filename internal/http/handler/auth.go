package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"filevault/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register creates an account.
//
// @Summary  Register
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body credentialsRequest true "credentials"
// @Success  201 {object} registerResponse
// @Failure  400 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Router   /auth/register [post]
func Register(auth service.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		}

		u, err := auth.Register(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(registerResponse{
			ID:      u.ID,
			Email:   u.Email,
			Message: "User registered successfully",
		})
	}
}

// Login exchanges credentials for a bearer session token.
//
// @Summary  Login
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body credentialsRequest true "credentials"
// @Success  200 {object} loginResponse
// @Failure  401 {object} errorPayload
// @Router   /auth/login [post]
func Login(auth service.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		}

		sess, err := auth.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(loginResponse{
			Token:     sess.Token,
			TokenType: "Bearer",
			ExpiresAt: sess.ExpiresAt,
		})
	}
}
