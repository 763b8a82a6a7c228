package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/userauth/internal/middleware"
	"github.com/example/userauth/internal/services"
)

// VerificationHandler serves the email verification endpoints.
type VerificationHandler struct {
	auth *services.AuthService
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(auth *services.AuthService) *VerificationHandler {
	return &VerificationHandler{auth: auth}
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required,len=36"`
}

// Verify consumes the token from a verification link.
func (h *VerificationHandler) Verify(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.VerifyEmail(c.UserContext(), req.Token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Resend mails a fresh verification link to the authenticated user.
func (h *VerificationHandler) Resend(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.auth.ResendVerification(c.UserContext(), user); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
