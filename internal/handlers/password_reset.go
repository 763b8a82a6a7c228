package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/userauth/internal/middleware"
	"github.com/example/userauth/internal/services"
)

// PasswordHandler manages password change and forgot-password endpoints.
type PasswordHandler struct {
	auth *services.AuthService
}

// NewPasswordHandler constructs a PasswordHandler.
func NewPasswordHandler(auth *services.AuthService) *PasswordHandler {
	return &PasswordHandler{auth: auth}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required,min=3,max=50"`
	NewPassword string `json:"new_password" validate:"required,min=3,max=50"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,min=5,max=200,email"`
}

type confirmForgotPasswordRequest struct {
	Email    string `json:"email" validate:"required,min=5,max=200,email"`
	OTP      string `json:"otp" validate:"required,len=6"`
	Password string `json:"password" validate:"required,min=3,max=50"`
}

// ChangePassword replaces the password of the authenticated user.
func (h *PasswordHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	var req changePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.UserContext(), user, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// ForgotPassword mails a reset OTP to the account owner.
func (h *PasswordHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// ConfirmForgotPassword sets a new password after the reset OTP is redeemed.
func (h *PasswordHandler) ConfirmForgotPassword(c *fiber.Ctx) error {
	var req confirmForgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.ConfirmForgotPassword(c.UserContext(), req.Email, req.OTP, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
