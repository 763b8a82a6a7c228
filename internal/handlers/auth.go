package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/userauth/internal/models"
	"github.com/example/userauth/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signUpRequest struct {
	FirstName string `json:"first_name" validate:"required,min=3,max=50"`
	LastName  string `json:"last_name" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,min=5,max=200,email"`
	Number    string `json:"number" validate:"required,len=10,numeric"`
	Password  string `json:"password" validate:"required,min=3,max=50"`
}

type mobileNumberRequest struct {
	Number string `json:"number" validate:"required,len=10,numeric"`
}

type loginRequest struct {
	Number string `json:"number" validate:"required,len=10,numeric"`
	OTP    string `json:"otp" validate:"required,len=6,numeric"`
}

func loginResponse(user models.User, token string) fiber.Map {
	return fiber.Map{
		"id":         user.ID,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
		"number":     user.Number,
		"token":      token,
	}
}

// SignUp creates a new user account.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.auth.SignUp(c.UserContext(), services.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Number:    req.Number,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(loginResponse(res.User, res.Token))
}

// CheckNumber sends a login OTP to a registered number.
func (h *AuthHandler) CheckNumber(c *fiber.Ctx) error {
	var req mobileNumberRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.CheckNumber(c.UserContext(), req.Number); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Login exchanges a number and OTP for a token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), req.Number, req.OTP)
	if err != nil {
		return err
	}
	return c.JSON(loginResponse(res.User, res.Token))
}
