package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/userauth/internal/middleware"
	"github.com/example/userauth/internal/models"
	"github.com/example/userauth/internal/services"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	auth *services.AuthService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(auth *services.AuthService) *ProfileHandler {
	return &ProfileHandler{auth: auth}
}

type updateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,min=3,max=50"`
	LastName  string `json:"last_name" validate:"required,min=3,max=50"`
	Number    string `json:"number" validate:"required,len=10,numeric"`
}

func profileResponse(user models.User) fiber.Map {
	return fiber.Map{
		"id":         user.ID,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
		"verified":   user.Verified,
	}
}

// GetProfile returns authenticated user profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	profile, err := h.auth.Profile(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(profileResponse(profile))
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	updated, err := h.auth.UpdateProfile(c.UserContext(), user, services.ProfileUpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Number:    req.Number,
	})
	if err != nil {
		return err
	}
	return c.JSON(profileResponse(updated))
}

// DeleteProfile soft-deletes the authenticated account.
func (h *ProfileHandler) DeleteProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.auth.DeleteAccount(c.UserContext(), user); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
