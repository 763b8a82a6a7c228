package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/example/userauth/internal/handlers"
	"github.com/example/userauth/internal/middleware"
	"github.com/example/userauth/internal/services"
)

// Register wires up all HTTP routes. ping backs the health check and may be nil.
func Register(app *fiber.App, auth *services.AuthService, tokens *services.TokenService, ping func(ctx context.Context) error) {
	authHandler := handlers.NewAuthHandler(auth)
	passwordHandler := handlers.NewPasswordHandler(auth)
	verificationHandler := handlers.NewVerificationHandler(auth)
	profileHandler := handlers.NewProfileHandler(auth)
	healthHandler := handlers.NewHealthHandler(ping)

	requireToken := middleware.AuthMiddleware(tokens)

	app.Get("/healthz", healthHandler.Check)

	// Authentication
	app.Post("/sign-up", authHandler.SignUp)
	app.Post("/check-number", authHandler.CheckNumber)
	app.Post("/login", authHandler.Login)
	app.Post("/change-password", requireToken, passwordHandler.ChangePassword)
	app.Post("/forgot-password", passwordHandler.ForgotPassword)
	app.Post("/confirm-forgot-password", passwordHandler.ConfirmForgotPassword)
	app.Post("/verify", verificationHandler.Verify)
	app.Post("/verify/resend", requireToken, verificationHandler.Resend)

	// Users
	app.Get("/profile", requireToken, profileHandler.GetProfile)
	app.Put("/profile", requireToken, profileHandler.UpdateProfile)
	app.Delete("/profile", requireToken, profileHandler.DeleteProfile)
}
