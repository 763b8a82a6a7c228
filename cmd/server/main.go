package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/example/userauth/internal/config"
	"github.com/example/userauth/internal/database"
	applog "github.com/example/userauth/internal/logger"
	"github.com/example/userauth/internal/middleware"
	"github.com/example/userauth/internal/repository"
	"github.com/example/userauth/internal/routes"
	"github.com/example/userauth/internal/services"
	"github.com/example/userauth/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := applog.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	var (
		store repository.Store
		ping  func(ctx context.Context) error
	)
	if cfg.Store == "memory" {
		zl.Warn("using in-memory store; data is lost on restart")
		store = repository.NewMemoryStore()
	} else {
		db, err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment(), zl)
		if err != nil {
			zl.Fatal("database", zap.Error(err))
		}
		store = repository.NewGormStore(db)
		ping = database.Ping(db)
	}

	vault, err := utils.NewPasswordVault(cfg.PasswordSalt, cfg.BcryptCost)
	if err != nil {
		zl.Fatal("password vault", zap.Error(err))
	}
	codec, err := utils.NewTokenCodec(cfg.TokenKey, cfg.TokenTTL)
	if err != nil {
		zl.Fatal("token codec", zap.Error(err))
	}

	mailer := services.NewMailService(cfg.MailHost, cfg.MailPort, cfg.MailFrom, cfg.MailPassword, zl)
	sms := services.NewSMSDispatcher(cfg, zl)

	otp := services.NewOTPService(store, sms, mailer, cfg.OTPTime, time.Now, zl)
	tokens := services.NewTokenService(codec, store, time.Now, zl)
	verification := services.NewVerificationService(store, mailer, cfg.FrontendURL, time.Now, zl)
	auth := services.NewAuthService(store, vault, otp, tokens, verification, time.Now, zl)

	app := fiber.New(fiber.Config{
		AppName:      "User-Auth API",
		ErrorHandler: middleware.ErrorHandler(zl),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.TokenHeader,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.Register(app, auth, tokens, ping)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		zl.Info("shutting down")
		_ = app.Shutdown()
	}()

	zl.Info("starting server",
		zap.String("port", cfg.AppPort),
		zap.String("env", cfg.Environment),
		zap.String("store", cfg.Store),
		zap.String("sms_provider", cfg.SMSProvider))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		zl.Fatal("fiber.Listen", zap.Error(err))
	}
}
