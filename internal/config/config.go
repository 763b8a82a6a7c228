package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/userauth/internal/utils"
)

// SMS providers understood by SMS_PROVIDER.
const (
	SMSProviderLog     = "log"
	SMSProviderTwilio  = "twilio"
	SMSProviderGateway = "gateway"
)

// Config holds application configuration values. It is read once at startup
// and never modified afterwards.
type Config struct {
	Environment string
	AppPort     string
	DatabaseURL string
	Store       string

	PasswordSalt string
	BcryptCost   int
	TokenKey     []byte
	TokenTTL     time.Duration
	OTPTime      time.Duration

	MailFrom     string
	MailPassword string
	MailHost     string
	MailPort     int
	FrontendURL  string

	SMSProvider      string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	SMSGatewayURL    string
	SMSGatewayToken  string

	CORSAllowOrigins string
}

// Load reads environment variables (and a .env file when present) and
// validates them.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:      getEnv("APP_ENV", "development"),
		AppPort:          getEnv("APP_PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		Store:            strings.ToLower(getEnv("STORE", "postgres")),
		PasswordSalt:     getEnv("PASSWORD_SALT", ""),
		MailFrom:         getEnv("MAIL_FROM", ""),
		MailPassword:     getEnv("MAIL_PASSWORD", ""),
		MailHost:         getEnv("MAIL_HOST", "smtp.gmail.com"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000/"),
		SMSProvider:      strings.ToLower(getEnv("SMS_PROVIDER", SMSProviderLog)),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getEnv("TWILIO_FROM", ""),
		SMSGatewayURL:    getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayToken:  getEnv("SMS_GATEWAY_TOKEN", ""),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
	}

	var err error
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.MailPort, err = getEnvInt("MAIL_PORT", 587); err != nil {
		return nil, err
	}
	otpMinutes, err := getEnvInt("OTP_TIME", 10)
	if err != nil {
		return nil, err
	}
	if otpMinutes <= 0 {
		return nil, errors.New("OTP_TIME must be a positive number of minutes")
	}
	cfg.OTPTime = time.Duration(otpMinutes) * time.Minute

	if v, ok := os.LookupEnv("TOKEN_TTL"); ok && v != "" {
		if cfg.TokenTTL, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("TOKEN_TTL: %w", err)
		}
	}

	if cfg.PasswordSalt == "" {
		return nil, errors.New("PASSWORD_SALT must be set")
	}
	if cfg.TokenKey, err = utils.ParseTokenKey(getEnv("TOKEN_KEY", "")); err != nil {
		return nil, fmt.Errorf("TOKEN_KEY: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = buildDatabaseURL()
	}
	if cfg.Store != "postgres" && cfg.Store != "memory" {
		return nil, fmt.Errorf("STORE must be postgres or memory, got %q", cfg.Store)
	}

	if _, err := url.ParseRequestURI(cfg.FrontendURL); err != nil {
		return nil, fmt.Errorf("FRONTEND_URL: %w", err)
	}
	if !strings.HasSuffix(cfg.FrontendURL, "/") {
		cfg.FrontendURL += "/"
	}

	switch cfg.SMSProvider {
	case SMSProviderLog:
	case SMSProviderTwilio:
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFrom == "" {
			return nil, errors.New("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM must be set for the twilio provider")
		}
	case SMSProviderGateway:
		if cfg.SMSGatewayURL == "" {
			return nil, errors.New("SMS_GATEWAY_URL must be set for the gateway provider")
		}
	default:
		return nil, fmt.Errorf("unknown SMS_PROVIDER %q", cfg.SMSProvider)
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func buildDatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("DB_USER", "postgres"), getEnv("DB_PASS", "postgres")),
		Host:     getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432"),
		Path:     "/" + getEnv("DB_NAME", "userauth"),
		RawQuery: "sslmode=" + getEnv("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
