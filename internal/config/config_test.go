package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("PASSWORD_SALT", "pepper")
	t.Setenv("TOKEN_KEY", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "auth")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, cfg.OTPTime)
	require.Equal(t, time.Duration(0), cfg.TokenTTL)
	require.Len(t, cfg.TokenKey, 32)
	require.Equal(t, SMSProviderLog, cfg.SMSProvider)
	require.Contains(t, cfg.DatabaseURL, "db:5432/auth")
}

func TestLoadRequiresSaltAndKey(t *testing.T) {
	t.Setenv("PASSWORD_SALT", "")
	t.Setenv("TOKEN_KEY", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("PASSWORD_SALT", "pepper")
	t.Setenv("TOKEN_KEY", "too-short")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	setRequired(t)

	t.Setenv("OTP_TIME", "ten")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("OTP_TIME", "0")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("OTP_TIME", "5")
	t.Setenv("SMS_PROVIDER", "twilio")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("SMS_PROVIDER", "log")
	t.Setenv("TOKEN_TTL", "forever")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadNormalisesFrontendURL(t *testing.T) {
	setRequired(t)
	t.Setenv("FRONTEND_URL", "https://app.example.com")
	t.Setenv("TOKEN_TTL", "24h")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/", cfg.FrontendURL)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
}
