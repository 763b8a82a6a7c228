package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/example/userauth/internal/config"
)

// SMSDispatcher delivers a text message to a phone number. An error means the
// message must be considered undelivered.
type SMSDispatcher interface {
	Dispatch(ctx context.Context, number, message string) error
}

// NewSMSDispatcher selects the dispatcher configured by SMS_PROVIDER.
func NewSMSDispatcher(cfg *config.Config, log *zap.Logger) SMSDispatcher {
	switch cfg.SMSProvider {
	case config.SMSProviderTwilio:
		return NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, log)
	case config.SMSProviderGateway:
		return NewGatewaySMS(cfg.SMSGatewayURL, cfg.SMSGatewayToken, log)
	default:
		return NewLogSMS(log)
	}
}

// TwilioSMS sends messages through the Twilio Messages API.
type TwilioSMS struct {
	client *twilio.RestClient
	from   string
	log    *zap.Logger
}

// NewTwilioSMS creates a Twilio-backed dispatcher.
func NewTwilioSMS(accountSID, authToken, from string, log *zap.Logger) *TwilioSMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMS{client: client, from: from, log: log}
}

func (t *TwilioSMS) Dispatch(ctx context.Context, number, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(number)
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d", *resp.ErrorCode)
	}
	if resp.Sid != nil {
		t.log.Info("sms sent", zap.String("provider", "twilio"), zap.String("sid", *resp.Sid))
	}
	return nil
}

// GatewaySMS posts messages to a generic JSON SMS gateway.
type GatewaySMS struct {
	url    string
	token  string
	client *http.Client
	log    *zap.Logger
}

// NewGatewaySMS creates a dispatcher for the gateway at url.
func NewGatewaySMS(url, token string, log *zap.Logger) *GatewaySMS {
	return &GatewaySMS{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

func (g *GatewaySMS) Dispatch(ctx context.Context, number, message string) error {
	payload, err := json.Marshal(map[string]string{
		"phone":   number,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("sms gateway marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sms gateway request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms gateway: status %d, body: %s", resp.StatusCode, string(body))
	}
	g.log.Info("sms sent", zap.String("provider", "gateway"))
	return nil
}

// LogSMS only logs messages. Used in development.
type LogSMS struct {
	log *zap.Logger
}

// NewLogSMS creates a dry-run dispatcher.
func NewLogSMS(log *zap.Logger) *LogSMS {
	return &LogSMS{log: log}
}

func (l *LogSMS) Dispatch(ctx context.Context, number, message string) error {
	l.log.Info("sms dry-run", zap.String("to", number), zap.String("text", message))
	return nil
}
