package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers an HTML message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// MailService sends mail over SMTP.
type MailService struct {
	dialer *gomail.Dialer
	from   string
	log    *zap.Logger
}

// NewMailService creates a MailService authenticating as from.
func NewMailService(host string, port int, from, password string, log *zap.Logger) *MailService {
	return &MailService{
		dialer: gomail.NewDialer(host, port, from, password),
		from:   from,
		log:    log,
	}
}

// Send delivers body as text/html. The subject doubles as the sender display name.
func (s *MailService) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, subject)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.log.Error("mail delivery failed", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to send %q email: %w", subject, err)
	}
	s.log.Debug("mail sent", zap.String("subject", subject))
	return nil
}
