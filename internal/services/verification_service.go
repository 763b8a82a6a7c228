package services

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/userauth/internal/apperr"
	"github.com/example/userauth/internal/models"
	"github.com/example/userauth/internal/repository"
)

// VerificationService manages the single outstanding email-verification token
// stored on each user.
type VerificationService struct {
	store       repository.Store
	mailer      Mailer
	frontendURL string
	now         func() time.Time
	log         *zap.Logger
}

// NewVerificationService constructs a VerificationService. frontendURL must end with a slash.
func NewVerificationService(store repository.Store, mailer Mailer, frontendURL string, now func() time.Time, log *zap.Logger) *VerificationService {
	if now == nil {
		now = time.Now
	}
	return &VerificationService{store: store, mailer: mailer, frontendURL: frontendURL, now: now, log: log}
}

// NewToken returns a fresh verification token.
func (s *VerificationService) NewToken() string {
	return uuid.NewString()
}

// Link builds the URL mailed to the user.
func (s *VerificationService) Link(token string) string {
	return s.frontendURL + "verify?token=" + url.QueryEscape(token)
}

// Send mails the verification link for the user's current token.
func (s *VerificationService) Send(ctx context.Context, user models.User) error {
	body := emailVerificationTemplate(s.Link(user.TempToken))
	if err := s.mailer.Send(ctx, user.Email, verificationSubject, body); err != nil {
		return apperr.Internal("send verification email", err)
	}
	return nil
}

// Resend replaces the user's token and mails the new link. The token is
// stored only after the mail went out.
func (s *VerificationService) Resend(ctx context.Context, user models.User) error {
	if user.Verified {
		return apperr.BadRequest("Verified")
	}
	user.TempToken = s.NewToken()
	if err := s.Send(ctx, user); err != nil {
		return err
	}
	user.UpdatedAt = s.now()
	if err := s.store.SaveUser(ctx, user); err != nil {
		return apperr.Internal("store verification token", err)
	}
	return nil
}

// Confirm consumes token and marks its owner verified.
func (s *VerificationService) Confirm(ctx context.Context, token string) error {
	ok, err := s.store.ConsumeVerificationToken(ctx, token, s.now())
	if err != nil {
		return apperr.Internal("consume verification token", err)
	}
	if !ok {
		return apperr.Unauthorized("Invalid token")
	}
	s.log.Info("email verified")
	return nil
}
