package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/userauth/internal/apperr"
	"github.com/example/userauth/internal/models"
	"github.com/example/userauth/internal/repository"
	"github.com/example/userauth/internal/utils"
)

// OTPService issues and redeems one-time passcodes. Only the newest challenge
// in a scope can ever be redeemed.
type OTPService struct {
	store  repository.Store
	sms    SMSDispatcher
	mailer Mailer
	window time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// NewOTPService constructs an OTPService. window is the validity period of a code.
func NewOTPService(store repository.Store, sms SMSDispatcher, mailer Mailer, window time.Duration, now func() time.Time, log *zap.Logger) *OTPService {
	if now == nil {
		now = time.Now
	}
	return &OTPService{store: store, sms: sms, mailer: mailer, window: window, now: now, log: log}
}

func (s *OTPService) create(ctx context.Context, number string, userID uuid.UUID) (models.OTPChallenge, error) {
	code, err := utils.GenerateOTP()
	if err != nil {
		return models.OTPChallenge{}, apperr.Internal("generate otp", err)
	}
	now := s.now()
	challenge, err := s.store.CreateChallenge(ctx, models.OTPChallenge{
		BaseModel: models.BaseModel{CreatedAt: now, UpdatedAt: now},
		Number:    number,
		Code:      code,
		UserID:    userID,
	})
	if err != nil {
		return models.OTPChallenge{}, apperr.Internal("store otp", err)
	}
	return challenge, nil
}

// IssueSMS creates a challenge for number and texts the code to it. When the
// SMS cannot be dispatched the stored challenge is left behind unusable; the
// next issuance supersedes it.
func (s *OTPService) IssueSMS(ctx context.Context, number string, userID uuid.UUID) error {
	challenge, err := s.create(ctx, number, userID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Your OTP is %s. It is valid for %d minutes.", challenge.Code, int(s.window/time.Minute))
	if err := s.sms.Dispatch(ctx, number, msg); err != nil {
		s.log.Warn("otp sms dispatch failed",
			zap.String("user_id", userID.String()),
			zap.String("challenge_id", challenge.ID.String()),
			zap.Error(err))
		return &apperr.Error{Kind: apperr.KindNotFound, Message: "OTP service is not working", Err: err}
	}
	return nil
}

// IssueEmail creates a challenge bound to the account and mails the code.
func (s *OTPService) IssueEmail(ctx context.Context, user models.User) error {
	challenge, err := s.create(ctx, "", user.ID)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, user.Email, passwordResetSubject, otpTemplate(challenge.Code, s.window)); err != nil {
		return apperr.Internal("send otp email", err)
	}
	return nil
}

// Validate redeems the newest challenge in scope if code matches it. On
// success then, when not nil, runs inside the same transaction; an error from
// then rolls the redemption back.
func (s *OTPService) Validate(ctx context.Context, scope repository.ChallengeScope, code string, then func(tx repository.Store) error) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		challenge, err := tx.FindLatestChallenge(ctx, scope)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("OTP not found")
		}
		if err != nil {
			return apperr.Internal("load otp", err)
		}

		now := s.now()
		switch {
		case challenge.Redeemed:
			return apperr.Forbidden("Invalid OTP.")
		case now.Sub(challenge.CreatedAt) >= s.window:
			return apperr.Forbidden("OTP expired.")
		case !utils.CodesMatch(challenge.Code, code):
			return apperr.Forbidden("Invalid OTP.")
		}

		ok, err := tx.RedeemChallenge(ctx, challenge, scope, now)
		if err != nil {
			return apperr.Internal("redeem otp", err)
		}
		if !ok {
			return apperr.Forbidden("Invalid OTP.")
		}

		if then != nil {
			return then(tx)
		}
		return nil
	})
}
