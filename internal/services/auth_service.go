package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/userauth/internal/apperr"
	"github.com/example/userauth/internal/models"
	"github.com/example/userauth/internal/repository"
	"github.com/example/userauth/internal/utils"
)

// SignUpInput carries the fields of a registration request.
type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Number    string
	Password  string
}

// ProfileUpdateInput carries the editable profile fields.
type ProfileUpdateInput struct {
	FirstName string
	LastName  string
	Number    string
}

// LoginResult is returned by flows that authenticate a user.
type LoginResult struct {
	User  models.User
	Token string
}

// AuthService composes the password vault, OTP, token and verification
// services into the account flows.
type AuthService struct {
	store        repository.Store
	vault        *utils.PasswordVault
	otp          *OTPService
	tokens       *TokenService
	verification *VerificationService
	now          func() time.Time
	log          *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	store repository.Store,
	vault *utils.PasswordVault,
	otp *OTPService,
	tokens *TokenService,
	verification *VerificationService,
	now func() time.Time,
	log *zap.Logger,
) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		store:        store,
		vault:        vault,
		otp:          otp,
		tokens:       tokens,
		verification: verification,
		now:          now,
		log:          log,
	}
}

// activeBy loads a non-deleted user, answering Unauthorized when there is none.
func activeBy(ctx context.Context, find func(context.Context, string) (models.User, error), key, op string) (models.User, error) {
	user, err := find(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, apperr.Unauthorized("Unauthorized")
	}
	if err != nil {
		return models.User{}, apperr.Internal(op, err)
	}
	return user, nil
}

// ensureUnique fails with Conflict when key is held by an active user other than self.
func ensureUnique(ctx context.Context, find func(context.Context, string) (models.User, error), key string, self models.User, msg, op string) error {
	existing, err := find(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Internal(op, err)
	}
	if existing.ID == self.ID {
		return nil
	}
	return apperr.Conflict(msg)
}

// SignUp registers a new unverified user, mails the verification link and
// returns the user with a token.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*LoginResult, error) {
	if err := ensureUnique(ctx, s.store.FindUserByEmail, in.Email, models.User{}, "User already exist", "check email"); err != nil {
		return nil, err
	}
	if err := ensureUnique(ctx, s.store.FindUserByNumber, in.Number, models.User{}, "Number already registered", "check number"); err != nil {
		return nil, err
	}

	hash, err := s.vault.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	now := s.now()
	user, err := s.store.CreateUser(ctx, models.User{
		BaseModel:    models.BaseModel{CreatedAt: now, UpdatedAt: now},
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Number:       in.Number,
		PasswordHash: hash,
		TempToken:    s.verification.NewToken(),
	})
	if err != nil {
		return nil, apperr.Internal("create user", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID.String()))

	if err := s.verification.Send(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

// CheckNumber texts a login OTP to the owner of number.
func (s *AuthService) CheckNumber(ctx context.Context, number string) error {
	user, err := activeBy(ctx, s.store.FindUserByNumber, number, "find user by number")
	if err != nil {
		return err
	}
	return s.otp.IssueSMS(ctx, number, user.ID)
}

// Login redeems the OTP last sent to number and returns a token.
func (s *AuthService) Login(ctx context.Context, number, code string) (*LoginResult, error) {
	user, err := activeBy(ctx, s.store.FindUserByNumber, number, "find user by number")
	if err != nil {
		return nil, err
	}
	if err := s.otp.Validate(ctx, repository.ByNumber(number), code, nil); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

// ChangePassword replaces the password of an authenticated user.
func (s *AuthService) ChangePassword(ctx context.Context, user models.User, oldPassword, newPassword string) error {
	ok, err := s.vault.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return apperr.Internal("verify password", err)
	}
	if !ok {
		return apperr.Forbidden("Incorrect old password")
	}

	hash, err := s.vault.Hash(newPassword)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.store.SaveUser(ctx, user); err != nil {
		return apperr.Internal("save user", err)
	}
	return nil
}

// ForgotPassword mails a reset OTP to the owner of email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := activeBy(ctx, s.store.FindUserByEmail, email, "find user by email")
	if err != nil {
		return err
	}
	return s.otp.IssueEmail(ctx, user)
}

// ConfirmForgotPassword redeems the reset OTP and stores the new password in
// the same transaction.
func (s *AuthService) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := activeBy(ctx, s.store.FindUserByEmail, email, "find user by email")
	if err != nil {
		return err
	}

	hash, err := s.vault.Hash(newPassword)
	if err != nil {
		return apperr.Internal("hash password", err)
	}

	return s.otp.Validate(ctx, repository.ByUser(user.ID), code, func(tx repository.Store) error {
		current, err := tx.FindUserByID(ctx, user.ID)
		if err != nil {
			return apperr.Internal("reload user", err)
		}
		current.PasswordHash = hash
		current.UpdatedAt = s.now()
		if err := tx.SaveUser(ctx, current); err != nil {
			return apperr.Internal("save user", err)
		}
		return nil
	})
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.verification.Confirm(ctx, token)
}

// ResendVerification issues and mails a new verification token.
func (s *AuthService) ResendVerification(ctx context.Context, user models.User) error {
	return s.verification.Resend(ctx, user)
}

// Profile returns the current state of the user.
func (s *AuthService) Profile(ctx context.Context, user models.User) (models.User, error) {
	return user, nil
}

// UpdateProfile stores new names and number for the user.
func (s *AuthService) UpdateProfile(ctx context.Context, user models.User, in ProfileUpdateInput) (models.User, error) {
	if in.Number != user.Number {
		if err := ensureUnique(ctx, s.store.FindUserByNumber, in.Number, user, "Number already registered", "check number"); err != nil {
			return models.User{}, err
		}
	}
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Number = in.Number
	user.UpdatedAt = s.now()
	if err := s.store.SaveUser(ctx, user); err != nil {
		return models.User{}, apperr.Internal("save user", err)
	}
	return user, nil
}

// DeleteAccount soft-deletes the user. Tokens issued to it stop verifying.
func (s *AuthService) DeleteAccount(ctx context.Context, user models.User) error {
	user.IsDeleted = true
	user.UpdatedAt = s.now()
	if err := s.store.SaveUser(ctx, user); err != nil {
		return apperr.Internal("delete user", err)
	}
	s.log.Info("user deleted", zap.String("user_id", user.ID.String()))
	return nil
}
