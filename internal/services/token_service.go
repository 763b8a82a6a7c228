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

// TokenService issues bearer tokens and resolves them back to live users.
// Tokens are stateless; soft-deleting a user invalidates all of its tokens.
type TokenService struct {
	codec *utils.TokenCodec
	store repository.Store
	now   func() time.Time
	log   *zap.Logger
}

// NewTokenService constructs a TokenService.
func NewTokenService(codec *utils.TokenCodec, store repository.Store, now func() time.Time, log *zap.Logger) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{codec: codec, store: store, now: now, log: log}
}

// Issue returns a token for user.
func (s *TokenService) Issue(user models.User) (string, error) {
	token, err := s.codec.Seal(user.ID, user.Email, s.now())
	if err != nil {
		return "", apperr.Internal("issue token", err)
	}
	return token, nil
}

// Verify resolves token to the user it was issued for.
func (s *TokenService) Verify(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, apperr.Unauthorized("Missing token.")
	}

	claims, err := s.codec.Open(token, s.now())
	if err != nil {
		if errors.Is(err, utils.ErrInvalidToken) {
			s.log.Debug("token rejected", zap.Error(err))
			return models.User{}, apperr.Unauthorized("Invalid token.")
		}
		return models.User{}, apperr.Internal("open token", err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.User{}, apperr.Unauthorized("Invalid token.")
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, apperr.Unauthorized("Unauthorized")
	}
	if err != nil {
		return models.User{}, apperr.Internal("load token user", err)
	}
	if user.IsDeleted {
		return models.User{}, apperr.Unauthorized("Unauthorized")
	}
	return user, nil
}
