// Package repository provides access to users and OTP challenges. Values are
// passed and returned by copy: to change a record, modify the copy and hand it
// back to SaveUser.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/userauth/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ChallengeScope selects the challenges considered by a latest-challenge
// lookup: by phone number when Number is set, otherwise by owning user.
type ChallengeScope struct {
	Number string
	UserID uuid.UUID
}

// ByNumber scopes challenges to a phone number.
func ByNumber(number string) ChallengeScope {
	return ChallengeScope{Number: number}
}

// ByUser scopes challenges to an account.
func ByUser(id uuid.UUID) ChallengeScope {
	return ChallengeScope{UserID: id}
}

// Store is the data-access surface used by the service layer.
type Store interface {
	// FindUserByID returns the user regardless of its deleted flag.
	FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	// FindUserByEmail and FindUserByNumber only match users that are not soft-deleted.
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByNumber(ctx context.Context, number string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	SaveUser(ctx context.Context, user models.User) error
	// ConsumeVerificationToken marks the unverified owner of token as verified
	// and clears the token. It reports false when no such user exists.
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (bool, error)

	CreateChallenge(ctx context.Context, challenge models.OTPChallenge) (models.OTPChallenge, error)
	FindLatestChallenge(ctx context.Context, scope ChallengeScope) (models.OTPChallenge, error)
	// RedeemChallenge flips the redeemed flag iff the challenge is still
	// unredeemed and no newer challenge exists in scope.
	RedeemChallenge(ctx context.Context, challenge models.OTPChallenge, scope ChallengeScope, now time.Time) (bool, error)

	// WithTx runs fn against a Store bound to a single transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
