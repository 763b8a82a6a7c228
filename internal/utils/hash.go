package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVault hashes and checks passwords. The process-wide salt is mixed in
// with HMAC-SHA256 before bcrypt; the base64 digest stays under bcrypt's 72-byte limit.
type PasswordVault struct {
	salt []byte
	cost int
}

// NewPasswordVault returns a vault using salt and the given bcrypt cost
// (bcrypt.DefaultCost when zero).
func NewPasswordVault(salt string, cost int) (*PasswordVault, error) {
	if salt == "" {
		return nil, errors.New("password salt is required")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &PasswordVault{salt: []byte(salt), cost: cost}, nil
}

func (v *PasswordVault) salted(password string) []byte {
	mac := hmac.New(sha256.New, v.salt)
	mac.Write([]byte(password))
	sum := mac.Sum(nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}

// Hash returns a bcrypt hash of the salted password.
func (v *PasswordVault) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(v.salted(password), v.cost)
	return string(bytes), err
}

// Verify compares a stored hash with a candidate password. A mismatch is
// (false, nil); a malformed hash is reported as an error.
func (v *PasswordVault) Verify(password, hashedPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), v.salted(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
