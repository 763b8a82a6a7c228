package utils

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKeySize is the key length required by A256KW and used for HS256.
const TokenKeySize = 32

// ErrInvalidToken is returned for any token that fails to decrypt, verify or parse.
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is the identity carried by a bearer token.
type TokenClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Time  string `json:"time"`
	jwt.RegisteredClaims
}

// UserID parses the id claim.
func (c *TokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.ID)
}

// TokenCodec produces nested tokens: an HS256 JWT used as the plaintext of an
// A256KW/A256CBC-HS512 JWE, both under the same key.
type TokenCodec struct {
	key []byte
	ttl time.Duration
}

// NewTokenCodec validates the key. A zero ttl issues tokens without an exp claim.
func NewTokenCodec(key []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(key) != TokenKeySize {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", TokenKeySize, len(key))
	}
	if ttl < 0 {
		return nil, errors.New("token ttl must not be negative")
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &TokenCodec{key: k, ttl: ttl}, nil
}

// ParseTokenKey decodes key material given as 64 hex characters or base64
// (standard or URL alphabet, padded or not).
func ParseTokenKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("token key is empty")
	}
	if len(raw) == hex.EncodedLen(TokenKeySize) {
		if key, err := hex.DecodeString(raw); err == nil {
			return key, nil
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if key, err := enc.DecodeString(raw); err == nil && len(key) == TokenKeySize {
			return key, nil
		}
	}
	return nil, fmt.Errorf("token key must decode to %d bytes", TokenKeySize)
}

// Seal issues a token for the given identity.
func (c *TokenCodec) Seal(userID uuid.UUID, email string, now time.Time) (string, error) {
	claims := TokenClaims{
		ID:    userID.String(),
		Email: email,
		Time:  now.UTC().Format(time.RFC3339Nano),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	encrypter, err := jose.NewEncrypter(
		jose.A256CBC_HS512,
		jose.Recipient{Algorithm: jose.A256KW, Key: c.key},
		(&jose.EncrypterOptions{}).WithContentType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("build encrypter: %w", err)
	}
	object, err := encrypter.Encrypt([]byte(signed))
	if err != nil {
		return "", fmt.Errorf("encrypt token: %w", err)
	}
	return object.CompactSerialize()
}

// Open decrypts and verifies a token. Every failure wraps ErrInvalidToken.
func (c *TokenCodec) Open(token string, now time.Time) (*TokenClaims, error) {
	object, err := jose.ParseEncrypted(token,
		[]jose.KeyAlgorithm{jose.A256KW},
		[]jose.ContentEncryption{jose.A256CBC_HS512},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	payload, err := object.Decrypt(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(string(payload), claims,
		func(*jwt.Token) (interface{}, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}
	return claims, nil
}
