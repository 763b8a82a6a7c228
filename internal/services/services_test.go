package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/userauth/internal/apperr"
	"github.com/example/userauth/internal/repository"
	"github.com/example/userauth/internal/utils"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, recipient, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: recipient, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	return m.sent[len(m.sent)-1]
}

type fakeSMS struct {
	mu       sync.Mutex
	messages map[string][]string
	err      error
}

func (s *fakeSMS) Dispatch(ctx context.Context, number, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.messages == nil {
		s.messages = make(map[string][]string)
	}
	s.messages[number] = append(s.messages[number], message)
	return nil
}

var (
	smsCodePattern   = regexp.MustCompile(`Your OTP is (\d{6})`)
	emailCodePattern = regexp.MustCompile(`<strong>(\d{6})</strong>`)
	linkTokenPattern = regexp.MustCompile(`verify\?token=([0-9a-f-]{36})`)
)

func (s *fakeSMS) lastCode(t *testing.T, number string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[number]
	require.NotEmpty(t, msgs, "no sms sent to %s", number)
	m := smsCodePattern.FindStringSubmatch(msgs[len(msgs)-1])
	require.Len(t, m, 2)
	return m[1]
}

type testEnv struct {
	store        *repository.MemoryStore
	clock        *fakeClock
	mailer       *fakeMailer
	sms          *fakeSMS
	vault        *utils.PasswordVault
	otp          *OTPService
	tokens       *TokenService
	verification *VerificationService
	auth         *AuthService
}

const testWindow = 10 * time.Minute

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	env := &testEnv{
		store:  repository.NewMemoryStore(),
		clock:  &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		mailer: &fakeMailer{},
		sms:    &fakeSMS{},
	}

	vault, err := utils.NewPasswordVault("test-salt", bcrypt.MinCost)
	require.NoError(t, err)
	codec, err := utils.NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), 0)
	require.NoError(t, err)

	env.vault = vault
	env.otp = NewOTPService(env.store, env.sms, env.mailer, testWindow, env.clock.Now, log)
	env.tokens = NewTokenService(codec, env.store, env.clock.Now, log)
	env.verification = NewVerificationService(env.store, env.mailer, "http://app.test/", env.clock.Now, log)
	env.auth = NewAuthService(env.store, vault, env.otp, env.tokens, env.verification, env.clock.Now, log)
	return env
}

func (e *testEnv) signUp(t *testing.T, email, number string) *LoginResult {
	t.Helper()
	res, err := e.auth.SignUp(context.Background(), SignUpInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Number:    number,
		Password:  "password1",
	})
	require.NoError(t, err)
	return res
}

func requireAppErr(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %v", err)
	require.Equal(t, kind, appErr.Kind)
	require.Equal(t, msg, appErr.Message)
}
