package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/userauth/internal/apperr"
	"github.com/example/userauth/internal/models"
)

func verificationToken(t *testing.T, mail sentMail) string {
	t.Helper()
	m := linkTokenPattern.FindStringSubmatch(mail.body)
	require.Len(t, m, 2, "no verification link in %q", mail.body)
	return m[1]
}

func TestSignUp(t *testing.T) {
	env := newTestEnv(t)
	res := env.signUp(t, "ada@example.com", "9876543210")

	require.False(t, res.User.Verified)
	require.Len(t, res.User.TempToken, 36)
	require.NotEqual(t, models.ConsumedTempToken, res.User.TempToken)
	require.NotEqual(t, "password1", res.User.PasswordHash)
	require.NotEmpty(t, res.Token)

	mail := env.mailer.last(t)
	require.Equal(t, "ada@example.com", mail.to)
	require.Equal(t, verificationSubject, mail.subject)
	require.Equal(t, res.User.TempToken, verificationToken(t, mail))
}

func TestSignUpConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "ada@example.com", "9876543210")

	_, err := env.auth.SignUp(ctx, SignUpInput{FirstName: "Bob", LastName: "Smith", Email: "ada@example.com", Number: "1234567890", Password: "pw123"})
	requireAppErr(t, err, apperr.KindConflict, "User already exist")

	_, err = env.auth.SignUp(ctx, SignUpInput{FirstName: "Bob", LastName: "Smith", Email: "bob@example.com", Number: "9876543210", Password: "pw123"})
	requireAppErr(t, err, apperr.KindConflict, "Number already registered")
}

func TestSignUpMailFailureKeepsUser(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("smtp down")

	_, err := env.auth.SignUp(context.Background(), SignUpInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Number: "9876543210", Password: "password1"})
	requireAppErr(t, err, apperr.KindInternal, "Internal Server Error")

	_, err = env.store.FindUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
}

func TestSignUpVerifyLoginProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "ada@example.com", "9876543210")

	token := verificationToken(t, env.mailer.last(t))
	require.NoError(t, env.auth.VerifyEmail(ctx, token))

	err := env.auth.VerifyEmail(ctx, token)
	requireAppErr(t, err, apperr.KindUnauthorized, "Invalid token")

	require.NoError(t, env.auth.CheckNumber(ctx, "9876543210"))
	code := env.sms.lastCode(t, "9876543210")

	res, err := env.auth.Login(ctx, "9876543210", code)
	require.NoError(t, err)

	user, err := env.tokens.Verify(ctx, res.Token)
	require.NoError(t, err)
	profile, err := env.auth.Profile(ctx, user)
	require.NoError(t, err)
	require.True(t, profile.Verified)
	require.Equal(t, "ada@example.com", profile.Email)

	_, err = env.auth.Login(ctx, "9876543210", code)
	requireAppErr(t, err, apperr.KindForbidden, "Invalid OTP.")
}

func TestCheckNumberUnknown(t *testing.T) {
	env := newTestEnv(t)

	err := env.auth.CheckNumber(context.Background(), "0000000000")
	requireAppErr(t, err, apperr.KindUnauthorized, "Unauthorized")
}

func TestForgotAndConfirmPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	before := env.signUp(t, "ada@example.com", "9876543210").User

	require.NoError(t, env.auth.ForgotPassword(ctx, "ada@example.com"))
	m := emailCodePattern.FindStringSubmatch(env.mailer.last(t).body)
	require.Len(t, m, 2)

	require.NoError(t, env.auth.ConfirmForgotPassword(ctx, "ada@example.com", m[1], "newpass"))

	after, err := env.store.FindUserByID(ctx, before.ID)
	require.NoError(t, err)
	require.NotEqual(t, before.PasswordHash, after.PasswordHash)
	ok, err := env.vault.Verify("newpass", after.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	err = env.auth.ConfirmForgotPassword(ctx, "ada@example.com", m[1], "another")
	requireAppErr(t, err, apperr.KindForbidden, "Invalid OTP.")
}

func TestConfirmForgotPasswordWrongCodeKeepsPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	before := env.signUp(t, "ada@example.com", "9876543210").User
	seedChallenge(t, env, "", "123456", before.ID)

	err := env.auth.ConfirmForgotPassword(ctx, "ada@example.com", "654321", "newpass")
	requireAppErr(t, err, apperr.KindForbidden, "Invalid OTP.")

	after, err := env.store.FindUserByID(ctx, before.ID)
	require.NoError(t, err)
	require.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	err := env.auth.ForgotPassword(context.Background(), "nobody@example.com")
	requireAppErr(t, err, apperr.KindUnauthorized, "Unauthorized")

	err = env.auth.ConfirmForgotPassword(context.Background(), "nobody@example.com", "123456", "pw123")
	requireAppErr(t, err, apperr.KindUnauthorized, "Unauthorized")
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signUp(t, "ada@example.com", "9876543210").User

	err := env.auth.ChangePassword(ctx, user, "wrong", "newpass")
	requireAppErr(t, err, apperr.KindForbidden, "Incorrect old password")

	require.NoError(t, env.auth.ChangePassword(ctx, user, "password1", "newpass"))
	stored, err := env.store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	ok, err := env.vault.Verify("newpass", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestResendVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signUp(t, "ada@example.com", "9876543210").User
	first := verificationToken(t, env.mailer.last(t))

	require.NoError(t, env.auth.ResendVerification(ctx, user))
	second := verificationToken(t, env.mailer.last(t))
	require.NotEqual(t, first, second)

	err := env.auth.VerifyEmail(ctx, first)
	requireAppErr(t, err, apperr.KindUnauthorized, "Invalid token")
	require.NoError(t, env.auth.VerifyEmail(ctx, second))

	verified, err := env.store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, verified.Verified)
	require.Equal(t, models.ConsumedTempToken, verified.TempToken)

	err = env.auth.ResendVerification(ctx, verified)
	requireAppErr(t, err, apperr.KindBadRequest, "Verified")
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.signUp(t, "ada@example.com", "9876543210").User
	env.signUp(t, "bob@example.com", "1234567890")

	_, err := env.auth.UpdateProfile(ctx, ada, ProfileUpdateInput{FirstName: "Ada", LastName: "King", Number: "1234567890"})
	requireAppErr(t, err, apperr.KindConflict, "Number already registered")

	updated, err := env.auth.UpdateProfile(ctx, ada, ProfileUpdateInput{FirstName: "Augusta", LastName: "King", Number: "5555555555"})
	require.NoError(t, err)
	require.Equal(t, "Augusta", updated.FirstName)

	stored, err := env.store.FindUserByNumber(ctx, "5555555555")
	require.NoError(t, err)
	require.Equal(t, ada.ID, stored.ID)
}

func TestDeletedAccountCannotLogIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.signUp(t, "ada@example.com", "9876543210").User
	require.NoError(t, env.auth.DeleteAccount(ctx, user))

	err := env.auth.CheckNumber(ctx, "9876543210")
	requireAppErr(t, err, apperr.KindUnauthorized, "Unauthorized")

	env.signUp(t, "ada@example.com", "9876543210")
}
