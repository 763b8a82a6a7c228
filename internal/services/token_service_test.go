package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/userauth/internal/apperr"
	"github.com/example/userauth/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	user := env.signUp(t, "ada@example.com", "9876543210").User

	token, err := env.tokens.Issue(user)
	require.NoError(t, err)

	got, err := env.tokens.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, user.Email, got.Email)
}

func TestTokenVerifyRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tokens.Verify(ctx, "")
	requireAppErr(t, err, apperr.KindUnauthorized, "Missing token.")

	_, err = env.tokens.Verify(ctx, "not.a.token")
	requireAppErr(t, err, apperr.KindUnauthorized, "Invalid token.")

	ghost, err := env.tokens.Issue(models.User{BaseModel: models.BaseModel{ID: uuid.New()}, Email: "ghost@example.com"})
	require.NoError(t, err)
	_, err = env.tokens.Verify(ctx, ghost)
	requireAppErr(t, err, apperr.KindUnauthorized, "Unauthorized")
}

func TestTokenRevokedBySoftDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.signUp(t, "ada@example.com", "9876543210")

	_, err := env.tokens.Verify(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, env.auth.DeleteAccount(ctx, res.User))

	_, err = env.tokens.Verify(ctx, res.Token)
	requireAppErr(t, err, apperr.KindUnauthorized, "Unauthorized")
}
