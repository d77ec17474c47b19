package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osfield/osfield/internal/auth"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/service"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hasher := auth.NewPasswordHasher()
	tokens := auth.NewTokenManager("test_secret", time.Hour)
	svc := service.NewAuthService(env.repos, hasher, tokens)

	hash, err := hasher.Hash("senha-correta")
	require.NoError(t, err)
	env.techA.PasswordHash = hash
	require.NoError(t, env.repos.Users.Update(ctx, env.techA))

	t.Run("valid credentials yield a verifiable token", func(t *testing.T) {
		out, err := svc.Login(ctx, service.LoginInput{
			Email:    env.techA.Email,
			Password: "senha-correta",
		})
		require.NoError(t, err)
		require.NotNil(t, out.User)
		assert.Equal(t, env.techA.ID, out.User.ID)

		claims, err := tokens.Validate(out.Token)
		require.NoError(t, err)
		assert.Equal(t, env.techA.ID.String(), claims.UserID)
		assert.Equal(t, env.techA.Email, claims.Email)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		_, err := svc.Login(ctx, service.LoginInput{
			Email:    env.techA.Email,
			Password: "senha-errada",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email fails with the same error as a wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, service.LoginInput{
			Email:    "ninguem@oficina.example",
			Password: "tanto-faz",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("deactivated account fails without leaking its state", func(t *testing.T) {
		env.techA.Active = false
		require.NoError(t, env.repos.Users.Update(ctx, env.techA))
		defer func() {
			env.techA.Active = true
			require.NoError(t, env.repos.Users.Update(ctx, env.techA))
		}()

		_, err := svc.Login(ctx, service.LoginInput{
			Email:    env.techA.Email,
			Password: "senha-correta",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("malformed email is rejected by validation", func(t *testing.T) {
		_, err := svc.Login(ctx, service.LoginInput{
			Email:    "not-an-email",
			Password: "x",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
