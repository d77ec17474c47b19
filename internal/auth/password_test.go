package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osfield/osfield/internal/auth"
)

func TestPasswordHasher(t *testing.T) {
	hasher := auth.NewPasswordHasher()

	t.Run("hash verifies with the right password only", func(t *testing.T) {
		encoded, err := hasher.Hash("senha-secreta")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

		ok, err := hasher.Verify("senha-secreta", encoded)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = hasher.Verify("senha-errada", encoded)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("same password hashes differently each time", func(t *testing.T) {
		first, err := hasher.Hash("repetida")
		require.NoError(t, err)
		second, err := hasher.Hash("repetida")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("malformed hashes fail closed", func(t *testing.T) {
		for _, stored := range []string{
			"",
			"plaintext",
			"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
			"$argon2id$v=19$m=65536$c2FsdA$aGFzaA",
			"$argon2id$v=19$m=65536,t=1,p=4$not-base64!$aGFzaA",
		} {
			_, err := hasher.Verify("qualquer", stored)
			assert.ErrorIs(t, err, auth.ErrMalformedHash, "stored %q", stored)
		}
	})
}
