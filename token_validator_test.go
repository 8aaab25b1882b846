package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-leave-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValidatorFunc(t *testing.T) {
	t.Run("delegates", func(t *testing.T) {
		want := &auth.JWTClaims{UserName: "alice"}
		validator := auth.TokenValidatorFunc(func(token string) (auth.AuthClaims, error) {
			assert.Equal(t, "raw", token)
			return want, nil
		})

		got, err := validator.Validate("raw")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username())
	})

	t.Run("nil func is malformed", func(t *testing.T) {
		var validator auth.TokenValidatorFunc

		_, err := validator.Validate("raw")
		assert.Equal(t, auth.ErrTokenMalformed, err)
	})

	t.Run("token service satisfies validator", func(t *testing.T) {
		var validator auth.TokenValidator = newTestTokenService(testNow)
		assert.NotNil(t, validator)
	})
}
