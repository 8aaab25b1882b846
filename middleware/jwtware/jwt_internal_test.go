package jwtware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExtractorsParsesLookup(t *testing.T) {
	assert.Len(t, GetExtractors("header:Authorization,cookie:jwt,query:auth_token,param:token"), 4)
	assert.Len(t, GetExtractors("header:Authorization, bogus, cookie:"), 2)
	assert.Empty(t, GetExtractors(""))
}

func TestGetDefaultConfigPanicsWithoutValidator(t *testing.T) {
	assert.PanicsWithValue(t, "AUTH: JWT middleware configuration: TokenValidator is required.", func() {
		GetDefaultConfig(Config{})
	})
}

func TestGetDefaultConfigDefaults(t *testing.T) {
	cfg := GetDefaultConfig(Config{
		TokenValidator: TokenValidatorFunc(func(string) (AuthClaims, error) { return nil, nil }),
	})

	assert.Equal(t, "user", cfg.ContextKey)
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.NotNil(t, cfg.ErrorHandler)
	assert.NotNil(t, cfg.SuccessHandler)
}
