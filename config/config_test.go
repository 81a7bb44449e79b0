package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/svasthya/ayurcare/config"
)

func TestAppConfig_Validate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := &config.AppConfig{
			Auth: &config.Auth{SigningKey: "secret"},
		}

		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "ayurcare", cfg.Name)
		assert.Equal(t, "development", cfg.Env)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, "file::memory:?cache=shared", cfg.Persistence.DSN)
	})

	t.Run("requires a signing key", func(t *testing.T) {
		cfg := &config.AppConfig{}
		assert.Error(t, cfg.Validate())
	})

	t.Run("keeps provided values", func(t *testing.T) {
		cfg := &config.AppConfig{
			Name:   "custom",
			Env:    "staging",
			Server: &config.Server{Addr: ":9000"},
			Auth:   &config.Auth{SigningKey: "secret"},
		}

		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "custom", cfg.Name)
		assert.Equal(t, ":9000", cfg.Server.Addr)
	})
}

func TestAppConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"production", true},
		{"prod", true},
		{"PRODUCTION", true},
		{" prod ", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("env "+tt.env, func(t *testing.T) {
			cfg := &config.AppConfig{Env: tt.env}
			assert.Equal(t, tt.expected, cfg.IsProduction())
		})
	}
}

func TestAppConfig_Validate_PropagatesProduction(t *testing.T) {
	cfg := &config.AppConfig{
		Env:  "production",
		Auth: &config.Auth{SigningKey: "secret"},
	}

	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.GetAuth().IsProduction())
}

func TestAuth_Validate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		auth := &config.Auth{SigningKey: "secret"}
		assert.NoError(t, auth.Validate())

		assert.Equal(t, "HS256", auth.GetSigningMethod())
		assert.Equal(t, "identity", auth.GetContextKey())
		assert.Equal(t, "Bearer", auth.GetAuthScheme())
		assert.Equal(t, "ayurcare", auth.GetIssuer())
		assert.Equal(t, []string{"ayurcare"}, auth.GetAudience())
		assert.Equal(t, "access_token", auth.GetAccessCookieName())
		assert.Equal(t, "refresh_token", auth.GetRefreshCookieName())
		assert.Equal(t, "header:Authorization,cookie:access_token", auth.GetTokenLookup())
		assert.Equal(t, 15, auth.GetAccessTokenExpiration())
		assert.Equal(t, 168, auth.GetRefreshTokenExpiration())
	})

	t.Run("token lookup follows the access cookie name", func(t *testing.T) {
		auth := &config.Auth{SigningKey: "secret", AccessCookieName: "at"}
		assert.NoError(t, auth.Validate())
		assert.Equal(t, "header:Authorization,cookie:at", auth.GetTokenLookup())
	})

	t.Run("empty signing key is rejected", func(t *testing.T) {
		auth := &config.Auth{}
		assert.Error(t, auth.Validate())
	})
}
