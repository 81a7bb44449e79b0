package sessiongate

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	subject   string
	accountID string
	email     string
	role      string
}

func (s stubClaims) Subject() string   { return s.subject }
func (s stubClaims) AccountID() string { return s.accountID }
func (s stubClaims) Email() string     { return s.email }
func (s stubClaims) Role() string      { return s.role }

type stubVerifier struct{}

func (stubVerifier) VerifyAccessToken(tokenString string) (AuthClaims, error) {
	return stubClaims{}, nil
}

func TestGetDefaultConfig(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := GetDefaultConfig(Config{TokenVerifier: stubVerifier{}})

		assert.Equal(t, "identity", cfg.ContextKey)
		assert.Equal(t, defaultTokenLookup, cfg.TokenLookup)
		assert.Equal(t, "Bearer", cfg.AuthScheme)
		assert.NotNil(t, cfg.SuccessHandler)
		assert.NotNil(t, cfg.ErrorHandler)
	})

	t.Run("keeps provided values", func(t *testing.T) {
		cfg := GetDefaultConfig(Config{
			TokenVerifier: stubVerifier{},
			ContextKey:    "session",
			TokenLookup:   "cookie:access_token",
			AuthScheme:    "Token",
		})

		assert.Equal(t, "session", cfg.ContextKey)
		assert.Equal(t, "cookie:access_token", cfg.TokenLookup)
		assert.Equal(t, "Token", cfg.AuthScheme)
	})

	t.Run("panics without a verifier or key material", func(t *testing.T) {
		assert.Panics(t, func() {
			GetDefaultConfig(Config{})
		})
	})

	t.Run("signing key alone yields a working verifier", func(t *testing.T) {
		cfg := GetDefaultConfig(Config{
			SigningKey: SigningKey{Key: []byte("gate-test-key"), JWTAlg: "HS256"},
		})

		assert.NotNil(t, cfg.KeyFunc)
		assert.NotNil(t, cfg.TokenVerifier)
	})
}

func signGateToken(t *testing.T, key string, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestKeyfuncVerifier(t *testing.T) {
	const key = "gate-test-key"

	cfg := GetDefaultConfig(Config{
		SigningKey: SigningKey{Key: []byte(key), JWTAlg: "HS256"},
	})

	t.Run("valid access token decodes into claims", func(t *testing.T) {
		raw := signGateToken(t, key, &gateClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "acc-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			AccountUID:   "acc-1",
			AccountEmail: "asha@example.com",
			AccountRole:  "doctor",
			TokenUse:     "access",
		})

		claims, err := cfg.TokenVerifier.VerifyAccessToken(raw)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", claims.AccountID())
		assert.Equal(t, "asha@example.com", claims.Email())
		assert.Equal(t, "doctor", claims.Role())
	})

	t.Run("refresh token is rejected", func(t *testing.T) {
		raw := signGateToken(t, key, &gateClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "acc-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			TokenUse: "refresh",
		})

		_, err := cfg.TokenVerifier.VerifyAccessToken(raw)
		assert.Error(t, err)
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		raw := signGateToken(t, "another-key", &gateClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "acc-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			TokenUse: "access",
		})

		_, err := cfg.TokenVerifier.VerifyAccessToken(raw)
		assert.Error(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		raw := signGateToken(t, key, &gateClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "acc-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
			TokenUse: "access",
		})

		_, err := cfg.TokenVerifier.VerifyAccessToken(raw)
		assert.Error(t, err)
	})
}

func TestPerformAuthorizationChecks(t *testing.T) {
	doctor := stubClaims{subject: "acc-1", accountID: "acc-1", email: "d@example.com", role: "doctor"}

	t.Run("no restrictions pass", func(t *testing.T) {
		assert.NoError(t, performAuthorizationChecks(doctor, Config{}))
	})

	t.Run("matching role passes", func(t *testing.T) {
		cfg := Config{RequiredRoles: []string{"doctor"}}
		assert.NoError(t, performAuthorizationChecks(doctor, cfg))
	})

	t.Run("one of several roles passes", func(t *testing.T) {
		cfg := Config{RequiredRoles: []string{"patient", "doctor"}}
		assert.NoError(t, performAuthorizationChecks(doctor, cfg))
	})

	t.Run("missing role is denied", func(t *testing.T) {
		cfg := Config{RequiredRoles: []string{"patient"}}
		err := performAuthorizationChecks(doctor, cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "doctor")
	})

	t.Run("role checker wins over the role list", func(t *testing.T) {
		cfg := Config{
			RequiredRoles: []string{"doctor"},
			RoleChecker: func(claims AuthClaims, roles []string) bool {
				return false
			},
		}
		assert.Error(t, performAuthorizationChecks(doctor, cfg))
	})
}

func TestGetExtractors(t *testing.T) {
	tests := []struct {
		name        string
		tokenLookup string
		expected    int
	}{
		{"single header source", "header:Authorization", 1},
		{"header and cookie", "header:Authorization,cookie:access_token", 2},
		{"all source kinds", "header:Authorization,cookie:access_token,query:auth_token,param:token", 4},
		{"unknown sources are skipped", "body:token", 0},
		{"whitespace tolerated", " header : Authorization , cookie : access_token ", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, GetExtractors(tt.tokenLookup), tt.expected)
		})
	}
}
