package ayurcare

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated account
type Identity interface {
	ID() string
	Name() string
	Email() string
	Role() string
}

// TokenPair is the credential pair handed to a client at login
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetAccountID() string
	GetAccountUUID() (uuid.UUID, error)
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*TokenPair, Identity, error)
	LoginWithRole(ctx context.Context, email, password string, role Role) (*TokenPair, Identity, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenExpiration() int  // minutes
	GetRefreshTokenExpiration() int // hours
	GetAccessCookieName() string
	GetRefreshCookieName() string
	IsProduction() bool
}

// TokenService issues and verifies the two session credentials
type TokenService interface {
	IssueAccessToken(identity Identity) (string, error)
	IssueRefreshToken(accountID string) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	VerifyAccessToken(token string) (AuthClaims, error)
	VerifyRefreshToken(token string) (AuthClaims, error)
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (Identity, error)
	FindIdentityByID(ctx context.Context, id string) (Identity, error)
}

// LoginPayload is the minimal contract for credential submissions
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// AccountStore is the persistence contract for the account collection.
// Request-path loads go through GetSessionAccount, which excludes the
// password hash and refresh token columns from the projection.
type AccountStore interface {
	Register(ctx context.Context, account *Account) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	GetSessionAccount(ctx context.Context, id string) (*Account, error)
	AssignDoctor(ctx context.Context, patientID, doctorID string) error
	ListPatientsOfDoctor(ctx context.Context, doctorID string) ([]*Account, error)
}

// SessionStore owns the single mutable refresh-token slot per account.
// Concurrent logins race on SaveRefreshToken: last write wins.
type SessionStore interface {
	SaveRefreshToken(ctx context.Context, accountID, token string) error
	GetRefreshToken(ctx context.Context, accountID string) (string, error)
	ClearRefreshToken(ctx context.Context, accountID string) error
}

// NopLogger discards everything; useful for tests and optional deps
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AYUR "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AYUR "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AYUR "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AYUR "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
