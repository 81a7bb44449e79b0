package ayurcare

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind separates the two session credentials; a refresh token must
// never authenticate a protected request and vice versa.
type TokenKind = string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// AuthClaims represents structured, verified JWT claims
type AuthClaims interface {
	Subject() string
	AccountID() string
	Email() string
	Name() string
	Role() string
	Kind() TokenKind
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. Access tokens
// carry the account id, email, display name and role; refresh tokens carry
// the account id only.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID          string    `json:"uid,omitempty"`
	AccountEmail string    `json:"email,omitempty"`
	DisplayName  string    `json:"name,omitempty"`
	AccountRole  string    `json:"role,omitempty"`
	TokenUse     TokenKind `json:"use,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// AccountID returns the account id, falling back to the subject
func (c *JWTClaims) AccountID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.AccountEmail
}

// Name returns the display name claim
func (c *JWTClaims) Name() string {
	return c.DisplayName
}

// Role returns the role claim
func (c *JWTClaims) Role() string {
	return c.AccountRole
}

// Kind returns the token use claim
func (c *JWTClaims) Kind() TokenKind {
	return c.TokenUse
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
