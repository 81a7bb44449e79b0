package ayurcare

import (
	"context"
	"reflect"
)

// Auther implements Authenticator on top of an identity provider, a token
// service, and the per-account refresh-token slot.
type Auther struct {
	provider     IdentityProvider
	sessions     SessionStore
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, sessions SessionStore, cfg Config) *Auther {
	return &Auther{
		provider:     provider,
		sessions:     sessions,
		tokenService: NewTokenService(TokenConfigFromConfig(cfg), defLogger{}),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService sets a custom token service
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and issues a token pair. Persisting the
// refresh token invalidates any prior one: a single active refresh token
// per account, last write wins.
func (s *Auther) Login(ctx context.Context, email, password string) (*TokenPair, Identity, error) {
	return s.LoginWithRole(ctx, email, password, "")
}

// LoginWithRole authenticates credentials scoped to a role. A valid
// credential carrying the wrong role fails exactly like a bad password,
// before any token is issued: the account's stored refresh slot must not
// rotate on a request that is answered 401.
func (s *Auther) LoginWithRole(ctx context.Context, email, password string, role Role) (*TokenPair, Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return nil, nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, nil, ErrIdentityNotFound
	}

	if role != "" && identity.Role() != role {
		s.logger.Warn("Login role mismatch for %s: have %s want %s", email, identity.Role(), role)
		return nil, nil, ErrMismatchedHashAndPassword
	}

	pair, err := s.issuePair(ctx, identity)
	if err != nil {
		return nil, nil, err
	}

	return pair, identity, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token must still match the account's stored reference; logout or a later
// login rejects it even before its own expiry.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenService.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.logger.Error("Refresh token verification failed", "error", err)
		return nil, err
	}

	stored, err := s.sessions.GetRefreshToken(ctx, claims.AccountID())
	if err != nil {
		s.logger.Error("Refresh stored token lookup failed", "error", err)
		return nil, err
	}

	if stored == "" || stored != refreshToken {
		return nil, ErrRefreshRejected
	}

	identity, err := s.provider.FindIdentityByID(ctx, claims.AccountID())
	if err != nil {
		s.logger.Error("Refresh identity lookup failed", "error", err)
		return nil, err
	}

	return s.issuePair(ctx, identity)
}

// Logout clears the refresh-token reference; the client is instructed to
// discard both tokens separately.
func (s *Auther) Logout(ctx context.Context, accountID string) error {
	if err := s.sessions.ClearRefreshToken(ctx, accountID); err != nil {
		s.logger.Error("Logout failed to clear refresh token", "error", err, "account_id", accountID)
		return err
	}
	return nil
}

// SessionFromToken decodes and verifies an access token into a session
func (s Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.VerifyAccessToken(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// IdentityFromSession resolves the live account behind a session
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByID(ctx, session.GetAccountID())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity error", "error", err)
		return nil, err
	}

	return identity, nil
}

func (s *Auther) issuePair(ctx context.Context, identity Identity) (*TokenPair, error) {
	accessToken, err := s.tokenService.IssueAccessToken(identity)
	if err != nil {
		s.logger.Error("failed to issue access token", "error", err)
		return nil, err
	}

	refreshToken, err := s.tokenService.IssueRefreshToken(identity.ID())
	if err != nil {
		s.logger.Error("failed to issue refresh token", "error", err)
		return nil, err
	}

	if err := s.sessions.SaveRefreshToken(ctx, identity.ID(), refreshToken); err != nil {
		s.logger.Error("failed to persist refresh token", "error", err)
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

var _ Authenticator = (*Auther)(nil)
