package ayurcare

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/svasthya/ayurcare/middleware/sessiongate"
)

// RouteAuthenticator binds the session core to HTTP transport concerns:
// cookie management, the session gate, and the role router.
type RouteAuthenticator struct {
	auth             Authenticator
	tokens           TokenService
	cfg              Config
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, tokens TokenService, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		tokens: tokens,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetAccessCookieDuration() time.Duration {
	minutes := a.cfg.GetAccessTokenExpiration()
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

func (a RouteAuthenticator) GetRefreshCookieDuration() time.Duration {
	hours := a.cfg.GetRefreshTokenExpiration()
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// ProtectedRoute returns the session gate middleware: it extracts the
// access token per the configured lookup, verifies it, and stores the
// claims under the context key for downstream role checks.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return sessiongate.New(sessiongate.Config{
		ErrorHandler:  errorHandler,
		AuthScheme:    a.cfg.GetAuthScheme(),
		ContextKey:    a.cfg.GetContextKey(),
		TokenLookup:   a.cfg.GetTokenLookup(),
		TokenVerifier: gateVerifier{tokens: a.tokens},
		ContextEnricher: func(c context.Context, claims sessiongate.AuthClaims) context.Context {
			if full, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, full)
			}
			return c
		},
		ValidationListeners: []sessiongate.ValidationListener{
			a.rejectStaleIdentity,
		},
	})
}

// rejectStaleIdentity fails the gate when the token verifies but its
// account no longer exists. The token itself stays cryptographically
// valid until expiry, so this is the only check that catches deletion.
func (a *RouteAuthenticator) rejectStaleIdentity(ctx router.Context, claims sessiongate.AuthClaims) error {
	full, ok := claims.(AuthClaims)
	if !ok {
		return ErrUnableToDecodeSession
	}

	session, err := sessionFromAuthClaims(full)
	if err != nil {
		return err
	}

	if _, err := a.auth.IdentityFromSession(ctx.Context(), session); err != nil {
		a.Logger.Warn("Session account no longer resolves: %s", err)
		return errors.New("session account no longer exists", errors.CategoryAuth).
			WithTextCode(TextCodeTokenInvalid).
			WithCode(errors.CodeUnauthorized)
	}

	return nil
}

// RequireRoles rejects any session whose role is not in the allowed set.
// It must run after ProtectedRoute so the claims are in the context.
func (a *RouteAuthenticator) RequireRoles(allowed ...Role) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := ctx.Locals(a.cfg.GetContextKey()).(sessiongate.AuthClaims)
			if !ok || claims == nil {
				return a.ErrorHandler(ctx, errors.New(
					"no authenticated session in context",
					errors.CategoryAuth,
				).WithTextCode(TextCodeTokenInvalid).WithCode(errors.CodeUnauthorized))
			}

			role, ok := ParseRole(claims.Role())
			if !ok || !RoleIn(role, allowed...) {
				return a.ErrorHandler(ctx, NewForbiddenError(role, allowed))
			}

			return ctx.Next()
		}
	}
}

// Login authenticates the payload credentials, scoped to requiredRole
// when one is given, and on success sets the token cookie pair on the
// response. Any failure clears stale cookies without touching the
// account's stored session state.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload, requiredRole Role) (*TokenPair, Identity, error) {
	pair, identity, err := a.auth.LoginWithRole(ctx.Context(), payload.GetIdentifier(), payload.GetPassword(), requiredRole)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		a.ClearTokenCookies(ctx)
		return nil, nil, err
	}

	a.SetTokenCookies(ctx, pair)
	return pair, identity, nil
}

// Refresh rotates the session from the refresh token cookie or payload.
func (a *RouteAuthenticator) Refresh(ctx router.Context, refreshToken string) (*TokenPair, error) {
	pair, err := a.auth.Refresh(ctx.Context(), refreshToken)
	if err != nil {
		return nil, err
	}

	a.SetTokenCookies(ctx, pair)
	return pair, nil
}

// Logout revokes the stored refresh token and clears both cookies.
func (a *RouteAuthenticator) Logout(ctx router.Context, accountID string) error {
	if err := a.auth.Logout(ctx.Context(), accountID); err != nil {
		return err
	}
	a.ClearTokenCookies(ctx)
	return nil
}

// SetTokenCookies writes the access and refresh cookies. Cross site
// clients need SameSite None, which browsers only accept over TLS, so
// production runs None+Secure and everything else runs Lax.
func (a *RouteAuthenticator) SetTokenCookies(c router.Context, pair *TokenPair) {
	if pair == nil {
		return
	}
	a.setCookieToken(c, a.cfg.GetAccessCookieName(), pair.AccessToken, a.GetAccessCookieDuration())
	a.setCookieToken(c, a.cfg.GetRefreshCookieName(), pair.RefreshToken, a.GetRefreshCookieDuration())
}

func (a *RouteAuthenticator) ClearTokenCookies(c router.Context) {
	a.cookieDel(c, a.cfg.GetAccessCookieName())
	a.cookieDel(c, a.cfg.GetRefreshCookieName())
}

func (a *RouteAuthenticator) RefreshTokenFromRequest(c router.Context) string {
	return c.Cookies(a.cfg.GetRefreshCookieName())
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithTextCode(TextCodeTokenInvalid).
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding: %s", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, name, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   a.cfg.IsProduction(),
		SameSite: a.cookieSameSite(),
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.cfg.IsProduction(),
		SameSite: a.cookieSameSite(),
	})
}

func (a *RouteAuthenticator) cookieSameSite() string {
	if a.cfg.IsProduction() {
		return "None"
	}
	return "Lax"
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error on %s: %s (%s)",
		c.OriginalURL(),
		richErr.Message,
		richErr.TextCode,
	)

	if richErr.Code == 0 {
		richErr = richErr.WithCode(errors.CodeUnauthorized)
	}

	return JSONError(c, richErr, a.cfg.IsProduction())
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler: %s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	return JSONError(c, richErr, a.cfg.IsProduction())
}

// gateVerifier adapts the token service to the session gate's local
// verifier interface.
type gateVerifier struct {
	tokens TokenService
}

func (g gateVerifier) VerifyAccessToken(tokenString string) (sessiongate.AuthClaims, error) {
	claims, err := g.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
