package ayurcare

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenConfig is the explicit signing configuration injected into the
// token service at construction; there is no ambient signing state.
type TokenConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   jwt.ClaimStrings
	// AccessTTL bounds the access token (minutes-scale)
	AccessTTL time.Duration
	// RefreshTTL bounds the refresh token (days-scale)
	RefreshTTL time.Duration
}

// TokenConfigFromConfig derives a TokenConfig from the app auth options
func TokenConfigFromConfig(cfg Config) TokenConfig {
	return TokenConfig{
		SigningKey: []byte(cfg.GetSigningKey()),
		Issuer:     cfg.GetIssuer(),
		Audience:   jwt.ClaimStrings(cfg.GetAudience()),
		AccessTTL:  time.Duration(cfg.GetAccessTokenExpiration()) * time.Minute,
		RefreshTTL: time.Duration(cfg.GetRefreshTokenExpiration()) * time.Hour,
	}
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	cfg    TokenConfig
	logger Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg TokenConfig, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		cfg:    cfg,
		logger: logger,
	}
}

// IssueAccessToken creates the short-lived credential presented on every
// protected request. Claims: account id, email, display name, role.
func (ts *TokenServiceImpl) IssueAccessToken(identity Identity) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryInternal)
	}

	claims := ts.newClaims(identity.ID(), TokenKindAccess, ts.cfg.AccessTTL)
	claims.AccountEmail = identity.Email()
	claims.DisplayName = identity.Name()
	claims.AccountRole = identity.Role()

	return ts.SignClaims(claims)
}

// IssueRefreshToken creates the longer-lived reissue credential. Claims:
// account id only.
func (ts *TokenServiceImpl) IssueRefreshToken(accountID string) (string, error) {
	if accountID == "" {
		return "", errors.New("account id must not be empty", errors.CategoryInternal)
	}

	claims := ts.newClaims(accountID, TokenKindRefresh, ts.cfg.RefreshTTL)
	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.cfg.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// VerifyAccessToken parses and validates an access token, returning
// structured claims
func (ts *TokenServiceImpl) VerifyAccessToken(tokenString string) (AuthClaims, error) {
	return ts.verify(tokenString, TokenKindAccess)
}

// VerifyRefreshToken parses and validates a refresh token
func (ts *TokenServiceImpl) VerifyRefreshToken(tokenString string) (AuthClaims, error) {
	return ts.verify(tokenString, TokenKindRefresh)
}

func (ts *TokenServiceImpl) verify(tokenString string, kind TokenKind) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.cfg.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.cfg.Issuer))
	}
	if len(ts.cfg.Audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.cfg.Audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.cfg.SigningKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
			WithTextCode(ErrTokenInvalid.TextCode).
			WithCode(ErrTokenInvalid.Code)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService verify could not decode or validate claims")
		return nil, ErrTokenInvalid
	}

	if claims.Kind() != kind {
		return nil, errors.New("token presented for the wrong use", ErrTokenInvalid.Category).
			WithTextCode(ErrTokenInvalid.TextCode).
			WithCode(ErrTokenInvalid.Code).
			WithMetadata(map[string]any{"want": kind, "got": claims.Kind()})
	}

	return claims, nil
}

func (ts *TokenServiceImpl) newClaims(accountID string, kind TokenKind, ttl time.Duration) *JWTClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.cfg.Audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.cfg.Audience))
		copy(aud, ts.cfg.Audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.cfg.Issuer,
			Subject:   accountID,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:      accountID,
		TokenUse: kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}
