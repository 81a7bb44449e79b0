package config

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// AppConfig is the root configuration document. Values load from
// config/app.json with environment variable overrides.
type AppConfig struct {
	Name        string       `json:"name" koanf:"name"`
	Env         string       `json:"env" koanf:"env"`
	Server      *Server      `json:"server" koanf:"server"`
	Auth        *Auth        `json:"auth" koanf:"auth"`
	Persistence *Persistence `json:"persistence" koanf:"persistence"`
}

type Server struct {
	Addr string `json:"addr" koanf:"addr"`
}

// Auth carries every knob the session core needs. It is injected
// explicitly; nothing reads signing material from ambient state.
type Auth struct {
	SigningKey             string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod          string   `json:"signing_method" koanf:"signing_method"`
	ContextKey             string   `json:"context_key" koanf:"context_key"`
	TokenLookup            string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme             string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer                 string   `json:"issuer" koanf:"issuer"`
	Audience               []string `json:"audience" koanf:"audience"`
	AccessTokenExpiration  int      `json:"access_token_expiration" koanf:"access_token_expiration"`
	RefreshTokenExpiration int      `json:"refresh_token_expiration" koanf:"refresh_token_expiration"`
	AccessCookieName       string   `json:"access_cookie_name" koanf:"access_cookie_name"`
	RefreshCookieName      string   `json:"refresh_cookie_name" koanf:"refresh_cookie_name"`

	production bool
}

type Persistence struct {
	Driver string `json:"driver" koanf:"driver"`
	DSN    string `json:"dsn" koanf:"dsn"`
	Debug  bool   `json:"debug" koanf:"debug"`
}

// Validate fills defaults and rejects configurations the session core
// cannot run with.
func (a *AppConfig) Validate() error {
	if a.Name == "" {
		a.Name = "ayurcare"
	}

	if a.Env == "" {
		a.Env = "development"
	}

	if a.Server == nil {
		a.Server = &Server{}
	}
	if a.Server.Addr == "" {
		a.Server.Addr = ":8080"
	}

	if a.Persistence == nil {
		a.Persistence = &Persistence{}
	}
	if a.Persistence.DSN == "" {
		a.Persistence.DSN = "file::memory:?cache=shared"
	}

	if a.Auth == nil {
		a.Auth = &Auth{}
	}

	a.Auth.production = a.IsProduction()

	return a.Auth.Validate()
}

// IsProduction treats anything named production or prod as production
func (a *AppConfig) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(a.Env))
	return env == "production" || env == "prod"
}

// GetAuth returns the auth section
func (a *AppConfig) GetAuth() *Auth {
	return a.Auth
}

// GetPersistence returns the persistence section
func (a *AppConfig) GetPersistence() *Persistence {
	return a.Persistence
}

// Validate fills auth defaults; the signing key is the only hard
// requirement.
func (c *Auth) Validate() error {
	if c.SigningKey == "" {
		return errors.New("auth.signing_key is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	if c.SigningMethod == "" {
		c.SigningMethod = "HS256"
	}

	if c.ContextKey == "" {
		c.ContextKey = "identity"
	}

	if c.AccessCookieName == "" {
		c.AccessCookieName = "access_token"
	}

	if c.RefreshCookieName == "" {
		c.RefreshCookieName = "refresh_token"
	}

	if c.TokenLookup == "" {
		c.TokenLookup = "header:Authorization,cookie:" + c.AccessCookieName
	}

	if c.AuthScheme == "" {
		c.AuthScheme = "Bearer"
	}

	if c.Issuer == "" {
		c.Issuer = "ayurcare"
	}

	if len(c.Audience) == 0 {
		c.Audience = []string{"ayurcare"}
	}

	if c.AccessTokenExpiration <= 0 {
		c.AccessTokenExpiration = 15 // minutes
	}

	if c.RefreshTokenExpiration <= 0 {
		c.RefreshTokenExpiration = 24 * 7 // hours
	}

	return nil
}

func (c *Auth) GetSigningKey() string    { return c.SigningKey }
func (c *Auth) GetSigningMethod() string { return c.SigningMethod }
func (c *Auth) GetContextKey() string    { return c.ContextKey }
func (c *Auth) GetTokenLookup() string   { return c.TokenLookup }
func (c *Auth) GetAuthScheme() string    { return c.AuthScheme }
func (c *Auth) GetIssuer() string        { return c.Issuer }
func (c *Auth) GetAudience() []string    { return c.Audience }

// GetAccessTokenExpiration is in minutes
func (c *Auth) GetAccessTokenExpiration() int { return c.AccessTokenExpiration }

// GetRefreshTokenExpiration is in hours
func (c *Auth) GetRefreshTokenExpiration() int { return c.RefreshTokenExpiration }

func (c *Auth) GetAccessCookieName() string  { return c.AccessCookieName }
func (c *Auth) GetRefreshCookieName() string { return c.RefreshCookieName }
func (c *Auth) IsProduction() bool           { return c.production }

// SetProduction is used by tests and by the app bootstrap when the
// config section is built by hand.
func (c *Auth) SetProduction(production bool) *Auth {
	c.production = production
	return c
}

func (p *Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p *Persistence) GetDSN() string { return p.DSN }
func (p *Persistence) GetDebug() bool { return p.Debug }
