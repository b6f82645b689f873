// Package session persists the bearer token issued by the identity provider
// and hands it to the gateway client.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/soyeahso/agentconsole/internal/config"
	"github.com/soyeahso/agentconsole/internal/logging"
)

// ErrNotAuthenticated means no usable token is stored.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrLoginNotConfigured means auth.tokenUrl is missing from the config.
var ErrLoginNotConfigured = errors.New("login is not configured: set auth.tokenUrl and auth.clientId")

// Cookie is the persisted token record.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitzero"`
}

// Claims are the unverified token claims shown to the user.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Provider reads, writes, and clears the session cookie.
type Provider struct {
	path   string
	cfg    config.AuthConfig
	log    *logging.Logger
	now    func() time.Time
	oauth2 *oauth2.Config
}

// NewProvider creates a provider persisting its cookie at path.
func NewProvider(path string, cfg config.AuthConfig, log *logging.Logger) *Provider {
	if cfg.CookieName == "" {
		cfg.CookieName = config.DefaultCookieName
	}
	p := &Provider{
		path: path,
		cfg:  cfg,
		log:  log.Sub("session"),
		now:  time.Now,
	}
	if cfg.TokenURL != "" {
		p.oauth2 = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
			Scopes:       cfg.Scopes,
		}
	}
	return p
}

// Token returns the stored bearer token. A missing, unreadable, or expired
// cookie yields ErrNotAuthenticated.
func (p *Provider) Token(_ context.Context) (string, error) {
	c, err := p.load()
	if err != nil {
		return "", err
	}
	now := p.now()
	if !c.Expires.IsZero() && now.After(c.Expires) {
		p.log.Debug().Time("expires", c.Expires).Msg("session cookie expired")
		return "", ErrNotAuthenticated
	}
	if claims, ok := parseClaims(c.Value); ok && !claims.ExpiresAt.IsZero() && now.After(claims.ExpiresAt) {
		p.log.Debug().Time("exp", claims.ExpiresAt).Msg("session token expired")
		return "", ErrNotAuthenticated
	}
	return c.Value, nil
}

// Claims returns the unverified claims of the stored token.
func (p *Provider) Claims() (Claims, error) {
	c, err := p.load()
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parseClaims(c.Value)
	if !ok {
		return Claims{ExpiresAt: c.Expires}, nil
	}
	if claims.ExpiresAt.IsZero() {
		claims.ExpiresAt = c.Expires
	}
	return claims, nil
}

// Save stores token as the current session.
func (p *Provider) Save(token string, expires time.Time) error {
	if token == "" {
		return errors.New("empty token")
	}
	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating credentials directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(Cookie{Name: p.cfg.CookieName, Value: token, Expires: expires}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	p.log.Info().Str("path", p.path).Msg("session saved")
	return nil
}

// Clear removes the stored session. Clearing an absent session is not an error.
func (p *Provider) Clear() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	p.log.Info().Msg("session cleared")
	return nil
}

// Login exchanges username and password for a token at the identity
// provider and stores it.
func (p *Provider) Login(ctx context.Context, username, password string) error {
	if p.oauth2 == nil {
		return ErrLoginNotConfigured
	}
	tok, err := p.oauth2.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return p.Save(tok.AccessToken, tok.Expiry)
}

func (p *Provider) load() (Cookie, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Cookie{}, ErrNotAuthenticated
		}
		return Cookie{}, fmt.Errorf("reading session: %w", err)
	}
	var c Cookie
	if err := json.Unmarshal(data, &c); err != nil {
		p.log.Warn().Err(err).Msg("discarding unreadable session")
		return Cookie{}, ErrNotAuthenticated
	}
	if c.Value == "" || (c.Name != "" && c.Name != p.cfg.CookieName) {
		return Cookie{}, ErrNotAuthenticated
	}
	return c, nil
}

// parseClaims reads JWT claims without verifying the signature; the gateway
// does verification. Opaque tokens report ok=false.
func parseClaims(token string) (Claims, bool) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, false
	}
	var claims Claims
	claims.Subject, _ = mc.GetSubject()
	if email, ok := mc["email"].(string); ok {
		claims.Email = email
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, true
}
