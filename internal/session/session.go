// Package session holds the signed-in administrator's credential and
// identity. It is passed explicitly to the components that need it.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"

	"github.com/lostfound/tui/internal/client"
)

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrWrongRole        = errors.New("insufficient role")
)

// Session is a bearer token plus the identity it was issued for.
type Session struct {
	Token string      `yaml:"token"`
	User  client.User `yaml:"user"`

	now func() time.Time
}

// Claims are the fields the backend puts in its access tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// New builds a session from a login response.
func New(resp *client.LoginResponse) *Session {
	return &Session{Token: resp.AccessToken, User: resp.User}
}

// FromToken builds a session from a bare token. The signature is not
// checked; the client never holds the server key. Only the subject, role
// and expiry are read.
func FromToken(token string) (*Session, error) {
	claims, err := parseClaims(token)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token: token,
		User:  client.User{Username: claims.Subject, Role: claims.Role},
	}, nil
}

func parseClaims(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &claims, nil
}

// Authenticated reports whether the session carries a token that has not
// expired. A token without an exp claim never expires.
func (s *Session) Authenticated() bool {
	if s == nil || s.Token == "" {
		return false
	}
	claims, err := parseClaims(s.Token)
	if err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return s.clock().Before(claims.ExpiresAt.Time)
}

// CurrentUser returns the signed-in user, or false when there is none.
func (s *Session) CurrentUser() (client.User, bool) {
	if !s.Authenticated() {
		return client.User{}, false
	}
	u := s.User
	// The token is the source of truth for the role.
	if claims, err := parseClaims(s.Token); err == nil && claims.Role != "" {
		u.Role = claims.Role
	}
	return u, true
}

// RequireRole fails unless the session is authenticated with role.
func (s *Session) RequireRole(role string) error {
	u, ok := s.CurrentUser()
	if !ok {
		return ErrNotAuthenticated
	}
	if u.Role != role {
		return fmt.Errorf("%w: %s is %q, need %q", ErrWrongRole, u.Username, u.Role, role)
	}
	return nil
}

func (s *Session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Load reads a session file. A missing file yields ErrNotAuthenticated.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the session file with owner-only permissions.
func (s *Session) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Remove deletes the session file. Removing a missing file is not an
// error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
