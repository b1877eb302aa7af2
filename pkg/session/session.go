// Package session keeps the backend bearer token and the signed-in user,
// persisted under the auth-storage key.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/cache"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/gateway"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/logger"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Authenticator is the part of the gateway used to sign in.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (gateway.LoginResponse, error)
	Me(ctx context.Context) (gateway.User, error)
}

// State is the persisted auth-storage document.
type State struct {
	Token     string        `json:"token,omitempty"`
	TokenType string        `json:"tokenType,omitempty"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
	User      *gateway.User `json:"user,omitempty"`
}

type Manager struct {
	mu    sync.RWMutex
	state State

	kv    cache.Store
	clock clockwork.Clock
	log   *logger.Logger
}

func NewManager(kv cache.Store, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{kv: kv, clock: clock, log: logger.Named("session")}
}

// Load restores the persisted session. An unreadable document is discarded.
func (m *Manager) Load() error {
	raw, found, err := m.kv.Get(cache.AuthStorageKey)
	if err != nil {
		return fmt.Errorf("read %s: %w", cache.AuthStorageKey, err)
	}
	if !found {
		return nil
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		m.log.Warn("Discarding unreadable %s: %v", cache.AuthStorageKey, err)
		return nil
	}
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	if m.Expired() {
		m.log.Info("Persisted token expired at %s", st.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// Token returns the bearer token, or "" when there is none or it has expired.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.expiredLocked() {
		return ""
	}
	return m.state.Token
}

func (m *Manager) Expired() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiredLocked()
}

func (m *Manager) expiredLocked() bool {
	return m.state.ExpiresAt != nil && !m.clock.Now().Before(*m.state.ExpiresAt)
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// SetToken stores token, reading its expiry from the exp claim when it is a JWT.
// Opaque tokens never expire locally.
func (m *Manager) SetToken(token, tokenType string) error {
	st := State{Token: token, TokenType: tokenType, ExpiresAt: expiry(token)}
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	return m.save()
}

// expiry reads the exp claim without verifying the signature; the backend does that.
func expiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time.UTC()
	return &t
}

// Login signs in against the backend and persists the returned token.
func (m *Manager) Login(ctx context.Context, auth Authenticator, email, password string) error {
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("login: empty access token: %w", ErrNotAuthenticated)
	}
	if err := m.SetToken(resp.AccessToken, resp.TokenType); err != nil {
		return err
	}
	m.log.Info("Signed in as %s", email)
	return nil
}

// Me fetches the signed-in user and stores it with the session.
func (m *Manager) Me(ctx context.Context, auth Authenticator) (gateway.User, error) {
	if m.Token() == "" {
		return gateway.User{}, ErrNotAuthenticated
	}
	u, err := auth.Me(ctx)
	if err != nil {
		if gateway.IsStatus(err, http.StatusUnauthorized) {
			return gateway.User{}, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		return gateway.User{}, err
	}
	m.mu.Lock()
	m.state.User = &u
	m.mu.Unlock()
	return u, m.save()
}

// Authenticate verifies the stored session with /auth/me and falls back to a
// fresh login with the given credentials when there is no usable token.
func (m *Manager) Authenticate(ctx context.Context, auth Authenticator, email, password string) (gateway.User, error) {
	if m.Token() != "" {
		u, err := m.Me(ctx, auth)
		if !errors.Is(err, ErrNotAuthenticated) {
			return u, err
		}
		m.log.Warn("Stored session was rejected: %v", err)
	}
	if email == "" || password == "" {
		return gateway.User{}, ErrNotAuthenticated
	}
	if err := m.Login(ctx, auth, email, password); err != nil {
		return gateway.User{}, err
	}
	return m.Me(ctx, auth)
}

func (m *Manager) Logout() error {
	m.mu.Lock()
	m.state = State{}
	m.mu.Unlock()
	return m.kv.Delete(cache.AuthStorageKey)
}

func (m *Manager) save() error {
	return cache.SaveJSON(m.kv, cache.AuthStorageKey, m.State())
}
