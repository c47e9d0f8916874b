// Package auth manages the exchange session token: initial login, periodic
// renewal, and the Authorization header attached to every API call.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rickgao/tickplant/internal/metrics"
)

// HeaderScheme prefixes the token in the Authorization header.
const HeaderScheme = "Session-Token "

// ErrNoSession is returned when a token is requested before Acquire succeeded.
var ErrNoSession = errors.New("no active session")

// AuthError reports a rejected login or renewal.
type AuthError struct {
	Op         string // "login", "reauth" or "token"
	StatusCode int    // 0 when the exchange returned 2xx without a token
	Reason     string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("auth %s failed (%d): %s", e.Op, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("auth %s failed: %s", e.Op, e.Reason)
}

// Session is an issued token.
type Session struct {
	Token      string
	AcquiredAt time.Time
}

// Credentials configure how a session is obtained.
type Credentials struct {
	Login    string
	Password string
	Token    string // Pre-issued token, skips login when set
}

// Manager owns the single live session for a client instance.
type Manager struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	// exchangeMu serializes login/reauth round trips.
	exchangeMu sync.Mutex

	// mu guards session for read/replace only.
	mu      sync.RWMutex
	session Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager for the API at baseURL.
func NewManager(baseURL string, creds Credentials, opts ...Option) *Manager {
	m := &Manager{
		baseURL: baseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire establishes the session, from the configured token if present,
// otherwise by logging in with login and password.
func (m *Manager) Acquire(ctx context.Context) (Session, error) {
	m.exchangeMu.Lock()
	defer m.exchangeMu.Unlock()

	if m.creds.Token != "" {
		s := Session{Token: m.creds.Token, AcquiredAt: m.now()}
		m.replace(s)
		m.logger.Info("session initialised from configured token")
		return s, nil
	}

	token, err := m.exchange(ctx, "login", "sessions/", map[string]string{
		"username": m.creds.Login,
		"password": m.creds.Password,
	}, "")
	if err != nil {
		return Session{}, err
	}

	s := Session{Token: token, AcquiredAt: m.now()}
	m.replace(s)
	m.logger.Info("session acquired", "login", m.creds.Login)
	return s, nil
}

// Renew swaps the current session for a fresh one. Requests already sent with
// the old token are unaffected; later requests pick up the new token.
func (m *Manager) Renew(ctx context.Context) (Session, error) {
	m.exchangeMu.Lock()
	defer m.exchangeMu.Unlock()

	current, err := m.Token()
	if err != nil {
		return Session{}, err
	}

	token, err := m.exchange(ctx, "reauth", "sessions/reauth/", nil, current)
	if err != nil {
		metrics.SessionRenewals.WithLabelValues("error").Inc()
		return Session{}, err
	}

	s := Session{Token: token, AcquiredAt: m.now()}
	m.replace(s)
	metrics.SessionRenewals.WithLabelValues("ok").Inc()
	m.logger.Info("session renewed")
	return s, nil
}

// Session returns the current session.
func (m *Manager) Session() (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session.Token == "" {
		return Session{}, ErrNoSession
	}
	return m.session, nil
}

// Token returns the current token.
func (m *Manager) Token() (string, error) {
	s, err := m.Session()
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

// AuthHeader returns the Authorization header value for the current session.
func (m *Manager) AuthHeader() (string, error) {
	token, err := m.Token()
	if err != nil {
		return "", err
	}
	return HeaderScheme + token, nil
}

// RunRenewal renews the session every interval until ctx is done. Renewal
// failures are logged; the previous token stays in place.
func (m *Manager) RunRenewal(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("renewal interval must be positive, got %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Renew(ctx); err != nil {
				m.logger.Warn("session renewal failed", "error", err)
			}
		}
	}
}

func (m *Manager) replace(s Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}

type tokenResponse struct {
	Token string `json:"token"`
}

// exchange posts to a session endpoint and extracts the returned token.
func (m *Manager) exchange(ctx context.Context, op, path string, payload any, current string) (string, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if current != "" {
		req.Header.Set("Authorization", HeaderScheme+current)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode >= 400 {
		return "", &AuthError{Op: op, StatusCode: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", &AuthError{Op: op, Reason: "malformed response: " + err.Error()}
	}
	if tr.Token == "" {
		return "", &AuthError{Op: op, Reason: "response carries no token"}
	}
	return tr.Token, nil
}
