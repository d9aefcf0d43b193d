package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/inventario/inventario/internal/shared"
)

// Config tunes the Manager.
type Config struct {
	CookieName   string
	IdleTimeout  time.Duration
	Secure       bool
	StoreTimeout time.Duration
}

// Manager drives the session state machine:
// Anonymous -> Authenticated on login, Authenticated -> Invalidated on logout
// or inactivity. Invalidated tokens behave exactly like anonymous ones.
type Manager struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewManager constructs a Manager.
func NewManager(store Store, cfg Config, logger *slog.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "inventario_session"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// Resolve maps a presented token to a session. Unknown, revoked and expired
// tokens resolve to an anonymous session; expired ones are removed together
// with their cart.
func (m *Manager) Resolve(ctx context.Context, token string) *Session {
	if token == "" {
		return Anonymous()
	}
	var sess Session
	err := shared.WithStoreTimeout(ctx, m.cfg.StoreTimeout, func(ctx context.Context) error {
		var err error
		sess, err = m.store.Get(ctx, token)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("resolve session", slog.Any("error", err))
		}
		return Anonymous()
	}
	now := m.now()
	if sess.Expired(now, m.cfg.IdleTimeout) {
		err := shared.WithStoreTimeout(ctx, m.cfg.StoreTimeout, func(ctx context.Context) error {
			return m.store.Delete(ctx, token)
		})
		if err != nil {
			m.logger.Warn("drop expired session", slog.Any("error", err))
		}
		m.logger.Info("session expired", slog.String("username", sess.Username))
		return Anonymous()
	}
	err = shared.WithStoreTimeout(ctx, m.cfg.StoreTimeout, func(ctx context.Context) error {
		return m.store.Touch(ctx, token, now)
	})
	if errors.Is(err, ErrSessionNotFound) {
		// revoked between Get and Touch
		return Anonymous()
	}
	if err != nil {
		m.logger.Warn("touch session", slog.Any("error", err))
	}
	sess.LastActivity = now
	return &sess
}

// Login binds username and role to a brand-new token. The prior token, if
// any, is revoked in the same step so a fixated token never becomes
// authenticated.
func (m *Manager) Login(ctx context.Context, priorToken, username string, role shared.Role) (*Session, error) {
	if username == "" || !role.Valid() {
		return nil, fmt.Errorf("session: login requires username and a valid role")
	}
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := m.now()
	sess := Session{
		Token:        token,
		Username:     username,
		Role:         role,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = shared.WithStoreTimeout(ctx, m.cfg.StoreTimeout, func(ctx context.Context) error {
		return m.store.Rotate(ctx, priorToken, sess)
	})
	if err != nil {
		return nil, fmt.Errorf("session: rotate: %w", err)
	}
	return &sess, nil
}

// Logout revokes the token immediately.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return shared.WithStoreTimeout(ctx, m.cfg.StoreTimeout, func(ctx context.Context) error {
		return m.store.Delete(ctx, token)
	})
}

// Sweep removes sessions that have been idle longer than the timeout.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	if m.cfg.IdleTimeout <= 0 {
		return 0, nil
	}
	return m.store.Sweep(ctx, m.now().Add(-m.cfg.IdleTimeout))
}

// AddFlash queues a one-time message for a bound session.
func (m *Manager) AddFlash(ctx context.Context, sess *Session, kind, message string) {
	if !sess.Bound() {
		return
	}
	if err := m.store.PushFlash(ctx, sess.Token, shared.FlashMessage{Kind: kind, Message: message}); err != nil && !errors.Is(err, ErrSessionNotFound) {
		m.logger.Warn("push flash", slog.Any("error", err))
	}
}

// PopFlash returns the oldest queued message, if any.
func (m *Manager) PopFlash(ctx context.Context, sess *Session) *shared.FlashMessage {
	if !sess.Bound() {
		return nil
	}
	msg, err := m.store.PopFlash(ctx, sess.Token)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		m.logger.Warn("pop flash", slog.Any("error", err))
	}
	return msg
}

// ReadToken extracts the session token from the request cookie.
func (m *Manager) ReadToken(r *http.Request) string {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WriteCookie issues the session cookie.
func (m *Manager) WriteCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie in the browser.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName returns the cookie identifier used for sessions.
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// IdleTimeout exposes the configured inactivity limit.
func (m *Manager) IdleTimeout() time.Duration {
	return m.cfg.IdleTimeout
}

func newToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return id.String(), nil
}
