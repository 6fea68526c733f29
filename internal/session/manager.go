// Package session issues and resolves login sessions. The browser holds an
// HS256-signed cookie naming a server-side session, so ending a session
// invalidates the cookie even before it expires.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meetup-planner/app/pkg/logger"
	"go.uber.org/zap"
)

const CookieName = "meetup_session"

type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

type Options struct {
	Secret []byte
	TTL    time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

func NewManager(store Store, opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, secret: opts.Secret, ttl: ttl, secure: opts.Secure, now: time.Now}
}

// Start creates a session for userID and sets the cookie on w.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, userID uint) error {
	sess := &Session{ID: uuid.NewString(), UserID: userID, CreatedAt: m.now().UTC()}
	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return err
	}
	token, err := signToken(m.secret, sess, m.ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Resolve returns the user id behind the request's session cookie. A missing,
// forged, expired or revoked cookie resolves to false.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (uint, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	claims, err := parseToken(m.secret, c.Value)
	if err != nil {
		return 0, false
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	sess, err := m.store.Lookup(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			logger.L().Warn("session lookup failed", zap.Error(err))
		}
		return 0, false
	}
	if sess.UserID != userID {
		return 0, false
	}
	return userID, true
}

// End revokes the request's session and clears the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		if claims, err := parseToken(m.secret, c.Value); err == nil {
			if err := m.store.Delete(ctx, claims.SessionID); err != nil {
				logger.L().Warn("session delete failed", zap.Error(err))
			}
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
