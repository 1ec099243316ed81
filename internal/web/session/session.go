// Package session implements cookie sessions backed by a SessionRepository.
//
// The cookie carries an HS256-signed JWT whose jti is the opaque session
// token; all state (user id, flash notices, post-login redirect) lives in the
// repository. Sessions are persisted only once something is written to them,
// re-saved whenever they change or their last touch is older than TouchAfter,
// and expire TTL after the last save.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/duynhne/wanderlust/internal/core/domain"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

var (
	// ErrSessionNotFound means the token does not name a stored session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired means the stored session is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// Options configures a Manager.
type Options struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	TouchAfter time.Duration
	Secure     bool
}

// Manager loads and commits sessions.
type Manager struct {
	repo domain.SessionRepository
	opts Options
	now  func() time.Time
}

// NewManager creates a Manager. Zero durations take the 7 day / 24 hour
// defaults; an empty secret is replaced by a random per-process key, which
// invalidates cookies on restart.
func NewManager(repo domain.SessionRepository, opts Options) *Manager {
	if len(opts.Secret) == 0 {
		opts.Secret = make([]byte, 32)
		_, _ = rand.Read(opts.Secret)
	}
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.TouchAfter <= 0 {
		opts.TouchAfter = 24 * time.Hour
	}
	return &Manager{repo: repo, opts: opts, now: time.Now}
}

// Session is the per-request view of a session record.
type Session struct {
	rec       domain.SessionRecord
	persisted bool
	modified  bool
	staleKey  string
}

func freshRecord() domain.SessionRecord {
	return domain.SessionRecord{Token: uuid.NewString()}
}

func (m *Manager) fresh() *Session {
	return &Session{rec: freshRecord()}
}

// Lookup fetches the stored record for token.
func (m *Manager) Lookup(ctx context.Context, token string) (*domain.SessionRecord, error) {
	rec, err := m.repo.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if rec == nil {
		return nil, ErrSessionNotFound
	}
	if !rec.ExpiresAt.IsZero() && !m.now().Before(rec.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return rec, nil
}

// Load resolves the session named by the request cookie. A missing, forged,
// expired or unknown cookie yields a fresh unsaved session; only store
// failures are returned as errors.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return m.fresh(), nil
	}
	token, err := m.parseCookie(cookie.Value)
	if err != nil {
		return m.fresh(), nil
	}
	rec, err := m.Lookup(ctx, token)
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		return m.fresh(), nil
	case err != nil:
		return nil, err
	}
	return &Session{rec: *rec, persisted: true}, nil
}

// Commit persists the session if needed and sets or clears the cookie.
// It must run before the response body is written. Committing an unchanged
// session again is a no-op.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.staleKey != "" {
		if err := m.repo.Delete(ctx, s.staleKey); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		s.staleKey = ""
	}

	now := m.now()
	touchDue := s.persisted && now.Sub(s.rec.TouchedAt) >= m.opts.TouchAfter
	if !s.modified && !touchDue {
		return nil
	}
	if !s.persisted && s.empty() {
		return nil
	}

	s.rec.TouchedAt = now
	s.rec.ExpiresAt = now.Add(m.opts.TTL)
	if err := m.repo.Save(ctx, &s.rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.persisted = true
	s.modified = false

	value, err := m.signCookie(s.rec.Token, s.rec.ExpiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(value, int(m.opts.TTL.Seconds()), s.rec.ExpiresAt))
	return nil
}

func (m *Manager) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (m *Manager) signCookie(token string, exp time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        token,
		IssuedAt:  jwt.NewNumericDate(m.now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.opts.Secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *Manager) parseCookie(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return m.opts.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session cookie without token")
	}
	return claims.ID, nil
}

func (s *Session) empty() bool {
	return s.rec.UserID == "" && len(s.rec.Flash) == 0 && s.rec.RedirectURL == ""
}

// Token returns the current session token.
func (s *Session) Token() string { return s.rec.Token }

// IsNew reports whether the session has never been stored.
func (s *Session) IsNew() bool { return !s.persisted }

// UserID returns the signed-in user's id, or "".
func (s *Session) UserID() string { return s.rec.UserID }

// SetUser binds the session to a user.
func (s *Session) SetUser(id string) {
	s.rec.UserID = id
	s.modified = true
}

// Regenerate moves the session to a new token and drops the identity and any
// pending post-login redirect. Pending flash notices are kept. The old record
// is deleted on commit.
func (s *Session) Regenerate() {
	if s.persisted {
		s.staleKey = s.rec.Token
	}
	s.rec = domain.SessionRecord{Token: uuid.NewString(), Flash: s.rec.Flash}
	s.persisted = false
	s.modified = true
}

// AddFlash queues a notice for the next rendered page.
func (s *Session) AddFlash(kind, msg string) {
	if s.rec.Flash == nil {
		s.rec.Flash = make(map[string][]string)
	}
	s.rec.Flash[kind] = append(s.rec.Flash[kind], msg)
	s.modified = true
}

// Flashes returns and clears all pending notices.
func (s *Session) Flashes() map[string][]string {
	out := s.rec.Flash
	if len(out) > 0 {
		s.rec.Flash = nil
		s.modified = true
	}
	if out == nil {
		out = map[string][]string{}
	}
	return out
}

// SetRedirect stores where to send the user after signing in.
func (s *Session) SetRedirect(url string) {
	s.rec.RedirectURL = url
	s.modified = true
}

// TakeRedirect returns and clears the stored post-login redirect.
func (s *Session) TakeRedirect() string {
	url := s.rec.RedirectURL
	if url != "" {
		s.rec.RedirectURL = ""
		s.modified = true
	}
	return url
}
