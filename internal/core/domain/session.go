package domain

import (
	"context"
	"time"
)

// SessionRecord is the persisted server-side state behind a session cookie.
type SessionRecord struct {
	Token       string              `json:"token"`
	UserID      string              `json:"userId,omitempty"`
	Flash       map[string][]string `json:"flash,omitempty"`
	RedirectURL string              `json:"redirectUrl,omitempty"`
	ExpiresAt   time.Time           `json:"expiresAt"`
	TouchedAt   time.Time           `json:"touchedAt"`
}

// SessionRepository defines the data-access contract for session storage.
type SessionRepository interface {
	// Get returns the session stored under token.
	// Returns (nil, nil) when the token does not match a live session.
	Get(ctx context.Context, token string) (*SessionRecord, error)

	// Save upserts the record; it expires at rec.ExpiresAt.
	Save(ctx context.Context, rec *SessionRecord) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, token string) error
}
