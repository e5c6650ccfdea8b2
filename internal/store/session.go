package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionTTL is how long a login session stays valid.
const SessionTTL = 4 * time.Hour

type SessionStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// Create inserts a new session and returns its ID.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	id := newToken()
	expiresAt := s.now().Add(SessionTTL).UTC()
	slog.Debug("store: creating session", "user_id", userID, "expires_at", expiresAt.Format(time.RFC3339))
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`),
		id, userID, expiresAt,
	)
	return id, err
}

// GetUserID validates the session and returns the associated user ID.
// Returns ErrNotFound if the session does not exist or is expired.
func (s *SessionStore) GetUserID(ctx context.Context, sessionID string) (string, error) {
	var userID string
	err := s.db.GetContext(ctx, &userID, s.db.Rebind(
		`SELECT user_id FROM sessions WHERE id = ? AND expires_at > ?`),
		sessionID, s.now().UTC(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, err
}

// Delete removes a single session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE id = ?`), sessionID)
	return err
}

// DeleteExpired removes expired sessions.
func (s *SessionStore) DeleteExpired(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), s.now().UTC())
	return err
}

func newToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
