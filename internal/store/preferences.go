package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mailprefs/internal/model"
)

type PreferencesStore struct {
	db *sqlx.DB
}

func NewPreferencesStore(db *sqlx.DB) *PreferencesStore {
	return &PreferencesStore{db: db}
}

const preferencesColumns = `user_id, email, enable_notifications, checkin_aliases, updated_at`

// Get returns the preferences for userID. A user who never saved any gets
// zero-value preferences rather than an error.
func (s *PreferencesStore) Get(ctx context.Context, userID string) (*model.Preferences, error) {
	var p model.Preferences
	err := s.db.GetContext(ctx, &p, s.db.Rebind(
		`SELECT `+preferencesColumns+` FROM preferences WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.Preferences{UserID: userID}, nil
	} else if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save upserts the preferences row and stamps UpdatedAt.
func (s *PreferencesStore) Save(ctx context.Context, p *model.Preferences) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO preferences (`+preferencesColumns+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   email = excluded.email,
		   enable_notifications = excluded.enable_notifications,
		   checkin_aliases = excluded.checkin_aliases,
		   updated_at = excluded.updated_at`),
		p.UserID, p.Email, p.EnableNotifications, p.CheckinAliases, p.UpdatedAt,
	)
	return err
}

// ListSubscribed returns every user who has notifications on and an address
// to send them to.
func (s *PreferencesStore) ListSubscribed(ctx context.Context) ([]model.Preferences, error) {
	var prefs []model.Preferences
	err := s.db.SelectContext(ctx, &prefs, s.db.Rebind(
		`SELECT `+preferencesColumns+` FROM preferences
		 WHERE enable_notifications = ? AND email <> ''
		 ORDER BY user_id`), true)
	return prefs, err
}
