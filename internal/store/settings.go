package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mailprefs/internal/crypto"
	"github.com/mailprefs/internal/model"
)

// SettingsStore keeps the single AppSettings row, encrypted at rest.
type SettingsStore struct {
	db       *sqlx.DB
	crypter  *crypto.Crypter
	defaults model.AppSettings
}

// NewSettingsStore returns a store that seeds itself with defaults the first
// time Load finds no row.
func NewSettingsStore(db *sqlx.DB, crypter *crypto.Crypter, defaults model.AppSettings) *SettingsStore {
	return &SettingsStore{db: db, crypter: crypter, defaults: defaults}
}

// Load decrypts and returns the current settings.
func (s *SettingsStore) Load(ctx context.Context) (*model.AppSettings, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := s.defaults
		if saveErr := s.Save(ctx, &defaults); saveErr != nil {
			return nil, saveErr
		}
		slog.Info("settings: seeded from environment")
		return &defaults, nil
	} else if err != nil {
		return nil, err
	}

	plaintext, err := s.crypter.Decrypt(data)
	if err != nil {
		slog.Error("settings: decryption failed", "err", err)
		return nil, err
	}
	var settings model.AppSettings
	if err := json.Unmarshal(plaintext, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save encrypts and persists settings.
func (s *SettingsStore) Save(ctx context.Context, settings *model.AppSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	ciphertext, err := s.crypter.Encrypt(raw)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO settings (id, data, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`),
		ciphertext, time.Now().UTC(),
	)
	return err
}

// SMTPEnabled reports whether outgoing mail is configured. A load failure is
// treated as disabled.
func (s *SettingsStore) SMTPEnabled(ctx context.Context) bool {
	settings, err := s.Load(ctx)
	if err != nil {
		slog.Error("settings: failed to load", "err", err)
		return false
	}
	return settings.SMTPEnabled()
}
