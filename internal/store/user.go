package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mailprefs/internal/model"
)

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

type userRow struct {
	model.User
	PasswordHash string `db:"password_hash"`
}

const userColumns = `id, username, password_hash, role, status, created_at, last_login_at`

func (s *UserStore) CountAll(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func (s *UserStore) Create(ctx context.Context, id, username, passwordHash string, role model.Role) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO users (id, username, password_hash, role, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		id, username, passwordHash, string(role), string(model.StatusActive), time.Now().UTC(),
	)
	return err
}

// GetByUsername returns the user and their password hash.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, string, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	} else if err != nil {
		return nil, "", err
	}
	return &row.User, row.PasswordHash, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &row.User, nil
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET last_login_at = ? WHERE id = ?`), time.Now().UTC(), id)
	return err
}
