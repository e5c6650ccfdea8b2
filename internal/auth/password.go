package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mailprefs/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Hash returns a bcrypt hash of the password.
func Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(b), err
}

// Verify reports whether password matches the stored bcrypt hash.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewID returns a random UUID for a new user.
func NewID() string {
	return uuid.NewString()
}

// UserCreator is the minimal interface needed for seeding the first admin.
type UserCreator interface {
	CountAll(ctx context.Context) (int, error)
	Create(ctx context.Context, id, username, passwordHash string, role model.Role) error
}

// SeedFirstAdmin creates the initial super_admin account if the users table
// is empty. Empty credentials skip seeding.
func SeedFirstAdmin(ctx context.Context, users UserCreator, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	count, err := users.CountAll(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := Hash(password)
	if err != nil {
		return err
	}

	if err := users.Create(ctx, NewID(), username, hash, model.RoleSuperAdmin); err != nil {
		return err
	}
	slog.Info("seed: created first super_admin", "username", username)
	return nil
}
