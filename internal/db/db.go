// Package db opens the application database and keeps its schema current.
// DATABASE_URL selects the backend: postgres:// and postgresql:// URLs use
// pgx, anything else is treated as a SQLite file path.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// Driver names as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DriverFor returns the database/sql driver name for a DATABASE_URL.
func DriverFor(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to url and applies pending migrations.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Connect opens url and verifies the connection without touching the schema.
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	driver := DriverFor(url)
	dsn := url
	if driver == DriverSQLite {
		dsn = sqliteDSN(url)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One writer at a time; also keeps :memory: databases on one connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Migrate applies all up migrations for the database's dialect.
func Migrate(db *sqlx.DB) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}
	return m.Up()
}

// NewMigrator returns a migrator over the embedded migrations for db's
// dialect. Closing it closes db.
func NewMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	sub, err := fs.Sub(migrationsFS, "migrations/"+dialectDir(db.DriverName()))
	if err != nil {
		return nil, err
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, err
	}

	if db.DriverName() == DriverPostgres {
		dbDriver, err := migratepgx.WithInstance(db.DB, &migratepgx.Config{})
		if err != nil {
			return nil, err
		}
		return migrate.NewWithInstance("iofs", sourceDriver, "pgx5", dbDriver)
	}

	dbDriver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
}

func dialectDir(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

func sqliteDSN(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
