package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/mailprefs/internal/db"
)

const usage = `usage: migrate [-database-url URL] up | down | version | steps N`

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbURL := fs.String("database-url", envOr("DATABASE_URL", "mailprefs.db"), "SQLite path or PostgreSQL URL")
	fs.Usage = func() { fmt.Fprintln(fs.Output(), usage); fs.PrintDefaults() }
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	conn, err := db.Connect(context.Background(), *dbURL)
	if err != nil {
		slog.Error("failed to connect", "err", err)
		os.Exit(1)
	}

	m, err := db.NewMigrator(conn)
	if err != nil {
		slog.Error("failed to load migrations", "err", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := run(m, fs.Args()); err != nil {
		slog.Error("migration failed", "err", err)
		os.Exit(1)
	}
}

func run(m *migrate.Migrate, args []string) error {
	var err error
	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if len(args) < 2 {
			return errors.New(usage)
		}
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("steps: %w", convErr)
		}
		err = m.Steps(n)
	case "version":
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Println("version: none")
	case err != nil:
		return err
	default:
		fmt.Printf("version: %d dirty: %v\n", version, dirty)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
