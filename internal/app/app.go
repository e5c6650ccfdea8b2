package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mailprefs/internal/auth"
	"github.com/mailprefs/internal/config"
	"github.com/mailprefs/internal/crypto"
	"github.com/mailprefs/internal/db"
	"github.com/mailprefs/internal/mailer"
	"github.com/mailprefs/internal/notify"
	"github.com/mailprefs/internal/prefs"
	"github.com/mailprefs/internal/store"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// sweepInterval is how often expired sessions and idle panels are removed.
const sweepInterval = 10 * time.Minute

type sessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	GetUserID(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) error
}

type App struct {
	config           *config.Config
	logger           *slog.Logger
	db               *sqlx.DB
	redis            *redis.Client
	userStore        *store.UserStore
	sessionStore     sessionStore
	settingsStore    *store.SettingsStore
	preferencesStore *store.PreferencesStore
	mailer           *mailer.Mailer
	queue            *mailer.Queue
	dispatcher       *notify.Dispatcher
	widgets          *prefs.Registry
}

func (app *App) Close() {
	if app.redis != nil {
		app.redis.Close()
	}
	app.db.Close()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := newLogger(cfg)

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	app := &App{
		config:           cfg,
		logger:           logger,
		db:               conn,
		userStore:        store.NewUserStore(conn),
		preferencesStore: store.NewPreferencesStore(conn),
		widgets:          prefs.NewRegistry(),
	}

	if cfg.RedisURL != "" {
		rdb, err := store.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		app.redis = rdb
		app.sessionStore = store.NewRedisSessionStore(rdb)
		logger.Info("sessions: using redis")
	} else {
		app.sessionStore = store.NewSessionStore(conn)
	}

	crypter, err := crypto.NewFromSecret(cfg.SettingsEncryptionKey)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("settings crypter: %w", err)
	}
	app.settingsStore = store.NewSettingsStore(conn, crypter, cfg.SMTP)

	if err := auth.SeedFirstAdmin(ctx, app.userStore, cfg.SeedAdminUsername, cfg.SeedAdminPassword); err != nil {
		logger.Warn("seed: first admin not created", "err", err)
	}

	s, err := app.settingsStore.Load(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}
	app.mailer = mailer.New(s)
	app.queue = mailer.NewQueue(app.mailer, cfg.MailRate, cfg.MailQueueSize, cfg.MailMaxRetry)
	app.dispatcher = notify.NewDispatcher(app.preferencesStore, app.queue, logger)

	if !s.SMTPEnabled() {
		logger.Warn("mailer: smtp not configured, email notifications are disabled")
	}
	return app, nil
}

// Start serves HTTP, runs the mail queue and the periodic sweeper until ctx
// is cancelled.
func (app *App) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return app.queue.Start(gctx)
	})

	g.Go(func() error {
		app.sweep(gctx, sweepInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

// sweep removes expired sessions and panels left idle for a full session
// lifetime, every interval until ctx is done.
func (app *App) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.sessionStore.DeleteExpired(ctx); err != nil && ctx.Err() == nil {
				app.logger.Error("sweep: failed to delete expired sessions", "err", err)
			}
			if n := app.widgets.Sweep(store.SessionTTL); n > 0 {
				app.logger.Debug("sweep: dropped idle panels", "count", n)
			}
		}
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	slog.SetDefault(logger)
	return logger
}
