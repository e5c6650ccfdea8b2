package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mailprefs/internal/handler"
	"github.com/mailprefs/internal/middleware"
	"github.com/mailprefs/internal/web"
)

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS)))

	// Health check
	r.Get("/api/health", handler.Health(app.db))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/preferences", http.StatusSeeOther)
	})

	// Auth (public endpoints)
	authHandler := handler.NewAuthHandler(app.logger, app.userStore, app.sessionStore, app.widgets, web.Templates, app.config.SecureCookies)
	r.Get("/login", authHandler.LoginPage)
	r.With(middleware.RateLimit(app.config.LoginRatePerMinute, app.config.LoginRatePerMinute)).
		Post("/login", authHandler.Login)

	// Build server hook, authenticated by bearer token
	checkinsHandler := handler.NewCheckinsHandler(app.logger, app.dispatcher, app.config.CheckinToken)
	r.Post("/api/checkins", checkinsHandler.Create)

	// Signed-in routes
	sessionMW := middleware.Session(app.sessionStore, app.userStore)
	r.Group(func(r chi.Router) {
		r.Use(sessionMW)

		r.Post("/logout", authHandler.Logout)

		prefsHandler := handler.NewPreferencesHandler(app.logger, app.preferencesStore, app.settingsStore, app.widgets, web.Templates)
		r.Get("/preferences", prefsHandler.Page)
		r.Post(handler.EmailSettingsAction, prefsHandler.Save)
		r.Post(handler.EmailSettingsAction+"/edit", prefsHandler.Edit)
		r.Post(handler.EmailSettingsAction+"/cancel", prefsHandler.Cancel)

		// Super admin only
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSuperAdmin())

			settingsHandler := handler.NewSettingsHandler(app.logger, app.settingsStore, app.mailer, web.Templates)
			r.Get("/admin/settings", settingsHandler.Page)
			r.Post("/admin/settings", settingsHandler.SaveForm)
			r.Get("/api/admin/settings", settingsHandler.Get)
			r.Put("/api/admin/settings", settingsHandler.Update)
			r.Post("/api/admin/settings/test-email", settingsHandler.TestEmail)
		})
	})
	return r
}
