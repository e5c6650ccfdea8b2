package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	appmw "github.com/mailprefs/internal/middleware"
	"github.com/mailprefs/internal/model"
	"github.com/mailprefs/internal/prefs"
)

// EmailSettingsAction is where the email settings panel posts to.
const EmailSettingsAction = "/preferences/email"

const staleEditMessage = "Your edit session expired before it was saved. Click Edit to make your changes again."

type smtpStatus interface {
	SMTPEnabled(ctx context.Context) bool
}

type preferencesPageData struct {
	User          *model.User
	IsSuperAdmin  bool
	SMTPEnabled   bool
	EmailSettings template.HTML
	Error         string
}

// PreferencesHandler serves the preferences page and the email settings
// panel's Edit, Cancel and Save actions.
type PreferencesHandler struct {
	BaseHandler
	prefs     prefs.PreferencesStore
	smtp      smtpStatus
	widgets   *prefs.Registry
	templates *template.Template
}

func NewPreferencesHandler(logger *slog.Logger, store prefs.PreferencesStore, smtp smtpStatus, widgets *prefs.Registry, tmpl *template.Template) *PreferencesHandler {
	return &PreferencesHandler{BaseHandler: BaseHandler{Logger: logger}, prefs: store, smtp: smtp, widgets: widgets, templates: tmpl}
}

// withWidget runs fn against the calling session's panel.
func (h *PreferencesHandler) withWidget(r *http.Request, fn func(*prefs.Widget) error) error {
	ctx := r.Context()
	user := appmw.UserFromContext(ctx)
	attrs := func() prefs.Attrs {
		return prefs.Attrs{Model: prefs.NewStoreModel(h.prefs, user.ID), Action: EmailSettingsAction}
	}
	return h.widgets.With(appmw.SessionIDFromContext(ctx), attrs, h.smtp.SMTPEnabled(ctx), fn)
}

// Page renders the preferences page.
func (h *PreferencesHandler) Page(w http.ResponseWriter, r *http.Request) {
	data := preferencesPageData{}
	if r.URL.Query().Get("stale") == "1" {
		data.Error = staleEditMessage
	}
	err := h.withWidget(r, func(wd *prefs.Widget) error {
		html, err := wd.HTML(r.Context())
		data.EmailSettings = html
		data.SMTPEnabled = wd.SMTPEnabled()
		return err
	})
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, data)
}

// Edit switches the panel to edit mode.
func (h *PreferencesHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ev := prefs.NewEvent("edit")
	_ = h.withWidget(r, func(wd *prefs.Widget) error {
		wd.Edit(ev)
		return nil
	})
	h.afterEvent(w, r, ev)
}

// Cancel discards edits and switches the panel back to read-only.
func (h *PreferencesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ev := prefs.NewEvent("cancel")
	_ = h.withWidget(r, func(wd *prefs.Widget) error {
		wd.Cancel(ev)
		return nil
	})
	h.afterEvent(w, r, ev)
}

// Save submits the panel. A failed save re-renders the page in edit mode
// with the submitted values.
func (h *PreferencesHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ev := prefs.NewEvent("submit")
	data := preferencesPageData{}
	var saveErr error
	err := h.withWidget(r, func(wd *prefs.Widget) error {
		if saveErr = wd.Submit(r.Context(), r.PostForm, ev); saveErr == nil {
			return nil
		}
		html, err := wd.HTML(r.Context())
		data.EmailSettings = html
		data.SMTPEnabled = wd.SMTPEnabled()
		return err
	})
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}
	if saveErr != nil {
		h.logError(r, saveErr)
		data.Error = "Your email settings could not be saved. Please try again."
		h.render(w, r, http.StatusInternalServerError, data)
		return
	}
	h.afterEvent(w, r, ev)
}

// afterEvent sends the browser back to the page once the panel has handled
// the action. An action the panel ignored, such as a Save posted from an edit
// form the server no longer holds in edit mode, is reported on the page.
func (h *PreferencesHandler) afterEvent(w http.ResponseWriter, r *http.Request, ev *prefs.Event) {
	if !ev.DefaultPrevented() {
		h.Logger.Info("preferences: ignored stale action", "event", ev.Name)
		http.Redirect(w, r, "/preferences?stale=1", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/preferences", http.StatusSeeOther)
}

func (h *PreferencesHandler) render(w http.ResponseWriter, r *http.Request, status int, data preferencesPageData) {
	data.User = appmw.UserFromContext(r.Context())
	data.IsSuperAdmin = appmw.IsSuperAdmin(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "preferences.html", data); err != nil {
		h.Logger.Error("preferences: template error", "err", err)
	}
}
