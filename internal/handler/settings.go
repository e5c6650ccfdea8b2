package handler

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	appmw "github.com/mailprefs/internal/middleware"
	"github.com/mailprefs/internal/model"
)

type adminSettingsPageData struct {
	model.AppSettings
	User         *model.User
	IsSuperAdmin bool
	SMTPEnabled  bool
	Saved        bool
	Error        string
}

type settingsStore interface {
	Load(ctx context.Context) (*model.AppSettings, error)
	Save(ctx context.Context, settings *model.AppSettings) error
}

type mailConfigurer interface {
	Reconfigure(s *model.AppSettings)
	SendTest(to string) error
}

// SettingsHandler handles the admin SMTP settings page and API.
type SettingsHandler struct {
	BaseHandler
	settings  settingsStore
	mailer    mailConfigurer
	templates *template.Template
}

func NewSettingsHandler(logger *slog.Logger, settings settingsStore, m mailConfigurer, tmpl *template.Template) *SettingsHandler {
	return &SettingsHandler{BaseHandler: BaseHandler{Logger: logger}, settings: settings, mailer: m, templates: tmpl}
}

// Page renders the admin settings page.
func (h *SettingsHandler) Page(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Load(r.Context())
	if err != nil {
		h.serverErrorPage(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, adminSettingsPageData{
		AppSettings: s.Masked(),
		SMTPEnabled: s.SMTPEnabled(),
		Saved:       r.URL.Query().Get("saved") == "1",
	})
}

// SaveForm stores settings posted from the settings page.
func (h *SettingsHandler) SaveForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s := &model.AppSettings{
		SMTPHost:        strings.TrimSpace(r.PostFormValue("smtp_host")),
		SMTPUser:        strings.TrimSpace(r.PostFormValue("smtp_user")),
		SMTPPass:        r.PostFormValue("smtp_pass"),
		SMTPFromAddress: strings.TrimSpace(r.PostFormValue("smtp_from_address")),
		SMTPFromName:    strings.TrimSpace(r.PostFormValue("smtp_from_name")),
	}
	port, err := strconv.Atoi(r.PostFormValue("smtp_port"))
	if err != nil || port <= 0 || port > 65535 {
		s.SMTPPass = ""
		h.render(w, r, http.StatusUnprocessableEntity, adminSettingsPageData{
			AppSettings: *s,
			Error:       "SMTP port must be a number between 1 and 65535.",
		})
		return
	}
	s.SMTPPort = port

	if err := h.apply(r.Context(), s); err != nil {
		h.serverErrorPage(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/settings?saved=1", http.StatusSeeOther)
}

// Get returns the current settings as JSON (with secrets masked).
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Load(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{"settings": s.Masked(), "smtpEnabled": s.SMTPEnabled()}
	if err := h.writeJSON(w, http.StatusOK, env, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Update saves updated settings and applies them to the mailer. An empty
// password keeps the stored one.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	s := &model.AppSettings{}
	if err := h.readJSON(w, r, s); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if s.SMTPPort < 0 || s.SMTPPort > 65535 {
		h.badRequestResponse(w, r, errors.New("smtpPort must be between 1 and 65535"))
		return
	}

	if err := h.apply(r.Context(), s); err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{"settings": s.Masked(), "smtpEnabled": s.SMTPEnabled()}
	if err := h.writeJSON(w, http.StatusOK, env, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// TestEmail sends a test email to the address in the request body.
func (h *SettingsHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	var input struct {
		To string `json:"to"`
	}
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.To) == "" {
		h.badRequestResponse(w, r, errors.New("to must be provided"))
		return
	}

	if err := h.mailer.SendTest(input.To); err != nil {
		h.Logger.Error("settings: test email failed", "err", err)
		h.errorResponse(w, r, http.StatusBadGateway, "send failed: "+err.Error())
		return
	}
	if err := h.writeJSON(w, http.StatusOK, envelope{"sent": true}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *SettingsHandler) apply(ctx context.Context, s *model.AppSettings) error {
	if s.SMTPPass == "" {
		current, err := h.settings.Load(ctx)
		if err != nil {
			return err
		}
		s.SMTPPass = current.SMTPPass
	}

	if err := h.settings.Save(ctx, s); err != nil {
		return err
	}
	h.mailer.Reconfigure(s)
	h.Logger.Info("settings: smtp settings updated", "smtp_enabled", s.SMTPEnabled())
	return nil
}

func (h *SettingsHandler) render(w http.ResponseWriter, r *http.Request, status int, data adminSettingsPageData) {
	data.User = appmw.UserFromContext(r.Context())
	data.IsSuperAdmin = appmw.IsSuperAdmin(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "admin_settings.html", data); err != nil {
		h.Logger.Error("settings: template error", "err", err)
	}
}
