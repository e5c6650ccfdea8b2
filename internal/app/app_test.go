package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mailprefs/internal/config"
)

const (
	testPassword = "correct horse battery"
	testToken    = "checkin-token"
)

func newTestApp(t *testing.T) (*App, *httptest.Server, *http.Client) {
	t.Helper()
	cfg := &config.Config{
		Port:                  "0",
		Env:                   "production",
		DatabaseURL:           ":memory:",
		SettingsEncryptionKey: "0123456789abcdef0123456789abcdef",
		LoginRatePerMinute:    100,
		CheckinToken:          testToken,
		SeedAdminUsername:     "ada",
		SeedAdminPassword:     testPassword,
		MailRate:              time.Second,
		MailQueueSize:         8,
		MailMaxRetry:          1,
	}
	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(app.Close)

	srv := httptest.NewServer(app.routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return app, srv, &http.Client{Jar: jar}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func postForm(t *testing.T, c *http.Client, u string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(u, form)
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	return resp, readBody(t, resp)
}

func login(t *testing.T, srv *httptest.Server, c *http.Client) string {
	t.Helper()
	resp, body := postForm(t, c, srv.URL+"/login", url.Values{"username": {"ada"}, "password": {testPassword}})
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/preferences" {
		t.Fatalf("login landed on %s with %d", resp.Request.URL.Path, resp.StatusCode)
	}
	return body
}

func TestPreferencesRequireLogin(t *testing.T) {
	_, srv, c := newTestApp(t)

	resp, err := c.Get(srv.URL + "/preferences")
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.Request.URL.Path != "/login" || !strings.Contains(body, "Sign in") {
		t.Fatalf("expected login page, got %s", resp.Request.URL.Path)
	}

	resp, _ = postForm(t, c, srv.URL+"/login", url.Values{"username": {"ada"}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad password, got %d", resp.StatusCode)
	}
}

func TestEmailSettingsEditSaveFlow(t *testing.T) {
	app, srv, c := newTestApp(t)

	page := login(t, srv, c)
	if !strings.Contains(page, "Email not set") || !strings.Contains(page, `value="Edit"`) {
		t.Fatalf("expected read-only panel with placeholder:\n%s", page)
	}
	if !strings.Contains(page, `name="email_me" value="true" disabled`) {
		t.Error("expected notification checkbox disabled while SMTP is off")
	}

	_, page = postForm(t, c, srv.URL+"/preferences/email/edit", nil)
	if !strings.Contains(page, `name="email"`) || !strings.Contains(page, `value="Save"`) {
		t.Fatalf("expected edit mode after Edit:\n%s", page)
	}

	_, page = postForm(t, c, srv.URL+"/preferences/email/cancel", nil)
	if !strings.Contains(page, `value="Edit"`) {
		t.Fatal("expected read-only panel after Cancel")
	}

	postForm(t, c, srv.URL+"/preferences/email/edit", nil)
	_, page = postForm(t, c, srv.URL+"/preferences/email", url.Values{
		"email":           {"ada@example.org"},
		"email_me":        {"true"},
		"checkin_aliases": {"ada, Ada Lovelace"},
	})
	if !strings.Contains(page, `<span class="value">ada@example.org</span>`) {
		t.Fatalf("expected saved email in read-only panel:\n%s", page)
	}

	user, _, err := app.userStore.GetByUsername(context.Background(), "ada")
	if err != nil {
		t.Fatal(err)
	}
	p, err := app.preferencesStore.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Email != "ada@example.org" || p.CheckinAliases != "ada, Ada Lovelace" {
		t.Errorf("unexpected stored preferences %+v", p)
	}
	if p.EnableNotifications {
		t.Error("a disabled checkbox must not be applied")
	}
}

func TestEnablingSMTPUnlocksNotifications(t *testing.T) {
	app, srv, c := newTestApp(t)
	login(t, srv, c)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/admin/settings",
		strings.NewReader(`{"smtpHost":"smtp.example.org","smtpPort":587,"smtpFromAddress":"noreply@example.org"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update settings: %d", resp.StatusCode)
	}
	if !app.mailer.Enabled() {
		t.Fatal("expected mailer to be reconfigured")
	}

	_, page := postForm(t, c, srv.URL+"/preferences/email/edit", nil)
	if strings.Contains(page, `name="email_me" value="true" disabled`) {
		t.Fatal("expected checkbox enabled while editing with SMTP on")
	}
	postForm(t, c, srv.URL+"/preferences/email", url.Values{
		"email":           {"ada@example.org"},
		"email_me":        {"true"},
		"checkin_aliases": {"ada"},
	})

	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/api/checkins",
		strings.NewReader(`{"pipeline":"build","revision":"0123456789abcdef","author":"Ada <ada@example.org>"}`))
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Queued int `json:"queued"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted || out.Queued != 1 {
		t.Errorf("expected 1 queued notification, got %d (%d)", out.Queued, resp.StatusCode)
	}
}

func TestLogoutDropsPanel(t *testing.T) {
	app, srv, c := newTestApp(t)
	login(t, srv, c)
	if app.widgets.Len() != 1 {
		t.Fatalf("expected one live panel, got %d", app.widgets.Len())
	}

	resp, _ := postForm(t, c, srv.URL+"/logout", nil)
	if resp.Request.URL.Path != "/login" {
		t.Errorf("expected redirect to /login, got %s", resp.Request.URL.Path)
	}
	if app.widgets.Len() != 0 {
		t.Errorf("expected panel dropped on logout, got %d", app.widgets.Len())
	}
}

func TestHealth(t *testing.T) {
	_, srv, _ := newTestApp(t)
	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Errorf("unexpected health response %d %s", resp.StatusCode, body)
	}
}
