package web

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/mailprefs/internal/model"
)

func TestPagesParsed(t *testing.T) {
	for _, name := range []string{"login.html", "preferences.html", "admin_settings.html", "head", "nav"} {
		if Templates.Lookup(name) == nil {
			t.Errorf("template %q not found", name)
		}
	}
}

func TestStaticFS(t *testing.T) {
	if _, err := fs.Stat(StaticFS, "app.css"); err != nil {
		t.Fatalf("app.css missing: %v", err)
	}
}

func TestNavShowsSettingsToSuperAdmin(t *testing.T) {
	cases := []struct {
		name         string
		isSuperAdmin bool
		want         bool
	}{
		{"super admin", true, true},
		{"admin", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var b strings.Builder
			data := struct {
				User         *model.User
				IsSuperAdmin bool
			}{&model.User{Username: "ada"}, tc.isSuperAdmin}
			if err := Templates.ExecuteTemplate(&b, "nav", data); err != nil {
				t.Fatalf("execute: %v", err)
			}
			if got := strings.Contains(b.String(), `href="/admin/settings"`); got != tc.want {
				t.Errorf("settings link shown = %v, want %v", got, tc.want)
			}
			if !strings.Contains(b.String(), "ada") {
				t.Error("expected username in nav")
			}
		})
	}
}
