package prefs

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.New("").ParseFS(templateFiles, "templates/*.html"))

// Attrs configures a Widget.
type Attrs struct {
	Model       Model
	SMTPEnabled bool
	// Action is the form's submit URL. Edit and Cancel post to Action+"/edit"
	// and Action+"/cancel".
	Action string
}

// Widget is the email settings panel. A Widget is not safe for concurrent
// use; see Registry.
type Widget struct {
	attrs   Attrs
	state   *EditState
	mounted bool
}

func New(attrs Attrs) *Widget {
	return &Widget{attrs: attrs, state: NewEditState(attrs.Model, attrs.SMTPEnabled)}
}

func (w *Widget) State() *EditState {
	return w.state
}

func (w *Widget) SMTPEnabled() bool {
	return w.attrs.SMTPEnabled
}

// Mount loads the model the first time it is called. A failed load is
// retried on the next call.
func (w *Widget) Mount(ctx context.Context) error {
	if w.mounted {
		return nil
	}
	if err := w.attrs.Model.Load(ctx); err != nil {
		return err
	}
	w.mounted = true
	return nil
}

// Edit is the handler for the Edit button.
func (w *Widget) Edit(ev *Event) {
	w.state.EnterEditMode(ev)
}

// Cancel is the handler for the Cancel button.
func (w *Widget) Cancel(ev *Event) {
	w.state.ExitEditMode(ev)
}

// Submit binds the submitted values to the model and saves it. On success
// the panel returns to read-only. On failure it stays in edit mode with the
// submitted values kept, and the model's error is returned unchanged.
// A submission while read-only has nothing to bind and is ignored.
func (w *Widget) Submit(ctx context.Context, values url.Values, ev *Event) error {
	if w.state.Readonly() {
		return nil
	}
	if err := w.Mount(ctx); err != nil {
		return err
	}
	for _, f := range w.Fields() {
		if err := bind(f, values); err != nil {
			return err
		}
	}
	if err := w.attrs.Model.Save(ctx); err != nil {
		return err
	}
	w.state.ExitEditMode(ev)
	return nil
}

// Fields returns the panel's controls for the current state.
func (w *Widget) Fields() []FieldConfig {
	m := w.attrs.Model
	readonly := w.state.Readonly()
	return []FieldConfig{
		{Name: "email", Label: "Email", Type: "email", Model: m, AttrName: AttrEmail, Readonly: readonly, Placeholder: "Email not set"},
		{Name: "email_me", Label: "Enable email notification", Type: typeCheckbox, Model: m, AttrName: AttrEnableNotifications, Disabled: w.state.RejectToggle()},
		{Name: "checkin_aliases", Label: "My check-in aliases", Model: m, AttrName: AttrCheckinAliases, Readonly: readonly, Placeholder: "No matchers defined"},
	}
}

type formView struct {
	Class        string
	Action       string
	EditAction   string
	CancelAction string
	Legend       string
	Readonly     bool
	Fields       []FieldView
}

// Render mounts the widget if needed and writes the form.
func (w *Widget) Render(ctx context.Context, out io.Writer) error {
	if err := w.Mount(ctx); err != nil {
		return err
	}

	view := formView{
		Class:        "email-settings",
		Action:       w.attrs.Action,
		EditAction:   w.attrs.Action + "/edit",
		CancelAction: w.attrs.Action + "/cancel",
		Legend:       "Email Settings",
		Readonly:     w.state.Readonly(),
	}
	for _, f := range w.Fields() {
		fv, err := renderField(f)
		if err != nil {
			return err
		}
		view.Fields = append(view.Fields, fv)
	}

	if err := templates.ExecuteTemplate(out, "email_settings", view); err != nil {
		return fmt.Errorf("render email settings: %w", err)
	}
	return nil
}

// HTML renders the widget for embedding in a page template.
func (w *Widget) HTML(ctx context.Context) (template.HTML, error) {
	var b strings.Builder
	if err := w.Render(ctx, &b); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}
