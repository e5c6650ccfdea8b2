package prefs

// Resetter discards in-progress edits.
type Resetter interface {
	Reset()
}

// EditState is the view/edit toggle of one panel. It starts read-only.
type EditState struct {
	model       Resetter
	smtpEnabled bool
	readonly    bool
}

func NewEditState(m Resetter, smtpEnabled bool) *EditState {
	return &EditState{model: m, smtpEnabled: smtpEnabled, readonly: true}
}

func (s *EditState) Readonly() bool {
	return s.readonly
}

// RejectToggle reports whether the notification checkbox must be disabled:
// always when the server cannot send mail, otherwise while read-only.
func (s *EditState) RejectToggle() bool {
	return !s.smtpEnabled || s.readonly
}

// EnterEditMode makes the panel editable and drops any stale edits.
func (s *EditState) EnterEditMode(ev *Event) {
	if ev != nil {
		ev.PreventDefault()
	}
	s.readonly = false
	s.model.Reset()
}

// ExitEditMode returns to read-only and re-syncs the model with the last
// loaded or saved values.
func (s *EditState) ExitEditMode(ev *Event) {
	if ev != nil {
		ev.PreventDefault()
	}
	s.readonly = true
	s.model.Reset()
}
