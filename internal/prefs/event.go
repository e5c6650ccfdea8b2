package prefs

// Event is the user action that triggered a state transition. Hosts check
// DefaultPrevented to decide whether the control's native action (a form
// submit or reset) still applies.
type Event struct {
	Name             string
	defaultPrevented bool
}

func NewEvent(name string) *Event {
	return &Event{Name: name}
}

func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}
