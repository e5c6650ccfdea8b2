package prefs

import (
	"sync"
	"time"
)

type entry struct {
	mu       sync.Mutex
	widget   *Widget
	lastUsed time.Time
}

// Registry holds one Widget per session so the view/edit state survives
// between requests. Access to each widget is serialized.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry), now: time.Now}
}

// With calls fn with the widget for key. A widget is created from attrs on
// first use, and replaced when the server's SMTP state no longer matches
// the one it was created with.
func (r *Registry) With(key string, attrs func() Attrs, smtpEnabled bool, fn func(*Widget) error) error {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	e.lastUsed = r.now()
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.widget == nil || e.widget.SMTPEnabled() != smtpEnabled {
		a := attrs()
		a.SMTPEnabled = smtpEnabled
		e.widget = New(a)
	}
	return fn(e.widget)
}

// Drop discards the widget for key.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

// Sweep discards widgets idle for longer than maxIdle and returns how many
// were removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, key)
			n++
		}
	}
	return n
}

// Len returns the number of live widgets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
