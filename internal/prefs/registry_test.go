package prefs

import (
	"testing"
	"time"
)

func TestRegistryKeepsWidgetPerKey(t *testing.T) {
	r := NewRegistry()
	created := 0
	attrs := func() Attrs {
		created++
		return Attrs{Model: newFakeModel("", "", false), Action: "/preferences/email"}
	}

	var first *Widget
	_ = r.With("s1", attrs, true, func(w *Widget) error {
		first = w
		w.Edit(nil)
		return nil
	})
	_ = r.With("s1", attrs, true, func(w *Widget) error {
		if w != first {
			t.Error("expected the same widget for the same key")
		}
		if w.State().Readonly() {
			t.Error("expected edit mode to survive between calls")
		}
		return nil
	})
	_ = r.With("s2", attrs, true, func(w *Widget) error {
		if w == first {
			t.Error("expected a different widget for another key")
		}
		return nil
	})

	if created != 2 {
		t.Errorf("expected 2 widgets to be created, got %d", created)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", r.Len())
	}
}

func TestRegistryRecreatesOnSMTPChange(t *testing.T) {
	r := NewRegistry()
	attrs := func() Attrs { return Attrs{Model: newFakeModel("", "", false)} }

	var first *Widget
	_ = r.With("s1", attrs, false, func(w *Widget) error { first = w; return nil })
	_ = r.With("s1", attrs, true, func(w *Widget) error {
		if w == first {
			t.Error("expected a new widget after SMTP was enabled")
		}
		if !w.SMTPEnabled() {
			t.Error("expected the new widget to see SMTP enabled")
		}
		return nil
	})
}

func TestRegistrySweepAndDrop(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	attrs := func() Attrs { return Attrs{Model: newFakeModel("", "", false)} }
	noop := func(*Widget) error { return nil }

	_ = r.With("old", attrs, true, noop)
	now = now.Add(2 * time.Hour)
	_ = r.With("fresh", attrs, true, noop)

	if n := r.Sweep(time.Hour); n != 1 {
		t.Errorf("expected 1 widget swept, got %d", n)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 widget left, got %d", r.Len())
	}

	r.Drop("fresh")
	if r.Len() != 0 {
		t.Errorf("expected no widgets after Drop, got %d", r.Len())
	}
}
