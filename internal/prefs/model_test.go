package prefs

import (
	"context"
	"errors"
	"testing"

	"github.com/mailprefs/internal/model"
)

type fakeStore struct {
	rows    map[string]model.Preferences
	saveErr error
	saves   int
}

func (s *fakeStore) Get(_ context.Context, userID string) (*model.Preferences, error) {
	p, ok := s.rows[userID]
	if !ok {
		return &model.Preferences{UserID: userID}, nil
	}
	return &p, nil
}

func (s *fakeStore) Save(_ context.Context, p *model.Preferences) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.rows[p.UserID] = *p
	return nil
}

func TestStoreModelLoadResetSave(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: map[string]model.Preferences{
		"u1": {UserID: "u1", Email: "ada@example.org", EnableNotifications: true, CheckinAliases: "ada"},
	}}
	m := NewStoreModel(store, "u1")

	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Email.Get() != "ada@example.org" || !m.EnableNotifications.Get() || m.CheckinAliases.Get() != "ada" {
		t.Fatalf("unexpected loaded values")
	}

	m.Email.Set("scratch@example.org")
	m.Reset()
	if m.Email.Get() != "ada@example.org" {
		t.Errorf("expected Reset to restore the loaded email, got %q", m.Email.Get())
	}

	m.CheckinAliases.Set("ada, lovelace")
	m.EnableNotifications.Set(false)
	if err := m.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := store.rows["u1"]; got.CheckinAliases != "ada, lovelace" || got.EnableNotifications {
		t.Errorf("unexpected stored row %+v", got)
	}

	m.CheckinAliases.Set("scratch")
	m.Reset()
	if m.CheckinAliases.Get() != "ada, lovelace" {
		t.Errorf("expected Reset to restore the saved aliases, got %q", m.CheckinAliases.Get())
	}
	if m.Saved().CheckinAliases != "ada, lovelace" {
		t.Errorf("unexpected saved snapshot %+v", m.Saved())
	}
}

func TestStoreModelSaveFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: map[string]model.Preferences{}, saveErr: errors.New("locked")}
	m := NewStoreModel(store, "u1")
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}

	m.Email.Set("ada@example.org")
	if err := m.Save(ctx); !errors.Is(err, store.saveErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if m.Email.Get() != "ada@example.org" {
		t.Error("a failed save must keep the edited value")
	}
	m.Reset()
	if m.Email.Get() != "" {
		t.Errorf("expected Reset to fall back to the last loaded value, got %q", m.Email.Get())
	}
}

func TestStoreModelAttributes(t *testing.T) {
	m := NewStoreModel(&fakeStore{}, "u1")
	if m.Text(AttrEmail) != m.Email || m.Text(AttrCheckinAliases) != m.CheckinAliases {
		t.Error("text attributes not bound to the model props")
	}
	if m.Flag(AttrEnableNotifications) != m.EnableNotifications {
		t.Error("flag attribute not bound to the model prop")
	}
	if m.Text(AttrEnableNotifications) != nil || m.Flag(AttrEmail) != nil || m.Text("unknown") != nil {
		t.Error("expected nil for mismatched attributes")
	}
}
