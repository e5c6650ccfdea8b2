package prefs

import (
	"context"
	"fmt"

	"github.com/mailprefs/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute names a FieldConfig can bind to.
const (
	AttrEmail               = "email"
	AttrEnableNotifications = "enableNotifications"
	AttrCheckinAliases      = "checkinAliases"
)

// Model is the preferences object behind the panel.
type Model interface {
	// Load populates the bound values from persisted state.
	Load(ctx context.Context) error
	// Reset discards in-progress edits and restores the last loaded or
	// saved values.
	Reset()
	// Save persists the bound values.
	Save(ctx context.Context) error
	// Text and Flag return the bound value for attr, or nil if the model
	// has no such attribute.
	Text(attr string) *Prop[string]
	Flag(attr string) *Prop[bool]
}

// PreferencesStore persists preferences by user.
type PreferencesStore interface {
	Get(ctx context.Context, userID string) (*model.Preferences, error)
	Save(ctx context.Context, p *model.Preferences) error
}

var tracer = otel.Tracer("github.com/mailprefs/internal/prefs")

// StoreModel is a Model for one user's preferences row.
type StoreModel struct {
	store  PreferencesStore
	userID string
	saved  model.Preferences

	Email               *Prop[string]
	EnableNotifications *Prop[bool]
	CheckinAliases      *Prop[string]
}

func NewStoreModel(store PreferencesStore, userID string) *StoreModel {
	m := &StoreModel{
		store:               store,
		userID:              userID,
		saved:               model.Preferences{UserID: userID},
		Email:               NewProp(""),
		EnableNotifications: NewProp(false),
		CheckinAliases:      NewProp(""),
	}
	return m
}

func (m *StoreModel) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "prefs.Load", trace.WithAttributes(attribute.String("user.id", m.userID)))
	defer span.End()

	p, err := m.store.Get(ctx, m.userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return fmt.Errorf("load preferences: %w", err)
	}
	m.saved = *p
	m.Reset()
	return nil
}

func (m *StoreModel) Reset() {
	m.Email.Set(m.saved.Email)
	m.EnableNotifications.Set(m.saved.EnableNotifications)
	m.CheckinAliases.Set(m.saved.CheckinAliases)
}

func (m *StoreModel) Save(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "prefs.Save", trace.WithAttributes(attribute.String("user.id", m.userID)))
	defer span.End()

	p := m.saved
	p.UserID = m.userID
	p.Email = m.Email.Get()
	p.EnableNotifications = m.EnableNotifications.Get()
	p.CheckinAliases = m.CheckinAliases.Get()

	if err := m.store.Save(ctx, &p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return fmt.Errorf("save preferences: %w", err)
	}
	m.saved = p
	return nil
}

func (m *StoreModel) Text(attr string) *Prop[string] {
	switch attr {
	case AttrEmail:
		return m.Email
	case AttrCheckinAliases:
		return m.CheckinAliases
	}
	return nil
}

func (m *StoreModel) Flag(attr string) *Prop[bool] {
	if attr == AttrEnableNotifications {
		return m.EnableNotifications
	}
	return nil
}

// Saved returns a copy of the last loaded or saved preferences.
func (m *StoreModel) Saved() model.Preferences {
	return m.saved
}
