package prefs

import "fmt"

// FieldConfig describes one bound form control.
type FieldConfig struct {
	Name        string
	Label       string
	Type        string // input type; "checkbox" for flags, "text" if empty
	Model       Model
	AttrName    string
	Readonly    bool
	Placeholder string
	Disabled    bool
}

const typeCheckbox = "checkbox"

// FieldView is the render-ready form of a FieldConfig.
type FieldView struct {
	Kind         string // "value", "input" or "checkbox"
	Name         string
	Label        string
	Type         string
	Value        string
	Placeholder  string
	Empty        bool
	Checked      bool
	Disabled     bool
	Autocomplete string
}

// LockableInput renders a text field as a label and value pair while
// read-only, or as an editable input otherwise. An empty read-only value
// shows the placeholder.
func LockableInput(cfg FieldConfig) (FieldView, error) {
	prop := cfg.Model.Text(cfg.AttrName)
	if prop == nil {
		return FieldView{}, fmt.Errorf("prefs: model has no text attribute %q", cfg.AttrName)
	}
	value := prop.Get()

	if cfg.Readonly {
		v := FieldView{Kind: "value", Name: cfg.Name, Label: cfg.Label, Value: value}
		if value == "" {
			v.Value = cfg.Placeholder
			v.Empty = true
		}
		return v, nil
	}

	typ := cfg.Type
	if typ == "" {
		typ = "text"
	}
	return FieldView{
		Kind:         "input",
		Name:         cfg.Name,
		Label:        cfg.Label,
		Type:         typ,
		Value:        value,
		Placeholder:  cfg.Placeholder,
		Disabled:     cfg.Disabled,
		Autocomplete: "on",
	}, nil
}

// Checkbox renders a flag as a checkbox.
func Checkbox(cfg FieldConfig) (FieldView, error) {
	prop := cfg.Model.Flag(cfg.AttrName)
	if prop == nil {
		return FieldView{}, fmt.Errorf("prefs: model has no flag attribute %q", cfg.AttrName)
	}
	return FieldView{
		Kind:     typeCheckbox,
		Name:     cfg.Name,
		Label:    cfg.Label,
		Type:     typeCheckbox,
		Checked:  prop.Get(),
		Disabled: cfg.Disabled,
	}, nil
}

func renderField(cfg FieldConfig) (FieldView, error) {
	if cfg.Type == typeCheckbox {
		return Checkbox(cfg)
	}
	return LockableInput(cfg)
}

// bind copies a submitted value into the model. Read-only and disabled
// controls are not part of a submission and are left alone.
func bind(cfg FieldConfig, values map[string][]string) error {
	if cfg.Readonly || cfg.Disabled {
		return nil
	}

	if cfg.Type == typeCheckbox {
		prop := cfg.Model.Flag(cfg.AttrName)
		if prop == nil {
			return fmt.Errorf("prefs: model has no flag attribute %q", cfg.AttrName)
		}
		_, checked := values[cfg.Name]
		prop.Set(checked)
		return nil
	}

	prop := cfg.Model.Text(cfg.AttrName)
	if prop == nil {
		return fmt.Errorf("prefs: model has no text attribute %q", cfg.AttrName)
	}
	var v string
	if vs := values[cfg.Name]; len(vs) > 0 {
		v = vs[0]
	}
	prop.Set(v)
	return nil
}
