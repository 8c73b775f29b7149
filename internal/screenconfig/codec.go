package screenconfig

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document is the portable import/export shape of a screen configuration.
type Document struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Type             string        `json:"type"`
	Orientation      string        `json:"orientation"`
	Ratio            string        `json:"ratio"`
	ScreenKey        string        `json:"screen_key"`
	CaptureParams    Params        `json:"capture_params"`
	AppearanceParams Params        `json:"appearance_params"`
	AdvancedParams   Params        `json:"advanced_params"`
	AvailableEffects EffectCatalog `json:"availableEffects"`
	MagicalEffect    *string       `json:"magicalEffect"`
	NormalEffect     *string       `json:"normalEffect"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func toDocument(cfg *ScreenConfig) Document {
	return Document{
		ID:               cfg.ID,
		Name:             cfg.Name,
		Type:             cfg.Type,
		Orientation:      cfg.Orientation,
		Ratio:            cfg.Ratio,
		ScreenKey:        cfg.ScreenKey,
		CaptureParams:    cfg.CaptureParams,
		AppearanceParams: cfg.AppearanceParams,
		AdvancedParams:   cfg.AdvancedParams,
		AvailableEffects: cfg.AvailableEffects,
		MagicalEffect:    cfg.MagicalEffect,
		NormalEffect:     cfg.NormalEffect,
		CreatedAt:        cfg.CreatedAt,
		UpdatedAt:        cfg.UpdatedAt,
	}
}

// Export renders cfg as an indented JSON document.
func Export(cfg *ScreenConfig) ([]byte, error) {
	return json.MarshalIndent(toDocument(cfg), "", "  ")
}

// Import builds a new snapshot from doc on top of current. The identity and
// screen key always stay those of current; bags that are missing or not
// objects fall back to the defaults.
func Import(current *ScreenConfig, doc any, now func() time.Time) (*ScreenConfig, error) {
	fields, err := documentFields(doc)
	if err != nil {
		return nil, err
	}

	next := &ScreenConfig{
		ID:          current.ID,
		ScreenKey:   current.ScreenKey,
		Name:        current.Name,
		Type:        current.Type,
		Orientation: current.Orientation,
		Ratio:       current.Ratio,
		Legacy:      current.Legacy,
		CreatedAt:   current.CreatedAt,
	}

	if s, ok := stringField(fields, "name"); ok {
		next.Name = s
	}
	if s, ok := stringField(fields, "ratio"); ok {
		next.Ratio = s
	}
	if s, ok := stringField(fields, "type"); ok && (s == TypeVertical || s == TypeHorizontal) {
		next.Type = s
	}
	if s, ok := stringField(fields, "orientation"); ok && (s == OrientationPortrait || s == OrientationLandscape) {
		next.Orientation = s
	}
	if raw, ok := fields["created_at"]; ok {
		var t time.Time
		if json.Unmarshal(raw, &t) == nil && !t.IsZero() {
			next.CreatedAt = t
		}
	}

	next.CaptureParams = MergeCapture(objectField(fields, SectionCapture))
	next.AppearanceParams = MergeAppearance(objectField(fields, SectionAppearance))
	next.AdvancedParams = MergeAdvanced(objectField(fields, SectionAdvanced))

	var catalog EffectCatalog
	if raw, ok := fields[SectionEffects]; ok {
		if json.Unmarshal(raw, &catalog) != nil {
			catalog = nil
		}
	}
	next.AvailableEffects = MergeEffects(catalog)

	next.MagicalEffect = effectRef(fields, "magicalEffect")
	next.NormalEffect = effectRef(fields, "normalEffect")

	next.UpdatedAt = stamp(now, current.UpdatedAt)
	return next, nil
}

func documentFields(doc any) (map[string]json.RawMessage, error) {
	var raw []byte
	switch d := doc.(type) {
	case nil:
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	case []byte:
		raw = d
	case json.RawMessage:
		raw = d
	case string:
		raw = []byte(d)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		raw = b
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidDocument)
	}
	return fields, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func objectField(fields map[string]json.RawMessage, name string) Params {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return p
}

func effectRef(fields map[string]json.RawMessage, name string) *string {
	s, ok := stringField(fields, name)
	if !ok || s == "" {
		return nil
	}
	return &s
}
