package screenconfig

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohae/deepcopy"
	"gorm.io/datatypes"
)

// ConfigDefaults holds the canonical value of every configuration bag.
type ConfigDefaults struct {
	Capture    Params
	Appearance Params
	Advanced   Params
	Effects    EffectCatalog
}

var canonical = ConfigDefaults{
	Capture: Params{
		"countdown":            3,
		"photo_count":          1,
		"delay_between_photos": 2,
		"capture_mode":         "photo",
		"camera_resolution":    "1920x1080",
		"flash_enabled":        true,
		"mirror_preview":       true,
		"gif_enabled":          false,
		"boomerang_enabled":    false,
	},
	Appearance: Params{
		"primary_color":    "#6d28d9",
		"secondary_color":  "#f5f3ff",
		"text_color":       "#ffffff",
		"font_family":      "Inter",
		"welcome_message":  "Touch the screen to start",
		"background_image": "",
		"logo_url":         "",
		"frame_url":        "",
		"show_logo":        true,
	},
	Advanced: Params{
		"printing_enabled":      false,
		"print_copies":          1,
		"printer_name":          "",
		"sharing_enabled":       true,
		"qr_code_enabled":       true,
		"email_sharing_enabled": false,
		"watermark_enabled":     false,
		"session_timeout":       60,
		"idle_timeout":          120,
		"debug_mode":            false,
	},
	Effects: EffectCatalog{
		"magical": {
			{ID: "sparkles", Name: "Sparkles", Enabled: true},
			{ID: "bubbles", Name: "Bubbles", Enabled: true},
			{ID: "snowfall", Name: "Snowfall", Enabled: false},
		},
		"normal": {
			{ID: "none", Name: "None", Enabled: true},
			{ID: "black_white", Name: "Black & White", Enabled: true},
			{ID: "sepia", Name: "Sepia", Enabled: true},
			{ID: "vintage", Name: "Vintage", Enabled: true},
		},
	},
}

// Defaults returns a private copy of the canonical bags.
func Defaults() ConfigDefaults {
	return deepcopy.Copy(canonical).(ConfigDefaults)
}

// MergeCapture fills every missing capture key from the defaults. Keys the
// defaults do not know about are kept.
func MergeCapture(stored Params) Params { return mergeParams(stored, Defaults().Capture) }

func MergeAppearance(stored Params) Params { return mergeParams(stored, Defaults().Appearance) }

func MergeAdvanced(stored Params) Params { return mergeParams(stored, Defaults().Advanced) }

// MergeEffects fills missing categories. A stored category keeps its own list
// even when it is shorter than the default one.
func MergeEffects(stored EffectCatalog) EffectCatalog {
	out := Defaults().Effects
	for category, effects := range stored {
		if effects == nil {
			continue
		}
		out[category] = append([]Effect(nil), effects...)
	}
	return out
}

func mergeParams(stored, defaults Params) Params {
	out := make(Params, len(defaults)+len(stored))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range stored {
		out[k] = v
	}
	return out
}

// MergeAll re-applies every bag merge and returns a new snapshot.
func MergeAll(cfg *ScreenConfig) *ScreenConfig {
	next := *cfg
	next.CaptureParams = MergeCapture(cfg.CaptureParams)
	next.AppearanceParams = MergeAppearance(cfg.AppearanceParams)
	next.AdvancedParams = MergeAdvanced(cfg.AdvancedParams)
	next.AvailableEffects = MergeEffects(cfg.AvailableEffects)
	return &next
}

// NewDefaultConfig builds the entity written the first time a screen is loaded.
func NewDefaultConfig(id string, ident ScreenIdentity, now time.Time) *ScreenConfig {
	d := Defaults()
	return &ScreenConfig{
		ID:               id,
		ScreenKey:        ident.Key,
		Name:             ident.Name,
		Type:             ident.Type,
		Orientation:      ident.Orientation,
		Ratio:            RatioFor(ident.Orientation),
		CaptureParams:    d.Capture,
		AppearanceParams: d.Appearance,
		AdvancedParams:   d.Advanced,
		AvailableEffects: d.Effects,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Hydrate converts a stored row into an entity whose bags satisfy the
// default-fill invariant. Bags that fail to decode are treated as absent.
func Hydrate(row *ScreenConfigRow) *ScreenConfig {
	cfg := &ScreenConfig{
		ID:            row.ID,
		ScreenKey:     row.ScreenKey,
		Name:          row.Name,
		Type:          row.Type,
		Orientation:   row.Orientation,
		Ratio:         row.Ratio,
		MagicalEffect: nonEmpty(row.MagicalEffect),
		NormalEffect:  nonEmpty(row.NormalEffect),
		Legacy:        decodeParams(row.LegacyFields),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	cfg.CaptureParams = MergeCapture(decodeParams(row.CaptureParams))
	cfg.AppearanceParams = MergeAppearance(decodeParams(row.AppearanceParams))
	cfg.AdvancedParams = MergeAdvanced(decodeParams(row.AdvancedParams))
	cfg.AvailableEffects = MergeEffects(decodeEffects(row.AvailableEffects))
	return cfg
}

// nonEmpty treats an empty effect reference as no reference.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// ToRow maps an entity to its stored shape.
func ToRow(cfg *ScreenConfig) (*ScreenConfigRow, error) {
	row := &ScreenConfigRow{
		ID:            cfg.ID,
		ScreenKey:     cfg.ScreenKey,
		Name:          cfg.Name,
		Type:          cfg.Type,
		Orientation:   cfg.Orientation,
		Ratio:         cfg.Ratio,
		MagicalEffect: cfg.MagicalEffect,
		NormalEffect:  cfg.NormalEffect,
		CreatedAt:     cfg.CreatedAt,
		UpdatedAt:     cfg.UpdatedAt,
	}

	fields := []struct {
		name string
		src  any
		dst  *datatypes.JSON
	}{
		{SectionCapture, cfg.CaptureParams, &row.CaptureParams},
		{SectionAppearance, cfg.AppearanceParams, &row.AppearanceParams},
		{SectionAdvanced, cfg.AdvancedParams, &row.AdvancedParams},
		{SectionEffects, cfg.AvailableEffects, &row.AvailableEffects},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.name, err)
		}
		*f.dst = datatypes.JSON(b)
	}

	if len(cfg.Legacy) > 0 {
		b, err := json.Marshal(cfg.Legacy)
		if err != nil {
			return nil, fmt.Errorf("encode legacy fields: %w", err)
		}
		row.LegacyFields = datatypes.JSON(b)
	}
	return row, nil
}

func decodeParams(raw datatypes.JSON) Params {
	if len(raw) == 0 {
		return nil
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return p
}

func decodeEffects(raw datatypes.JSON) EffectCatalog {
	if len(raw) == 0 {
		return nil
	}
	var c EffectCatalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil
	}
	return c
}
