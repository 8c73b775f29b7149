package screenconfig

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Update is one edit to a ScreenConfig. It is either a FieldUpdate on a
// top-level field or a SectionUpdate on one key of a bag.
type Update interface {
	Path() string
	apply(cfg *ScreenConfig) error
}

type FieldUpdate struct {
	Field string
	Value any
}

type SectionUpdate struct {
	Section string
	Field   string
	Value   any
}

func (u FieldUpdate) Path() string   { return u.Field }
func (u SectionUpdate) Path() string { return u.Section + "." + u.Field }

// ParsePath turns a "field" or "section.field" path into an Update.
func ParsePath(path any, value any) (Update, error) {
	p, ok := path.(string)
	if !ok {
		return nil, ErrPathNotString
	}
	parts := strings.Split(p, ".")
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	switch len(parts) {
	case 1:
		return FieldUpdate{Field: parts[0], Value: value}, nil
	case 2:
		return SectionUpdate{Section: parts[0], Field: parts[1], Value: value}, nil
	default:
		return nil, fmt.Errorf("%w: %q nests deeper than one level", ErrInvalidPath, p)
	}
}

// Apply returns a new snapshot with upd applied and UpdatedAt stamped. The
// previous snapshot and its bags are left untouched.
func Apply(cfg *ScreenConfig, upd Update, now func() time.Time) (*ScreenConfig, error) {
	next := *cfg
	if err := upd.apply(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = stamp(now, cfg.UpdatedAt)
	return &next, nil
}

func (u FieldUpdate) apply(cfg *ScreenConfig) error {
	switch u.Field {
	case "name":
		s, err := requireString(u.Field, u.Value)
		if err != nil {
			return err
		}
		cfg.Name = s
	case "ratio":
		s, err := requireString(u.Field, u.Value)
		if err != nil {
			return err
		}
		cfg.Ratio = s
	case "type":
		s, err := requireOneOf(u.Field, u.Value, TypeVertical, TypeHorizontal)
		if err != nil {
			return err
		}
		cfg.Type = s
	case "orientation":
		s, err := requireOneOf(u.Field, u.Value, OrientationPortrait, OrientationLandscape)
		if err != nil {
			return err
		}
		cfg.Orientation = s
	case "magicalEffect":
		ref, err := optionalString(u.Field, u.Value)
		if err != nil {
			return err
		}
		cfg.MagicalEffect = ref
	case "normalEffect":
		ref, err := optionalString(u.Field, u.Value)
		if err != nil {
			return err
		}
		cfg.NormalEffect = ref
	case SectionEffects:
		var catalog EffectCatalog
		if err := convert(u.Value, &catalog); err != nil || catalog == nil {
			return &ValidationError{Field: u.Field, Reason: "expected an object of effect lists", Err: err}
		}
		cfg.AvailableEffects = catalog
	case SectionCapture, SectionAppearance, SectionAdvanced:
		var p Params
		if err := convert(u.Value, &p); err != nil || p == nil {
			return &ValidationError{Field: u.Field, Reason: "expected an object", Err: err}
		}
		setBag(cfg, u.Field, p)
	case "id", "screen_key", "created_at", "updated_at":
		return &ValidationError{Field: u.Field, Reason: "field is read-only"}
	default:
		return &ValidationError{Field: u.Field, Reason: "unknown field", Err: ErrInvalidPath}
	}
	return nil
}

func (u SectionUpdate) apply(cfg *ScreenConfig) error {
	switch u.Section {
	case SectionCapture, SectionAppearance, SectionAdvanced:
		src := bag(cfg, u.Section)
		p := make(Params, len(src)+1)
		for k, v := range src {
			p[k] = v
		}
		p[u.Field] = u.Value
		setBag(cfg, u.Section, p)
	case SectionEffects:
		var effects []Effect
		if err := convert(u.Value, &effects); err != nil {
			return &ValidationError{Field: u.Path(), Reason: "expected a list of effects", Err: err}
		}
		catalog := make(EffectCatalog, len(cfg.AvailableEffects)+1)
		for k, v := range cfg.AvailableEffects {
			catalog[k] = v
		}
		catalog[u.Field] = effects
		cfg.AvailableEffects = catalog
	default:
		return &ValidationError{Field: u.Path(), Reason: "unknown section", Err: ErrInvalidPath}
	}
	return nil
}

func bag(cfg *ScreenConfig, section string) Params {
	switch section {
	case SectionCapture:
		return cfg.CaptureParams
	case SectionAppearance:
		return cfg.AppearanceParams
	default:
		return cfg.AdvancedParams
	}
}

func setBag(cfg *ScreenConfig, section string, p Params) {
	switch section {
	case SectionCapture:
		cfg.CaptureParams = p
	case SectionAppearance:
		cfg.AppearanceParams = p
	default:
		cfg.AdvancedParams = p
	}
}

func requireString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: field, Reason: "expected a string"}
	}
	return s, nil
}

func requireOneOf(field string, v any, allowed ...string) (string, error) {
	s, err := requireString(field, v)
	if err != nil {
		return "", err
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", &ValidationError{Field: field, Reason: fmt.Sprintf("must be one of %s", strings.Join(allowed, ", "))}
}

func optionalString(field string, v any) (*string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		return &t, nil
	case *string:
		return nonEmpty(t), nil
	default:
		return nil, &ValidationError{Field: field, Reason: "expected a string or null"}
	}
}

// convert re-decodes a loosely typed value (usually from a JSON body) into dst.
func convert(v any, dst any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
