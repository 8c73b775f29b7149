package screenconfig

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TypeVertical   = "vertical"
	TypeHorizontal = "horizontal"

	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"

	SectionCapture    = "capture_params"
	SectionAppearance = "appearance_params"
	SectionAdvanced   = "advanced_params"
	SectionEffects    = "availableEffects"
)

// Params is a flat key/value configuration bag.
type Params map[string]any

type Effect struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Preview string `json:"preview,omitempty"`
}

// EffectCatalog maps an effect category to its ordered effects.
type EffectCatalog map[string][]Effect

// ScreenConfig is the in-memory configuration of one screen. Values handed out
// by Engine are snapshots and must be treated as read-only.
type ScreenConfig struct {
	ID          string `json:"id"`
	ScreenKey   string `json:"screen_key"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Orientation string `json:"orientation"`
	Ratio       string `json:"ratio"`

	CaptureParams    Params        `json:"capture_params"`
	AppearanceParams Params        `json:"appearance_params"`
	AdvancedParams   Params        `json:"advanced_params"`
	AvailableEffects EffectCatalog `json:"availableEffects"`

	MagicalEffect *string `json:"magicalEffect"`
	NormalEffect  *string `json:"normalEffect"`

	// Legacy holds flat top-level fields found on older rows.
	Legacy Params `json:"legacy,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScreenConfigRow is the stored shape of a ScreenConfig.
type ScreenConfigRow struct {
	ID               string         `gorm:"primaryKey;type:text" json:"id"`
	ScreenKey        string         `gorm:"type:text;not null;index" json:"screen_key"`
	Name             string         `gorm:"type:text;not null" json:"name"`
	Type             string         `gorm:"size:20;not null" json:"type"`
	Orientation      string         `gorm:"size:20;not null" json:"orientation"`
	Ratio            string         `gorm:"size:20" json:"ratio"`
	CaptureParams    datatypes.JSON `gorm:"type:jsonb" json:"capture_params"`
	AppearanceParams datatypes.JSON `gorm:"type:jsonb" json:"appearance_params"`
	AdvancedParams   datatypes.JSON `gorm:"type:jsonb" json:"advanced_params"`
	AvailableEffects datatypes.JSON `gorm:"type:jsonb;column:available_effects" json:"availableEffects"`
	MagicalEffect    *string        `gorm:"type:text" json:"magicalEffect"`
	NormalEffect     *string        `gorm:"type:text" json:"normalEffect"`
	LegacyFields     datatypes.JSON `gorm:"type:jsonb" json:"legacy_fields,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (ScreenConfigRow) TableName() string { return "screen_configs" }

// EventScreen links a screen to an event it has been configured for.
type EventScreen struct {
	EventID      string    `gorm:"primaryKey;type:text" json:"event_id"`
	ScreenID     string    `gorm:"primaryKey;type:text" json:"screen_id"`
	LastActiveAt time.Time `gorm:"not null" json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (EventScreen) TableName() string { return "event_screens" }

// ScreenIdentity is the static description of a known screen.
type ScreenIdentity struct {
	Key         string `yaml:"key" json:"key"`
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Orientation string `yaml:"orientation" json:"orientation"`
	Optional    bool   `yaml:"optional" json:"optional"`
}

// RatioFor returns the display ratio a new screen gets for an orientation.
func RatioFor(orientation string) string {
	if orientation == OrientationLandscape {
		return "16:9"
	}
	return "9:16"
}
