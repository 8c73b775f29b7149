package notify

import (
	"context"
	"time"

	"photobooth-admin-api/internal/screenconfig"
)

const subjectPrefix = "photobooth.screens."

// ConfigSaved is broadcast after a screen configuration row is written so
// booth terminals can refetch without polling.
type ConfigSaved struct {
	ScreenKey string    `json:"screen_key"`
	ScreenID  string    `json:"screen_id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ConfigSavedSubject(screenKey string) string {
	return subjectPrefix + screenKey + ".config.saved"
}

// ScreenNotifier adapts a Publisher to screenconfig.Notifier.
type ScreenNotifier struct {
	Publisher Publisher
}

func NewScreenNotifier(p Publisher) *ScreenNotifier {
	return &ScreenNotifier{Publisher: p}
}

func (n *ScreenNotifier) ConfigSaved(ctx context.Context, cfg *screenconfig.ScreenConfig) error {
	if n == nil || n.Publisher == nil || cfg == nil {
		return nil
	}
	evt := ConfigSaved{
		ScreenKey: cfg.ScreenKey,
		ScreenID:  cfg.ID,
		Name:      cfg.Name,
		UpdatedAt: cfg.UpdatedAt,
	}
	return n.Publisher.Publish(ctx, ConfigSavedSubject(cfg.ScreenKey), evt)
}
