package event

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"photobooth-admin-api/internal/screenconfig"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNameRequired  = errors.New("event name is required")
)

type EventService struct {
	DB *gorm.DB
}

// ActiveEventID returns the id of the active event, if any.
func (s *EventService) ActiveEventID(ctx context.Context) (string, bool, error) {
	var ev Event
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("updated_at desc").
		First(&ev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return ev.ID, true, nil
}

func (s *EventService) List(ctx context.Context) ([]Event, error) {
	events := []Event{}
	if err := s.DB.WithContext(ctx).Order("created_at desc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *EventService) Create(ctx context.Context, input CreateEventInput) (*Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	ev := &Event{
		Name:     name,
		Venue:    strings.TrimSpace(input.Venue),
		StartsAt: input.StartsAt,
		IsActive: input.Activate,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.Activate {
			if err := deactivateAll(tx); err != nil {
				return err
			}
		}
		return tx.Create(ev).Error
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// Activate makes id the only active event.
func (s *EventService) Activate(ctx context.Context, id string) (*Event, error) {
	var ev Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&ev).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if err := deactivateAll(tx); err != nil {
			return err
		}
		if err := tx.Model(&ev).Update("is_active", true).Error; err != nil {
			return err
		}
		ev.IsActive = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Deactivate leaves no event active. Saves made afterwards are not linked.
func (s *EventService) Deactivate(ctx context.Context) error {
	return deactivateAll(s.DB.WithContext(ctx))
}

// Screens lists the screens configured for an event, most recently active first.
func (s *EventService) Screens(ctx context.Context, id string) ([]screenconfig.EventScreen, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEventNotFound
	}

	links := []screenconfig.EventScreen{}
	err := s.DB.WithContext(ctx).
		Where("event_id = ?", id).
		Order("last_active_at desc").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func deactivateAll(tx *gorm.DB) error {
	return tx.Model(&Event{}).Where("is_active = ?", true).Update("is_active", false).Error
}
