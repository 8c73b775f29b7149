package screenconfig

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Read(ctx context.Context, id string) (*ScreenConfigRow, error) {
	var row ScreenConfigRow
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// Upsert writes the full row keyed by id. Replaying the same row leaves the
// table unchanged.
func (s *GormStore) Upsert(ctx context.Context, row *ScreenConfigRow) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(row).Error
}

func (s *GormStore) ListByScreenKeys(ctx context.Context, keys []string) ([]ScreenConfigRow, error) {
	rows := []ScreenConfigRow{}
	if len(keys) == 0 {
		return rows, nil
	}
	err := s.DB.WithContext(ctx).
		Where("screen_key IN ?", keys).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) List(ctx context.Context) ([]ScreenConfigRow, error) {
	rows := []ScreenConfigRow{}
	if err := s.DB.WithContext(ctx).Order("screen_key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertEventScreen inserts the (event_id, screen_id) link or only refreshes
// last_active_at when it already exists.
func (s *GormStore) UpsertEventScreen(ctx context.Context, link *EventScreen) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "screen_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_active_at"}),
		}).
		Create(link).Error
}
