package event

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a booking the booth is being set up for. At most one event is
// active at a time.
type Event struct {
	ID        string     `gorm:"primaryKey;type:text" json:"id"`
	Name      string     `gorm:"size:200;not null" json:"name"`
	Venue     string     `gorm:"size:200" json:"venue"`
	StartsAt  *time.Time `json:"starts_at"`
	IsActive  bool       `gorm:"index;not null" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

type CreateEventInput struct {
	Name     string     `json:"name" binding:"required"`
	Venue    string     `json:"venue"`
	StartsAt *time.Time `json:"starts_at"`
	Activate bool       `json:"activate"`
}
