package logs

import (
	"time"

	"github.com/lib/pq"
)

// AuditEntry is one operator action against a screen configuration.
type AuditEntry struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Level      string         `gorm:"size:20;not null" json:"level"`
	Service    string         `gorm:"size:100;not null" json:"service"`
	OperatorID *uint          `gorm:"index" json:"operator_id,omitempty"`
	Action     string         `gorm:"size:255;not null;index" json:"action"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	Screens    pq.StringArray `gorm:"type:text[];column:screens" json:"screens"`
	Metadata   *string        `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_logs"
}

type AuditFilterInput struct {
	OperatorID *uint    `json:"operator_id"`
	Level      *string  `json:"level"`
	Action     *string  `json:"action"`
	Screens    []string `json:"screens"`

	StartDate *string `json:"start_date"` // YYYY-MM-DD or RFC3339
	EndDate   *string `json:"end_date"`

	Search   *string `json:"search"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

type AggItem struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type AuditAggregates struct {
	ByAction []AggItem `json:"by_action"`
	ByScreen []AggItem `json:"by_screen"`
}
