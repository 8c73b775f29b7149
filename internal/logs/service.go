package logs

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	DefaultService = "screens"
	aggregateLimit = 12
)

type AuditService struct {
	DB      *gorm.DB
	Service string
	Now     func() time.Time
}

// Record stores one operator action. Metadata that cannot be marshalled is
// dropped and the entry is still written.
func (as *AuditService) Record(ctx context.Context, operatorID *uint, action, screenKey, message string, metadata any) error {
	entry := AuditEntry{
		Level:      "info",
		OperatorID: operatorID,
		Action:     action,
		Message:    message,
		Screens:    pq.StringArray{},
	}
	if screenKey != "" {
		entry.Screens = pq.StringArray{screenKey}
	}
	return as.Log(ctx, entry, metadata)
}

func (as *AuditService) Log(ctx context.Context, entry AuditEntry, metadata any) error {
	var metaStr *string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			str := string(b)
			metaStr = &str
		}
	}

	service := entry.Service
	if service == "" {
		service = as.Service
	}
	if service == "" {
		service = DefaultService
	}
	if entry.Screens == nil {
		entry.Screens = pq.StringArray{}
	}

	row := AuditEntry{
		Level:      entry.Level,
		Service:    service,
		OperatorID: entry.OperatorID,
		Action:     entry.Action,
		Message:    entry.Message,
		Screens:    entry.Screens,
		Metadata:   metaStr,
		CreatedAt:  as.now(),
	}
	return as.DB.WithContext(ctx).Create(&row).Error
}

func (as *AuditService) List(ctx context.Context, input AuditFilterInput) ([]AuditEntry, AuditAggregates, int64, int, error) {
	if input.Page <= 0 {
		input.Page = 1
	}
	if input.PageSize <= 0 || input.PageSize > 100 {
		input.PageSize = 20
	}

	start, hasStart, endExclusive, hasEnd, err := ParseDateRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, AuditAggregates{}, 0, 0, err
	}

	base := as.DB.WithContext(ctx).Model(&AuditEntry{})

	if !hasStart && !hasEnd {
		base = base.Where("audit_logs.created_at >= ?", as.now().AddDate(0, 0, -30))
	}
	if hasStart {
		base = base.Where("audit_logs.created_at >= ?", start)
	}
	if hasEnd {
		base = base.Where("audit_logs.created_at < ?", endExclusive)
	}
	if input.OperatorID != nil {
		base = base.Where("audit_logs.operator_id = ?", *input.OperatorID)
	}
	if v := trimmed(input.Level); v != "" {
		base = base.Where("audit_logs.level = ?", v)
	}
	if v := trimmed(input.Action); v != "" {
		base = base.Where("audit_logs.action = ?", v)
	}
	if len(input.Screens) > 0 {
		base = base.Where("audit_logs.screens && ?", pq.Array(input.Screens))
	}
	if v := trimmed(input.Search); v != "" {
		like := "%" + v + "%"
		base = base.Where(
			`audit_logs.action ILIKE ?
			 OR audit_logs.message ILIKE ?
			 OR COALESCE(array_to_string(audit_logs.screens, ','),'') ILIKE ?`,
			like, like, like,
		)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, AuditAggregates{}, 0, 0, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(input.PageSize)))
	if totalPages == 0 {
		totalPages = 1
	}

	var rows []AuditEntry
	if err := base.Session(&gorm.Session{}).
		Order("audit_logs.created_at DESC").
		Limit(input.PageSize).
		Offset((input.Page - 1) * input.PageSize).
		Find(&rows).Error; err != nil {
		return nil, AuditAggregates{}, 0, 0, err
	}

	aggs, err := as.aggregates(ctx, base)
	if err != nil {
		return nil, AuditAggregates{}, 0, 0, err
	}
	return rows, aggs, total, totalPages, nil
}

// aggregates groups the filtered entries through a derived table so both
// breakdowns see exactly the same rows as the listing.
func (as *AuditService) aggregates(ctx context.Context, base *gorm.DB) (AuditAggregates, error) {
	sub := base.Session(&gorm.Session{}).Select("audit_logs.action, audit_logs.screens")
	derived := as.DB.WithContext(ctx).Table("(?) as x", sub)

	var aggs AuditAggregates

	if err := derived.Session(&gorm.Session{}).
		Select("x.action AS label, COUNT(*) AS count").
		Group("label").
		Order("count DESC").
		Limit(aggregateLimit).
		Scan(&aggs.ByAction).Error; err != nil {
		return AuditAggregates{}, err
	}

	if err := derived.Session(&gorm.Session{}).
		Select("s AS label, COUNT(*) AS count").
		Joins("JOIN LATERAL unnest(x.screens) AS s ON TRUE").
		Group("label").
		Order("count DESC").
		Limit(aggregateLimit).
		Scan(&aggs.ByScreen).Error; err != nil {
		return AuditAggregates{}, err
	}

	if aggs.ByAction == nil {
		aggs.ByAction = []AggItem{}
	}
	if aggs.ByScreen == nil {
		aggs.ByScreen = []AggItem{}
	}
	return aggs, nil
}

func (as *AuditService) now() time.Time {
	if as.Now != nil {
		return as.Now()
	}
	return time.Now()
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
