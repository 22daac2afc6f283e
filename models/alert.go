package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert frequency values.
const (
	FrequencyImmediate = "immediate"
	FrequencyHourly    = "hourly"
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
)

// AlertPreference stores per-user notification settings. One row per
// user, enforced by the unique index on UserID.
type AlertPreference struct {
	ID                    string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID                string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"user_id"`
	ProfitMarginThreshold float64   `gorm:"type:decimal(5,2);default:20" json:"profit_margin_threshold"`
	MinStock              int       `gorm:"default:1" json:"min_stock"`
	IncludeRetailers      string    `gorm:"type:text" json:"-"`
	AlertFrequency        string    `gorm:"type:varchar(20);default:daily" json:"alert_frequency"`
	IsActive              bool      `gorm:"default:true" json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (AlertPreference) TableName() string {
	return "alert_preferences"
}

func (p *AlertPreference) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Retailers returns the included retailer names. The list is stored as
// a comma-separated string to stay portable across sqlite and postgres.
func (p *AlertPreference) Retailers() []string {
	if p.IncludeRetailers == "" {
		return nil
	}
	parts := strings.Split(p.IncludeRetailers, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// SetRetailers replaces the included retailer list.
func (p *AlertPreference) SetRetailers(names []string) {
	p.IncludeRetailers = strings.Join(names, ",")
}

// ValidFrequency reports whether s is a known alert frequency.
func ValidFrequency(s string) bool {
	switch s {
	case FrequencyImmediate, FrequencyHourly, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}
