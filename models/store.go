package models

import "time"

// Store is static reference data describing an online bookstore the
// scrapers know how to talk to. Seeded once at startup.
type Store struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"type:varchar(100);not null;unique" json:"name"`
	Code              string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	BaseURL           string    `gorm:"type:varchar(200);not null" json:"base_url"`
	SearchURLTemplate string    `gorm:"type:varchar(500)" json:"search_url_template,omitempty"`
	IsActive          bool      `gorm:"default:true" json:"is_active"`
	ScrapingEnabled   bool      `gorm:"default:true" json:"scraping_enabled"`
	RateLimitDelay    int       `gorm:"default:1" json:"rate_limit_delay"`
	UserAgent         string    `gorm:"type:varchar(300)" json:"user_agent,omitempty"`
	Notes             string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Prices []Price `gorm:"foreignKey:StoreID" json:"-"`
}

func (Store) TableName() string {
	return "stores"
}

// RateLimit returns the minimum pause between requests to this store.
func (s *Store) RateLimit() time.Duration {
	if s.RateLimitDelay <= 0 {
		return 0
	}
	return time.Duration(s.RateLimitDelay) * time.Second
}
