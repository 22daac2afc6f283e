package models

import "time"

// Availability values recorded on a price observation.
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityLimited    = "limited"
	AvailabilityOutOfStock = "out_of_stock"
	AvailabilityUnknown    = "unknown"
)

// Condition values recorded on a price observation.
const (
	ConditionNew         = "new"
	ConditionUsed        = "used"
	ConditionRefurbished = "refurbished"
)

// Price is a single price observation for a (book, store, condition)
// triple. At most one row per triple carries IsActive=true; new scrapes
// update that row in place.
type Price struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BookID        uint      `gorm:"not null;index" json:"book_id"`
	StoreID       uint      `gorm:"not null;index" json:"store_id"`
	Price         float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice *float64  `gorm:"type:decimal(10,2)" json:"original_price,omitempty"`
	Currency      string    `gorm:"type:varchar(3);default:USD" json:"currency"`
	Availability  string    `gorm:"type:varchar(50)" json:"availability"`
	Condition     string    `gorm:"type:varchar(20);default:new" json:"condition"`
	ShippingCost  float64   `gorm:"type:decimal(10,2);default:0" json:"shipping_cost"`
	TotalCost     float64   `gorm:"type:decimal(10,2)" json:"total_cost"`
	URL           string    `gorm:"type:varchar(1000)" json:"url,omitempty"`
	LastUpdated   time.Time `json:"last_updated"`
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`

	Book  Book  `gorm:"foreignKey:BookID" json:"-"`
	Store Store `gorm:"foreignKey:StoreID" json:"store"`
}

func (Price) TableName() string {
	return "prices"
}

// ValidAvailability reports whether s is one of the known availability
// states.
func ValidAvailability(s string) bool {
	switch s {
	case AvailabilityInStock, AvailabilityLimited, AvailabilityOutOfStock, AvailabilityUnknown:
		return true
	}
	return false
}

// ValidCondition reports whether s is one of the known conditions.
func ValidCondition(s string) bool {
	switch s {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}
