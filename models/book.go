// Package models defines the persisted entities and the canonical
// scrape payload shared by every layer of the service.
package models

import "time"

// Book is a tracked title. Rows are created and updated only by the
// ingestion adapter; readers never mutate them.
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ISBN            string    `gorm:"type:varchar(13);uniqueIndex;not null" json:"isbn"`
	Title           string    `gorm:"type:varchar(500);not null;index" json:"title"`
	Author          string    `gorm:"type:varchar(300);not null" json:"author"`
	Publisher       string    `gorm:"type:varchar(200)" json:"publisher,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	Category        string    `gorm:"type:varchar(100);index" json:"category,omitempty"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	ImageURL        string    `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	Pages           int       `json:"pages,omitempty"`
	Weight          string    `gorm:"type:varchar(50)" json:"weight,omitempty"`
	Dimensions      string    `gorm:"type:varchar(100)" json:"dimensions,omitempty"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Prices []Price `gorm:"foreignKey:BookID" json:"prices,omitempty"`
}

func (Book) TableName() string {
	return "books"
}
