// Package ingest turns scraped observations into durable book and
// price rows. It is the only writer against the price store.
package ingest

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"bookflipfinder/models"
	"bookflipfinder/scraper"
	"bookflipfinder/storage"
)

// Adapter normalizes a scraped observation and upserts it. One write
// transaction per observation; applying the same observation twice
// leaves the store in the same state.
type Adapter struct {
	db      *gorm.DB
	books   storage.BookRepo
	prices  storage.PriceRepo
	metrics *scraper.Metrics

	now func() time.Time
}

// NewAdapter builds an ingestion adapter.
func NewAdapter(db *gorm.DB, books storage.BookRepo, prices storage.PriceRepo, metrics *scraper.Metrics) *Adapter {
	return &Adapter{
		db:      db,
		books:   books,
		prices:  prices,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ingest validates obs and applies it for the given store. It returns
// the book id and whether an existing active price row was updated
// (false when a new row was inserted).
func (a *Adapter) Ingest(ctx context.Context, storeID uint, obs *models.ScrapedBookPrice) (uint, bool, error) {
	if err := validate(obs); err != nil {
		a.metrics.IncIngested("rejected")
		return 0, false, err
	}

	var (
		bookID  uint
		updated bool
	)
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := a.upsertBook(ctx, tx, obs)
		if err != nil {
			return err
		}
		bookID = book.ID

		updated, err = a.upsertPrice(ctx, tx, book.ID, storeID, obs)
		return err
	})
	if err != nil {
		return 0, false, err
	}

	if updated {
		a.metrics.IncIngested("updated")
	} else {
		a.metrics.IncIngested("created")
	}
	return bookID, updated, nil
}

func validate(obs *models.ScrapedBookPrice) error {
	if obs == nil {
		return models.ValidationError{Field: "observation", Reason: "is nil"}
	}
	if strings.TrimSpace(obs.ISBN) == "" {
		return models.ValidationError{Field: "isbn", Reason: "is required"}
	}
	if obs.Price < 0 {
		return models.ValidationError{Field: "price", Reason: "cannot be negative"}
	}
	if obs.ShippingCost < 0 {
		return models.ValidationError{Field: "shipping_cost", Reason: "cannot be negative"}
	}
	return nil
}

// upsertBook creates the book on first sight and otherwise overwrites
// only the fields the scrape actually captured. Missing scraped fields
// never null out stored metadata.
func (a *Adapter) upsertBook(ctx context.Context, tx *gorm.DB, obs *models.ScrapedBookPrice) (*models.Book, error) {
	book, err := a.books.GetByISBN(ctx, tx, obs.ISBN)
	if models.IsNotFound(err) {
		book = &models.Book{
			ISBN:            obs.ISBN,
			Title:           obs.Title,
			Author:          obs.Author,
			Publisher:       obs.Publisher,
			PublicationYear: obs.PublicationYear,
			Category:        obs.Category,
			Description:     obs.Description,
			ImageURL:        obs.ImageURL,
			Pages:           obs.Pages,
			Weight:          obs.Weight,
			Dimensions:      obs.Dimensions,
			IsActive:        true,
		}
		if err := a.books.Create(ctx, tx, book); err != nil {
			return nil, err
		}
		return book, nil
	}
	if err != nil {
		return nil, err
	}

	if obs.Title != "" {
		book.Title = obs.Title
	}
	if obs.Author != "" {
		book.Author = obs.Author
	}
	if obs.Publisher != "" {
		book.Publisher = obs.Publisher
	}
	if obs.PublicationYear != 0 {
		book.PublicationYear = obs.PublicationYear
	}
	if obs.Category != "" {
		book.Category = obs.Category
	}
	if obs.Description != "" {
		book.Description = obs.Description
	}
	if obs.ImageURL != "" {
		book.ImageURL = obs.ImageURL
	}
	if obs.Pages != 0 {
		book.Pages = obs.Pages
	}
	if obs.Weight != "" {
		book.Weight = obs.Weight
	}
	if obs.Dimensions != "" {
		book.Dimensions = obs.Dimensions
	}
	if err := a.books.Update(ctx, tx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// upsertPrice updates the active row for (book, store, condition) in
// place, or inserts a new active row when none exists.
func (a *Adapter) upsertPrice(ctx context.Context, tx *gorm.DB, bookID, storeID uint, obs *models.ScrapedBookPrice) (bool, error) {
	condition := obs.Condition
	if !models.ValidCondition(condition) {
		condition = models.ConditionNew
	}
	availability := obs.Availability
	if !models.ValidAvailability(availability) {
		availability = models.AvailabilityUnknown
	}
	currency := obs.Currency
	if currency == "" {
		currency = "USD"
	}

	existing, err := a.prices.ActiveRow(ctx, tx, bookID, storeID, condition)
	if err != nil {
		return false, err
	}

	if existing == nil {
		price := &models.Price{
			BookID:        bookID,
			StoreID:       storeID,
			Price:         obs.Price,
			OriginalPrice: obs.OriginalPrice,
			Currency:      currency,
			Availability:  availability,
			Condition:     condition,
			ShippingCost:  obs.ShippingCost,
			TotalCost:     obs.Price + obs.ShippingCost,
			URL:           obs.URL,
			LastUpdated:   a.now(),
			IsActive:      true,
		}
		return false, a.prices.Create(ctx, tx, price)
	}

	existing.Price = obs.Price
	existing.OriginalPrice = obs.OriginalPrice
	existing.Currency = currency
	existing.Availability = availability
	existing.ShippingCost = obs.ShippingCost
	existing.TotalCost = obs.Price + obs.ShippingCost
	existing.URL = obs.URL
	existing.LastUpdated = a.now()
	return true, a.prices.Update(ctx, tx, existing)
}
