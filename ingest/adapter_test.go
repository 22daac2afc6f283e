package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"bookflipfinder/config"
	"bookflipfinder/models"
	"bookflipfinder/scraper"
	"bookflipfinder/storage"
)

func testAdapter(t *testing.T) (*Adapter, *gorm.DB, *models.Store) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	db, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := &models.Store{Name: "Alpha Books", Code: "alpha", BaseURL: "https://example.com", IsActive: true, ScrapingEnabled: true}
	if err := db.Create(store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}

	adapter := NewAdapter(db, storage.NewBookRepo(db), storage.NewPriceRepo(db), scraper.NewMetrics())
	adapter.now = func() time.Time {
		return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	}
	return adapter, db, store
}

func validObservation() *models.ScrapedBookPrice {
	return &models.ScrapedBookPrice{
		ISBN:         "9781491941959",
		Title:        "Go in Practice",
		Author:       "Matt Butcher",
		Publisher:    "Manning",
		Price:        32.99,
		Currency:     "USD",
		Availability: models.AvailabilityInStock,
		Condition:    models.ConditionNew,
		ShippingCost: 3.99,
		URL:          "https://example.com/go-in-practice",
	}
}

func TestIngestRejectsInvalidObservations(t *testing.T) {
	adapter, _, store := testAdapter(t)
	ctx := context.Background()

	tests := []struct {
		name string
		obs  *models.ScrapedBookPrice
	}{
		{"nil observation", nil},
		{"blank isbn", &models.ScrapedBookPrice{ISBN: "   ", Title: "X", Price: 10}},
		{"negative price", &models.ScrapedBookPrice{ISBN: "9781491941959", Price: -1}},
		{"negative shipping", &models.ScrapedBookPrice{ISBN: "9781491941959", Price: 10, ShippingCost: -0.01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := adapter.Ingest(ctx, store.ID, tt.obs); !models.IsValidation(err) {
				t.Fatalf("want ValidationError, got %v", err)
			}
		})
	}
}

func TestIngestCreatesBookAndPrice(t *testing.T) {
	adapter, db, store := testAdapter(t)
	ctx := context.Background()

	obs := validObservation()
	obs.Availability = "probably fine"
	obs.Condition = "mint"
	obs.Currency = ""

	bookID, updated, err := adapter.Ingest(ctx, store.ID, obs)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if updated {
		t.Error("first ingest reported an update")
	}

	var book models.Book
	if err := db.First(&book, bookID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if book.ISBN != obs.ISBN || book.Title != obs.Title {
		t.Errorf("book = %+v, want isbn %s title %q", book, obs.ISBN, obs.Title)
	}

	var price models.Price
	if err := db.Where("book_id = ?", bookID).First(&price).Error; err != nil {
		t.Fatalf("load price: %v", err)
	}
	if price.TotalCost != 36.98 {
		t.Errorf("total cost = %v, want 36.98", price.TotalCost)
	}
	if price.Availability != models.AvailabilityUnknown {
		t.Errorf("availability = %q, want normalized to unknown", price.Availability)
	}
	if price.Condition != models.ConditionNew {
		t.Errorf("condition = %q, want normalized to new", price.Condition)
	}
	if price.Currency != "USD" {
		t.Errorf("currency = %q, want USD default", price.Currency)
	}
	if !price.IsActive {
		t.Error("new price row is not active")
	}
}

func TestIngestUpdatesActiveRowInPlace(t *testing.T) {
	adapter, db, store := testAdapter(t)
	ctx := context.Background()

	bookID, _, err := adapter.Ingest(ctx, store.ID, validObservation())
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	obs := validObservation()
	obs.Price = 28.50
	obs.ShippingCost = 0
	sameBook, updated, err := adapter.Ingest(ctx, store.ID, obs)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if sameBook != bookID {
		t.Errorf("book id changed from %d to %d", bookID, sameBook)
	}
	if !updated {
		t.Error("second ingest did not report an update")
	}

	var rows []models.Price
	if err := db.Where("book_id = ? AND is_active = ?", bookID, true).Find(&rows).Error; err != nil {
		t.Fatalf("load prices: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("active rows = %d, want exactly 1", len(rows))
	}
	if rows[0].Price != 28.50 || rows[0].TotalCost != 28.50 {
		t.Errorf("row = %+v, want price and total 28.50", rows[0])
	}
}

func TestIngestDistinctConditionsKeepSeparateRows(t *testing.T) {
	adapter, db, store := testAdapter(t)
	ctx := context.Background()

	bookID, _, err := adapter.Ingest(ctx, store.ID, validObservation())
	if err != nil {
		t.Fatalf("new ingest: %v", err)
	}

	used := validObservation()
	used.Condition = models.ConditionUsed
	used.Price = 18.00
	if _, updated, err := adapter.Ingest(ctx, store.ID, used); err != nil {
		t.Fatalf("used ingest: %v", err)
	} else if updated {
		t.Error("different condition reported as update")
	}

	var count int64
	if err := db.Model(&models.Price{}).Where("book_id = ? AND is_active = ?", bookID, true).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("active rows = %d, want one per condition", count)
	}
}

func TestIngestPartialMetadataNeverClearsFields(t *testing.T) {
	adapter, db, store := testAdapter(t)
	ctx := context.Background()

	bookID, _, err := adapter.Ingest(ctx, store.ID, validObservation())
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	sparse := &models.ScrapedBookPrice{
		ISBN:  "9781491941959",
		Title: "Go in Practice, 2nd Edition",
		Price: 30.00,
	}
	if _, _, err := adapter.Ingest(ctx, store.ID, sparse); err != nil {
		t.Fatalf("sparse ingest: %v", err)
	}

	var book models.Book
	if err := db.First(&book, bookID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if book.Title != "Go in Practice, 2nd Edition" {
		t.Errorf("title = %q, want the new title", book.Title)
	}
	if book.Author != "Matt Butcher" {
		t.Errorf("author = %q, want the original preserved", book.Author)
	}
	if book.Publisher != "Manning" {
		t.Errorf("publisher = %q, want the original preserved", book.Publisher)
	}
}
