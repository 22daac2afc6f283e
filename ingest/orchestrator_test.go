package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookflipfinder/models"
	"bookflipfinder/scraper"
	"bookflipfinder/storage"
)

type scriptedSource struct {
	calls    int
	err      error
	listings []*models.ScrapedBookPrice
}

func (s *scriptedSource) ScrapeISBN(ctx context.Context, isbn string) (*models.ScrapedBookPrice, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.listings) == 0 {
		return nil, nil
	}
	return s.listings[0], nil
}

func (s *scriptedSource) SearchBooks(ctx context.Context, query string, maxResults int) ([]*models.ScrapedBookPrice, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if maxResults < len(s.listings) {
		return s.listings[:maxResults], nil
	}
	return s.listings, nil
}

func listing(isbn string, price float64) *models.ScrapedBookPrice {
	return &models.ScrapedBookPrice{
		ISBN:         isbn,
		Title:        "Title " + isbn,
		Author:       "Author",
		Price:        price,
		Availability: models.AvailabilityInStock,
		Condition:    models.ConditionNew,
	}
}

func testOrchestrator(t *testing.T, cooldown time.Duration) (*Orchestrator, *scraper.Registry, *models.Store, *models.Store) {
	t.Helper()

	adapter, db, alpha := testAdapter(t)
	beta := &models.Store{Name: "Beta Media", Code: "beta", BaseURL: "https://beta.example.com", IsActive: true, ScrapingEnabled: true}
	if err := db.Create(beta).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}

	registry := scraper.NewRegistry()
	orchestrator, err := NewOrchestrator(storage.NewStoreRepo(db), adapter, registry, scraper.NewMetrics(), cooldown)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	orchestrator.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return orchestrator, registry, alpha, beta
}

func TestScrapeSearchIsolatesStoreFailures(t *testing.T) {
	orchestrator, registry, alpha, beta := testOrchestrator(t, 0)
	registry.Register(alpha.Code, &scriptedSource{err: errors.New("connection refused")})
	registry.Register(beta.Code, &scriptedSource{listings: []*models.ScrapedBookPrice{
		listing("9781111111111", 15.00),
		listing("9782222222222", 22.00),
	}})

	summary, err := orchestrator.ScrapeSearch(context.Background(), "golang", 10)
	if err != nil {
		t.Fatalf("scrape search: %v", err)
	}
	if len(summary.StoresScraped) != 2 {
		t.Errorf("stores scraped = %v, want both stores visited", summary.StoresScraped)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("errors = %v, want the alpha failure only", summary.Errors)
	}
	if summary.BooksFound != 2 {
		t.Errorf("books found = %d, want 2 from beta", summary.BooksFound)
	}
}

func TestScrapeSearchHonorsMaxResults(t *testing.T) {
	orchestrator, registry, alpha, _ := testOrchestrator(t, 0)
	registry.Register(alpha.Code, &scriptedSource{listings: []*models.ScrapedBookPrice{
		listing("9781111111111", 15.00),
		listing("9782222222222", 22.00),
		listing("9783333333333", 30.00),
	}})

	summary, err := orchestrator.ScrapeSearch(context.Background(), "golang", 2)
	if err != nil {
		t.Fatalf("scrape search: %v", err)
	}
	if summary.BooksFound != 2 {
		t.Errorf("books found = %d, want capped at 2", summary.BooksFound)
	}
}

func TestScrapeISBNCooldownSkipsRepeats(t *testing.T) {
	orchestrator, registry, alpha, _ := testOrchestrator(t, time.Hour)
	source := &scriptedSource{listings: []*models.ScrapedBookPrice{listing("9781111111111", 15.00)}}
	registry.Register(alpha.Code, source)

	if _, err := orchestrator.ScrapeISBN(context.Background(), "9781111111111"); err != nil {
		t.Fatalf("first scrape: %v", err)
	}
	if _, err := orchestrator.ScrapeISBN(context.Background(), "9781111111111"); err != nil {
		t.Fatalf("second scrape: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("source calls = %d, want the repeat short-circuited", source.calls)
	}
}

func TestScrapeISBNSkipsStoresWithoutSources(t *testing.T) {
	orchestrator, registry, alpha, _ := testOrchestrator(t, 0)
	source := &scriptedSource{listings: []*models.ScrapedBookPrice{listing("9781111111111", 15.00)}}
	registry.Register(alpha.Code, source)
	// beta has no registered source

	summary, err := orchestrator.ScrapeISBN(context.Background(), "9781111111111")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(summary.StoresScraped) != 1 || summary.StoresScraped[0] != "Alpha Books" {
		t.Errorf("stores scraped = %v, want only alpha", summary.StoresScraped)
	}
	if len(summary.Errors) != 0 {
		t.Errorf("errors = %v, want none", summary.Errors)
	}
}
