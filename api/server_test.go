package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bookflipfinder/arbitrage"
	"bookflipfinder/config"
	"bookflipfinder/ingest"
	"bookflipfinder/models"
	"bookflipfinder/pricehistory"
	"bookflipfinder/sched"
	"bookflipfinder/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	isbns   chan string
	queries chan string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{isbns: make(chan string, 8), queries: make(chan string, 8)}
}

func (f *fakeRunner) ScrapeISBN(ctx context.Context, isbn string) (*ingest.Summary, error) {
	f.isbns <- isbn
	return &ingest.Summary{ISBN: isbn}, nil
}

func (f *fakeRunner) ScrapeSearch(ctx context.Context, query string, maxResults int) (*ingest.Summary, error) {
	f.queries <- query
	return &ingest.Summary{Query: query}, nil
}

type fakeScheduler struct {
	status sched.Status
}

func (f *fakeScheduler) Status() sched.Status {
	return f.status
}

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB, *fakeRunner) {
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

	books := storage.NewBookRepo(db)
	prices := storage.NewPriceRepo(db)
	stores := storage.NewStoreRepo(db)
	alerts := storage.NewAlertRepo(db)
	runner := newFakeRunner()
	scheduler := &fakeScheduler{status: sched.Status{State: "running", Jobs: []sched.JobStatus{{ID: 1, Name: "catalog-refresh"}}}}

	server := NewServer(cfg, books, prices, stores, alerts,
		arbitrage.NewEngine(books, prices),
		pricehistory.NewAnalyzer(books, prices),
		runner, scheduler)
	return server.Router(), db, runner
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rec)
	envelope, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("response %q has no error envelope", rec.Body.String())
	}
	code, _ := envelope["code"].(string)
	return code
}

func seedBookWithPrices(t *testing.T, db *gorm.DB, low, high float64) *models.Book {
	t.Helper()
	book := &models.Book{ISBN: "9781491941959", Title: "Go in Practice", Author: "Butcher", IsActive: true}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	alpha := &models.Store{Name: "Alpha Books", Code: "alpha", BaseURL: "https://a.example.com", IsActive: true}
	beta := &models.Store{Name: "Beta Media", Code: "beta", BaseURL: "https://b.example.com", IsActive: true}
	if err := db.Create(alpha).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := db.Create(beta).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	now := time.Now().UTC()
	rows := []*models.Price{
		{BookID: book.ID, StoreID: alpha.ID, Price: low, Currency: "USD", Availability: models.AvailabilityInStock, Condition: models.ConditionNew, TotalCost: low, LastUpdated: now, IsActive: true},
		{BookID: book.ID, StoreID: beta.ID, Price: high, Currency: "USD", Availability: models.AvailabilityInStock, Condition: models.ConditionNew, TotalCost: high, LastUpdated: now, IsActive: true},
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed price: %v", err)
		}
	}
	return book
}

func TestHealthz(t *testing.T) {
	router, _, _ := testRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestBookLifecycle(t *testing.T) {
	router, _, _ := testRouter(t)

	created := doJSON(t, router, http.MethodPost, "/books", map[string]any{
		"isbn": "9781491941959", "title": "Go in Practice", "author": "Butcher",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", created.Code, created.Body.String())
	}
	if decode(t, created)["id"].(float64) != 1 {
		t.Fatal("created book did not get id 1")
	}

	dup := doJSON(t, router, http.MethodPost, "/books", map[string]any{
		"isbn": "9781491941959", "title": "Other", "author": "Other",
	})
	if dup.Code != http.StatusConflict || errorCode(t, dup) != "conflict" {
		t.Fatalf("duplicate status = %d code %q, want 409 conflict", dup.Code, errorCode(t, dup))
	}

	missingTitle := doJSON(t, router, http.MethodPost, "/books", map[string]any{
		"isbn": "9781491941960", "author": "X",
	})
	if missingTitle.Code != http.StatusBadRequest {
		t.Fatalf("missing title status = %d, want 400", missingTitle.Code)
	}

	got := doJSON(t, router, http.MethodGet, "/books/1", nil)
	if got.Code != http.StatusOK {
		t.Fatalf("get status = %d", got.Code)
	}

	updated := doJSON(t, router, http.MethodPut, "/books/1", map[string]any{"title": "Go in Practice, 2e"})
	if updated.Code != http.StatusOK {
		t.Fatalf("update status = %d", updated.Code)
	}
	body := decode(t, updated)
	if body["title"] != "Go in Practice, 2e" {
		t.Errorf("title = %v after update", body["title"])
	}
	if body["author"] != "Butcher" {
		t.Errorf("author = %v, want untouched", body["author"])
	}

	deleted := doJSON(t, router, http.MethodDelete, "/books/1", nil)
	if deleted.Code != http.StatusOK {
		t.Fatalf("delete status = %d", deleted.Code)
	}
	gone := doJSON(t, router, http.MethodGet, "/books/1", nil)
	if gone.Code != http.StatusNotFound || errorCode(t, gone) != "not_found" {
		t.Fatalf("get after delete = %d, want 404 not_found", gone.Code)
	}
}

func TestComparePricesEndpoint(t *testing.T) {
	router, db, _ := testRouter(t)
	book := seedBookWithPrices(t, db, 10.00, 15.00)

	rec := doJSON(t, router, http.MethodGet, "/prices/compare/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["book_id"].(float64) != float64(book.ID) {
		t.Errorf("book id = %v, want %d", body["book_id"], book.ID)
	}
	if body["price_spread"].(float64) != 5 {
		t.Errorf("spread = %v, want 5", body["price_spread"])
	}
	if body["arbitrage_opportunity"] != true {
		t.Errorf("opportunity = %v, want true", body["arbitrage_opportunity"])
	}
	if body["best_buy_store"] != "Alpha Books" || body["best_sell_store"] != "Beta Media" {
		t.Errorf("stores = %v/%v", body["best_buy_store"], body["best_sell_store"])
	}
}

func TestComparePricesMissing(t *testing.T) {
	router, _, _ := testRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/prices/compare/7", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestOpportunitiesEndpoint(t *testing.T) {
	router, db, _ := testRouter(t)
	seedBookWithPrices(t, db, 10.00, 18.00)

	rec := doJSON(t, router, http.MethodGet, "/prices/opportunities", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}

	tooBig := doJSON(t, router, http.MethodGet, "/prices/opportunities?limit=500", nil)
	if tooBig.Code != http.StatusBadRequest {
		t.Fatalf("oversized limit status = %d, want 400", tooBig.Code)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	router, db, _ := testRouter(t)
	seedBookWithPrices(t, db, 10.00, 15.00)

	rec := doJSON(t, router, http.MethodGet, "/price-history/statistics/1?days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	empty := doJSON(t, router, http.MethodGet, "/price-history/statistics/99", nil)
	if empty.Code != http.StatusNotFound {
		t.Fatalf("empty window status = %d, want 404", empty.Code)
	}

	badDays := doJSON(t, router, http.MethodGet, "/price-history/statistics/1?days=400", nil)
	if badDays.Code != http.StatusBadRequest {
		t.Fatalf("days=400 status = %d, want 400", badDays.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	router, db, _ := testRouter(t)
	seedBookWithPrices(t, db, 10.00, 15.00)

	rec := doJSON(t, router, http.MethodGet, "/price-history/history/1?retailer=alpha", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["total_points"].(float64) != 1 {
		t.Errorf("total points = %v, want only the alpha row", body["total_points"])
	}

	badDate := doJSON(t, router, http.MethodGet, "/price-history/history/1?start_date=tomorrow", nil)
	if badDate.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", badDate.Code)
	}
}

func TestScrapeEndpoints(t *testing.T) {
	router, _, runner := testRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/scraper/scrape/isbn/9781491941959", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "initiated" || body["job_id"] == "" {
		t.Fatalf("body = %v, want initiated with a job id", body)
	}
	select {
	case isbn := <-runner.isbns:
		if isbn != "9781491941959" {
			t.Errorf("runner got isbn %q", isbn)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner was never invoked")
	}

	short := doJSON(t, router, http.MethodPost, "/scraper/scrape/isbn/123", nil)
	if short.Code != http.StatusBadRequest {
		t.Fatalf("short isbn status = %d, want 400", short.Code)
	}

	search := doJSON(t, router, http.MethodPost, "/scraper/scrape/search/golang", nil)
	if search.Code != http.StatusAccepted {
		t.Fatalf("search status = %d, want 202", search.Code)
	}
	select {
	case query := <-runner.queries:
		if query != "golang" {
			t.Errorf("runner got query %q", query)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner was never invoked for search")
	}
}

func TestAlertPreferenceLifecycle(t *testing.T) {
	router, _, _ := testRouter(t)

	created := doJSON(t, router, http.MethodPost, "/alerts/preferences", map[string]any{
		"user_id": "user-1", "include_retailers": []string{"Alpha Books"},
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", created.Code, created.Body.String())
	}
	body := decode(t, created)
	if body["alert_frequency"] != "daily" {
		t.Errorf("frequency = %v, want daily default", body["alert_frequency"])
	}

	dup := doJSON(t, router, http.MethodPost, "/alerts/preferences", map[string]any{"user_id": "user-1"})
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", dup.Code)
	}

	badFreq := doJSON(t, router, http.MethodPut, "/alerts/preferences/user-1", map[string]any{"alert_frequency": "yearly"})
	if badFreq.Code != http.StatusBadRequest {
		t.Fatalf("bad frequency status = %d, want 400", badFreq.Code)
	}

	updated := doJSON(t, router, http.MethodPut, "/alerts/preferences/user-1", map[string]any{"profit_margin_threshold": 35.0})
	if updated.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", updated.Code, updated.Body.String())
	}
	if decode(t, updated)["profit_margin_threshold"].(float64) != 35 {
		t.Error("threshold not updated")
	}

	deleted := doJSON(t, router, http.MethodDelete, "/alerts/preferences/user-1", nil)
	if deleted.Code != http.StatusOK {
		t.Fatalf("delete status = %d", deleted.Code)
	}
	gone := doJSON(t, router, http.MethodGet, "/alerts/preferences/user-1", nil)
	if gone.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", gone.Code)
	}
}

func TestSchedulerStatusEndpoint(t *testing.T) {
	router, _, _ := testRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/scheduler/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["state"] != "running" {
		t.Errorf("state = %v, want running", body["state"])
	}
}
