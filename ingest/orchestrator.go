package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"bookflipfinder/models"
	"bookflipfinder/scraper"
	"bookflipfinder/storage"
)

const recentCacheSize = 4096

// Summary reports the outcome of one scrape-and-ingest pass across
// stores. Errors are collected per store, never fatal.
type Summary struct {
	ISBN          string   `json:"isbn,omitempty"`
	Query         string   `json:"query,omitempty"`
	StoresScraped []string `json:"stores_scraped"`
	BooksFound    int      `json:"books_found"`
	PricesUpdated int      `json:"prices_updated"`
	Errors        []string `json:"errors"`
}

// Orchestrator drives scraping across all active stores and feeds the
// results through the adapter. It is the only caller of scrape sources.
type Orchestrator struct {
	stores   storage.StoreRepo
	adapter  *Adapter
	registry *scraper.Registry
	metrics  *scraper.Metrics

	// recent short-circuits repeated on-demand ISBN scrapes. Keyed
	// store|isbn, holding the last scrape time.
	recent   *lru.Cache[string, time.Time]
	cooldown time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator builds an orchestrator. cooldown <= 0 disables the
// repeat-scrape cache.
func NewOrchestrator(stores storage.StoreRepo, adapter *Adapter, registry *scraper.Registry, metrics *scraper.Metrics, cooldown time.Duration) (*Orchestrator, error) {
	recent, err := lru.New[string, time.Time](recentCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create recent-scrape cache: %w", err)
	}
	return &Orchestrator{
		stores:   stores,
		adapter:  adapter,
		registry: registry,
		metrics:  metrics,
		recent:   recent,
		cooldown: cooldown,
		sleep:    sleepCtx,
	}, nil
}

// ScrapeISBN scrapes one ISBN across every active store with scraping
// enabled. A failing store is reported in the summary and does not
// abort the others.
func (o *Orchestrator) ScrapeISBN(ctx context.Context, isbn string) (*Summary, error) {
	start := time.Now()
	defer func() { o.metrics.ObserveRun(time.Since(start)) }()

	summary := &Summary{ISBN: isbn, StoresScraped: []string{}, Errors: []string{}}

	stores, err := o.stores.ActiveScrapable(ctx, nil)
	if err != nil {
		return nil, err
	}

	for i, store := range stores {
		source := o.registry.Lookup(store.Code)
		if source == nil {
			continue
		}
		if o.onCooldown(store.Code, isbn) {
			slog.Debug("skipping recently scraped isbn",
				slog.String("store", store.Code),
				slog.String("isbn", isbn),
			)
			continue
		}

		obs, err := source.ScrapeISBN(ctx, isbn)
		if err != nil {
			o.recordFailure(summary, store, err)
		} else if obs != nil {
			o.ingestOne(ctx, summary, store, obs)
			o.markScraped(store.Code, isbn)
		}
		summary.StoresScraped = append(summary.StoresScraped, store.Name)

		if i < len(stores)-1 {
			if err := o.sleep(ctx, store.RateLimit()); err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}

// ScrapeSearch scrapes search results for a query across every active
// store, ingesting up to maxResults listings per store.
func (o *Orchestrator) ScrapeSearch(ctx context.Context, query string, maxResults int) (*Summary, error) {
	start := time.Now()
	defer func() { o.metrics.ObserveRun(time.Since(start)) }()

	summary := &Summary{Query: query, StoresScraped: []string{}, Errors: []string{}}

	stores, err := o.stores.ActiveScrapable(ctx, nil)
	if err != nil {
		return nil, err
	}

	for i, store := range stores {
		source := o.registry.Lookup(store.Code)
		if source == nil {
			continue
		}

		listings, err := source.SearchBooks(ctx, query, maxResults)
		if err != nil {
			o.recordFailure(summary, store, err)
		} else {
			for _, obs := range listings {
				o.ingestOne(ctx, summary, store, obs)
			}
		}
		summary.StoresScraped = append(summary.StoresScraped, store.Name)

		if i < len(stores)-1 {
			if err := o.sleep(ctx, store.RateLimit()); err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}

func (o *Orchestrator) ingestOne(ctx context.Context, summary *Summary, store *models.Store, obs *models.ScrapedBookPrice) {
	_, _, err := o.adapter.Ingest(ctx, store.ID, obs)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", store.Name, err))
		slog.Warn("ingest failed",
			slog.String("store", store.Code),
			slog.String("isbn", obs.ISBN),
			slog.Any("error", err),
		)
		return
	}
	summary.BooksFound++
	summary.PricesUpdated++
}

func (o *Orchestrator) recordFailure(summary *Summary, store *models.Store, err error) {
	summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", store.Name, err))
	slog.Error("store scrape failed",
		slog.String("store", store.Code),
		slog.Any("error", err),
	)
}

func (o *Orchestrator) onCooldown(storeCode, isbn string) bool {
	if o.cooldown <= 0 {
		return false
	}
	last, ok := o.recent.Get(storeCode + "|" + isbn)
	return ok && time.Since(last) < o.cooldown
}

func (o *Orchestrator) markScraped(storeCode, isbn string) {
	if o.cooldown <= 0 {
		return
	}
	o.recent.Add(storeCode+"|"+isbn, time.Now())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
