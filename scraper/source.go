// Package scraper provides the pluggable scrape sources the ingestion
// pipeline pulls observations from, plus the shared error
// classification and metrics for outbound scraping.
package scraper

import (
	"context"

	"bookflipfinder/models"
)

// Source produces price observations from one store. Implementations
// are network-bound and rate-limited by the caller; failures surface as
// classified errors and never abort sibling stores.
type Source interface {
	ScrapeISBN(ctx context.Context, isbn string) (*models.ScrapedBookPrice, error)
	SearchBooks(ctx context.Context, query string, maxResults int) ([]*models.ScrapedBookPrice, error)
}

// Registry maps store codes to their scrape sources.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register binds a source to a store code, replacing any previous one.
func (r *Registry) Register(storeCode string, source Source) {
	r.sources[storeCode] = source
}

// Lookup returns the source for a store code, or nil when the store has
// no scraper implementation.
func (r *Registry) Lookup(storeCode string) Source {
	return r.sources[storeCode]
}
