package scraper

import (
	"context"
	"testing"

	"bookflipfinder/models"
)

func TestMockSourceIsDeterministic(t *testing.T) {
	source := NewMockSource("alpha")
	ctx := context.Background()

	first, err := source.ScrapeISBN(ctx, "9781491941959")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	second, err := source.ScrapeISBN(ctx, "9781491941959")
	if err != nil {
		t.Fatalf("scrape again: %v", err)
	}

	if first.Price != second.Price || first.Publisher != second.Publisher || first.ShippingCost != second.ShippingCost {
		t.Fatalf("repeat scrapes disagree: %+v vs %+v", first, second)
	}
	if first.Price < 10 || first.Price >= 50 {
		t.Errorf("price = %v, want within the synthetic range", first.Price)
	}
	if first.OriginalPrice == nil || *first.OriginalPrice <= first.Price {
		t.Errorf("original price = %v, want above price %v", first.OriginalPrice, first.Price)
	}
	if !models.ValidAvailability(first.Availability) {
		t.Errorf("availability = %q is not canonical", first.Availability)
	}
}

func TestMockSourceVariesAcrossStores(t *testing.T) {
	ctx := context.Background()
	alpha, _ := NewMockSource("alpha").ScrapeISBN(ctx, "9781491941959")
	beta, _ := NewMockSource("beta").ScrapeISBN(ctx, "9781491941959")

	if alpha.Price == beta.Price && alpha.ShippingCost == beta.ShippingCost && alpha.Publisher == beta.Publisher {
		t.Fatal("different stores produced identical listings")
	}
}

func TestMockSourceSearchCapsResults(t *testing.T) {
	ctx := context.Background()
	source := NewMockSource("alpha")

	results, err := source.SearchBooks(ctx, "golang", 25)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("results = %d, want capped at 10", len(results))
	}

	seen := make(map[string]bool)
	for _, listing := range results {
		if len(listing.ISBN) != 13 {
			t.Errorf("isbn %q is not 13 characters", listing.ISBN)
		}
		seen[listing.ISBN] = true
	}
	if len(seen) < 2 {
		t.Error("search results share a single isbn")
	}
}

func TestMockSourceRejectsEmptyISBN(t *testing.T) {
	if _, err := NewMockSource("alpha").ScrapeISBN(context.Background(), ""); !models.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}
