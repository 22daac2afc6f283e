package scraper

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"bookflipfinder/models"
)

// MockSource returns synthetic listings in the shape a real store
// scraper would produce. Payloads are seeded from the input so repeated
// calls for the same ISBN or query agree, which keeps ingestion
// idempotence observable in development.
type MockSource struct {
	StoreCode string
}

// NewMockSource builds a mock source for a store code.
func NewMockSource(storeCode string) *MockSource {
	return &MockSource{StoreCode: storeCode}
}

// ScrapeISBN returns a synthetic listing for the given ISBN.
func (m *MockSource) ScrapeISBN(ctx context.Context, isbn string) (*models.ScrapedBookPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isbn == "" {
		return nil, models.ValidationError{Field: "isbn", Reason: "is required"}
	}
	rng := seededRand(m.StoreCode + "|" + isbn)
	return m.listing(rng, isbn, fmt.Sprintf("Sample Book for ISBN %s", isbn), "Sample Author"), nil
}

// SearchBooks returns up to maxResults synthetic listings for a query.
func (m *MockSource) SearchBooks(ctx context.Context, query string, maxResults int) ([]*models.ScrapedBookPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	count := maxResults
	if count > 10 {
		count = 10
	}

	results := make([]*models.ScrapedBookPrice, 0, count)
	for i := 0; i < count; i++ {
		rng := seededRand(fmt.Sprintf("%s|%s|%d", m.StoreCode, query, i))
		isbn := fmt.Sprintf("978%010d", rng.Int63n(1e10))
		title := fmt.Sprintf("%s Related Book %d", query, i+1)
		author := fmt.Sprintf("Author %d", i+1)
		results = append(results, m.listing(rng, isbn, title, author))
	}
	return results, nil
}

func (m *MockSource) listing(rng *rand.Rand, isbn, title, author string) *models.ScrapedBookPrice {
	publishers := []string{"O'Reilly", "Manning", "Packt", "Apress"}
	availabilities := []string{models.AvailabilityInStock, models.AvailabilityLimited}
	shippingOptions := []float64{0, 3.99, 5.99}

	price := round2(rng.Float64()*40 + 10)
	original := round2(price + rng.Float64()*10 + 5)

	return &models.ScrapedBookPrice{
		ISBN:            isbn,
		Title:           title,
		Author:          author,
		Publisher:       publishers[rng.Intn(len(publishers))],
		PublicationYear: 2018 + rng.Intn(7),
		Category:        "Technology",
		Description:     fmt.Sprintf("Synthetic listing for %s.", title),
		ImageURL:        fmt.Sprintf("https://covers.example.com/%s.jpg", isbn),
		Pages:           200 + rng.Intn(300),
		Price:           price,
		OriginalPrice:   &original,
		Currency:        "USD",
		Availability:    availabilities[rng.Intn(len(availabilities))],
		Condition:       models.ConditionNew,
		ShippingCost:    shippingOptions[rng.Intn(len(shippingOptions))],
		URL:             fmt.Sprintf("https://www.example.com/dp/%s", isbn),
	}
}

func seededRand(key string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(key))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
