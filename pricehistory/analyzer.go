// Package pricehistory serves historical price queries and summary
// statistics (volatility, linear trend) over a book's observations.
package pricehistory

import (
	"context"
	"math"
	"time"

	"bookflipfinder/storage"
)

const (
	// DefaultLimit bounds a history query when the caller does not.
	DefaultLimit = 1000
	// MaxLimit is the hard cap on history points per response.
	MaxLimit = 5000

	// trendEpsilon separates a real slope from noise around zero.
	trendEpsilon = 0.01
)

// Point is one observation in a history response.
type Point struct {
	Retailer      string    `json:"retailer"`
	Timestamp     time.Time `json:"timestamp"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty"`
	Availability  string    `json:"availability"`
	Condition     string    `json:"condition"`
}

// DateRange bounds the returned points. Nil when there are none.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Result is a history response. An existing book with no matching
// observations yields TotalPoints == 0, not an error.
type Result struct {
	BookID      uint      `json:"book_id"`
	BookTitle   string    `json:"book_title"`
	BookISBN    string    `json:"book_isbn"`
	TotalPoints int       `json:"total_points"`
	DateRange   DateRange `json:"date_range"`
	History     []Point   `json:"history"`
}

// Statistics summarizes recent active prices for a book.
type Statistics struct {
	PeriodDays     int     `json:"period_days"`
	DataPoints     int     `json:"data_points"`
	AveragePrice   float64 `json:"average_price"`
	MinPrice       float64 `json:"min_price"`
	MaxPrice       float64 `json:"max_price"`
	PriceRange     float64 `json:"price_range"`
	Volatility     float64 `json:"volatility"`
	TrendSlope     float64 `json:"trend_slope"`
	TrendDirection string  `json:"trend_direction"`
}

// Analyzer answers history and statistics queries. Read-only.
type Analyzer struct {
	books  storage.BookRepo
	prices storage.PriceRepo

	now func() time.Time
}

// NewAnalyzer builds an analyzer over the given repositories.
func NewAnalyzer(books storage.BookRepo, prices storage.PriceRepo) *Analyzer {
	return &Analyzer{
		books:  books,
		prices: prices,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// History returns a book's observations newest-first, filtered by
// retailer name substring and inclusive timestamp bounds. It returns
// NotFoundError only when the book itself does not exist.
func (a *Analyzer) History(ctx context.Context, bookID uint, filter storage.HistoryFilter) (*Result, error) {
	book, err := a.books.GetByID(ctx, nil, bookID)
	if err != nil {
		return nil, err
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}

	rows, err := a.prices.History(ctx, nil, bookID, filter)
	if err != nil {
		return nil, err
	}

	result := &Result{
		BookID:    book.ID,
		BookTitle: book.Title,
		BookISBN:  book.ISBN,
		History:   make([]Point, 0, len(rows)),
	}
	for _, row := range rows {
		result.History = append(result.History, Point{
			Retailer:      row.Store.Name,
			Timestamp:     row.LastUpdated,
			Price:         row.Price,
			OriginalPrice: row.OriginalPrice,
			Availability:  row.Availability,
			Condition:     row.Condition,
		})
	}
	result.TotalPoints = len(result.History)

	if len(result.History) > 0 {
		start, end := result.History[0].Timestamp, result.History[0].Timestamp
		for _, point := range result.History[1:] {
			if point.Timestamp.Before(start) {
				start = point.Timestamp
			}
			if point.Timestamp.After(end) {
				end = point.Timestamp
			}
		}
		result.DateRange = DateRange{Start: &start, End: &end}
	}
	return result, nil
}

// Statistics analyzes active observations from the last windowDays
// days. It returns (nil, nil) when no observations match; the window
// being empty is not an error.
func (a *Analyzer) Statistics(ctx context.Context, bookID uint, windowDays int) (*Statistics, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	cutoff := a.now().AddDate(0, 0, -windowDays)

	rows, err := a.prices.ActiveSince(ctx, nil, bookID, cutoff)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = row.Price
	}

	mean := meanOf(values)
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	slope := olsSlope(values, mean)

	direction := "stable"
	switch {
	case slope > trendEpsilon:
		direction = "increasing"
	case slope < -trendEpsilon:
		direction = "decreasing"
	}

	return &Statistics{
		PeriodDays:     windowDays,
		DataPoints:     len(values),
		AveragePrice:   roundTo(mean, 2),
		MinPrice:       min,
		MaxPrice:       max,
		PriceRange:     roundTo(max-min, 2),
		Volatility:     roundTo(stddevOf(values, mean), 2),
		TrendSlope:     roundTo(slope, 4),
		TrendDirection: direction,
	}, nil
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddevOf is the population standard deviation around mean.
func stddevOf(values []float64, mean float64) float64 {
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// olsSlope is the least-squares slope of values against their 0-based
// index. A single point has no slope.
func olsSlope(values []float64, mean float64) float64 {
	n := len(values)
	xMean := float64(n-1) / 2

	numerator, denominator := 0.0, 0.0
	for i, v := range values {
		dx := float64(i) - xMean
		numerator += dx * (v - mean)
		denominator += dx * dx
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
