// Package arbitrage computes buy/sell signals from active price
// observations. It is a pure reader over the repository layer.
package arbitrage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bookflipfinder/models"
	"bookflipfinder/storage"
)

// Default thresholds for flagging an opportunity: at least $5 of spread
// and at least a 20% margin over the buy price.
var (
	DefaultMinProfit = decimal.NewFromInt(5)
	DefaultMinMargin = 0.20
)

func init() {
	// Money fields marshal as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// PriceEntry is one active observation in a comparison, joined with its
// store.
type PriceEntry struct {
	ID            uint      `json:"id"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty"`
	Currency      string    `json:"currency"`
	Availability  string    `json:"availability"`
	Condition     string    `json:"condition"`
	ShippingCost  float64   `json:"shipping_cost"`
	TotalCost     float64   `json:"total_cost"`
	URL           string    `json:"url,omitempty"`
	StoreName     string    `json:"store_name"`
	StoreCode     string    `json:"store_code"`
	LastUpdated   time.Time `json:"last_updated"`
	IsActive      bool      `json:"is_active"`
}

// Comparison is the cross-store price picture for one book.
type Comparison struct {
	BookID               uint            `json:"book_id"`
	BookTitle            string          `json:"book_title"`
	BookISBN             string          `json:"book_isbn"`
	Prices               []PriceEntry    `json:"prices"`
	LowestPrice          decimal.Decimal `json:"lowest_price"`
	HighestPrice         decimal.Decimal `json:"highest_price"`
	PriceSpread          decimal.Decimal `json:"price_spread"`
	PotentialProfit      decimal.Decimal `json:"potential_profit"`
	ProfitMargin         float64         `json:"profit_margin"`
	BestBuyStore         string          `json:"best_buy_store"`
	BestSellStore        string          `json:"best_sell_store"`
	ArbitrageOpportunity bool            `json:"arbitrage_opportunity"`
}

// Opportunity is one book whose spread clears the requested thresholds.
type Opportunity struct {
	BookID       uint            `json:"book_id"`
	BookTitle    string          `json:"book_title"`
	BookAuthor   string          `json:"book_author"`
	BookISBN     string          `json:"book_isbn"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	Profit       decimal.Decimal `json:"profit"`
	ProfitMargin float64         `json:"profit_margin"`
	BuyStore     string          `json:"buy_store"`
	SellStore    string          `json:"sell_store"`
	BuyURL       string          `json:"buy_url,omitempty"`
	SellURL      string          `json:"sell_url,omitempty"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// Engine evaluates arbitrage over the price store. Read-only.
type Engine struct {
	books  storage.BookRepo
	prices storage.PriceRepo
}

// NewEngine builds an engine over the given repositories.
func NewEngine(books storage.BookRepo, prices storage.PriceRepo) *Engine {
	return &Engine{books: books, prices: prices}
}

// ComparePrices computes the cross-store comparison for one book. It
// returns NotFoundError when the book does not exist or has no active
// prices. Among equal prices the earliest-created row wins, so the
// result is deterministic across backends.
func (e *Engine) ComparePrices(ctx context.Context, bookID uint) (*Comparison, error) {
	book, err := e.books.GetByID(ctx, nil, bookID)
	if err != nil {
		return nil, err
	}

	rows, err := e.prices.ActiveByBook(ctx, nil, bookID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NotFoundError{Entity: "prices for book", ID: bookID}
	}

	lowest, highest := rows[0], rows[0]
	for _, row := range rows[1:] {
		if row.Price < lowest.Price {
			lowest = row
		}
		if row.Price > highest.Price {
			highest = row
		}
	}

	low := decimal.NewFromFloat(lowest.Price)
	high := decimal.NewFromFloat(highest.Price)
	spread := high.Sub(low)
	margin := 0.0
	if low.IsPositive() {
		margin, _ = spread.Div(low).Float64()
	}

	entries := make([]PriceEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, newPriceEntry(row))
	}

	return &Comparison{
		BookID:               book.ID,
		BookTitle:            book.Title,
		BookISBN:             book.ISBN,
		Prices:               entries,
		LowestPrice:          low,
		HighestPrice:         high,
		PriceSpread:          spread,
		PotentialProfit:      spread,
		ProfitMargin:         margin,
		BestBuyStore:         lowest.Store.Name,
		BestSellStore:        highest.Store.Name,
		ArbitrageOpportunity: spread.GreaterThanOrEqual(DefaultMinProfit) && margin >= DefaultMinMargin,
	}, nil
}

// FindOpportunities scans the catalog for books whose active price
// spread clears both thresholds. Results keep discovery order (book id
// ascending) and are truncated to limit. Zero arguments fall back to
// the defaults.
func (e *Engine) FindOpportunities(ctx context.Context, minProfit, minMargin float64, limit int) ([]Opportunity, error) {
	if minProfit <= 0 {
		minProfit, _ = DefaultMinProfit.Float64()
	}
	if minMargin <= 0 {
		minMargin = DefaultMinMargin
	}
	if limit <= 0 {
		limit = 50
	}

	candidates, err := e.prices.SpreadCandidates(ctx, nil, minProfit, limit*2)
	if err != nil {
		return nil, err
	}

	opportunities := make([]Opportunity, 0, limit)
	for _, candidate := range candidates {
		buy := decimal.NewFromFloat(candidate.MinPrice)
		sell := decimal.NewFromFloat(candidate.MaxPrice)
		profit := sell.Sub(buy)

		margin := 0.0
		if buy.IsPositive() {
			margin, _ = profit.Div(buy).Float64()
		}
		if profit.LessThan(decimal.NewFromFloat(minProfit)) || margin < minMargin {
			continue
		}

		buyRow, err := e.prices.ActiveAtPrice(ctx, nil, candidate.BookID, candidate.MinPrice)
		if err != nil {
			return nil, err
		}
		sellRow, err := e.prices.ActiveAtPrice(ctx, nil, candidate.BookID, candidate.MaxPrice)
		if err != nil {
			return nil, err
		}
		if buyRow == nil || sellRow == nil {
			continue
		}

		book, err := e.books.GetByID(ctx, nil, candidate.BookID)
		if err != nil {
			if models.IsNotFound(err) {
				continue
			}
			return nil, err
		}

		lastUpdated := buyRow.LastUpdated
		if sellRow.LastUpdated.After(lastUpdated) {
			lastUpdated = sellRow.LastUpdated
		}

		opportunities = append(opportunities, Opportunity{
			BookID:       book.ID,
			BookTitle:    book.Title,
			BookAuthor:   book.Author,
			BookISBN:     book.ISBN,
			BuyPrice:     buy,
			SellPrice:    sell,
			Profit:       profit,
			ProfitMargin: margin,
			BuyStore:     buyRow.Store.Name,
			SellStore:    sellRow.Store.Name,
			BuyURL:       buyRow.URL,
			SellURL:      sellRow.URL,
			LastUpdated:  lastUpdated,
		})
		if len(opportunities) >= limit {
			break
		}
	}
	return opportunities, nil
}

func newPriceEntry(row *models.Price) PriceEntry {
	return PriceEntry{
		ID:            row.ID,
		Price:         row.Price,
		OriginalPrice: row.OriginalPrice,
		Currency:      row.Currency,
		Availability:  row.Availability,
		Condition:     row.Condition,
		ShippingCost:  row.ShippingCost,
		TotalCost:     row.TotalCost,
		URL:           row.URL,
		StoreName:     row.Store.Name,
		StoreCode:     row.Store.Code,
		LastUpdated:   row.LastUpdated,
		IsActive:      row.IsActive,
	}
}
