package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"bookflipfinder/models"
)

// SpreadCandidate is a per-book min/max aggregate over active prices.
type SpreadCandidate struct {
	BookID   uint
	MinPrice float64
	MaxPrice float64
}

// HistoryFilter narrows History results. Zero time bounds are open.
type HistoryFilter struct {
	Retailer string
	Start    time.Time
	End      time.Time
	Limit    int
}

// PriceRepo provides access to price observations. Query results are
// ordered by row id where the caller needs deterministic tie-breaks:
// among equal prices the earliest-created row wins.
type PriceRepo interface {
	ActiveByBook(ctx context.Context, tx *gorm.DB, bookID uint) ([]*models.Price, error)
	ActiveRow(ctx context.Context, tx *gorm.DB, bookID, storeID uint, condition string) (*models.Price, error)
	ActiveAtPrice(ctx context.Context, tx *gorm.DB, bookID uint, price float64) (*models.Price, error)
	ActiveSince(ctx context.Context, tx *gorm.DB, bookID uint, cutoff time.Time) ([]*models.Price, error)
	History(ctx context.Context, tx *gorm.DB, bookID uint, filter HistoryFilter) ([]*models.Price, error)
	SpreadCandidates(ctx context.Context, tx *gorm.DB, minProfit float64, scanLimit int) ([]SpreadCandidate, error)
	Create(ctx context.Context, tx *gorm.DB, price *models.Price) error
	Update(ctx context.Context, tx *gorm.DB, price *models.Price) error
}

type priceRepo struct {
	db *gorm.DB
}

// NewPriceRepo builds a PriceRepo over db.
func NewPriceRepo(db *gorm.DB) PriceRepo {
	return &priceRepo{db: db}
}

func (r *priceRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *priceRepo) ActiveByBook(ctx context.Context, tx *gorm.DB, bookID uint) ([]*models.Price, error) {
	var prices []*models.Price
	err := r.conn(tx).WithContext(ctx).
		Preload("Store").
		Where("book_id = ? AND is_active = ?", bookID, true).
		Order("id").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *priceRepo) ActiveRow(ctx context.Context, tx *gorm.DB, bookID, storeID uint, condition string) (*models.Price, error) {
	var price models.Price
	err := r.conn(tx).WithContext(ctx).
		Where("book_id = ? AND store_id = ? AND condition = ? AND is_active = ?",
			bookID, storeID, condition, true).
		Order("id").
		First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *priceRepo) ActiveAtPrice(ctx context.Context, tx *gorm.DB, bookID uint, target float64) (*models.Price, error) {
	var price models.Price
	err := r.conn(tx).WithContext(ctx).
		Preload("Store").
		Where("book_id = ? AND price = ? AND is_active = ?", bookID, target, true).
		Order("id").
		First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *priceRepo) ActiveSince(ctx context.Context, tx *gorm.DB, bookID uint, cutoff time.Time) ([]*models.Price, error) {
	var prices []*models.Price
	err := r.conn(tx).WithContext(ctx).
		Where("book_id = ? AND is_active = ? AND last_updated >= ?", bookID, true, cutoff).
		Order("last_updated ASC, id ASC").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *priceRepo) History(ctx context.Context, tx *gorm.DB, bookID uint, filter HistoryFilter) ([]*models.Price, error) {
	query := r.conn(tx).WithContext(ctx).
		Preload("Store").
		Where("prices.book_id = ?", bookID)

	if filter.Retailer != "" {
		query = query.
			Joins("JOIN stores ON stores.id = prices.store_id").
			Where("LOWER(stores.name) LIKE ? ESCAPE '\\'", "%"+likePattern(filter.Retailer)+"%")
	}
	if !filter.Start.IsZero() {
		query = query.Where("prices.last_updated >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		query = query.Where("prices.last_updated <= ?", filter.End)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var prices []*models.Price
	if err := query.Order("prices.last_updated DESC, prices.id DESC").Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *priceRepo) SpreadCandidates(ctx context.Context, tx *gorm.DB, minProfit float64, scanLimit int) ([]SpreadCandidate, error) {
	query := r.conn(tx).WithContext(ctx).
		Model(&models.Price{}).
		Select("book_id, MIN(price) AS min_price, MAX(price) AS max_price").
		Where("is_active = ?", true).
		Group("book_id").
		Having("MAX(price) - MIN(price) >= ?", minProfit).
		Order("book_id")
	if scanLimit > 0 {
		query = query.Limit(scanLimit)
	}

	var candidates []SpreadCandidate
	if err := query.Scan(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *priceRepo) Create(ctx context.Context, tx *gorm.DB, price *models.Price) error {
	return r.conn(tx).WithContext(ctx).Create(price).Error
}

func (r *priceRepo) Update(ctx context.Context, tx *gorm.DB, price *models.Price) error {
	return r.conn(tx).WithContext(ctx).Save(price).Error
}
