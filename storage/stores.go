package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"bookflipfinder/models"
)

// StoreRepo provides access to store reference data.
type StoreRepo interface {
	ActiveScrapable(ctx context.Context, tx *gorm.DB) ([]*models.Store, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Store, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Store, error)
}

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepo builds a StoreRepo over db.
func NewStoreRepo(db *gorm.DB) StoreRepo {
	return &storeRepo{db: db}
}

func (r *storeRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *storeRepo) ActiveScrapable(ctx context.Context, tx *gorm.DB) ([]*models.Store, error) {
	var stores []*models.Store
	err := r.conn(tx).WithContext(ctx).
		Where("is_active = ? AND scraping_enabled = ?", true, true).
		Order("id").
		Find(&stores).Error
	if err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *storeRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Store, error) {
	var store models.Store
	err := r.conn(tx).WithContext(ctx).Where("code = ?", code).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NotFoundError{Entity: "store", ID: code}
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.Store, error) {
	var stores []*models.Store
	if err := r.conn(tx).WithContext(ctx).Order("id").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// likePattern lowercases s and escapes LIKE wildcards so user input is
// matched literally.
func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
