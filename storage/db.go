// Package storage owns the relational store: connection setup,
// migrations, seed data, and the repository layer every other package
// reads and writes through.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookflipfinder/config"
	"bookflipfinder/models"
)

// Open connects to postgres when a DSN is configured and falls back to
// a local sqlite file otherwise.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		// Duplicate-key violations must surface as gorm.ErrDuplicatedKey
		// for the repositories' conflict mapping.
		TranslateError: true,
	}

	if cfg.DatabaseDSN != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}
	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Book{},
		&models.Store{},
		&models.Price{},
		&models.AlertPreference{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedStores inserts the initial store rows if the table is empty.
func SeedStores(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Store{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count stores: %w", err)
	}
	if count > 0 {
		return nil
	}

	stores := []*models.Store{
		{
			Name:              "Amazon US",
			Code:              "amazon",
			BaseURL:           "https://www.amazon.com",
			SearchURLTemplate: "https://www.amazon.com/s?k={query}",
			IsActive:          true,
			ScrapingEnabled:   true,
			RateLimitDelay:    1,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			Notes:             "Primary US marketplace for books",
		},
		{
			Name:              "Barnes & Noble",
			Code:              "barnes_noble",
			BaseURL:           "https://www.barnesandnoble.com",
			SearchURLTemplate: "https://www.barnesandnoble.com/s/{query}",
			IsActive:          false,
			ScrapingEnabled:   false,
			RateLimitDelay:    2,
			Notes:             "Major US bookstore chain - future implementation",
		},
	}
	if err := db.Create(&stores).Error; err != nil {
		return fmt.Errorf("seed stores: %w", err)
	}
	slog.Info("seeded store reference data", slog.Int("stores", len(stores)))
	return nil
}
