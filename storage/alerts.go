package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookflipfinder/models"
)

// AlertRepo provides access to per-user alert preferences. The unique
// index on user_id enforces one preference row per user.
type AlertRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.AlertPreference, error)
	Create(ctx context.Context, tx *gorm.DB, pref *models.AlertPreference) error
	Update(ctx context.Context, tx *gorm.DB, pref *models.AlertPreference) error
	Delete(ctx context.Context, tx *gorm.DB, userID string) error
}

type alertRepo struct {
	db *gorm.DB
}

// NewAlertRepo builds an AlertRepo over db.
func NewAlertRepo(db *gorm.DB) AlertRepo {
	return &alertRepo{db: db}
}

func (r *alertRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *alertRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.AlertPreference, error) {
	var pref models.AlertPreference
	err := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NotFoundError{Entity: "alert preferences", ID: userID}
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *alertRepo) Create(ctx context.Context, tx *gorm.DB, pref *models.AlertPreference) error {
	conn := r.conn(tx).WithContext(ctx)

	var count int64
	if err := conn.Model(&models.AlertPreference{}).
		Where("user_id = ?", pref.UserID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return models.ConflictError{Entity: "alert preferences", Reason: "already exist for this user"}
	}

	err := conn.Create(pref).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.ConflictError{Entity: "alert preferences", Reason: "already exist for this user"}
	}
	return err
}

func (r *alertRepo) Update(ctx context.Context, tx *gorm.DB, pref *models.AlertPreference) error {
	return r.conn(tx).WithContext(ctx).Save(pref).Error
}

func (r *alertRepo) Delete(ctx context.Context, tx *gorm.DB, userID string) error {
	result := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.AlertPreference{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NotFoundError{Entity: "alert preferences", ID: userID}
	}
	return nil
}
