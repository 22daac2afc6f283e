package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookflipfinder/models"
)

// BookFilter narrows List results.
type BookFilter struct {
	Category string
	Author   string
	Limit    int
	Offset   int
}

// BookRepo provides access to book rows. A nil tx falls back to the
// repo's own connection; passing the adapter's transaction keeps an
// ingest write atomic.
type BookRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Book, error)
	GetByISBN(ctx context.Context, tx *gorm.DB, isbn string) (*models.Book, error)
	List(ctx context.Context, tx *gorm.DB, filter BookFilter) ([]*models.Book, error)
	Create(ctx context.Context, tx *gorm.DB, book *models.Book) error
	Update(ctx context.Context, tx *gorm.DB, book *models.Book) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type bookRepo struct {
	db *gorm.DB
}

// NewBookRepo builds a BookRepo over db.
func NewBookRepo(db *gorm.DB) BookRepo {
	return &bookRepo{db: db}
}

func (r *bookRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *bookRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Book, error) {
	var book models.Book
	err := r.conn(tx).WithContext(ctx).First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NotFoundError{Entity: "book", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) GetByISBN(ctx context.Context, tx *gorm.DB, isbn string) (*models.Book, error) {
	var book models.Book
	err := r.conn(tx).WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NotFoundError{Entity: "book", ID: isbn}
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) List(ctx context.Context, tx *gorm.DB, filter BookFilter) ([]*models.Book, error) {
	query := r.conn(tx).WithContext(ctx).Model(&models.Book{}).Order("id")
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Author != "" {
		query = query.Where("author = ?", filter.Author)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var books []*models.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepo) Create(ctx context.Context, tx *gorm.DB, book *models.Book) error {
	err := r.conn(tx).WithContext(ctx).Create(book).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.ConflictError{Entity: "book", Reason: "isbn already exists"}
	}
	return err
}

func (r *bookRepo) Update(ctx context.Context, tx *gorm.DB, book *models.Book) error {
	return r.conn(tx).WithContext(ctx).Save(book).Error
}

func (r *bookRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := r.conn(tx).WithContext(ctx).Delete(&models.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NotFoundError{Entity: "book", ID: id}
	}
	return nil
}
