package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/manosdelsur/feria/internal/lifecycle"
	"github.com/manosdelsur/feria/internal/product/domain"
	"github.com/manosdelsur/feria/pkg/db/option"
)

type ListFilter struct {
	StoreID    snowflake.ID
	CategoryID snowflake.ID
	Search     string
	ActiveOnly bool
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *domain.Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error)
	Update(ctx context.Context, db *gorm.DB, product *domain.Product) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, opts ...option.QueryOption) ([]domain.Product, error)
	FindCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Category, error)
	FindCategoryByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	if err := db.WithContext(ctx).First(&product, "id = ?", id.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate locks the product row for the rest of the transaction.
// Callers must already be inside db.Transaction.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&product, "id = ?", id.Int64()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Save(product).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter ListFilter, opts ...option.QueryOption) ([]domain.Product, error) {
	query := db.WithContext(ctx).Model(&domain.Product{})

	if filter.ActiveOnly {
		query = query.Where("lifecycle = ?", lifecycle.Active)
	}
	if filter.StoreID != 0 {
		query = query.Where("store_id = ?", filter.StoreID.Int64())
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID.Int64())
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	for _, opt := range opts {
		query = opt.Apply(query)
	}

	var items []domain.Product
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Category, error) {
	var category domain.Category
	if err := db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Category, error) {
	var category domain.Category
	if err := db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *repo) CreateCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Create(category).Error
}
