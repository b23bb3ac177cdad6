package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/lifecycle"
	"github.com/manosdelsur/feria/internal/review/domain"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, review *domain.Review) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Review, error)
	FindByProductAndAuthor(ctx context.Context, db *gorm.DB, productID, authorID snowflake.ID) (*domain.Review, error)
	Update(ctx context.Context, db *gorm.DB, review *domain.Review) error
	ListActiveByProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]domain.Review, error)
	RatingAggregate(ctx context.Context, db *gorm.DB, productID snowflake.ID, includePending bool) (sum int64, count int64, err error)

	CreateStoreReview(ctx context.Context, db *gorm.DB, review *domain.StoreReview) error
	FindStoreReview(ctx context.Context, db *gorm.DB, storeID, authorID snowflake.ID) (*domain.StoreReview, error)
	ListByStore(ctx context.Context, db *gorm.DB, storeID snowflake.ID) ([]domain.StoreReview, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, review *domain.Review) error {
	return db.WithContext(ctx).Create(review).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Review, error) {
	var review domain.Review
	if err := db.WithContext(ctx).First(&review, "id = ?", id.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *repo) FindByProductAndAuthor(ctx context.Context, db *gorm.DB, productID, authorID snowflake.ID) (*domain.Review, error) {
	var review domain.Review
	err := db.WithContext(ctx).
		First(&review, "product_id = ? AND author_id = ?", productID.Int64(), authorID.Int64()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, review *domain.Review) error {
	return db.WithContext(ctx).Save(review).Error
}

func (r *repo) ListActiveByProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]domain.Review, error) {
	var items []domain.Review
	err := db.WithContext(ctx).
		Where("product_id = ? AND lifecycle = ?", productID.Int64(), lifecycle.Active).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RatingAggregate sums counted ratings in one query. includePending widens
// the filter to reviews awaiting moderation.
func (r *repo) RatingAggregate(ctx context.Context, db *gorm.DB, productID snowflake.ID, includePending bool) (int64, int64, error) {
	query := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("product_id = ? AND lifecycle = ?", productID.Int64(), lifecycle.Active)
	if !includePending {
		query = query.Where("approved = ?", true)
	}

	var agg struct {
		Sum   int64
		Count int64
	}
	err := query.
		Select("COALESCE(SUM(rating), 0) AS sum, COUNT(*) AS count").
		Scan(&agg).Error
	if err != nil {
		return 0, 0, err
	}
	return agg.Sum, agg.Count, nil
}

func (r *repo) CreateStoreReview(ctx context.Context, db *gorm.DB, review *domain.StoreReview) error {
	return db.WithContext(ctx).Create(review).Error
}

func (r *repo) FindStoreReview(ctx context.Context, db *gorm.DB, storeID, authorID snowflake.ID) (*domain.StoreReview, error) {
	var review domain.StoreReview
	err := db.WithContext(ctx).
		First(&review, "store_id = ? AND author_id = ?", storeID.Int64(), authorID.Int64()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *repo) ListByStore(ctx context.Context, db *gorm.DB, storeID snowflake.ID) ([]domain.StoreReview, error) {
	var items []domain.StoreReview
	err := db.WithContext(ctx).
		Where("store_id = ?", storeID.Int64()).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
