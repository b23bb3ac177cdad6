package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/favorite/domain"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, userID, productID snowflake.ID) (*domain.Favorite, error)
	Create(ctx context.Context, db *gorm.DB, favorite *domain.Favorite) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.Favorite, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID, productID snowflake.ID) (*domain.Favorite, error) {
	var favorite domain.Favorite
	err := db.WithContext(ctx).
		First(&favorite, "user_id = ? AND product_id = ?", userID.Int64(), productID.Int64()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &favorite, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, favorite *domain.Favorite) error {
	return db.WithContext(ctx).Create(favorite).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Delete(&domain.Favorite{}, "id = ?", id).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.Favorite, error) {
	var items []domain.Favorite
	err := db.WithContext(ctx).
		Where("user_id = ?", userID.Int64()).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
