package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/follow/domain"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, userID, storeID snowflake.ID) (*domain.StoreFollow, error)
	Create(ctx context.Context, db *gorm.DB, follow *domain.StoreFollow) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.StoreFollow, error)
	FollowerIDs(ctx context.Context, db *gorm.DB, storeID snowflake.ID) ([]int64, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID, storeID snowflake.ID) (*domain.StoreFollow, error) {
	var follow domain.StoreFollow
	err := db.WithContext(ctx).
		First(&follow, "user_id = ? AND store_id = ?", userID.Int64(), storeID.Int64()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &follow, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, follow *domain.StoreFollow) error {
	return db.WithContext(ctx).Create(follow).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Delete(&domain.StoreFollow{}, "id = ?", id).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.StoreFollow, error) {
	var items []domain.StoreFollow
	err := db.WithContext(ctx).
		Where("user_id = ?", userID.Int64()).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FollowerIDs returns every user following the store, for notification
// fan-out.
func (r *repo) FollowerIDs(ctx context.Context, db *gorm.DB, storeID snowflake.ID) ([]int64, error) {
	var ids []int64
	err := db.WithContext(ctx).
		Model(&domain.StoreFollow{}).
		Where("store_id = ?", storeID.Int64()).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
