package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/store/domain"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, store *domain.Store) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Store, error)
	FindByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*domain.Store, error)
	Update(ctx context.Context, db *gorm.DB, store *domain.Store) error
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, store *domain.Store) error {
	return db.WithContext(ctx).Create(store).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Store, error) {
	var store domain.Store
	if err := db.WithContext(ctx).First(&store, "id = ?", id.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (r *repo) FindByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) (*domain.Store, error) {
	var store domain.Store
	if err := db.WithContext(ctx).First(&store, "owner_id = ?", ownerID.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, store *domain.Store) error {
	return db.WithContext(ctx).Save(store).Error
}
