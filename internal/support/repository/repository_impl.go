package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/support/domain"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, ticket *domain.SupportTicket) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SupportTicket, error)
	Update(ctx context.Context, db *gorm.DB, ticket *domain.SupportTicket) error
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.SupportTicket, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]domain.SupportTicket, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, ticket *domain.SupportTicket) error {
	return db.WithContext(ctx).Create(ticket).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SupportTicket, error) {
	var ticket domain.SupportTicket
	if err := db.WithContext(ctx).First(&ticket, "id = ?", id.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, ticket *domain.SupportTicket) error {
	return db.WithContext(ctx).Save(ticket).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.SupportTicket, error) {
	var items []domain.SupportTicket
	err := db.WithContext(ctx).
		Where("user_id = ?", userID.Int64()).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]domain.SupportTicket, error) {
	var items []domain.SupportTicket
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
