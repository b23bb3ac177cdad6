package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/notification/domain"
	"github.com/manosdelsur/feria/pkg/db/option"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, n *domain.Notification) error
	CreateBatch(ctx context.Context, db *gorm.DB, ns []domain.Notification) error
	ListByRecipient(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, opts ...option.QueryOption) ([]domain.Notification, error)
	MarkAllRead(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) (int64, error)
	CountUnread(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) (int64, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	return db.WithContext(ctx).Create(n).Error
}

func (r *repo) CreateBatch(ctx context.Context, db *gorm.DB, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(ns, 100).Error
}

func (r *repo) ListByRecipient(ctx context.Context, db *gorm.DB, recipientID snowflake.ID, opts ...option.QueryOption) ([]domain.Notification, error) {
	query := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ?", recipientID.Int64()).
		Order("created_at DESC")

	for _, opt := range opts {
		query = opt.Apply(query)
	}

	var items []domain.Notification
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkAllRead(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID.Int64(), false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *repo) CountUnread(ctx context.Context, db *gorm.DB, recipientID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID.Int64(), false).
		Count(&count).Error
	return count, err
}
