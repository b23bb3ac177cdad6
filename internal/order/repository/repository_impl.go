package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/manosdelsur/feria/internal/order/domain"
	"github.com/manosdelsur/feria/pkg/db/option"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, order *domain.Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error)
	Update(ctx context.Context, db *gorm.DB, order *domain.Order) error
	ListByBuyer(ctx context.Context, db *gorm.DB, buyerID snowflake.ID, opts ...option.QueryOption) ([]domain.Order, error)
	ListByStore(ctx context.Context, db *gorm.DB, storeID snowflake.ID, opts ...option.QueryOption) ([]domain.Order, error)
	CountByProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID) (int64, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	if err := db.WithContext(ctx).First(&order, "id = ?", id.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row so concurrent transitions serialize.
// Callers must already be inside db.Transaction.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&order, "id = ?", id.Int64()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Save(order).Error
}

func (r *repo) ListByBuyer(ctx context.Context, db *gorm.DB, buyerID snowflake.ID, opts ...option.QueryOption) ([]domain.Order, error) {
	return r.list(ctx, db, "buyer_id = ?", buyerID.Int64(), opts)
}

func (r *repo) ListByStore(ctx context.Context, db *gorm.DB, storeID snowflake.ID, opts ...option.QueryOption) ([]domain.Order, error) {
	return r.list(ctx, db, "store_id = ?", storeID.Int64(), opts)
}

func (r *repo) list(ctx context.Context, db *gorm.DB, cond string, arg int64, opts []option.QueryOption) ([]domain.Order, error) {
	query := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where(cond, arg).
		Order("created_at DESC")

	for _, opt := range opts {
		query = opt.Apply(query)
	}

	var items []domain.Order
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountByProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("product_id = ?", productID.Int64()).
		Count(&count).Error
	return count, err
}
