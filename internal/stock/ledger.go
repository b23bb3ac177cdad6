// Package stock owns every mutation of product stock counts. All writes go
// through guarded UPDATE statements so a count can never drop below zero,
// whatever the isolation level of the surrounding transaction.
package stock

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/product/domain"
)

type Ledger struct {
	log *zap.Logger
}

func NewLedger(log *zap.Logger) *Ledger {
	return &Ledger{log: log.Named("stock.ledger")}
}

var Module = fx.Module("stock", fx.Provide(NewLedger))

// Decrement subtracts qty units from the product's stock inside the given
// transaction. The WHERE guard makes the write a no-op when fewer than qty
// units remain, which surfaces as ErrInsufficientStock.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, productID snowflake.ID, qty int64) error {
	if qty <= 0 {
		return domain.ErrInvalidStock
	}

	res := tx.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", productID.Int64(), qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// Increment returns qty units to the product's stock, used when an order is
// cancelled or rejected.
func (l *Ledger) Increment(ctx context.Context, tx *gorm.DB, productID snowflake.ID, qty int64) error {
	if qty <= 0 {
		return domain.ErrInvalidStock
	}

	res := tx.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", productID.Int64()).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
