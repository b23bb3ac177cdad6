package domain

import (
	"errors"
	"time"

	"github.com/manosdelsur/feria/internal/lifecycle"
)

// Category is a flat product taxonomy entry. Categories are created on
// demand when a product names one that does not exist yet.
type Category struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Category) TableName() string {
	return "categories"
}

// Product is a published listing. Price is in minor units of Currency;
// Stock counts remaining sellable units and never goes negative.
type Product struct {
	ID          int64               `gorm:"column:id;primaryKey"`
	StoreID     int64               `gorm:"column:store_id;index;not null"`
	CategoryID  *int64              `gorm:"column:category_id;index"`
	Name        string              `gorm:"column:name;not null"`
	Description string              `gorm:"column:description"`
	Price       int64               `gorm:"column:price;not null"`
	Currency    string              `gorm:"column:currency;size:3;not null;default:'CLP'"`
	Stock       int64               `gorm:"column:stock;not null;default:0"`
	Lifecycle   lifecycle.Lifecycle `gorm:"column:lifecycle;size:16;not null;default:'ACTIVE'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

var (
	ErrInvalidActor      = errors.New("invalid_actor")
	ErrInvalidID         = errors.New("invalid_product_id")
	ErrInvalidName       = errors.New("invalid_product_name")
	ErrInvalidPrice      = errors.New("invalid_product_price")
	ErrInvalidStock      = errors.New("invalid_product_stock")
	ErrNoStore           = errors.New("store_required")
	ErrNotFound          = errors.New("product_not_found")
	ErrNotProductOwner   = errors.New("not_product_owner")
	ErrProductHasOrders  = errors.New("product_has_orders")
	ErrInsufficientStock = errors.New("insufficient_stock")
)
