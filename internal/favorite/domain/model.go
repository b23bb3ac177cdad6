package domain

import (
	"context"
	"errors"
	"time"
)

// Favorite bookmarks a product for a user. One row per (user, product)
// pair.
type Favorite struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_favorite_user_product"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:idx_favorite_user_product;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Favorite) TableName() string {
	return "favorites"
}

type ToggleResult struct {
	Added bool `json:"added"`
}

type Service interface {
	Toggle(ctx context.Context, productID string) (*ToggleResult, error)
	ListMine(ctx context.Context) ([]Response, error)
}

type Response struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Price       int64     `json:"price"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrInvalidID    = errors.New("invalid_product_id")
	ErrNotFound     = errors.New("product_not_found")
)
