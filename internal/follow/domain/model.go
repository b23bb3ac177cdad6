package domain

import (
	"context"
	"errors"
	"time"
)

// StoreFollow subscribes a user to a store's activity. One row per
// (user, store) pair.
type StoreFollow struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_follow_user_store"`
	StoreID   int64     `gorm:"column:store_id;not null;uniqueIndex:idx_follow_user_store;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (StoreFollow) TableName() string {
	return "store_follows"
}

type ToggleResult struct {
	Following bool `json:"following"`
}

type Service interface {
	Toggle(ctx context.Context, storeID string) (*ToggleResult, error)
	ListMine(ctx context.Context) ([]Response, error)
}

type Response struct {
	StoreID   string    `json:"store_id"`
	StoreName string    `json:"store_name"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrInvalidID    = errors.New("invalid_store_id")
	ErrNotFound     = errors.New("store_not_found")
)
