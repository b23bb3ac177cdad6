package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Mine(ctx context.Context) (*Response, error)
	Approve(ctx context.Context, id string) (*Response, error)
}

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type Response struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Lifecycle   string    `json:"lifecycle"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrInvalidID    = errors.New("invalid_store_id")
	ErrInvalidName  = errors.New("invalid_store_name")
	ErrNotArtisan   = errors.New("not_artisan")
	ErrStoreExists  = errors.New("store_exists")
	ErrNotFound     = errors.New("store_not_found")
)
