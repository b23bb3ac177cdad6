package domain

import (
	"context"
	"time"
)

type Service interface {
	Place(ctx context.Context, req PlaceRequest) (*Response, error)
	Cancel(ctx context.Context, id string) (*Response, error)
	SetStatus(ctx context.Context, id string, target Status) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Receipt(ctx context.Context, id string) ([]byte, error)
	ListMine(ctx context.Context) ([]Response, error)
	ListForStore(ctx context.Context) ([]Response, error)
}

type PlaceRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type Response struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	BuyerID    string    `json:"buyer_id"`
	ProductID  string    `json:"product_id"`
	StoreID    string    `json:"store_id"`
	Quantity   int64     `json:"quantity"`
	UnitPrice  int64     `json:"unit_price"`
	Currency   string    `json:"currency"`
	TotalPrice int64     `json:"total_price"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
