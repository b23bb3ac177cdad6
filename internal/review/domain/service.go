package domain

import (
	"context"
	"time"
)

type Service interface {
	Submit(ctx context.Context, productID string, req SubmitRequest) (*Response, error)
	ListForProduct(ctx context.Context, productID string) ([]Response, error)
	AverageRating(ctx context.Context, productID string) (*RatingResponse, error)
	Respond(ctx context.Context, reviewID string, req RespondRequest) (*Response, error)
	Approve(ctx context.Context, reviewID string) (*Response, error)
	Hide(ctx context.Context, reviewID string) (*Response, error)

	SubmitStoreReview(ctx context.Context, storeID string, req SubmitRequest) (*StoreReviewResponse, error)
	ListForStore(ctx context.Context, storeID string) ([]StoreReviewResponse, error)
}

type SubmitRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type RespondRequest struct {
	Response string `json:"response"`
}

type Response struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"product_id"`
	AuthorID    string     `json:"author_id"`
	Rating      int        `json:"rating"`
	Comment     string     `json:"comment,omitempty"`
	Lifecycle   string     `json:"lifecycle"`
	Approved    bool       `json:"approved"`
	Response    string     `json:"response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type RatingResponse struct {
	ProductID string  `json:"product_id"`
	Average   float64 `json:"average"`
	Count     int64   `json:"count"`
}

type StoreReviewResponse struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}
