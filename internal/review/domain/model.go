package domain

import (
	"errors"
	"time"

	"github.com/manosdelsur/feria/internal/lifecycle"
)

// Review is a buyer's rating of a purchased product. One per (product,
// author). New reviews are visible immediately but count toward the
// product rating only once approved, unless the marketplace policy says
// otherwise.
type Review struct {
	ID          int64               `gorm:"column:id;primaryKey"`
	ProductID   int64               `gorm:"column:product_id;not null;uniqueIndex:idx_review_product_author"`
	AuthorID    int64               `gorm:"column:author_id;not null;uniqueIndex:idx_review_product_author"`
	Rating      int                 `gorm:"column:rating;not null"`
	Comment     string              `gorm:"column:comment"`
	Lifecycle   lifecycle.Lifecycle `gorm:"column:lifecycle;size:16;not null;default:'ACTIVE'"`
	Approved    bool                `gorm:"column:approved;not null;default:false"`
	Response    *string             `gorm:"column:response"`
	RespondedAt *time.Time          `gorm:"column:responded_at"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Review) TableName() string {
	return "reviews"
}

// StoreReview rates a store as a whole. One per (store, author).
type StoreReview struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	StoreID   int64     `gorm:"column:store_id;not null;uniqueIndex:idx_store_review_store_author"`
	AuthorID  int64     `gorm:"column:author_id;not null;uniqueIndex:idx_store_review_store_author"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   string    `gorm:"column:comment"`
	Approved  bool      `gorm:"column:approved;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (StoreReview) TableName() string {
	return "store_reviews"
}

var (
	ErrInvalidActor     = errors.New("invalid_actor")
	ErrInvalidID        = errors.New("invalid_review_id")
	ErrInvalidRating    = errors.New("invalid_rating")
	ErrSelfReview       = errors.New("self_review")
	ErrDuplicateReview  = errors.New("duplicate_review")
	ErrNotFound         = errors.New("review_not_found")
	ErrNotReviewedStore = errors.New("not_review_store_owner")
	ErrAlreadyResponded = errors.New("already_responded")
	ErrEmptyResponse    = errors.New("empty_response")
)
