package domain

import (
	"errors"
	"time"
)

// Status is the order lifecycle state. PENDING is the only non-terminal
// state; every transition out of it is final.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s.Valid() && s != StatusPending
}

// Order records a purchase of a single product. Price fields snapshot the
// product at placement time so later edits never rewrite order history.
type Order struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	Reference  string    `gorm:"column:reference;size:26;not null;uniqueIndex"`
	BuyerID    int64     `gorm:"column:buyer_id;index;not null"`
	ProductID  int64     `gorm:"column:product_id;index;not null"`
	StoreID    int64     `gorm:"column:store_id;index;not null"`
	Quantity   int64     `gorm:"column:quantity;not null;default:1"`
	UnitPrice  int64     `gorm:"column:unit_price;not null"`
	Currency   string    `gorm:"column:currency;size:3;not null"`
	TotalPrice int64     `gorm:"column:total_price;not null"`
	Status     Status    `gorm:"column:status;size:16;not null;default:'PENDING'"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

var (
	ErrInvalidActor       = errors.New("invalid_actor")
	ErrInvalidID          = errors.New("invalid_order_id")
	ErrInvalidStatus      = errors.New("invalid_order_status")
	ErrInvalidTransition  = errors.New("invalid_order_transition")
	ErrNotFound           = errors.New("order_not_found")
	ErrNotOrderOwner      = errors.New("not_order_owner")
	ErrPermissionDenied   = errors.New("order_permission_denied")
	ErrSelfPurchase       = errors.New("self_purchase")
	ErrOutOfStock         = errors.New("out_of_stock")
	ErrProductUnavailable = errors.New("product_unavailable")
	ErrReceiptUnavailable = errors.New("receipt_unavailable")
)
