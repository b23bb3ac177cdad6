package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Category groups notifications by the event that produced them.
type Category string

const (
	CategoryOrder   Category = "order"
	CategoryReview  Category = "review"
	CategoryFollow  Category = "follow"
	CategoryGeneral Category = "general"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryOrder, CategoryReview, CategoryFollow, CategoryGeneral:
		return true
	default:
		return false
	}
}

// Notification is a persisted in-app message for a single recipient.
type Notification struct {
	ID          int64             `gorm:"column:id;primaryKey"`
	RecipientID int64             `gorm:"column:recipient_id;index;not null"`
	ActorID     *int64            `gorm:"column:actor_id"`
	Category    Category          `gorm:"column:category;size:16;not null;default:'general'"`
	Message     string            `gorm:"column:message;not null"`
	Link        string            `gorm:"column:link"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata"`
	Read        bool              `gorm:"column:is_read;not null;default:false"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

var (
	ErrInvalidActor    = errors.New("invalid_actor")
	ErrInvalidCategory = errors.New("invalid_notification_category")
)
