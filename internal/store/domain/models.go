package domain

import (
	"time"

	"github.com/manosdelsur/feria/internal/lifecycle"
)

// Store is an artisan's selling entity. One store per artisan.
type Store struct {
	ID          int64               `gorm:"primaryKey"`
	OwnerID     int64               `gorm:"not null;uniqueIndex"`
	Name        string              `gorm:"type:text;not null"`
	Description string              `gorm:"type:text"`
	Location    string              `gorm:"type:text"`
	Lifecycle   lifecycle.Lifecycle `gorm:"type:text;not null;default:'ACTIVE'"`
	Approved    bool                `gorm:"not null;default:false"`
	CreatedAt   time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Store) TableName() string { return "stores" }
