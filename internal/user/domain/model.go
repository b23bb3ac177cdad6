package domain

import (
	"errors"
	"time"

	"github.com/manosdelsur/feria/internal/authctx"
)

// User mirrors the identity provider's subject plus the marketplace role
// profile. Authentication happens upstream; this row exists for foreign keys
// and role resolution.
type User struct {
	ID        int64        `gorm:"primaryKey"`
	Username  string       `gorm:"type:text;not null;uniqueIndex"`
	Email     string       `gorm:"type:text;not null;uniqueIndex"`
	Role      authctx.Role `gorm:"type:text;not null"`
	Phone     *string      `gorm:"type:text"`
	Address   *string      `gorm:"type:text"`
	City      *string      `gorm:"type:text"`
	Verified  bool         `gorm:"not null;default:false"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

var (
	ErrNotFound    = errors.New("user_not_found")
	ErrInvalidRole = errors.New("invalid_role")
)
