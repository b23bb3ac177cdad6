package domain

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusClosed     Status = "CLOSED"
)

// SupportTicket is a user-filed issue with an optional single admin
// response.
type SupportTicket struct {
	ID          int64      `gorm:"column:id;primaryKey"`
	UserID      int64      `gorm:"column:user_id;index;not null"`
	Subject     string     `gorm:"column:subject;not null"`
	Message     string     `gorm:"column:message;not null"`
	Status      Status     `gorm:"column:status;size:16;not null;default:'OPEN'"`
	Response    *string    `gorm:"column:response"`
	RespondedAt *time.Time `gorm:"column:responded_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (SupportTicket) TableName() string {
	return "support_tickets"
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	ListMine(ctx context.Context) ([]Response, error)
	ListAll(ctx context.Context) ([]Response, error)
	Respond(ctx context.Context, id string, req RespondRequest) (*Response, error)
	Close(ctx context.Context, id string) (*Response, error)
}

type CreateRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type RespondRequest struct {
	Response string `json:"response"`
}

type Response struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Subject     string     `json:"subject"`
	Message     string     `json:"message"`
	Status      Status     `json:"status"`
	Response    string     `json:"response,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

var (
	ErrInvalidActor   = errors.New("invalid_actor")
	ErrInvalidID      = errors.New("invalid_ticket_id")
	ErrInvalidSubject = errors.New("invalid_ticket_subject")
	ErrInvalidMessage = errors.New("invalid_ticket_message")
	ErrEmptyResponse  = errors.New("empty_response")
	ErrNotFound       = errors.New("ticket_not_found")
	ErrTicketClosed   = errors.New("ticket_closed")
)
