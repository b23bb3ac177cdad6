package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Event describes one notification to deliver. ActorID is zero when the
// event has no human originator.
type Event struct {
	RecipientID snowflake.ID
	ActorID     snowflake.ID
	Category    Category
	Message     string
	Link        string
	Metadata    map[string]interface{}
}

type Response struct {
	ID        string                 `json:"id"`
	Category  string                 `json:"category"`
	Message   string                 `json:"message"`
	Link      string                 `json:"link,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// Service emits and reads in-app notifications. Emitting is best effort:
// a failed insert is logged and dropped, never surfaced to the caller.
type Service interface {
	Emit(ctx context.Context, event Event)
	EmitBatch(ctx context.Context, events []Event)
	List(ctx context.Context) ([]Response, error)
	UnreadCount(ctx context.Context) (int64, error)
}
