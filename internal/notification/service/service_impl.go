package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authctx"
	"github.com/manosdelsur/feria/internal/config"
	"github.com/manosdelsur/feria/internal/notification/domain"
	"github.com/manosdelsur/feria/internal/notification/repository"
	"github.com/manosdelsur/feria/internal/observability/metrics"
	"github.com/manosdelsur/feria/internal/providers/email"
	userrepo "github.com/manosdelsur/feria/internal/user/repository"
)

const unreadCacheTTL = 5 * time.Minute

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    repository.Repository
	Users   userrepo.Repository
	Email   email.Provider
	Policy  *config.MarketplaceConfigHolder
	Metrics *metrics.Metrics `optional:"true"`
	Redis   *redis.Client    `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    repository.Repository
	users   userrepo.Repository
	email   email.Provider
	policy  *config.MarketplaceConfigHolder
	metrics *metrics.Metrics
	redis   *redis.Client
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("notification.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		users:   p.Users,
		email:   p.Email,
		policy:  p.Policy,
		metrics: p.Metrics,
		redis:   p.Redis,
	}
}

func (s *Service) Emit(ctx context.Context, event domain.Event) {
	s.EmitBatch(ctx, []domain.Event{event})
}

func (s *Service) EmitBatch(ctx context.Context, events []domain.Event) {
	rows := make([]domain.Notification, 0, len(events))
	for _, event := range events {
		if event.RecipientID == 0 || event.Message == "" {
			continue
		}
		// Actors do not get notified about their own actions.
		if event.ActorID != 0 && event.ActorID == event.RecipientID {
			continue
		}
		category := event.Category
		if !category.Valid() {
			category = domain.CategoryGeneral
		}

		row := domain.Notification{
			ID:          s.genID.Generate().Int64(),
			RecipientID: event.RecipientID.Int64(),
			Category:    category,
			Message:     event.Message,
			Link:        event.Link,
		}
		if event.ActorID != 0 {
			actorID := event.ActorID.Int64()
			row.ActorID = &actorID
		}
		if len(event.Metadata) > 0 {
			row.Metadata = datatypes.JSONMap(event.Metadata)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return
	}

	if err := s.repo.CreateBatch(ctx, s.db, rows); err != nil {
		s.log.Warn("notification insert failed",
			zap.Int("count", len(rows)),
			zap.Error(err),
		)
		return
	}

	for _, row := range rows {
		s.metrics.NotificationEmitted(string(row.Category))
		s.invalidateUnread(ctx, snowflake.ID(row.RecipientID))
	}

	if s.policy.Get().Notifications.EmailMirror {
		s.mirrorToEmail(ctx, rows)
	}
}

// mirrorToEmail sends a copy of each notification to the recipient's mail
// address. Failures are logged only.
func (s *Service) mirrorToEmail(ctx context.Context, rows []domain.Notification) {
	for _, row := range rows {
		recipient, err := s.users.FindByID(ctx, s.db, row.RecipientID)
		if err != nil || recipient == nil || recipient.Email == "" {
			continue
		}
		subject := fmt.Sprintf("Feria: %s", row.Category)
		body := fmt.Sprintf("<p>%s</p>", row.Message)
		if err := s.email.Send(ctx, []string{recipient.Email}, subject, body); err != nil {
			s.log.Warn("notification email mirror failed",
				zap.Int64("recipient_id", row.RecipientID),
				zap.Error(err),
			)
		}
	}
}

// List returns the actor's notifications newest first and marks every unread
// one as read, matching the "seen once opened" inbox behavior.
func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	items, err := s.repo.ListByRecipient(ctx, s.db, actor.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.MarkAllRead(ctx, s.db, actor.UserID); err != nil {
		return nil, err
	}
	s.invalidateUnread(ctx, actor.UserID)

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidActor
	}

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, unreadKey(actor.UserID)).Int64()
		if err == nil {
			return cached, nil
		}
		if err != redis.Nil {
			s.log.Debug("unread cache read failed", zap.Error(err))
		}
	}

	count, err := s.repo.CountUnread(ctx, s.db, actor.UserID)
	if err != nil {
		return 0, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, unreadKey(actor.UserID), count, unreadCacheTTL).Err(); err != nil {
			s.log.Debug("unread cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

func (s *Service) invalidateUnread(ctx context.Context, recipientID snowflake.ID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, unreadKey(recipientID)).Err(); err != nil {
		s.log.Debug("unread cache invalidation failed", zap.Error(err))
	}
}

func unreadKey(recipientID snowflake.ID) string {
	return "feria:notifications:unread:" + recipientID.String()
}

func toResponse(n *domain.Notification) domain.Response {
	resp := domain.Response{
		ID:        strconv.FormatInt(n.ID, 10),
		Category:  string(n.Category),
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if len(n.Metadata) > 0 {
		resp.Metadata = map[string]interface{}(n.Metadata)
	}
	return resp
}
