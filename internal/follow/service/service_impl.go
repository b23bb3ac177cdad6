package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authctx"
	"github.com/manosdelsur/feria/internal/follow/domain"
	"github.com/manosdelsur/feria/internal/follow/repository"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	storerepo "github.com/manosdelsur/feria/internal/store/repository"
	"github.com/manosdelsur/feria/pkg/db"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     repository.Repository
	Stores   storerepo.Repository
	Notifier notifdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     repository.Repository
	stores   storerepo.Repository
	notifier notifdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("follow.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		stores:   p.Stores,
		notifier: p.Notifier,
	}
}

// Toggle follows the store if the actor does not follow it yet and
// unfollows otherwise. The store owner is notified on follow only.
func (s *Service) Toggle(ctx context.Context, storeID string) (*domain.ToggleResult, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	id, err := snowflake.ParseString(strings.TrimSpace(storeID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	store, err := s.stores.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if store == nil || !store.Lifecycle.IsActive() {
		return nil, domain.ErrNotFound
	}

	existing, err := s.repo.Find(ctx, s.db, actor.UserID, id)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.repo.Delete(ctx, s.db, existing.ID); err != nil {
			return nil, err
		}
		return &domain.ToggleResult{Following: false}, nil
	}

	follow := &domain.StoreFollow{
		ID:      s.genID.Generate().Int64(),
		UserID:  actor.UserID.Int64(),
		StoreID: id.Int64(),
	}
	if err := s.repo.Create(ctx, s.db, follow); err != nil {
		// A concurrent toggle already created the row.
		if db.IsDuplicateKeyErr(err) {
			return &domain.ToggleResult{Following: true}, nil
		}
		return nil, err
	}

	s.notifier.Emit(ctx, notifdomain.Event{
		RecipientID: snowflake.ID(store.OwnerID),
		ActorID:     actor.UserID,
		Category:    notifdomain.CategoryFollow,
		Message:     "Your store has a new follower",
		Link:        "/stores/" + strconv.FormatInt(store.ID, 10),
	})

	return &domain.ToggleResult{Following: true}, nil
}

func (s *Service) ListMine(ctx context.Context) ([]domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	items, err := s.repo.ListByUser(ctx, s.db, actor.UserID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		entry := domain.Response{
			StoreID:   strconv.FormatInt(item.StoreID, 10),
			CreatedAt: item.CreatedAt,
		}
		store, err := s.stores.FindByID(ctx, s.db, snowflake.ID(item.StoreID))
		if err == nil && store != nil {
			entry.StoreName = store.Name
		}
		resp = append(resp, entry)
	}
	return resp, nil
}
