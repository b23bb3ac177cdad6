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
	"github.com/manosdelsur/feria/internal/lifecycle"
	"github.com/manosdelsur/feria/internal/store/domain"
	"github.com/manosdelsur/feria/internal/store/repository"
	"github.com/manosdelsur/feria/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  repository.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  repository.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("store.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}
	if actor.Role != authctx.RoleArtisan {
		return nil, domain.ErrNotArtisan
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	existing, err := s.repo.FindByOwner(ctx, s.db, actor.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrStoreExists
	}

	store := &domain.Store{
		ID:          s.genID.Generate().Int64(),
		OwnerID:     actor.UserID.Int64(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Lifecycle:   lifecycle.Active,
	}

	if err := s.repo.Create(ctx, s.db, store); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrStoreExists
		}
		return nil, err
	}

	resp := s.toResponse(store)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	storeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	store, err := s.repo.FindByID(ctx, s.db, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil || !store.Lifecycle.IsActive() {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(store)
	return &resp, nil
}

func (s *Service) Mine(ctx context.Context) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	store, err := s.repo.FindByOwner(ctx, s.db, actor.UserID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(store)
	return &resp, nil
}

func (s *Service) Approve(ctx context.Context, id string) (*domain.Response, error) {
	storeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	store, err := s.repo.FindByID(ctx, s.db, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}

	if !store.Approved {
		store.Approved = true
		if err := s.repo.Update(ctx, s.db, store); err != nil {
			return nil, err
		}
	}

	resp := s.toResponse(store)
	return &resp, nil
}

func (s *Service) toResponse(store *domain.Store) domain.Response {
	return domain.Response{
		ID:          strconv.FormatInt(store.ID, 10),
		OwnerID:     strconv.FormatInt(store.OwnerID, 10),
		Name:        store.Name,
		Description: store.Description,
		Location:    store.Location,
		Lifecycle:   string(store.Lifecycle),
		Approved:    store.Approved,
		CreatedAt:   store.CreatedAt,
	}
}
