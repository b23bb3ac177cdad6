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
	"github.com/manosdelsur/feria/internal/favorite/domain"
	"github.com/manosdelsur/feria/internal/favorite/repository"
	productrepo "github.com/manosdelsur/feria/internal/product/repository"
	"github.com/manosdelsur/feria/pkg/db"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     repository.Repository
	Products productrepo.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     repository.Repository
	products productrepo.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("favorite.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		products: p.Products,
	}
}

// Toggle adds the product to the actor's favorites or removes it when
// already present.
func (s *Service) Toggle(ctx context.Context, productID string) (*domain.ToggleResult, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	id, err := snowflake.ParseString(strings.TrimSpace(productID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	product, err := s.products.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.Lifecycle.IsActive() {
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
		return &domain.ToggleResult{Added: false}, nil
	}

	favorite := &domain.Favorite{
		ID:        s.genID.Generate().Int64(),
		UserID:    actor.UserID.Int64(),
		ProductID: id.Int64(),
	}
	if err := s.repo.Create(ctx, s.db, favorite); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return &domain.ToggleResult{Added: true}, nil
		}
		return nil, err
	}
	return &domain.ToggleResult{Added: true}, nil
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
			ProductID: strconv.FormatInt(item.ProductID, 10),
			CreatedAt: item.CreatedAt,
		}
		product, err := s.products.FindByID(ctx, s.db, snowflake.ID(item.ProductID))
		if err == nil && product != nil {
			entry.ProductName = product.Name
			entry.Price = product.Price
			entry.Currency = product.Currency
		}
		resp = append(resp, entry)
	}
	return resp, nil
}
