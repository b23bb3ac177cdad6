package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authctx"
	followrepo "github.com/manosdelsur/feria/internal/follow/repository"
	"github.com/manosdelsur/feria/internal/lifecycle"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	orderrepo "github.com/manosdelsur/feria/internal/order/repository"
	"github.com/manosdelsur/feria/internal/product/domain"
	"github.com/manosdelsur/feria/internal/product/repository"
	"github.com/manosdelsur/feria/pkg/db"
	"github.com/manosdelsur/feria/pkg/db/option"
)

const defaultCurrency = "CLP"

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      repository.Repository
	Orders    orderrepo.Repository
	Followers followrepo.Repository
	Notifier  notifdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      repository.Repository
	orders    orderrepo.Repository
	followers followrepo.Repository
	notifier  notifdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("product.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		orders:    p.Orders,
		followers: p.Followers,
		notifier:  p.Notifier,
	}
}

// Create publishes a listing under the actor's store and notifies every
// follower of that store.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}
	if actor.StoreID == 0 {
		return nil, domain.ErrNoStore
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, domain.ErrInvalidStock
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	product := &domain.Product{
		ID:          s.genID.Generate().Int64(),
		StoreID:     actor.StoreID.Int64(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Currency:    currency,
		Stock:       req.Stock,
		Lifecycle:   lifecycle.Active,
	}

	if categoryName := strings.TrimSpace(req.Category); categoryName != "" {
		category, err := s.resolveCategory(ctx, categoryName)
		if err != nil {
			return nil, err
		}
		product.CategoryID = &category.ID
	}

	if err := s.repo.Create(ctx, s.db, product); err != nil {
		return nil, err
	}

	s.notifyFollowers(ctx, actor, product)

	resp := s.toResponse(ctx, product)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Response, error) {
	product, err := s.ownedProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		product.Name = name
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, domain.ErrInvalidPrice
		}
		product.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, domain.ErrInvalidStock
		}
		product.Stock = *req.Stock
	}
	if req.Category != nil {
		if categoryName := strings.TrimSpace(*req.Category); categoryName != "" {
			category, err := s.resolveCategory(ctx, categoryName)
			if err != nil {
				return nil, err
			}
			product.CategoryID = &category.ID
		} else {
			product.CategoryID = nil
		}
	}

	if err := s.repo.Update(ctx, s.db, product); err != nil {
		return nil, err
	}

	resp := s.toResponse(ctx, product)
	return &resp, nil
}

// Hide removes the listing from buyer-facing queries without touching
// order history.
func (s *Service) Hide(ctx context.Context, id string) (*domain.Response, error) {
	product, err := s.ownedProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if product.Lifecycle != lifecycle.Hidden {
		product.Lifecycle = lifecycle.Hidden
		if err := s.repo.Update(ctx, s.db, product); err != nil {
			return nil, err
		}
	}

	resp := s.toResponse(ctx, product)
	return &resp, nil
}

// Delete removes a listing permanently. Listings that orders reference
// cannot be deleted and must be hidden instead.
func (s *Service) Delete(ctx context.Context, id string) error {
	product, err := s.ownedProduct(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.orders.CountByProduct(ctx, s.db, snowflake.ID(product.ID))
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrProductHasOrders
	}

	return s.db.WithContext(ctx).Delete(&domain.Product{}, "id = ?", product.ID).Error
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	product, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	if !product.Lifecycle.IsActive() {
		actor, ok := authctx.ActorFromContext(ctx)
		isOwner := ok && actor.OwnsStore(snowflake.ID(product.StoreID))
		isAdmin := ok && actor.Role == authctx.RoleAdmin
		if !isOwner && !isAdmin {
			return nil, domain.ErrNotFound
		}
	}

	resp := s.toResponse(ctx, product)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := repository.ListFilter{
		Search:     strings.TrimSpace(req.Search),
		ActiveOnly: true,
	}

	if storeID := strings.TrimSpace(req.StoreID); storeID != "" {
		id, err := snowflake.ParseString(storeID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		filter.StoreID = id
	}

	if categoryName := strings.TrimSpace(req.Category); categoryName != "" {
		category, err := s.repo.FindCategoryBySlug(ctx, s.db, slug.Make(categoryName))
		if err != nil {
			return nil, err
		}
		if category == nil {
			return []domain.Response{}, nil
		}
		filter.CategoryID = snowflake.ID(category.ID)
	}

	allowedSorts := map[string]bool{"name": true, "price": true, "created_at": true}
	items, err := s.repo.List(ctx, s.db, filter,
		option.WithSortBy(option.WithQuerySortBy(req.SortBy, req.OrderBy, allowedSorts)),
	)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(ctx, &items[i]))
	}
	return resp, nil
}

// resolveCategory reuses an existing category by slug or creates it.
func (s *Service) resolveCategory(ctx context.Context, name string) (*domain.Category, error) {
	categorySlug := slug.Make(name)

	category, err := s.repo.FindCategoryBySlug(ctx, s.db, categorySlug)
	if err != nil {
		return nil, err
	}
	if category != nil {
		return category, nil
	}

	category = &domain.Category{
		ID:   s.genID.Generate().Int64(),
		Name: name,
		Slug: categorySlug,
	}
	if err := s.repo.CreateCategory(ctx, s.db, category); err != nil {
		// Lost a create race; the winner's row serves.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindCategoryBySlug(ctx, s.db, categorySlug)
		}
		return nil, err
	}
	return category, nil
}

func (s *Service) notifyFollowers(ctx context.Context, actor authctx.Actor, product *domain.Product) {
	followerIDs, err := s.followers.FollowerIDs(ctx, s.db, snowflake.ID(product.StoreID))
	if err != nil {
		s.log.Warn("follower fan-out lookup failed",
			zap.Int64("store_id", product.StoreID),
			zap.Error(err),
		)
		return
	}

	events := make([]notifdomain.Event, 0, len(followerIDs))
	for _, followerID := range followerIDs {
		events = append(events, notifdomain.Event{
			RecipientID: snowflake.ID(followerID),
			ActorID:     actor.UserID,
			Category:    notifdomain.CategoryGeneral,
			Message:     "New product: " + product.Name,
			Link:        "/products/" + strconv.FormatInt(product.ID, 10),
		})
	}
	s.notifier.EmitBatch(ctx, events)
}

func (s *Service) ownedProduct(ctx context.Context, id string) (*domain.Product, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	product, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if actor.Role != authctx.RoleAdmin && !actor.OwnsStore(snowflake.ID(product.StoreID)) {
		return nil, domain.ErrNotProductOwner
	}
	return product, nil
}

func (s *Service) toResponse(ctx context.Context, product *domain.Product) domain.Response {
	resp := domain.Response{
		ID:          strconv.FormatInt(product.ID, 10),
		StoreID:     strconv.FormatInt(product.StoreID, 10),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Currency:    product.Currency,
		Stock:       product.Stock,
		Lifecycle:   string(product.Lifecycle),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	if product.CategoryID != nil {
		category, err := s.repo.FindCategoryByID(ctx, s.db, *product.CategoryID)
		if err == nil && category != nil {
			resp.Category = category.Name
		}
	}
	return resp
}
