package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authctx"
	"github.com/manosdelsur/feria/internal/clock"
	"github.com/manosdelsur/feria/internal/config"
	"github.com/manosdelsur/feria/internal/lifecycle"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	productdomain "github.com/manosdelsur/feria/internal/product/domain"
	productrepo "github.com/manosdelsur/feria/internal/product/repository"
	"github.com/manosdelsur/feria/internal/review/domain"
	"github.com/manosdelsur/feria/internal/review/repository"
	storedomain "github.com/manosdelsur/feria/internal/store/domain"
	storerepo "github.com/manosdelsur/feria/internal/store/repository"
	"github.com/manosdelsur/feria/pkg/db"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     repository.Repository
	Products productrepo.Repository
	Stores   storerepo.Repository
	Policy   *config.MarketplaceConfigHolder
	Notifier notifdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     repository.Repository
	products productrepo.Repository
	stores   storerepo.Repository
	policy   *config.MarketplaceConfigHolder
	notifier notifdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("review.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		products: p.Products,
		stores:   p.Stores,
		policy:   p.Policy,
		notifier: p.Notifier,
	}
}

// Submit creates a review for any buyer except the store owner. New reviews
// wait for moderation before they count toward the product rating.
func (s *Service) Submit(ctx context.Context, productID string, req domain.SubmitRequest) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	pid, err := snowflake.ParseString(strings.TrimSpace(productID))
	if err != nil {
		return nil, productdomain.ErrInvalidID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, domain.ErrInvalidRating
	}

	product, err := s.products.FindByID(ctx, s.db, pid)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, productdomain.ErrNotFound
	}
	if actor.OwnsStore(snowflake.ID(product.StoreID)) {
		return nil, domain.ErrSelfReview
	}

	existing, err := s.repo.FindByProductAndAuthor(ctx, s.db, pid, actor.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateReview
	}

	review := &domain.Review{
		ID:        s.genID.Generate().Int64(),
		ProductID: pid.Int64(),
		AuthorID:  actor.UserID.Int64(),
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		Lifecycle: lifecycle.Active,
	}
	if err := s.repo.Create(ctx, s.db, review); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateReview
		}
		return nil, err
	}

	s.notifyStoreOwner(ctx, actor, snowflake.ID(product.StoreID), notifdomain.Event{
		Category: notifdomain.CategoryReview,
		Message:  "New review on " + product.Name,
		Link:     "/products/" + strconv.FormatInt(product.ID, 10),
	})

	resp := toResponse(review)
	return &resp, nil
}

func (s *Service) ListForProduct(ctx context.Context, productID string) ([]domain.Response, error) {
	pid, err := snowflake.ParseString(strings.TrimSpace(productID))
	if err != nil {
		return nil, productdomain.ErrInvalidID
	}

	items, err := s.repo.ListActiveByProduct(ctx, s.db, pid)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

// AverageRating is the mean of counted ratings rounded to one decimal,
// zero when nothing counts yet.
func (s *Service) AverageRating(ctx context.Context, productID string) (*domain.RatingResponse, error) {
	pid, err := snowflake.ParseString(strings.TrimSpace(productID))
	if err != nil {
		return nil, productdomain.ErrInvalidID
	}

	includePending := s.policy.Get().Reviews.CountPendingInRating
	sum, count, err := s.repo.RatingAggregate(ctx, s.db, pid, includePending)
	if err != nil {
		return nil, err
	}

	resp := &domain.RatingResponse{
		ProductID: pid.String(),
		Count:     count,
	}
	if count > 0 {
		resp.Average = math.Round(float64(sum)/float64(count)*10) / 10
	}
	return resp, nil
}

// Respond attaches the owning artisan's reply. A review holds at most one
// response, appended once and never edited.
func (s *Service) Respond(ctx context.Context, reviewID string, req domain.RespondRequest) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, s.db, snowflake.ID(review.ProductID))
	if err != nil {
		return nil, err
	}
	if product == nil || (!actor.OwnsStore(snowflake.ID(product.StoreID)) && actor.Role != authctx.RoleAdmin) {
		return nil, domain.ErrNotReviewedStore
	}

	if review.Response != nil {
		return nil, domain.ErrAlreadyResponded
	}

	text := strings.TrimSpace(req.Response)
	if text == "" {
		return nil, domain.ErrEmptyResponse
	}

	now := s.clock.Now()
	review.Response = &text
	review.RespondedAt = &now
	if err := s.repo.Update(ctx, s.db, review); err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, notifdomain.Event{
		RecipientID: snowflake.ID(review.AuthorID),
		ActorID:     actor.UserID,
		Category:    notifdomain.CategoryReview,
		Message:     "The store responded to your review",
		Link:        "/products/" + strconv.FormatInt(review.ProductID, 10),
	})

	resp := toResponse(review)
	return &resp, nil
}

func (s *Service) Approve(ctx context.Context, reviewID string) (*domain.Response, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if !review.Approved {
		review.Approved = true
		if err := s.repo.Update(ctx, s.db, review); err != nil {
			return nil, err
		}
	}

	resp := toResponse(review)
	return &resp, nil
}

func (s *Service) Hide(ctx context.Context, reviewID string) (*domain.Response, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.Lifecycle != lifecycle.Hidden {
		review.Lifecycle = lifecycle.Hidden
		if err := s.repo.Update(ctx, s.db, review); err != nil {
			return nil, err
		}
	}

	resp := toResponse(review)
	return &resp, nil
}

func (s *Service) SubmitStoreReview(ctx context.Context, storeID string, req domain.SubmitRequest) (*domain.StoreReviewResponse, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	sid, err := snowflake.ParseString(strings.TrimSpace(storeID))
	if err != nil {
		return nil, storedomain.ErrInvalidID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, domain.ErrInvalidRating
	}

	store, err := s.stores.FindByID(ctx, s.db, sid)
	if err != nil {
		return nil, err
	}
	if store == nil || !store.Lifecycle.IsActive() {
		return nil, storedomain.ErrNotFound
	}
	if actor.UserID.Int64() == store.OwnerID {
		return nil, domain.ErrSelfReview
	}

	existing, err := s.repo.FindStoreReview(ctx, s.db, sid, actor.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateReview
	}

	review := &domain.StoreReview{
		ID:       s.genID.Generate().Int64(),
		StoreID:  sid.Int64(),
		AuthorID: actor.UserID.Int64(),
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
	}
	if err := s.repo.CreateStoreReview(ctx, s.db, review); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateReview
		}
		return nil, err
	}

	s.notifier.Emit(ctx, notifdomain.Event{
		RecipientID: snowflake.ID(store.OwnerID),
		ActorID:     actor.UserID,
		Category:    notifdomain.CategoryReview,
		Message:     "New review on your store",
		Link:        "/stores/" + strconv.FormatInt(store.ID, 10),
	})

	resp := toStoreResponse(review)
	return &resp, nil
}

func (s *Service) ListForStore(ctx context.Context, storeID string) ([]domain.StoreReviewResponse, error) {
	sid, err := snowflake.ParseString(strings.TrimSpace(storeID))
	if err != nil {
		return nil, storedomain.ErrInvalidID
	}

	items, err := s.repo.ListByStore(ctx, s.db, sid)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.StoreReviewResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toStoreResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) findReview(ctx context.Context, reviewID string) (*domain.Review, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(reviewID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	review, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, domain.ErrNotFound
	}
	return review, nil
}

func (s *Service) notifyStoreOwner(ctx context.Context, actor authctx.Actor, storeID snowflake.ID, event notifdomain.Event) {
	store, err := s.stores.FindByID(ctx, s.db, storeID)
	if err != nil || store == nil {
		s.log.Warn("store lookup for notification failed",
			zap.Int64("store_id", storeID.Int64()),
			zap.Error(err),
		)
		return
	}
	event.RecipientID = snowflake.ID(store.OwnerID)
	event.ActorID = actor.UserID
	s.notifier.Emit(ctx, event)
}

func toResponse(review *domain.Review) domain.Response {
	resp := domain.Response{
		ID:          strconv.FormatInt(review.ID, 10),
		ProductID:   strconv.FormatInt(review.ProductID, 10),
		AuthorID:    strconv.FormatInt(review.AuthorID, 10),
		Rating:      review.Rating,
		Comment:     review.Comment,
		Lifecycle:   string(review.Lifecycle),
		Approved:    review.Approved,
		RespondedAt: review.RespondedAt,
		CreatedAt:   review.CreatedAt,
	}
	if review.Response != nil {
		resp.Response = *review.Response
	}
	return resp
}

func toStoreResponse(review *domain.StoreReview) domain.StoreReviewResponse {
	return domain.StoreReviewResponse{
		ID:        strconv.FormatInt(review.ID, 10),
		StoreID:   strconv.FormatInt(review.StoreID, 10),
		AuthorID:  strconv.FormatInt(review.AuthorID, 10),
		Rating:    review.Rating,
		Comment:   review.Comment,
		Approved:  review.Approved,
		CreatedAt: review.CreatedAt,
	}
}
