package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
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

type notifierStub struct {
	mu     sync.Mutex
	events []notifdomain.Event
}

func (n *notifierStub) Emit(_ context.Context, event notifdomain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *notifierStub) EmitBatch(_ context.Context, events []notifdomain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
}

func (n *notifierStub) List(context.Context) ([]notifdomain.Response, error) {
	return nil, nil
}

func (n *notifierStub) UnreadCount(context.Context) (int64, error) {
	return 0, nil
}

func (n *notifierStub) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type fixture struct {
	svc      domain.Service
	conn     *gorm.DB
	node     *snowflake.Node
	policy   *config.MarketplaceConfigHolder
	notifier *notifierStub
	clock    *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&storedomain.Store{},
		&productdomain.Product{},
		&domain.Review{},
		&domain.StoreReview{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	policy := &config.MarketplaceConfigHolder{}
	policy.Set(config.DefaultMarketplaceConfig())
	notifier := &notifierStub{}
	fake := clock.NewFakeClock(time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		Products: productrepo.Provide(),
		Stores:   storerepo.Provide(),
		Policy:   policy,
		Notifier: notifier,
	})
	return &fixture{svc: svc, conn: conn, node: node, policy: policy, notifier: notifier, clock: fake}
}

func (f *fixture) seedStore(t *testing.T) *storedomain.Store {
	t.Helper()
	store := &storedomain.Store{
		ID:       f.node.Generate().Int64(),
		OwnerID:  f.node.Generate().Int64(),
		Name:     "Taller Prueba",
		Approved: true,
	}
	if err := f.conn.Create(store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func (f *fixture) seedProduct(t *testing.T, storeID int64) *productdomain.Product {
	t.Helper()
	product := &productdomain.Product{
		ID:        f.node.Generate().Int64(),
		StoreID:   storeID,
		Name:      "Jarron",
		Price:     9000,
		Currency:  "CLP",
		Stock:     10,
		Lifecycle: lifecycle.Active,
	}
	if err := f.conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *fixture) seedReview(t *testing.T, productID int64, rating int, approved bool) *domain.Review {
	t.Helper()
	review := &domain.Review{
		ID:        f.node.Generate().Int64(),
		ProductID: productID,
		AuthorID:  f.node.Generate().Int64(),
		Rating:    rating,
		Lifecycle: lifecycle.Active,
		Approved:  approved,
	}
	if err := f.conn.Create(review).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}
	return review
}

func buyerCtx(node *snowflake.Node) (context.Context, snowflake.ID) {
	id := node.Generate()
	return authctx.WithActor(context.Background(), authctx.Actor{UserID: id, Role: authctx.RoleBuyer}), id
}

func TestSubmitWithoutPriorOrder(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	ctx, buyerID := buyerCtx(f.node)

	resp, err := f.svc.Submit(ctx, strconv.FormatInt(product.ID, 10), domain.SubmitRequest{Rating: 4, Comment: "Lindo"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Rating != 4 || resp.Approved {
		t.Fatalf("expected pending rating-4 review, got rating=%d approved=%v", resp.Rating, resp.Approved)
	}

	var count int64
	if err := f.conn.Model(&domain.Review{}).
		Where("product_id = ? AND author_id = ?", product.ID, buyerID.Int64()).
		Count(&count).Error; err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 review row, got %d", count)
	}
}

func TestSubmitCreatesPendingReview(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	ctx, _ := buyerCtx(f.node)

	resp, err := f.svc.Submit(ctx, strconv.FormatInt(product.ID, 10), domain.SubmitRequest{Rating: 5, Comment: "Excelente"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Approved {
		t.Fatalf("new reviews must wait for moderation")
	}
	if resp.Lifecycle != string(lifecycle.Active) {
		t.Fatalf("expected ACTIVE lifecycle, got %s", resp.Lifecycle)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected owner notification, got %d events", f.notifier.count())
	}
}

func TestSubmitSelfReviewRejected(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)

	ctx := authctx.WithActor(context.Background(), authctx.Actor{
		UserID:  snowflake.ID(store.OwnerID),
		Role:    authctx.RoleArtisan,
		StoreID: snowflake.ID(store.ID),
	})
	_, err := f.svc.Submit(ctx, strconv.FormatInt(product.ID, 10), domain.SubmitRequest{Rating: 5})
	if !errors.Is(err, domain.ErrSelfReview) {
		t.Fatalf("expected ErrSelfReview, got %v", err)
	}
}

func TestSubmitDuplicateKeepsSingleRow(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	ctx, buyerID := buyerCtx(f.node)

	if _, err := f.svc.Submit(ctx, strconv.FormatInt(product.ID, 10), domain.SubmitRequest{Rating: 4}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := f.svc.Submit(ctx, strconv.FormatInt(product.ID, 10), domain.SubmitRequest{Rating: 2}); !errors.Is(err, domain.ErrDuplicateReview) {
		t.Fatalf("expected ErrDuplicateReview, got %v", err)
	}

	var count int64
	if err := f.conn.Model(&domain.Review{}).
		Where("product_id = ? AND author_id = ?", product.ID, buyerID.Int64()).
		Count(&count).Error; err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 review row, got %d", count)
	}
}

func TestSubmitRatingBounds(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	ctx, _ := buyerCtx(f.node)

	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.Submit(ctx, strconv.FormatInt(product.ID, 10), domain.SubmitRequest{Rating: rating})
		if !errors.Is(err, domain.ErrInvalidRating) {
			t.Fatalf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}

func TestAverageRatingEmptyIsZero(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)

	resp, err := f.svc.AverageRating(context.Background(), strconv.FormatInt(product.ID, 10))
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if resp.Average != 0 || resp.Count != 0 {
		t.Fatalf("expected 0/0, got %v/%d", resp.Average, resp.Count)
	}
}

func TestAverageRatingCountsApprovedOnly(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	f.seedReview(t, product.ID, 4, true)
	f.seedReview(t, product.ID, 5, true)
	f.seedReview(t, product.ID, 1, false)

	resp, err := f.svc.AverageRating(context.Background(), strconv.FormatInt(product.ID, 10))
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected count 2, got %d", resp.Count)
	}
	if resp.Average != 4.5 {
		t.Fatalf("expected average 4.5, got %v", resp.Average)
	}
}

func TestAverageRatingPolicyIncludesPending(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	f.seedReview(t, product.ID, 4, true)
	f.seedReview(t, product.ID, 5, true)
	f.seedReview(t, product.ID, 1, false)

	cfg := config.DefaultMarketplaceConfig()
	cfg.Reviews.CountPendingInRating = true
	f.policy.Set(cfg)

	resp, err := f.svc.AverageRating(context.Background(), strconv.FormatInt(product.ID, 10))
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if resp.Count != 3 {
		t.Fatalf("expected count 3, got %d", resp.Count)
	}
	if resp.Average != 3.3 {
		t.Fatalf("expected average 3.3, got %v", resp.Average)
	}
}

func TestHiddenReviewLeavesRating(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	kept := f.seedReview(t, product.ID, 4, true)
	hidden := f.seedReview(t, product.ID, 1, true)

	adminCtx := authctx.WithActor(context.Background(), authctx.Actor{UserID: f.node.Generate(), Role: authctx.RoleAdmin})
	if _, err := f.svc.Hide(adminCtx, strconv.FormatInt(hidden.ID, 10)); err != nil {
		t.Fatalf("hide: %v", err)
	}

	resp, err := f.svc.AverageRating(context.Background(), strconv.FormatInt(product.ID, 10))
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if resp.Count != 1 || resp.Average != float64(kept.Rating) {
		t.Fatalf("expected only the visible review to count, got %v/%d", resp.Average, resp.Count)
	}
}

func TestRespondOnce(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	review := f.seedReview(t, product.ID, 4, true)

	ownerCtx := authctx.WithActor(context.Background(), authctx.Actor{
		UserID:  snowflake.ID(store.OwnerID),
		Role:    authctx.RoleArtisan,
		StoreID: snowflake.ID(store.ID),
	})

	resp, err := f.svc.Respond(ownerCtx, strconv.FormatInt(review.ID, 10), domain.RespondRequest{Response: "Gracias!"})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Response != "Gracias!" {
		t.Fatalf("unexpected response text %q", resp.Response)
	}
	if resp.RespondedAt == nil || !resp.RespondedAt.Equal(f.clock.Now()) {
		t.Fatalf("expected responded_at %v, got %v", f.clock.Now(), resp.RespondedAt)
	}

	_, err = f.svc.Respond(ownerCtx, strconv.FormatInt(review.ID, 10), domain.RespondRequest{Response: "Otra vez"})
	if !errors.Is(err, domain.ErrAlreadyResponded) {
		t.Fatalf("expected ErrAlreadyResponded, got %v", err)
	}
}

func TestRespondGuards(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	review := f.seedReview(t, product.ID, 4, true)
	id := strconv.FormatInt(review.ID, 10)

	strangerCtx := authctx.WithActor(context.Background(), authctx.Actor{
		UserID:  f.node.Generate(),
		Role:    authctx.RoleArtisan,
		StoreID: f.node.Generate(),
	})
	if _, err := f.svc.Respond(strangerCtx, id, domain.RespondRequest{Response: "Hola"}); !errors.Is(err, domain.ErrNotReviewedStore) {
		t.Fatalf("expected ErrNotReviewedStore, got %v", err)
	}

	ownerCtx := authctx.WithActor(context.Background(), authctx.Actor{
		UserID:  snowflake.ID(store.OwnerID),
		Role:    authctx.RoleArtisan,
		StoreID: snowflake.ID(store.ID),
	})
	if _, err := f.svc.Respond(ownerCtx, id, domain.RespondRequest{Response: "   "}); !errors.Is(err, domain.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestApproveIsIdempotent(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	product := f.seedProduct(t, store.ID)
	review := f.seedReview(t, product.ID, 5, false)
	id := strconv.FormatInt(review.ID, 10)

	adminCtx := authctx.WithActor(context.Background(), authctx.Actor{UserID: f.node.Generate(), Role: authctx.RoleAdmin})
	for i := 0; i < 2; i++ {
		resp, err := f.svc.Approve(adminCtx, id)
		if err != nil {
			t.Fatalf("approve #%d: %v", i+1, err)
		}
		if !resp.Approved {
			t.Fatalf("approve #%d: expected approved", i+1)
		}
	}
}

func TestSubmitStoreReview(t *testing.T) {
	f := setup(t)
	store := f.seedStore(t)
	ctx, _ := buyerCtx(f.node)
	id := strconv.FormatInt(store.ID, 10)

	resp, err := f.svc.SubmitStoreReview(ctx, id, domain.SubmitRequest{Rating: 5, Comment: "Muy buena tienda"})
	if err != nil {
		t.Fatalf("store review: %v", err)
	}
	if resp.Rating != 5 {
		t.Fatalf("unexpected rating %d", resp.Rating)
	}

	if _, err := f.svc.SubmitStoreReview(ctx, id, domain.SubmitRequest{Rating: 3}); !errors.Is(err, domain.ErrDuplicateReview) {
		t.Fatalf("expected ErrDuplicateReview, got %v", err)
	}

	ownerCtx := authctx.WithActor(context.Background(), authctx.Actor{
		UserID:  snowflake.ID(store.OwnerID),
		Role:    authctx.RoleArtisan,
		StoreID: snowflake.ID(store.ID),
	})
	if _, err := f.svc.SubmitStoreReview(ownerCtx, id, domain.SubmitRequest{Rating: 5}); !errors.Is(err, domain.ErrSelfReview) {
		t.Fatalf("expected ErrSelfReview, got %v", err)
	}
}
