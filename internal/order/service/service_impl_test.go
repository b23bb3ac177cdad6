package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authctx"
	"github.com/manosdelsur/feria/internal/lifecycle"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	"github.com/manosdelsur/feria/internal/order/domain"
	"github.com/manosdelsur/feria/internal/order/repository"
	productdomain "github.com/manosdelsur/feria/internal/product/domain"
	productrepo "github.com/manosdelsur/feria/internal/product/repository"
	"github.com/manosdelsur/feria/internal/providers/pdf"
	"github.com/manosdelsur/feria/internal/stock"
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

func (n *notifierStub) recorded() []notifdomain.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifdomain.Event, len(n.events))
	copy(out, n.events)
	return out
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func setup(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, *notifierStub) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&storedomain.Store{}, &productdomain.Product{}, &domain.Order{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node := mustNode(t)
	notifier := &notifierStub{}
	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Products: productrepo.Provide(),
		Stores:   storerepo.Provide(),
		Ledger:   stock.NewLedger(zap.NewNop()),
		Notifier: notifier,
		Receipts: pdf.NewReceiptRenderer(),
	})
	return svc, conn, node, notifier
}

func seedStore(t *testing.T, conn *gorm.DB, node *snowflake.Node) *storedomain.Store {
	t.Helper()
	store := &storedomain.Store{
		ID:       node.Generate().Int64(),
		OwnerID:  node.Generate().Int64(),
		Name:     "Taller Prueba",
		Approved: true,
	}
	if err := conn.Create(store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func seedProduct(t *testing.T, conn *gorm.DB, node *snowflake.Node, storeID, stockCount int64) *productdomain.Product {
	t.Helper()
	product := &productdomain.Product{
		ID:        node.Generate().Int64(),
		StoreID:   storeID,
		Name:      "Vasija",
		Price:     12000,
		Currency:  "CLP",
		Stock:     stockCount,
		Lifecycle: lifecycle.Active,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func buyerContext(node *snowflake.Node) (context.Context, snowflake.ID) {
	buyerID := node.Generate()
	ctx := authctx.WithActor(context.Background(), authctx.Actor{UserID: buyerID, Role: authctx.RoleBuyer})
	return ctx, buyerID
}

func productStock(t *testing.T, conn *gorm.DB, productID int64) int64 {
	t.Helper()
	var product productdomain.Product
	if err := conn.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.Stock
}

func TestPlaceDecrementsStockAndNotifiesOwner(t *testing.T) {
	svc, conn, node, notifier := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 5)
	ctx, buyerID := buyerContext(node)

	resp, err := svc.Place(ctx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10), Quantity: 2})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if resp.Status != domain.StatusPending {
		t.Fatalf("expected PENDING, got %s", resp.Status)
	}
	if resp.TotalPrice != 24000 {
		t.Fatalf("expected total 24000, got %d", resp.TotalPrice)
	}
	if got := productStock(t, conn, product.ID); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}

	events := notifier.recorded()
	if len(events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(events))
	}
	if events[0].RecipientID.Int64() != store.OwnerID {
		t.Fatalf("expected owner %d notified, got %d", store.OwnerID, events[0].RecipientID.Int64())
	}
	if events[0].ActorID != buyerID {
		t.Fatalf("expected actor %d, got %d", buyerID, events[0].ActorID)
	}
}

func TestPlaceOutOfStockLeavesNoOrder(t *testing.T) {
	svc, conn, node, _ := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 1)
	ctx, _ := buyerContext(node)

	_, err := svc.Place(ctx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10), Quantity: 2})
	if !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if got := productStock(t, conn, product.ID); got != 1 {
		t.Fatalf("stock must be untouched, got %d", got)
	}

	var count int64
	if err := conn.Model(&domain.Order{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no order rows, got %d", count)
	}
}

func TestPlaceSelfPurchaseRejected(t *testing.T) {
	svc, conn, node, _ := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 3)

	ctx := authctx.WithActor(context.Background(), authctx.Actor{
		UserID:  snowflake.ID(store.OwnerID),
		Role:    authctx.RoleArtisan,
		StoreID: snowflake.ID(store.ID),
	})
	_, err := svc.Place(ctx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10)})
	if !errors.Is(err, domain.ErrSelfPurchase) {
		t.Fatalf("expected ErrSelfPurchase, got %v", err)
	}
}

func TestPlaceHiddenProductUnavailable(t *testing.T) {
	svc, conn, node, _ := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 3)
	if err := conn.Model(&productdomain.Product{}).Where("id = ?", product.ID).
		Update("lifecycle", lifecycle.Hidden).Error; err != nil {
		t.Fatalf("hide product: %v", err)
	}
	ctx, _ := buyerContext(node)

	_, err := svc.Place(ctx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10)})
	if !errors.Is(err, domain.ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable, got %v", err)
	}
}

func TestCancelRestoresStock(t *testing.T) {
	svc, conn, node, _ := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 5)
	ctx, _ := buyerContext(node)

	resp, err := svc.Place(ctx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10), Quantity: 2})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, resp.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if got := productStock(t, conn, product.ID); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}
}

func TestCancelByStrangerRejected(t *testing.T) {
	svc, conn, node, _ := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 5)
	ctx, _ := buyerContext(node)

	resp, err := svc.Place(ctx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10)})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	otherCtx, _ := buyerContext(node)
	if _, err := svc.Cancel(otherCtx, resp.ID); !errors.Is(err, domain.ErrNotOrderOwner) {
		t.Fatalf("expected ErrNotOrderOwner, got %v", err)
	}
}

func TestCompleteKeepsStockAndNotifiesBuyer(t *testing.T) {
	svc, conn, node, notifier := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 5)
	buyerCtx, buyerID := buyerContext(node)

	resp, err := svc.Place(buyerCtx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10), Quantity: 3})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	artisanCtx := authctx.WithActor(context.Background(), authctx.Actor{
		UserID:  snowflake.ID(store.OwnerID),
		Role:    authctx.RoleArtisan,
		StoreID: snowflake.ID(store.ID),
	})
	completed, err := svc.SetStatus(artisanCtx, resp.ID, domain.StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", completed.Status)
	}
	if got := productStock(t, conn, product.ID); got != 2 {
		t.Fatalf("stock must stay 2 after completion, got %d", got)
	}

	events := notifier.recorded()
	last := events[len(events)-1]
	if last.RecipientID != buyerID {
		t.Fatalf("expected buyer %d notified, got %d", buyerID, last.RecipientID)
	}
}

func TestRejectRestoresStock(t *testing.T) {
	svc, conn, node, _ := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 4)
	buyerCtx, _ := buyerContext(node)

	resp, err := svc.Place(buyerCtx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10), Quantity: 4})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if got := productStock(t, conn, product.ID); got != 0 {
		t.Fatalf("expected stock 0 after place, got %d", got)
	}

	artisanCtx := authctx.WithActor(context.Background(), authctx.Actor{
		UserID:  snowflake.ID(store.OwnerID),
		Role:    authctx.RoleArtisan,
		StoreID: snowflake.ID(store.ID),
	})
	if _, err := svc.SetStatus(artisanCtx, resp.ID, domain.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := productStock(t, conn, product.ID); got != 4 {
		t.Fatalf("expected stock restored to 4, got %d", got)
	}
}

func TestTerminalOrderRefusesFurtherTransitions(t *testing.T) {
	svc, conn, node, _ := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 5)
	buyerCtx, _ := buyerContext(node)

	resp, err := svc.Place(buyerCtx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10)})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if _, err := svc.Cancel(buyerCtx, resp.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Cancel(buyerCtx, resp.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got := productStock(t, conn, product.ID); got != 5 {
		t.Fatalf("double cancel must not restock twice, got %d", got)
	}
}

func TestReceiptOnlyForCompletedOrders(t *testing.T) {
	svc, conn, node, _ := setup(t)
	store := seedStore(t, conn, node)
	product := seedProduct(t, conn, node, store.ID, 5)
	buyerCtx, _ := buyerContext(node)

	resp, err := svc.Place(buyerCtx, domain.PlaceRequest{ProductID: strconv.FormatInt(product.ID, 10)})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if _, err := svc.Receipt(buyerCtx, resp.ID); !errors.Is(err, domain.ErrReceiptUnavailable) {
		t.Fatalf("expected ErrReceiptUnavailable for pending order, got %v", err)
	}

	artisanCtx := authctx.WithActor(context.Background(), authctx.Actor{
		UserID:  snowflake.ID(store.OwnerID),
		Role:    authctx.RoleArtisan,
		StoreID: snowflake.ID(store.ID),
	})
	if _, err := svc.SetStatus(artisanCtx, resp.ID, domain.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	data, err := svc.Receipt(buyerCtx, resp.ID)
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected pdf bytes")
	}
}
