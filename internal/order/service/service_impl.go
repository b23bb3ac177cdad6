package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authctx"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	"github.com/manosdelsur/feria/internal/observability/metrics"
	"github.com/manosdelsur/feria/internal/order/domain"
	"github.com/manosdelsur/feria/internal/order/repository"
	productdomain "github.com/manosdelsur/feria/internal/product/domain"
	productrepo "github.com/manosdelsur/feria/internal/product/repository"
	"github.com/manosdelsur/feria/internal/providers/pdf"
	storerepo "github.com/manosdelsur/feria/internal/store/repository"
	"github.com/manosdelsur/feria/internal/stock"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     repository.Repository
	Products productrepo.Repository
	Stores   storerepo.Repository
	Ledger   *stock.Ledger
	Notifier notifdomain.Service
	Receipts *pdf.ReceiptRenderer
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     repository.Repository
	products productrepo.Repository
	stores   storerepo.Repository
	ledger   *stock.Ledger
	notifier notifdomain.Service
	receipts *pdf.ReceiptRenderer
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("order.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		products: p.Products,
		stores:   p.Stores,
		ledger:   p.Ledger,
		notifier: p.Notifier,
		receipts: p.Receipts,
		metrics:  p.Metrics,
	}
}

// Place reserves stock and creates a PENDING order in one transaction. The
// product row is locked first so the stock check and the decrement see the
// same count under concurrency.
func (s *Service) Place(ctx context.Context, req domain.PlaceRequest) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil {
		return nil, productdomain.ErrInvalidID
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, productdomain.ErrInvalidStock
	}

	var order *domain.Order
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		product, err := s.products.FindByIDForUpdate(ctx, tx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return productdomain.ErrNotFound
		}
		if !product.Lifecycle.IsActive() {
			return domain.ErrProductUnavailable
		}
		if actor.OwnsStore(snowflake.ID(product.StoreID)) {
			return domain.ErrSelfPurchase
		}
		if product.Stock < quantity {
			s.metrics.StockConflict()
			return domain.ErrOutOfStock
		}

		if err := s.ledger.Decrement(ctx, tx, productID, quantity); err != nil {
			if errors.Is(err, productdomain.ErrInsufficientStock) {
				s.metrics.StockConflict()
				return domain.ErrOutOfStock
			}
			return err
		}

		order = &domain.Order{
			ID:         s.genID.Generate().Int64(),
			Reference:  ulid.Make().String(),
			BuyerID:    actor.UserID.Int64(),
			ProductID:  product.ID,
			StoreID:    product.StoreID,
			Quantity:   quantity,
			UnitPrice:  product.Price,
			Currency:   product.Currency,
			TotalPrice: product.Price * quantity,
			Status:     domain.StatusPending,
		}
		return s.repo.Create(ctx, tx, order)
	})
	if txErr != nil {
		s.metrics.OrderPlaced("rejected")
		return nil, txErr
	}

	s.metrics.OrderPlaced("ok")
	s.notifyStoreOwner(ctx, order, notifdomain.Event{
		ActorID:  actor.UserID,
		Category: notifdomain.CategoryOrder,
		Message:  fmt.Sprintf("New order %s received", order.Reference),
		Link:     "/orders/" + strconv.FormatInt(order.ID, 10),
		Metadata: map[string]interface{}{
			"order_id":   strconv.FormatInt(order.ID, 10),
			"product_id": strconv.FormatInt(order.ProductID, 10),
		},
	})

	resp := toResponse(order)
	return &resp, nil
}

// Cancel is the buyer-facing transition to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Response, error) {
	return s.SetStatus(ctx, id, domain.StatusCancelled)
}

// SetStatus moves an order to a terminal state. The transition rules and
// side effects come from the state machine; this method only applies them.
func (s *Service) SetStatus(ctx context.Context, id string, target domain.Status) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var (
		order   *domain.Order
		effects domain.Effects
	)
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		order, err = s.repo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}

		effects, err = domain.Transition(order, target, actor)
		if err != nil {
			return err
		}

		if effects.StockDelta != 0 {
			if err := s.ledger.Increment(ctx, tx, snowflake.ID(order.ProductID), effects.StockDelta); err != nil {
				return err
			}
		}

		order.Status = target
		return s.repo.Update(ctx, tx, order)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.OrderTransition(string(target))
	for _, effect := range effects.Notifications {
		event := notifdomain.Event{
			ActorID:  actor.UserID,
			Category: effect.Category,
			Message:  effect.Message,
			Link:     "/orders/" + strconv.FormatInt(order.ID, 10),
		}
		switch effect.Recipient {
		case domain.RecipientBuyer:
			event.RecipientID = snowflake.ID(order.BuyerID)
			s.notifier.Emit(ctx, event)
		case domain.RecipientArtisan:
			s.notifyStoreOwner(ctx, order, event)
		}
	}

	resp := toResponse(order)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	order, err := s.authorizedOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(order)
	return &resp, nil
}

// Receipt renders the order as a PDF for anyone allowed to view it.
func (s *Service) Receipt(ctx context.Context, id string) ([]byte, error) {
	order, err := s.authorizedOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusCompleted {
		return nil, domain.ErrReceiptUnavailable
	}

	product, err := s.products.FindByID(ctx, s.db, snowflake.ID(order.ProductID))
	if err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, s.db, snowflake.ID(order.StoreID))
	if err != nil {
		return nil, err
	}

	doc := pdf.Receipt{
		Reference:  order.Reference,
		Status:     string(order.Status),
		Quantity:   order.Quantity,
		UnitPrice:  order.UnitPrice,
		TotalPrice: order.TotalPrice,
		Currency:   order.Currency,
		PlacedAt:   order.CreatedAt,
	}
	if product != nil {
		doc.ProductName = product.Name
	}
	if store != nil {
		doc.StoreName = store.Name
	}
	return s.receipts.Render(doc)
}

func (s *Service) ListMine(ctx context.Context) ([]domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	items, err := s.repo.ListByBuyer(ctx, s.db, actor.UserID)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) ListForStore(ctx context.Context) ([]domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}
	if actor.StoreID == 0 {
		return nil, domain.ErrPermissionDenied
	}

	items, err := s.repo.ListByStore(ctx, s.db, actor.StoreID)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

// authorizedOrder loads an order and enforces that the actor is its buyer,
// the owning artisan, or an admin.
func (s *Service) authorizedOrder(ctx context.Context, id string) (*domain.Order, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	switch {
	case actor.Role == authctx.RoleAdmin:
	case actor.UserID.Int64() == order.BuyerID:
	case actor.OwnsStore(snowflake.ID(order.StoreID)):
	default:
		return nil, domain.ErrNotOrderOwner
	}
	return order, nil
}

func (s *Service) notifyStoreOwner(ctx context.Context, order *domain.Order, event notifdomain.Event) {
	store, err := s.stores.FindByID(ctx, s.db, snowflake.ID(order.StoreID))
	if err != nil || store == nil {
		s.log.Warn("store lookup for notification failed",
			zap.Int64("store_id", order.StoreID),
			zap.Error(err),
		)
		return
	}
	event.RecipientID = snowflake.ID(store.OwnerID)
	s.notifier.Emit(ctx, event)
}

func toResponse(order *domain.Order) domain.Response {
	return domain.Response{
		ID:         strconv.FormatInt(order.ID, 10),
		Reference:  order.Reference,
		BuyerID:    strconv.FormatInt(order.BuyerID, 10),
		ProductID:  strconv.FormatInt(order.ProductID, 10),
		StoreID:    strconv.FormatInt(order.StoreID, 10),
		Quantity:   order.Quantity,
		UnitPrice:  order.UnitPrice,
		Currency:   order.Currency,
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
}

func toResponses(items []domain.Order) []domain.Response {
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp
}
