package domain

import (
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"

	"github.com/manosdelsur/feria/internal/authctx"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
)

func pendingOrder(buyerID, storeID snowflake.ID, qty int64) *Order {
	return &Order{
		ID:        1,
		Reference: "01J0000000000000000000TEST",
		BuyerID:   buyerID.Int64(),
		StoreID:   storeID.Int64(),
		ProductID: 42,
		Quantity:  qty,
		Status:    StatusPending,
	}
}

func TestTransitionCancelRestoresStock(t *testing.T) {
	buyer := snowflake.ID(100)
	store := snowflake.ID(200)
	order := pendingOrder(buyer, store, 2)

	effects, err := Transition(order, StatusCancelled, authctx.Actor{UserID: buyer, Role: authctx.RoleBuyer})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if effects.StockDelta != 2 {
		t.Fatalf("expected stock delta 2, got %d", effects.StockDelta)
	}
	if len(effects.Notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(effects.Notifications))
	}
	if effects.Notifications[0].Recipient != RecipientArtisan {
		t.Fatalf("expected artisan notification, got %s", effects.Notifications[0].Recipient)
	}
	if effects.Notifications[0].Category != notifdomain.CategoryOrder {
		t.Fatalf("unexpected category %s", effects.Notifications[0].Category)
	}
}

func TestTransitionCompleteKeepsStock(t *testing.T) {
	buyer := snowflake.ID(100)
	store := snowflake.ID(200)
	artisan := authctx.Actor{UserID: 300, Role: authctx.RoleArtisan, StoreID: store}
	order := pendingOrder(buyer, store, 1)

	effects, err := Transition(order, StatusCompleted, artisan)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if effects.StockDelta != 0 {
		t.Fatalf("expected no stock delta, got %d", effects.StockDelta)
	}
	if len(effects.Notifications) != 1 || effects.Notifications[0].Recipient != RecipientBuyer {
		t.Fatalf("expected buyer notification, got %+v", effects.Notifications)
	}
}

func TestTransitionRejectRestoresStock(t *testing.T) {
	buyer := snowflake.ID(100)
	store := snowflake.ID(200)
	artisan := authctx.Actor{UserID: 300, Role: authctx.RoleArtisan, StoreID: store}
	order := pendingOrder(buyer, store, 1)

	effects, err := Transition(order, StatusRejected, artisan)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if effects.StockDelta != 1 {
		t.Fatalf("expected stock delta 1, got %d", effects.StockDelta)
	}
	if len(effects.Notifications) != 1 || effects.Notifications[0].Recipient != RecipientBuyer {
		t.Fatalf("expected buyer notification, got %+v", effects.Notifications)
	}
}

func TestTransitionTerminalStateRejected(t *testing.T) {
	buyer := snowflake.ID(100)
	store := snowflake.ID(200)

	for _, from := range []Status{StatusCompleted, StatusCancelled, StatusRejected} {
		order := pendingOrder(buyer, store, 1)
		order.Status = from

		effects, err := Transition(order, StatusCancelled, authctx.Actor{UserID: buyer, Role: authctx.RoleBuyer})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("from %s: expected ErrInvalidTransition, got %v", from, err)
		}
		if len(effects.Notifications) != 0 {
			t.Fatalf("from %s: rejected transition must emit no notifications", from)
		}
	}
}

func TestTransitionRoleGuards(t *testing.T) {
	buyer := snowflake.ID(100)
	store := snowflake.ID(200)
	stranger := authctx.Actor{UserID: 999, Role: authctx.RoleBuyer}
	order := pendingOrder(buyer, store, 1)

	if _, err := Transition(order, StatusCancelled, stranger); !errors.Is(err, ErrNotOrderOwner) {
		t.Fatalf("cancel by stranger: expected ErrNotOrderOwner, got %v", err)
	}
	if _, err := Transition(order, StatusCompleted, authctx.Actor{UserID: buyer, Role: authctx.RoleBuyer}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("complete by buyer: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := Transition(order, StatusRejected, authctx.Actor{UserID: 300, Role: authctx.RoleArtisan, StoreID: 777}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("reject by other artisan: expected ErrPermissionDenied, got %v", err)
	}
}

func TestTransitionAdminOverride(t *testing.T) {
	buyer := snowflake.ID(100)
	store := snowflake.ID(200)
	admin := authctx.Actor{UserID: 1, Role: authctx.RoleAdmin}

	for _, target := range []Status{StatusCancelled, StatusCompleted, StatusRejected} {
		order := pendingOrder(buyer, store, 1)
		if _, err := Transition(order, target, admin); err != nil {
			t.Fatalf("admin %s: %v", target, err)
		}
	}
}

func TestTransitionInvalidTarget(t *testing.T) {
	buyer := snowflake.ID(100)
	order := pendingOrder(buyer, 200, 1)

	if _, err := Transition(order, StatusPending, authctx.Actor{UserID: buyer, Role: authctx.RoleBuyer}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("pending target: expected ErrInvalidStatus, got %v", err)
	}
	if _, err := Transition(order, Status("SHIPPED"), authctx.Actor{UserID: buyer, Role: authctx.RoleBuyer}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("unknown target: expected ErrInvalidStatus, got %v", err)
	}
}
