package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/manosdelsur/feria/internal/authctx"
	"github.com/manosdelsur/feria/internal/clock"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	"github.com/manosdelsur/feria/internal/support/domain"
	"github.com/manosdelsur/feria/internal/support/repository"
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

func (n *notifierStub) last() (notifdomain.Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return notifdomain.Event{}, false
	}
	return n.events[len(n.events)-1], true
}

func setup(t *testing.T) (domain.Service, *snowflake.Node, *notifierStub, *clock.FakeClock) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.SupportTicket{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	notifier := &notifierStub{}
	fake := clock.NewFakeClock(time.Date(2026, time.May, 2, 9, 30, 0, 0, time.UTC))
	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		Notifier: notifier,
	})
	return svc, node, notifier, fake
}

func userCtx(node *snowflake.Node) (context.Context, snowflake.ID) {
	id := node.Generate()
	return authctx.WithActor(context.Background(), authctx.Actor{UserID: id, Role: authctx.RoleBuyer}), id
}

func adminCtx(node *snowflake.Node) context.Context {
	return authctx.WithActor(context.Background(), authctx.Actor{UserID: node.Generate(), Role: authctx.RoleAdmin})
}

func TestCreateTicket(t *testing.T) {
	svc, node, _, _ := setup(t)
	ctx, userID := userCtx(node)

	resp, err := svc.Create(ctx, domain.CreateRequest{Subject: " Pedido atrasado ", Message: "No llega hace dos semanas"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Status != domain.StatusOpen {
		t.Fatalf("expected OPEN, got %s", resp.Status)
	}
	if resp.Subject != "Pedido atrasado" {
		t.Fatalf("expected trimmed subject, got %q", resp.Subject)
	}
	if resp.UserID != userID.String() {
		t.Fatalf("expected filer %s, got %s", userID, resp.UserID)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	svc, node, _, _ := setup(t)
	ctx, _ := userCtx(node)

	if _, err := svc.Create(ctx, domain.CreateRequest{Subject: " ", Message: "hola"}); !errors.Is(err, domain.ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
	if _, err := svc.Create(ctx, domain.CreateRequest{Subject: "Tema", Message: "  "}); !errors.Is(err, domain.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestRespondMovesToInProgressAndNotifies(t *testing.T) {
	svc, node, notifier, fake := setup(t)
	ctx, userID := userCtx(node)

	ticket, err := svc.Create(ctx, domain.CreateRequest{Subject: "Duda", Message: "Como cambio mi pedido?"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := svc.Respond(adminCtx(node), ticket.ID, domain.RespondRequest{Response: "Puedes cancelarlo desde tu perfil"})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if resp.Status != domain.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", resp.Status)
	}
	if resp.RespondedAt == nil || !resp.RespondedAt.Equal(fake.Now()) {
		t.Fatalf("expected responded_at %v, got %v", fake.Now(), resp.RespondedAt)
	}

	event, ok := notifier.last()
	if !ok {
		t.Fatalf("expected filer notification")
	}
	if event.RecipientID != userID {
		t.Fatalf("expected recipient %d, got %d", userID, event.RecipientID)
	}
}

func TestRespondClosedTicketRejected(t *testing.T) {
	svc, node, _, _ := setup(t)
	ctx, _ := userCtx(node)

	ticket, err := svc.Create(ctx, domain.CreateRequest{Subject: "Viejo", Message: "Resuelto hace tiempo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Close(adminCtx(node), ticket.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = svc.Respond(adminCtx(node), ticket.ID, domain.RespondRequest{Response: "Tarde"})
	if !errors.Is(err, domain.ErrTicketClosed) {
		t.Fatalf("expected ErrTicketClosed, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	svc, node, _, _ := setup(t)
	ctx, _ := userCtx(node)

	ticket, err := svc.Create(ctx, domain.CreateRequest{Subject: "Cerrar", Message: "Listo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 2; i++ {
		resp, err := svc.Close(adminCtx(node), ticket.ID)
		if err != nil {
			t.Fatalf("close #%d: %v", i+1, err)
		}
		if resp.Status != domain.StatusClosed {
			t.Fatalf("close #%d: expected CLOSED, got %s", i+1, resp.Status)
		}
	}
}

func TestListMineScopedToFiler(t *testing.T) {
	svc, node, _, _ := setup(t)
	ctxA, _ := userCtx(node)
	ctxB, _ := userCtx(node)

	if _, err := svc.Create(ctxA, domain.CreateRequest{Subject: "De A", Message: "mensaje"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctxB, domain.CreateRequest{Subject: "De B", Message: "mensaje"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := svc.ListMine(ctxA)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].Subject != "De A" {
		t.Fatalf("expected only own tickets, got %+v", mine)
	}
}
