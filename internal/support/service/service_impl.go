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
	"github.com/manosdelsur/feria/internal/clock"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	"github.com/manosdelsur/feria/internal/support/domain"
	"github.com/manosdelsur/feria/internal/support/repository"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     repository.Repository
	Notifier notifdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     repository.Repository
	notifier notifdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("support.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		notifier: p.Notifier,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, domain.ErrInvalidSubject
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, domain.ErrInvalidMessage
	}

	ticket := &domain.SupportTicket{
		ID:      s.genID.Generate().Int64(),
		UserID:  actor.UserID.Int64(),
		Subject: subject,
		Message: message,
		Status:  domain.StatusOpen,
	}
	if err := s.repo.Create(ctx, s.db, ticket); err != nil {
		return nil, err
	}

	resp := toResponse(ticket)
	return &resp, nil
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
	return toResponses(items), nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Response, error) {
	items, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

// Respond records the admin's answer and moves the ticket to IN_PROGRESS.
// The filer is notified.
func (s *Service) Respond(ctx context.Context, id string, req domain.RespondRequest) (*domain.Response, error) {
	actor, ok := authctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidActor
	}

	text := strings.TrimSpace(req.Response)
	if text == "" {
		return nil, domain.ErrEmptyResponse
	}

	ticket, err := s.findTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.StatusClosed {
		return nil, domain.ErrTicketClosed
	}

	now := s.clock.Now()
	ticket.Response = &text
	ticket.RespondedAt = &now
	ticket.Status = domain.StatusInProgress
	if err := s.repo.Update(ctx, s.db, ticket); err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, notifdomain.Event{
		RecipientID: snowflake.ID(ticket.UserID),
		ActorID:     actor.UserID,
		Category:    notifdomain.CategoryGeneral,
		Message:     "Support responded to your ticket: " + ticket.Subject,
		Link:        "/support/" + strconv.FormatInt(ticket.ID, 10),
	})

	resp := toResponse(ticket)
	return &resp, nil
}

func (s *Service) Close(ctx context.Context, id string) (*domain.Response, error) {
	ticket, err := s.findTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if ticket.Status != domain.StatusClosed {
		ticket.Status = domain.StatusClosed
		if err := s.repo.Update(ctx, s.db, ticket); err != nil {
			return nil, err
		}
	}

	resp := toResponse(ticket)
	return &resp, nil
}

func (s *Service) findTicket(ctx context.Context, id string) (*domain.SupportTicket, error) {
	ticketID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	ticket, err := s.repo.FindByID(ctx, s.db, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, domain.ErrNotFound
	}
	return ticket, nil
}

func toResponse(ticket *domain.SupportTicket) domain.Response {
	resp := domain.Response{
		ID:          strconv.FormatInt(ticket.ID, 10),
		UserID:      strconv.FormatInt(ticket.UserID, 10),
		Subject:     ticket.Subject,
		Message:     ticket.Message,
		Status:      ticket.Status,
		RespondedAt: ticket.RespondedAt,
		CreatedAt:   ticket.CreatedAt,
	}
	if ticket.Response != nil {
		resp.Response = *ticket.Response
	}
	return resp
}

func toResponses(items []domain.SupportTicket) []domain.Response {
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp
}
