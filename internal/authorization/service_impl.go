package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authctx"
)

//go:embed model.conf
var modelText string

const (
	ObjectStore        = "store"
	ObjectProduct      = "product"
	ObjectOrder        = "order"
	ObjectReview       = "review"
	ObjectFavorite     = "favorite"
	ObjectNotification = "notification"
	ObjectSupport      = "support"
)

const (
	ActionStoreCreate  = "store.create"
	ActionStoreView    = "store.view"
	ActionStoreFollow  = "store.follow"
	ActionStoreApprove = "store.approve"

	ActionProductView   = "product.view"
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"
	ActionProductHide   = "product.hide"
	ActionProductDelete = "product.delete"

	ActionOrderPlace   = "order.place"
	ActionOrderView    = "order.view"
	ActionOrderCancel  = "order.cancel"
	ActionOrderFulfill = "order.fulfill"

	ActionReviewCreate   = "review.create"
	ActionReviewRespond  = "review.respond"
	ActionReviewModerate = "review.moderate"

	ActionFavoriteToggle = "favorite.toggle"

	ActionNotificationView = "notification.view"

	ActionSupportCreate  = "support.create"
	ActionSupportRespond = "support.respond"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

type Service interface {
	Authorize(ctx context.Context, actor authctx.Actor, object string, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

// Authorize checks the actor's role against the seeded policy table. The
// subject-to-role grouping is written through on first sight of a subject.
func (s *ServiceImpl) Authorize(ctx context.Context, actor authctx.Actor, object string, action string) error {
	if actor.UserID == 0 || !actor.Role.Valid() {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("user:%s", actor.UserID.String())
	roleName := fmt.Sprintf("role:%s", actor.Role)
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) ensureGrouping(subject, roleName string) error {
	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	// Stale groupings from a role change are dropped first.
	if _, err := s.enforcer.RemoveFilteredGroupingPolicy(0, subject); err != nil {
		return err
	}
	if _, err := s.enforcer.AddGroupingPolicy(subject, roleName); err != nil {
		return err
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Buyer permissions
		{"role:buyer", ObjectOrder, ActionOrderPlace},
		{"role:buyer", ObjectOrder, ActionOrderView},
		{"role:buyer", ObjectOrder, ActionOrderCancel},
		{"role:buyer", ObjectStore, ActionStoreView},
		{"role:buyer", ObjectStore, ActionStoreFollow},
		{"role:buyer", ObjectProduct, ActionProductView},
		{"role:buyer", ObjectReview, ActionReviewCreate},
		{"role:buyer", ObjectFavorite, ActionFavoriteToggle},
		{"role:buyer", ObjectNotification, ActionNotificationView},
		{"role:buyer", ObjectSupport, ActionSupportCreate},

		// Artisan permissions
		{"role:artisan", ObjectOrder, ActionOrderPlace},
		{"role:artisan", ObjectOrder, ActionOrderView},
		{"role:artisan", ObjectOrder, ActionOrderCancel},
		{"role:artisan", ObjectOrder, ActionOrderFulfill},
		{"role:artisan", ObjectStore, ActionStoreCreate},
		{"role:artisan", ObjectStore, ActionStoreView},
		{"role:artisan", ObjectStore, ActionStoreFollow},
		{"role:artisan", ObjectProduct, ActionProductView},
		{"role:artisan", ObjectProduct, ActionProductCreate},
		{"role:artisan", ObjectProduct, ActionProductUpdate},
		{"role:artisan", ObjectProduct, ActionProductHide},
		{"role:artisan", ObjectProduct, ActionProductDelete},
		{"role:artisan", ObjectReview, ActionReviewCreate},
		{"role:artisan", ObjectReview, ActionReviewRespond},
		{"role:artisan", ObjectFavorite, ActionFavoriteToggle},
		{"role:artisan", ObjectNotification, ActionNotificationView},
		{"role:artisan", ObjectSupport, ActionSupportCreate},

		// Admin permissions
		{"role:admin", ObjectOrder, ActionOrderPlace},
		{"role:admin", ObjectOrder, ActionOrderView},
		{"role:admin", ObjectOrder, ActionOrderCancel},
		{"role:admin", ObjectOrder, ActionOrderFulfill},
		{"role:admin", ObjectStore, ActionStoreCreate},
		{"role:admin", ObjectStore, ActionStoreView},
		{"role:admin", ObjectStore, ActionStoreFollow},
		{"role:admin", ObjectStore, ActionStoreApprove},
		{"role:admin", ObjectProduct, ActionProductView},
		{"role:admin", ObjectProduct, ActionProductCreate},
		{"role:admin", ObjectProduct, ActionProductUpdate},
		{"role:admin", ObjectProduct, ActionProductHide},
		{"role:admin", ObjectProduct, ActionProductDelete},
		{"role:admin", ObjectReview, ActionReviewCreate},
		{"role:admin", ObjectReview, ActionReviewRespond},
		{"role:admin", ObjectReview, ActionReviewModerate},
		{"role:admin", ObjectFavorite, ActionFavoriteToggle},
		{"role:admin", ObjectNotification, ActionNotificationView},
		{"role:admin", ObjectSupport, ActionSupportCreate},
		{"role:admin", ObjectSupport, ActionSupportRespond},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
