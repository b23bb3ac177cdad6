package domain

import (
	"fmt"

	"github.com/manosdelsur/feria/internal/authctx"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
)

// Recipient names who a transition effect notifies, resolved to a concrete
// user ID by the caller.
type Recipient string

const (
	RecipientBuyer   Recipient = "buyer"
	RecipientArtisan Recipient = "artisan"
)

// NotificationEffect is a notification the transition requires, expressed
// against the order's parties rather than raw user IDs.
type NotificationEffect struct {
	Recipient Recipient
	Category  notifdomain.Category
	Message   string
}

// Effects is everything a transition changes besides the status column.
// StockDelta is applied to the order's product inside the same transaction.
type Effects struct {
	StockDelta    int64
	Notifications []NotificationEffect
}

// Transition validates a status change and returns its side effects without
// touching storage. From state must be PENDING; every target is terminal.
//
// Role rules: the buyer who placed the order may cancel it; the artisan who
// owns the store may complete or reject it; admins may do any of the three.
func Transition(order *Order, target Status, actor authctx.Actor) (Effects, error) {
	if order == nil {
		return Effects{}, ErrNotFound
	}
	if !target.Valid() || target == StatusPending {
		return Effects{}, ErrInvalidStatus
	}
	if order.Status.Terminal() {
		return Effects{}, ErrInvalidTransition
	}

	isAdmin := actor.Role == authctx.RoleAdmin
	isBuyer := actor.UserID.Int64() == order.BuyerID
	isSeller := actor.StoreID != 0 && actor.StoreID.Int64() == order.StoreID

	switch target {
	case StatusCancelled:
		if !isBuyer && !isAdmin {
			return Effects{}, ErrNotOrderOwner
		}
		return Effects{
			StockDelta: order.Quantity,
			Notifications: []NotificationEffect{{
				Recipient: RecipientArtisan,
				Category:  notifdomain.CategoryOrder,
				Message:   fmt.Sprintf("Order %s was cancelled by the buyer", order.Reference),
			}},
		}, nil

	case StatusCompleted:
		if !isSeller && !isAdmin {
			return Effects{}, ErrPermissionDenied
		}
		return Effects{
			Notifications: []NotificationEffect{{
				Recipient: RecipientBuyer,
				Category:  notifdomain.CategoryOrder,
				Message:   fmt.Sprintf("Order %s was completed", order.Reference),
			}},
		}, nil

	case StatusRejected:
		if !isSeller && !isAdmin {
			return Effects{}, ErrPermissionDenied
		}
		return Effects{
			StockDelta: order.Quantity,
			Notifications: []NotificationEffect{{
				Recipient: RecipientBuyer,
				Category:  notifdomain.CategoryOrder,
				Message:   fmt.Sprintf("Order %s was rejected by the store", order.Reference),
			}},
		}, nil
	}

	return Effects{}, ErrInvalidStatus
}
