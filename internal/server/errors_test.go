package server

import (
	"errors"
	"net/http"
	"testing"

	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	orderdomain "github.com/manosdelsur/feria/internal/order/domain"
	productdomain "github.com/manosdelsur/feria/internal/product/domain"
	reviewdomain "github.com/manosdelsur/feria/internal/review/domain"
	storedomain "github.com/manosdelsur/feria/internal/store/domain"
	supportdomain "github.com/manosdelsur/feria/internal/support/domain"
)

func TestMapErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"nil", nil, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"invalid request", invalidRequestError(), http.StatusBadRequest},
		{"invalid rating", reviewdomain.ErrInvalidRating, http.StatusBadRequest},
		{"invalid order status", orderdomain.ErrInvalidStatus, http.StatusBadRequest},
		{"empty response", reviewdomain.ErrEmptyResponse, http.StatusBadRequest},
		{"missing actor", orderdomain.ErrInvalidActor, http.StatusUnauthorized},
		{"notification actor", notifdomain.ErrInvalidActor, http.StatusUnauthorized},
		{"not artisan", storedomain.ErrNotArtisan, http.StatusForbidden},
		{"not order owner", orderdomain.ErrNotOrderOwner, http.StatusForbidden},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"store exists", storedomain.ErrStoreExists, http.StatusConflict},
		{"out of stock", orderdomain.ErrOutOfStock, http.StatusConflict},
		{"self purchase", orderdomain.ErrSelfPurchase, http.StatusConflict},
		{"invalid transition", orderdomain.ErrInvalidTransition, http.StatusConflict},
		{"receipt unavailable", orderdomain.ErrReceiptUnavailable, http.StatusConflict},
		{"duplicate review", reviewdomain.ErrDuplicateReview, http.StatusConflict},
		{"already responded", reviewdomain.ErrAlreadyResponded, http.StatusConflict},
		{"ticket closed", supportdomain.ErrTicketClosed, http.StatusConflict},
		{"product has orders", productdomain.ErrProductHasOrders, http.StatusConflict},
		{"store missing", storedomain.ErrNotFound, http.StatusNotFound},
		{"product missing", productdomain.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		status, _ := mapError(tc.err)
		if status != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, status)
		}
	}
}

func TestMapErrorValidationPayload(t *testing.T) {
	_, payload := mapError(productdomain.ErrInvalidPrice)
	if payload.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %s", payload.Type)
	}
	if len(payload.Errors) != 1 || payload.Errors[0].Code != "invalid_product_price" {
		t.Fatalf("unexpected validation detail: %+v", payload.Errors)
	}
	if payload.Errors[0].Field != "product_price" {
		t.Fatalf("expected field product_price, got %s", payload.Errors[0].Field)
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	kind, code := classifyErrorForLog(orderdomain.ErrOutOfStock)
	if kind != "client" || code != "conflict" {
		t.Fatalf("expected client/conflict, got %s/%s", kind, code)
	}

	kind, code = classifyErrorForLog(errors.New("boom"))
	if kind != "internal" || code != "internal_error" {
		t.Fatalf("expected internal/internal_error, got %s/%s", kind, code)
	}

	if kind, _ := classifyErrorForLog(nil); kind != "" {
		t.Fatalf("nil error must not classify, got %s", kind)
	}
}
