package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authorization"
	favoritedomain "github.com/manosdelsur/feria/internal/favorite/domain"
	followdomain "github.com/manosdelsur/feria/internal/follow/domain"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	orderdomain "github.com/manosdelsur/feria/internal/order/domain"
	productdomain "github.com/manosdelsur/feria/internal/product/domain"
	reviewdomain "github.com/manosdelsur/feria/internal/review/domain"
	storedomain "github.com/manosdelsur/feria/internal/store/domain"
	supportdomain "github.com/manosdelsur/feria/internal/support/domain"
	userdomain "github.com/manosdelsur/feria/internal/user/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, storedomain.ErrInvalidID),
		errors.Is(err, storedomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidStock),
		errors.Is(err, orderdomain.ErrInvalidID),
		errors.Is(err, orderdomain.ErrInvalidStatus),
		errors.Is(err, reviewdomain.ErrInvalidID),
		errors.Is(err, reviewdomain.ErrInvalidRating),
		errors.Is(err, reviewdomain.ErrEmptyResponse),
		errors.Is(err, favoritedomain.ErrInvalidID),
		errors.Is(err, followdomain.ErrInvalidID),
		errors.Is(err, supportdomain.ErrInvalidID),
		errors.Is(err, supportdomain.ErrInvalidSubject),
		errors.Is(err, supportdomain.ErrInvalidMessage),
		errors.Is(err, supportdomain.ErrEmptyResponse):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, storedomain.ErrInvalidActor),
		errors.Is(err, productdomain.ErrInvalidActor),
		errors.Is(err, orderdomain.ErrInvalidActor),
		errors.Is(err, reviewdomain.ErrInvalidActor),
		errors.Is(err, favoritedomain.ErrInvalidActor),
		errors.Is(err, followdomain.ErrInvalidActor),
		errors.Is(err, notifdomain.ErrInvalidActor),
		errors.Is(err, supportdomain.ErrInvalidActor):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, storedomain.ErrNotArtisan),
		errors.Is(err, productdomain.ErrNoStore),
		errors.Is(err, productdomain.ErrNotProductOwner),
		errors.Is(err, orderdomain.ErrNotOrderOwner),
		errors.Is(err, orderdomain.ErrPermissionDenied),
		errors.Is(err, reviewdomain.ErrNotReviewedStore):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, storedomain.ErrStoreExists),
		errors.Is(err, productdomain.ErrProductHasOrders),
		errors.Is(err, productdomain.ErrInsufficientStock),
		errors.Is(err, orderdomain.ErrOutOfStock),
		errors.Is(err, orderdomain.ErrProductUnavailable),
		errors.Is(err, orderdomain.ErrInvalidTransition),
		errors.Is(err, orderdomain.ErrSelfPurchase),
		errors.Is(err, orderdomain.ErrReceiptUnavailable),
		errors.Is(err, reviewdomain.ErrSelfReview),
		errors.Is(err, reviewdomain.ErrDuplicateReview),
		errors.Is(err, reviewdomain.ErrAlreadyResponded),
		errors.Is(err, supportdomain.ErrTicketClosed):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, storedomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, reviewdomain.ErrNotFound),
		errors.Is(err, favoritedomain.ErrNotFound),
		errors.Is(err, followdomain.ErrNotFound),
		errors.Is(err, supportdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// classifyErrorForLog feeds the request logger's error_type/error_code
// fields without rendering a response.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	switch {
	case status >= 500:
		return "internal", payload.Type
	case status >= 400:
		return "client", payload.Type
	default:
		return "", ""
	}
}
