package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type sortBy struct {
	clause string
}

func (o sortBy) Apply(stmt *gorm.DB) *gorm.DB {
	if o.clause == "" {
		return stmt
	}
	return stmt.Order(o.clause)
}

// WithSortBy orders by a pre-validated clause; empty clause is a no-op.
func WithSortBy(clause string) QueryOption {
	return sortBy{clause: clause}
}

// WithQuerySortBy builds an order clause from user-supplied sort_by/order_by
// values, restricted to the allowed column set. Unknown columns fall back to
// created_at DESC.
func WithQuerySortBy(field, direction string, allowed map[string]bool) string {
	field = strings.TrimSpace(strings.ToLower(field))
	if !allowed[field] {
		field = "created_at"
	}
	direction = strings.TrimSpace(strings.ToUpper(direction))
	if direction != "ASC" && direction != "DESC" {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s", field, direction)
}

type limit struct {
	n int
}

func (o limit) Apply(stmt *gorm.DB) *gorm.DB {
	if o.n <= 0 {
		return stmt
	}
	return stmt.Limit(o.n)
}

// WithLimit caps the result set; non-positive values are a no-op.
func WithLimit(n int) QueryOption {
	return limit{n: n}
}
