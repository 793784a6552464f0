// Package option provides composable query modifiers for gorm statements.
// Repositories accept a variadic list of QueryOption so services can layer
// filtering, ordering and cursor pagination without leaking SQL upward.
package option

import (
	"fmt"
	"time"

	"github.com/ledgerwell/praxis/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// Operator names a comparison usable in a Condition.
type Operator string

const (
	EQ  Operator = "eq"
	NEQ Operator = "neq"
	GT  Operator = "gt"
	GTE Operator = "gte"
	LT  Operator = "lt"
	LTE Operator = "lte"
)

// Condition is a single field comparison. Field must be a column name the
// caller controls, never raw client input.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if cond.Field == "" {
			return db
		}
		switch cond.Operator {
		case EQ:
			return db.Where(fmt.Sprintf("%s = ?", cond.Field), cond.Value)
		case NEQ:
			return db.Where(fmt.Sprintf("%s <> ?", cond.Field), cond.Value)
		case GT:
			return db.Where(fmt.Sprintf("%s > ?", cond.Field), cond.Value)
		case GTE:
			return db.Where(fmt.Sprintf("%s >= ?", cond.Field), cond.Value)
		case LT:
			return db.Where(fmt.Sprintf("%s < ?", cond.Field), cond.Value)
		case LTE:
			return db.Where(fmt.Sprintf("%s <= ?", cond.Field), cond.Value)
		default:
			return db
		}
	})
}

// QuerySortBy describes a requested ordering. Allow whitelists sortable
// columns; anything outside it falls back to created_at.
type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{SortBy: sortBy, OrderBy: orderBy, Allow: allow}
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := sort.SortBy
		if column == "" || !sort.Allow[column] {
			column = "created_at"
		}
		direction := "desc"
		if sort.OrderBy == "asc" {
			direction = "asc"
		}
		return db.Order(fmt.Sprintf("%s %s, id %s", column, direction, direction))
	})
}

// ApplyPagination applies a keyset cursor and fetches one extra row so the
// caller can detect a following page via pagination.BuildCursorPageInfo.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		limit := page.PageSize
		if limit <= 0 {
			limit = 20
		}
		if limit > 250 {
			limit = 250
		}

		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil && cursor.CreatedAt != "" {
				if ts, perr := time.Parse(time.RFC3339, cursor.CreatedAt); perr == nil {
					db = db.Where(
						"created_at < ? OR (created_at = ? AND id < ?)",
						ts, ts, cursor.ID,
					)
				}
			}
		}

		return db.Limit(limit + 1)
	})
}
