package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invoicely/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate is the row lock used on read-modify-write paths. Dialects without
// row locks (sqlite) drop the clause.
var forUpdate = clause.Locking{Strength: "UPDATE"}

// findErr maps gorm.ErrRecordNotFound to a not-found domain error and wraps the rest
func findErr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(entity)
	}
	return fmt.Errorf("failed to load %s: %w", strings.ToLower(entity), err)
}

// paginate applies a whitelisted order and the page window
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	filter = filter.Normalize()
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	return query.Order(field + " " + dir + ", id " + dir).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}

// likePattern builds a case-insensitive LIKE pattern; callers compare against LOWER(column)
func likePattern(search string) string {
	search = strings.ToLower(strings.TrimSpace(search))
	search = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(search)
	return "%" + search + "%"
}
