package persistence

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"gorm.io/gorm/clause"
)

// documentSortColumns are the columns a document list may be ordered by
var documentSortColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"number":     true,
	"issue_date": true,
	"due_date":   true,
	"total":      true,
	"balance":    true,
	"status":     true,
}

// orderBy turns the filter's ordering into a quoted ORDER BY column. Columns
// outside allowed fall back to def; anything but "asc" sorts descending.
func orderBy(f shared.Filter, allowed map[string]bool, def string) clause.OrderByColumn {
	column := strings.TrimSpace(f.OrderBy)
	if !allowed[column] {
		column = def
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: column},
		Desc:   !strings.EqualFold(strings.TrimSpace(f.OrderDir), "asc"),
	}
}
