package persistence

import (
	"strings"

	"github.com/venpus/mjshop-sub003/internal/domain/shared"
	"gorm.io/gorm"
)

// ordering is the set of columns a list endpoint may sort by. Client input never reaches
// the ORDER BY clause unless it names one of these columns.
type ordering struct {
	columns  []string
	fallback string
}

func newOrdering(fallback string, columns ...string) ordering {
	return ordering{columns: append(columns, fallback), fallback: fallback}
}

var (
	purchaseOrderOrdering = newOrdering("created_at",
		"id", "updated_at", "order_number", "product_name", "factory_name", "ordered_quantity", "order_date")
	packingListOrdering = newOrdering("shipment_date",
		"id", "created_at", "updated_at", "code", "logistics_company", "warehouse_arrival_date")
	movementOrdering = newOrdering("recorded_at", "kind", "delta", "order_version")
)

// column returns requested when it is allowed, the fallback otherwise
func (o ordering) column(requested string) string {
	requested = strings.TrimSpace(requested)
	for _, c := range o.columns {
		if c == requested {
			return c
		}
	}
	return o.fallback
}

// direction defaults to newest first
func direction(requested string) string {
	if strings.EqualFold(strings.TrimSpace(requested), "asc") {
		return "ASC"
	}
	return "DESC"
}

// apply adds ORDER BY and paging. Ties are broken by id so pages stay stable.
func (o ordering) apply(db *gorm.DB, filter shared.Filter) *gorm.DB {
	col := o.column(filter.OrderBy)
	db = db.Order(col + " " + direction(filter.OrderDir))
	if col != "id" {
		db = db.Order("id ASC")
	}
	if filter.PageSize > 0 {
		db = db.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return db
}

// searchPattern returns a LIKE pattern for a case-insensitive contains match
func searchPattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
