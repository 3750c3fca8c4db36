package postgres

import "gorm.io/gorm"

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// applyPaginationAndSort constrains paging and only sorts by columns
// the caller whitelists.
func applyPaginationAndSort(query *gorm.DB, limit, offset int, sortBy, sortOrder string, sortable map[string]bool) *gorm.DB {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	if sortBy == "" || !sortable[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	return query.Order(sortBy + " " + sortOrder).Limit(limit).Offset(offset)
}
