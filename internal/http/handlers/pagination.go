package handlers

import (
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
)

// listQuery defines the shared pagination and sorting query parameters.
type listQuery struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=10"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder,default=desc"`
}

// normalize bounds page and limit and validates the sort column against the
// resource's allow-list. Unknown columns fall back to the default.
func (q *listQuery) normalize(allowedSort map[string]bool, defaultSort string) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	if q.SortBy == "" || !allowedSort[q.SortBy] {
		q.SortBy = defaultSort
	}
	if order := strings.ToLower(q.SortOrder); order == "asc" {
		q.SortOrder = "asc"
	} else {
		q.SortOrder = "desc"
	}
}

// order returns the ORDER BY clause for the normalized query.
func (q *listQuery) order() string {
	return fmt.Sprintf("%s %s", q.SortBy, strings.ToUpper(q.SortOrder))
}

// offset returns the row offset for the normalized query.
func (q *listQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

// pagination describes the page window of a list response.
type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// paginated is the list response payload under the envelope's data field.
type paginated struct {
	Items      any        `json:"items"`
	Pagination pagination `json:"pagination"`
}

// newPaginated assembles a list payload from the query and row count.
func newPaginated(items any, q *listQuery, total int64) paginated {
	return paginated{
		Items: items,
		Pagination: pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(q.Limit))),
		},
	}
}

// paginate applies the query window to a gorm statement.
func paginate(db *gorm.DB, q *listQuery) *gorm.DB {
	return db.Order(q.order()).Offset(q.offset()).Limit(q.Limit)
}
