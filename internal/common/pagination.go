package common

import (
	"net/http"
	"strconv"
)

// Pagination is the meta block attached to list responses.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Total   int64 `json:"total"`
}

// ParsePagination reads page and limit query parameters, falling back to
// page 1 and the given default page size.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	return
}

// PageMeta builds the pagination meta for a list response.
func PageMeta(page, perPage int, total int64) Pagination {
	return Pagination{Page: page, PerPage: perPage, Total: total}
}
