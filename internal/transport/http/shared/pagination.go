package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset, clamping limit to maxLimit.
// Malformed values are reported on v when it is non-nil and otherwise
// fall back to the defaults.
func ParsePagination(r *http.Request, v *Validator, defaultLimit, maxLimit int) Pagination {
	page := Pagination{Limit: defaultLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Limit = n
		} else {
			v.Add("limit", "must be a positive integer")
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			page.Offset = n
		} else {
			v.Add("offset", "must be a non-negative integer")
		}
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page
}

// SetTotal exposes the unpaginated row count of a list response.
func SetTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}
