package shared

import (
	"net/http"
	"strconv"
	"strings"
)

// Period reads month and year query parameters. Missing values fall back to
// the supplied defaults; malformed values are reported on v.
func Period(r *http.Request, v *Validator, defMonth, defYear int) (int, int) {
	q := r.URL.Query()
	return intParam(v, "month", q.Get("month"), defMonth), intParam(v, "year", q.Get("year"), defYear)
}

func intParam(v *Validator, field, raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.Add(field, "must be an integer")
		return def
	}
	return n
}
