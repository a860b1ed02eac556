package shared

import (
	"fmt"
	"strconv"
	"time"
)

// ParseDate reads a calendar day as YYYY-MM-DD. RFC3339 input is accepted
// and truncated to its UTC day since entries carry no time of day.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		parsed = parsed.UTC()
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(time.DateOnly, value)
}

// ParseDay reads a day-of-month path value.
func ParseDay(raw string) (int, error) {
	day, err := strconv.Atoi(raw)
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("day %q must be between 1 and 31", raw)
	}
	return day, nil
}
