package logs

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date format (use YYYY-MM-DD or RFC3339)")

// ParseDateRange parses optional filter bounds. A date-only end includes the
// whole day, so the returned end is always exclusive. Reversed bounds are
// swapped.
func ParseDateRange(startStr, endStr *string) (start time.Time, hasStart bool, endExclusive time.Time, hasEnd bool, err error) {
	var endDateOnly bool

	if startStr != nil {
		start, hasStart, _, err = parseBound(*startStr)
		if err != nil {
			return time.Time{}, false, time.Time{}, false, err
		}
	}
	if endStr != nil {
		endExclusive, hasEnd, endDateOnly, err = parseBound(*endStr)
		if err != nil {
			return time.Time{}, false, time.Time{}, false, err
		}
	}

	if hasStart && hasEnd && endExclusive.Before(start) {
		start, endExclusive = endExclusive, start
	}
	if hasEnd && endDateOnly {
		endExclusive = endExclusive.AddDate(0, 0, 1)
	}
	return start, hasStart, endExclusive, hasEnd, nil
}

func parseBound(s string) (t time.Time, ok bool, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false, nil
	}
	if tt, e := time.Parse(time.RFC3339, s); e == nil {
		return tt, true, false, nil
	}
	if tt, e := time.Parse("2006-01-02", s); e == nil {
		return tt, true, true, nil
	}
	return time.Time{}, false, false, ErrInvalidDate
}
