package helper_util

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Standard string layouts tried in order before the compact device format.
var standardLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// ParseTimestamp normalizes the heterogeneous timestamp shapes the
// backend and the enforcer handhelds produce into a time.Time:
//
//  1. nil → now
//  2. an object bearing an epoch-seconds field (seconds or _seconds)
//  3. a native time.Time (zero value falls back to now)
//  4. a standard date string
//  5. the compact handheld format "MM-D-YY HH.MM.SS", also accepting
//     "/" and ":" separators and four-digit years
//  6. anything else → now
//
// It never returns an error: display code must not crash on a
// malformed timestamp.
func ParseTimestamp(value interface{}) time.Time {
	return ParseTimestampAt(value, time.Now)
}

// ParseTimestampAt is ParseTimestamp with an injectable "current
// moment" used as the fallback.
func ParseTimestampAt(value interface{}, now func() time.Time) time.Time {
	if value == nil {
		return now()
	}

	if secs, ok := epochSeconds(value); ok {
		return time.Unix(secs, 0)
	}

	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return now()
		}
		return v
	case *time.Time:
		if v == nil || v.IsZero() {
			return now()
		}
		return *v
	case string:
		if t, ok := parseString(v); ok {
			return t
		}
		return now()
	}

	return now()
}

// epochSeconds extracts a seconds-like numeric field from server
// timestamp objects, which arrive as decoded JSON maps.
func epochSeconds(value interface{}) (int64, bool) {
	m, ok := value.(map[string]interface{})
	if !ok {
		return 0, false
	}
	for _, key := range []string{"seconds", "_seconds"} {
		raw, present := m[key]
		if !present {
			continue
		}
		switch n := raw.(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case int:
			return int64(n), true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range standardLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return parseCompact(s)
}

// parseCompact handles the handheld device format: a date part and a
// time part joined by a single space, e.g. "12-4-25 14.30.05". The
// date splits on "-" or "/" into month/day/year (two-digit years are
// 2000-based); the time splits on "." or ":" into hour/minute and an
// optional second.
func parseCompact(s string) (time.Time, bool) {
	parts := strings.SplitN(s, " ", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}

	dateFields := strings.FieldsFunc(parts[0], func(r rune) bool { return r == '-' || r == '/' })
	if len(dateFields) != 3 {
		return time.Time{}, false
	}
	timeFields := strings.FieldsFunc(parts[1], func(r rune) bool { return r == '.' || r == ':' })
	if len(timeFields) != 2 && len(timeFields) != 3 {
		return time.Time{}, false
	}

	month, err1 := strconv.Atoi(dateFields[0])
	day, err2 := strconv.Atoi(dateFields[1])
	year, err3 := strconv.Atoi(dateFields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}

	hour, err1 := strconv.Atoi(timeFields[0])
	minute, err2 := strconv.Atoi(timeFields[1])
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}
	second := 0
	if len(timeFields) == 3 {
		if second, err1 = strconv.Atoi(timeFields[2]); err1 != nil {
			return time.Time{}, false
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), true
}

// FormatTimestamp renders a normalized timestamp for table output.
func FormatTimestamp(value interface{}) string {
	return ParseTimestamp(value).Format("2006-01-02 15:04")
}
