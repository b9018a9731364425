package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the strict cell formats accepted before falling back to the
// permissive parser. Order matters: the first successful layout wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"20060102",
}

// looseDateRe matches a year-month-day sequence with arbitrary separators,
// e.g. "1823년 7월 15일" or "1823-07-15 00:00:00".
var looseDateRe = regexp.MustCompile(`(\d{4})\D+(\d{1,2})\D+(\d{1,2})`)

// ParseCellDate resolves a raw cell value to a calendar date. It tries, in
// order: a value that already carries a date, the strict layouts in
// dateLayouts, and a permissive last-resort parse. The boolean is false when
// no rule succeeds.
func ParseCellDate(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return time.Time{}, false
		}
		return midnight(t), true
	}

	s := strings.TrimSpace(cellString(v))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), true
		}
	}

	return parseLooseDate(s)
}

// parseLooseDate is the last-resort parser for date strings that no strict
// layout accepts: RFC 3339 timestamps, then any year-month-day digit sequence.
func parseLooseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return midnight(t), true
	}

	m := looseDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return MakeDate(year, month, day)
}

// MakeDate builds a UTC-midnight date and reports whether the components form
// a valid calendar date. time.Date normalizes overflow (Feb 30 → Mar 2), so
// validity is checked by comparing the components back.
func MakeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DayOfYear returns the 1-based ordinal of the date within its own year,
// used for cross-year proximity comparisons.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// absDayDiff returns the absolute difference between two UTC-midnight dates
// in whole days.
func absDayDiff(a, b time.Time) int {
	d := int(a.Sub(b) / (24 * time.Hour))
	if d < 0 {
		return -d
	}
	return d
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// cellString renders a raw cell value as text. Floats use the shortest exact
// representation so spreadsheet numerics like 1525.0 become "1525".
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return ""
	}
}

// leadingInt extracts the integer from the first whitespace-separated token
// of a cell, e.g. "1823 (계미)" → 1823.
func leadingInt(v any) (int, bool) {
	fields := strings.Fields(cellString(v))
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return n, true
}
