package domain

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Policy names a record-matching strategy.
type Policy string

const (
	PolicyExact     Policy = "exact"     // same calendar date, optional day tolerance
	PolicyMonthDay  Policy = "monthday"  // same month/day in any year
	PolicyYearShift Policy = "yearshift" // same month/day a fixed number of years earlier
	PolicyDayOfYear Policy = "doy"       // nearest day-of-year ordinal
)

// ParsePolicy validates a policy name from configuration or flags.
func ParsePolicy(s string) (Policy, bool) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyExact, PolicyMonthDay, PolicyYearShift, PolicyDayOfYear:
		return p, true
	default:
		return "", false
	}
}

// DefaultYearShift is the canonical five-century lookback for the yearshift
// policy: today's date against the same date in the Joseon dynasty.
const DefaultYearShift = 500

// matchesHint reports whether the record's location contains the hint as a
// case-insensitive substring. Empty hints and empty locations never match.
func matchesHint(r Record, hint string) bool {
	hint = strings.ToLower(strings.TrimSpace(hint))
	loc := strings.ToLower(strings.TrimSpace(r.Location))
	return hint != "" && loc != "" && strings.Contains(loc, hint)
}

// preferLess is the shared tie-break: hint-matching locations first, then
// longer descriptions. It is a strict weak order, so a stable sort over it is
// deterministic for identical input.
func preferLess(a, b Record, hint string) bool {
	am, bm := matchesHint(a, hint), matchesHint(b, hint)
	if am != bm {
		return am
	}
	return utf8.RuneCountInString(a.Description) > utf8.RuneCountInString(b.Description)
}

// BestMatch implements the exact policy: records dated exactly at target win,
// preferring a hint-matching location. With a positive toleranceDays and no
// exact hit, the nearest record within the tolerance wins, ordered by
// (absolute day difference, hint match). Returns false when nothing qualifies.
func BestMatch(records []Record, target time.Time, hint string, toleranceDays int) (Record, bool) {
	var sameDay []Record
	for _, r := range records {
		if SameDate(r.Date, target) {
			sameDay = append(sameDay, r)
		}
	}
	if len(sameDay) > 0 {
		if hint != "" {
			for _, r := range sameDay {
				if matchesHint(r, hint) {
					return r, true
				}
			}
		}
		return sameDay[0], true
	}

	if toleranceDays <= 0 {
		return Record{}, false
	}

	var candidates []Record
	for _, r := range records {
		if absDayDiff(r.Date, target) <= toleranceDays {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return Record{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := absDayDiff(candidates[i].Date, target), absDayDiff(candidates[j].Date, target)
		if di != dj {
			return di < dj
		}
		mi, mj := matchesHint(candidates[i], hint), matchesHint(candidates[j], hint)
		return mi && !mj
	})
	return candidates[0], true
}

// MonthDayMatch returns the preferred record sharing the target's month and
// day, regardless of year.
func MonthDayMatch(records []Record, target time.Time, hint string) (Record, bool) {
	var sameMD []Record
	for _, r := range records {
		if r.Date.Month() == target.Month() && r.Date.Day() == target.Day() {
			sameMD = append(sameMD, r)
		}
	}
	if len(sameMD) == 0 {
		return Record{}, false
	}
	sort.SliceStable(sameMD, func(i, j int) bool { return preferLess(sameMD[i], sameMD[j], hint) })
	return sameMD[0], true
}

// YearShiftMatch returns the preferred record dated exactly shiftYears before
// the target, holding month and day fixed. A shifted date that does not exist
// (Feb 29 into a non-leap year) yields no match.
func YearShiftMatch(records []Record, target time.Time, shiftYears int, hint string) (Record, bool) {
	shifted, ok := MakeDate(target.Year()-shiftYears, int(target.Month()), target.Day())
	if !ok {
		return Record{}, false
	}
	var exact []Record
	for _, r := range records {
		if SameDate(r.Date, shifted) {
			exact = append(exact, r)
		}
	}
	if len(exact) == 0 {
		return Record{}, false
	}
	sort.SliceStable(exact, func(i, j int) bool { return preferLess(exact[i], exact[j], hint) })
	return exact[0], true
}

// NearestByDayOfYear returns the record whose day-of-year ordinal is closest
// to the target's, across all years. The distance wraps around year end, so
// Dec 31 is one day from Jan 1, not 364. A positive maxDiffDays caps the
// allowed ordinal difference; zero or negative means uncapped.
func NearestByDayOfYear(records []Record, target time.Time, maxDiffDays int, hint string) (Record, bool) {
	var candidates []Record
	for _, r := range records {
		if maxDiffDays > 0 && ordinalDiff(target, r.Date) > maxDiffDays {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return Record{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		di := ordinalDiff(target, candidates[i].Date)
		dj := ordinalDiff(target, candidates[j].Date)
		if di != dj {
			return di < dj
		}
		return preferLess(candidates[i], candidates[j], hint)
	})
	return candidates[0], true
}

// ordinalDiff is the circular day-of-year distance between two dates in
// arbitrary years. Leap years make the circumference ambiguous, so ordinal
// 366 is clamped to 365 before wrapping; Dec 31 of a leap year counts as one
// day from Jan 1, the same as in a common year.
func ordinalDiff(a, b time.Time) int {
	d := absInt(clampOrdinal(DayOfYear(a)) - clampOrdinal(DayOfYear(b)))
	if wrap := 365 - d; wrap < d {
		return wrap
	}
	return d
}

func clampOrdinal(doy int) int {
	if doy > 365 {
		return 365
	}
	return doy
}

// Match dispatches to the policy implementations. The tolerance parameter is
// interpreted per policy: day tolerance for exact and doy, year count for
// yearshift (zero means DefaultYearShift), ignored for monthday.
func Match(records []Record, policy Policy, target time.Time, hint string, tolerance int) (Record, bool) {
	switch policy {
	case PolicyExact:
		return BestMatch(records, target, hint, tolerance)
	case PolicyMonthDay:
		return MonthDayMatch(records, target, hint)
	case PolicyYearShift:
		shift := tolerance
		if shift <= 0 {
			shift = DefaultYearShift
		}
		return YearShiftMatch(records, target, shift, hint)
	case PolicyDayOfYear:
		return NearestByDayOfYear(records, target, tolerance, hint)
	default:
		return Record{}, false
	}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
