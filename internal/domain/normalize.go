package domain

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// ColumnRole identifies what a physical column contributes to a Record.
type ColumnRole string

const (
	RoleDate        ColumnRole = "date"
	RoleYear        ColumnRole = "year"
	RoleMonth       ColumnRole = "month"
	RoleDay         ColumnRole = "day"
	RoleLocation    ColumnRole = "location"
	RoleDescription ColumnRole = "description"
)

// roleRule maps a ColumnRole to its known header aliases and token-subset
// fallbacks. Aliases are matched first, in order, against the normalized
// header; token sets then qualify any header containing every token of a set,
// in any order. New spellings are added here, not in control flow.
type roleRule struct {
	role      ColumnRole
	aliases   []string
	tokenSets [][]string
}

var roleRules = []roleRule{
	{
		role:    RoleDate,
		aliases: []string{"date", "날짜", "양력", "양력날짜", "양력일자", "gregorian_date", "solar_date"},
	},
	{
		role:      RoleYear,
		aliases:   []string{"year", "gregorian_year", "ad_year", "서기년", "양력년"},
		tokenSets: [][]string{{"서기력", "년"}, {"양력", "년"}},
	},
	{
		role:      RoleMonth,
		aliases:   []string{"month", "gregorian_month", "ad_month", "서기월", "양력월"},
		tokenSets: [][]string{{"서기력", "월"}, {"양력", "월"}},
	},
	{
		role:      RoleDay,
		aliases:   []string{"day", "gregorian_day", "ad_day", "서기일", "양력일"},
		tokenSets: [][]string{{"서기력", "일"}, {"양력", "일"}},
	},
	{
		role:      RoleLocation,
		aliases:   []string{"location", "지역", "지명", "place", "장소"},
		tokenSets: [][]string{{"장소"}, {"지명"}, {"지역"}},
	},
	{
		role: RoleDescription,
		aliases: []string{
			"weather", "기상", "기상현상", "날씨", "현상", "내용", "발췌",
			"기사내용", "본문", "원문", "번역", "기사", "텍스트",
		},
	},
}

// nonKeyRe strips everything that is not an ASCII alphanumeric or a Hangul
// syllable, so "양력 날짜(그레고리력)" and "양력날짜" normalize identically.
var nonKeyRe = regexp.MustCompile(`[^0-9a-z\x{ac00}-\x{d7a3}]+`)

func normalizeKey(s string) string {
	return nonKeyRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// hangulRe detects at least one Hangul syllable, for the per-row description
// fallback.
var hangulRe = regexp.MustCompile(`[\x{ac00}-\x{d7a3}]`)

// Stats summarizes one normalization pass for diagnostics. Dropped rows are
// counted, never fatal.
type Stats struct {
	Rows    int
	Dropped int
	Roles   map[ColumnRole]string
}

// ResolveColumns maps column roles to physical column names using the ordered
// rule table: alias lookup first, token-subset fallback second, first
// qualifying column in table order wins. Year/month/day are only consulted
// when no direct date column exists; absent optional roles are simply missing
// from the result.
func ResolveColumns(t *Table) map[ColumnRole]string {
	roles := make(map[ColumnRole]string)
	for _, rule := range roleRules {
		switch rule.role {
		case RoleYear, RoleMonth, RoleDay:
			if _, ok := roles[RoleDate]; ok {
				continue
			}
		}
		if col, ok := resolveRule(t.Columns, rule); ok {
			roles[rule.role] = col
		}
	}
	return roles
}

func resolveRule(columns []string, rule roleRule) (string, bool) {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = normalizeKey(c)
	}

	for _, alias := range rule.aliases {
		want := normalizeKey(alias)
		if want == "" {
			continue
		}
		for i, key := range keys {
			if key == want {
				return columns[i], true
			}
		}
	}

	for _, tokens := range rule.tokenSets {
		for i, key := range keys {
			if containsAllTokens(key, tokens) {
				return columns[i], true
			}
		}
	}

	return "", false
}

func containsAllTokens(key string, tokens []string) bool {
	for _, tok := range tokens {
		want := normalizeKey(tok)
		if want == "" {
			continue
		}
		if !strings.Contains(key, want) {
			return false
		}
	}
	return true
}

// Normalize converts a raw table into the sorted record sequence the match
// engine consumes. Rows whose date cannot be resolved are dropped and counted
// in Stats. A table with no usable date source fails with *SchemaError.
func Normalize(t *Table) ([]Record, Stats, error) {
	roles := ResolveColumns(t)
	stats := Stats{Rows: len(t.Rows), Roles: roles}

	dateCol, hasDate := roles[RoleDate]
	yearCol, hasYear := roles[RoleYear]
	monthCol, hasMonth := roles[RoleMonth]
	dayCol, hasDay := roles[RoleDay]
	if !hasDate && !(hasYear && hasMonth && hasDay) {
		return nil, stats, &SchemaError{Columns: t.Columns}
	}

	locCol, hasLoc := roles[RoleLocation]
	descCol, hasDesc := roles[RoleDescription]

	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		var date time.Time
		var ok bool
		if hasDate {
			date, ok = ParseCellDate(row[dateCol])
		} else {
			date, ok = synthesizeDate(row, yearCol, monthCol, dayCol)
		}
		if !ok {
			stats.Dropped++
			continue
		}

		rec := Record{Date: date}
		if hasLoc {
			rec.Location = strings.TrimSpace(cellString(row[locCol]))
		}
		if hasDesc {
			rec.Description = strings.TrimSpace(cellString(row[descCol]))
		}
		if rec.Description == "" {
			rec.Description = FallbackDescription(t.Columns, row)
		}
		records = append(records, rec)
	}

	// Stable sort keeps source order for equal dates, which the match
	// engine relies on for reproducible nearest-match ties.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return records, stats, nil
}

// synthesizeDate builds a date from the leading integers of the year, month,
// and day cells. Invalid calendar dates and non-numeric tokens fail the row.
func synthesizeDate(row Row, yearCol, monthCol, dayCol string) (time.Time, bool) {
	year, okY := leadingInt(row[yearCol])
	month, okM := leadingInt(row[monthCol])
	day, okD := leadingInt(row[dayCol])
	if !okY || !okM || !okD {
		return time.Time{}, false
	}
	return MakeDate(year, month, day)
}

// FallbackDescription scans the row in column order for the first string cell
// of at least 10 characters containing Hangul, treating it as an ad hoc
// description. Evaluated independently per row.
func FallbackDescription(columns []string, row Row) string {
	for _, col := range columns {
		s, ok := row[col].(string)
		if !ok {
			continue
		}
		if utf8.RuneCountInString(s) >= 10 && hangulRe.MatchString(s) {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
