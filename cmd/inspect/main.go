// Command inspect checks a historical archive file offline: which columns
// resolved to which roles, how many rows were kept or dropped, the covered
// date range, and what each matching policy would pick for a sample date.
//
// Usage:
//
//	go run ./cmd/inspect -path data/joseon_weather.csv -date 2026-09-01 -loc 한양
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/joseon-weather-bot/internal/adapter/tabular"
	"github.com/couchcryptid/joseon-weather-bot/internal/compose"
	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
)

// phase tracks pass/fail for one inspection phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("path", "", "archive file to inspect (csv/tsv/xls/xlsx/json)")
	dateStr := flag.String("date", "", "sample target date YYYY-MM-DD (default: today)")
	loc := flag.String("loc", "", "preferred location keyword for sample matches")
	tol := flag.Int("tol", 3, "tolerance in days for exact and doy sample matches")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	target := time.Now().UTC().Truncate(24 * time.Hour)
	if *dateStr != "" {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: invalid -date %q: expected YYYY-MM-DD\n", *dateStr)
			os.Exit(1)
		}
		target = parsed
	}

	if code := run(*path, target, *loc, *tol); code != 0 {
		os.Exit(code)
	}
}

func run(path string, target time.Time, hint string, tolerance int) int {
	fmt.Println("=== Historical Archive Inspection ===")
	fmt.Println()

	table, err := tabular.Read(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", path, err)
		return 1
	}
	fmt.Printf("file: %s\n", path)
	fmt.Printf("columns (%d): %v\n", len(table.Columns), table.Columns)
	fmt.Printf("raw rows: %d\n", len(table.Rows))
	fmt.Println()

	phases := []*phase{
		inspectRoles(table),
		inspectRecords(table),
		inspectMatches(table, target, hint, tolerance),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			allPassed = false
		}
		fmt.Printf("[%s] %s\n", status, p.name)
		for _, e := range p.errors {
			fmt.Printf("       %s\n", e)
		}
	}
	if !allPassed {
		return 1
	}
	return 0
}

func inspectRoles(table *domain.Table) *phase {
	p := &phase{name: "column role resolution"}

	roles := domain.ResolveColumns(table)
	if len(roles) == 0 {
		p.errorf("no columns resolved to any role")
		return p
	}

	keys := make([]domain.ColumnRole, 0, len(roles))
	for role := range roles {
		keys = append(keys, role)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, role := range keys {
		fmt.Printf("role %-12s ← column %q\n", role, roles[role])
	}

	if _, hasDate := roles[domain.RoleDate]; !hasDate {
		if _, hasYear := roles[domain.RoleYear]; !hasYear {
			p.errorf("no date column and no year/month/day triple")
		}
	}
	return p
}

func inspectRecords(table *domain.Table) *phase {
	p := &phase{name: "record normalization"}

	records, stats, err := domain.Normalize(table)
	if err != nil {
		p.errorf("normalize: %v", err)
		return p
	}

	fmt.Println()
	fmt.Printf("records: %d kept, %d dropped\n", len(records), stats.Dropped)
	if len(records) == 0 {
		p.errorf("every row was dropped")
		return p
	}

	first, last := records[0].Date, records[len(records)-1].Date
	fmt.Printf("date range: %s .. %s\n", first.Format("2006-01-02"), last.Format("2006-01-02"))

	if stats.Dropped > len(records) {
		p.errorf("more rows dropped (%d) than kept (%d), check the date column format", stats.Dropped, len(records))
	}
	return p
}

func inspectMatches(table *domain.Table, target time.Time, hint string, tolerance int) *phase {
	p := &phase{name: "sample matches"}

	records, _, err := domain.Normalize(table)
	if err != nil {
		p.errorf("normalize: %v", err)
		return p
	}

	fmt.Println()
	fmt.Printf("sample matches for %s:\n", target.Format("2006-01-02"))

	anyMatched := false
	for _, policy := range []domain.Policy{domain.PolicyExact, domain.PolicyMonthDay, domain.PolicyYearShift, domain.PolicyDayOfYear} {
		match, ok := domain.Match(records, policy, target, hint, tolerance)
		if !ok {
			fmt.Printf("  %-9s → no match\n", policy)
			continue
		}
		anyMatched = true
		fmt.Printf("  %-9s → %s\n", policy, compose.SummaryLine(match))
	}
	if !anyMatched {
		p.errorf("no policy produced a match for %s", target.Format("2006-01-02"))
	}
	return p
}
