// Package compose renders the Korean tweet body comparing today's weather
// with its 1525 estimate and the matching archive record.
package compose

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
)

const (
	sourceLabel   = "조선왕조실록"
	maxSummaryLen = 100
)

// SummaryLine renders one archive record as a single tweet line.
func SummaryLine(rec domain.Record) string {
	loc := ""
	if rec.Location != "" {
		loc = ", " + rec.Location
	}
	desc := strings.TrimSpace(rec.Description)
	if desc == "" {
		desc = "기록 있음"
	}
	return fmt.Sprintf("%s: %s%s: %s", sourceLabel, rec.Date.Format("2006-01-02"), loc, truncate(desc, maxSummaryLen))
}

// LoadFailureLine renders the fallback line used when the archive could not
// be loaded or matched.
func LoadFailureLine(err error) string {
	return fmt.Sprintf("%s: 불러오기 실패(%v)", sourceLabel, err)
}

// Input carries everything the tweet body needs. Temperature pointers are
// nil when the value could not be determined; the body renders a dash then.
type Input struct {
	Place string
	Date  string // ISO date

	TodayMeanC   *float64
	NormalMeanC  *float64
	Approx1525C  *float64
	CurrentTempC *float64

	WarmingC    float64
	LIACoolingC float64

	ArchiveSummary string
	Tag            string
}

// Tweet renders the full body. Aims to stay inside the 280-character limit.
func Tweet(in Input) string {
	header := in.Date + " " + in.Place
	if tag := strings.TrimSpace(in.Tag); tag != "" {
		header = "[" + tag + "] " + header
	}

	lines := []string{
		header,
		fmt.Sprintf("오늘(예상 평균): %s / 평년(1991–2020): %s", fmtTemp(in.TodayMeanC), fmtTemp(in.NormalMeanC)),
		fmt.Sprintf("1525년 같은 날(근사): %s → 차이 %s (%s)", fmtTemp(in.Approx1525C), fmtDiff(in), tendency(in)),
		fmt.Sprintf("보정: 온난화 %.1f℃ + 소빙기 %.1f℃", in.WarmingC, in.LIACoolingC),
	}
	if in.ArchiveSummary != "" {
		lines = append(lines, in.ArchiveSummary)
	}
	if in.CurrentTempC != nil {
		lines = append(lines, fmt.Sprintf("지금 기온: %.1f℃", *in.CurrentTempC))
	}
	lines = append(lines, "데이터: Open‑Meteo (Forecast/ERA5)")
	return strings.Join(lines, "\n")
}

func diffC(in Input) *float64 {
	if in.TodayMeanC == nil || in.Approx1525C == nil {
		return nil
	}
	d := *in.TodayMeanC - *in.Approx1525C
	return &d
}

func fmtDiff(in Input) string {
	d := diffC(in)
	if d == nil {
		return "–"
	}
	return fmt.Sprintf("%+.1f℃", *d)
}

func tendency(in Input) string {
	d := diffC(in)
	switch {
	case d != nil && *d > 0:
		return "더 따뜻합니다"
	case d != nil && *d < 0:
		return "더 선선합니다"
	default:
		return "비교 불가"
	}
}

func fmtTemp(v *float64) string {
	if v == nil {
		return "–"
	}
	return fmt.Sprintf("%.1f℃", *v)
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-1]) + "…"
}
