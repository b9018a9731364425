// Package climate derives 1991-2020 climatological normals from the ERA5
// archive and projects them back to pre-industrial conditions.
package climate

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/couchcryptid/joseon-weather-bot/internal/adapter/openmeteo"
)

const (
	normalsFromYear    = 1991
	normalsThroughYear = 2020
)

// ArchiveFetcher provides ERA5 daily series for one calendar month.
type ArchiveFetcher interface {
	ArchiveMonth(ctx context.Context, lat, lon float64, year, month int) (openmeteo.MonthDaily, error)
}

// NormalForDay is the 1991-2020 average min/max for one month/day slot.
// Pointers are nil when the archive had no usable values for the slot.
type NormalForDay struct {
	Month int
	Day   int
	TminC *float64
	TmaxC *float64
}

// TmeanC returns the midpoint of the normal min and max, or nil when either
// is missing.
func (n NormalForDay) TmeanC() *float64 {
	if n.TminC == nil || n.TmaxC == nil {
		return nil
	}
	mean := (*n.TminC + *n.TmaxC) / 2
	return &mean
}

// Store computes daily normals, caching one CSV file per (coordinate, month)
// so each place costs thirty archive calls at most once.
type Store struct {
	fetcher  ArchiveFetcher
	cacheDir string
	logger   *slog.Logger
}

// NewStore creates a normals store backed by the given archive fetcher.
func NewStore(fetcher ArchiveFetcher, cacheDir string, logger *slog.Logger) *Store {
	return &Store{fetcher: fetcher, cacheDir: cacheDir, logger: logger}
}

// DailyNormal returns the 1991-2020 normal for the given month/day. On a
// cache miss it fetches the whole month across all thirty years and caches
// every day of it.
func (s *Store) DailyNormal(ctx context.Context, lat, lon float64, month, day int) (NormalForDay, error) {
	path := s.cacheFile(lat, lon, month)

	cached, err := readCache(path)
	if err != nil {
		s.logger.Warn("discarding unreadable normals cache", "path", path, "error", err)
		cached = nil
	}
	if pair, ok := cached[day]; ok {
		return NormalForDay{Month: month, Day: day, TminC: pair.tmin, TmaxC: pair.tmax}, nil
	}

	byDay, err := s.fetchMonthNormals(ctx, lat, lon, month)
	if err != nil {
		return NormalForDay{}, err
	}
	if err := writeCache(path, byDay); err != nil {
		s.logger.Warn("writing normals cache failed", "path", path, "error", err)
	}

	pair := byDay[day]
	return NormalForDay{Month: month, Day: day, TminC: pair.tmin, TmaxC: pair.tmax}, nil
}

// Estimate1525 projects a modern normal back to 1525 by removing the warming
// since 1850 and the extra Little Ice Age cooling. Returns nil when the
// normal itself is incomplete.
func Estimate1525(normal NormalForDay, warmingSince1850C, liaExtraCoolingC float64) *float64 {
	mean := normal.TmeanC()
	if mean == nil {
		return nil
	}
	estimate := *mean - warmingSince1850C - liaExtraCoolingC
	return &estimate
}

type normalPair struct {
	tmin *float64
	tmax *float64
}

func (s *Store) fetchMonthNormals(ctx context.Context, lat, lon float64, month int) (map[int]normalPair, error) {
	mins := map[int][]float64{}
	maxs := map[int][]float64{}

	for year := normalsFromYear; year <= normalsThroughYear; year++ {
		series, err := s.fetcher.ArchiveMonth(ctx, lat, lon, year, month)
		if err != nil {
			return nil, fmt.Errorf("fetching archive month %d-%02d: %w", year, month, err)
		}
		for i, d := range series.Days {
			if v := series.TminC[i]; v != nil && !math.IsNaN(*v) {
				mins[d.Day()] = append(mins[d.Day()], *v)
			}
			if v := series.TmaxC[i]; v != nil && !math.IsNaN(*v) {
				maxs[d.Day()] = append(maxs[d.Day()], *v)
			}
		}
	}

	byDay := map[int]normalPair{}
	for day := range mins {
		byDay[day] = normalPair{tmin: mean(mins[day]), tmax: mean(maxs[day])}
	}
	for day := range maxs {
		if _, ok := byDay[day]; !ok {
			byDay[day] = normalPair{tmax: mean(maxs[day])}
		}
	}
	return byDay, nil
}

func (s *Store) cacheFile(lat, lon float64, month int) string {
	return filepath.Join(s.cacheDir, fmt.Sprintf("normal_%.3f_%.3f_%02d.csv", lat, lon, month))
}

func readCache(path string) (map[int]normalPair, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	result := map[int]normalPair{}
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		day, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		result[day] = normalPair{tmin: parseTemp(row[1]), tmax: parseTemp(row[2])}
	}
	return result, nil
}

func writeCache(path string, byDay map[int]normalPair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"day", "tmin_c", "tmax_c"}); err != nil {
		return err
	}

	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	for _, day := range days {
		pair := byDay[day]
		record := []string{strconv.Itoa(day), formatTemp(pair.tmin), formatTemp(pair.tmax)}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func parseTemp(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatTemp(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}
