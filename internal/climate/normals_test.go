package climate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/joseon-weather-bot/internal/adapter/openmeteo"
)

type fakeArchive struct {
	calls int
	err   error
	// temps returns tmin/tmax for a given date
	temps func(year, month, day int) (float64, float64)
}

func (f *fakeArchive) ArchiveMonth(ctx context.Context, lat, lon float64, year, month int) (openmeteo.MonthDaily, error) {
	f.calls++
	if f.err != nil {
		return openmeteo.MonthDaily{}, f.err
	}
	var series openmeteo.MonthDaily
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Month() == time.Month(month); d = d.AddDate(0, 0, 1) {
		tmin, tmax := f.temps(year, month, d.Day())
		series.Days = append(series.Days, d)
		series.TminC = append(series.TminC, &tmin)
		series.TmaxC = append(series.TmaxC, &tmax)
	}
	return series, nil
}

func testStore(t *testing.T, fetcher ArchiveFetcher) *Store {
	t.Helper()
	return NewStore(fetcher, t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDailyNormal(t *testing.T) {
	t.Run("averages across all thirty years", func(t *testing.T) {
		fetcher := &fakeArchive{temps: func(year, month, day int) (float64, float64) {
			// constant so the mean is exact
			return -2.5, 4.5
		}}
		store := testStore(t, fetcher)

		got, err := store.DailyNormal(context.Background(), 37.566, 126.978, 1, 15)
		require.NoError(t, err)
		assert.Equal(t, 30, fetcher.calls)
		require.NotNil(t, got.TminC)
		require.NotNil(t, got.TmaxC)
		assert.InDelta(t, -2.5, *got.TminC, 0.001)
		assert.InDelta(t, 4.5, *got.TmaxC, 0.001)

		mean := got.TmeanC()
		require.NotNil(t, mean)
		assert.InDelta(t, 1.0, *mean, 0.001)
	})

	t.Run("second lookup in the same month uses the cache", func(t *testing.T) {
		fetcher := &fakeArchive{temps: func(year, month, day int) (float64, float64) {
			return float64(day), float64(day) + 10
		}}
		store := testStore(t, fetcher)

		_, err := store.DailyNormal(context.Background(), 37.566, 126.978, 7, 1)
		require.NoError(t, err)
		require.Equal(t, 30, fetcher.calls)

		got, err := store.DailyNormal(context.Background(), 37.566, 126.978, 7, 20)
		require.NoError(t, err)
		assert.Equal(t, 30, fetcher.calls, "cache should cover every day of the month")
		require.NotNil(t, got.TminC)
		assert.InDelta(t, 20, *got.TminC, 0.001)
	})

	t.Run("different coordinates use different cache files", func(t *testing.T) {
		fetcher := &fakeArchive{temps: func(year, month, day int) (float64, float64) {
			return 0, 0
		}}
		store := testStore(t, fetcher)

		_, err := store.DailyNormal(context.Background(), 37.566, 126.978, 1, 1)
		require.NoError(t, err)
		_, err = store.DailyNormal(context.Background(), 35.180, 129.075, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 60, fetcher.calls)
	})

	t.Run("fetch failure surfaces the error", func(t *testing.T) {
		fetcher := &fakeArchive{err: errors.New("era5 unavailable")}
		store := testStore(t, fetcher)

		_, err := store.DailyNormal(context.Background(), 37.566, 126.978, 1, 1)
		assert.ErrorContains(t, err, "era5 unavailable")
	})

	t.Run("corrupt cache file is refetched", func(t *testing.T) {
		fetcher := &fakeArchive{temps: func(year, month, day int) (float64, float64) {
			return 1, 3
		}}
		dir := t.TempDir()
		store := NewStore(fetcher, dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

		path := filepath.Join(dir, "normal_37.566_126.978_01.csv")
		require.NoError(t, os.WriteFile(path, []byte("day,tmin_c\n\"unterminated"), 0o644))

		got, err := store.DailyNormal(context.Background(), 37.566, 126.978, 1, 15)
		require.NoError(t, err)
		assert.Equal(t, 30, fetcher.calls)
		require.NotNil(t, got.TmeanC())
		assert.InDelta(t, 2, *got.TmeanC(), 0.001)
	})
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "normal_37.566_126.978_02.csv")

	tmin := -4.25
	byDay := map[int]normalPair{
		1: {tmin: &tmin},
		2: {},
	}
	require.NoError(t, writeCache(path, byDay))

	got, err := readCache(path)
	require.NoError(t, err)
	require.NotNil(t, got[1].tmin)
	assert.InDelta(t, -4.25, *got[1].tmin, 0.0001)
	assert.Nil(t, got[1].tmax)
	assert.Nil(t, got[2].tmin)
	assert.Nil(t, got[2].tmax)
}

func TestEstimate1525(t *testing.T) {
	tmin, tmax := 10.0, 20.0
	normal := NormalForDay{Month: 7, Day: 15, TminC: &tmin, TmaxC: &tmax}

	got := Estimate1525(normal, 1.2, 0.4)
	require.NotNil(t, got)
	assert.InDelta(t, 13.4, *got, 0.0001)

	assert.Nil(t, Estimate1525(NormalForDay{}, 1.2, 0.4))
}
