package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/joseon-weather-bot/internal/observability"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c := NewClient(5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	c.geocodeURL = srv.URL + "/v1/search"
	c.forecastURL = srv.URL + "/v1/forecast"
	c.archiveURL = srv.URL + "/v1/era5"
	c.http.SetRetryCount(0)
	return c
}

func jsonHandler(t *testing.T, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}
}

func TestGeocode(t *testing.T) {
	t.Run("joins name, admin1, and country", func(t *testing.T) {
		var gotQuery map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"name":     r.URL.Query().Get("name"),
				"count":    r.URL.Query().Get("count"),
				"language": r.URL.Query().Get("language"),
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results":[{"name":"서울","latitude":37.566,"longitude":126.9784,"country":"대한민국","admin1":"서울특별시","timezone":"Asia/Seoul"}]}`))
		}))
		defer srv.Close()

		got, err := testClient(t, srv).Geocode(context.Background(), "서울", "ko")
		require.NoError(t, err)
		assert.Equal(t, "서울, 서울특별시, 대한민국", got.Name)
		assert.InDelta(t, 37.566, got.Latitude, 0.0001)
		assert.InDelta(t, 126.9784, got.Longitude, 0.0001)
		assert.Equal(t, "Asia/Seoul", got.Timezone)
		assert.Equal(t, map[string]string{"name": "서울", "count": "1", "language": "ko"}, gotQuery)
	})

	t.Run("display name without admin1", func(t *testing.T) {
		srv := httptest.NewServer(jsonHandler(t, `{"results":[{"name":"Pyongyang","latitude":39.03,"longitude":125.75,"country":"North Korea"}]}`))
		defer srv.Close()

		got, err := testClient(t, srv).Geocode(context.Background(), "Pyongyang", "en")
		require.NoError(t, err)
		assert.Equal(t, "Pyongyang, North Korea", got.Name)
	})

	t.Run("empty results is an error", func(t *testing.T) {
		srv := httptest.NewServer(jsonHandler(t, `{"results":[]}`))
		defer srv.Close()

		_, err := testClient(t, srv).Geocode(context.Background(), "nowhere", "en")
		assert.ErrorContains(t, err, "no geocoding results")
	})

	t.Run("server error surfaces status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := testClient(t, srv).Geocode(context.Background(), "서울", "ko")
		assert.ErrorContains(t, err, "status 502")
	})
}

func TestDailyForecast(t *testing.T) {
	body := `{"daily":{"time":["2026-08-31","2026-09-01","2026-09-02"],"temperature_2m_max":[29.1,27.4,26.0],"temperature_2m_min":[21.3,20.2,19.5]}}`

	t.Run("picks the target date", func(t *testing.T) {
		srv := httptest.NewServer(jsonHandler(t, body))
		defer srv.Close()

		target := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
		got, err := testClient(t, srv).DailyForecast(context.Background(), 37.566, 126.9784, "Asia/Seoul", target)
		require.NoError(t, err)
		require.NotNil(t, got.TminC)
		require.NotNil(t, got.TmaxC)
		assert.InDelta(t, 20.2, *got.TminC, 0.0001)
		assert.InDelta(t, 27.4, *got.TmaxC, 0.0001)

		mean := got.MeanC()
		require.NotNil(t, mean)
		assert.InDelta(t, 23.8, *mean, 0.0001)
	})

	t.Run("date outside the horizon yields nil temps", func(t *testing.T) {
		srv := httptest.NewServer(jsonHandler(t, body))
		defer srv.Close()

		target := time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC)
		got, err := testClient(t, srv).DailyForecast(context.Background(), 37.566, 126.9784, "Asia/Seoul", target)
		require.NoError(t, err)
		assert.Nil(t, got.TminC)
		assert.Nil(t, got.TmaxC)
		assert.Nil(t, got.MeanC())
	})

	t.Run("null temperature stays nil", func(t *testing.T) {
		srv := httptest.NewServer(jsonHandler(t, `{"daily":{"time":["2026-09-01"],"temperature_2m_max":[null],"temperature_2m_min":[20.2]}}`))
		defer srv.Close()

		target := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
		got, err := testClient(t, srv).DailyForecast(context.Background(), 37.566, 126.9784, "Asia/Seoul", target)
		require.NoError(t, err)
		require.NotNil(t, got.TminC)
		assert.Nil(t, got.TmaxC)
		assert.Nil(t, got.MeanC())
	})
}

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, `{"current":{"time":"2026-09-01T07:00","temperature_2m":22.7}}`))
	defer srv.Close()

	got, err := testClient(t, srv).Current(context.Background(), 37.566, 126.9784, "Asia/Seoul")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01T07:00", got.TimeISO)
	require.NotNil(t, got.TemperatureC)
	assert.InDelta(t, 22.7, *got.TemperatureC, 0.0001)
}

func TestArchiveMonth(t *testing.T) {
	var gotStart, gotEnd string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("start_date")
		gotEnd = r.URL.Query().Get("end_date")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"daily":{"time":["2025-02-01","2025-02-02"],"temperature_2m_max":[3.1,null],"temperature_2m_min":[-4.2,-5.0]}}`))
	}))
	defer srv.Close()

	got, err := testClient(t, srv).ArchiveMonth(context.Background(), 37.566, 126.9784, 2025, 2)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", gotStart)
	assert.Equal(t, "2025-02-28", gotEnd)

	require.Len(t, got.Days, 2)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), got.Days[0])
	require.NotNil(t, got.TminC[0])
	assert.InDelta(t, -4.2, *got.TminC[0], 0.0001)
	require.NotNil(t, got.TmaxC[0])
	assert.Nil(t, got.TmaxC[1])
}

func TestArchiveMonthLeapYear(t *testing.T) {
	var gotEnd string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEnd = r.URL.Query().Get("end_date")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"daily":{"time":[],"temperature_2m_max":[],"temperature_2m_min":[]}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).ArchiveMonth(context.Background(), 37.566, 126.9784, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", gotEnd)
}
