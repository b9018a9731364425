// Package openmeteo wraps the Open-Meteo geocoding, forecast, and ERA5
// archive APIs. These are the bot's external collaborators; the archive core
// never touches the network.
package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/joseon-weather-bot/internal/observability"
)

const (
	geocodeBaseURL  = "https://geocoding-api.open-meteo.com/v1/search"
	forecastBaseURL = "https://api.open-meteo.com/v1/forecast"
	archiveBaseURL  = "https://archive-api.open-meteo.com/v1/era5"

	dailyTempFields = "temperature_2m_max,temperature_2m_min"
)

// GeoResult is a resolved place.
type GeoResult struct {
	Name      string // display name, e.g. "서울, 서울특별시, 대한민국"
	Latitude  float64
	Longitude float64
	Country   string
	Admin1    string
	Timezone  string
}

// DailyTemps holds one day's min/max temperature. Pointers are nil when the
// API reports no value for the day.
type DailyTemps struct {
	Date  time.Time
	TminC *float64
	TmaxC *float64
}

// MeanC returns the midpoint of min and max, or nil when either is missing.
func (d DailyTemps) MeanC() *float64 {
	if d.TminC == nil || d.TmaxC == nil {
		return nil
	}
	mean := (*d.TminC + *d.TmaxC) / 2
	return &mean
}

// CurrentWeather is the current 2m temperature observation.
type CurrentWeather struct {
	TimeISO      string
	TemperatureC *float64
}

// MonthDaily holds ERA5 daily min/max series for one calendar month.
type MonthDaily struct {
	Days  []time.Time
	TminC []*float64
	TmaxC []*float64
}

// Client calls the Open-Meteo APIs with retry and backoff.
type Client struct {
	http    *resty.Client
	logger  *slog.Logger
	metrics *observability.Metrics

	geocodeURL  string
	forecastURL string
	archiveURL  string
}

// NewClient creates an Open-Meteo client. The timeout covers one attempt;
// transient failures and 5xx responses are retried three times with
// exponential backoff.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(4 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500 || r.StatusCode() == 429
		})

	return &Client{
		http:        httpClient,
		logger:      logger,
		metrics:     metrics,
		geocodeURL:  geocodeBaseURL,
		forecastURL: forecastBaseURL,
		archiveURL:  archiveBaseURL,
	}
}

// Geocode resolves a place name to coordinates, taking the first result.
func (c *Client) Geocode(ctx context.Context, name, language string) (GeoResult, error) {
	var out geocodeResponse
	err := c.get(ctx, "geocode", c.geocodeURL, map[string]string{
		"name":     name,
		"count":    "1",
		"language": language,
		"format":   "json",
	}, &out)
	if err != nil {
		return GeoResult{}, err
	}
	if len(out.Results) == 0 {
		return GeoResult{}, fmt.Errorf("no geocoding results for %q", name)
	}

	r := out.Results[0]
	display := r.Name
	if r.Admin1 != "" {
		display += ", " + r.Admin1
	}
	if r.Country != "" {
		display += ", " + r.Country
	}
	return GeoResult{
		Name:      display,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Country:   r.Country,
		Admin1:    r.Admin1,
		Timezone:  r.Timezone,
	}, nil
}

// DailyForecast fetches the forecast min/max for the target date. A date the
// API does not cover yields a DailyTemps with nil temperatures, not an error.
func (c *Client) DailyForecast(ctx context.Context, lat, lon float64, tz string, target time.Time) (DailyTemps, error) {
	var out forecastResponse
	err := c.get(ctx, "forecast", c.forecastURL, map[string]string{
		"latitude":  formatCoord(lat),
		"longitude": formatCoord(lon),
		"daily":     dailyTempFields,
		"timezone":  tz,
	}, &out)
	if err != nil {
		return DailyTemps{}, err
	}

	result := DailyTemps{Date: target}
	targetISO := target.Format("2006-01-02")
	for i, day := range out.Daily.Time {
		if day != targetISO {
			continue
		}
		if i < len(out.Daily.TempMin) {
			result.TminC = out.Daily.TempMin[i]
		}
		if i < len(out.Daily.TempMax) {
			result.TmaxC = out.Daily.TempMax[i]
		}
		break
	}
	return result, nil
}

// Current fetches the current 2m temperature.
func (c *Client) Current(ctx context.Context, lat, lon float64, tz string) (CurrentWeather, error) {
	var out currentResponse
	err := c.get(ctx, "current", c.forecastURL, map[string]string{
		"latitude":  formatCoord(lat),
		"longitude": formatCoord(lon),
		"current":   "temperature_2m",
		"timezone":  tz,
	}, &out)
	if err != nil {
		return CurrentWeather{}, err
	}
	return CurrentWeather{
		TimeISO:      out.Current.Time,
		TemperatureC: out.Current.Temperature,
	}, nil
}

// ArchiveMonth fetches ERA5 daily min/max for every day of the given month.
func (c *Client) ArchiveMonth(ctx context.Context, lat, lon float64, year, month int) (MonthDaily, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	// Day zero of the next month is the last day of this one.
	end := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)

	var out forecastResponse
	err := c.get(ctx, "archive", c.archiveURL, map[string]string{
		"latitude":   formatCoord(lat),
		"longitude":  formatCoord(lon),
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
		"daily":      dailyTempFields,
		"timezone":   "UTC",
	}, &out)
	if err != nil {
		return MonthDaily{}, err
	}

	var series MonthDaily
	for i, iso := range out.Daily.Time {
		day, err := time.Parse("2006-01-02", iso)
		if err != nil {
			continue
		}
		series.Days = append(series.Days, day)
		series.TminC = append(series.TminC, indexOrNil(out.Daily.TempMin, i))
		series.TmaxC = append(series.TmaxC, indexOrNil(out.Daily.TempMax, i))
	}
	return series, nil
}

func (c *Client) get(ctx context.Context, endpoint, url string, params map[string]string, out any) error {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(url)

	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if resp.IsError() {
		outcome = "error"
		err = fmt.Errorf("open-meteo %s: status %d: %s", endpoint, resp.StatusCode(), resp.String())
	}
	c.metrics.APIRequests.WithLabelValues(endpoint, outcome).Inc()
	c.metrics.APIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn("open-meteo request failed", "endpoint", endpoint, "error", err)
		return fmt.Errorf("open-meteo %s request: %w", endpoint, err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func indexOrNil(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

// Open-Meteo API response types.

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
		Admin1    string  `json:"admin1"`
		Timezone  string  `json:"timezone"`
	} `json:"results"`
}

type forecastResponse struct {
	Daily struct {
		Time    []string   `json:"time"`
		TempMax []*float64 `json:"temperature_2m_max"`
		TempMin []*float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

type currentResponse struct {
	Current struct {
		Time        string   `json:"time"`
		Temperature *float64 `json:"temperature_2m"`
	} `json:"current"`
}
