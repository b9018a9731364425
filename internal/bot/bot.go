// Package bot orchestrates one posting run: geocode the place, fetch
// today's forecast and the climatological normal, match the historical
// archive, compose the tweet, and optionally post it.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/joseon-weather-bot/internal/adapter/openmeteo"
	"github.com/couchcryptid/joseon-weather-bot/internal/climate"
	"github.com/couchcryptid/joseon-weather-bot/internal/compose"
	"github.com/couchcryptid/joseon-weather-bot/internal/config"
	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
	"github.com/couchcryptid/joseon-weather-bot/internal/observability"
)

// WeatherSource provides forecast and current conditions for a coordinate.
type WeatherSource interface {
	DailyForecast(ctx context.Context, lat, lon float64, tz string, target time.Time) (openmeteo.DailyTemps, error)
	Current(ctx context.Context, lat, lon float64, tz string) (openmeteo.CurrentWeather, error)
}

// NormalsSource provides the 1991-2020 normal for a month/day slot.
type NormalsSource interface {
	DailyNormal(ctx context.Context, lat, lon float64, month, day int) (climate.NormalForDay, error)
}

// TweetPoster publishes a tweet and returns its ID.
type TweetPoster interface {
	PostTweet(ctx context.Context, text string) (string, error)
}

// RunOptions are per-run overrides on top of the configuration.
type RunOptions struct {
	Place string
	Date  time.Time // zero value means today in the configured timezone

	Post        bool
	DryRun      bool
	WithCurrent bool
	Tag         string

	ArchivePath      string
	ArchivePolicy    domain.Policy
	ArchiveLocation  string
	ArchiveTolerance int
}

// RunResult reports what a run produced.
type RunResult struct {
	Text    string
	Posted  bool
	TweetID string
}

// Bot wires the collaborators together. A nil poster disables posting
// regardless of options.
type Bot struct {
	cfg      config.Config
	geocoder openmeteo.Geocoder
	weather  WeatherSource
	normals  NormalsSource
	archive  ArchiveLoader
	poster   TweetPoster
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Bot with the given collaborators and observability.
func New(cfg config.Config, geocoder openmeteo.Geocoder, weather WeatherSource, normals NormalsSource, archive ArchiveLoader, poster TweetPoster, logger *slog.Logger, metrics *observability.Metrics) *Bot {
	return &Bot{
		cfg:      cfg,
		geocoder: geocoder,
		weather:  weather,
		normals:  normals,
		archive:  archive,
		poster:   poster,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the bot has completed at least one run.
func (b *Bot) CheckReadiness(_ context.Context) error {
	if !b.ready.Load() {
		return errors.New("bot has not completed a run yet")
	}
	return nil
}

// RunOnce performs one full run. Geocoding failure is fatal; every other
// collaborator degrades to a dash or a failure line in the composed text.
func (b *Bot) RunOnce(ctx context.Context, opts RunOptions) (RunResult, error) {
	start := time.Now()
	defer func() {
		b.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	place := opts.Place
	if place == "" {
		place = b.cfg.LocationName
	}
	target := opts.Date
	if target.IsZero() {
		target = domain.Today(b.cfg.Location())
	}

	geo, err := b.geocoder.Geocode(ctx, place, b.cfg.Language)
	if err != nil {
		return RunResult{}, fmt.Errorf("geocoding %q: %w", place, err)
	}
	display := geo.Name
	if display == "" {
		display = place
	}
	tz := b.cfg.Timezone

	input := compose.Input{
		Place:       display,
		Date:        target.Format("2006-01-02"),
		WarmingC:    b.cfg.WarmingSince1850C,
		LIACoolingC: b.cfg.LIAExtraCoolingC,
		Tag:         opts.Tag,
	}

	forecast, err := b.weather.DailyForecast(ctx, geo.Latitude, geo.Longitude, tz, target)
	if err != nil {
		b.logger.Warn("forecast unavailable", "error", err)
	} else {
		input.TodayMeanC = forecast.MeanC()
	}

	normal, err := b.normals.DailyNormal(ctx, geo.Latitude, geo.Longitude, int(target.Month()), target.Day())
	if err != nil {
		b.logger.Warn("climate normal unavailable", "error", err)
	} else {
		input.NormalMeanC = normal.TmeanC()
		input.Approx1525C = climate.Estimate1525(normal, b.cfg.WarmingSince1850C, b.cfg.LIAExtraCoolingC)
	}

	input.ArchiveSummary = b.archiveSummary(opts, target)

	if opts.WithCurrent {
		current, err := b.weather.Current(ctx, geo.Latitude, geo.Longitude, tz)
		if err != nil {
			b.logger.Warn("current temperature unavailable", "error", err)
		} else {
			input.CurrentTempC = current.TemperatureC
		}
	}

	result := RunResult{Text: compose.Tweet(input)}

	if b.shouldPost(opts) {
		id, err := b.poster.PostTweet(ctx, result.Text)
		if err != nil {
			return result, fmt.Errorf("posting tweet: %w", err)
		}
		result.Posted = true
		result.TweetID = id
	} else {
		b.logger.Info("dry run, tweet not posted", "text", result.Text)
	}

	b.ready.Store(true)
	return result, nil
}

// archiveSummary loads the archive and matches the target date. Any failure
// becomes a visible failure line rather than aborting the run.
func (b *Bot) archiveSummary(opts RunOptions, target time.Time) string {
	path := opts.ArchivePath
	if path == "" {
		path = b.cfg.ArchivePath
	}
	if path == "" {
		return ""
	}

	policy := opts.ArchivePolicy
	if policy == "" {
		policy = b.cfg.ArchivePolicy
	}
	hint := opts.ArchiveLocation
	if hint == "" {
		hint = b.cfg.ArchiveLocation
	}
	tolerance := opts.ArchiveTolerance
	if tolerance == 0 {
		tolerance = b.cfg.ArchiveTolerance
	}

	records, _, err := b.archive.Load(path)
	if err != nil {
		b.logger.Error("archive load failed", "path", path, "error", err)
		return compose.LoadFailureLine(err)
	}

	match, ok := domain.Match(records, policy, target, hint, tolerance)
	if !ok {
		b.metrics.MatchOutcomes.WithLabelValues(string(policy), "none").Inc()
		b.logger.Info("no archive record matched", "policy", policy, "date", target.Format("2006-01-02"))
		return ""
	}
	b.metrics.MatchOutcomes.WithLabelValues(string(policy), "match").Inc()
	return compose.SummaryLine(match)
}

func (b *Bot) shouldPost(opts RunOptions) bool {
	if b.poster == nil {
		return false
	}
	if opts.Post {
		return true
	}
	return b.cfg.PostToTwitter && !opts.DryRun
}
