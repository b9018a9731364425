package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/joseon-weather-bot/internal/adapter/openmeteo"
	"github.com/couchcryptid/joseon-weather-bot/internal/adapter/twitter"
	"github.com/couchcryptid/joseon-weather-bot/internal/adapter/web"
	"github.com/couchcryptid/joseon-weather-bot/internal/bot"
	"github.com/couchcryptid/joseon-weather-bot/internal/climate"
	"github.com/couchcryptid/joseon-weather-bot/internal/config"
	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
	"github.com/couchcryptid/joseon-weather-bot/internal/observability"
	"github.com/couchcryptid/joseon-weather-bot/internal/scheduler"
)

type runFlags struct {
	place       string
	date        string
	post        bool
	dryRun      bool
	withCurrent bool
	tag         string

	archivePath string
	archiveMode string
	archiveLoc  string
	archiveTol  int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags runFlags

	root := &cobra.Command{
		Use:           "joseon-weather-bot",
		Short:         "Compares today's weather with its 1525 estimate and the Joseon archive, then tweets",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.place, "place", "", "place name to geocode (default: LOCATION_NAME)")
	pf.StringVar(&flags.date, "date", "", "target date YYYY-MM-DD (default: today)")
	pf.BoolVar(&flags.post, "post", false, "post the tweet")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "compose only, never post")
	pf.BoolVar(&flags.withCurrent, "with-current", false, "include the current temperature")
	pf.StringVar(&flags.tag, "tag", "", "header tag, e.g. 아침/점심/저녁")
	pf.StringVar(&flags.archivePath, "archive-path", "", "historical archive file (csv/tsv/xls/xlsx/json)")
	pf.StringVar(&flags.archiveMode, "archive-mode", "", "matching policy: exact, monthday, yearshift, doy")
	pf.StringVar(&flags.archiveLoc, "archive-loc", "", "preferred location keyword, e.g. 한양")
	pf.IntVar(&flags.archiveTol, "archive-tol", 0, "tolerance in days for exact and doy matching")

	root.AddCommand(newServeCmd(&flags))
	return root
}

func newServeCmd(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daily scheduler with health and preview endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(*flags)
		},
	}
}

func runOnce(ctx context.Context, flags runFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	b, err := buildBot(cfg, logger, metrics)
	if err != nil {
		return err
	}
	opts, err := buildRunOptions(flags)
	if err != nil {
		return err
	}

	result, err := b.RunOnce(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Println(result.Text)
	if result.Posted {
		fmt.Println("posted:", result.TweetID)
	}
	return nil
}

func serve(flags runFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	b, err := buildBot(cfg, logger, metrics)
	if err != nil {
		return err
	}
	opts, err := buildRunOptions(flags)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(b, opts, cfg.PostTime, cfg.Location(), logger)
	if err != nil {
		return err
	}
	srv := web.NewServer(cfg.HTTPAddr, b, b, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.BotRunning.Set(1)
	defer metrics.BotRunning.Set(0)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	sched.Start()
	logger.Info("bot serving", "post_time", cfg.PostTime, "addr", cfg.HTTPAddr)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func buildBot(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*bot.Bot, error) {
	client := openmeteo.NewClient(cfg.APITimeout, logger, metrics)
	geocoder, err := openmeteo.NewCachedGeocoder(client, cfg.GeocodeCacheSize)
	if err != nil {
		return nil, err
	}

	normals := climate.NewStore(client, cfg.CacheDir, logger)
	archive := bot.NewFileArchive(logger, metrics)

	var poster bot.TweetPoster
	if cfg.HasTwitterCredentials() {
		poster = twitter.NewClient(twitter.Credentials{
			APIKey:            cfg.TwitterAPIKey,
			APISecret:         cfg.TwitterAPISecret,
			AccessToken:       cfg.TwitterAccessToken,
			AccessTokenSecret: cfg.TwitterAccessTokenSecret,
		}, cfg.APITimeout, logger, metrics)
	} else {
		logger.Info("twitter credentials absent, posting disabled")
	}

	return bot.New(*cfg, geocoder, client, normals, archive, poster, logger, metrics), nil
}

func buildRunOptions(flags runFlags) (bot.RunOptions, error) {
	opts := bot.RunOptions{
		Place:            flags.place,
		Post:             flags.post,
		DryRun:           flags.dryRun,
		WithCurrent:      flags.withCurrent,
		Tag:              flags.tag,
		ArchivePath:      flags.archivePath,
		ArchiveLocation:  flags.archiveLoc,
		ArchiveTolerance: flags.archiveTol,
	}
	if flags.date != "" {
		date, err := time.Parse("2006-01-02", flags.date)
		if err != nil {
			return bot.RunOptions{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", flags.date)
		}
		opts.Date = date
	}
	if flags.archiveMode != "" {
		policy, ok := domain.ParsePolicy(flags.archiveMode)
		if !ok {
			return bot.RunOptions{}, fmt.Errorf("invalid --archive-mode %q: expected exact, monthday, yearshift, or doy", flags.archiveMode)
		}
		opts.ArchivePolicy = policy
	}
	return opts, nil
}
