// Package scheduler runs the bot once per day at the configured local time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/joseon-weather-bot/internal/bot"
)

// Runner executes one bot run.
type Runner interface {
	RunOnce(ctx context.Context, opts bot.RunOptions) (bot.RunResult, error)
}

// Scheduler triggers a daily posting run.
type Scheduler struct {
	cron   *gocron.Scheduler
	runner Runner
	opts   bot.RunOptions
	logger *slog.Logger
}

// New creates a scheduler that fires daily at postTime ("HH:MM") in loc.
func New(runner Runner, opts bot.RunOptions, postTime string, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   gocron.NewScheduler(loc),
		runner: runner,
		opts:   opts,
		logger: logger,
	}

	_, err := s.cron.Every(1).Day().At(postTime).Do(s.run)
	if err != nil {
		return nil, fmt.Errorf("scheduling daily run at %s: %w", postTime, err)
	}
	return s, nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", "jobs", len(s.cron.Jobs()))
	s.cron.StartAsync()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := s.runner.RunOnce(ctx, s.opts)
	if err != nil {
		s.logger.Error("scheduled run failed", "error", err)
		return
	}
	s.logger.Info("scheduled run finished", "posted", result.Posted, "tweet_id", result.TweetID)
}
