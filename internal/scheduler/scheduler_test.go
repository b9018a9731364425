package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/joseon-weather-bot/internal/bot"
)

type noopRunner struct{}

func (noopRunner) RunOnce(_ context.Context, _ bot.RunOptions) (bot.RunResult, error) {
	return bot.RunResult{}, nil
}

func TestNew(t *testing.T) {
	t.Run("registers one daily job", func(t *testing.T) {
		s, err := New(noopRunner{}, bot.RunOptions{}, "07:00", time.UTC, slog.Default())
		require.NoError(t, err)
		assert.Len(t, s.cron.Jobs(), 1)
	})

	t.Run("rejects a malformed post time", func(t *testing.T) {
		_, err := New(noopRunner{}, bot.RunOptions{}, "7 o'clock", time.UTC, slog.Default())
		assert.Error(t, err)
	})
}
