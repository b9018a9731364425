// Package twitter posts tweets through the v2 API using OAuth 1.0a user
// context.
package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/go-resty/resty/v2"

	"github.com/couchcryptid/joseon-weather-bot/internal/observability"
)

const tweetsURL = "https://api.twitter.com/2/tweets"

// Credentials holds the OAuth 1.0a user-context keys.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Client posts tweets. Requests are signed per-request by the underlying
// OAuth transport.
type Client struct {
	http    *resty.Client
	logger  *slog.Logger
	metrics *observability.Metrics

	tweetsURL string
}

// NewClient creates a posting client with the given user credentials.
func NewClient(creds Credentials, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	oauthConfig := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	signing := oauthConfig.Client(oauth1.NoContext, token)

	httpClient := resty.NewWithClient(signing).SetTimeout(timeout)

	return &Client{
		http:      httpClient,
		logger:    logger,
		metrics:   metrics,
		tweetsURL: tweetsURL,
	}
}

// PostTweet publishes text and returns the new tweet's ID.
func (c *Client) PostTweet(ctx context.Context, text string) (string, error) {
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		SetResult(&out).
		Post(c.tweetsURL)

	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if resp.IsError() {
		outcome = "error"
		err = fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	c.metrics.APIRequests.WithLabelValues("tweet", outcome).Inc()
	c.metrics.APIDuration.WithLabelValues("tweet").Observe(time.Since(start).Seconds())

	if err != nil {
		return "", fmt.Errorf("posting tweet: %w", err)
	}

	c.metrics.TweetsPosted.Inc()
	c.logger.Info("tweet posted", "tweet_id", out.Data.ID)
	return out.Data.ID, nil
}
