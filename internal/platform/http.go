package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Config configures the platform REST client.
type Config struct {
	BaseURL  string
	BotToken string
	Timeout  time.Duration
}

type httpClient struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

type leveledZap struct {
	inner *zap.SugaredLogger
}

func (l leveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Infow(msg, keysAndValues...)
}

func (l leveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

// NewHTTPClient builds a platform client over a retrying HTTP transport.
// Transient failures and 5xx responses are retried with short backoff;
// 404 responses are mapped to ErrTargetNotFound and never retried.
func NewHTTPClient(cfg Config, log *zap.Logger) Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledZap{inner: log.Named("platform.http").Sugar()})
	if cfg.Timeout > 0 {
		// per-attempt timeout so a stalled call still gets retried
		retryClient.HTTPClient.Timeout = cfg.Timeout
	}

	client := retryClient.StandardClient()

	return &httpClient{
		cfg:  cfg,
		http: client,
		log:  log.Named("platform"),
	}
}

func (c *httpClient) LiftRestriction(ctx context.Context, communityID, targetID string) error {
	return c.delete(ctx, fmt.Sprintf("/communities/%s/restrictions/%s", communityID, targetID))
}

func (c *httpClient) LiftBan(ctx context.Context, communityID, targetID string) error {
	return c.delete(ctx, fmt.Sprintf("/communities/%s/bans/%s", communityID, targetID))
}

func (c *httpClient) delete(ctx context.Context, path string) error {
	if strings.TrimSpace(c.cfg.BaseURL) == "" {
		return ErrNotConfigured
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	if c.cfg.BotToken != "" {
		req.Header.Set("Authorization", "Bot "+c.cfg.BotToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrTargetNotFound
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("platform: unexpected status %d: %s", resp.StatusCode, truncate(string(body), 256))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
