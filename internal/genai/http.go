package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Config configures the HTTP completion client.
type Config struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type httpClient struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// leveledZap adapts zap to retryablehttp's leveled logger. Client ERROR is
// re-written to WARN because the retry layer already absorbs transient
// failures.
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

// NewHTTPClient builds a completion client over a retrying HTTP transport.
// The retry policy is exactly one immediate in-attempt retry: transport
// errors, per-attempt timeouts and 5xx responses are retried once with no
// backoff, then surfaced.
func NewHTTPClient(cfg Config, log *zap.Logger) Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 1
	retryClient.RetryWaitMin = 0
	retryClient.RetryWaitMax = 0
	retryClient.Logger = retryablehttp.LeveledLogger(leveledZap{inner: log.Named("genai.http").Sugar()})
	if cfg.Timeout > 0 {
		// timeout bounds each attempt, not the retrying call as a whole,
		// so a timed-out attempt still gets its one retry
		retryClient.HTTPClient.Timeout = cfg.Timeout
	}

	client := retryClient.StandardClient()

	return &httpClient{
		cfg:  cfg,
		http: client,
		log:  log.Named("genai"),
	}
}

type completeBody struct {
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type completeResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage struct {
		InputTokens      int `json:"input_tokens"`
		OutputTokens     int `json:"output_tokens"`
		CacheWriteTokens int `json:"cache_write_tokens"`
		CacheReadTokens  int `json:"cache_read_tokens"`
	} `json:"usage"`
	Cost float64 `json:"cost"`
}

func (c *httpClient) Complete(ctx context.Context, req CompleteRequest) (*Completion, error) {
	if strings.TrimSpace(c.cfg.Endpoint) == "" {
		return nil, ErrNotConfigured
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	payload, err := json.Marshal(completeBody{
		Model:     c.cfg.Model,
		System:    req.System,
		Messages:  req.Messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("genai: complete: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("genai: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("genai: unexpected status %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	var decoded completeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("genai: decode response: %w", err)
	}

	model := decoded.Model
	if model == "" {
		model = c.cfg.Model
	}

	return &Completion{
		Text:             decoded.Text,
		Model:            model,
		InputTokens:      decoded.Usage.InputTokens,
		OutputTokens:     decoded.Usage.OutputTokens,
		CacheWriteTokens: decoded.Usage.CacheWriteTokens,
		CacheReadTokens:  decoded.Usage.CacheReadTokens,
		Cost:             decoded.Cost,
		Duration:         time.Since(start),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
