// Package brightdata talks to the Bright Data dataset API that performs the
// actual YouTube scraping. Extraction is asynchronous: Trigger submits a batch
// of video URLs and the provider later POSTs results to our webhook.
package brightdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_noto/internal/engine"
)

const defaultBaseURL = "https://api.brightdata.com/datasets/v3"

// Config carries the provider account and delivery settings.
type Config struct {
	APIKey        string
	DatasetID     string
	WebhookURL    string // where the provider delivers finished snapshots
	WebhookSecret string // bearer secret the provider echoes back on delivery
	BaseURL       string
	Timeout       time.Duration
	TriggerPerSec float64 // outbound trigger rate limit, 0 disables
}

// Client submits extraction batches to the dataset API.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	retry   engine.RetryConfig
}

// NewClient builds a trigger client. Timeout defaults to 30s.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.TriggerPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.TriggerPerSec), 1)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		retry:   engine.DefaultRetryConfig,
	}
}

// StatusError is a non-2xx reply from the dataset API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("brightdata: status %d: %s", e.StatusCode, e.Body)
}

type triggerItem struct {
	URL string `json:"url"`
}

type triggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
	Status     string `json:"status"`
}

// Trigger submits a batch of video URLs for extraction and returns the
// provider's snapshot id. Every URL must point at an accepted video host;
// a single bad URL rejects the whole batch before any network call.
func (c *Client) Trigger(ctx context.Context, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", fmt.Errorf("brightdata: empty batch")
	}
	for _, u := range urls {
		if !engine.ValidExtractionURL(u) {
			return "", fmt.Errorf("brightdata: unsupported url %q", u)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	items := make([]triggerItem, len(urls))
	for i, u := range urls {
		items[i] = triggerItem{URL: u}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("brightdata: marshal batch: %w", err)
	}

	q := url.Values{}
	q.Set("dataset_id", c.cfg.DatasetID)
	q.Set("format", "json")
	q.Set("uncompressed_webhook", "true")
	q.Set("endpoint", c.cfg.WebhookURL)
	q.Set("auth_header", "Bearer "+c.cfg.WebhookSecret)
	endpoint := c.cfg.BaseURL + "/trigger?" + q.Encode()

	engine.IncrTriggerRequests()
	resp, err := engine.RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		return c.http.Do(req)
	})
	if err != nil {
		engine.IncrTriggerErrors()
		// Exhausted retries on a retryable status still tell the caller what
		// the upstream said.
		if code, ok := engine.RetryStatusCode(err); ok {
			return "", &StatusError{StatusCode: code, Body: http.StatusText(code)}
		}
		return "", fmt.Errorf("brightdata: trigger: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		engine.IncrTriggerErrors()
		return "", fmt.Errorf("brightdata: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		engine.IncrTriggerErrors()
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var tr triggerResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		engine.IncrTriggerErrors()
		return "", fmt.Errorf("brightdata: decode response: %w", err)
	}
	if tr.SnapshotID == "" {
		engine.IncrTriggerErrors()
		return "", fmt.Errorf("brightdata: response missing snapshot_id")
	}

	slog.Info("brightdata: batch triggered",
		slog.String("snapshot_id", tr.SnapshotID),
		slog.String("status", tr.Status),
		slog.Int("urls", len(urls)))
	return tr.SnapshotID, nil
}
