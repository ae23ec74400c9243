// Package httpclient is the JSON-over-HTTP transport shared by the
// OpenAI-compatible providers. It owns timeouts, pacing and retries.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"
)

const DefaultTimeout = 60 * time.Second

// Config configures a Client.
type Config struct {
	Timeout time.Duration
	// MaxRetries is the number of extra attempts on 429, 5xx and transport
	// errors. Zero disables retries.
	MaxRetries int
	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64
}

// Client posts JSON and returns the raw response payload.
type Client struct {
	http       *http.Client
	maxRetries int
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		http:       &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		sleep:      sleepCtx,
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// HTTPClient exposes the underlying client for SDKs that accept one.
func (c *Client) HTTPClient() *http.Client { return c.http }

// PostJSON marshals body, posts it to url and returns the status code and
// payload of the final attempt. Non-2xx statuses are not errors here; the
// caller decodes the provider's error body.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return 0, nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return 0, nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil || attempt >= c.maxRetries {
				return 0, nil, fmt.Errorf("send request: %w", err)
			}
			log.Warn().Err(err).Int("attempt", attempt+1).Str("url", url).Msg("request failed, retrying")
			if err := c.sleep(ctx, retryDelay(attempt)); err != nil {
				return 0, nil, err
			}
			continue
		}

		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if retryable(resp.StatusCode) && attempt < c.maxRetries {
			wait := retryAfter(resp.Header.Get("Retry-After"), attempt)
			log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Dur("wait", wait).Str("url", url).Msg("retryable status")
			if err := c.sleep(ctx, wait); err != nil {
				return resp.StatusCode, payload, err
			}
			continue
		}
		if readErr != nil {
			return resp.StatusCode, nil, fmt.Errorf("read response: %w", readErr)
		}
		return resp.StatusCode, payload, nil
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func retryAfter(header string, attempt int) time.Duration {
	if header != "" {
		if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return retryDelay(attempt)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second || d <= 0 {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
