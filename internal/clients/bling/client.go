// Package bling provides clients for the Bling v3 API and its OAuth provider.
package bling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/edumoraes/blingsync/internal/common"
	"github.com/edumoraes/blingsync/internal/interfaces"
	"github.com/edumoraes/blingsync/internal/models"
)

const (
	DefaultBaseURL      = common.DefaultAPIBaseURL
	DefaultTimeout      = 15 * time.Second
	DefaultRateLimit    = 3 // requests per second
	DefaultMaxRetries   = 2 // extra attempts after the first
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Client implements the ProductAPIClient interface against Bling v3.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       *common.Logger
	limiter      *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetryPolicy sets the number of extra attempts and the backoff unit.
// The delay before attempt n is n times the backoff unit.
func WithRetryPolicy(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryBackoff = backoff
	}
}

// NewClient creates a new Bling product API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:      rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:       common.NewSilentLogger(),
		maxRetries:   DefaultMaxRetries,
		retryBackoff: DefaultRetryBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// retryable reports whether a status code signals a transient upstream
// condition. 4xx other than 429 is a request-shape problem and never retried.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// timedOut reports whether err is a network timeout.
func timedOut(err error) bool {
	var netErr net.Error
	if uerr, ok := err.(*url.Error); ok {
		err = uerr.Err
	}
	if ne, ok := err.(net.Error); ok {
		netErr = ne
	}
	return netErr != nil && netErr.Timeout()
}

// do performs a rate-limited JSON request with bounded retries. The same
// idempotency key is reused across retries of the same call so the upstream
// system can deduplicate.
func (c *Client) do(ctx context.Context, method, path, token string, body any, idempotencyKey string) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.retryBackoff
			c.logger.Debug().
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Str("endpoint", path).
				Msg("Retrying Bling API request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}

		c.logger.Debug().Str("method", method).Str("endpoint", path).Msg("Bling API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if timedOut(err) {
				lastErr = fmt.Errorf("request timed out: %w", err)
				continue
			}
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		raw, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response: %w", readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			result := map[string]any{}
			if len(raw) > 0 {
				// A non-JSON 2xx body is tolerated; the call still succeeded.
				_ = json.Unmarshal(raw, &result)
			}
			return result, nil
		}

		apiErr := &models.APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   path,
			Message:    string(raw),
		}
		var decoded map[string]any
		if json.Unmarshal(raw, &decoded) == nil {
			apiErr.Payload = decoded
		}
		lastErr = apiErr

		if !retryable(resp.StatusCode) {
			return nil, apiErr
		}
	}

	return nil, lastErr
}

// PatchProduct issues the primary partial update for a product.
func (c *Client) PatchProduct(ctx context.Context, token, id string, body map[string]any, idempotencyKey string) (map[string]any, error) {
	path := fmt.Sprintf("/produtos/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodPatch, path, token, body, idempotencyKey)
}

// ReplaceImages replaces the full image set of a product. The submitted
// list becomes the complete set; it does not append.
func (c *Client) ReplaceImages(ctx context.Context, token, id string, urls []string, idempotencyKey string) (map[string]any, error) {
	images := make([]map[string]string, len(urls))
	for i, u := range urls {
		images[i] = map[string]string{"url": u}
	}
	body := map[string]any{
		"substituir": true,
		"imagens":    images,
	}
	path := fmt.Sprintf("/produtos/%s/imagens", url.PathEscape(id))
	return c.do(ctx, http.MethodPut, path, token, body, idempotencyKey)
}

// PatchImagesFallback replaces images through the generic partial-update
// endpoint under a different field shape, used when ReplaceImages fails.
func (c *Client) PatchImagesFallback(ctx context.Context, token, id string, urls []string, idempotencyKey string) (map[string]any, error) {
	body := map[string]any{
		"imagens": map[string]any{
			"substituir": true,
			"urls":       urls,
		},
	}
	path := fmt.Sprintf("/produtos/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodPatch, path, token, body, idempotencyKey)
}

// Ensure Client implements ProductAPIClient
var _ interfaces.ProductAPIClient = (*Client)(nil)
