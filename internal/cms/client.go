package cms

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/constants"
	"github.com/kapu/conference-companion-go/internal/util"
	"github.com/kapu/conference-companion-go/pkg/errors"
)

// Requester issues GET requests against the CMS API and returns the response body.
type Requester interface {
	DoRequest(ctx context.Context, path string, params url.Values) ([]byte, error)
	IsCircuitOpen() bool
}

type ClientConfig struct {
	BaseURL string
	Tokens  []string
	Timeout time.Duration
}

// Client talks to the CMS API, rotating bearer tokens on rate limits and retrying
// transport and 5xx failures with jittered exponential backoff.
type Client struct {
	http            *resty.Client
	tokens          []string
	currentTokenIdx int
	tokenMu         sync.Mutex
	breaker         *util.CircuitBreaker
	logger          *zap.Logger
	sleep           func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if len(cfg.Tokens) == 0 {
		return nil, errors.NewValidationError("at least one CMS API token is required", "tokens", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.APIConfig.CMSBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.APIConfig.CMSTimeout
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("accept-version", "1.0.0")

	c := &Client{
		http:   httpClient,
		tokens: cfg.Tokens,
		logger: logger,
		sleep:  sleepContext,
	}
	c.breaker = util.NewCircuitBreaker(util.CircuitBreakerOptions{
		Name:                "cms",
		FailureThreshold:    constants.CircuitBreakerConfig.FailureThreshold,
		ResetTimeout:        constants.CircuitBreakerConfig.ResetTimeout,
		HealthCheckInterval: constants.CircuitBreakerConfig.HealthCheckInterval,
		HealthCheckTimeout:  constants.CircuitBreakerConfig.HealthCheckTimeout,
	}, logger)

	return c, nil
}

func (c *Client) DoRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if !c.breaker.CanExecute() {
		status := c.breaker.GetStatus()
		var remainingMs int64
		if status.NextRetryTime != nil {
			remainingMs = time.Until(*status.NextRetryTime).Milliseconds()
		}
		c.logger.Warn("CMS circuit breaker is open", zap.Int64("retry_after_ms", remainingMs))
		return nil, errors.NewAPIError("CMS circuit breaker open", 503, map[string]any{
			"retry_after_ms": remainingMs,
		})
	}

	maxAttempts := min(len(c.tokens)*2, 10)
	maxAttempts = max(maxAttempts, constants.RetryConfig.MaxAttempts)
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		token := c.nextToken()

		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetQueryParamsFromValues(params).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.breaker.RecordFailure(0)
			if !c.breaker.CanExecute() {
				break
			}
			if attempt < maxAttempts-1 {
				delay := c.computeDelay(attempt)
				c.logger.Warn("CMS request failed, retrying",
					zap.String("path", path),
					zap.Error(err),
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay),
				)
				if err := c.sleep(ctx, delay); err != nil {
					return nil, err
				}
			}
			continue
		}

		status := resp.StatusCode()
		body := resp.Body()

		switch {
		case status == 429 || status == 403:
			c.logger.Warn("CMS rate limited, rotating token",
				zap.Int("status", status),
				zap.Int("attempt", attempt+1),
			)
			if attempt < maxAttempts-1 {
				continue
			}
			c.breaker.RecordFailure(constants.CircuitBreakerConfig.RateLimitTimeout)
			return nil, errors.NewTokenRotationError("All CMS tokens rate limited", status, map[string]any{
				"path": path,
			})

		case status >= 500:
			c.breaker.RecordFailure(0)
			lastErr = errors.NewAPIError(fmt.Sprintf("CMS server error: %d", status), status, map[string]any{
				"path": path,
			})
			c.logger.Warn("CMS server error",
				zap.String("path", path),
				zap.Int("status", status),
				zap.Int("attempt", attempt+1),
			)
			if !c.breaker.CanExecute() {
				return nil, lastErr
			}
			if attempt < maxAttempts-1 {
				if err := c.sleep(ctx, c.computeDelay(attempt)); err != nil {
					return nil, err
				}
			}
			continue

		case status >= 400:
			return nil, errors.NewAPIError(fmt.Sprintf("CMS client error: %d", status), status, map[string]any{
				"path": path,
				"body": util.TruncateString(string(body), 500),
			})
		}

		c.breaker.RecordSuccess()
		return body, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("cms request failed: %s", path)
}

func (c *Client) IsCircuitOpen() bool {
	return !c.breaker.CanExecute()
}

// CircuitStatus exposes the breaker state for the health endpoint.
func (c *Client) CircuitStatus() util.CircuitBreakerStatus {
	return c.breaker.GetStatus()
}

func (c *Client) nextToken() string {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	token := c.tokens[c.currentTokenIdx]
	c.currentTokenIdx = (c.currentTokenIdx + 1) % len(c.tokens)
	return token
}

func (c *Client) computeDelay(attempt int) time.Duration {
	base := constants.RetryConfig.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
	jitter := time.Duration(rand.Float64() * float64(constants.RetryConfig.Jitter))
	return base + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
