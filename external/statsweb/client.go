package statsweb

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/resultatbasen/ingest/internal/platform/logging"
	"github.com/resultatbasen/ingest/internal/platform/resilience"
	"github.com/resultatbasen/ingest/internal/usecase"
)

const (
	defaultBaseURL = "https://www.friidrettsstatistikk.no/php"
	athletePath    = "/UtoverStatistikk.php"
	searchPath     = "/SokUtover.php"

	maxResponseBytes = 6 << 20
	maxBackoff       = 30 * time.Second
)

var errStatswebTransient = crerr.New("statsweb transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RequestDelay   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the results site. The site is rate-sensitive, so a
// fixed delay between requests is enforced unconditionally; retries
// use exponential backoff on top of it.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	requestDelay   time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight

	mu          sync.Mutex
	lastRequest time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	requestDelay := cfg.RequestDelay
	if requestDelay <= 0 {
		requestDelay = time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		requestDelay:   requestDelay,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchAthletePage fetches and extracts one athlete's result page.
func (c *Client) FetchAthletePage(ctx context.Context, externalID string) (usecase.SourcePage, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return usecase.SourcePage{}, fmt.Errorf("athlete id is required")
	}

	form := url.Values{}
	form.Set("athlete", externalID)

	raw, err := c.do(ctx, athletePath, form)
	if err != nil {
		return usecase.SourcePage{}, fmt.Errorf("fetch athlete page id=%s: %w", externalID, err)
	}

	page, err := ParseResultPage(bytes.NewReader(raw))
	if err != nil {
		return usecase.SourcePage{}, fmt.Errorf("extract athlete page id=%s: %w", externalID, err)
	}
	page.Athlete.ExternalID = externalID
	return page, nil
}

// SearchAthleteIDs lists the athlete ids registered under a starting
// letter.
func (c *Client) SearchAthleteIDs(ctx context.Context, letter string) ([]string, error) {
	letter = strings.TrimSpace(letter)
	if letter == "" {
		return nil, fmt.Errorf("search letter is required")
	}

	form := url.Values{}
	form.Set("letter", letter)

	raw, err := c.do(ctx, searchPath, form)
	if err != nil {
		return nil, fmt.Errorf("search athletes letter=%s: %w", letter, err)
	}
	return ParseAthleteIDs(bytes.NewReader(raw))
}

func (c *Client) do(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "statsweb circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: results site is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	key := path + "?" + form.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, c.baseURL+path, form)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errStatswebTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, form url.Values) ([]byte, error) {
	body := form.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errStatswebTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errStatswebTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: site status=%d", errStatswebTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("site status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(1<<attempt) * time.Second
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("site request failed")
	}
	c.logger.WarnContext(ctx, "statsweb request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// pace blocks until the politeness window since the previous request
// has passed. The delay applies to retries as well.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	wait := c.requestDelay - time.Since(c.lastRequest)
	if wait > 0 {
		c.mu.Unlock()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		c.mu.Lock()
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()
	return nil
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
