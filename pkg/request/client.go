// Package request fetches remote assets with per-host queuing, caching and backoff.
package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pigeonflight/pkg/cache"
	"pigeonflight/pkg/config"
	"pigeonflight/pkg/tracker"
	"pigeonflight/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("PigeonFlight/%s", version.Version)

// ErrMaxRetries is returned when every attempt hit a retryable failure.
var ErrMaxRetries = errors.New("max retries exceeded")

// StatusError is a non-retryable HTTP error response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d for %s", e.Code, e.URL)
}

// Options tune retries and timeouts.
type Options struct {
	Retries   int
	Timeout   time.Duration
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// OptionsFromConfig maps the request section of the config.
func OptionsFromConfig(cfg config.RequestConfig) Options {
	return Options{
		Retries:   cfg.Retries,
		Timeout:   cfg.Timeout.Std(),
		BaseDelay: cfg.Backoff.BaseDelay.Std(),
		MaxDelay:  cfg.Backoff.MaxDelay.Std(),
	}
}

// Client handles HTTP requests with queuing, caching, and tracking.
type Client struct {
	httpClient *http.Client
	cache      cache.Cacher
	tracker    *tracker.Tracker
	backoff    *ProviderBackoff
	retries    int
	baseDelay  time.Duration

	// one queue and worker per source host
	queues map[string]chan job
	mu     sync.Mutex
}

type job struct {
	req      *http.Request
	headers  map[string]string
	cacheKey string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a new Client. Zero options fall back to safe defaults.
func New(c cache.Cacher, t *tracker.Tracker, opts Options) *Client {
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = opts.BaseDelay
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      c,
		tracker:    t,
		backoff:    NewProviderBackoff(opts.BaseDelay, opts.MaxDelay),
		retries:    opts.Retries,
		baseDelay:  opts.BaseDelay,
		queues:     make(map[string]chan job),
	}
}

// Get performs a GET request with queuing, and caching if key is provided.
func (c *Client) Get(ctx context.Context, u, cacheKey string) ([]byte, error) {
	return c.GetWithHeaders(ctx, u, nil, cacheKey)
}

// GetWithHeaders performs a GET request with custom headers. A non-empty
// cacheKey makes the request cache-first and stores successful bodies.
func (c *Client) GetWithHeaders(ctx context.Context, u string, headers map[string]string, cacheKey string) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid url: missing host in %q", u)
	}
	source := normalizeSource(parsedURL.Host)

	if cacheKey != "" {
		if val, hit := c.cache.GetCache(ctx, cacheKey); hit {
			c.tracker.TrackCacheHit(source)
			slog.Debug("Cache Hit", "source", source, "key", cacheKey)
			return val, nil
		}
		c.tracker.TrackCacheMiss(source)
		slog.Debug("Cache Miss", "source", source, "key", cacheKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respChan := make(chan jobResult, 1)
	c.dispatch(source, job{req: req, headers: headers, cacheKey: cacheKey, respChan: respChan})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-respChan:
		return res.body, res.err
	}
}

// normalizeSource groups hosts for queuing and stats.
func normalizeSource(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// dispatch sends the job to the source's queue, starting its worker if needed.
func (c *Client) dispatch(source string, j job) {
	c.mu.Lock()
	q, ok := c.queues[source]
	if !ok {
		q = make(chan job, 100)
		c.queues[source] = q
		go c.worker(source, q)
	}
	c.mu.Unlock()

	// Blocks while the queue is full, throttling the caller
	select {
	case q <- j:
	case <-j.req.Context().Done():
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for one source sequentially.
func (c *Client) worker(source string, q <-chan job) {
	for j := range q {
		ctx := j.req.Context()
		if ctx.Err() != nil {
			slog.Warn("Job dropped from queue (context expired)", "source", source, "error", ctx.Err())
			j.respChan <- jobResult{err: ctx.Err()}
			continue
		}

		if err := c.backoff.Wait(ctx, source); err != nil {
			j.respChan <- jobResult{err: err}
			continue
		}

		hasUA := false
		for k, v := range j.headers {
			j.req.Header.Set(k, v)
			if http.CanonicalHeaderKey(k) == "User-Agent" {
				hasUA = true
			}
		}
		if !hasUA {
			j.req.Header.Set("User-Agent", defaultUserAgent)
		}

		body, err := c.executeWithBackoff(j.req)

		switch {
		case err == nil:
			c.tracker.TrackFetchSuccess(source)
			c.backoff.RecordSuccess(source)
			if j.cacheKey != "" {
				if err := c.cache.SetCache(context.Background(), j.cacheKey, body); err != nil {
					slog.Error("Failed to cache response", "url", j.req.URL, "error", err)
				}
			}
		case ctx.Err() != nil:
			// caller gave up; not the source's fault
		default:
			c.tracker.TrackFetchFailure(source)
			var se *StatusError
			if !errors.As(err, &se) {
				c.backoff.RecordFailure(source)
			}
		}

		j.respChan <- jobResult{body: body, err: err}
	}
}

// executeWithBackoff attempts the request, retrying network errors, 429 and 5xx.
func (c *Client) executeWithBackoff(req *http.Request) ([]byte, error) {
	ctx := req.Context()

	for attempt := 0; attempt < c.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Request failed, retrying", "url", req.URL, "attempt", attempt+1, "error", err)
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			slog.Warn("Upstream Backoff", "status", resp.StatusCode, "url", req.URL, "attempt", attempt+1)
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, URL: req.URL.String()}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return body, nil
	}

	return nil, ErrMaxRetries
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	d := time.Duration(math.Pow(2, float64(attempt))) * c.baseDelay
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
