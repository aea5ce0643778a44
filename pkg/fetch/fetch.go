// Package fetch downloads the source image with a bounded, fixed-delay retry.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gifsmith/reframe/internal/logging"
)

// DefaultUserAgent identifies requests as a desktop browser so that trivial
// bot filters let them through.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_11_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/50.0.2661.102 Safari/537.36"

var (
	// ErrRetriesExhausted is returned once every attempt has failed.
	ErrRetriesExhausted = errors.New("fetch: retries exhausted")
	errBadStatus        = errors.New("fetch: unexpected status")
)

var logger = logging.NewLogger("reframe/fetch")

// Config controls a Fetcher.
type Config struct {
	UserAgent string
	// Retries is the number of attempts made after the first one fails.
	Retries    int
	RetryDelay time.Duration
	// Timeout bounds a single attempt. Zero leaves it to the transport.
	Timeout time.Duration
}

// DefaultConfig returns 3 retries spaced 3 seconds apart.
func DefaultConfig() Config {
	return Config{
		UserAgent:  DefaultUserAgent,
		Retries:    3,
		RetryDelay: 3 * time.Second,
	}
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the http.Client used for requests.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

type Fetcher struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config, opts ...Option) *Fetcher {
	f := &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the body behind url. Every failure, including a non-2xx
// status, is retried up to Config.Retries times with Config.RetryDelay in
// between. When all attempts fail the payload is nil and the error wraps
// both ErrRetriesExhausted and the last cause.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var retries int
	for {
		data, err := f.get(ctx, url)
		if err == nil {
			if retries > 0 {
				logger.Infof("fetched %s after %d retries", url, retries)
			}
			return data, nil
		}

		if retries >= f.cfg.Retries {
			logger.Errorf("failed to fetch data from %s: %v", url, err)
			return nil, fmt.Errorf("%w: %s: %w", ErrRetriesExhausted, url, err)
		}
		retries++
		logger.Warnf("fetching %s failed (%v), retry %d/%d in %v", url, err, retries, f.cfg.Retries, f.cfg.RetryDelay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.cfg.RetryDelay):
		}
	}
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", errBadStatus, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
