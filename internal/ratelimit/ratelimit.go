// Package ratelimit wraps an *http.Client with per-platform exponential
// backoff on HTTP 429 responses (spec §4.2), using cenkalti/backoff's
// exponential generator as the backoff curve so the retry math isn't
// hand-rolled.
package ratelimit

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"empack/internal/primitives"
)

// maxRetries is the number of 429 responses tolerated before Execute gives
// up and returns an error.
const maxRetries = 5

// ErrRateLimited is wrapped into the error Execute returns once a request
// has been retried maxRetries times and is still being throttled.
var ErrRateLimited = errors.New("ratelimit: rate limit exceeded")

// Config is the exponential backoff curve: how long to wait before the
// first retry, how fast that wait grows, and the ceiling it grows toward.
type Config struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultConfig matches the platform's documented retry-after guidance: a
// 1-second initial wait doubling up to a 60-second ceiling.
func DefaultConfig() Config {
	return Config{Initial: time.Second, Max: 60 * time.Second, Multiplier: 2.0}
}

// Client is a rate-limited HTTP client scoped to a single platform.
type Client struct {
	httpClient *http.Client
	platform   primitives.Platform
	config     Config

	mu      sync.Mutex
	backoff *backoff.ExponentialBackOff
}

// New builds a Client with the default backoff curve.
func New(httpClient *http.Client, platform primitives.Platform) *Client {
	return WithBackoff(httpClient, platform, DefaultConfig())
}

// WithBackoff builds a Client with a custom backoff curve, mainly for tests
// that don't want to wait a full second between retries.
func WithBackoff(httpClient *http.Client, platform primitives.Platform, cfg Config) *Client {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.Initial
	b.MaxInterval = cfg.Max
	b.Multiplier = cfg.Multiplier
	// No jitter: retry timing needs to be deterministic for tests and for
	// the "reset to initial on success" invariant to be exact.
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return &Client{httpClient: httpClient, platform: platform, config: cfg, backoff: b}
}

// Platform returns which platform this client is scoped to.
func (c *Client) Platform() primitives.Platform {
	return c.platform
}

// Execute runs req, retrying on 429 Too Many Requests with exponential
// backoff up to maxRetries times. A 2xx response resets the backoff curve
// back to its initial interval, so a later rate limit starts the climb
// over. Non-429 responses (including other error statuses) are returned to
// the caller unchanged — only rate limiting is retried here.
func (c *Client) Execute(req *http.Request) (*http.Response, error) {
	retryCount := 0

	for {
		attempt := req.Clone(req.Context())
		resp, err := c.httpClient.Do(attempt)
		if err != nil {
			return nil, fmt.Errorf("ratelimit: request to %s failed: %w", req.URL, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			retryCount++
			if retryCount > maxRetries {
				return nil, fmt.Errorf("%w: %d retries exhausted for platform %s", ErrRateLimited, maxRetries, c.platform)
			}

			c.mu.Lock()
			wait := c.backoff.NextBackOff()
			c.mu.Unlock()

			time.Sleep(wait)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.mu.Lock()
			c.backoff.Reset()
			c.mu.Unlock()
		}

		return resp, nil
	}
}

// Do satisfies cache.Doer, letting the networking manager route cache-miss
// fetches through this client's rate limiting.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.Execute(req)
}

// Get issues a rate-limited GET request.
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: building GET request for %s: %w", url, err)
	}
	return c.Execute(req)
}

// Manager holds one rate-limited Client per platform, mirroring how the
// networking manager (C3) looks one up by platform for every outbound call.
type Manager struct {
	modrinth   *Client
	curseforge *Client
}

// NewManager builds a Manager sharing a single underlying *http.Client
// across both platforms' rate limiters.
func NewManager(httpClient *http.Client) *Manager {
	return &Manager{
		modrinth:   New(httpClient, primitives.Modrinth),
		curseforge: New(httpClient, primitives.CurseForge),
	}
}

// NewManagerWithBackoff builds a Manager with a custom backoff curve shared
// by both platform clients.
func NewManagerWithBackoff(httpClient *http.Client, cfg Config) *Manager {
	return &Manager{
		modrinth:   WithBackoff(httpClient, primitives.Modrinth, cfg),
		curseforge: WithBackoff(httpClient, primitives.CurseForge, cfg),
	}
}

// Modrinth returns the Modrinth-scoped client.
func (m *Manager) Modrinth() *Client { return m.modrinth }

// CurseForge returns the CurseForge-scoped client.
func (m *Manager) CurseForge() *Client { return m.curseforge }

// ClientFor looks up the rate-limited client for platform.
func (m *Manager) ClientFor(platform primitives.Platform) *Client {
	if platform == primitives.CurseForge {
		return m.curseforge
	}
	return m.modrinth
}
