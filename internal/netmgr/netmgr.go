// Package netmgr is the networking manager (C3): it owns the shared HTTP
// client and composes the cache (C1) with the per-platform rate limiters
// (C2) into a single cached-and-throttled GET.
package netmgr

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"empack/internal/cache"
	"empack/internal/primitives"
	"empack/internal/ratelimit"
)

// Manager is the shared entry point platform API clients (C4) fetch
// through.
type Manager struct {
	httpClient *http.Client
	cache      *cache.HttpCache
	rateLimit  *ratelimit.Manager
}

// New builds a Manager with a tuned transport matching the teacher's
// connection-reuse settings, a cache rooted at cacheDir, and default
// per-platform backoff.
func New(cacheDir string) *Manager {
	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
		},
	}

	return &Manager{
		httpClient: client,
		cache:      cache.New(cacheDir),
		rateLimit:  ratelimit.NewManager(client),
	}
}

// RawClient returns the underlying *http.Client for direct, uncached,
// unthrottled access — used for CDN mod-file downloads, which aren't
// subject to platform rate limits the way API calls are.
func (m *Manager) RawClient() *http.Client {
	return m.httpClient
}

// Cache exposes the cache tier directly, mainly so the composition root can
// call SaveToDisk/LoadFromDisk around a run.
func (m *Manager) Cache() *cache.HttpCache {
	return m.cache
}

// GetWithCacheAndRateLimit performs a cache lookup for url; on a miss (or
// stale entry needing revalidation) it delegates to the rate-limited client
// for platform and stores the result in the cache before returning.
func (m *Manager) GetWithCacheAndRateLimit(url string, platform primitives.Platform) ([]byte, error) {
	client := m.rateLimit.ClientFor(platform)
	result, err := m.cache.GetWithETag(client, url)
	if err != nil {
		return nil, fmt.Errorf("netmgr: %w", err)
	}
	return result.Data, nil
}
