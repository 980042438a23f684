package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empack/internal/primitives"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Second, cfg.Initial)
	assert.Equal(t, 60*time.Second, cfg.Max)
	assert.Equal(t, 2.0, cfg.Multiplier)
}

func TestClientCreation(t *testing.T) {
	c := New(http.DefaultClient, primitives.Modrinth)
	assert.Equal(t, primitives.Modrinth, c.Platform())
}

func TestSuccessfulRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	}))
	defer srv.Close()

	c := New(srv.Client(), primitives.Modrinth)
	resp, err := c.Get(srv.URL + "/test")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit429WithRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success after retry"))
	}))
	defer srv.Close()

	c := WithBackoff(srv.Client(), primitives.Modrinth, Config{
		Initial: 10 * time.Millisecond, Max: 100 * time.Millisecond, Multiplier: 2.0,
	})

	start := time.Now()
	resp, err := c.Get(srv.URL + "/test")
	elapsed := time.Since(start)

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, calls)
}

func TestExponentialBackoffGrowsBetweenRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("finally succeeded"))
	}))
	defer srv.Close()

	c := WithBackoff(srv.Client(), primitives.CurseForge, Config{
		Initial: 10 * time.Millisecond, Max: 100 * time.Millisecond, Multiplier: 2.0,
	})

	start := time.Now()
	resp, err := c.Get(srv.URL + "/test")
	elapsed := time.Since(start)

	require.NoError(t, err)
	defer resp.Body.Close()
	// 10ms + 20ms + 40ms = 70ms minimum total wait across three retries.
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	assert.Equal(t, 4, calls)
}

func TestMaxRetriesExceeded(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := WithBackoff(srv.Client(), primitives.Modrinth, Config{
		Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond, Multiplier: 2.0,
	})

	_, err := c.Get(srv.URL + "/test")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, maxRetries+1, calls)
}

func TestBackoffResetOnSuccess(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := Config{Initial: 10 * time.Millisecond, Max: 100 * time.Millisecond, Multiplier: 2.0}
	c := WithBackoff(srv.Client(), primitives.Modrinth, cfg)

	resp, err := c.Get(srv.URL + "/test")
	require.NoError(t, err)
	resp.Body.Close()

	// The backoff generator should be back at its initial interval, so the
	// very next retry sequence starts the climb over rather than picking up
	// where the last one left off.
	next := c.backoff.NextBackOff()
	assert.Equal(t, cfg.Initial, next)
}

func TestManagerClientForPlatform(t *testing.T) {
	m := NewManager(http.DefaultClient)

	assert.Equal(t, primitives.Modrinth, m.Modrinth().Platform())
	assert.Equal(t, primitives.CurseForge, m.CurseForge().Platform())
	assert.Equal(t, primitives.Modrinth, m.ClientFor(primitives.Modrinth).Platform())
	assert.Equal(t, primitives.CurseForge, m.ClientFor(primitives.CurseForge).Platform())
}

func TestManagerWithBackoff(t *testing.T) {
	cfg := Config{Initial: 500 * time.Millisecond, Max: 30 * time.Second, Multiplier: 1.5}
	m := NewManagerWithBackoff(http.DefaultClient, cfg)

	assert.Equal(t, cfg.Initial, m.Modrinth().config.Initial)
	assert.Equal(t, cfg.Max, m.CurseForge().config.Max)
}
