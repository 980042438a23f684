package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheCreation(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	assert.Equal(t, dir, c.CacheDir())
	assert.True(t, c.IsEmpty())
}

func TestCachedResponseExpiry(t *testing.T) {
	expired := CachedResponse{Data: []byte{1, 2, 3}, Expires: time.Now().Add(-10 * time.Second)}
	assert.True(t, expired.IsExpired())

	fresh := CachedResponse{Data: []byte{1, 2, 3}, Expires: time.Now().Add(300 * time.Second)}
	assert.False(t, fresh.IsExpired())
}

func TestExtendTTL(t *testing.T) {
	resp := CachedResponse{Expires: time.Now().Add(10 * time.Second)}
	old := resp.Expires
	resp.ExtendTTL(300 * time.Second)
	assert.True(t, resp.Expires.After(old))
}

func TestCacheHit(t *testing.T) {
	c := New(t.TempDir())
	url := "https://example.com/test"
	want := CachedResponse{Data: []byte("test data"), ETag: "abc123", Expires: time.Now().Add(300 * time.Second), Status: 200}

	c.Put(url, want)
	got, ok := c.Get(url)
	require.True(t, ok)
	assert.Equal(t, want.Data, got.Data)
	assert.Equal(t, want.ETag, got.ETag)
	assert.Equal(t, want.Status, got.Status)
}

func TestCacheMiss(t *testing.T) {
	c := New(t.TempDir())
	_, ok := c.Get("https://example.com/nonexistent")
	assert.False(t, ok)
}

func TestCacheRemove(t *testing.T) {
	c := New(t.TempDir())
	url := "https://example.com/test"
	c.Put(url, CachedResponse{Data: []byte("test data"), Expires: time.Now().Add(300 * time.Second)})
	assert.Equal(t, 1, c.Len())

	c.Remove(url)
	assert.Equal(t, 0, c.Len())
}

func TestCacheClear(t *testing.T) {
	c := New(t.TempDir())
	c.Put("https://example.com/1", CachedResponse{Data: []byte{1}, Expires: time.Now().Add(300 * time.Second)})
	c.Put("https://example.com/2", CachedResponse{Data: []byte{2}, Expires: time.Now().Add(300 * time.Second)})
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestDiskPersistence(t *testing.T) {
	dir := t.TempDir()

	c := New(dir)
	c.Put("https://example.com/test", CachedResponse{
		Data: []byte("test data"), ETag: "abc123", Expires: time.Now().Add(300 * time.Second), Status: 200,
	})
	require.NoError(t, c.SaveToDisk())

	reloaded := New(dir)
	require.NoError(t, reloaded.LoadFromDisk())
	assert.Equal(t, 1, reloaded.Len())

	entry, ok := reloaded.Get("https://example.com/test")
	require.True(t, ok)
	assert.Equal(t, []byte("test data"), entry.Data)
	assert.Equal(t, "abc123", entry.ETag)
}

func TestDiskPersistenceFiltersExpired(t *testing.T) {
	dir := t.TempDir()

	c := New(dir)
	c.Put("https://example.com/expired", CachedResponse{Data: []byte("expired"), Expires: time.Now().Add(-10 * time.Second)})
	c.Put("https://example.com/valid", CachedResponse{Data: []byte("valid"), Expires: time.Now().Add(300 * time.Second)})
	require.NoError(t, c.SaveToDisk())

	reloaded := New(dir)
	require.NoError(t, reloaded.LoadFromDisk())
	assert.Equal(t, 1, reloaded.Len())

	_, ok := reloaded.Get("https://example.com/valid")
	assert.True(t, ok)
	_, ok = reloaded.Get("https://example.com/expired")
	assert.False(t, ok)
}

func TestHttpCacheMiss(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Etag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("response data"))
	}))
	defer srv.Close()

	c := New(t.TempDir())
	resp, err := c.GetWithETag(srv.Client(), srv.URL+"/test")
	require.NoError(t, err)
	assert.Equal(t, []byte("response data"), resp.Data)
	assert.Equal(t, `"abc123"`, resp.ETag)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.False(t, resp.IsExpired())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())
}

func TestHttpCacheHitReturnsCachedData(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Etag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("response data"))
	}))
	defer srv.Close()

	c := New(t.TempDir())
	url := srv.URL + "/test"

	first, err := c.GetWithETag(srv.Client(), url)
	require.NoError(t, err)
	assert.Equal(t, []byte("response data"), first.Data)

	second, err := c.GetWithETag(srv.Client(), url)
	require.NoError(t, err)
	assert.Equal(t, []byte("response data"), second.Data)

	assert.Equal(t, 1, calls)
}

func TestHttpEtagRevalidation304(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Etag", `"abc123"`)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("original data"))
			return
		}
		assert.Equal(t, `"abc123"`, r.Header.Get("If-None-Match"))
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	c := WithTTL(t.TempDir(), 10*time.Millisecond)
	url := srv.URL + "/test"

	first, err := c.GetWithETag(srv.Client(), url)
	require.NoError(t, err)
	assert.Equal(t, []byte("original data"), first.Data)

	time.Sleep(20 * time.Millisecond)

	second, err := c.GetWithETag(srv.Client(), url)
	require.NoError(t, err)
	assert.Equal(t, []byte("original data"), second.Data)
	assert.False(t, second.IsExpired())
	assert.Equal(t, 2, calls)
}

func TestHttpEtagChanged(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Etag", `"abc123"`)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("original data"))
			return
		}
		assert.Equal(t, `"abc123"`, r.Header.Get("If-None-Match"))
		w.Header().Set("Etag", `"xyz789"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("new data"))
	}))
	defer srv.Close()

	c := WithTTL(t.TempDir(), 10*time.Millisecond)
	url := srv.URL + "/test"

	_, err := c.GetWithETag(srv.Client(), url)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	second, err := c.GetWithETag(srv.Client(), url)
	require.NoError(t, err)
	assert.Equal(t, []byte("new data"), second.Data)
	assert.Equal(t, `"xyz789"`, second.ETag)
}

func TestNonSuccessResponseNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not Found"))
	}))
	defer srv.Close()

	c := New(t.TempDir())
	resp, err := c.GetWithETag(srv.Client(), srv.URL+"/error")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, []byte("Not Found"), resp.Data)
	assert.Equal(t, 0, c.Len())
}
