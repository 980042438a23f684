package curseforge

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empack/internal/netmgr"
)

func TestLiveClient_Search_RejectsOversizedPageSize(t *testing.T) {
	c := NewLiveClient(netmgr.New(t.TempDir()), "key")
	_, err := c.Search(MinecraftGameID, "jei", 51, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSearchParams)
}

func TestLiveClient_Search_RejectsPaginationCeiling(t *testing.T) {
	c := NewLiveClient(netmgr.New(t.TempDir()), "key")
	_, err := c.Search(MinecraftGameID, "jei", 50, 9951)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSearchParams)
}

func TestLiveClient_Search_SendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		_ = json.NewEncoder(w).Encode(SearchResults{Data: []SearchResult{{Slug: "jei"}}})
	}))
	defer srv.Close()

	mgr := netmgr.New(t.TempDir())
	c := NewLiveClientWithBaseURL(mgr, "secret-key", srv.URL)

	results, err := c.Search(MinecraftGameID, "jei", 20, 0)
	require.NoError(t, err)
	require.Len(t, results.Data, 1)
	assert.Equal(t, "jei", results.Data[0].Slug)
}

func TestLiveClient_GetDependencies_NoDeps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(struct {
			Data FileInfo `json:"data"`
		}{Data: FileInfo{ID: 1, ModID: 2}})
	}))
	defer srv.Close()

	mgr := netmgr.New(t.TempDir())
	c := NewLiveClientWithBaseURL(mgr, "key", srv.URL)

	deps, err := c.GetDependencies(2, 1)
	require.NoError(t, err)
	assert.Empty(t, deps.Mods)
}

func TestLiveClient_DownloadFile_VerifiesMD5(t *testing.T) {
	payload := []byte("curseforge jar contents")
	sum := md5.Sum(payload)
	hash := hex.EncodeToString(sum[:])

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	mgr := netmgr.New(t.TempDir())
	c := NewLiveClientWithBaseURL(mgr, "key", srv.URL)

	data, err := c.DownloadFile(srv.URL+"/file.jar", []FileHash{
		{Value: "unused-sha1", Algo: 1},
		{Value: hash, Algo: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestLiveClient_DownloadFile_RejectsHashMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("curseforge jar contents"))
	}))
	defer srv.Close()

	mgr := netmgr.New(t.TempDir())
	c := NewLiveClientWithBaseURL(mgr, "key", srv.URL)

	_, err := c.DownloadFile(srv.URL+"/file.jar", []FileHash{{Value: "deadbeef", Algo: 2}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestMockClient_DependencyLookup(t *testing.T) {
	m := NewMockClient().WithDependencyResult(2, 1, ModDependencies{Mods: []SearchResult{{Slug: "fabric-api"}}}, nil)

	deps, err := m.GetDependencies(2, 1)
	require.NoError(t, err)
	require.Len(t, deps.Mods, 1)

	_, err = m.GetDependencies(99, 1)
	assert.Error(t, err)
}

