// Package curseforge is the CurseForge platform API client (the other half
// of C4): search, dependency resolution (file lookup followed by a batched
// mod fetch), and MD5-verified file download against api.curseforge.com.
package curseforge

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"empack/internal/netmgr"
)

const baseURL = "https://api.curseforge.com"

// MinecraftGameID is the CurseForge game ID for Minecraft, the only game
// this module ever searches.
const MinecraftGameID = 432

// md5HashAlgo is CurseForge's numeric code for an MD5 digest in a file's
// hash list (1 = SHA1, 2 = MD5).
const md5HashAlgo = 2

// ErrInvalidSearchParams mirrors modrinth.ErrInvalidSearchParams for the
// CurseForge client's own pagination ceiling.
var ErrInvalidSearchParams = errors.New("curseforge: invalid search parameters")

// ErrHashMismatch is returned by DownloadFile when the downloaded bytes don't
// match the first MD5 hash in the expected list. With no MD5 entry in that
// list, the download is returned unverified.
var ErrHashMismatch = errors.New("curseforge: hash mismatch")

// ErrFileNotFound is returned when a dependency file lookup 404s.
var ErrFileNotFound = errors.New("curseforge: file not found")

// ModAuthor is a single credited author of a mod.
type ModAuthor struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Category is one of a mod's assigned categories.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// FileHash is one digest CurseForge published for a file; Algo 1 is SHA1,
// 2 is MD5.
type FileHash struct {
	Value string `json:"value"`
	Algo  int    `json:"algo"`
}

// FileDependency references another mod a file depends on.
type FileDependency struct {
	ModID        int `json:"modId"`
	RelationType int `json:"relationType"`
}

// FileInfo describes one downloadable file of a mod.
type FileInfo struct {
	ID           int              `json:"id"`
	ModID        int              `json:"modId"`
	DisplayName  string           `json:"displayName"`
	FileName     string           `json:"fileName"`
	DownloadURL  string           `json:"downloadUrl"`
	GameVersions []string         `json:"gameVersions"`
	Dependencies []FileDependency `json:"dependencies"`
	Hashes       []FileHash       `json:"hashes"`
}

// SearchResult is one mod entry in a search response.
type SearchResult struct {
	ID            int        `json:"id"`
	GameID        int        `json:"gameId"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Summary       string     `json:"summary"`
	DownloadCount int64      `json:"downloadCount"`
	DateCreated   string     `json:"dateCreated"`
	DateModified  string     `json:"dateModified"`
	Authors       []ModAuthor `json:"authors"`
	Categories    []Category  `json:"categories"`
	LatestFiles   []FileInfo  `json:"latestFiles"`
}

// Pagination is the envelope's paging metadata.
type Pagination struct {
	Index      int `json:"index"`
	PageSize   int `json:"pageSize"`
	ResultCount int `json:"resultCount"`
	TotalCount  int `json:"totalCount"`
}

// SearchResults is the full /v1/mods/search response.
type SearchResults struct {
	Data       []SearchResult `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// ModDependencies is the assembled result of a dependency lookup: the file
// that was inspected plus the mods its dependency IDs resolved to.
type ModDependencies struct {
	Mods  []SearchResult `json:"mods"`
	Files []FileInfo     `json:"files"`
}

// Client is the capability consumers program against.
type Client interface {
	Search(gameID int, searchFilter string, pageSize, index int) (SearchResults, error)
	GetDependencies(modID, fileID int) (ModDependencies, error)
	DownloadFile(url string, expected []FileHash) ([]byte, error)
}

// LiveClient talks to the real CurseForge API. Search and dependency calls
// carry the x-api-key header; they, like downloads, go through the
// networking manager's raw client, so CurseForge calls are neither cached
// nor rate limited.
type LiveClient struct {
	networking *netmgr.Manager
	baseURL    string
	apiKey     string
}

// NewLiveClient builds a client against the production CurseForge API.
func NewLiveClient(networking *netmgr.Manager, apiKey string) *LiveClient {
	return &LiveClient{networking: networking, baseURL: baseURL, apiKey: apiKey}
}

// NewLiveClientWithBaseURL builds a client against a custom base URL.
func NewLiveClientWithBaseURL(networking *netmgr.Manager, apiKey, base string) *LiveClient {
	return &LiveClient{networking: networking, baseURL: base, apiKey: apiKey}
}

// Search queries /v1/mods/search, enforcing the platform's pageSize ceiling
// and its combined index+pageSize ceiling before any network call.
//
// Unlike Modrinth, CurseForge search isn't routed through the cache+rate
// limiter here: the x-api-key header has to reach the request the
// networking manager builds internally, which it doesn't expose a hook for,
// so this call goes through the raw client directly, same as a download.
func (c *LiveClient) Search(gameID int, searchFilter string, pageSize, index int) (SearchResults, error) {
	if pageSize > 50 {
		return SearchResults{}, fmt.Errorf("%w: pageSize must be <= 50", ErrInvalidSearchParams)
	}
	if index+pageSize > 10000 {
		return SearchResults{}, fmt.Errorf("%w: index + pageSize must be <= 10,000", ErrInvalidSearchParams)
	}

	u := fmt.Sprintf("%s/v1/mods/search?gameId=%d&searchFilter=%s&pageSize=%d&index=%d",
		c.baseURL, gameID, url.QueryEscape(searchFilter), pageSize, index)

	data, err := c.doGet(u)
	if err != nil {
		return SearchResults{}, fmt.Errorf("curseforge: search: %w", err)
	}

	var results SearchResults
	if err := json.Unmarshal(data, &results); err != nil {
		return SearchResults{}, fmt.Errorf("curseforge: parsing search response: %w", err)
	}
	return results, nil
}

// GetDependencies fetches the file at mod_id/file_id, then batch-fetches the
// mods referenced by that file's dependency list via POST /v1/mods.
func (c *LiveClient) GetDependencies(modID, fileID int) (ModDependencies, error) {
	fileURL := fmt.Sprintf("%s/v1/mods/%d/files/%d", c.baseURL, modID, fileID)

	fileData, err := c.doGet(fileURL)
	if err != nil {
		return ModDependencies{}, fmt.Errorf("%w: %d/%d: %v", ErrFileNotFound, modID, fileID, err)
	}

	var fileResp struct {
		Data FileInfo `json:"data"`
	}
	if err := json.Unmarshal(fileData, &fileResp); err != nil {
		return ModDependencies{}, fmt.Errorf("curseforge: parsing file response: %w", err)
	}
	file := fileResp.Data

	depModIDs := make([]int, 0, len(file.Dependencies))
	for _, dep := range file.Dependencies {
		depModIDs = append(depModIDs, dep.ModID)
	}

	if len(depModIDs) == 0 {
		return ModDependencies{Mods: nil, Files: nil}, nil
	}

	modsURL := fmt.Sprintf("%s/v1/mods", c.baseURL)
	body, err := json.Marshal(struct {
		ModIDs []int `json:"modIds"`
	}{ModIDs: depModIDs})
	if err != nil {
		return ModDependencies{}, fmt.Errorf("curseforge: encoding mod batch request: %w", err)
	}

	modsData, err := c.doPost(modsURL, body)
	if err != nil {
		return ModDependencies{}, fmt.Errorf("curseforge: batch mod fetch: %w", err)
	}

	var modsResp struct {
		Data []SearchResult `json:"data"`
	}
	if err := json.Unmarshal(modsData, &modsResp); err != nil {
		return ModDependencies{}, fmt.Errorf("curseforge: parsing mod batch response: %w", err)
	}

	return ModDependencies{Mods: modsResp.Data, Files: []FileInfo{file}}, nil
}

// DownloadFile fetches a file directly from the CDN and verifies it against
// whichever entry in expected carries the MD5 algorithm code.
func (c *LiveClient) DownloadFile(downloadURL string, expected []FileHash) ([]byte, error) {
	resp, err := c.networking.RawClient().Get(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("curseforge: downloading %s: %w", downloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("curseforge: download %s returned status %d", downloadURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("curseforge: reading download body: %w", err)
	}

	for _, h := range expected {
		if h.Algo != md5HashAlgo {
			continue
		}
		sum := md5.Sum(data)
		got := hex.EncodeToString(sum[:])
		if got != h.Value {
			return nil, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, h.Value, got)
		}
		break
	}

	return data, nil
}

func (c *LiveClient) doGet(u string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.networking.RawClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, u)
	}
	return io.ReadAll(resp.Body)
}

func (c *LiveClient) doPost(u string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.networking.RawClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, u)
	}
	return io.ReadAll(resp.Body)
}

// MockClient is a test double backed by registered responses.
type MockClient struct {
	mu                  sync.Mutex
	searchResponses     map[string]mockResult[SearchResults]
	dependencyResponses map[string]mockResult[ModDependencies]
	downloadResponses   map[string]mockResult[[]byte]
}

type mockResult[T any] struct {
	value T
	err   error
}

// NewMockClient builds an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{
		searchResponses:     make(map[string]mockResult[SearchResults]),
		dependencyResponses: make(map[string]mockResult[ModDependencies]),
		downloadResponses:   make(map[string]mockResult[[]byte]),
	}
}

// WithSearchResult registers the response for an exact search filter string.
func (m *MockClient) WithSearchResult(searchFilter string, results SearchResults, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchResponses[searchFilter] = mockResult[SearchResults]{value: results, err: err}
	return m
}

// WithDependencyResult registers the response for a mod_id:file_id pair.
func (m *MockClient) WithDependencyResult(modID, fileID int, deps ModDependencies, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependencyResponses[depKey(modID, fileID)] = mockResult[ModDependencies]{value: deps, err: err}
	return m
}

// WithDownloadResult registers the response for a download URL.
func (m *MockClient) WithDownloadResult(url string, data []byte, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadResponses[url] = mockResult[[]byte]{value: data, err: err}
	return m
}

func depKey(modID, fileID int) string {
	return strconv.Itoa(modID) + ":" + strconv.Itoa(fileID)
}

// Search returns the registered response for searchFilter.
func (m *MockClient) Search(_ int, searchFilter string, _, _ int) (SearchResults, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.searchResponses[searchFilter]
	if !ok {
		return SearchResults{}, fmt.Errorf("%w: no mock response for search %q", ErrInvalidSearchParams, searchFilter)
	}
	return r.value, r.err
}

// GetDependencies returns the registered response for modID/fileID.
func (m *MockClient) GetDependencies(modID, fileID int) (ModDependencies, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.dependencyResponses[depKey(modID, fileID)]
	if !ok {
		return ModDependencies{}, fmt.Errorf("%w: %d/%d", ErrFileNotFound, modID, fileID)
	}
	return r.value, r.err
}

// DownloadFile returns the registered response for url.
func (m *MockClient) DownloadFile(url string, _ []FileHash) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.downloadResponses[url]
	if !ok {
		return nil, fmt.Errorf("curseforge: no mock response for url %q", url)
	}
	return r.value, r.err
}

var _ Client = (*LiveClient)(nil)
var _ Client = (*MockClient)(nil)
