// Package modrinth is the Modrinth platform API client (half of C4): search,
// dependency listing, and hash-verified file download against
// api.modrinth.com/v2.
package modrinth

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"

	"empack/internal/netmgr"
	"empack/internal/primitives"
)

const baseURL = "https://api.modrinth.com/v2"

// ErrInvalidSearchParams is returned when a caller violates the platform's
// documented input constraints before any network call is made.
var ErrInvalidSearchParams = errors.New("modrinth: invalid search parameters")

// ErrHashMismatch is returned by DownloadFile when the downloaded bytes
// don't match the expected SHA-512 digest.
var ErrHashMismatch = errors.New("modrinth: hash mismatch")

// SearchHit is one entry in a search response.
type SearchHit struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ProjectID     string   `json:"project_id"`
	ProjectType   string   `json:"project_type"`
	Downloads     int64    `json:"downloads"`
	IconURL       string   `json:"icon_url"`
	Author        string   `json:"author"`
	Versions      []string `json:"versions"`
	DateCreated   string   `json:"date_created"`
	DateModified  string   `json:"date_modified"`
	LatestVersion string   `json:"latest_version"`
}

// SearchResults is the full search response envelope.
type SearchResults struct {
	Hits      []SearchHit `json:"hits"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
	TotalHits int         `json:"total_hits"`
}

// VersionDependency describes one dependency edge of a project version.
type VersionDependency struct {
	VersionID      string `json:"version_id,omitempty"`
	ProjectID      string `json:"project_id,omitempty"`
	FileName       string `json:"file_name,omitempty"`
	DependencyType string `json:"dependency_type"`
}

// FileHash holds both digests Modrinth publishes for a file.
type FileHash struct {
	SHA1   string `json:"sha1"`
	SHA512 string `json:"sha512"`
}

// VersionFile is one downloadable artifact of a Version.
type VersionFile struct {
	Hashes   FileHash `json:"hashes"`
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	Primary  bool     `json:"primary"`
	Size     int64    `json:"size"`
}

// Version is a single published version of a project.
type Version struct {
	ID             string              `json:"id"`
	ProjectID      string              `json:"project_id"`
	VersionNumber  string              `json:"version_number"`
	Dependencies   []VersionDependency `json:"dependencies"`
	GameVersions   []string            `json:"game_versions"`
	Loaders        []string            `json:"loaders"`
	DatePublished  string              `json:"date_published"`
	Downloads      int64               `json:"downloads"`
	Files          []VersionFile       `json:"files"`
}

// ProjectDependencies is the response of the dependencies endpoint.
type ProjectDependencies struct {
	Projects []SearchHit `json:"projects"`
	Versions []Version   `json:"versions"`
}

// Client is the capability every consumer of the Modrinth API programs
// against — satisfied by both the live client and the test double below.
type Client interface {
	Search(query string, facets string, limit, offset int) (SearchResults, error)
	GetDependencies(projectID string) (ProjectDependencies, error)
	DownloadFile(url string, expected FileHash) ([]byte, error)
}

// LiveClient talks to the real Modrinth API through the networking manager,
// so search/dependency lookups go through cache+rate-limit and downloads go
// straight to the CDN.
type LiveClient struct {
	networking *netmgr.Manager
	baseURL    string
}

// NewLiveClient builds a client against the production Modrinth API.
func NewLiveClient(networking *netmgr.Manager) *LiveClient {
	return &LiveClient{networking: networking, baseURL: baseURL}
}

// NewLiveClientWithBaseURL builds a client against a custom base URL, for
// staging environments or integration tests run against a local server.
func NewLiveClientWithBaseURL(networking *netmgr.Manager, base string) *LiveClient {
	return &LiveClient{networking: networking, baseURL: base}
}

// Search queries /v2/search with the given query string, optional raw
// facets JSON, and pagination. limit above 100 is rejected before any
// network call.
func (c *LiveClient) Search(query string, facets string, limit, offset int) (SearchResults, error) {
	if limit > 100 {
		return SearchResults{}, fmt.Errorf("%w: limit must be <= 100", ErrInvalidSearchParams)
	}

	u := fmt.Sprintf("%s/search?query=%s&limit=%d&offset=%d", c.baseURL, url.QueryEscape(query), limit, offset)
	if facets != "" {
		u += "&facets=" + url.QueryEscape(facets)
	}

	data, err := c.networking.GetWithCacheAndRateLimit(u, primitives.Modrinth)
	if err != nil {
		return SearchResults{}, fmt.Errorf("modrinth: search: %w", err)
	}

	var results SearchResults
	if err := json.Unmarshal(data, &results); err != nil {
		return SearchResults{}, fmt.Errorf("modrinth: parsing search response: %w", err)
	}
	return results, nil
}

// GetDependencies fetches /v2/project/{id}/dependencies.
func (c *LiveClient) GetDependencies(projectID string) (ProjectDependencies, error) {
	u := fmt.Sprintf("%s/project/%s/dependencies", c.baseURL, projectID)

	data, err := c.networking.GetWithCacheAndRateLimit(u, primitives.Modrinth)
	if err != nil {
		return ProjectDependencies{}, fmt.Errorf("modrinth: get dependencies for %s: %w", projectID, err)
	}

	var deps ProjectDependencies
	if err := json.Unmarshal(data, &deps); err != nil {
		return ProjectDependencies{}, fmt.Errorf("modrinth: parsing dependencies for %s: %w", projectID, err)
	}
	return deps, nil
}

// DownloadFile fetches a file directly from the CDN (bypassing the rate
// limiter, which governs API calls only) and verifies its SHA-512 digest
// before returning the bytes.
func (c *LiveClient) DownloadFile(downloadURL string, expected FileHash) ([]byte, error) {
	resp, err := c.networking.RawClient().Get(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("modrinth: downloading %s: %w", downloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("modrinth: download %s returned status %d", downloadURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("modrinth: reading download body: %w", err)
	}

	sum := sha512.Sum512(data)
	got := hex.EncodeToString(sum[:])
	if got != expected.SHA512 {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, expected.SHA512, got)
	}

	return data, nil
}

// MockClient is a test double backed by registered responses, the same
// shape the networking-free test suites for search/resolver/dependency-graph
// consumers are built on.
type MockClient struct {
	mu                  sync.Mutex
	searchResponses     map[string]mockResult[SearchResults]
	dependencyResponses map[string]mockResult[ProjectDependencies]
	downloadResponses   map[string]mockResult[[]byte]
}

type mockResult[T any] struct {
	value T
	err   error
}

// NewMockClient builds an empty mock client; use the WithX methods to
// register canned responses before exercising it.
func NewMockClient() *MockClient {
	return &MockClient{
		searchResponses:     make(map[string]mockResult[SearchResults]),
		dependencyResponses: make(map[string]mockResult[ProjectDependencies]),
		downloadResponses:   make(map[string]mockResult[[]byte]),
	}
}

// WithSearchResult registers the response returned for an exact query string.
func (m *MockClient) WithSearchResult(query string, results SearchResults, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchResponses[query] = mockResult[SearchResults]{value: results, err: err}
	return m
}

// WithDependencyResult registers the response returned for a project ID.
func (m *MockClient) WithDependencyResult(projectID string, deps ProjectDependencies, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependencyResponses[projectID] = mockResult[ProjectDependencies]{value: deps, err: err}
	return m
}

// WithDownloadResult registers the response returned for a download URL.
func (m *MockClient) WithDownloadResult(url string, data []byte, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadResponses[url] = mockResult[[]byte]{value: data, err: err}
	return m
}

// Search returns the registered response for query, or an error if none was
// registered.
func (m *MockClient) Search(query string, _ string, _, _ int) (SearchResults, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.searchResponses[query]
	if !ok {
		return SearchResults{}, fmt.Errorf("%w: no mock response for query %q", ErrInvalidSearchParams, query)
	}
	return r.value, r.err
}

// GetDependencies returns the registered response for projectID.
func (m *MockClient) GetDependencies(projectID string) (ProjectDependencies, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.dependencyResponses[projectID]
	if !ok {
		return ProjectDependencies{}, fmt.Errorf("modrinth: no mock response for project %q", projectID)
	}
	return r.value, r.err
}

// DownloadFile returns the registered response for url.
func (m *MockClient) DownloadFile(url string, _ FileHash) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.downloadResponses[url]
	if !ok {
		return nil, fmt.Errorf("modrinth: no mock response for url %q", url)
	}
	return r.value, r.err
}

var _ Client = (*LiveClient)(nil)
var _ Client = (*MockClient)(nil)
