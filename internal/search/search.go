// Package search is the unified search provider (C5): it projects both
// platforms' native result shapes into primitives.SearchResult, enforces
// each platform's pagination constraints before any network call, and runs
// the confidence-ranked search pipeline used by both the resolver and the
// CLI's add command.
package search

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"empack/internal/curseforge"
	efuzzy "empack/internal/fuzzy"
	"empack/internal/modrinth"
	"empack/internal/primitives"
)

// ErrInvalidQuery is returned when a caller violates a platform's pagination
// constraints before any network call is attempted.
var ErrInvalidQuery = errors.New("search: invalid query")

// Provider is a single platform's search capability, projected into the
// shared SearchResult shape.
type Provider interface {
	Search(query string, limit, offset int) ([]primitives.SearchResult, error)
	Platform() primitives.Platform
}

// ModrinthProvider wraps a modrinth.Client.
type ModrinthProvider struct {
	Client modrinth.Client
}

// Platform reports this provider's platform.
func (p ModrinthProvider) Platform() primitives.Platform { return primitives.Modrinth }

// Search enforces Modrinth's limit <= 100 constraint, then projects hits
// into the shared result shape.
func (p ModrinthProvider) Search(query string, limit, offset int) ([]primitives.SearchResult, error) {
	if limit > 100 {
		return nil, fmt.Errorf("%w: modrinth limit must be <= 100", ErrInvalidQuery)
	}

	results, err := p.Client.Search(query, "", limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]primitives.SearchResult, 0, len(results.Hits))
	for _, hit := range results.Hits {
		out = append(out, primitives.SearchResult{
			Slug:         hit.Slug,
			Title:        hit.Title,
			Description:  hit.Description,
			ProjectID:    hit.ProjectID,
			Downloads:    hit.Downloads,
			Platform:     primitives.Modrinth,
			Author:       hit.Author,
			Versions:     hit.Versions,
			IconURL:      hit.IconURL,
			DateCreated:  hit.DateCreated,
			DateModified: hit.DateModified,
		})
	}
	return out, nil
}

// CurseForgeProvider wraps a curseforge.Client.
type CurseForgeProvider struct {
	Client curseforge.Client
}

// Platform reports this provider's platform.
func (p CurseForgeProvider) Platform() primitives.Platform { return primitives.CurseForge }

// Search enforces CurseForge's pageSize <= 50 and index+pageSize <= 10000
// constraints, then projects results: per-file game-version lists are
// deduplicated into a single set on the result, and the first author
// becomes the primary author.
func (p CurseForgeProvider) Search(query string, limit, offset int) ([]primitives.SearchResult, error) {
	if limit > 50 {
		return nil, fmt.Errorf("%w: curseforge pageSize must be <= 50", ErrInvalidQuery)
	}
	if offset+limit > 10000 {
		return nil, fmt.Errorf("%w: curseforge offset + pageSize must be <= 10,000", ErrInvalidQuery)
	}

	results, err := p.Client.Search(curseforge.MinecraftGameID, query, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]primitives.SearchResult, 0, len(results.Data))
	for _, mod := range results.Data {
		out = append(out, primitives.SearchResult{
			Slug:         mod.Slug,
			Title:        mod.Name,
			Description:  mod.Summary,
			ProjectID:    fmt.Sprintf("%d", mod.ID),
			Downloads:    mod.DownloadCount,
			Platform:     primitives.CurseForge,
			Author:       primaryAuthor(mod.Authors),
			Versions:     dedupGameVersions(mod.LatestFiles),
			DateCreated:  mod.DateCreated,
			DateModified: mod.DateModified,
		})
	}
	return out, nil
}

func primaryAuthor(authors []curseforge.ModAuthor) string {
	if len(authors) == 0 {
		return ""
	}
	return authors[0].Name
}

func dedupGameVersions(files []curseforge.FileInfo) []string {
	seen := make(map[string]bool)
	var versions []string
	for _, f := range files {
		for _, v := range f.GameVersions {
			if !seen[v] {
				seen[v] = true
				versions = append(versions, v)
			}
		}
	}
	return versions
}

// RankedResult pairs a SearchResult with the confidence score that ranked
// it.
type RankedResult struct {
	Result primitives.SearchResult
	Score  float64
}

// WithConfidence runs provider.Search, scores every hit against the highest
// observed download count, discards extra-word supersets and anything
// under the platform's confidence threshold, and returns survivors sorted
// by descending score — the pipeline both the resolver (C7) and the CLI's
// add command rely on. Candidates that fail the subsequence pre-filter
// below are dropped before scoring.
func WithConfidence(provider Provider, query string, limit int) ([]RankedResult, error) {
	results, err := provider.Search(query, limit, 0)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	var maxDownloads int64
	for _, r := range results {
		if r.Downloads > maxDownloads {
			maxDownloads = r.Downloads
		}
	}

	platform := provider.Platform()
	ranked := make([]RankedResult, 0, len(results))
	for _, r := range results {
		// Cheap subsequence pre-filter: a candidate is skipped unless the
		// query's characters appear in order (case-insensitively) in its
		// title or slug. This also drops near misses that would have cleared
		// the threshold, e.g. query "sodiun" against slug "sodium" scores
		// about 0.88 on CurseForge but is never scored.
		if !fuzzy.MatchFold(query, r.Title) && !fuzzy.MatchFold(query, r.Slug) {
			continue
		}

		if efuzzy.HasExtraWords(query, r.Title) {
			continue
		}

		match := efuzzy.CalculateConfidence(query, r.Title, r.Slug, r.Downloads, maxDownloads)
		if !efuzzy.MeetsThreshold(match.Score, platform) {
			continue
		}

		ranked = append(ranked, RankedResult{Result: r, Score: match.Score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked, nil
}
