// Package resolver implements the remote resolver (C7): it combines a
// Modrinth search provider and a CurseForge search provider into a single
// Modrinth-primary, CurseForge-fallback resolution pipeline.
package resolver

import (
	"errors"
	"fmt"

	"empack/internal/primitives"
	"empack/internal/search"
)

// ErrNoMatch is returned when neither platform produced a result meeting
// its confidence threshold.
var ErrNoMatch = errors.New("resolver: no match")

// searchLimit is how many candidates are requested from each platform
// before ranking; the original implementation's default.
const searchLimit = 10

// Resolution is the winning candidate for a query, annotated with whether
// it came from the fallback (CurseForge) search.
type Resolution struct {
	Result       primitives.SearchResult
	Confidence   float64
	Platform     primitives.Platform
	WasFallback bool
}

// ProjectID returns the resolved project's platform-native ID.
func (r Resolution) ProjectID() string { return r.Result.ProjectID }

// Title returns the resolved project's display title.
func (r Resolution) Title() string { return r.Result.Title }

// Slug returns the resolved project's slug.
func (r Resolution) Slug() string { return r.Result.Slug }

// Resolver combines the two platform search providers.
type Resolver struct {
	modrinth   search.Provider
	curseforge search.Provider
}

// New builds a Resolver over the given providers.
func New(modrinth, curseforge search.Provider) *Resolver {
	return &Resolver{modrinth: modrinth, curseforge: curseforge}
}

// Resolve runs the ranked search pipeline against Modrinth first; if no
// candidate clears the Modrinth confidence threshold, it falls back to
// CurseForge. A query that matches neither fails with ErrNoMatch.
func (r *Resolver) Resolve(query string) (Resolution, error) {
	modrinthHits, err := search.WithConfidence(r.modrinth, query, searchLimit)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolver: modrinth search for %q: %w", query, err)
	}
	if len(modrinthHits) > 0 {
		top := modrinthHits[0]
		return Resolution{Result: top.Result, Confidence: top.Score, Platform: primitives.Modrinth, WasFallback: false}, nil
	}

	curseforgeHits, err := search.WithConfidence(r.curseforge, query, searchLimit)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolver: curseforge search for %q: %w", query, err)
	}
	if len(curseforgeHits) > 0 {
		top := curseforgeHits[0]
		return Resolution{Result: top.Result, Confidence: top.Score, Platform: primitives.CurseForge, WasFallback: true}, nil
	}

	return Resolution{}, fmt.Errorf("%w: %q", ErrNoMatch, query)
}

// ResolveAll resolves a batch of queries sequentially — rate limiting is
// the bottleneck, not the resolver, so there is no benefit to running these
// concurrently. Per-query failures are captured in the returned slice
// rather than aborting the batch; the result is always the same length as
// queries.
func (r *Resolver) ResolveAll(queries []string) []Result {
	results := make([]Result, len(queries))
	for i, q := range queries {
		resolution, err := r.Resolve(q)
		results[i] = Result{Resolution: resolution, Err: err}
	}
	return results
}

// Result pairs a single ResolveAll entry's outcome, since Go has no
// ergonomic way to carry a Result<T, E> inline in a slice.
type Result struct {
	Resolution Resolution
	Err        error
}
