// Package depgraph implements the dependency graph (C8): a directed graph
// over packwiz .pw.toml files, keyed by mod ID, supporting cycle detection,
// topological sort, and transitive dependency/dependent queries.
//
// Edges point dependency → dependent (AddDependency(from, to, ...) records
// an edge to→from) so that a topological sort yields dependencies before the
// mods that need them — the order packwiz/the build pipeline must install
// them in.
package depgraph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dominikbraun/graph"
	"golang.org/x/sync/errgroup"
)

// DependencyType distinguishes a hard requirement from an optional one.
type DependencyType int

const (
	Required DependencyType = iota
	Optional
)

// DependencyNode is one mod in the graph. Platform is a free-form string
// rather than primitives.Platform because packwiz files occasionally
// reference a dependency with no recorded platform at all — "unknown" is a
// legitimate value here, not an error.
type DependencyNode struct {
	ModID      string
	Name       string
	Platform   string
	Version    string
	SourcePath string
}

// ErrNodeNotFound is returned when an edge references a mod ID that hasn't
// been added to the graph yet.
var ErrNodeNotFound = errors.New("depgraph: node not found")

// ErrCyclic is returned by TopologicalSort when the graph contains a cycle.
var ErrCyclic = errors.New("depgraph: graph contains a cycle")

// Graph is the dependency graph itself.
type Graph struct {
	g graph.Graph[string, DependencyNode]
}

// New builds an empty directed dependency graph.
func New() *Graph {
	return &Graph{
		g: graph.New(func(n DependencyNode) string { return n.ModID }, graph.Directed()),
	}
}

// AddNode inserts node, or does nothing if a node with the same ModID is
// already present — idempotent by key, matching packwiz directory ingestion
// re-adding the same mod from multiple edges.
func (d *Graph) AddNode(node DependencyNode) error {
	if _, err := d.g.Vertex(node.ModID); err == nil {
		return nil
	}
	if err := d.g.AddVertex(node); err != nil {
		return fmt.Errorf("depgraph: adding node %s: %w", node.ModID, err)
	}
	return nil
}

// Contains reports whether modID has been added to the graph.
func (d *Graph) Contains(modID string) bool {
	_, err := d.g.Vertex(modID)
	return err == nil
}

// GetNode returns the node for modID.
func (d *Graph) GetNode(modID string) (DependencyNode, bool) {
	n, err := d.g.Vertex(modID)
	if err != nil {
		return DependencyNode{}, false
	}
	return n, true
}

// AddDependency records that fromID depends on toID. The edge is stored
// toID→fromID internally (dependency→dependent) so dependencies sort before
// their dependents. Both nodes must already exist.
func (d *Graph) AddDependency(fromID, toID string, depType DependencyType) error {
	if !d.Contains(fromID) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, fromID)
	}
	if !d.Contains(toID) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, toID)
	}
	if err := d.g.AddEdge(toID, fromID, graph.EdgeData(depType)); err != nil {
		return fmt.Errorf("depgraph: adding edge %s -> %s: %w", toID, fromID, err)
	}
	return nil
}

// NodeCount returns how many mods are in the graph.
func (d *Graph) NodeCount() int {
	order, err := d.g.Order()
	if err != nil {
		return 0
	}
	return order
}

// EdgeCount returns how many dependency edges are in the graph.
func (d *Graph) EdgeCount() int {
	size, err := d.g.Size()
	if err != nil {
		return 0
	}
	return size
}

// AllNodes returns every node in the graph, sorted by ModID for
// deterministic iteration.
func (d *Graph) AllNodes() []DependencyNode {
	adjacency, err := d.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(adjacency))
	for id := range adjacency {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nodes := make([]DependencyNode, 0, len(ids))
	for _, id := range ids {
		if n, ok := d.GetNode(id); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// HasCycle reports whether the graph contains any cycle. It runs
// DetectCycle and discards the member list.
func (d *Graph) HasCycle() bool {
	_, found := d.DetectCycle()
	return found
}

// DetectCycle runs a DFS over the graph looking for a back-edge to a node
// still on the current path. It returns (nil, false) when the graph is
// acyclic, and (members, true) with a non-empty member list naming the
// cycle when one is found — unlike a DFS that conflates "found nothing on
// this path" with "found an empty cycle," there is no ambiguous zero-member
// true result here.
func (d *Graph) DetectCycle() ([]string, bool) {
	adjacency, err := d.g.AdjacencyMap()
	if err != nil {
		return nil, false
	}

	ids := make([]string, 0, len(adjacency))
	for id := range adjacency {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var visit func(id string) ([]string, bool)
	visit = func(id string) ([]string, bool) {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		neighbors := make([]string, 0, len(adjacency[id]))
		for n := range adjacency[id] {
			neighbors = append(neighbors, n)
		}
		sort.Strings(neighbors)

		for _, n := range neighbors {
			if onStack[n] {
				for i, p := range path {
					if p == n {
						cycle := append([]string{}, path[i:]...)
						return cycle, true
					}
				}
			}
			if !visited[n] {
				if cycle, found := visit(n); found {
					return cycle, true
				}
			}
		}

		path = path[:len(path)-1]
		onStack[id] = false
		return nil, false
	}

	for _, id := range ids {
		if !visited[id] {
			if cycle, found := visit(id); found {
				return cycle, true
			}
		}
	}

	return nil, false
}

// TopologicalSort returns mod IDs in dependency-first order. It fails with
// ErrCyclic if the graph contains a cycle; callers should consult
// DetectCycle for a human-readable path through the offending cycle.
func (d *Graph) TopologicalSort() ([]string, error) {
	if cycle, found := d.DetectCycle(); found {
		return nil, fmt.Errorf("%w: %v", ErrCyclic, cycle)
	}

	order, err := graph.TopologicalSort(d.g)
	if err != nil {
		return nil, fmt.Errorf("depgraph: topological sort: %w", err)
	}
	return order, nil
}

// GetDependencies returns the direct dependencies of modID — the mods it
// depends on, i.e. the sources of its incoming edges.
func (d *Graph) GetDependencies(modID string) ([]string, error) {
	predecessors, err := d.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("depgraph: predecessor map: %w", err)
	}
	edges, ok := predecessors[modID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, modID)
	}

	deps := make([]string, 0, len(edges))
	for from := range edges {
		deps = append(deps, from)
	}
	sort.Strings(deps)
	return deps, nil
}

// GetTransitiveDependencies walks incoming edges recursively, collecting
// every mod that modID depends on, directly or indirectly.
func (d *Graph) GetTransitiveDependencies(modID string) ([]string, error) {
	predecessors, err := d.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("depgraph: predecessor map: %w", err)
	}

	visited := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		for from := range predecessors[id] {
			if !visited[from] {
				visited[from] = true
				walk(from)
			}
		}
	}
	walk(modID)

	result := make([]string, 0, len(visited))
	for id := range visited {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}

// GetDependents returns the direct dependents of modID — mods that declare
// modID as one of their dependencies, i.e. the targets of its outgoing
// edges.
func (d *Graph) GetDependents(modID string) ([]string, error) {
	adjacency, err := d.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("depgraph: adjacency map: %w", err)
	}
	edges, ok := adjacency[modID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, modID)
	}

	dependents := make([]string, 0, len(edges))
	for to := range edges {
		dependents = append(dependents, to)
	}
	sort.Strings(dependents)
	return dependents, nil
}

// pwTomlFile mirrors the subset of a packwiz .pw.toml file this package
// cares about. Deps values are deferred as toml.Primitive because each one
// is either a bare version-constraint string (Required) or a table with an
// optional "optional" flag — the shape isn't known until decoded.
type pwTomlFile struct {
	Name   string                    `toml:"name"`
	Update map[string]pwTomlUpdate   `toml:"update"`
	Deps   map[string]toml.Primitive `toml:"deps"`
}

type pwTomlUpdate struct {
	ModID     string `toml:"mod-id"`
	Version   string `toml:"version"`
	ProjectID int64  `toml:"project-id"`
	FileID    int64  `toml:"file-id"`
}

type pwTomlDepTable struct {
	Version  string `toml:"version"`
	Optional bool   `toml:"optional"`
}

// ParsePwToml parses a single packwiz .pw.toml file's contents, adds its
// node and every dependency it declares to the graph, and returns the
// parsed node. Dependency values of an unrecognized shape are silently
// skipped rather than erroring, matching packwiz's own tolerance for
// forward-compatible fields.
func (d *Graph) ParsePwToml(data []byte, sourcePath string) (DependencyNode, error) {
	var file pwTomlFile
	meta, err := toml.Decode(string(data), &file)
	if err != nil {
		return DependencyNode{}, fmt.Errorf("depgraph: parsing %s: %w", sourcePath, err)
	}

	name := file.Name
	if name == "" {
		name = "unknown"
	}

	platform := "unknown"
	modID := name
	var version string
	if mr, ok := file.Update["modrinth"]; ok {
		platform = "modrinth"
		modID = mr.ModID
		version = mr.Version
	} else if cf, ok := file.Update["curseforge"]; ok {
		platform = "curseforge"
		if cf.ProjectID != 0 {
			modID = strconv.FormatInt(cf.ProjectID, 10)
		}
		if cf.FileID != 0 {
			version = strconv.FormatInt(cf.FileID, 10)
		}
	}

	node := DependencyNode{
		ModID:      modID,
		Name:       name,
		Platform:   platform,
		Version:    version,
		SourcePath: sourcePath,
	}
	if err := d.AddNode(node); err != nil {
		return DependencyNode{}, err
	}

	for depID, raw := range file.Deps {
		depType, ok := decodePwDep(meta, raw)
		if !ok {
			continue
		}

		if err := d.AddNode(DependencyNode{ModID: depID, Name: depID, Platform: "unknown"}); err != nil {
			return DependencyNode{}, err
		}
		if err := d.AddDependency(modID, depID, depType); err != nil {
			return DependencyNode{}, err
		}
	}

	return node, nil
}

// decodePwDep resolves a deps-table value: a bare string means a required
// version constraint, a table means an explicit optional flag. Anything
// else is reported as not-ok so the caller skips it.
func decodePwDep(meta toml.MetaData, raw toml.Primitive) (DependencyType, bool) {
	var asString string
	if err := meta.PrimitiveDecode(raw, &asString); err == nil && asString != "" {
		return Required, true
	}

	var asTable pwTomlDepTable
	if err := meta.PrimitiveDecode(raw, &asTable); err == nil {
		if asTable.Optional {
			return Optional, true
		}
		return Required, true
	}

	return Required, false
}

// maxConcurrentReads bounds how many .pw.toml files BuildFromDirectory reads
// at once — packs commonly carry hundreds of dependency descriptors, and
// reading them all in one unbounded fan-out would needlessly exhaust file
// descriptors.
const maxConcurrentReads = 16

// BuildFromDirectory ingests every *.pw.toml file directly inside dir,
// parsing and adding each to the graph. Non-matching files are ignored.
// File reads happen concurrently (bounded); parsing and graph mutation stay
// on the calling goroutine since the underlying graph isn't safe for
// concurrent writes.
func (d *Graph) BuildFromDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("depgraph: reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pw.toml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	contents := make([][]byte, len(paths))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(maxConcurrentReads)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("depgraph: reading %s: %w", path, err)
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range paths {
		if _, err := d.ParsePwToml(contents[i], path); err != nil {
			return err
		}
	}

	return nil
}
