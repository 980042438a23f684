// Package syncplan computes the set of packwiz add/remove actions needed to
// reconcile a modpack's installed mods with what empack.yml declares (C11).
// It never shells out itself — that's internal/packwiz's job — it plans
// the actions, and Execute hands them to a caller-supplied Runner.
package syncplan

import (
	"fmt"
	"sort"
	"strings"

	"empack/internal/config"
	"empack/internal/primitives"
	"empack/internal/resolver"
)

// ActionKind distinguishes adding a new mod from removing one that's no
// longer declared.
type ActionKind int

const (
	Add ActionKind = iota
	Remove
)

// Action is one packwiz invocation the sync needs to perform.
type Action struct {
	Kind    ActionKind
	Key     string
	Title   string
	Command []string
}

// NormalizeKey canonicalizes a mod key the same way for both empack.yml
// entries and installed-mod names, so the two sets can be compared directly:
// lowercase, spaces and hyphens collapsed to underscores.
func NormalizeKey(key string) string {
	lower := strings.ToLower(key)
	lower = strings.ReplaceAll(lower, " ", "_")
	lower = strings.ReplaceAll(lower, "-", "_")
	return lower
}

// ResolutionFailure records a dependency that failed to resolve against
// either search platform; it is not fatal to planning — the dependency is
// just skipped.
type ResolutionFailure struct {
	Key string
	Err error
}

// Plan compares installedMods (already-normalized keys) against the
// dependencies in plan, producing Add actions for anything missing and
// Remove actions for anything installed but no longer declared. Dependencies
// that already have a project_id skip resolution entirely and default to a
// Modrinth add command, matching empack.yml's "pin for reliability" escape
// hatch.
func Plan(plan config.ProjectPlan, installedMods map[string]bool, r *resolver.Resolver) ([]Action, []ResolutionFailure) {
	expected := make(map[string]bool, len(plan.Dependencies))
	var actions []Action
	var failures []ResolutionFailure

	for _, dep := range plan.Dependencies {
		normalized := NormalizeKey(dep.Key)
		expected[normalized] = true

		if installedMods[normalized] {
			continue
		}

		var command []string
		if dep.ProjectID != "" {
			command = []string{"mr", "add", dep.ProjectID}
		} else {
			resolution, err := r.Resolve(dep.SearchQuery)
			if err != nil {
				failures = append(failures, ResolutionFailure{Key: dep.Key, Err: err})
				continue
			}
			command = addCommandFor(resolution.Platform, resolution.ProjectID())
		}

		actions = append(actions, Action{
			Kind:    Add,
			Key:     dep.Key,
			Title:   dep.SearchQuery,
			Command: command,
		})
	}

	orphaned := make([]string, 0, len(installedMods))
	for installed := range installedMods {
		if !expected[installed] {
			orphaned = append(orphaned, installed)
		}
	}
	sort.Strings(orphaned)

	for _, installed := range orphaned {
		actions = append(actions, Action{
			Kind:    Remove,
			Key:     installed,
			Title:   installed,
			Command: []string{"remove", installed},
		})
	}

	return actions, failures
}

func addCommandFor(platform primitives.Platform, projectID string) []string {
	switch platform {
	case primitives.CurseForge:
		return []string{"cf", "add", projectID}
	default:
		return []string{"mr", "add", projectID}
	}
}

// Summary is the outcome of executing a plan's actions.
type Summary struct {
	Succeeded int
	Failed    int
}

// Runner executes one packwiz command, returning an error if the command
// itself failed (non-zero exit, not a Go-level error running it).
type Runner interface {
	Run(args []string) error
}

// Execute runs every action in order via runner, counting successes and
// failures without aborting the batch on the first error — a single mod
// failing to resolve or install shouldn't block the rest of the sync.
func Execute(actions []Action, runner Runner) (Summary, []error) {
	var summary Summary
	var errs []error

	for _, action := range actions {
		if err := runner.Run(action.Command); err != nil {
			summary.Failed++
			errs = append(errs, fmt.Errorf("syncplan: %s %q: %w", actionVerb(action.Kind), action.Key, err))
			continue
		}
		summary.Succeeded++
	}

	return summary, errs
}

func actionVerb(kind ActionKind) string {
	if kind == Remove {
		return "removing"
	}
	return "adding"
}
