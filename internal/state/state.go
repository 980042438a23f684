// Package state implements the filesystem state machine (C9): a modpack's
// state is derived entirely from what's on disk under its working
// directory, and transitions between states are just the side effects of
// creating or removing those files.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"empack/internal/primitives"
)

// ErrInvalidDirectory is returned when the working directory doesn't exist
// or isn't a directory.
var ErrInvalidDirectory = errors.New("state: invalid modpack directory")

// ErrInvalidTransition is returned by ExecuteTransition when the current
// state doesn't permit the requested transition.
var ErrInvalidTransition = errors.New("state: transition not allowed")

// Transition is one of the operations that can move a modpack between
// states.
type Transition int

const (
	Initialize Transition = iota
	Synchronize
	Build
	Clean
)

// Manager derives and mutates modpack state purely from workdir's contents.
type Manager struct {
	Workdir string
}

// New builds a Manager rooted at workdir.
func New(workdir string) *Manager {
	return &Manager{Workdir: workdir}
}

// Paths is the set of well-known locations under a modpack's working
// directory.
type Paths struct {
	Workdir   string
	EmpackYML string
	PackDir   string
	PackTOML  string
	EmpackDir string
	DistDir   string
}

// BuildOutput returns the distribution directory for a specific build
// target.
func (p Paths) BuildOutput(target primitives.BuildTarget) string {
	return filepath.Join(p.DistDir, target.String())
}

// Paths returns the well-known locations for m's working directory.
func (m *Manager) Paths() Paths {
	return Paths{
		Workdir:   m.Workdir,
		EmpackYML: filepath.Join(m.Workdir, "empack.yml"),
		PackDir:   filepath.Join(m.Workdir, "pack"),
		PackTOML:  filepath.Join(m.Workdir, "pack", "pack.toml"),
		EmpackDir: filepath.Join(m.Workdir, ".empack"),
		DistDir:   filepath.Join(m.Workdir, ".empack", "dist"),
	}
}

// buildArtifactExtensions are the file extensions that count as evidence a
// build target actually produced output.
var buildArtifactExtensions = map[string]bool{
	"mrpack": true,
	"zip":    true,
	"jar":    true,
}

var buildArtifactDirs = map[string]bool{
	"mrpack":      true,
	"client":      true,
	"server":      true,
	"client-full": true,
	"server-full": true,
}

// DiscoverState inspects the working directory and reports which of the
// three states it currently matches. A dist directory with no recognizable
// build artifact in it does not count as Built — it falls back to whatever
// Configured/Uninitialized evidence exists.
func (m *Manager) DiscoverState() (primitives.ModpackState, error) {
	info, err := os.Stat(m.Workdir)
	if err != nil || !info.IsDir() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDirectory, m.Workdir)
	}

	paths := m.Paths()

	if distInfo, err := os.Stat(paths.DistDir); err == nil && distInfo.IsDir() {
		hasArtifacts, err := m.HasBuildArtifacts()
		if err != nil {
			return 0, err
		}
		if hasArtifacts {
			return primitives.Built, nil
		}
	}

	if fileExists(paths.EmpackYML) || fileExists(paths.PackTOML) {
		return primitives.Configured, nil
	}

	return primitives.Uninitialized, nil
}

// HasBuildArtifacts reports whether the dist directory contains a
// recognized build artifact file or target directory.
func (m *Manager) HasBuildArtifacts() (bool, error) {
	distDir := m.Paths().DistDir
	entries, err := os.ReadDir(distDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("state: reading %s: %w", distDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			if buildArtifactDirs[entry.Name()] {
				return true, nil
			}
			continue
		}
		if buildArtifactExtensions[trimExt(entry.Name())] {
			return true, nil
		}
	}
	return false, nil
}

func trimExt(name string) string {
	ext := filepath.Ext(name)
	if len(ext) > 0 {
		return ext[1:]
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetStateFiles returns the files/directories expected to exist once the
// modpack has reached state.
func (m *Manager) GetStateFiles(targetState primitives.ModpackState) []string {
	paths := m.Paths()
	switch targetState {
	case primitives.Configured:
		return []string{paths.EmpackYML, paths.PackTOML, filepath.Join(paths.PackDir, "index.toml")}
	case primitives.Built:
		files := m.GetStateFiles(primitives.Configured)
		return append(files, paths.DistDir)
	default:
		return nil
	}
}

// ValidateState reports whether the filesystem actually matches expected,
// beyond just DiscoverState agreeing — Configured additionally requires the
// pack directory to exist, and Built requires real build artifacts.
func (m *Manager) ValidateState(expected primitives.ModpackState) (bool, error) {
	current, err := m.DiscoverState()
	if err != nil {
		return false, err
	}
	if current != expected {
		return false, nil
	}

	switch expected {
	case primitives.Uninitialized:
		return true, nil
	case primitives.Configured:
		info, err := os.Stat(m.Paths().PackDir)
		return err == nil && info.IsDir(), nil
	case primitives.Built:
		hasArtifacts, err := m.HasBuildArtifacts()
		if err != nil {
			return false, err
		}
		return fileExists(m.Paths().DistDir) && hasArtifacts, nil
	default:
		return false, nil
	}
}

// CanTransition reports whether moving from one state to another is
// permitted. Same-state transitions (re-sync, re-build) are always allowed.
func (m *Manager) CanTransition(from, to primitives.ModpackState) bool {
	if from == to {
		return true
	}
	switch {
	case from == primitives.Built && to == primitives.Configured:
		return true
	case from == primitives.Configured && to == primitives.Uninitialized:
		return true
	case from == primitives.Uninitialized && to == primitives.Configured:
		return true
	case from == primitives.Configured && to == primitives.Built:
		return true
	default:
		return false
	}
}

// ExecuteTransition performs transition against the current on-disk state
// and returns the resulting state.
func (m *Manager) ExecuteTransition(transition Transition, targets []primitives.BuildTarget) (primitives.ModpackState, error) {
	current, err := m.DiscoverState()
	if err != nil {
		return 0, err
	}

	switch transition {
	case Initialize:
		if !m.CanTransition(current, primitives.Configured) {
			return 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, primitives.Configured)
		}
		if err := m.createInitialStructure(); err != nil {
			return 0, err
		}
		return primitives.Configured, nil

	case Synchronize:
		if current != primitives.Configured {
			return 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, primitives.Configured)
		}
		return primitives.Configured, nil

	case Build:
		if !m.CanTransition(current, primitives.Built) {
			return 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, primitives.Built)
		}
		if err := m.createBuildStructure(targets); err != nil {
			return 0, err
		}
		return primitives.Built, nil

	case Clean:
		switch current {
		case primitives.Built:
			if err := m.cleanBuildArtifacts(); err != nil {
				return 0, err
			}
			return primitives.Configured, nil
		case primitives.Configured:
			if err := m.cleanConfiguration(); err != nil {
				return 0, err
			}
			return primitives.Uninitialized, nil
		default:
			return primitives.Uninitialized, nil
		}

	default:
		return 0, fmt.Errorf("state: unknown transition %d", transition)
	}
}

func (m *Manager) createInitialStructure() error {
	paths := m.Paths()

	if err := os.MkdirAll(paths.PackDir, 0o755); err != nil {
		return fmt.Errorf("state: creating %s: %w", paths.PackDir, err)
	}
	if err := os.MkdirAll(paths.EmpackDir, 0o755); err != nil {
		return fmt.Errorf("state: creating %s: %w", paths.EmpackDir, err)
	}

	if !fileExists(paths.EmpackYML) {
		if err := os.WriteFile(paths.EmpackYML, []byte(defaultEmpackYML), 0o644); err != nil {
			return fmt.Errorf("state: writing %s: %w", paths.EmpackYML, err)
		}
	}

	return nil
}

// allBuildTargets is used to pre-create every target's output directory on
// Build regardless of which targets were requested, matching the teacher's
// habit of setting up the full dist layout up front.
var allBuildTargets = []primitives.BuildTarget{
	primitives.Mrpack,
	primitives.Client,
	primitives.Server,
	primitives.ClientFull,
	primitives.ServerFull,
}

func (m *Manager) createBuildStructure(_ []primitives.BuildTarget) error {
	paths := m.Paths()
	if err := os.MkdirAll(paths.DistDir, 0o755); err != nil {
		return fmt.Errorf("state: creating %s: %w", paths.DistDir, err)
	}

	for _, target := range allBuildTargets {
		dir := paths.BuildOutput(target)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("state: creating %s: %w", dir, err)
		}
	}
	return nil
}

func (m *Manager) cleanBuildArtifacts() error {
	distDir := m.Paths().DistDir
	if fileExists(distDir) {
		if err := os.RemoveAll(distDir); err != nil {
			return fmt.Errorf("state: removing %s: %w", distDir, err)
		}
	}
	return nil
}

func (m *Manager) cleanConfiguration() error {
	paths := m.Paths()

	if fileExists(paths.EmpackYML) {
		if err := os.Remove(paths.EmpackYML); err != nil {
			return fmt.Errorf("state: removing %s: %w", paths.EmpackYML, err)
		}
	}
	if fileExists(paths.PackDir) {
		if err := os.RemoveAll(paths.PackDir); err != nil {
			return fmt.Errorf("state: removing %s: %w", paths.PackDir, err)
		}
	}
	if fileExists(paths.EmpackDir) {
		if err := os.RemoveAll(paths.EmpackDir); err != nil {
			return fmt.Errorf("state: removing %s: %w", paths.EmpackDir, err)
		}
	}
	return nil
}

const defaultEmpackYML = `empack:
  # Project dependencies - user-level definitions
  # Format: 'key: "search_query|project_type|minecraft_version|loader"'
  # Key becomes internal reference, value defines Modrinth search
  dependencies:
    # Core Dependencies
    - 'fabric_api: "Fabric API|mod"'
    - 'sodium: "Sodium|mod"'

    # Quality of Life
    - 'appleskin: "AppleSkin|mod|1.20.1|fabric"'
    - 'jade: "Jade|mod"'

    # Performance
    - 'lithium: "Lithium|mod"'
    - 'modernfix: "ModernFix|mod"'

    # Datapacks
    - 'example_datapack: "Example Datapack|datapack"'

    # Resource Packs
    - 'example_resourcepack: "Example Resource Pack|resourcepack"'

  # User-provided project ID mappings
  # Format: key: "modrinth_project_id"
  # Keys reference the dependency keys above
  project_ids:
    # fabric_api: "P7dR8mSH"
    # sodium: "AANobbMI"

  # Version overrides for specific projects
  # Format: key: "version_id" or ["version_id1", "version_id2"]
  # Keys reference the dependency keys above
  version_overrides:
    # example_mod:
    #   - "JrJx24Cj"
    #   - "vWrInfg9"
    #   - "MIev1lAz"
`
