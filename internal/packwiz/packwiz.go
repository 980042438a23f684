// Package packwiz wraps the external packwiz CLI (C12): metadata operations
// (add/remove/refresh/export/list) against pack/pack.toml, and the separate
// packwiz-installer-bootstrap.jar invocation used to actually download mod
// JARs at build time.
package packwiz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"empack/internal/primitives"
)

// ErrNotAvailable is returned when the packwiz binary can't be found or
// invoked.
var ErrNotAvailable = errors.New("packwiz: not available")

// ErrCommandFailed wraps a non-zero exit from a packwiz invocation.
var ErrCommandFailed = errors.New("packwiz: command failed")

// ErrHashMismatch is returned by RefreshIndex when packwiz reports a
// download hash mismatch.
var ErrHashMismatch = errors.New("packwiz: hash mismatch")

// ErrPackFormat is returned by RefreshIndex when packwiz reports an
// unsupported pack format.
var ErrPackFormat = errors.New("packwiz: unsupported pack format")

const checkTimeout = 5 * time.Second

// Metadata wraps packwiz's .pw.toml-mutating commands: modrinth/curseforge
// add, remove, refresh, and the modrinth export used to build an .mrpack.
type Metadata struct {
	packDir   string
	available *bool
}

// NewMetadata builds a Metadata rooted at workdir/pack.
func NewMetadata(workdir string) *Metadata {
	return &Metadata{packDir: filepath.Join(workdir, "pack")}
}

func (m *Metadata) packTOML() string {
	return filepath.Join(m.packDir, "pack.toml")
}

// ensureAvailable checks once (caching the result) that the packwiz binary
// is on PATH and runs.
func (m *Metadata) ensureAvailable() error {
	if m.available != nil && *m.available {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "packwiz", "--version").Run(); err != nil {
		return fmt.Errorf("%w: packwiz CLI not found in PATH (https://packwiz.infra.link/installation/): %v", ErrNotAvailable, err)
	}

	available := true
	m.available = &available
	return nil
}

func (m *Metadata) run(args ...string) (string, error) {
	cmd := exec.Command("packwiz", args...)
	cmd.Dir = m.packDir
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: packwiz %s: %s", ErrCommandFailed, strings.Join(args, " "), stderr.String())
	}
	return string(out), nil
}

// Init runs `packwiz init` against the pack directory, materializing
// pack.toml and index.toml. name/author/version/mcVersion are passed through
// when non-empty; packwiz prompts interactively for anything left blank, so
// init always answers with -y plus whatever flags were supplied.
func (m *Metadata) Init(name, author, version, mcVersion string) error {
	if err := m.ensureAvailable(); err != nil {
		return err
	}
	if err := os.MkdirAll(m.packDir, 0o755); err != nil {
		return fmt.Errorf("packwiz: creating %s: %w", m.packDir, err)
	}

	args := []string{"--pack-file", m.packTOML(), "init", "-y"}
	if name != "" {
		args = append(args, "--name", name)
	}
	if author != "" {
		args = append(args, "--author", author)
	}
	if version != "" {
		args = append(args, "--version", version)
	}
	if mcVersion != "" {
		args = append(args, "--mc-version", mcVersion)
	}

	_, err := m.run(args...)
	return err
}

// AddMod runs `packwiz <platform> add <id-flag> <projectID> -y`.
func (m *Metadata) AddMod(projectID string, platform primitives.Platform) error {
	if err := m.ensureAvailable(); err != nil {
		return err
	}

	platformCmd, idFlag := "modrinth", "--project-id"
	if platform == primitives.CurseForge {
		platformCmd, idFlag = "curseforge", "--addon-id"
	}

	_, err := m.run("--pack-file", m.packTOML(), platformCmd, "add", idFlag, projectID, "-y")
	return err
}

// RemoveMod runs `packwiz remove <name> -y`.
func (m *Metadata) RemoveMod(modName string) error {
	if err := m.ensureAvailable(); err != nil {
		return err
	}
	_, err := m.run("--pack-file", m.packTOML(), "remove", modName, "-y")
	return err
}

// List runs `packwiz list` and returns the set of currently installed
// projects as normalized keys (lowercase, spaces/hyphens collapsed to
// underscores) — spanning every project type packwiz tracks (mods,
// resourcepacks, datapacks, shaderpacks), not just pack/mods. packwiz's
// output lines come in three shapes: "- name", "name.pw.toml", or a bare
// "name"; header/footer lines ("Mods:", "Total:") are skipped.
func (m *Metadata) List() (map[string]bool, error) {
	if err := m.ensureAvailable(); err != nil {
		return nil, err
	}

	out, err := m.run("--pack-file", m.packTOML(), "list")
	if err != nil {
		return nil, err
	}
	return parseListOutput(out), nil
}

// parseListOutput normalizes every project name in packwiz list's stdout
// into the key form sync uses to compare against empack.yml.
func parseListOutput(out string) map[string]bool {
	installed := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Mods:") || strings.HasPrefix(line, "Total:") {
			continue
		}

		name := line
		switch {
		case strings.HasPrefix(name, "- "):
			name = strings.TrimSpace(strings.TrimPrefix(name, "- "))
		case strings.HasSuffix(name, ".pw.toml"):
			name = strings.TrimSuffix(name, ".pw.toml")
		}

		installed[normalizeModKey(name)] = true
	}
	return installed
}

func normalizeModKey(name string) string {
	lower := strings.ToLower(name)
	lower = strings.ReplaceAll(lower, " ", "_")
	lower = strings.ReplaceAll(lower, "-", "_")
	return lower
}

// RefreshIndex runs `packwiz refresh`, recognizing the two error shapes the
// command can report in stderr: a hash mismatch, or an unsupported pack
// format.
func (m *Metadata) RefreshIndex() error {
	if err := m.ensureAvailable(); err != nil {
		return err
	}

	_, err := m.run("--pack-file", m.packTOML(), "refresh")
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Hash mismatch"):
		return fmt.Errorf("%w: %s", ErrHashMismatch, msg)
	case strings.Contains(msg, "pack format") && strings.Contains(msg, "not supported"):
		return fmt.Errorf("%w: %s", ErrPackFormat, msg)
	default:
		return err
	}
}

// ExportMrpack runs `packwiz modrinth export -o <outputPath>`.
func (m *Metadata) ExportMrpack(outputPath string) error {
	if err := m.ensureAvailable(); err != nil {
		return err
	}
	_, err := m.run("--pack-file", m.packTOML(), "modrinth", "export", "-o", outputPath)
	return err
}

// Side selects which half of a modpack packwiz-installer should fetch.
type Side string

const (
	SideBoth   Side = "both"
	SideClient Side = "client"
	SideServer Side = "server"
)

// ErrInvalidSide is returned by InstallMods for any Side value other than
// the three recognized ones.
var ErrInvalidSide = errors.New("packwiz: invalid side")

// Installer wraps packwiz-installer-bootstrap.jar, the build-time tool that
// actually downloads and verifies mod JARs named in .pw.toml files.
type Installer struct {
	bootstrapJarPath string
}

// NewInstaller builds an Installer pointed at a specific bootstrap JAR; the
// caller is responsible for having downloaded and cached it.
func NewInstaller(bootstrapJarPath string) *Installer {
	return &Installer{bootstrapJarPath: bootstrapJarPath}
}

// InstallMods runs `java -jar <bootstrap.jar> -g -s <side> --pack-folder pack`
// in workingDir.
func (i *Installer) InstallMods(side Side, workingDir string) error {
	if side != SideBoth && side != SideClient && side != SideServer {
		return fmt.Errorf("%w: %q (must be %q, %q, or %q)", ErrInvalidSide, side, SideBoth, SideClient, SideServer)
	}

	cmd := exec.Command("java", "-jar", i.bootstrapJarPath, "-g", "-s", string(side), "--pack-folder", "pack")
	cmd.Dir = workingDir
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: packwiz-installer-bootstrap (side=%s): %s", ErrCommandFailed, side, stderr.String())
	}
	return nil
}

// CheckInstallerAvailable reports whether the bootstrap JAR exists on disk.
func (i *Installer) CheckInstallerAvailable() bool {
	_, err := os.Stat(i.bootstrapJarPath)
	return err == nil
}
