package packwiz

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallModsRejectsInvalidSide(t *testing.T) {
	installer := NewInstaller("/nonexistent/bootstrap.jar")
	err := installer.InstallMods(Side("invalid"), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestCheckInstallerAvailable(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "packwiz-installer-bootstrap.jar")

	installer := NewInstaller(jarPath)
	assert.False(t, installer.CheckInstallerAvailable())

	require.NoError(t, os.WriteFile(jarPath, []byte("fake jar"), 0o644))
	assert.True(t, installer.CheckInstallerAvailable())
}

func TestParseListOutputHandlesAllThreeLineShapes(t *testing.T) {
	out := "Mods:\n- Fabric API\nsodium-extra.pw.toml\nJade\n\nTotal: 3\n"
	got := parseListOutput(out)
	assert.Equal(t, map[string]bool{
		"fabric_api":   true,
		"sodium_extra": true,
		"jade":         true,
	}, got)
}

func TestMetadataAddModFailsWithoutPackwizBinary(t *testing.T) {
	m := NewMetadata(t.TempDir())
	m.available = nil

	// This only reliably exercises the not-available path in an environment
	// with no packwiz binary on PATH; it's the common case in CI sandboxes.
	if _, err := exec.LookPath("packwiz"); err == nil {
		t.Skip("packwiz is installed on PATH in this environment")
	}

	err := m.AddMod("AANobbMI", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAvailable)
}
