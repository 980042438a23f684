package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empack/internal/primitives"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pack"), 0o755))
	return New(dir), dir
}

const testPackTOML = `
name = "Test Modpack"
pack-format = "packwiz:1.1.0"

[versions]
minecraft = "1.20.1"
fabric = "0.14.21"
`

const testEmpackYML = `
empack:
  dependencies:
    - 'fabric_api: "Fabric API|mod"'
    - 'sodium: "Sodium|mod|1.20.1|fabric"'
    - 'lithium: "Lithium|mod"'
  project_ids:
    fabric_api: "P7dR8mSH"
  version_overrides:
    sodium:
      - "mc1.20.1-0.5.0"
`

func writeTestPackTOML(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pack", "pack.toml"), []byte(testPackTOML), 0o644))
}

func writeTestEmpackYML(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empack.yml"), []byte(testEmpackYML), 0o644))
}

func TestLoadPackMetadata(t *testing.T) {
	m, dir := newTestManager(t)
	writeTestPackTOML(t, dir)

	meta, err := m.LoadPackMetadata()
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Test Modpack", meta.Name)
	assert.Equal(t, "1.20.1", meta.Minecraft)
	assert.Equal(t, "0.14.21", meta.LoaderVersions["fabric"])
}

func TestLoadPackMetadataMissingIsNil(t *testing.T) {
	m, _ := newTestManager(t)
	meta, err := m.LoadPackMetadata()
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestLoadEmpackConfig(t *testing.T) {
	m, dir := newTestManager(t)
	writeTestEmpackYML(t, dir)

	cfg, err := m.LoadEmpackConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Empack.Dependencies, 3)
	assert.Equal(t, "P7dR8mSH", cfg.Empack.ProjectIDs["fabric_api"])
}

func TestCreateProjectPlan(t *testing.T) {
	m, dir := newTestManager(t)
	writeTestPackTOML(t, dir)
	writeTestEmpackYML(t, dir)

	plan, err := m.CreateProjectPlan()
	require.NoError(t, err)
	assert.Equal(t, "Test Modpack", plan.Name)
	assert.Equal(t, "1.20.1", plan.MinecraftVersion)
	assert.Equal(t, primitives.Fabric, plan.Loader)
	require.Len(t, plan.Dependencies, 3)

	fabricAPI := plan.Dependencies[0]
	assert.Equal(t, "fabric_api", fabricAPI.Key)
	assert.Equal(t, "Fabric API", fabricAPI.SearchQuery)
	assert.Equal(t, primitives.Mod, fabricAPI.ProjectType)
	assert.Equal(t, "P7dR8mSH", fabricAPI.ProjectID)
}

func TestParseDependencySpecOverridesDefaults(t *testing.T) {
	spec, err := parseDependencySpec(
		`sodium: "Sodium|mod|1.20.1|fabric"`,
		"1.19.4",
		primitives.Quilt,
		EmpackProjectConfig{},
	)
	require.NoError(t, err)
	assert.Equal(t, "sodium", spec.Key)
	assert.Equal(t, "Sodium", spec.SearchQuery)
	assert.Equal(t, primitives.Mod, spec.ProjectType)
	assert.Equal(t, "1.20.1", spec.MinecraftVersion)
	assert.Equal(t, primitives.Fabric, spec.Loader)
}

func TestParseDependencySpecFallsBackToDefaults(t *testing.T) {
	spec, err := parseDependencySpec(
		`jade: "Jade"`,
		"1.19.4",
		primitives.Quilt,
		EmpackProjectConfig{},
	)
	require.NoError(t, err)
	assert.Equal(t, "Jade", spec.SearchQuery)
	assert.Equal(t, "1.19.4", spec.MinecraftVersion)
	assert.Equal(t, primitives.Quilt, spec.Loader)
}

func TestParseDependencySpecRejectsMalformed(t *testing.T) {
	_, err := parseDependencySpec("not-a-valid-spec", "1.19.4", primitives.Fabric, EmpackProjectConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProjectSpec)
}

func TestInferLoaderFromMetadata(t *testing.T) {
	meta := &PackMetadata{
		Minecraft:      "1.20.1",
		LoaderVersions: map[string]string{"fabric": "0.14.21"},
	}
	loader, err := inferLoaderFromMetadata(meta)
	require.NoError(t, err)
	assert.Equal(t, primitives.Fabric, loader)
}

func TestValidateConsistencyFlagsMismatch(t *testing.T) {
	m, dir := newTestManager(t)
	writeTestPackTOML(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empack.yml"), []byte(`
empack:
  dependencies: []
  minecraft_version: "1.19.4"
`), 0o644))

	issues, err := m.ValidateConsistency()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "Minecraft version mismatch")
}

func TestVersionOverrideAcceptsScalarOrSequence(t *testing.T) {
	m, dir := newTestManager(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empack.yml"), []byte(`
empack:
  dependencies: []
  version_overrides:
    single_mod: "abc123"
    multi_mod:
      - "abc123"
      - "def456"
`), 0o644))

	cfg, err := m.LoadEmpackConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123"}, cfg.Empack.VersionOverrides["single_mod"].Values)
	assert.Equal(t, []string{"abc123", "def456"}, cfg.Empack.VersionOverrides["multi_mod"].Values)
}
