// Package config bridges empack.yml (user intent) and packwiz's pack.toml
// (on-disk reality) into a single resolved ProjectPlan, and parses the
// pipe-delimited dependency-spec strings empack.yml declares (C10).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"empack/internal/primitives"
)

// ErrMissingField is returned when a value required to build a ProjectPlan
// is absent from both empack.yml and pack.toml.
var ErrMissingField = errors.New("config: missing required field")

// ErrInvalidProjectSpec is returned when a dependency string doesn't match
// the "key: \"query|type|mc_version|loader\"" shape.
var ErrInvalidProjectSpec = errors.New("config: invalid project specification")

// EmpackConfig is the root of empack.yml.
type EmpackConfig struct {
	Empack EmpackProjectConfig `yaml:"empack"`
}

// EmpackProjectConfig is the user-declared project configuration.
type EmpackProjectConfig struct {
	Dependencies     []string                  `yaml:"dependencies"`
	ProjectIDs       map[string]string         `yaml:"project_ids"`
	VersionOverrides map[string]VersionOverride `yaml:"version_overrides"`
	MinecraftVersion string                    `yaml:"minecraft_version,omitempty"`
	Loader           string                    `yaml:"loader,omitempty"`
	Name             string                    `yaml:"name,omitempty"`
	Author           string                    `yaml:"author,omitempty"`
	Version          string                    `yaml:"version,omitempty"`
}

// VersionOverride is either a single version ID or a list of compatible
// ones; empack.yml allows either shape under the same key.
type VersionOverride struct {
	Values []string
}

// UnmarshalYAML accepts either a bare scalar or a sequence.
func (v *VersionOverride) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		v.Values = []string{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := node.Decode(&ss); err != nil {
			return err
		}
		v.Values = ss
		return nil
	default:
		return fmt.Errorf("config: version_override must be a string or list of strings")
	}
}

// MarshalYAML renders a single-value override as a bare scalar and a
// multi-value one as a sequence, mirroring how a hand-written empack.yml
// would look.
func (v VersionOverride) MarshalYAML() (interface{}, error) {
	if len(v.Values) == 1 {
		return v.Values[0], nil
	}
	return v.Values, nil
}

// PackMetadata is the subset of packwiz's pack.toml this package reads as a
// fallback source of truth.
type PackMetadata struct {
	Name           string
	Author         string
	Version        string
	Minecraft      string
	LoaderVersions map[string]string
}

type rawPackMetadata struct {
	Name     string            `toml:"name"`
	Author   string            `toml:"author"`
	Version  string            `toml:"version"`
	Versions map[string]string `toml:"versions"`
}

// ProjectPlan is the fully-resolved configuration driving synchronization
// and builds: empack.yml values with pack.toml filling in whatever empack.yml
// left unspecified.
type ProjectPlan struct {
	Name             string
	Author           string
	Version          string
	MinecraftVersion string
	Loader           primitives.Loader
	LoaderVersion    string
	Dependencies     []ProjectSpec
}

// ProjectSpec is one parsed dependency-spec entry from empack.yml.
type ProjectSpec struct {
	Key              string
	SearchQuery      string
	ProjectType      primitives.ProjectType
	MinecraftVersion string
	Loader           primitives.Loader
	ProjectID        string
	VersionOverride  *VersionOverride
}

// Manager loads and resolves configuration rooted at a modpack's working
// directory.
type Manager struct {
	Workdir string
}

// New builds a Manager rooted at workdir.
func New(workdir string) *Manager {
	return &Manager{Workdir: workdir}
}

func (m *Manager) empackYMLPath() string { return filepath.Join(m.Workdir, "empack.yml") }
func (m *Manager) packTOMLPath() string  { return filepath.Join(m.Workdir, "pack", "pack.toml") }

// LoadEmpackConfig reads and parses empack.yml. The file must exist.
func (m *Manager) LoadEmpackConfig() (EmpackConfig, error) {
	path := m.empackYMLPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return EmpackConfig{}, fmt.Errorf("%w: %s", ErrMissingField, path)
		}
		return EmpackConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg EmpackConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EmpackConfig{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadPackMetadata reads pack/pack.toml if present, returning (nil, nil)
// when it's absent — pack.toml is an optional fallback source.
func (m *Manager) LoadPackMetadata() (*PackMetadata, error) {
	path := m.packTOMLPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var raw rawPackMetadata
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	loaderVersions := make(map[string]string, len(raw.Versions))
	minecraft := ""
	for k, v := range raw.Versions {
		if k == "minecraft" {
			minecraft = v
			continue
		}
		loaderVersions[k] = v
	}

	return &PackMetadata{
		Name:           raw.Name,
		Author:         raw.Author,
		Version:        raw.Version,
		Minecraft:      minecraft,
		LoaderVersions: loaderVersions,
	}, nil
}

// inferLoaderFromMetadata guesses the loader from whichever loader-version
// key pack.toml's [versions] table carries.
func inferLoaderFromMetadata(pack *PackMetadata) (primitives.Loader, error) {
	for key, loader := range map[string]primitives.Loader{
		"fabric":   primitives.Fabric,
		"forge":    primitives.Forge,
		"quilt":    primitives.Quilt,
		"neoforge": primitives.NeoForge,
	} {
		if _, ok := pack.LoaderVersions[key]; ok {
			return loader, nil
		}
	}
	return 0, fmt.Errorf("config: cannot infer mod loader from pack.toml versions")
}

func loaderVersionFromMetadata(pack *PackMetadata, loader primitives.Loader) (string, error) {
	v, ok := pack.LoaderVersions[loader.String()]
	if !ok {
		return "", fmt.Errorf("%w: versions.%s in pack.toml", ErrMissingField, loader.String())
	}
	return v, nil
}

// CreateProjectPlan resolves empack.yml against pack.toml fallbacks into a
// fully-populated ProjectPlan.
func (m *Manager) CreateProjectPlan() (ProjectPlan, error) {
	empackCfg, err := m.LoadEmpackConfig()
	if err != nil {
		return ProjectPlan{}, err
	}
	packMeta, err := m.LoadPackMetadata()
	if err != nil {
		return ProjectPlan{}, err
	}

	name := empackCfg.Empack.Name
	if name == "" && packMeta != nil {
		name = packMeta.Name
	}
	if name == "" {
		name = "Unnamed Modpack"
	}

	author := empackCfg.Empack.Author
	if author == "" && packMeta != nil {
		author = packMeta.Author
	}

	version := empackCfg.Empack.Version
	if version == "" && packMeta != nil {
		version = packMeta.Version
	}

	minecraftVersion := empackCfg.Empack.MinecraftVersion
	if minecraftVersion == "" {
		if packMeta != nil {
			minecraftVersion = packMeta.Minecraft
		}
		if minecraftVersion == "" {
			return ProjectPlan{}, fmt.Errorf("%w: minecraft_version (from empack.yml or pack.toml)", ErrMissingField)
		}
	}

	var loader primitives.Loader
	if empackCfg.Empack.Loader != "" {
		parsed, ok := primitives.ParseLoader(empackCfg.Empack.Loader)
		if !ok {
			return ProjectPlan{}, fmt.Errorf("%w: unrecognized loader %q", ErrInvalidProjectSpec, empackCfg.Empack.Loader)
		}
		loader = parsed
	} else if packMeta != nil {
		inferred, err := inferLoaderFromMetadata(packMeta)
		if err != nil {
			return ProjectPlan{}, err
		}
		loader = inferred
	} else {
		return ProjectPlan{}, fmt.Errorf("%w: loader (from empack.yml or pack.toml)", ErrMissingField)
	}

	loaderVersion := "latest"
	if packMeta != nil {
		v, err := loaderVersionFromMetadata(packMeta, loader)
		if err != nil {
			return ProjectPlan{}, err
		}
		loaderVersion = v
	}

	dependencies := make([]ProjectSpec, 0, len(empackCfg.Empack.Dependencies))
	for _, depString := range empackCfg.Empack.Dependencies {
		spec, err := parseDependencySpec(depString, minecraftVersion, loader, empackCfg.Empack)
		if err != nil {
			return ProjectPlan{}, err
		}
		dependencies = append(dependencies, spec)
	}

	return ProjectPlan{
		Name:             name,
		Author:           author,
		Version:          version,
		MinecraftVersion: minecraftVersion,
		Loader:           loader,
		LoaderVersion:    loaderVersion,
		Dependencies:     dependencies,
	}, nil
}

// parseDependencySpec parses one "key: \"query|type|mc_version|loader\""
// entry. Trailing components are optional and fall back to defaultMinecraft
// / defaultLoader; an unrecognized project type or loader token silently
// falls back to its default rather than erroring, matching empack.yml's
// tolerance for partially-specified entries.
func parseDependencySpec(depString, defaultMinecraft string, defaultLoader primitives.Loader, cfg EmpackProjectConfig) (ProjectSpec, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(depString), "-"))

	parts := strings.SplitN(clean, ":", 2)
	if len(parts) != 2 {
		return ProjectSpec{}, fmt.Errorf("%w: %s", ErrInvalidProjectSpec, depString)
	}

	key := strings.TrimSpace(parts[0])
	value := strings.Trim(strings.TrimSpace(parts[1]), `"`)

	components := strings.Split(value, "|")
	if len(components) == 0 || components[0] == "" {
		return ProjectSpec{}, fmt.Errorf("%w: %s", ErrInvalidProjectSpec, depString)
	}

	searchQuery := strings.TrimSpace(components[0])

	projectType := primitives.Mod
	if len(components) > 1 {
		projectType = primitives.ParseProjectType(strings.TrimSpace(components[1]))
	}

	minecraftVersion := defaultMinecraft
	if len(components) > 2 && strings.TrimSpace(components[2]) != "" {
		minecraftVersion = strings.TrimSpace(components[2])
	}

	loader := defaultLoader
	if len(components) > 3 && strings.TrimSpace(components[3]) != "" {
		if parsed, ok := primitives.ParseLoader(strings.TrimSpace(components[3])); ok {
			loader = parsed
		}
	}

	var projectID string
	if cfg.ProjectIDs != nil {
		projectID = cfg.ProjectIDs[key]
	}

	var versionOverride *VersionOverride
	if cfg.VersionOverrides != nil {
		if vo, ok := cfg.VersionOverrides[key]; ok {
			versionOverride = &vo
		}
	}

	return ProjectSpec{
		Key:              key,
		SearchQuery:      searchQuery,
		ProjectType:      projectType,
		MinecraftVersion: minecraftVersion,
		Loader:           loader,
		ProjectID:        projectID,
		VersionOverride:  versionOverride,
	}, nil
}

// GenerateDefaultEmpackYML builds starter empack.yml content, pulling the
// Minecraft version and loader from pack.toml when one already exists.
func (m *Manager) GenerateDefaultEmpackYML() (string, error) {
	packMeta, err := m.LoadPackMetadata()
	if err != nil {
		return "", err
	}

	cfg := EmpackConfig{
		Empack: EmpackProjectConfig{
			Dependencies: []string{
				`fabric_api: "Fabric API|mod"`,
				`sodium: "Sodium|mod"`,
				`lithium: "Lithium|mod"`,
				`appleskin: "AppleSkin|mod"`,
				`jade: "Jade|mod"`,
			},
			ProjectIDs:       map[string]string{},
			VersionOverrides: map[string]VersionOverride{},
		},
	}

	if packMeta != nil {
		cfg.Empack.MinecraftVersion = packMeta.Minecraft
		cfg.Empack.Name = packMeta.Name
		cfg.Empack.Author = packMeta.Author
		cfg.Empack.Version = packMeta.Version
		if loader, err := inferLoaderFromMetadata(packMeta); err == nil {
			cfg.Empack.Loader = loader.String()
		} else {
			cfg.Empack.Loader = primitives.Fabric.String()
		}
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("config: generating empack.yml: %w", err)
	}
	return string(out), nil
}

// ValidateConsistency cross-checks empack.yml against pack.toml when both
// exist, returning a human-readable issue per mismatch. pack.toml is
// optional, so its absence is not itself an issue.
func (m *Manager) ValidateConsistency() ([]string, error) {
	empackCfg, err := m.LoadEmpackConfig()
	if err != nil {
		return nil, err
	}

	packMeta, err := m.LoadPackMetadata()
	if err != nil || packMeta == nil {
		return nil, nil
	}

	var issues []string

	if empackCfg.Empack.MinecraftVersion != "" && empackCfg.Empack.MinecraftVersion != packMeta.Minecraft {
		issues = append(issues, fmt.Sprintf(
			"Minecraft version mismatch: empack.yml has %q, pack.toml has %q",
			empackCfg.Empack.MinecraftVersion, packMeta.Minecraft))
	}

	if empackCfg.Empack.Loader != "" {
		if inferred, err := inferLoaderFromMetadata(packMeta); err == nil {
			parsed, ok := primitives.ParseLoader(empackCfg.Empack.Loader)
			if ok && parsed != inferred {
				issues = append(issues, fmt.Sprintf(
					"Loader mismatch: empack.yml has %q, pack.toml infers %q",
					empackCfg.Empack.Loader, inferred.String()))
			}
		}
	}

	return issues, nil
}
