// Package session is the composition root (C13): it wires the networking,
// search, resolver, state, config, and packwiz layers into the capability
// set the CLI commands operate on.
package session

import (
	"os"
	"path/filepath"

	"empack/internal/config"
	"empack/internal/curseforge"
	"empack/internal/modrinth"
	"empack/internal/netmgr"
	"empack/internal/packwiz"
	"empack/internal/resolver"
	"empack/internal/search"
	"empack/internal/state"
)

const (
	envWorkdir          = "EMPACK_WORKDIR"
	envCurseForgeAPIKey = "EMPACK_KEY_CURSEFORGE"
)

// Session bundles every capability a command needs, constructed once per
// invocation from the working directory and environment.
type Session struct {
	Workdir string

	Networking *netmgr.Manager
	Modrinth   modrinth.Client
	CurseForge curseforge.Client
	Resolver   *resolver.Resolver
	State      *state.Manager
	Config     *config.Manager
	Packwiz    *packwiz.Metadata
	Installer  *packwiz.Installer
}

// New builds a Session rooted at workdir. If workdir is empty, it's
// resolved from EMPACK_WORKDIR, falling back to the process's current
// directory.
func New(workdir string) (*Session, error) {
	resolvedWorkdir, err := resolveWorkdir(workdir)
	if err != nil {
		return nil, err
	}

	cacheDir := filepath.Join(resolvedWorkdir, ".empack", "cache")
	if userCacheDir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(userCacheDir, "empack")
	}
	networking := netmgr.New(cacheDir)
	if err := networking.Cache().LoadFromDisk(); err != nil {
		return nil, err
	}

	mr := modrinth.NewLiveClient(networking)
	cf := curseforge.NewLiveClient(networking, os.Getenv(envCurseForgeAPIKey))

	modrinthProvider := search.ModrinthProvider{Client: mr}
	curseforgeProvider := search.CurseForgeProvider{Client: cf}
	r := resolver.New(modrinthProvider, curseforgeProvider)

	bootstrapJarPath := filepath.Join(cacheDir, "packwiz-installer-bootstrap.jar")

	return &Session{
		Workdir:    resolvedWorkdir,
		Networking: networking,
		Modrinth:   mr,
		CurseForge: cf,
		Resolver:   r,
		State:      state.New(resolvedWorkdir),
		Config:     config.New(resolvedWorkdir),
		Packwiz:    packwiz.NewMetadata(resolvedWorkdir),
		Installer:  packwiz.NewInstaller(bootstrapJarPath),
	}, nil
}

func resolveWorkdir(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	if envDir := os.Getenv(envWorkdir); envDir != "" {
		return filepath.Abs(envDir)
	}
	return os.Getwd()
}

// Close persists anything the session's components cache in memory —
// currently just the HTTP response cache's on-disk snapshot.
func (s *Session) Close() error {
	return s.Networking.Cache().SaveToDisk()
}
