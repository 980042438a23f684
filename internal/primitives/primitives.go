// Package primitives holds the enumerations and small records shared across
// empack's components, mirroring the teacher's habit of keeping one
// dependency-free "what kind of thing is this" package at the bottom of the
// import graph.
package primitives

import "fmt"

// Platform identifies a remote mod-hosting platform.
type Platform int

const (
	Modrinth Platform = iota
	CurseForge
)

func (p Platform) String() string {
	switch p {
	case Modrinth:
		return "modrinth"
	case CurseForge:
		return "curseforge"
	default:
		return "unknown"
	}
}

// ParsePlatform parses a lower-case platform name, defaulting unknown
// strings to Modrinth rather than failing, matching the legacy sync
// planner's "bare project_id defaults to Modrinth" policy (SPEC_FULL.md,
// Open Question 2).
func ParsePlatform(s string) Platform {
	if s == "curseforge" {
		return CurseForge
	}
	return Modrinth
}

// ProjectType is the kind of hosted project a ProjectSpec resolves to.
type ProjectType int

const (
	Mod ProjectType = iota
	Datapack
	ResourcePack
	Shader
)

func (t ProjectType) String() string {
	switch t {
	case Mod:
		return "mod"
	case Datapack:
		return "datapack"
	case ResourcePack:
		return "resourcepack"
	case Shader:
		return "shader"
	default:
		return "mod"
	}
}

// ParseProjectType maps a case-insensitive project-type string, including
// the alternate resourcepack spellings from spec §6, falling back silently
// to Mod for anything unrecognized.
func ParseProjectType(s string) ProjectType {
	switch normalizeToken(s) {
	case "mod":
		return Mod
	case "datapack":
		return Datapack
	case "resourcepack", "resource_pack", "texturepack", "texture_pack", "texture-pack":
		return ResourcePack
	case "shader":
		return Shader
	default:
		return Mod
	}
}

// Loader is a mod loader family.
type Loader int

const (
	Fabric Loader = iota
	Forge
	Quilt
	NeoForge
)

func (l Loader) String() string {
	switch l {
	case Fabric:
		return "fabric"
	case Forge:
		return "forge"
	case Quilt:
		return "quilt"
	case NeoForge:
		return "neoforge"
	default:
		return "fabric"
	}
}

// ParseLoader parses a case-insensitive loader name. The bool result is
// false when the input did not match a known loader, letting callers decide
// whether to fall back to a default or keep an existing one.
func ParseLoader(s string) (Loader, bool) {
	switch normalizeToken(s) {
	case "fabric":
		return Fabric, true
	case "forge":
		return Forge, true
	case "quilt":
		return Quilt, true
	case "neoforge":
		return NeoForge, true
	default:
		return Fabric, false
	}
}

func normalizeToken(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// ModpackState is the three-state discovery model driving §4.9.
type ModpackState int

const (
	Uninitialized ModpackState = iota
	Configured
	Built
)

func (s ModpackState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configured:
		return "configured"
	case Built:
		return "built"
	default:
		return "unknown"
	}
}

// BuildTarget is one of the distribution shapes packwiz export can produce.
type BuildTarget int

const (
	Mrpack BuildTarget = iota
	Client
	Server
	ClientFull
	ServerFull
)

func (t BuildTarget) String() string {
	switch t {
	case Mrpack:
		return "mrpack"
	case Client:
		return "client"
	case Server:
		return "server"
	case ClientFull:
		return "client-full"
	case ServerFull:
		return "server-full"
	default:
		return "unknown"
	}
}

// ParseBuildTarget parses one CLI build target token.
func ParseBuildTarget(s string) (BuildTarget, error) {
	switch normalizeToken(s) {
	case "mrpack":
		return Mrpack, nil
	case "client":
		return Client, nil
	case "server":
		return Server, nil
	case "client-full", "client_full":
		return ClientFull, nil
	case "server-full", "server_full":
		return ServerFull, nil
	default:
		return 0, fmt.Errorf("unknown build target %q", s)
	}
}

// SearchResult is the unified shape produced by every search.Provider
// regardless of originating platform (spec §3).
type SearchResult struct {
	Slug         string
	Title        string
	Description  string
	ProjectID    string
	Downloads    int64
	Platform     Platform
	Author       string
	Versions     []string
	IconURL      string
	DateCreated  string
	DateModified string
}
