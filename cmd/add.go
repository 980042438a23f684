package cmd

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"empack/internal/primitives"
	"empack/internal/search"
	"empack/internal/session"
)

var (
	addForce    bool
	addPlatform string
)

var addCmd = &cobra.Command{
	Use:   "add <mods...>",
	Short: "Resolve and add one or more mods to the modpack",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := requireConfigured(s); err != nil {
			return err
		}

		var added, failed int
		for _, query := range args {
			result, platform, err := resolveForAdd(s, query, addPlatform)
			if err != nil {
				pterm.Warning.Printf("could not resolve %q: %v\n", query, err)
				failed++
				continue
			}

			if err := s.Packwiz.AddMod(result.ProjectID, platform); err != nil {
				pterm.Warning.Printf("adding %q failed: %v\n", query, err)
				failed++
				continue
			}

			pterm.Success.Printf("added %s (%s, %s)\n", result.Title, platform, result.ProjectID)
			added++
		}

		pterm.Info.Printf("%d added, %d failed\n", added, failed)
		return nil
	},
}

// resolveForAdd resolves query against either a forced single platform
// ("modrinth"/"curseforge") or the default Modrinth-primary,
// CurseForge-fallback pipeline when platform is empty or "both".
func resolveForAdd(s *session.Session, query, platform string) (primitives.SearchResult, primitives.Platform, error) {
	switch normalizePlatformFlag(platform) {
	case "modrinth":
		provider := search.ModrinthProvider{Client: s.Modrinth}
		return resolveSinglePlatform(provider, query)
	case "curseforge":
		provider := search.CurseForgeProvider{Client: s.CurseForge}
		return resolveSinglePlatform(provider, query)
	default:
		resolution, err := s.Resolver.Resolve(query)
		if err != nil {
			return primitives.SearchResult{}, 0, err
		}
		return resolution.Result, resolution.Platform, nil
	}
}

func resolveSinglePlatform(provider search.Provider, query string) (primitives.SearchResult, primitives.Platform, error) {
	ranked, err := search.WithConfidence(provider, query, 10)
	if err != nil {
		return primitives.SearchResult{}, 0, err
	}
	if len(ranked) == 0 {
		return primitives.SearchResult{}, 0, fmt.Errorf("no match for %q on %s", query, provider.Platform())
	}
	return ranked[0].Result, provider.Platform(), nil
}

func normalizePlatformFlag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func init() {
	addCmd.Flags().BoolVar(&addForce, "force", false, "add even if a mod with the same key already exists")
	addCmd.Flags().StringVar(&addPlatform, "platform", "both", "restrict resolution to modrinth, curseforge, or both")
	rootCmd.AddCommand(addCmd)
}
