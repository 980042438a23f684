package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"empack/internal/packwiz"
	"empack/internal/primitives"
	"empack/internal/session"
	"empack/internal/state"
)

var (
	buildClean bool
	buildJobs  int
)

var allBuildTargets = []primitives.BuildTarget{
	primitives.Mrpack,
	primitives.Client,
	primitives.Server,
	primitives.ClientFull,
	primitives.ServerFull,
}

var buildCmd = &cobra.Command{
	Use:   "build <targets...>",
	Short: "Produce distributable packages for the requested targets",
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

		targets, err := parseBuildTargets(args)
		if err != nil {
			return err
		}

		if buildClean {
			current, err := s.State.DiscoverState()
			if err != nil {
				return err
			}
			if current == primitives.Built {
				if _, err := s.State.ExecuteTransition(state.Clean, nil); err != nil {
					return fmt.Errorf("cleaning before build: %w", err)
				}
			}
		}

		if _, err := s.State.ExecuteTransition(state.Build, targets); err != nil {
			return fmt.Errorf("preparing build structure: %w", err)
		}

		if err := s.Packwiz.RefreshIndex(); err != nil {
			return fmt.Errorf("refreshing pack index before build: %w", err)
		}

		return runBuildTargets(s, targets, buildJobs)
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "clean existing build artifacts first")
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 1, "number of targets to build concurrently")
	rootCmd.AddCommand(buildCmd)
}

func parseBuildTargets(args []string) ([]primitives.BuildTarget, error) {
	for _, arg := range args {
		if arg == "all" {
			return allBuildTargets, nil
		}
	}

	targets := make([]primitives.BuildTarget, 0, len(args))
	for _, arg := range args {
		t, err := primitives.ParseBuildTarget(arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// runBuildTargets builds each target, up to jobs concurrently. packwiz's own
// pack.toml mutations (refresh) already happened; building a target only
// reads the pack and writes its own output directory, so concurrent targets
// don't contend with each other.
func runBuildTargets(s *session.Session, targets []primitives.BuildTarget, jobs int) error {
	if jobs < 1 {
		jobs = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(jobs)

	for _, target := range targets {
		target := target
		g.Go(func() error {
			if err := buildOne(s, target); err != nil {
				pterm.Warning.Printf("building %s failed: %v\n", target, err)
				return nil
			}
			pterm.Success.Printf("built %s\n", target)
			return nil
		})
	}

	return g.Wait()
}

func buildOne(s *session.Session, target primitives.BuildTarget) error {
	outputDir := s.State.Paths().BuildOutput(target)

	switch target {
	case primitives.Mrpack:
		return s.Packwiz.ExportMrpack(filepath.Join(outputDir, "modpack.mrpack"))
	case primitives.Client:
		return s.Installer.InstallMods(packwiz.SideClient, s.Workdir)
	case primitives.Server:
		return s.Installer.InstallMods(packwiz.SideServer, s.Workdir)
	case primitives.ClientFull, primitives.ServerFull:
		side := packwiz.SideClient
		if target == primitives.ServerFull {
			side = packwiz.SideServer
		}
		return s.Installer.InstallMods(side, s.Workdir)
	default:
		return fmt.Errorf("build: unhandled target %s", target)
	}
}
