package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"empack/internal/primitives"
	"empack/internal/state"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [targets...]",
	Short: "Remove the given targets' build output; with no targets, remove all build output, or the whole configuration if nothing is built",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := requireConfigured(s); err != nil {
			return err
		}

		if len(args) > 0 {
			return cleanSpecificTargets(s.State, args)
		}

		result, err := s.State.ExecuteTransition(state.Clean, nil)
		if err != nil {
			return fmt.Errorf("cleaning: %w", err)
		}
		pterm.Success.Printf("cleaned; now %s\n", result)
		return nil
	},
}

func cleanSpecificTargets(m *state.Manager, args []string) error {
	paths := m.Paths()
	for _, arg := range args {
		if arg == "all" {
			for _, t := range []primitives.BuildTarget{primitives.Mrpack, primitives.Client, primitives.Server, primitives.ClientFull, primitives.ServerFull} {
				if err := os.RemoveAll(paths.BuildOutput(t)); err != nil {
					return fmt.Errorf("cleaning %s: %w", t, err)
				}
			}
			pterm.Success.Println("cleaned all build targets")
			continue
		}

		target, err := primitives.ParseBuildTarget(arg)
		if err != nil {
			return err
		}
		if err := os.RemoveAll(paths.BuildOutput(target)); err != nil {
			return fmt.Errorf("cleaning %s: %w", target, err)
		}
		pterm.Success.Printf("cleaned %s\n", target)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
