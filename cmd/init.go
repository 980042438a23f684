package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"empack/internal/primitives"
	"empack/internal/state"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Initialize a new modpack project in the working directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		current, err := s.State.DiscoverState()
		if err != nil {
			return err
		}
		if current != primitives.Uninitialized && !initForce {
			pterm.Error.Println("directory already contains a modpack project")
			pterm.Info.Println("use --force to overwrite existing files")
			return nil
		}

		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		result, err := s.State.ExecuteTransition(state.Initialize, nil)
		if err != nil {
			return fmt.Errorf("initializing modpack project: %w", err)
		}
		if result != primitives.Configured {
			return fmt.Errorf("unexpected state after initialization: %s", result)
		}

		if err := s.Packwiz.Init(name, "", "", ""); err != nil {
			return fmt.Errorf("running packwiz init: %w", err)
		}

		pterm.Success.Println("modpack project initialized")
		pterm.Info.Println("next steps:")
		pterm.Println("  - edit empack.yml to declare dependencies")
		pterm.Println("  - run 'empack sync' to sync with packwiz")
		pterm.Println("  - run 'empack build all' to produce distributables")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing modpack project")
	rootCmd.AddCommand(initCmd)
}
