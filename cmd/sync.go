package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"empack/internal/syncplan"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile installed mods with empack.yml's declared dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := requireConfigured(s); err != nil {
			return err
		}

		projectPlan, err := s.Config.CreateProjectPlan()
		if err != nil {
			return fmt.Errorf("reading project configuration: %w", err)
		}

		installed, err := installedMods(s.Packwiz)
		if err != nil {
			return fmt.Errorf("scanning installed mods: %w", err)
		}

		actions, failures := syncplan.Plan(projectPlan, installed, s.Resolver)
		for _, f := range failures {
			pterm.Warning.Printf("could not resolve %q: %v\n", f.Key, f.Err)
		}

		if len(actions) == 0 {
			pterm.Success.Println("already in sync")
			return nil
		}

		for _, action := range actions {
			verb := "add"
			if action.Kind == syncplan.Remove {
				verb = "remove"
			}
			pterm.Printfln("  %-6s %s", verb, action.Key)
		}

		if syncDryRun {
			pterm.Info.Printf("%d action(s) planned (dry run, nothing executed)\n", len(actions))
			return nil
		}

		summary, execErrs := syncplan.Execute(actions, packwizRunner{metadata: s.Packwiz})
		for _, e := range execErrs {
			pterm.Warning.Println(e)
		}
		pterm.Success.Printf("%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)

		if err := s.Packwiz.RefreshIndex(); err != nil {
			return fmt.Errorf("refreshing pack index: %w", err)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "show the planned actions without executing them")
	rootCmd.AddCommand(syncCmd)
}
