package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var removeDeps bool

var removeCmd = &cobra.Command{
	Use:   "remove <mods...>",
	Short: "Remove one or more mods from the modpack",
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

		var removed, failed int
		for _, name := range args {
			if err := s.Packwiz.RemoveMod(name); err != nil {
				pterm.Warning.Printf("removing %q failed: %v\n", name, err)
				failed++
				continue
			}
			pterm.Success.Printf("removed %s\n", name)
			removed++
		}

		if removeDeps {
			pterm.Info.Println("refreshing pack index")
			if err := s.Packwiz.RefreshIndex(); err != nil {
				pterm.Warning.Printf("refreshing pack index: %v\n", err)
			}
		}

		pterm.Info.Printf("%d removed, %d failed\n", removed, failed)
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeDeps, "deps", false, "refresh the pack index after removing (orphaned dependencies are not removed)")
	rootCmd.AddCommand(removeCmd)
}
