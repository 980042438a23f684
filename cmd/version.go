package cmd

import (
	"runtime"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print empack's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.Printfln("empack %s", Version)
		pterm.Printfln("target: %s/%s", runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
