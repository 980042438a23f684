package cmd

import (
	"context"
	"os/exec"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var requirementsCmd = &cobra.Command{
	Use:   "requirements",
	Short: "Check that the external tools empack depends on are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		printRequirement("packwiz", checkPackwiz())
		printRequirement("java", checkOnPath("java"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(requirementsCmd)
}

func printRequirement(name string, available bool) {
	if available {
		pterm.Success.Printf("%s found\n", name)
		return
	}
	pterm.Error.Printf("%s not found\n", name)
	if name == "packwiz" {
		pterm.Info.Println("  install from: https://packwiz.infra.link/installation/")
	}
}

func checkOnPath(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

func checkPackwiz() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "packwiz", "--version").Run() == nil
}
