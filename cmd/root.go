// Package cmd implements empack's CLI surface: one Cobra subcommand per
// operation, each building a session.Session from the resolved working
// directory and delegating to the appropriate internal package.
package cmd

import (
	"errors"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"empack/internal/primitives"
	"empack/internal/session"
)

// Version is empack's release version, reported by the version subcommand.
const Version = "0.1.0"

// errUninitialized is returned by requireConfigured when a command that
// needs an existing packwiz project is run against a bare directory.
var errUninitialized = errors.New("cmd: this directory has no modpack project yet — run 'empack init' first")

var workdirFlag string

var rootCmd = &cobra.Command{
	Use:   "empack",
	Short: "Build and maintain Minecraft modpacks on top of packwiz",
	Long: `empack resolves declared mod dependencies against Modrinth and CurseForge,
keeps a packwiz project's pack.toml in sync with a declarative manifest, and
drives packwiz to produce distributable client/server builds.`,
}

// Execute initializes the root command tree and delegates to Cobra for
// argument parsing and subcommand dispatch.
func Execute() {
	if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
		pterm.DisableStyling()
		pterm.RawOutput = true
	}
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workdirFlag, "workdir", "w", "",
		"modpack working directory (defaults to EMPACK_WORKDIR, then the current directory)")
}

// newSession builds the composition root for the invoked subcommand.
func newSession() (*session.Session, error) {
	return session.New(workdirFlag)
}

// requireConfigured fails fast if the session's working directory isn't at
// least Configured — every subcommand but requirements,
// version, and init needs this.
func requireConfigured(s *session.Session) error {
	current, err := s.State.DiscoverState()
	if err != nil {
		return err
	}
	if current == primitives.Uninitialized {
		return errUninitialized
	}
	return nil
}
