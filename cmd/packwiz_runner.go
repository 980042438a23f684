package cmd

import (
	"fmt"

	"empack/internal/packwiz"
	"empack/internal/primitives"
)

// packwizRunner adapts syncplan.Action.Command shapes — {"mr"|"cf", "add",
// id} or {"remove", name} — onto packwiz.Metadata's typed methods, so
// syncplan stays free of any direct packwiz dependency.
type packwizRunner struct {
	metadata *packwiz.Metadata
}

func (r packwizRunner) Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cmd: empty packwiz command")
	}

	switch args[0] {
	case "mr":
		return r.metadata.AddMod(args[2], primitives.Modrinth)
	case "cf":
		return r.metadata.AddMod(args[2], primitives.CurseForge)
	case "remove":
		return r.metadata.RemoveMod(args[1])
	default:
		return fmt.Errorf("cmd: unrecognized packwiz command %q", args[0])
	}
}
