package cmd

import (
	"empack/internal/packwiz"
)

// installedMods reports the set of normalized keys for everything packwiz
// currently tracks — mods, resourcepacks, datapacks, and shaderpacks alike —
// via `packwiz list` (spec's Packwiz Adapter list operation), so sync's
// comparison against empack.yml isn't blind to non-mod project types.
func installedMods(metadata *packwiz.Metadata) (map[string]bool, error) {
	return metadata.List()
}
