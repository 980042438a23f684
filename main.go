// Command empack manages Minecraft modpacks backed by packwiz: resolving
// declared dependencies against Modrinth/CurseForge and driving packwiz to
// keep pack.toml in sync.
package main

import "empack/cmd"

func main() {
	cmd.Execute()
}
