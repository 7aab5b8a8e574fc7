package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/spigell/recruit-panel/cmd.version=...".
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, the Go toolchain and the vcs revision the binary was built from",
	Run: func(_ *cobra.Command, _ []string) {
		info, _ := debug.ReadBuildInfo()
		printVersion(os.Stdout, info)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// printVersion falls back to the module version when no version was linked in.
func printVersion(w io.Writer, info *debug.BuildInfo) {
	v := version
	if info == nil {
		fmt.Fprintf(w, "%s version: %s\n", app, v)
		return
	}
	if v == "unknown" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}

	fmt.Fprintf(w, "%s version: %s\n", app, v)
	fmt.Fprintf(w, "module: %s\n", info.Main.Path)
	fmt.Fprintf(w, "go: %s\n", info.GoVersion)

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if rev := settings["vcs.revision"]; rev != "" {
		if settings["vcs.modified"] == "true" {
			rev += " (modified)"
		}
		fmt.Fprintf(w, "revision: %s\n", rev)
	}
	if at := settings["vcs.time"]; at != "" {
		fmt.Fprintf(w, "built from commit at: %s\n", strings.TrimSpace(at))
	}
}
