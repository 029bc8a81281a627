// ABOUTME: Reports the retail binary's release, source revision and toolchain
// ABOUTME: Falls back to module build info for binaries built with go install
package commands

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// VersionInfo identifies a retail build
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"built"`
}

var versionInfo = VersionInfo{Version: "dev", Commit: "none", Date: "unknown"}

// SetVersion records the release stamped in by the linker
func SetVersion(version, commit, date string) {
	versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// resolvedVersion fills unstamped fields from the embedded module build info
func resolvedVersion() VersionInfo {
	v := versionInfo
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && v.Commit == "none":
			v.Commit = s.Value
		case s.Key == "vcs.time" && v.Date == "unknown":
			v.Date = s.Value
		}
	}
	return v
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the retail release and revision",
		Long: `Print the release, source revision, build time and Go toolchain of this
retail binary. Use --format json for machine-readable output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := resolvedVersion()
			if wantJSON() {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					VersionInfo
					Go string `json:"go"`
				}{v, runtime.Version()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "retail %s (revision %s)\n", v.Version, v.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "built %s with %s\n", v.Date, runtime.Version())
			return nil
		},
	}
}
