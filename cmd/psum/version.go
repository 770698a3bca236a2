package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at build time through -ldflags (see stavefile.go).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) {
	if short, _ := cmd.Flags().GetBool("short"); short {
		fmt.Println(version)
		return
	}
	fmt.Printf("psum %s (commit %s, built %s)\n", version, resolveCommit(), date)
	fmt.Printf("%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// resolveCommit falls back to the VCS revision stamped by the Go toolchain
// when the binary was built without ldflags (plain `go install`).
func resolveCommit() string {
	if commit != "none" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 8 {
				return s.Value[:8]
			}
		}
	}
	return commit
}
