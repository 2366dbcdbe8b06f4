package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/extrata/extrata-cli/internal/update"
)

// Build metadata, set via ldflags on release builds.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "extrata-cli version %s\n", buildVersion())

			// Never blocks and never complains; dev builds skip the check.
			if result := update.CheckForUpdate(cmd.Context(), version); result != nil && result.UpdateAvailable {
				errOut := cmd.ErrOrStderr()
				_, _ = fmt.Fprintf(errOut, "\nUpdate available: %s -> %s\n", result.CurrentVersion, result.LatestVersion)
				_, _ = fmt.Fprintf(errOut, "Download: %s\n", result.UpdateURL)
			}
		},
	}
}

// buildVersion renders "X" or "X (commit abc1234, built ...)" depending on
// which release metadata is present. Builds without ldflags fall back to
// the VCS revision the toolchain stamps into the binary.
func buildVersion() string {
	rev := commit
	if rev == "" {
		rev = vcsRevision()
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	switch {
	case rev != "" && date != "":
		return fmt.Sprintf("%s (commit %s, built %s)", version, rev, date)
	case rev != "":
		return fmt.Sprintf("%s (commit %s)", version, rev)
	default:
		return version
	}
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}
