package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/polagate/dotledger/internal/output"
	"github.com/polagate/dotledger/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var versionCheck bool

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the dotledger version, commit, and build date. With --check, query GitHub for a newer release.`,
	Example: `  dotledger version
  dotledger version --check`,
	RunE: runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	info := struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
		Date    string `json:"date"`
		Latest  string `json:"latest,omitempty"`
		Newer   bool   `json:"update_available,omitempty"`
	}{
		Version: version.Version,
		Commit:  version.Commit,
		Date:    version.Date,
	}

	if versionCheck {
		ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
		defer cancel()

		release, err := version.NewClient().LatestRelease(ctx)
		if err != nil {
			logger.Warnw("release check failed", "error", err)
		} else {
			info.Latest = release.TagName
			info.Newer = version.IsNewer(version.Version, release.TagName)
		}
	}

	if formatter.Format() == output.FormatJSON {
		return writeJSON(w, info)
	}

	out(w, "dotledger %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
	if info.Latest != "" {
		if info.Newer {
			out(w, "Update available: %s\n", info.Latest)
		} else {
			outln(w, "Up to date")
		}
	}
	return nil
}
