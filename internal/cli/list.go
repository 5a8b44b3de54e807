package cli

import (
	"github.com/spf13/cobra"

	"wingetbridge/internal/metrics"
	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
)

var (
	listLimit   int
	listPattern string
	listSource  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long: `List the packages winget reports as installed, including programs
installed outside winget (shown with a local source such as "Local PC").

Examples:
  wingetbridge list                     # List all installed packages
  wingetbridge list -p vim              # List packages matching 'vim'
  wingetbridge list --source Steam      # Only Steam games`,
	RunE: runList,
}

var updatesCmd = &cobra.Command{
	Use:     "updates",
	Aliases: []string{"outdated"},
	Short:   "List packages with available updates",
	Long: `List installed packages for which a newer version is available.

Examples:
  wingetbridge updates
  wingetbridge updates --json`,
	RunE: runUpdates,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "limit number of results")
	listCmd.Flags().StringVarP(&listPattern, "pattern", "p", "", "filter by name or Id")
	listCmd.Flags().StringVarP(&listSource, "source", "s", "", "only show packages from this source")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	mgr, err := getManager()
	if err != nil {
		return err
	}

	packages, err := query("Listing installed packages", func() ([]manager.Package, error) {
		return mgr.ListInstalled(ctx)
	})
	if err != nil {
		return err
	}

	if listPattern != "" {
		var filtered []manager.Package
		for _, p := range packages {
			if containsFold(p.Name, listPattern) || containsFold(p.ID, listPattern) {
				filtered = append(filtered, p)
			}
		}
		packages = filtered
	}
	packages = filterSource(packages, listSource)
	if listLimit > 0 && len(packages) > listLimit {
		packages = packages[:listLimit]
	}

	if jsonOut {
		return printJSON(packages)
	}

	ui.PrintPackages(packages)
	ui.MutedMsg("\nTotal: %d packages", len(packages))
	return nil
}

func runUpdates(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	mgr, err := getManager()
	if err != nil {
		return err
	}

	updates, err := query("Checking for updates", func() ([]manager.UpgradablePackage, error) {
		return mgr.ListUpdates(ctx)
	})
	if err != nil {
		return err
	}
	if cfg.Server.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.Server.MetricsTextfile); err != nil {
			log.WithError(err).Warn("failed to write metrics textfile")
		}
	}

	if jsonOut {
		return printJSON(updates)
	}

	ui.PrintUpdates(updates)
	if len(updates) > 0 {
		ui.MutedMsg("\n%d updates available", len(updates))
	}
	return nil
}
