package cli

import (
	"github.com/spf13/cobra"

	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
)

var infoExact bool

var infoCmd = &cobra.Command{
	Use:     "show [package]",
	Aliases: []string{"info"},
	Short:   "Show package information",
	Long: `Display the manifest details of a package: publisher, license,
installer, release notes, tags and the available versions.

Examples:
  wingetbridge show Git.Git --id     # Exact Id
  wingetbridge show firefox          # Pick from matching packages`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVarP(&infoExact, "id", "e", false, "treat the argument as an exact package Id")
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	arg := resolvePackages(args)[0]

	mgr, err := getManager()
	if err != nil {
		return err
	}

	pkg, err := resolvePackage(ctx, mgr, arg, false, infoExact)
	if err != nil {
		return err
	}

	details, err := query("Loading details for "+pkg.String(), func() (*manager.PackageDetails, error) {
		return mgr.Details(ctx, pkg)
	})
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(details)
	}
	ui.PrintDetails(details)
	return nil
}
