package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
)

var (
	upgradeFlags optionFlags
	upgradeAll   bool
)

var upgradeCmd = &cobra.Command{
	Use:     "update [packages...]",
	Aliases: []string{"upgrade"},
	Short:   "Update installed packages",
	Long: `Update installed packages to the latest available version, or to the
version given with --version.

Examples:
  wingetbridge update Git.Git --id     # Update one package
  wingetbridge update --all            # Update everything with a pending update
  wingetbridge update --all -y --tui   # Unattended, with live output
  wingetbridge update                  # Choose from the pending updates`,
	RunE: runUpgrade,
}

func init() {
	upgradeFlags.register(upgradeCmd, false)
	upgradeCmd.Flags().BoolVar(&upgradeAll, "all", false, "update every package with an available update")
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	if !upgradeAll && len(args) > 0 {
		return runPackageOperations(ctx, manager.IntentUpdate, resolvePackages(args), &upgradeFlags, true)
	}

	mgr, err := getManager()
	if err != nil {
		return err
	}
	opts, err := upgradeFlags.options()
	if err != nil {
		return err
	}

	updates, err := query("Checking for updates", func() ([]manager.UpgradablePackage, error) {
		return mgr.ListUpdates(ctx)
	})
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		ui.SuccessMsg("All packages are up to date")
		return nil
	}

	if !jsonOut {
		ui.PrintUpdates(updates)
		fmt.Println()
	}

	pkgs := make([]manager.Package, 0, len(updates))
	for _, u := range updates {
		pkgs = append(pkgs, u.Package)
	}
	if !upgradeAll {
		if cfg.General.AutoConfirm {
			return fmt.Errorf("%w: pass packages or --all", ErrNoPackages)
		}
		pkgs, err = selectUpdates(updates)
		if err != nil {
			return err
		}
		if len(pkgs) == 0 {
			return ErrNoPackages
		}
	}
	return runResolved(ctx, mgr, manager.IntentUpdate, pkgs, opts, upgradeFlags.useTUI)
}

// selectUpdates lets the user pick from the pending updates.
func selectUpdates(updates []manager.UpgradablePackage) ([]manager.Package, error) {
	items := make([]string, len(updates))
	byItem := make(map[string]manager.Package, len(updates))
	for i, u := range updates {
		items[i] = fmt.Sprintf("%s (%s -> %s)", u.String(), u.Version, u.AvailableVersion)
		byItem[items[i]] = u.Package
	}

	selected, err := ui.SelectMultiple(items, "Select packages to update:")
	if err != nil {
		return nil, err
	}
	pkgs := make([]manager.Package, 0, len(selected))
	for _, item := range selected {
		pkgs = append(pkgs, byItem[item])
	}
	return pkgs, nil
}
