package cli

import (
	"github.com/spf13/cobra"

	"wingetbridge/pkg/manager"
)

var uninstallFlags optionFlags

var uninstallCmd = &cobra.Command{
	Use:     "uninstall [packages...]",
	Aliases: []string{"remove", "rm"},
	Short:   "Uninstall packages",
	Long: `Uninstall packages. Arguments are matched against the installed list,
so programs installed outside winget can be removed by name as well.

Examples:
  wingetbridge uninstall Git.Git --id
  wingetbridge uninstall firefox -y
  wingetbridge uninstall "Steam" --interactive`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallFlags.register(uninstallCmd, true)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	return runPackageOperations(commandContext(cmd), manager.IntentUninstall, resolvePackages(args), &uninstallFlags, true)
}
