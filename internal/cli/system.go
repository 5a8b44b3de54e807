package cli

import (
	"github.com/spf13/cobra"

	"wingetbridge/internal/ui"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show system information",
	Long: `Display the detected host, the installer architectures it can run and
the state of the winget executable.

Examples:
  wingetbridge system               # Show system info
  wingetbridge system --json`,
	RunE: runSystem,
}

func runSystem(cmd *cobra.Command, args []string) error {
	sysInfo := registry.SystemInfo()
	if sysInfo == nil {
		ui.WarningMsg("System information not available")
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"system":  sysInfo,
			"manager": wg.Name(),
			"status":  wg.Status(),
			"sources": wg.Sources().Snapshot(),
		})
	}

	ui.PrintSystemInfo(sysInfo, wg.DisplayName(), wg.Status(), wg.Sources().Len())
	return nil
}
