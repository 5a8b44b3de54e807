package cli

import (
	"os"

	"github.com/spf13/cobra"

	"wingetbridge/internal/config"
	"wingetbridge/internal/history"
	"wingetbridge/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose setup issues",
	Long: `Check that winget can be found and queried, that sources are
registered and that the configuration and history files are usable.

Examples:
  wingetbridge doctor               # Run diagnostics`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	issues := 0

	ui.HeaderMsg("Running diagnostics...")

	sysInfo := registry.SystemInfo()
	if sysInfo == nil {
		ui.ErrorMsg("System detection failed")
		issues++
	} else {
		ui.SuccessMsg("System detected: %s (%s)", sysInfo.PrettyName, sysInfo.HostArch)
		if sysInfo.PrettyName != "Windows" {
			ui.WarningMsg("winget only runs on Windows")
		}
	}

	ui.HeaderMsg("Package Manager")
	st := wg.Status()
	if !st.Found {
		ui.ErrorMsg("winget not found (looked for %q)", cfg.Winget.Executable)
		issues++
	} else {
		ui.SuccessMsg("winget %s at %s", st.Version, st.Executable)
	}

	if n := wg.Sources().Len(); n == 0 {
		ui.WarningMsg("No sources registered")
		issues++
	} else {
		ui.SuccessMsg("%d sources registered: %v", n, wg.Sources().Names())
	}

	ui.HeaderMsg("Configuration")
	path := configFile()
	if _, err := os.Stat(path); err != nil {
		ui.MutedMsg("Config file: %s (not present, using defaults)", path)
	} else {
		ui.SuccessMsg("Config file: %s", path)
	}
	for _, key := range cfg.Unknown {
		ui.WarningMsg("Unknown config key: %s", key)
		issues++
	}

	store, err := history.Open()
	if err != nil {
		ui.ErrorMsg("History database: %v", err)
		issues++
	} else {
		n, _ := store.Count()
		store.Close()
		ui.SuccessMsg("History database: %s (%d entries)", config.HistoryPath(), n)
	}

	if st.Found {
		ui.HeaderMsg("Testing Operations")
		if _, err := wg.Search(ctx, "winget"); err != nil {
			ui.WarningMsg("Search test failed: %v", err)
			issues++
		} else {
			ui.SuccessMsg("Search operation works")
		}
	}

	ui.HeaderMsg("Summary")
	if issues == 0 {
		ui.SuccessMsg("No issues found! wingetbridge is ready to use.")
	} else {
		ui.WarningMsg("Found %d issue(s). Some features may not work correctly.", issues)
	}

	return nil
}
