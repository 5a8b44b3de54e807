package cli

import (
	"github.com/spf13/cobra"

	"wingetbridge/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse, search and manage packages interactively",
	Long: `Open a full-screen terminal interface with tabs for installed packages,
search, pending updates, sources, history and system details.

Operations started from the interface show winget's output live and are
recorded in history. Press ? inside the interface for the key list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := getManager(); err != nil {
			return err
		}

		store := optionalHistory()
		if store != nil {
			defer store.Close()
		}
		return tui.Run(commandContext(cmd), registry, cfg, store, log)
	},
}
