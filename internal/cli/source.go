package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
)

var sourceCmd = &cobra.Command{
	Use:     "source",
	Aliases: []string{"sources"},
	Short:   "Manage winget sources",
	Long: `List, add and remove the repositories winget installs from.

Examples:
  wingetbridge source list
  wingetbridge source add contoso https://example.com/cache
  wingetbridge source remove              # Pick from the registered sources
  wingetbridge source update               # Refresh source catalogues`,
}

var sourceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List configured sources",
	Args:    cobra.NoArgs,
	RunE:    runSourceList,
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <name> [url]",
	Short: "Add a source (requires elevation)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSourceAdd,
}

var sourceRemoveCmd = &cobra.Command{
	Use:     "remove [name]",
	Aliases: []string{"rm"},
	Short:   "Remove a source (requires elevation)",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runSourceRemove,
}

var sourceRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-read the source list into the registry",
	Args:  cobra.NoArgs,
	RunE:  runSourceRefresh,
}

var sourceUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the source catalogues",
	Args:  cobra.NoArgs,
	RunE:  runSourceUpdate,
}

var sourceTUI bool

func init() {
	sourceAddCmd.Flags().BoolVar(&sourceTUI, "tui", false, "show live output in a terminal UI")
	sourceRemoveCmd.Flags().BoolVar(&sourceTUI, "tui", false, "show live output in a terminal UI")

	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	sourceCmd.AddCommand(sourceRefreshCmd)
	sourceCmd.AddCommand(sourceUpdateCmd)
}

func runSourceList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	mgr, err := getManager()
	if err != nil {
		return err
	}

	sources, err := query("Listing sources", func() ([]manager.ManagerSource, error) {
		return mgr.ListSources(ctx)
	})
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(sources)
	}
	ui.PrintSources(sources)
	return nil
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	src := manager.ManagerSource{Name: args[0], Manager: wg.Name()}
	if len(args) == 2 {
		src.URL = args[1]
	} else {
		if cfg.General.AutoConfirm {
			return fmt.Errorf("source %q needs a url", src.Name)
		}
		url, err := ui.Input("Source URL", "", func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("a url is required")
			}
			return nil
		})
		if err != nil {
			return err
		}
		src.URL = url
	}
	if _, exists := wg.Sources().Lookup(src.Name); exists {
		return fmt.Errorf("source %q already exists", src.Name)
	}
	return runSourceOperation(commandContext(cmd), "Adding source "+src.Name,
		fmt.Sprintf("Add source %s (%s)?", src.Name, src.URL),
		func(ctx context.Context, mgr manager.Manager, progress manager.ProgressFunc) (*manager.Operation, error) {
			return mgr.AddSource(ctx, src, progress)
		})
}

func runSourceRemove(cmd *cobra.Command, args []string) error {
	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		if cfg.General.AutoConfirm {
			return fmt.Errorf("no source specified")
		}
		selected, err := ui.SelectSource(wg.Sources().Names(), "Select a source to remove")
		if err != nil {
			return err
		}
		name = selected
	}

	src, ok := wg.Sources().Lookup(name)
	if !ok {
		src = manager.ManagerSource{Name: name, Manager: wg.Name()}
	}
	return runSourceOperation(commandContext(cmd), "Removing source "+src.Name,
		fmt.Sprintf("Remove source %s?", src.Name),
		func(ctx context.Context, mgr manager.Manager, progress manager.ProgressFunc) (*manager.Operation, error) {
			return mgr.RemoveSource(ctx, src, progress)
		})
}

// runSourceOperation confirms, runs a source mutation and refreshes the
// registry once it succeeded.
func runSourceOperation(ctx context.Context, title, prompt string, start func(context.Context, manager.Manager, manager.ProgressFunc) (*manager.Operation, error)) error {
	mgr, err := getManager()
	if err != nil {
		return err
	}
	if err := confirm(prompt, true); err != nil {
		return err
	}

	res, err := runOperation(ctx, title, sourceTUI, func(progress manager.ProgressFunc) (*manager.Operation, error) {
		return start(ctx, mgr, progress)
	})
	if err != nil {
		return err
	}
	if res.Outcome.Succeeded() {
		if err := mgr.RefreshSources(ctx); err != nil {
			log.WithError(err).Warn("failed to refresh sources")
		}
	}
	return resultError(res)
}

func runSourceRefresh(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	mgr, err := getManager()
	if err != nil {
		return err
	}
	if _, err := query("Refreshing sources", func() (struct{}, error) {
		return struct{}{}, mgr.RefreshSources(ctx)
	}); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(mgr.Sources().Snapshot())
	}
	ui.SuccessMsg("Registered %d sources", mgr.Sources().Len())
	return nil
}

func runSourceUpdate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	if _, err := getManager(); err != nil {
		return err
	}

	var progress manager.ProgressFunc
	var sp *ui.Spinner
	if !jsonOut && !cfg.Output.Verbose {
		sp = ui.NewSpinner("Updating source catalogues")
		sp.Start()
		progress = sp.Progress
	} else if !jsonOut {
		progress = func(e manager.Event) {
			if e.Newline {
				ui.MutedMsg("  %s", e.Text)
			}
		}
	}
	res, err := wg.UpdateSourceCatalogs(ctx, progress)
	if sp != nil {
		sp.Stop()
	}
	if res.ID != "" {
		recordHistory(res)
	}
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(res)
	}
	ui.PrintResult(res)
	return resultError(res)
}
