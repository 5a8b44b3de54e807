package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wingetbridge/internal/history"
	"wingetbridge/internal/ui"
)

var (
	historyLimit   int
	historyPackage string
	historyOutput  bool
	pruneOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show operation history",
	Long: `Display the operations wingetbridge has run, with their outcome and
winget exit status.

Examples:
  wingetbridge history                # Show recent history
  wingetbridge history -l 20          # Show last 20 operations
  wingetbridge history -p Git.Git     # Operations on one package
  wingetbridge history show <id>      # Full entry including output
  wingetbridge history prune 720h     # Drop entries older than 30 days`,
	Annotations: map[string]string{skipDetect: "true"},
	RunE:        runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:         "show [id]",
	Short:       "Show one history entry (the latest by default)",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipDetect: "true"},
	RunE:        runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:         "clear",
	Short:       "Delete all history entries",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipDetect: "true"},
	RunE:        runHistoryClear,
}

var historyPruneCmd = &cobra.Command{
	Use:         "prune <age>",
	Short:       "Delete entries older than a duration such as 720h",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipDetect: "true"},
	RunE:        runHistoryPrune,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show")
	historyCmd.Flags().StringVarP(&historyPackage, "package", "p", "", "only entries for this package Id")
	historyShowCmd.Flags().BoolVar(&historyOutput, "output", true, "print the captured winget output")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	var entries []history.Entry
	if historyPackage != "" {
		entries, err = store.ForPackage(historyPackage, historyLimit)
	} else {
		entries, err = store.List(historyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if jsonOut {
		return printJSON(entries)
	}

	if len(entries) == 0 {
		ui.MutedMsg("No history entries found")
		return nil
	}

	ui.HeaderMsg("Operation History")

	for i, entry := range entries {
		status := ui.Green(entry.Outcome.String())
		if !entry.Succeeded() {
			status = ui.Red(entry.Outcome.String())
		}

		fmt.Printf("%2d. %s %s %s [%s] (%s)\n",
			i+1,
			ui.Muted.Sprint(entry.FormatTime()),
			ui.Bold(string(entry.Intent)),
			entry.Target(),
			ui.Cyan(entry.Package.Source),
			status,
		)

		if entry.Error != "" {
			ui.MutedMsg("    Error: %s", entry.Error)
		} else if !entry.Succeeded() && entry.ExitText != "" {
			ui.MutedMsg("    Exit: %s", entry.ExitText)
		}
	}

	total, _ := store.Count()
	ui.MutedMsg("\nShowing %d of %d total entries", len(entries), total)

	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := history.Open()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	var entry *history.Entry
	if len(args) == 1 {
		entry, err = store.Get(args[0])
	} else {
		entry, err = store.Last()
	}
	if err != nil {
		return err
	}
	if entry == nil {
		ui.MutedMsg("No history entries found")
		return nil
	}

	if jsonOut {
		return printJSON(entry)
	}

	ui.HeaderMsg("%s", entry.Summary())
	fmt.Printf("  %-10s %s\n", "Id:", entry.ID)
	fmt.Printf("  %-10s %s\n", "Command:", strings.Join(entry.Command, " "))
	fmt.Printf("  %-10s %d (%s)\n", "Exit:", entry.ExitCode, entry.ExitText)
	fmt.Printf("  %-10s %s\n", "Duration:", entry.Duration.Round(time.Millisecond))
	if entry.Error != "" {
		fmt.Printf("  %-10s %s\n", "Error:", entry.Error)
	}
	if historyOutput && entry.Output != "" {
		fmt.Println()
		ui.MutedMsg("%s", strings.TrimRight(entry.Output, "\n"))
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if err := confirm("Delete all history entries?", false); err != nil {
		return err
	}
	store, err := history.Open()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return err
	}
	ui.SuccessMsg("History cleared")
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	age, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid age %q: %w", args[0], err)
	}
	store, err := history.Open()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	n, err := store.Prune(age)
	if err != nil {
		return err
	}
	ui.SuccessMsg("Removed %d entries", n)
	return nil
}

// optionalHistory opens the store for commands that work without it. It
// returns nil and logs the reason when the store cannot be opened.
func optionalHistory() *history.Store {
	store, err := history.Open()
	if err != nil {
		log.WithError(err).Warn("history unavailable")
		return nil
	}
	return store
}
