package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
)

var (
	searchLimit  int
	searchSource string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for packages",
	Long: `Search the configured winget sources. Results carry the name, Id,
version and source of each package.

Examples:
  wingetbridge search vscode              # Search every source
  wingetbridge search 7zip --source winget
  wingetbridge search git --json          # Structured output`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "limit number of results")
	searchCmd.Flags().StringVarP(&searchSource, "source", "s", "", "only show results from this source")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	mgr, err := getManager()
	if err != nil {
		return err
	}

	q := strings.Join(args, " ")
	results, err := query("Searching for "+q, func() ([]manager.Package, error) {
		return mgr.Search(ctx, q)
	})
	if err != nil {
		return err
	}

	results = filterSource(results, searchSource)
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	if jsonOut {
		return printJSON(results)
	}

	ui.PrintPackages(results)
	if len(results) > 0 {
		ui.MutedMsg("\nFound %d packages", len(results))
	}
	return nil
}

// filterSource keeps packages whose repository matches source.
func filterSource(pkgs []manager.Package, source string) []manager.Package {
	if source == "" {
		return pkgs
	}
	var out []manager.Package
	for _, p := range pkgs {
		if strings.EqualFold(p.Repository(), source) {
			out = append(out, p)
		}
	}
	return out
}
