package cli

import (
	"github.com/spf13/cobra"

	"wingetbridge/internal/jobs"
	"wingetbridge/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the package manager over HTTP",
	Long: `Expose search, listing, operations and sources as a JSON API with
live operation output over WebSocket and Prometheus metrics on /metrics.
Sources and the pending-update count are refreshed on a schedule.

Examples:
  wingetbridge serve                          # Listen on the configured address
  wingetbridge serve --listen 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides server.listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	mgr, err := getManager()
	if err != nil {
		return err
	}

	addr := cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}

	store := optionalHistory()
	if store != nil {
		defer store.Close()
	}

	scheduler, err := jobs.Start(ctx, mgr, cfg.Server, log)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	return server.New(ctx, registry, store, log).Run(ctx, addr)
}
