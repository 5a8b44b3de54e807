// Package cli implements the command-line interface for wingetbridge.
package cli

import (
	"context"
	"io"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wingetbridge/internal/config"
	"wingetbridge/internal/logging"
	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
	"wingetbridge/pkg/manager/winget"
)

var (
	// Global flags
	cfgFile  string
	dryRun   bool
	yes      bool
	verbose  bool
	noColor  bool
	jsonOut  bool
	wingetEx string

	// Global state
	cfg       *config.Config
	log       *logrus.Logger
	logCloser io.Closer
	registry  *manager.Registry
	wg        *winget.Winget
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// skipDetect marks commands that must work without a winget executable.
const skipDetect = "skip-detect"

var rootCmd = &cobra.Command{
	Use:   "wingetbridge",
	Short: "Structured access to the Windows Package Manager",
	Long: `wingetbridge drives the winget command line and turns its console
tables into structured package records. It can search, list, install,
update and uninstall packages, manage sources, and expose all of it over
HTTP with "wingetbridge serve".

Examples:
  wingetbridge search vscode                  # Search configured sources
  wingetbridge install Git.Git --scope user   # Install for the current user
  wingetbridge updates                        # Show pending updates
  wingetbridge update --all -y                # Apply every pending update`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close() //nolint:errcheck
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&wingetEx, "winget", "", "path to the winget executable")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(sourceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command. Cancelling ctx kills running winget
// processes.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// initializeApp sets up the application state.
func initializeApp(cmd *cobra.Command) error {
	// Load configuration
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Apply global flag overrides
	if yes {
		cfg.General.AutoConfirm = true
	}
	if dryRun {
		cfg.General.DryRun = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.Color = false
	}
	if wingetEx != "" {
		cfg.Winget.Executable = wingetEx
	}

	// Initialize UI
	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)
	if jsonOut {
		ui.Messages = color.Error
	}

	log, logCloser, err = logging.New(cfg, verbose)
	if err != nil {
		return err
	}
	for _, key := range cfg.Unknown {
		log.WithField("key", key).Warn("unknown config key ignored")
	}

	registry = manager.NewRegistry()
	wg = newWinget(cfg, log)
	registry.Register(wg)

	if cmd.Annotations[skipDetect] != "" {
		return nil
	}

	// Non-fatal: doctor and the error paths of each command report it.
	if err := registry.Detect(commandContext(cmd)); err != nil {
		log.WithError(err).Debug("detection failed")
	}
	return nil
}

// newWinget builds the adapter from configuration.
func newWinget(cfg *config.Config, log logrus.FieldLogger) *winget.Winget {
	w := winget.New(winget.Options{
		Executable:         cfg.Winget.Executable,
		Elevator:           cfg.Winget.Elevator,
		Locale:             cfg.Winget.Locale,
		InferArchitecture:  cfg.Winget.InferArchitecture,
		FetchInstallerSize: cfg.Winget.FetchInstallerSize,
		DetailsAttempts:    cfg.Winget.DetailsAttempts,
		Defaults:           cfg.Defaults,
	})
	w.SetLogger(log)
	w.SetDryRun(cfg.General.DryRun)
	w.SetVerbose(cfg.Output.Verbose)
	return w
}

// getManager returns the primary manager if it was found.
func getManager() (manager.Manager, error) {
	mgr := registry.Primary()
	if mgr == nil {
		return nil, ErrNoManager
	}
	if st, ok := registry.Status(mgr.Name()); ok && !st.Found && !cfg.General.DryRun {
		return nil, ErrNoManager
	}
	return mgr, nil
}

// resolvePackages resolves aliases in package names.
func resolvePackages(packages []string) []string {
	return cfg.ResolveAliases(packages)
}

// commandContext returns the command's context, or Background when the
// command was invoked without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Version command
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print wingetbridge version",
	Annotations: map[string]string{skipDetect: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("wingetbridge version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}
