package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wingetbridge/internal/tui"
	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
)

// optionFlags holds the per-command installation option flags.
type optionFlags struct {
	version     string
	scope       string
	arch        string
	location    string
	skipHash    bool
	interactive bool
	admin       bool
	custom      []string
	exactID     bool
	useTUI      bool
}

// register adds the flags to cmd. Uninstalls do not take architecture,
// location or hash options.
func (f *optionFlags) register(cmd *cobra.Command, uninstall bool) {
	cmd.Flags().StringVar(&f.version, "version", "", "target a specific package version")
	cmd.Flags().StringVar(&f.scope, "scope", "", "installation scope (user or machine)")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "run the installer interactively")
	cmd.Flags().BoolVar(&f.admin, "admin", false, "run through the elevation helper")
	cmd.Flags().StringSliceVar(&f.custom, "custom", nil, "extra arguments passed to winget")
	cmd.Flags().BoolVarP(&f.exactID, "id", "e", false, "treat arguments as exact package Ids")
	cmd.Flags().BoolVar(&f.useTUI, "tui", false, "show live output in a terminal UI")
	if !uninstall {
		cmd.Flags().StringVarP(&f.arch, "arch", "a", "", "installer architecture (x64, x86, arm64)")
		cmd.Flags().StringVarP(&f.location, "location", "l", "", "installation directory")
		cmd.Flags().BoolVar(&f.skipHash, "skip-hash", false, "ignore installer hash mismatches")
	}
}

// options converts the flags into InstallationOptions. Configured defaults
// are merged by the adapter.
func (f *optionFlags) options() (manager.InstallationOptions, error) {
	scope, err := manager.ParseScope(f.scope)
	if err != nil {
		return manager.InstallationOptions{}, err
	}
	return manager.InstallationOptions{
		Architecture:    f.arch,
		SkipHashCheck:   f.skipHash,
		InstallLocation: f.location,
		Scope:           scope,
		Interactive:     f.interactive,
		CustomArgs:      f.custom,
		Version:         f.version,
		RunAsAdmin:      f.admin,
	}, nil
}

// resolvePackage turns a command argument into a package record. With
// exact set the argument is used as the Id. Otherwise candidates come from
// a search, or from the installed list when installed is set: an exact Id
// match wins, a single candidate is taken, and several are offered in a
// prompt.
func resolvePackage(ctx context.Context, mgr manager.Manager, arg string, installed, exact bool) (manager.Package, error) {
	if exact {
		return manager.Package{Name: arg, ID: arg, Manager: mgr.Name()}, nil
	}

	var candidates []manager.Package
	if installed {
		all, err := mgr.ListInstalled(ctx)
		if err != nil {
			return manager.Package{}, err
		}
		for _, p := range all {
			if strings.EqualFold(p.ID, arg) || containsFold(p.Name, arg) || containsFold(p.ID, arg) {
				candidates = append(candidates, p)
			}
		}
	} else {
		found, err := mgr.Search(ctx, arg)
		if err != nil {
			return manager.Package{}, err
		}
		candidates = found
	}

	for _, p := range candidates {
		if strings.EqualFold(p.ID, arg) {
			return p, nil
		}
	}

	switch len(candidates) {
	case 0:
		return manager.Package{}, fmt.Errorf("%w: %s", ErrPackageNotFound, arg)
	case 1:
		return candidates[0], nil
	}

	if cfg.General.AutoConfirm {
		return manager.Package{}, fmt.Errorf("%w: %q matches %d packages", ErrAmbiguous, arg, len(candidates))
	}
	selected, err := ui.SelectPackage(candidates, fmt.Sprintf("Several packages match %q", arg))
	if err != nil {
		return manager.Package{}, err
	}
	return *selected, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// confirm asks before a mutating command unless -y or dry-run is set.
func confirm(prompt string, defaultYes bool) error {
	if cfg.General.AutoConfirm || cfg.General.DryRun {
		return nil
	}
	ok, err := ui.Confirm(prompt, defaultYes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

// runOperation starts one operation, shows its output and records the
// result in history.
func runOperation(ctx context.Context, title string, useTUI bool, start func(progress manager.ProgressFunc) (*manager.Operation, error)) (manager.Result, error) {
	var (
		res manager.Result
		err error
	)

	if useTUI {
		res, err = tui.RunOperation(ctx, title, start)
	} else {
		res, err = runWithSpinner(title, start)
	}
	if err != nil {
		return res, err
	}

	recordHistory(res)
	if jsonOut {
		return res, printJSON(res)
	}
	ui.PrintResult(res)
	return res, nil
}

// runWithSpinner shows the latest output line next to a spinner, or every
// line in verbose mode.
func runWithSpinner(title string, start func(progress manager.ProgressFunc) (*manager.Operation, error)) (manager.Result, error) {
	if cfg.Output.Verbose || jsonOut {
		progress := func(e manager.Event) {
			if e.Newline && !jsonOut {
				ui.MutedMsg("  %s", e.Text)
			}
		}
		op, err := start(progress)
		if err != nil {
			return manager.Result{}, err
		}
		return op.Wait(), nil
	}

	sp := ui.NewSpinner(title)
	sp.Start()
	op, err := start(sp.Progress)
	if err != nil {
		sp.Stop()
		return manager.Result{}, err
	}
	res := op.Wait()
	sp.Stop()
	return res, nil
}

// recordHistory stores a result. Failures to open the store are logged
// and otherwise ignored.
func recordHistory(res manager.Result) {
	store := optionalHistory()
	if store == nil {
		return
	}
	defer store.Close()
	store.Recorder(log)(res)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// query runs fn behind a spinner unless JSON output is requested.
func query[T any](message string, fn func() (T, error)) (T, error) {
	if jsonOut || cfg.Output.Verbose {
		return fn()
	}
	sp := ui.NewSpinner(message)
	sp.Start()
	out, err := fn()
	sp.Stop()
	return out, err
}
