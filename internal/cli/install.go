package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
)

var installFlags optionFlags

var installCmd = &cobra.Command{
	Use:   "install [packages...]",
	Short: "Install one or more packages",
	Long: `Install packages from the configured winget sources. Each argument is
searched for; an exact Id match is taken directly and several matches are
offered in a prompt.

Examples:
  wingetbridge install Git.Git --id            # Install by exact Id
  wingetbridge install vscode --scope user     # Per-user installation
  wingetbridge install 7zip -a x64 -y          # Force architecture, no prompt
  wingetbridge install code                    # Uses alias if configured`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installFlags.register(installCmd, false)
}

func runInstall(cmd *cobra.Command, args []string) error {
	return runPackageOperations(commandContext(cmd), manager.IntentInstall, resolvePackages(args), &installFlags, false)
}

// runPackageOperations resolves each argument, asks once for confirmation
// and runs the operations one after another. The first failing result is
// returned after every package was attempted.
func runPackageOperations(ctx context.Context, intent manager.Intent, args []string, flags *optionFlags, installed bool) error {
	if len(args) == 0 {
		return ErrNoPackages
	}

	mgr, err := getManager()
	if err != nil {
		return err
	}

	opts, err := flags.options()
	if err != nil {
		return err
	}
	_, dropped := mgr.Capabilities().Filter(opts)
	for _, name := range dropped {
		ui.WarningMsg("%s does not support %s; ignoring it", mgr.DisplayName(), name)
	}

	pkgs := make([]manager.Package, 0, len(args))
	for _, arg := range args {
		pkg, err := resolvePackage(ctx, mgr, arg, installed, flags.exactID)
		if err != nil {
			return err
		}
		pkgs = append(pkgs, pkg)
	}

	return runResolved(ctx, mgr, intent, pkgs, opts, flags.useTUI)
}

// runResolved confirms and runs one operation per package.
func runResolved(ctx context.Context, mgr manager.Manager, intent manager.Intent, pkgs []manager.Package, opts manager.InstallationOptions, useTUI bool) error {
	verb := intentVerb(intent)
	if !jsonOut {
		ui.HeaderMsg("Packages to %s:", verb)
		for _, p := range pkgs {
			fmt.Printf("  %s\n", p.String())
		}
		fmt.Println()
	}

	if err := confirm(fmt.Sprintf("Proceed to %s %d package(s)?", verb, len(pkgs)), true); err != nil {
		return err
	}

	var firstErr error
	for _, pkg := range pkgs {
		pkg := pkg
		title := fmt.Sprintf("%s %s", titleCase(verb), pkg.String())
		res, err := runOperation(ctx, title, useTUI, func(progress manager.ProgressFunc) (*manager.Operation, error) {
			switch intent {
			case manager.IntentUpdate:
				return mgr.Update(ctx, pkg, opts, progress)
			case manager.IntentUninstall:
				return mgr.Uninstall(ctx, pkg, opts, progress)
			default:
				return mgr.Install(ctx, pkg, opts, progress)
			}
		})
		if err == nil {
			err = resultError(res)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return firstErr
}

func intentVerb(intent manager.Intent) string {
	switch intent {
	case manager.IntentUpdate:
		return "update"
	case manager.IntentUninstall:
		return "uninstall"
	}
	return "install"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
