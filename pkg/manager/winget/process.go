// Package winget adapts the Windows Package Manager command line to the
// manager.Manager contract.
package winget

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"wingetbridge/internal/executor"
)

// toolchain is the winget executable and the process plumbing shared by
// queries and operations.
type toolchain struct {
	binary string
	exec   *executor.Executor
	runner executor.Runner
	log    logrus.FieldLogger
}

func newToolchain(binary string) *toolchain {
	e := executor.New(false, false)
	return &toolchain{
		binary: findExecutable(binary, exec.LookPath, os.Getenv("LOCALAPPDATA")),
		exec:   e,
		runner: e,
		log:    logrus.StandardLogger(),
	}
}

// findExecutable resolves a bare executable name. winget is an app
// execution alias in %LOCALAPPDATA%\Microsoft\WindowsApps, a directory
// that is missing from PATH for services and some remote sessions.
func findExecutable(name string, lookPath func(string) (string, error), localAppData string) string {
	if filepath.Base(name) != name {
		return name
	}
	if _, err := lookPath(name); err == nil || localAppData == "" {
		return name
	}

	file := name
	if filepath.Ext(file) == "" {
		file += ".exe"
	}
	alias := filepath.Join(localAppData, "Microsoft", "WindowsApps", file)
	if _, err := os.Stat(alias); err == nil {
		return alias
	}
	return name
}

// Binary returns the executable the adapter runs.
func (t *toolchain) Binary() string { return t.binary }

// Runner returns the process runner used for all commands.
func (t *toolchain) Runner() executor.Runner { return t.runner }

// SetRunner replaces the process runner.
func (t *toolchain) SetRunner(r executor.Runner) { t.runner = r }

// SetLogger sets the adapter's logger.
func (t *toolchain) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		t.log = log
		t.exec.SetLogger(log)
	}
}

// SetDryRun enables or disables dry-run mode.
func (t *toolchain) SetDryRun(dryRun bool) { t.exec.SetDryRun(dryRun) }

// SetVerbose echoes commands to stderr when enabled.
func (t *toolchain) SetVerbose(verbose bool) { t.exec.SetVerbose(verbose) }

// checkPrivileges fails with executor.ErrNoPrivileges when cmd needs
// elevation that the runner cannot provide.
func (t *toolchain) checkPrivileges(cmd executor.Command) error {
	if pc, ok := t.runner.(executor.PrivilegeChecker); ok {
		return pc.CheckPrivileges(cmd.Elevate)
	}
	return nil
}

// locate returns the absolute path of the executable when it can be found.
func (t *toolchain) locate() string {
	if path, err := exec.LookPath(t.binary); err == nil {
		return path
	}
	return t.binary
}
