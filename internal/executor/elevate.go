package executor

import (
	"errors"
	"os/exec"
)

// IsElevated reports whether the process already has administrator rights.
func IsElevated() bool {
	return isElevated()
}

// HasElevator returns true if the named elevation helper can be found.
func HasElevator(name string) bool {
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// PrivilegeChecker is implemented by runners that can tell before starting
// whether an elevated command is able to run.
type PrivilegeChecker interface {
	CheckPrivileges(needsElevation bool) error
}

// CanElevate returns true if the process can run commands elevated.
func (e *Executor) CanElevate() bool {
	return isElevated() || e.dryRun || HasElevator(e.elevator)
}

// CheckPrivileges returns ErrNoPrivileges when elevation is required but
// neither available nor already held.
func (e *Executor) CheckPrivileges(needsElevation bool) error {
	if !needsElevation || e.CanElevate() {
		return nil
	}
	return ErrNoPrivileges
}

// ErrNoPrivileges is returned when an operation requires elevation but no
// helper is available.
var ErrNoPrivileges = errors.New("this operation requires administrator privileges, but the elevation helper is not available")
