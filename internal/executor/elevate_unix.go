//go:build !windows

package executor

import "os"

// DefaultElevator returns the elevation helper for this platform.
func DefaultElevator() string {
	return "sudo"
}

func isElevated() bool {
	return os.Geteuid() == 0
}
