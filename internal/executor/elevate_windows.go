//go:build windows

package executor

import "golang.org/x/sys/windows"

// DefaultElevator returns the elevation helper for this platform. gsudo
// accepts the target command as trailing arguments.
func DefaultElevator() string {
	return "gsudo"
}

// isElevated reports whether the process token is elevated. A member of
// Administrators running under UAC without elevation is not.
func isElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
