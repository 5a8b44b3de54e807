package cli

import (
	"errors"

	"wingetbridge/internal/executor"
	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
)

var (
	// ErrNoManager is returned when winget cannot be run.
	ErrNoManager = errors.New("winget was not found; install App Installer or set --winget")

	// ErrNoPackages is returned when no packages are specified.
	ErrNoPackages = errors.New("no packages specified")

	// ErrPackageNotFound is returned when a package cannot be found.
	ErrPackageNotFound = errors.New("package not found")

	// ErrAmbiguous is returned when a query matches several packages and no
	// prompt can be shown.
	ErrAmbiguous = errors.New("several packages match; use the exact Id")

	// ErrAborted is returned when the user aborts an operation.
	ErrAborted = errors.New("operation aborted by user")
)

// Exit statuses reported by the wingetbridge binary.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitAborted        = 2
	ExitNeedsElevation = 3
	ExitHashMismatch   = 4
	ExitNotIdentified  = 5
	ExitNotFound       = 6
	ExitCancelled      = 130
)

// ExitCode maps an error returned by Execute to the process exit status.
// Outcomes that leave the package in a usable state, such as a pending
// restart or nothing to update, are not errors and exit with ExitOK.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var opErr *manager.OperationError
	if errors.As(err, &opErr) {
		switch opErr.Result.Outcome {
		case manager.OutcomeNeedsElevation:
			return ExitNeedsElevation
		case manager.OutcomeHashMismatch:
			return ExitHashMismatch
		case manager.OutcomeNotIdentified:
			return ExitNotIdentified
		case manager.OutcomeCancelled:
			return ExitCancelled
		}
		return ExitError
	}

	switch {
	case errors.Is(err, ErrAborted), errors.Is(err, ui.ErrInterrupted):
		return ExitAborted
	case errors.Is(err, ErrPackageNotFound):
		return ExitNotFound
	case errors.Is(err, ErrAmbiguous):
		return ExitNotIdentified
	case errors.Is(err, manager.ErrNotIdentified):
		return ExitNotIdentified
	case errors.Is(err, executor.ErrNoPrivileges):
		return ExitNeedsElevation
	}
	return ExitError
}

// resultError converts an operation result into the command's error.
// Outcomes that are informational rather than failures return nil.
func resultError(res manager.Result) error {
	switch res.Outcome {
	case manager.OutcomeNoApplicableUpdate, manager.OutcomeAlreadyInstalled:
		return nil
	}
	return res.AsError()
}
