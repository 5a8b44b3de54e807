package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"wingetbridge/internal/executor"
	"wingetbridge/internal/ui"
	"wingetbridge/pkg/manager"
)

func TestExitCode(t *testing.T) {
	opErr := func(o manager.Outcome) error {
		return manager.Result{Intent: manager.IntentInstall, Outcome: o}.AsError()
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitError},
		{"aborted", ErrAborted, ExitAborted},
		{"interrupted prompt", ui.ErrInterrupted, ExitAborted},
		{"not found wrapped", fmt.Errorf("%w: vim", ErrPackageNotFound), ExitNotFound},
		{"ambiguous", ErrAmbiguous, ExitNotIdentified},
		{"elevation", opErr(manager.OutcomeNeedsElevation), ExitNeedsElevation},
		{"hash", opErr(manager.OutcomeHashMismatch), ExitHashMismatch},
		{"not identified", opErr(manager.OutcomeNotIdentified), ExitNotIdentified},
		{"cancelled", opErr(manager.OutcomeCancelled), ExitCancelled},
		{"failure", opErr(manager.OutcomeFailure), ExitError},
		{"wrapped operation", fmt.Errorf("Git.Git: %w", opErr(manager.OutcomeHashMismatch)), ExitHashMismatch},
		{"cancelled context", context.Canceled, ExitError},
		{"no elevation helper", fmt.Errorf("winget install: %w", executor.ErrNoPrivileges), ExitNeedsElevation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestResultError(t *testing.T) {
	assert.NoError(t, resultError(manager.Result{Outcome: manager.OutcomeSuccess}))
	assert.NoError(t, resultError(manager.Result{Outcome: manager.OutcomeNeedsRestart}))
	assert.NoError(t, resultError(manager.Result{Outcome: manager.OutcomeNoApplicableUpdate}))
	assert.NoError(t, resultError(manager.Result{Outcome: manager.OutcomeAlreadyInstalled}))

	err := resultError(manager.Result{Outcome: manager.OutcomeFailure})
	var opErr *manager.OperationError
	assert.ErrorAs(t, err, &opErr)
}
