package winget

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wingetbridge/pkg/manager"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, "0x0", Classify(0))
	assert.Equal(t, "0x8a150011:APPINSTALLER_CLI_ERROR_INSTALLER_HASH_MISMATCH", Classify(CodeInstallerHashMismatch))
	assert.Contains(t, Classify(CodeInstallerHashMismatch), "INSTALLER_HASH_MISMATCH")
	assert.Equal(t, "0x1", Classify(1))
	assert.Equal(t, "0x8a15ffff", Classify(0x8A15FFFF))
}

func TestClassifyNegativeCode(t *testing.T) {
	// Exit codes may arrive sign-extended.
	code := uint32(CodeRebootRequiredToFinish)
	assert.Equal(t, Classify(int(code)), Classify(int(int32(code))))
}

func TestSymbol(t *testing.T) {
	sym, ok := Symbol(CodeUpdateNotApplicable)
	assert.True(t, ok)
	assert.Equal(t, "APPINSTALLER_CLI_ERROR_UPDATE_NOT_APPLICABLE", sym)

	_, ok = Symbol(42)
	assert.False(t, ok)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name   string
		intent manager.Intent
		code   int
		output string
		want   manager.Outcome
	}{
		{"success", manager.IntentInstall, 0, "Successfully installed\n", manager.OutcomeSuccess},
		{"no applicable upgrade on success code", manager.IntentUpdate, 0, "No applicable upgrade found.\n", manager.OutcomeNoApplicableUpdate},
		{"no applicable upgrade on error code", manager.IntentUpdate, CodeUpdateNotApplicable, "No applicable upgrade found.\n", manager.OutcomeNoApplicableUpdate},
		{"no newer versions", manager.IntentUpdate, 1, "No newer package versions are available from the configured sources.\n", manager.OutcomeNoApplicableUpdate},
		{"uninstall access denied", manager.IntentUninstall, 1, "Uninstall failed with exit code: 1603\n", manager.OutcomeNeedsElevation},
		{"install 1603 is a failure", manager.IntentInstall, 1603, "Installer failed with exit code: 1603\n", manager.OutcomeFailure},
		{"already installed", manager.IntentInstall, 1, "Found an existing package already installed.\n", manager.OutcomeAlreadyInstalled},
		{"already installed then upgraded", manager.IntentInstall, 0, "Found an existing package already installed. Trying to upgrade...\nSuccessfully installed\n", manager.OutcomeSuccess},
		{"hash mismatch", manager.IntentInstall, CodeInstallerHashMismatch, "", manager.OutcomeHashMismatch},
		{"reboot required", manager.IntentInstall, CodeRebootRequiredToFinish, "", manager.OutcomeNeedsRestart},
		{"admin required", manager.IntentInstall, CodeCommandRequiresAdmin, "", manager.OutcomeNeedsElevation},
		{"multiple packages", manager.IntentInstall, CodeMultipleAppsFound, "", manager.OutcomeNotIdentified},
		{"unknown code", manager.IntentInstall, 0x12345, "", manager.OutcomeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpret(tt.intent, tt.code, tt.output))
		})
	}
}
