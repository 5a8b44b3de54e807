package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"wingetbridge/pkg/manager"
)

func captureMessages(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	noColor(t)
	prevMsg, prevProb := Messages, Problems
	var msg, prob bytes.Buffer
	Messages, Problems = &msg, &prob
	t.Cleanup(func() { Messages, Problems = prevMsg, prevProb })
	return &msg, &prob
}

func TestMessagesAndProblemsAreSeparated(t *testing.T) {
	msg, prob := captureMessages(t)
	Init(false, false)
	t.Cleanup(func() { Init(false, true) })

	SuccessMsg("installed %s", "Git.Git")
	WarningMsg("dropping %s", "architecture")
	ErrorMsg("failed")

	assert.Equal(t, "[OK] installed Git.Git\n", msg.String())
	assert.Equal(t, "[WARN] dropping architecture\n[ERROR] failed\n", prob.String())
}

func TestOutcomeMsg(t *testing.T) {
	msg, prob := captureMessages(t)
	Init(false, true)

	OutcomeMsg(manager.OutcomeNeedsRestart, "done")
	OutcomeMsg(manager.OutcomeNoApplicableUpdate, "nothing")
	OutcomeMsg(manager.OutcomeHashMismatch, "bad")

	assert.Equal(t, "✓ done\n", msg.String())
	assert.Equal(t, "! nothing\n✗ bad\n", prob.String())
}
