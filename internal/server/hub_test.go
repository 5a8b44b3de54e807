package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wingetbridge/internal/executor"
	"wingetbridge/pkg/manager"
)

func TestTrackedReplay(t *testing.T) {
	tr := newTracked()
	_, notify := tr.since(0)

	tr.add(manager.Event{Text: "one", Newline: true})
	select {
	case <-notify:
	default:
		t.Fatal("add did not wake waiters")
	}

	tr.add(manager.Event{Text: "two", Newline: true})
	events, _ := tr.since(0)
	require.Len(t, events, 2)
	assert.Equal(t, "one", events[0].Text)

	events, _ = tr.since(1)
	require.Len(t, events, 1)
	assert.Equal(t, "two", events[0].Text)

	events, _ = tr.since(5)
	assert.Empty(t, events)
}

func TestHubStart(t *testing.T) {
	results := make(chan manager.Result, 2)
	h := NewHub(func(res manager.Result) { results <- res })

	runner := executor.New(true, false)
	tr, err := h.Start(func(progress manager.ProgressFunc) (*manager.Operation, error) {
		return manager.StartOperation(context.Background(), runner, manager.OperationSpec{
			Intent:   manager.IntentUninstall,
			Package:  manager.Package{ID: "Git.Git"},
			Command:  executor.Command{Path: "winget", Args: []string{"uninstall", "--id", "Git.Git"}},
			Progress: progress,
		}), nil
	}, func(res manager.Result) { results <- res })
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case res := <-results:
			assert.Equal(t, manager.OutcomeSuccess, res.Outcome)
		case <-time.After(5 * time.Second):
			t.Fatal("completion hook not called")
		}
	}

	got, ok := h.Get(tr.op.ID())
	require.True(t, ok)
	view := got.View()
	assert.Equal(t, 1, view.Events)
	require.NotNil(t, view.Result)
	assert.Empty(t, h.Running())
	assert.Len(t, h.List(), 1)
}

func TestHubStartError(t *testing.T) {
	h := NewHub()
	_, err := h.Start(func(manager.ProgressFunc) (*manager.Operation, error) {
		return nil, errors.New("package has neither id nor name")
	})
	require.Error(t, err)
	assert.Empty(t, h.List())
}
