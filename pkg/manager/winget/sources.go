package winget

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"wingetbridge/internal/executor"
	"wingetbridge/internal/metrics"
	"wingetbridge/pkg/manager"
)

// sourceTable parses the output of "winget source list".
type sourceTable struct {
	argOffset int
	header    bool
	dashes    bool
	sources   []manager.ManagerSource
}

func (t *sourceTable) Feed(e manager.Event) {
	if !e.Newline {
		return
	}
	line := e.Text
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	if !t.dashes {
		h := CleanHeader(line)
		if !t.header && strings.Contains(h, "Name") && strings.Contains(h, "Argument") {
			t.header = true
			t.argOffset = utf8.RuneCountInString(h[:strings.Index(h, "Argument")])
			return
		}
		t.dashes = strings.HasPrefix(trimmed, "---")
		return
	}

	name, url := t.split(line)
	if name == "" || url == "" {
		return
	}
	t.sources = append(t.sources, manager.ManagerSource{Name: name, URL: url, Manager: Name})
}

// split cuts the line at the Argument column, or at whitespace when the
// header was not seen or the name overflows the column.
func (t *sourceTable) split(line string) (string, string) {
	runes := []rune(line)
	if t.header && t.argOffset > 0 && t.argOffset < len(runes) && runes[t.argOffset-1] == ' ' {
		name := strings.Fields(string(runes[:t.argOffset]))
		url := strings.Fields(string(runes[t.argOffset:]))
		if len(name) == 1 && len(url) > 0 {
			return name[0], url[0]
		}
	}
	f := strings.Fields(line)
	if len(f) < 2 {
		return "", ""
	}
	return f[0], f[1]
}

// ListSources returns the sources winget is configured with.
func (w *Winget) ListSources(ctx context.Context) ([]manager.ManagerSource, error) {
	table := &sourceTable{}
	op := manager.StartOperation(ctx, w.Runner(), manager.OperationSpec{
		Intent:   manager.IntentSourceList,
		Command:  executor.Command{Path: w.Binary(), Args: []string{"source", "list"}, ReadOnly: true},
		Classify: Classify,
		Progress: table.Feed,
		Log:      w.log,
	})
	res := op.Wait()
	if res.Err != nil {
		return nil, fmt.Errorf("winget source list: %w", res.Err)
	}
	if res.ExitCode != 0 {
		w.log.WithField("exit", res.ExitText).Warn("source list exited with an error")
	}
	return table.sources, nil
}

// RefreshSources rebuilds the registry from the current source list. An
// empty listing falls back to the default catalogues.
func (w *Winget) RefreshSources(ctx context.Context) error {
	sources, err := w.ListSources(ctx)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		sources = w.Capabilities().KnownSources
	}
	gen := w.sources.Replace(sources)
	metrics.SetSourcesRegistered(w.sources.Len())
	w.log.WithField("generation", gen).Debugf("registered %d sources", w.sources.Len())
	return nil
}

// AddSource starts an elevated "source add". Callers refresh the registry
// once the operation succeeds.
func (w *Winget) AddSource(ctx context.Context, src manager.ManagerSource, progress manager.ProgressFunc) (*manager.Operation, error) {
	if src.Name == "" || src.URL == "" {
		return nil, fmt.Errorf("source needs a name and a url")
	}
	args := []string{"source", "add", "--name", src.Name, "--arg", src.URL, flagAcceptSource, "--disable-interactivity"}
	return w.sourceOperation(ctx, manager.IntentSourceAdd, src, args, progress)
}

// RemoveSource starts an elevated "source remove".
func (w *Winget) RemoveSource(ctx context.Context, src manager.ManagerSource, progress manager.ProgressFunc) (*manager.Operation, error) {
	if src.Name == "" {
		return nil, fmt.Errorf("source needs a name")
	}
	args := []string{"source", "remove", "--name", src.Name, "--disable-interactivity"}
	return w.sourceOperation(ctx, manager.IntentSourceRemove, src, args, progress)
}

func (w *Winget) sourceOperation(ctx context.Context, intent manager.Intent, src manager.ManagerSource, args []string, progress manager.ProgressFunc) (*manager.Operation, error) {
	cmd := executor.Command{Path: w.Binary(), Args: args, Elevate: true}
	if err := w.checkPrivileges(cmd); err != nil {
		return nil, fmt.Errorf("winget %s: %w", intent, err)
	}
	w.log.WithField("source", src.Name).WithField("command", cmd.String()).Info("starting source operation")
	return manager.StartOperation(ctx, w.Runner(), manager.OperationSpec{
		Intent:   intent,
		Package:  manager.Package{Name: src.Name, Source: Label + ": " + src.Name, Manager: Name},
		Command:  cmd,
		Classify: Classify,
		Progress: progress,
		Log:      w.log,
	}), nil
}

// UpdateSourceCatalogs runs "source update" and then refreshes the registry.
func (w *Winget) UpdateSourceCatalogs(ctx context.Context, progress manager.ProgressFunc) (manager.Result, error) {
	op := manager.StartOperation(ctx, w.Runner(), manager.OperationSpec{
		Intent:   manager.IntentSourceList,
		Command:  executor.Command{Path: w.Binary(), Args: []string{"source", "update"}},
		Classify: Classify,
		Progress: progress,
		Log:      w.log,
	})
	res := op.Wait()
	if res.Err != nil {
		return res, fmt.Errorf("winget source update: %w", res.Err)
	}
	return res, w.RefreshSources(ctx)
}
