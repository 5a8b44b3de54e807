package tui

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wingetbridge/pkg/manager"
)

// maxOutputLines bounds the lines kept for the output pane.
const maxOutputLines = 500

var (
	percentRe = regexp.MustCompile(`(\d{1,3})\s*%`)
	bytesRe   = regexp.MustCompile(`([\d.]+)\s*([KMG]?B)\s*/\s*([\d.]+)\s*([KMG]?B)`)
)

// EventBuffer collects operation events from the worker goroutine. Add never
// blocks, so a slow or closed UI cannot stall the process reader.
type EventBuffer struct {
	mu     sync.Mutex
	events []manager.Event
	notify chan struct{}
}

// NewEventBuffer creates an empty buffer.
func NewEventBuffer() *EventBuffer {
	return &EventBuffer{notify: make(chan struct{}, 1)}
}

// Add queues an event. It can be used as a manager.ProgressFunc.
func (b *EventBuffer) Add(e manager.Event) {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Drain returns and clears the queued events.
func (b *EventBuffer) Drain() []manager.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}

// Ready is signalled after Add.
func (b *EventBuffer) Ready() <-chan struct{} { return b.notify }

type (
	eventsMsg struct {
		events []manager.Event
	}

	operationDoneMsg struct {
		result manager.Result
	}
)

// waitForActivity returns the next batch of events, or the result once the
// operation has completed and the buffer is empty.
func waitForActivity(op *manager.Operation, buf *EventBuffer) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-buf.Ready():
			case <-op.Done():
			}
			// Checked before draining: every event of a finished operation
			// is already buffered.
			res, finished := op.Result()
			if events := buf.Drain(); len(events) > 0 {
				return eventsMsg{events: events}
			}
			if finished {
				return operationDoneMsg{result: res}
			}
		}
	}
}

// OperationView renders the live output of one operation: a spinner, a
// progress bar when the tool prints one, and the scrolling transcript.
type OperationView struct {
	title    string
	op       *manager.Operation
	buf      *EventBuffer
	lines    []string
	redraw   bool
	percent  float64
	result   *manager.Result
	spinner  spinner.Model
	progress progress.Model
	viewport viewport.Model
	styles   *Styles
}

// NewOperationView creates a view bound to buf. Attach the operation once it
// has been started with buf.Add as its progress callback.
func NewOperationView(title string, buf *EventBuffer, styles *Styles) *OperationView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &OperationView{
		title:    title,
		buf:      buf,
		percent:  -1,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		viewport: viewport.New(80, 10),
		styles:   styles,
	}
}

// Attach binds the running operation and returns the command that starts
// listening to it.
func (v *OperationView) Attach(op *manager.Operation) tea.Cmd {
	v.op = op
	return tea.Batch(v.spinner.Tick, waitForActivity(op, v.buf))
}

// Result returns the final result once the operation completed.
func (v *OperationView) Result() (manager.Result, bool) {
	if v.result == nil {
		return manager.Result{}, false
	}
	return *v.result, true
}

// Done reports whether the result has been received.
func (v *OperationView) Done() bool { return v.result != nil }

// Cancel kills the running operation.
func (v *OperationView) Cancel() {
	if v.op != nil && v.result == nil {
		v.op.Cancel()
	}
}

// SetSize resizes the output pane.
func (v *OperationView) SetSize(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = max(height-6, 3)
	v.progress.Width = min(max(width-4, 10), 80)
}

// Update handles operation messages and the spinner tick.
func (v *OperationView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case eventsMsg:
		for _, e := range msg.events {
			v.apply(e)
		}
		v.viewport.SetContent(v.renderLines())
		v.viewport.GotoBottom()
		return waitForActivity(v.op, v.buf)

	case operationDoneMsg:
		res := msg.result
		v.result = &res
		if res.Outcome.Succeeded() && v.percent >= 0 {
			v.percent = 1
		}
		return nil

	case spinner.TickMsg:
		if v.result != nil {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return cmd
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return cmd
}

// apply adds one event to the transcript. A line without a newline is an
// in-place redraw and replaces the previous redraw.
func (v *OperationView) apply(e manager.Event) {
	text := strings.TrimRight(e.Text, " \r")
	if p, ok := parsePercent(text); ok {
		v.percent = p
	}
	if v.redraw && len(v.lines) > 0 {
		v.lines[len(v.lines)-1] = text
	} else {
		v.lines = append(v.lines, text)
	}
	v.redraw = !e.Newline
	if len(v.lines) > maxOutputLines {
		v.lines = v.lines[len(v.lines)-maxOutputLines:]
	}
}

func (v *OperationView) renderLines() string {
	var b strings.Builder
	for i, line := range v.lines {
		style := v.styles.Output
		if i == len(v.lines)-1 {
			style = v.styles.OutputLast
		}
		b.WriteString(style.Render(line))
		if i < len(v.lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Lines returns the current transcript.
func (v *OperationView) Lines() []string { return v.lines }

// View renders the operation panel.
func (v *OperationView) View() string {
	var b strings.Builder

	if v.result == nil {
		b.WriteString(v.spinner.View() + " " + v.styles.Title.UnsetMarginBottom().Render(v.title))
	} else {
		style := v.styles.OutcomeStyle(v.result.Outcome)
		b.WriteString(style.Render(v.title + ": " + v.result.Status()))
	}
	b.WriteString("\n\n")

	if v.percent >= 0 {
		b.WriteString(v.progress.ViewAs(v.percent))
		b.WriteString(fmt.Sprintf(" %3.0f%%\n\n", v.percent*100))
	}

	b.WriteString(v.viewport.View())

	if v.result != nil && v.result.Error != "" && !v.result.Outcome.Succeeded() {
		b.WriteString("\n" + v.styles.Error.Render(v.result.Error))
	}
	return b.String()
}

// parsePercent reads a completion ratio from a progress line, either
// "45%" or "1.50 MB / 3.00 MB".
func parsePercent(line string) (float64, bool) {
	if m := bytesRe.FindStringSubmatch(line); m != nil {
		done := toBytes(m[1], m[2])
		total := toBytes(m[3], m[4])
		if total > 0 {
			return clampRatio(done / total), true
		}
	}
	if m := percentRe.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return clampRatio(float64(n) / 100), true
		}
	}
	return 0, false
}

func toBytes(n, unit string) float64 {
	f, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return 0
	}
	switch unit {
	case "KB":
		f *= 1 << 10
	case "MB":
		f *= 1 << 20
	case "GB":
		f *= 1 << 30
	}
	return f
}

func clampRatio(f float64) float64 {
	return min(max(f, 0), 1)
}

// operationModel is the standalone program behind RunOperation.
type operationModel struct {
	view  *OperationView
	keys  KeyMap
	start tea.Cmd
}

func (m *operationModel) Init() tea.Cmd { return m.start }

func (m *operationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch {
		case m.view.Done():
			return m, tea.Quit
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Cancel):
			// Keep running until the killed process reports its result.
			m.view.Cancel()
			return m, nil
		}
	}

	cmd := m.view.Update(msg)
	if m.view.Done() {
		return m, tea.Sequence(cmd, tea.Quit)
	}
	return m, cmd
}

func (m *operationModel) View() string {
	return lipgloss.NewStyle().Padding(1, 2).Render(m.view.View()) + "\n"
}

// RunOperation shows the live output of an operation in the terminal until
// it completes. start receives the progress callback to pass to the manager.
// Pressing q cancels the operation.
func RunOperation(ctx context.Context, title string, start func(progress manager.ProgressFunc) (*manager.Operation, error)) (manager.Result, error) {
	buf := NewEventBuffer()
	view := NewOperationView(title, buf, DefaultStyles())

	op, err := start(buf.Add)
	if err != nil {
		return manager.Result{}, err
	}

	model := &operationModel{view: view, keys: DefaultKeyMap(), start: view.Attach(op)}
	p := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		op.Cancel()
		return op.Wait(), err
	}
	return op.Wait(), nil
}
