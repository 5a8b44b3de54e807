package manager

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"wingetbridge/internal/executor"
	"wingetbridge/internal/metrics"
)

// ErrNotIdentified is returned by a Prepare step when the target package
// cannot be addressed unambiguously.
var ErrNotIdentified = errors.New("package could not be uniquely identified")

// State is the lifecycle stage of an Operation.
type State int32

const (
	StateStarting State = iota
	StateStreaming
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Event is one line of progress. Newline is false for in-place redraws such
// as progress bars; observers can use it to recombine wrapped output.
type Event struct {
	Text    string `json:"text"`
	Newline bool   `json:"newline"`
	Count   int    `json:"count"`
}

// ProgressFunc receives events in production order from the operation's
// worker goroutine. It must not block for long.
type ProgressFunc func(Event)

// Result is the terminal state of an Operation, delivered once.
type Result struct {
	ID       string        `json:"id"`
	Intent   Intent        `json:"intent"`
	Package  Package       `json:"package"`
	Outcome  Outcome       `json:"outcome"`
	ExitCode int           `json:"exit_code"`
	ExitText string        `json:"exit_text"`
	Output   string        `json:"output"`
	Lines    int           `json:"lines"`
	Duration time.Duration `json:"duration"`
	Command  []string      `json:"command"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// Status is a one-line human readable summary.
func (r Result) Status() string {
	msg := fmt.Sprintf("%s %s", r.Intent, r.Outcome.Message())
	if r.ExitText != "" && !r.Outcome.Succeeded() {
		msg += " (" + r.ExitText + ")"
	}
	return msg
}

// OperationSpec describes what an Operation runs and how its exit status is
// interpreted.
type OperationSpec struct {
	Intent  Intent
	Package Package
	Command executor.Command

	// Prepare, when set, runs on the worker before the process starts and
	// returns the command to execute. Returning ErrNotIdentified completes
	// the operation with OutcomeNotIdentified without spawning anything.
	Prepare func(ctx context.Context) (executor.Command, error)

	// Interpret maps the exit code and captured output to an outcome.
	// Defaults to success on zero and failure otherwise.
	Interpret func(code int, output string) Outcome

	// Classify renders the exit code for display. Defaults to hex.
	Classify func(code int) string

	Progress ProgressFunc
	Log      logrus.FieldLogger
}

var operationSeq atomic.Uint64

// Operation is a running child process for one intent. It is created by
// StartOperation and finishes exactly once.
type Operation struct {
	id     string
	spec   OperationSpec
	cancel context.CancelFunc
	state  atomic.Int32
	done   chan struct{}
	result Result
}

// StartOperation launches spec on runner in a new worker goroutine and
// returns immediately. Cancelling ctx or calling Cancel kills the process.
func StartOperation(ctx context.Context, runner executor.Runner, spec OperationSpec) *Operation {
	if spec.Interpret == nil {
		spec.Interpret = defaultInterpret
	}
	if spec.Classify == nil {
		spec.Classify = func(code int) string { return fmt.Sprintf("%#x", uint32(code)) }
	}
	if spec.Progress == nil {
		spec.Progress = func(Event) {}
	}
	if spec.Log == nil {
		spec.Log = logrus.StandardLogger()
	}

	ctx, cancel := context.WithCancel(ctx)
	op := &Operation{
		id:     "op-" + strconv.FormatUint(operationSeq.Add(1), 10),
		spec:   spec,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go op.run(ctx, runner)
	return op
}

func defaultInterpret(code int, _ string) Outcome {
	if code == 0 {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// ID identifies the operation within this process.
func (o *Operation) ID() string { return o.id }

// Intent returns the operation's intent.
func (o *Operation) Intent() Intent { return o.spec.Intent }

// Package returns the target package, if any.
func (o *Operation) Package() Package { return o.spec.Package }

// State returns the current lifecycle stage.
func (o *Operation) State() State { return State(o.state.Load()) }

// Cancel kills the underlying process. The operation completes with
// OutcomeCancelled.
func (o *Operation) Cancel() { o.cancel() }

// Done is closed when the result is available.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Wait blocks until the operation completes and returns its result.
func (o *Operation) Wait() Result {
	<-o.done
	return o.result
}

// Result returns the result if the operation has completed.
func (o *Operation) Result() (Result, bool) {
	select {
	case <-o.done:
		return o.result, true
	default:
		return Result{}, false
	}
}

func (o *Operation) run(ctx context.Context, runner executor.Runner) {
	start := time.Now()
	res := Result{ID: o.id, Intent: o.spec.Intent, Package: o.spec.Package, ExitCode: -1}
	log := o.spec.Log.WithFields(logrus.Fields{"op": o.id, "intent": o.spec.Intent})

	defer func() {
		res.Duration = time.Since(start)
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		o.result = res
		o.state.Store(int32(StateCompleted))
		o.cancel()
		close(o.done)

		metrics.ObserveOperation(string(res.Intent), res.Outcome.String(), res.Duration)
		log.WithFields(logrus.Fields{
			"outcome": res.Outcome,
			"exit":    res.ExitText,
			"lines":   res.Lines,
		}).Debug("operation completed")
	}()

	cmd := o.spec.Command
	if o.spec.Prepare != nil {
		prepared, err := o.spec.Prepare(ctx)
		switch {
		case ctx.Err() != nil:
			res.Outcome = OutcomeCancelled
			res.Err = ctx.Err()
			return
		case errors.Is(err, ErrNotIdentified):
			res.Outcome = OutcomeNotIdentified
			res.Err = err
			return
		case err != nil:
			res.Outcome = OutcomeFailure
			res.Err = err
			return
		}
		cmd = prepared
	}

	stream, err := runner.Start(ctx, cmd)
	if err != nil {
		res.Outcome = OutcomeFailure
		res.Err = err
		res.Command = executor.Argv("", cmd)
		return
	}
	res.Command = stream.Argv()
	o.state.Store(int32(StateStreaming))

	var transcript strings.Builder
	for line := range stream.Lines() {
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		res.Lines++
		o.spec.Progress(Event{Text: line.Text, Newline: line.Newline, Count: res.Lines})
		if line.Newline {
			transcript.WriteString(line.Text)
			transcript.WriteByte('\n')
		}
	}

	code, waitErr := stream.Wait()
	res.ExitCode = code
	res.ExitText = o.spec.Classify(code)
	res.Output = transcript.String()

	if ctx.Err() != nil {
		res.Outcome = OutcomeCancelled
		res.Err = ctx.Err()
		return
	}
	if waitErr != nil {
		res.Err = waitErr
	}
	res.Outcome = o.spec.Interpret(code, res.Output)
}

// OperationError carries a non-successful Result as an error.
type OperationError struct {
	Result Result
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	name := e.Result.Package.ID
	if name == "" {
		name = e.Result.Package.Name
	}
	if name == "" {
		return e.Result.Status()
	}
	return fmt.Sprintf("%s: %s", name, e.Result.Status())
}

// Unwrap returns the underlying process error, if any.
func (e *OperationError) Unwrap() error {
	return e.Result.Err
}

// AsError returns nil for a successful result and an *OperationError
// otherwise.
func (r Result) AsError() error {
	if r.Outcome.Succeeded() {
		return nil
	}
	return &OperationError{Result: r}
}
