// Package executor launches package manager processes and exposes their
// combined output as an ordered line stream.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// waitDelay bounds how long Wait keeps the output pipe open after the child
// exits. Installers spawned by the child can inherit the pipe and hold it.
const waitDelay = 2 * time.Second

// Command describes a single invocation of an external executable.
type Command struct {
	Path    string
	Args    []string
	Elevate bool // Prefix the argv with the elevation helper

	// ReadOnly marks queries that change nothing. They run even in dry-run
	// mode.
	ReadOnly bool
}

// String returns the command line as it would be typed.
func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// Line is one unit of child output.
type Line struct {
	Text string
	// Newline is true when the line was terminated by '\n'. Lines ended by a
	// bare '\r' are in-place redraws (progress bars) and report false.
	Newline bool
}

// Stream is a running (or finished) child process.
type Stream interface {
	// Lines yields output in production order and is closed when the
	// output pipe closes.
	Lines() <-chan Line
	// Wait blocks until the process exits and the output is drained.
	// A non-zero exit code is not an error.
	Wait() (int, error)
	// Argv returns the full argument vector that was executed.
	Argv() []string
}

// Runner starts commands. Executor is the production implementation.
type Runner interface {
	Start(ctx context.Context, cmd Command) (Stream, error)
}

// Executor handles command execution with optional elevation.
type Executor struct {
	dryRun   bool
	verbose  bool
	elevator string
	log      logrus.FieldLogger
}

// New creates a new Executor with the given options.
func New(dryRun, verbose bool) *Executor {
	return &Executor{
		dryRun:   dryRun,
		verbose:  verbose,
		elevator: DefaultElevator(),
		log:      logrus.StandardLogger(),
	}
}

// SetDryRun enables or disables dry-run mode.
func (e *Executor) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// SetVerbose enables or disables verbose mode.
func (e *Executor) SetVerbose(verbose bool) {
	e.verbose = verbose
}

// SetElevator changes the helper used for elevated commands.
func (e *Executor) SetElevator(name string) {
	if name != "" {
		e.elevator = name
	}
}

// Elevator returns the configured elevation helper.
func (e *Executor) Elevator() string {
	return e.elevator
}

// SetLogger sets the logger used for command tracing.
func (e *Executor) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		e.log = log
	}
}

// Argv builds the argument vector for cmd. When cmd.Elevate is set the
// elevation helper is prepended to the complete vector.
func Argv(elevator string, cmd Command) []string {
	argv := make([]string, 0, len(cmd.Args)+2)
	if cmd.Elevate && elevator != "" {
		argv = append(argv, elevator)
	}
	argv = append(argv, cmd.Path)
	return append(argv, cmd.Args...)
}

// argv applies elevation only when the process is not already elevated.
func (e *Executor) argv(cmd Command) []string {
	if cmd.Elevate && isElevated() {
		cmd.Elevate = false
	}
	return Argv(e.elevator, cmd)
}

// Start launches cmd with stdout and stderr merged into one stream. The child
// inherits the caller's environment and working directory. Cancelling ctx
// kills the child; no other timeout applies.
func (e *Executor) Start(ctx context.Context, cmd Command) (Stream, error) {
	argv := e.argv(cmd)

	if e.dryRun && !cmd.ReadOnly {
		e.log.WithField("argv", argv).Debug("dry-run, not executing")
		return newStaticStream(argv, 0, "[dry-run] Would execute: "+strings.Join(argv, " ")), nil
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.WaitDelay = waitDelay

	pr, pw := io.Pipe()
	c.Stdout = pw
	c.Stderr = pw

	if e.verbose {
		e.log.WithField("argv", argv).Info("executing")
	} else {
		e.log.WithField("argv", argv).Debug("executing")
	}

	if err := c.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		return nil, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	p := &Process{
		ctx:    ctx,
		argv:   argv,
		cmd:    c,
		lines:  make(chan Line),
		read:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	go func() {
		p.waitErr = c.Wait()
		close(p.exited)
		_ = pw.Close()
	}()
	go p.drain(pr)

	return p, nil
}

// Process is a Stream backed by an operating system process.
type Process struct {
	ctx    context.Context
	argv   []string
	cmd    *exec.Cmd
	lines  chan Line
	read   chan struct{}
	exited chan struct{}

	once     sync.Once
	waitErr  error
	exitCode int
	err      error
}

// Lines implements Stream.
func (p *Process) Lines() <-chan Line {
	return p.lines
}

// Argv implements Stream.
func (p *Process) Argv() []string {
	return p.argv
}

// Wait implements Stream.
func (p *Process) Wait() (int, error) {
	p.once.Do(func() {
		// Keep the reader moving if nobody consumes lines.
		go func() {
			for range p.lines {
			}
		}()
		<-p.read
		<-p.exited
		p.exitCode, p.err = exitStatus(p.cmd, p.waitErr)
		if p.err == nil && p.ctx.Err() != nil {
			p.err = p.ctx.Err()
		}
	})
	return p.exitCode, p.err
}

func (p *Process) drain(r *io.PipeReader) {
	defer close(p.read)
	defer close(p.lines)

	br := bufio.NewReader(r)
	for {
		text, newline, err := readLine(br)
		if err != nil && text != "" {
			// Output ended without a trailing newline.
			newline = true
		}
		if text != "" || newline {
			p.lines <- Line{Text: strings.ToValidUTF8(text, ""), Newline: newline}
		}
		if err != nil {
			_ = r.Close()
			return
		}
	}
}

// readLine reads up to the next '\n' or '\r'. "\r\n" counts as one newline,
// so after a '\r' it waits for the next byte even when a read boundary falls
// between the two. A '\r' that ends the output also terminates a line.
func readLine(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return string(buf), false, err
		}
		switch b {
		case '\n':
			return string(buf), true, nil
		case '\r':
			next, err := r.Peek(1)
			if err != nil {
				return string(buf), true, nil
			}
			if next[0] == '\n' {
				_, _ = r.ReadByte()
				return string(buf), true, nil
			}
			return string(buf), false, nil
		default:
			buf = append(buf, b)
		}
	}
}

func exitStatus(cmd *exec.Cmd, waitErr error) (int, error) {
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}

	if waitErr == nil {
		return code, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		return code, nil
	}
	return code, waitErr
}

// staticStream replays fixed output. Used for dry runs.
type staticStream struct {
	argv  []string
	lines chan Line
	code  int
}

func newStaticStream(argv []string, code int, output ...string) *staticStream {
	s := &staticStream{argv: argv, code: code, lines: make(chan Line, len(output))}
	for _, l := range output {
		s.lines <- Line{Text: l, Newline: true}
	}
	close(s.lines)
	return s
}

func (s *staticStream) Lines() <-chan Line { return s.lines }
func (s *staticStream) Argv() []string     { return s.argv }

func (s *staticStream) Wait() (int, error) {
	for range s.lines {
	}
	return s.code, nil
}

// Output runs cmd to completion and returns its newline-joined output.
func Output(ctx context.Context, r Runner, cmd Command) (string, int, error) {
	stream, err := r.Start(ctx, cmd)
	if err != nil {
		return "", -1, err
	}

	var sb strings.Builder
	for line := range stream.Lines() {
		if !line.Newline {
			continue
		}
		sb.WriteString(line.Text)
		sb.WriteByte('\n')
	}

	code, err := stream.Wait()
	return sb.String(), code, err
}
