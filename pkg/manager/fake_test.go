package manager

import (
	"context"
	"errors"
	"sync"

	"wingetbridge/internal/executor"
)

// fakeRunner replays canned output. When block is set, the stream stays
// open until the context is cancelled.
type fakeRunner struct {
	mu    sync.Mutex
	lines []executor.Line
	code  int
	block bool
	err   error
	calls []executor.Command
}

func (f *fakeRunner) Start(ctx context.Context, cmd executor.Command) (executor.Stream, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	s := &fakeStream{argv: executor.Argv("gsudo", cmd), lines: make(chan executor.Line), done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer close(s.lines)
		for _, l := range f.lines {
			select {
			case s.lines <- l:
			case <-ctx.Done():
				s.code = -1
				return
			}
		}
		if f.block {
			<-ctx.Done()
			s.code = -1
			return
		}
		s.code = f.code
	}()
	return s, nil
}

func (f *fakeRunner) Calls() []executor.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]executor.Command(nil), f.calls...)
}

type fakeStream struct {
	argv  []string
	lines chan executor.Line
	done  chan struct{}
	code  int
}

func (s *fakeStream) Lines() <-chan executor.Line { return s.lines }
func (s *fakeStream) Argv() []string              { return s.argv }

func (s *fakeStream) Wait() (int, error) {
	for range s.lines {
	}
	<-s.done
	return s.code, nil
}

var errSpawn = errors.New("exec: \"winget\": executable file not found")

func lines(texts ...string) []executor.Line {
	out := make([]executor.Line, len(texts))
	for i, t := range texts {
		out[i] = executor.Line{Text: t, Newline: true}
	}
	return out
}
