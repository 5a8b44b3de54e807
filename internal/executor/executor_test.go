//go:build !windows

package executor

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, s Stream) []Line {
	t.Helper()
	var lines []Line
	for l := range s.Lines() {
		lines = append(lines, l)
	}
	return lines
}

func TestArgv(t *testing.T) {
	cmd := Command{Path: "winget", Args: []string{"install", "--id", "Git.Git"}}
	assert.Equal(t, []string{"winget", "install", "--id", "Git.Git"}, Argv("gsudo", cmd))

	cmd.Elevate = true
	assert.Equal(t, []string{"gsudo", "winget", "install", "--id", "Git.Git"}, Argv("gsudo", cmd))
	assert.Equal(t, []string{"winget", "install", "--id", "Git.Git"}, Argv("", cmd))
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "winget source list", Command{Path: "winget", Args: []string{"source", "list"}}.String())
	assert.Equal(t, "winget", Command{Path: "winget"}.String())
}

func TestStartLineSplitting(t *testing.T) {
	e := New(false, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := e.Start(ctx, Command{Path: "sh", Args: []string{"-c", `printf 'one\n 10%%\r 50%%\rtwo\r\nthree'`}})
	require.NoError(t, err)

	lines := collect(t, s)
	code, err := s.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	assert.Equal(t, []Line{
		{Text: "one", Newline: true},
		{Text: " 10%", Newline: false},
		{Text: " 50%", Newline: false},
		{Text: "two", Newline: true},
		{Text: "three", Newline: true},
	}, lines)
}

func TestReadLineCRLFAcrossReads(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte("Git  Git.Git  2.43.0  winget\r"))
		_, _ = pw.Write([]byte("\n 40%\r"))
		_, _ = pw.Write([]byte(" 80%\rnext\r"))
		_ = pw.Close()
	}()
	br := bufio.NewReader(pr)

	var got []Line
	for {
		text, newline, err := readLine(br)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			assert.Empty(t, text)
			break
		}
		got = append(got, Line{Text: text, Newline: newline})
	}

	assert.Equal(t, []Line{
		{Text: "Git  Git.Git  2.43.0  winget", Newline: true},
		{Text: " 40%", Newline: false},
		{Text: " 80%", Newline: false},
		{Text: "next", Newline: true},
	}, got)
}

func TestStartMergesStderr(t *testing.T) {
	e := New(false, false)
	out, code, err := Output(context.Background(), e, Command{Path: "sh", Args: []string{"-c", "echo out; echo err 1>&2"}})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "out\n")
	assert.Contains(t, out, "err\n")
}

func TestNonZeroExitIsNotAnError(t *testing.T) {
	e := New(false, false)
	s, err := e.Start(context.Background(), Command{Path: "sh", Args: []string{"-c", "exit 3"}})
	require.NoError(t, err)

	code, err := s.Wait()
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestWaitWithoutReadingLines(t *testing.T) {
	e := New(false, false)
	s, err := e.Start(context.Background(), Command{Path: "sh", Args: []string{"-c", "seq 1 500"}})
	require.NoError(t, err)

	code, err := s.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestStartMissingExecutable(t *testing.T) {
	e := New(false, false)
	_, err := e.Start(context.Background(), Command{Path: "definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
}

func TestCancelKillsChild(t *testing.T) {
	e := New(false, false)
	ctx, cancel := context.WithCancel(context.Background())

	s, err := e.Start(ctx, Command{Path: "sleep", Args: []string{"30"}})
	require.NoError(t, err)

	start := time.Now()
	cancel()
	_, err = s.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestDryRun(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	e := New(true, false)
	e.SetLogger(logger)

	s, err := e.Start(context.Background(), Command{Path: "winget", Args: []string{"upgrade", "--id", "X"}})
	require.NoError(t, err)

	lines := collect(t, s)
	require.Len(t, lines, 1)
	assert.Equal(t, "[dry-run] Would execute: winget upgrade --id X", lines[0].Text)

	code, err := s.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "dry-run, not executing", hook.LastEntry().Message)
}

func TestDryRunExecutesReadOnly(t *testing.T) {
	e := New(true, false)
	out, code, err := Output(context.Background(), e, Command{Path: "sh", Args: []string{"-c", "echo listed"}, ReadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "listed\n", out)
}

func TestOutputSkipsRedraws(t *testing.T) {
	e := New(false, false)
	out, _, err := Output(context.Background(), e, Command{Path: "sh", Args: []string{"-c", `printf 'a\rb\n'`}})
	require.NoError(t, err)
	assert.Equal(t, "b\n", out)
}
