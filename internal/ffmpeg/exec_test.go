package ffmpeg

// Notes:
// - Executor tests inject runFn; only defaultRun touches real processes (sh).
// - Tool tests record the argument vectors instead of running ffmpeg.

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
)

// recordingRun captures every invocation and answers with a canned Output.
type recordingRun struct {
	calls [][]string
	paths []string
	out   Output
	err   error
}

func (r *recordingRun) run(_ context.Context, path string, args []string) (Output, error) {
	r.paths = append(r.paths, path)
	r.calls = append(r.calls, append([]string(nil), args...))
	return r.out, r.err
}

func TestExecutor_Run(t *testing.T) {
	t.Parallel()

	t.Run("success returns output", func(t *testing.T) {
		t.Parallel()
		rec := &recordingRun{out: Output{Stdout: []byte("{}")}}
		e := NewExecutor(WithRunFunc(rec.run))

		out, err := e.Run(context.Background(), "/usr/bin/ffprobe", []string{"-v", "error"})
		if err != nil {
			t.Fatalf("Run() unexpected error: %v", err)
		}
		if string(out.Stdout) != "{}" {
			t.Errorf("Stdout = %q, want {}", out.Stdout)
		}
	})

	t.Run("failure wraps ErrCommandFailed with stderr tail", func(t *testing.T) {
		t.Parallel()
		stderr := "line1\nline2\nline3\nline4\nline5\nNo such filter: 'rubberband'"
		rec := &recordingRun{out: Output{Stderr: []byte(stderr)}, err: errors.New("exit status 1")}
		e := NewExecutor(WithRunFunc(rec.run))

		_, err := e.Run(context.Background(), "ffmpeg", nil)
		if !errors.Is(err, ErrCommandFailed) {
			t.Fatalf("Run() error = %v, want ErrCommandFailed", err)
		}
		if !strings.Contains(err.Error(), "No such filter") {
			t.Errorf("error %q does not include stderr tail", err)
		}
		if strings.Contains(err.Error(), "line1") {
			t.Errorf("error %q includes more than the stderr tail", err)
		}
	})

	t.Run("cancelled context returns ctx error", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rec := &recordingRun{err: errors.New("signal: killed")}
		e := NewExecutor(WithRunFunc(rec.run))

		_, err := e.Run(ctx, "ffmpeg", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	})
}

func TestDefaultRun_RealCommand(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	out, err := defaultRun(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"})
	if err != nil {
		t.Fatalf("defaultRun() unexpected error: %v", err)
	}
	if strings.TrimSpace(string(out.Stdout)) != "out" {
		t.Errorf("Stdout = %q, want out", out.Stdout)
	}
	if strings.TrimSpace(string(out.Stderr)) != "err" {
		t.Errorf("Stderr = %q, want err", out.Stderr)
	}
}

func TestDefaultRun_NonexistentCommand(t *testing.T) {
	t.Parallel()

	if _, err := defaultRun(context.Background(), "/nonexistent/ffmpeg", nil); err == nil {
		t.Error("defaultRun(/nonexistent/ffmpeg) error = nil, want error")
	}
}
