package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Output holds the captured streams of one ffmpeg/ffprobe invocation.
// ffmpeg writes diagnostics to stderr; ffprobe writes its JSON to stdout.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// runFn runs a binary and captures both output streams.
type runFn func(ctx context.Context, path string, args []string) (Output, error)

// Executor runs ffmpeg commands with injectable dependencies.
type Executor struct {
	run runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunFunc sets a custom run function (for testing).
func WithRunFunc(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{run: defaultRun}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes path with args. A non-zero exit is wrapped in ErrCommandFailed
// together with the tail of stderr, which is where ffmpeg explains itself.
func (e *Executor) Run(ctx context.Context, path string, args []string) (Output, error) {
	out, err := e.run(ctx, path, args)
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, fmt.Errorf("%w: %v: %s", ErrCommandFailed, err, stderrTail(out.Stderr))
	}
	return out, nil
}

// defaultRun is the production implementation.
func defaultRun(ctx context.Context, path string, args []string) (Output, error) {
	// #nosec G204 -- binary is resolved by Resolver, args are built by this package
	cmd := exec.CommandContext(ctx, path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}

// maxStderrLines bounds how much ffmpeg chatter ends up in an error message.
const maxStderrLines = 5

func stderrTail(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	if len(lines) > maxStderrLines {
		lines = lines[len(lines)-maxStderrLines:]
	}
	return strings.Join(lines, "\n")
}
