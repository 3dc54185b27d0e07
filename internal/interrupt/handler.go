// Package interrupt turns SIGINT/SIGTERM into context cancellation.
//
// The first signal cancels the run context so stages stop and temporary
// files are removed on the way out. A second signal within a short window
// exits the process immediately, after running the cleanups registered with
// OnForceExit.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// forceWindow is the time window in which a second signal forces exit.
const forceWindow = 2 * time.Second

const (
	stoppingMessage = "\nStopping, cleaning up temporary files (press Ctrl+C again to quit now)..."
	forceMessage    = "\nAborted."
)

// Handler cancels a context on the first signal and force-exits on a quick
// second one.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	stopped        bool
	cancelFunc     context.CancelFunc
	done           chan struct{}

	cleanups    map[int]func()
	nextCleanup int

	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr must be safe for concurrent writes.
	Stderr io.Writer
}

// NewHandler creates a handler that listens for SIGINT/SIGTERM.
// The returned context is canceled on the first signal.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return newHandler(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions creates a handler with injectable dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	return newHandler(parent, opts)
}

func newHandler(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancelFunc: cancel,
		done:       make(chan struct{}),
		cleanups:   make(map[int]func()),
		exitFunc:   opts.ExitFunc,
		nowFunc:    opts.NowFunc,
		stderr:     opts.Stderr,
	}
	if h.exitFunc == nil {
		h.exitFunc = os.Exit
	}
	if h.nowFunc == nil {
		h.nowFunc = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}

	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}

			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				return
			}
			now := h.nowFunc()

			if !h.interrupted {
				h.interrupted = true
				h.firstInterrupt = now
				h.cancelFunc()
				h.mu.Unlock()
				fmt.Fprintln(h.stderr, stoppingMessage)
				continue
			}

			if now.Sub(h.firstInterrupt) <= forceWindow {
				cleanups := h.pendingCleanups()
				h.mu.Unlock()
				fmt.Fprintln(h.stderr, forceMessage)
				for _, fn := range cleanups {
					fn()
				}
				h.exitFunc(ExitInterrupt)
				return // exitFunc returns in tests
			}

			// Late second signal: restart the window.
			h.firstInterrupt = now
			h.mu.Unlock()
			fmt.Fprintln(h.stderr, stoppingMessage)
		}
	}
}

// WasInterrupted reports whether at least one signal was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// OnForceExit registers fn to run before a forced exit, when deferred calls
// no longer get the chance to. The returned release unregisters fn and must be
// called once the resource fn cleans up is gone.
func (h *Handler) OnForceExit(fn func()) (release func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextCleanup
	h.nextCleanup++
	h.cleanups[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.cleanups, id)
	}
}

// pendingCleanups returns registered cleanups, latest first. Callers hold h.mu.
func (h *Handler) pendingCleanups() []func() {
	ids := make([]int, 0, len(h.cleanups))
	for id := range h.cleanups {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	slices.Reverse(ids)
	fns := make([]func(), len(ids))
	for i, id := range ids {
		fns[i] = h.cleanups[id]
	}
	return fns
}

// Stop releases the signal listener. It is safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	h.cancelFunc()
	close(h.done)
}
