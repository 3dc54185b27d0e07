// Package pipeline runs a dubbing job end to end: extract the soundtrack,
// transcribe it, translate through a pivot language, synthesize speech in the
// target language, match its duration to the video and mux it back in.
//
// Stages run one after another. Transcription and machine translation degrade
// instead of failing (an empty transcript, an untranslated text); extraction,
// synthesis and muxing are fatal. All intermediate files live in one workspace
// directory that is removed when Run returns.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insee-t/tt/internal/align"
	"github.com/insee-t/tt/internal/format"
	"github.com/insee-t/tt/internal/lang"
	"github.com/insee-t/tt/internal/synth"
	"github.com/insee-t/tt/internal/tempo"
	"github.com/insee-t/tt/internal/transcribe"
	"github.com/insee-t/tt/internal/translate"
)

// Workspace file names.
const (
	extractedAudioName = "audio.wav"
	speechName         = "speech.mp3"
)

// MediaTool extracts, probes and muxes media files.
type MediaTool interface {
	ExtractAudio(ctx context.Context, video, out string) error
	Duration(ctx context.Context, path string) (float64, error)
	Mux(ctx context.Context, video, audio, out string) error
}

// Adjuster matches the duration of a speech track to a reference.
type Adjuster interface {
	Adjust(ctx context.Context, track string, reference tempo.Duration) align.Outcome
}

// Compile-time interface verification.
var _ Adjuster = (*align.Adjuster)(nil)

// Stages holds the collaborators of a run.
type Stages struct {
	Media       MediaTool
	Transcriber transcribe.Transcriber
	Translator  translate.Translator
	Synthesizer synth.Synthesizer
	Adjuster    Adjuster
}

// Languages is the language triple of a run.
type Languages struct {
	Source lang.Code
	Pivot  lang.Code
	Target lang.Code
}

// DefaultLanguages dubs Chinese into Thai through English.
var DefaultLanguages = Languages{Source: lang.Chinese, Pivot: lang.English, Target: lang.Thai}

// Request describes one run.
type Request struct {
	Input  string
	Output string
	// ManualTranslationFile, when set and present, replaces machine
	// translation into the target language.
	ManualTranslationFile string
}

// Driver runs dubbing jobs.
type Driver struct {
	stages   Stages
	langs    Languages
	logger   *slog.Logger
	progress io.Writer
	tempDir  string
	fs       fileSystem
	newLock  func(path string) tryLocker
	newID    func() string
	now      func() time.Time
	exits    ExitHooks
}

// ExitHooks registers cleanups to run if the process exits before deferred
// calls can run. interrupt.Handler implements it.
type ExitHooks interface {
	OnForceExit(fn func()) (release func())
}

// Option configures a Driver.
type Option func(*Driver)

// WithLanguages sets the source, pivot and target languages.
func WithLanguages(l Languages) Option {
	return func(d *Driver) { d.langs = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithProgress sets the writer for human-readable progress lines.
func WithProgress(w io.Writer) Option {
	return func(d *Driver) {
		if w != nil {
			d.progress = w
		}
	}
}

// WithTempDir sets the parent of run workspaces ("" means the OS temp dir).
func WithTempDir(dir string) Option {
	return func(d *Driver) { d.tempDir = dir }
}

// WithExitHooks makes the workspace removal survive a forced exit.
func WithExitHooks(h ExitHooks) Option {
	return func(d *Driver) { d.exits = h }
}

// withFileSystem sets the filesystem implementation (for testing).
func withFileSystem(f fileSystem) Option {
	return func(d *Driver) { d.fs = f }
}

// withLockFactory sets the output lock constructor (for testing).
func withLockFactory(fn func(path string) tryLocker) Option {
	return func(d *Driver) { d.newLock = fn }
}

// withClock sets the time source (for testing).
func withClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// New creates a Driver.
func New(stages Stages, opts ...Option) *Driver {
	d := &Driver{
		stages:   stages,
		langs:    DefaultLanguages,
		logger:   slog.New(slog.DiscardHandler),
		progress: io.Discard,
		fs:       osFileSystem{},
		newLock:  newFileLock,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.stages.Translator = translate.NewDegrading(d.stages.Translator, d.logger)
	return d
}

// run carries the state of one Run call.
type run struct {
	*Driver
	req       Request
	logger    *slog.Logger
	workspace string
	summary   Summary
}

// Run dubs req.Input into req.Output. The returned Summary is filled as far
// as the run got, also on error.
func (d *Driver) Run(ctx context.Context, req Request) (Summary, error) {
	start := d.now()
	r := &run{Driver: d, req: req}
	r.summary = Summary{RunID: d.newID(), Input: req.Input, Output: req.Output}
	r.logger = d.logger.With("run_id", r.summary.RunID)

	if err := r.validate(); err != nil {
		return r.summary, err
	}

	lockPath := req.Output + ".lock"
	lock := d.newLock(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return r.summary, fmt.Errorf("lock %s: %w", req.Output, err)
	}
	if !locked {
		return r.summary, fmt.Errorf("%w: %s", ErrOutputLocked, req.Output)
	}
	defer func() {
		// The lock file stays: removing it would let a waiter lock a deleted inode.
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release output lock", "error", err)
		}
	}()

	ws, err := d.fs.MkdirTemp(d.tempDir, "tt-"+shortID(r.summary.RunID)+"-*")
	if err != nil {
		return r.summary, fmt.Errorf("create workspace: %w", err)
	}
	r.workspace = ws
	defer func() {
		if err := d.fs.RemoveAll(ws); err != nil {
			r.logger.Warn("failed to remove workspace", "path", ws, "error", err)
		}
	}()
	if d.exits != nil {
		release := d.exits.OnForceExit(func() { _ = d.fs.RemoveAll(ws) })
		defer release()
	}

	r.logger.Info("run started", "input", req.Input, "output", req.Output, "workspace", ws)
	err = r.execute(ctx)
	r.summary.Total = d.now().Sub(start)
	if err != nil {
		r.logger.Error("run failed", "error", err, "elapsed", r.summary.Total)
		return r.summary, err
	}
	r.logger.Info("run finished", "elapsed", r.summary.Total)
	return r.summary, nil
}

func (r *run) validate() error {
	info, err := r.fs.Stat(r.req.Input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, r.req.Input)
		}
		return fmt.Errorf("%w: %s: %w", ErrInputNotFound, r.req.Input, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInputNotFound, r.req.Input)
	}
	if strings.TrimSpace(r.req.Output) == "" {
		return fmt.Errorf("%w: empty output path", ErrInputNotFound)
	}
	return nil
}

func (r *run) execute(ctx context.Context) error {
	audioPath := filepath.Join(r.workspace, extractedAudioName)
	if err := r.stage(ctx, StageExtract, "Extracting audio", func() error {
		if err := r.stages.Media.ExtractAudio(ctx, r.req.Input, audioPath); err != nil {
			return fmt.Errorf("%w: %w", ErrExtractFailed, err)
		}
		return nil
	}); err != nil {
		return err
	}

	var sourceText string
	if err := r.stage(ctx, StageTranscribe, "Transcribing "+r.langs.Source.DisplayName()+" speech", func() error {
		sourceText = r.transcribe(ctx, audioPath)
		return nil
	}); err != nil {
		return err
	}
	r.countWords(r.langs.Source, sourceText)

	var pivotText string
	if err := r.stage(ctx, StagePivot, "Translating to "+r.langs.Pivot.DisplayName(), func() error {
		var err error
		pivotText, err = r.stages.Translator.Translate(ctx, sourceText, r.langs.Source, r.langs.Pivot)
		return err
	}); err != nil {
		return err
	}
	r.countWords(r.langs.Pivot, pivotText)

	var targetText string
	if err := r.stage(ctx, StageTarget, "Translating to "+r.langs.Target.DisplayName(), func() error {
		var err error
		targetText, err = r.targetText(ctx, pivotText)
		return err
	}); err != nil {
		return err
	}
	r.countWords(r.langs.Target, targetText)

	speechPath := filepath.Join(r.workspace, speechName)
	if err := r.stage(ctx, StageSynthesize, "Synthesizing "+r.langs.Target.DisplayName()+" speech", func() error {
		return r.stages.Synthesizer.Synthesize(ctx, targetText, r.langs.Target, speechPath)
	}); err != nil {
		return err
	}

	if err := r.stage(ctx, StageAlign, "Matching speech to video duration", func() error {
		r.align(ctx, speechPath)
		return nil
	}); err != nil {
		return err
	}

	if err := r.stage(ctx, StageMux, "Replacing audio in video", func() error {
		if err := r.stages.Media.Mux(ctx, r.req.Input, speechPath, r.req.Output); err != nil {
			return fmt.Errorf("%w: %w", ErrMuxFailed, err)
		}
		return nil
	}); err != nil {
		return err
	}

	if info, err := r.fs.Stat(r.req.Output); err == nil {
		r.summary.OutputSize = info.Size()
	}
	fmt.Fprintf(r.progress, "Done! Output saved to %s\n", r.req.Output)
	return nil
}

// stage runs fn as a named, timed stage. A cancelled context stops the run
// before and after every stage.
func (r *run) stage(ctx context.Context, name, label string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprintf(r.progress, "%s...\n", label)
	start := r.now()
	err := fn()
	elapsed := r.now().Sub(start)
	r.summary.Stages = append(r.summary.Stages, StageTiming{Name: name, Elapsed: elapsed})

	if err != nil {
		r.logger.Error("stage failed", "stage", name, "elapsed", elapsed, "error", err)
		return err
	}
	r.logger.Info("stage finished", "stage", name, "elapsed", elapsed)
	fmt.Fprintf(r.progress, "  done in %s\n", format.Elapsed(elapsed))
	return ctx.Err()
}

// transcribe never fails the run: errors are logged and yield an empty text.
func (r *run) transcribe(ctx context.Context, audioPath string) string {
	text, err := r.stages.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("transcription failed, continuing with an empty transcript", "error", err)
			fmt.Fprintf(r.progress, "  warning: transcription failed: %v\n", err)
		}
		return ""
	}
	return text
}

// targetText returns the manual translation when one is supplied, otherwise
// machine-translates pivot and checks the result is in the target script.
func (r *run) targetText(ctx context.Context, pivot string) (string, error) {
	if manual, ok, err := r.manualTranslation(); err != nil || ok {
		return manual, err
	}

	text, err := r.stages.Translator.Translate(ctx, pivot, r.langs.Pivot, r.langs.Target)
	if err != nil {
		return "", err
	}
	if r.langs.Target.ContainsScript(text) {
		return text, nil
	}
	return "", r.saveForManualTranslation(pivot)
}

func (r *run) manualTranslation() (string, bool, error) {
	path := r.req.ManualTranslationFile
	if path == "" {
		return "", false, nil
	}
	data, err := r.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("manual translation file not found, using machine translation", "path", path)
			return "", false, nil
		}
		return "", false, fmt.Errorf("read manual translation: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false, fmt.Errorf("%w: %s", ErrManualTranslationEmpty, path)
	}
	r.summary.ManualTranslation = true
	r.logger.Info("using manual translation", "path", path)
	fmt.Fprintf(r.progress, "  using manual translation from %s\n", path)
	return text, true, nil
}

// saveForManualTranslation writes the pivot text next to the output video and
// returns ErrTranslationUnavailable with rerun instructions.
func (r *run) saveForManualTranslation(pivot string) error {
	name := strings.ToLower(strings.ReplaceAll(r.langs.Pivot.DisplayName(), " ", "_")) + "_for_translation.txt"
	path := filepath.Join(filepath.Dir(r.req.Output), name)
	if err := r.fs.WriteFile(path, []byte(pivot), 0o644); err != nil {
		return fmt.Errorf("%w: saving %s text failed: %w", ErrTranslationUnavailable, r.langs.Pivot.DisplayName(), err)
	}
	r.summary.FallbackFile = path
	r.logger.Warn("no target-script text after translation, pivot text saved", "path", path)

	return fmt.Errorf("%w: %s text saved to %s\n"+
		"Translate it to %s, save the result as a UTF-8 text file and run again with:\n"+
		"  tt run %s %s --manual-translation-file <file>",
		ErrTranslationUnavailable, r.langs.Pivot.DisplayName(), path,
		r.langs.Target.DisplayName(), r.req.Input, r.req.Output)
}

// align probes the video and adjusts the speech track in place. Every outcome
// lets the run continue: a Failed outcome leaves the synthesized track as is.
func (r *run) align(ctx context.Context, speechPath string) {
	reference := tempo.Unknown()
	if seconds, err := r.stages.Media.Duration(ctx, r.req.Input); err != nil {
		r.logger.Warn("cannot read video duration, using default speed factor", "error", err)
	} else {
		reference = tempo.Known(seconds)
	}
	r.summary.Reference = reference

	outcome := r.stages.Adjuster.Adjust(ctx, speechPath, reference)
	r.summary.Alignment = outcome

	attrs := []any{"outcome", outcome.Kind.String(), "reference", reference.String(),
		"initial", outcome.Initial.String(), "final", outcome.Duration.String()}
	if outcome.Kind == align.Failed {
		r.logger.Warn("speech duration not adjusted, using synthesized audio as is",
			append(attrs, "failed_stage", string(outcome.Stage), "error", outcome.Err)...)
		fmt.Fprintf(r.progress, "  warning: %s\n", outcome)
		return
	}
	r.logger.Info("speech aligned", append(attrs, "strategy", outcome.Strategy)...)
	fmt.Fprintf(r.progress, "  video %s, speech %s -> %s\n", reference, outcome.Initial, outcome.Duration)
}

func (r *run) countWords(code lang.Code, text string) {
	n := code.WordCount(text)
	r.summary.Words = append(r.summary.Words, WordCount{Language: code, Words: n})
	r.logger.Info("text ready", "language", code.String(), "words", n)
}
