// Package ffmpeg resolves and drives the ffmpeg and ffprobe binaries.
//
// Every operation writes to a caller-chosen output path and never modifies
// its input, so callers can treat outputs as candidates and commit them with a
// rename.
package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/insee-t/tt/internal/tempo"
)

// Names of the rate filters, used for candidate file names and logs.
const (
	FilterAtempo     = "atempo"
	FilterRubberband = "rubberband"
)

// Tool runs media operations against resolved binaries.
type Tool struct {
	bin  Binaries
	exec *Executor
}

// ToolOption configures a Tool.
type ToolOption func(*Tool)

// WithExecutor sets the executor (for testing).
func WithExecutor(e *Executor) ToolOption {
	return func(t *Tool) { t.exec = e }
}

// NewTool creates a Tool for the given binaries.
func NewTool(bin Binaries, opts ...ToolOption) *Tool {
	t := &Tool{bin: bin, exec: NewExecutor()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ExtractAudio writes the audio track of video to out as 16-bit PCM WAV.
// A video without an audio stream fails with ErrNoAudioStream; when video
// cannot be probed, ffmpeg reports the problem instead.
func (t *Tool) ExtractAudio(ctx context.Context, video, out string) error {
	if info, err := t.Probe(ctx, video); err == nil && !info.HasStream("audio") {
		return fmt.Errorf("extract audio: %w", ErrNoAudioStream)
	}
	args := []string{"-y", "-i", video, "-vn", "-acodec", "pcm_s16le", out}
	if _, err := t.exec.Run(ctx, t.bin.FFmpeg, args); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	return nil
}

// Cut re-encodes [start, end) of in to out as 16kHz mono Ogg Vorbis, the
// compact format used for transcription uploads.
func (t *Tool) Cut(ctx context.Context, in, out string, start, end time.Duration) error {
	args := []string{
		"-y",
		"-i", in,
		"-ss", FormatTimestamp(start),
		"-to", FormatTimestamp(end),
		"-c:a", "libvorbis",
		"-ar", "16000",
		"-ac", "1",
		"-q:a", "2",
		out,
	}
	if _, err := t.exec.Run(ctx, t.bin.FFmpeg, args); err != nil {
		return fmt.Errorf("cut %s-%s: %w", FormatTimestamp(start), FormatTimestamp(end), err)
	}
	return nil
}

// Trim keeps the first seconds of in and writes them to out.
func (t *Tool) Trim(ctx context.Context, in, out string, seconds float64) error {
	args := []string{"-y", "-i", in, "-t", strconv.FormatFloat(seconds, 'f', 3, 64), out}
	if _, err := t.exec.Run(ctx, t.bin.FFmpeg, args); err != nil {
		return fmt.Errorf("trim: %w", err)
	}
	return nil
}

// Mux copies the first video stream of video and the first audio stream of
// audio into out, stopping at the shorter of the two.
func (t *Tool) Mux(ctx context.Context, video, audio, out string) error {
	args := []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		out,
	}
	if _, err := t.exec.Run(ctx, t.bin.FFmpeg, args); err != nil {
		return fmt.Errorf("mux: %w", err)
	}
	return nil
}

// filterAudio runs one -filter:a graph from in to out.
func (t *Tool) filterAudio(ctx context.Context, in, out, graph string) error {
	args := []string{"-y", "-i", in, "-filter:a", graph, out}
	_, err := t.exec.Run(ctx, t.bin.FFmpeg, args)
	return err
}

// ---------------------------------------------------------------------------
// Rate filters
// ---------------------------------------------------------------------------

// AtempoFilter applies the plan as a chain of atempo stages.
type AtempoFilter struct{ tool *Tool }

// Atempo returns the primary rate filter.
func (t *Tool) Atempo() AtempoFilter { return AtempoFilter{tool: t} }

// Name implements align.RateFilter.
func (AtempoFilter) Name() string { return FilterAtempo }

// Apply implements align.RateFilter.
func (f AtempoFilter) Apply(ctx context.Context, in, out string, plan tempo.Plan) error {
	if plan.IsIdentity() {
		return fmt.Errorf("%w: empty atempo plan", ErrCommandFailed)
	}
	return f.tool.filterAudio(ctx, in, out, plan.Expression(FilterAtempo))
}

// RubberbandFilter applies the whole factor in one rubberband invocation.
// It needs an ffmpeg built with librubberband.
type RubberbandFilter struct{ tool *Tool }

// Rubberband returns the fallback rate filter.
func (t *Tool) Rubberband() RubberbandFilter { return RubberbandFilter{tool: t} }

// Name implements align.RateFilter.
func (RubberbandFilter) Name() string { return FilterRubberband }

// Apply implements align.RateFilter.
func (f RubberbandFilter) Apply(ctx context.Context, in, out string, plan tempo.Plan) error {
	graph := FilterRubberband + "=tempo=" + tempo.FormatFactor(plan.Factor)
	return f.tool.filterAudio(ctx, in, out, graph)
}

// FormatTimestamp formats d for -ss/-to arguments as HH:MM:SS.mmm.
func FormatTimestamp(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}
