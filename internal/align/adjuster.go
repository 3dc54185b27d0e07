// Package align matches the duration of a synthesized speech track to a
// reference (video) duration.
//
// Adjuster probes the track, computes a rate factor, and tries an ordered list
// of rate filters until one succeeds. Every filter writes a candidate file next
// to the track; the track itself is only replaced by an atomic rename once a
// candidate exists, so a failed adjustment never leaves a partial mutation
// behind. A track still longer than the reference after the rate change is cut
// to length by a Trimmer.
package align

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/insee-t/tt/internal/tempo"
)

// DefaultTolerance is the accepted distance between the adjusted track and the
// reference, in seconds.
const DefaultTolerance = 1.0

// ErrFilterFailed indicates every configured rate filter failed.
var ErrFilterFailed = errors.New("all rate filters failed")

// Prober reads the duration of a media file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// RateFilter changes the playback rate of in without altering pitch and writes
// the result to out. Implementations must not modify in.
type RateFilter interface {
	Name() string
	Apply(ctx context.Context, in, out string, plan tempo.Plan) error
}

// Trimmer cuts in to the first seconds of audio and writes the result to out.
type Trimmer interface {
	Trim(ctx context.Context, in, out string, seconds float64) error
}

// Adjuster runs the duration-matching protocol. It is safe for sequential use;
// concurrent calls on the same track are not supported.
type Adjuster struct {
	prober    Prober
	filters   []RateFilter
	trimmer   Trimmer
	policy    tempo.Policy
	tolerance float64
	files     fileOps
	logger    *slog.Logger
}

// Option configures an Adjuster.
type Option func(*Adjuster)

// WithPolicy sets the speed factor policy (default factor for unknown durations).
func WithPolicy(p tempo.Policy) Option {
	return func(a *Adjuster) { a.policy = p }
}

// WithTolerance sets the accepted distance from the reference in seconds.
// Non-positive values are ignored.
func WithTolerance(seconds float64) Option {
	return func(a *Adjuster) {
		if seconds > 0 {
			a.tolerance = seconds
		}
	}
}

// WithLogger sets the logger for fallback and verification warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adjuster) {
		if l != nil {
			a.logger = l
		}
	}
}

// withFiles sets the file operations (for testing).
func withFiles(f fileOps) Option {
	return func(a *Adjuster) { a.files = f }
}

// NewAdjuster creates an Adjuster. filters are tried in order; the first success wins.
func NewAdjuster(prober Prober, trimmer Trimmer, filters []RateFilter, opts ...Option) *Adjuster {
	a := &Adjuster{
		prober:    prober,
		filters:   filters,
		trimmer:   trimmer,
		tolerance: DefaultTolerance,
		files:     osFileOps{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adjust brings track as close as possible to reference by changing its
// playback rate, truncating as a last resort. On a Failed outcome the track is
// left exactly as it was.
func (a *Adjuster) Adjust(ctx context.Context, track string, reference tempo.Duration) Outcome {
	seconds, err := a.prober.Duration(ctx, track)
	if err != nil {
		return Outcome{Kind: Failed, Stage: StageProbe, Err: fmt.Errorf("probe %s: %w", filepath.Base(track), err)}
	}
	initial := tempo.Known(seconds)

	factor := a.policy.Factor(reference, initial)
	if tempo.IsIdentity(factor) {
		return Outcome{Kind: Unadjusted, Initial: initial, Duration: initial}
	}
	plan := tempo.NewPlan(factor)

	a.logger.Info("adjusting speech rate",
		"reference", reference.String(),
		"actual", initial.String(),
		"factor", tempo.FormatFactor(factor),
		"stages", len(plan.Stages))

	if len(a.filters) == 0 {
		return Outcome{Kind: Failed, Stage: StageFilter, Initial: initial, Plan: plan,
			Err: fmt.Errorf("%w: no filters configured", ErrFilterFailed)}
	}

	var errs []error
	for _, f := range a.filters {
		if err := a.replace(track, f.Name(), func(candidate string) error {
			return f.Apply(ctx, track, candidate, plan)
		}); err != nil {
			a.logger.Warn("rate filter failed, trying next", "filter", f.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			continue
		}
		out := Outcome{Kind: Adjusted, Initial: initial, Plan: plan, Strategy: f.Name()}
		return a.verify(ctx, track, reference, out)
	}

	return Outcome{Kind: Failed, Stage: StageFilter, Initial: initial, Plan: plan,
		Err: fmt.Errorf("%w: %w", ErrFilterFailed, errors.Join(errs...))}
}

// verify reprobes the committed track and decides whether truncation is needed.
func (a *Adjuster) verify(ctx context.Context, track string, reference tempo.Duration, out Outcome) Outcome {
	seconds, err := a.prober.Duration(ctx, track)
	if err != nil {
		a.logger.Warn("cannot verify adjusted duration", "error", err)
		out.Duration = tempo.Unknown()
		return out
	}
	out.Duration = tempo.Known(seconds)

	if !reference.Valid {
		return out
	}

	diff := seconds - reference.Seconds
	if math.Abs(diff) <= a.tolerance {
		return out
	}

	a.logger.Warn("adjusted duration still differs from reference",
		"adjusted", out.Duration.String(),
		"reference", reference.String(),
		"difference", math.Abs(diff))

	if diff > a.tolerance {
		return a.truncate(ctx, track, reference, out)
	}
	// Shorter than the reference: lengthening would mean inventing audio.
	return out
}

// truncate cuts track to target. A failed cut degrades to the rate-only result.
func (a *Adjuster) truncate(ctx context.Context, track string, target tempo.Duration, prev Outcome) Outcome {
	if a.trimmer == nil {
		return prev
	}

	if err := a.replace(track, "trim", func(candidate string) error {
		return a.trimmer.Trim(ctx, track, candidate, target.Seconds)
	}); err != nil {
		a.logger.Warn("truncation failed, keeping rate-adjusted audio", "error", err)
		return prev
	}

	out := prev
	out.Kind = AdjustedWithTruncation
	seconds, err := a.prober.Duration(ctx, track)
	if err != nil {
		a.logger.Warn("cannot verify truncated duration", "error", err)
		out.Duration = tempo.Unknown()
		return out
	}
	out.Duration = tempo.Known(seconds)
	return out
}

// replace runs produce against a fresh candidate path and, on success, renames
// the candidate over track. Any failure removes the candidate and leaves track
// untouched.
func (a *Adjuster) replace(track, tag string, produce func(candidate string) error) error {
	candidate := candidatePath(track, tag)
	if err := produce(candidate); err != nil {
		_ = a.files.Remove(candidate)
		return err
	}
	if err := a.files.Rename(candidate, track); err != nil {
		_ = a.files.Remove(candidate)
		return fmt.Errorf("replace %s: %w", filepath.Base(track), err)
	}
	return nil
}

// candidatePath returns "<dir>/<name>.<tag><ext>", keeping the extension so
// ffmpeg picks the same container for the candidate.
func candidatePath(track, tag string) string {
	ext := filepath.Ext(track)
	return strings.TrimSuffix(track, ext) + "." + tag + ext
}
