// Package tempo computes playback-rate corrections for synthesized speech.
//
// It holds no I/O: Policy.Factor turns a pair of probed durations into a rate
// factor, and Stages decomposes that factor into a chain of per-stage ratios that
// fit the bounded range of ffmpeg's atempo filter.
package tempo

import (
	"math"
	"strconv"
	"strings"
)

// Bounds of a single atempo invocation.
const (
	MinStage = 0.5
	MaxStage = 2.0
)

// DefaultFactor is applied when either duration is unknown.
// It is a placeholder policy ("assume a speed-up is needed"), not a measurement.
const DefaultFactor = 1.5

// identityEpsilon is the distance from 1.0 under which a factor is treated as identity.
const identityEpsilon = 1e-9

// maxStageIterations caps the decomposition loop against floating-point drift.
// Halving or doubling walks the float64 exponent one step at a time, so the
// exponent range (including subnormals) bounds the loop well under this cap.
const maxStageIterations = 1100

// Duration is a probed media duration in seconds that may be unknown.
// The zero value is unknown.
type Duration struct {
	Seconds float64
	Valid   bool
}

// Known returns a valid Duration.
func Known(seconds float64) Duration {
	return Duration{Seconds: seconds, Valid: true}
}

// Unknown returns an invalid Duration.
func Unknown() Duration {
	return Duration{}
}

// String renders the duration for logs: "12.3s" or "unknown".
func (d Duration) String() string {
	if !d.Valid {
		return "unknown"
	}
	return strconv.FormatFloat(d.Seconds, 'f', 1, 64) + "s"
}

// Policy configures the factor calculation.
type Policy struct {
	// DefaultFactor is returned when durations are missing or non-positive.
	// Zero means DefaultFactor.
	DefaultFactor float64
}

// Factor returns actual/reference, the multiplier that brings a track of length
// actual down (or up) to reference. Missing or non-positive inputs yield the
// policy default.
func (p Policy) Factor(reference, actual Duration) float64 {
	if reference.Valid && actual.Valid && actual.Seconds > 0 && reference.Seconds > 0 {
		return actual.Seconds / reference.Seconds
	}
	if p.DefaultFactor > 0 {
		return p.DefaultFactor
	}
	return DefaultFactor
}

// IsIdentity reports whether factor requires no adjustment.
func IsIdentity(factor float64) bool {
	return math.Abs(factor-1.0) < identityEpsilon
}

// Stages decomposes factor into atempo stages, each within [MinStage, MaxStage],
// whose product equals factor. Identity and invalid factors yield nil.
func Stages(factor float64) []float64 {
	if IsIdentity(factor) || factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil
	}

	switch {
	case factor > MaxStage:
		return decompose(factor, MaxStage, func(r float64) bool { return r > MaxStage })
	case factor < MinStage:
		return decompose(factor, MinStage, func(r float64) bool { return r < MinStage })
	default:
		return []float64{factor}
	}
}

// decompose peels off stage until more reports false, then appends the remainder
// unless it is (numerically) the identity.
func decompose(factor, stage float64, more func(float64) bool) []float64 {
	var stages []float64
	remaining := factor
	for i := 0; more(remaining) && i < maxStageIterations; i++ {
		stages = append(stages, stage)
		remaining /= stage
	}
	if !IsIdentity(remaining) {
		stages = append(stages, remaining)
	}
	return stages
}

// Plan is the full rate correction for one adjustment attempt.
type Plan struct {
	Factor float64
	Stages []float64
}

// NewPlan plans factor from scratch.
func NewPlan(factor float64) Plan {
	return Plan{Factor: factor, Stages: Stages(factor)}
}

// IsIdentity reports whether the plan is a no-op.
func (p Plan) IsIdentity() bool {
	return len(p.Stages) == 0
}

// Expression renders the stages as one comma-separated filter graph, e.g.
// "atempo=2,atempo=1.75" for filter "atempo". Identity plans render "".
func (p Plan) Expression(filter string) string {
	parts := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		parts = append(parts, filter+"="+FormatFactor(s))
	}
	return strings.Join(parts, ",")
}

// FormatFactor formats a ratio with the shortest exact representation.
func FormatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
