package align

import (
	"fmt"

	"github.com/insee-t/tt/internal/tempo"
)

// Kind tags an Outcome.
type Kind int

const (
	// Unadjusted means the track already matched; no filter ran.
	Unadjusted Kind = iota
	// Adjusted means a rate strategy produced the final track.
	Adjusted
	// AdjustedWithTruncation means the rate-adjusted track was also cut to length.
	AdjustedWithTruncation
	// Failed means the track was left exactly as it was before the call.
	Failed
)

// String returns the snake_case name used in logs and summaries.
func (k Kind) String() string {
	switch k {
	case Unadjusted:
		return "unadjusted"
	case Adjusted:
		return "adjusted"
	case AdjustedWithTruncation:
		return "adjusted_with_truncation"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Stage names where a Failed outcome originated.
type Stage string

const (
	StageProbe  Stage = "probe"
	StageFilter Stage = "filter"
)

// Outcome reports the result of Adjuster.Adjust.
type Outcome struct {
	Kind Kind

	// Duration is the final probed duration of the track. It is invalid for
	// Failed outcomes and when the post-adjustment reprobe failed.
	Duration tempo.Duration

	// Initial is the duration probed before any change.
	Initial tempo.Duration

	// Plan is the rate correction that was attempted (zero for probe failures).
	Plan tempo.Plan

	// Strategy names the rate filter that succeeded, if any.
	Strategy string

	// Stage and Err describe a Failed outcome.
	Stage Stage
	Err   error
}

// String summarizes the outcome on one line.
func (o Outcome) String() string {
	switch o.Kind {
	case Failed:
		return fmt.Sprintf("%s(%s): %v", o.Kind, o.Stage, o.Err)
	case Unadjusted:
		return fmt.Sprintf("%s(%s)", o.Kind, o.Initial)
	default:
		return fmt.Sprintf("%s(%s via %s, factor %.2fx)", o.Kind, o.Duration, o.Strategy, o.Plan.Factor)
	}
}
