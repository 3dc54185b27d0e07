package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/insee-t/tt/internal/align"
	"github.com/insee-t/tt/internal/format"
	"github.com/insee-t/tt/internal/lang"
	"github.com/insee-t/tt/internal/tempo"
)

// Stage names, in run order.
const (
	StageExtract    = "extract"
	StageTranscribe = "transcribe"
	StagePivot      = "translate_pivot"
	StageTarget     = "translate_target"
	StageSynthesize = "synthesize"
	StageAlign      = "align"
	StageMux        = "mux"
)

// StageTiming records how long one stage took.
type StageTiming struct {
	Name    string
	Elapsed time.Duration
}

// WordCount is the word count of the text held in one language.
type WordCount struct {
	Language lang.Code
	Words    int
}

// Summary describes a finished (or aborted) run.
type Summary struct {
	RunID             string
	Input             string
	Output            string
	Stages            []StageTiming
	Words             []WordCount
	ManualTranslation bool
	// FallbackFile is set when the pivot text was saved for manual translation.
	FallbackFile string
	Reference    tempo.Duration
	Alignment    align.Outcome
	OutputSize   int64
	Total        time.Duration
}

// Table renders the summary for the terminal.
func (s Summary) Table() string {
	rows := make([][]string, 0, len(s.Stages)+len(s.Words)+6)
	for _, st := range s.Stages {
		rows = append(rows, []string{"stage: " + st.Name, format.Elapsed(st.Elapsed)})
	}
	for _, w := range s.Words {
		rows = append(rows, []string{w.Language.DisplayName() + " words", strconv.Itoa(w.Words)})
	}
	if s.ManualTranslation {
		rows = append(rows, []string{"translation", "manual"})
	}
	if s.Alignment.Kind != align.Unadjusted || s.Alignment.Initial.Valid {
		rows = append(rows,
			[]string{"video duration", s.Reference.String()},
			[]string{"speech duration", s.Alignment.Initial.String()},
			[]string{"alignment", alignmentLabel(s.Alignment)},
		)
	}
	if s.OutputSize > 0 {
		rows = append(rows, []string{"output size", format.Size(s.OutputSize)})
	}
	rows = append(rows, []string{"total", format.Elapsed(s.Total)})

	return format.Table([]string{"Run " + shortID(s.RunID), ""}, rows,
		[]format.Align{format.AlignLeft, format.AlignRight})
}

func alignmentLabel(o align.Outcome) string {
	switch o.Kind {
	case align.Adjusted, align.AdjustedWithTruncation:
		return fmt.Sprintf("%s x%s via %s -> %s", o.Kind, tempo.FormatFactor(o.Plan.Factor), o.Strategy, o.Duration)
	case align.Failed:
		return fmt.Sprintf("%s (%s)", o.Kind, o.Stage)
	default:
		return o.Kind.String()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
