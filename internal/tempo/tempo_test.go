package tempo_test

import (
	"math"
	"testing"

	"github.com/insee-t/tt/internal/tempo"
)

// ---------------------------------------------------------------------------
// Policy.Factor
// ---------------------------------------------------------------------------

func TestPolicyFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		policy    tempo.Policy
		reference tempo.Duration
		actual    tempo.Duration
		want      float64
	}{
		{"audio twice as long", tempo.Policy{}, tempo.Known(10), tempo.Known(20), 2.0},
		{"audio shorter", tempo.Policy{}, tempo.Known(20), tempo.Known(10), 0.5},
		{"equal lengths", tempo.Policy{}, tempo.Known(12.5), tempo.Known(12.5), 1.0},
		{"reference unknown", tempo.Policy{}, tempo.Unknown(), tempo.Known(20), 1.5},
		{"actual unknown", tempo.Policy{}, tempo.Known(10), tempo.Unknown(), 1.5},
		{"both unknown", tempo.Policy{}, tempo.Unknown(), tempo.Unknown(), 1.5},
		{"actual zero", tempo.Policy{}, tempo.Known(10), tempo.Known(0), 1.5},
		{"actual negative", tempo.Policy{}, tempo.Known(10), tempo.Known(-3), 1.5},
		{"reference zero", tempo.Policy{}, tempo.Known(0), tempo.Known(10), 1.5},
		{"reference negative", tempo.Policy{}, tempo.Known(-1), tempo.Known(10), 1.5},
		{"custom default", tempo.Policy{DefaultFactor: 1.2}, tempo.Unknown(), tempo.Known(10), 1.2},
		{"negative default ignored", tempo.Policy{DefaultFactor: -4}, tempo.Unknown(), tempo.Known(10), 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.policy.Factor(tt.reference, tt.actual)
			if got != tt.want {
				t.Errorf("Factor(%v, %v) = %v, want %v", tt.reference, tt.actual, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Stages
// ---------------------------------------------------------------------------

func TestStages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		factor float64
		want   []float64
	}{
		{"identity", 1.0, nil},
		{"in range speed up", 1.5, []float64{1.5}},
		{"in range slow down", 0.8, []float64{0.8}},
		{"upper bound", 2.0, []float64{2.0}},
		{"lower bound", 0.5, []float64{0.5}},
		{"power of two", 4.0, []float64{2.0, 2.0}},
		{"three and a half", 3.5, []float64{2.0, 1.75}},
		{"one hundred", 100.0, []float64{2.0, 2.0, 2.0, 2.0, 2.0, 2.0, 1.5625}},
		{"quarter", 0.25, []float64{0.5, 0.5}},
		{"fifth", 0.2, []float64{0.5, 0.5, 0.8}},
		{"zero", 0, nil},
		{"negative", -2, nil},
		{"nan", math.NaN(), nil},
		{"inf", math.Inf(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tempo.Stages(tt.factor)
			if len(got) != len(tt.want) {
				t.Fatalf("Stages(%v) = %v, want %v", tt.factor, got, tt.want)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("Stages(%v)[%d] = %v, want %v", tt.factor, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStagesProductAndBounds(t *testing.T) {
	t.Parallel()

	factors := []float64{
		1e-9, 0.001, 0.013, 0.3, 0.49999, 0.5, 0.51, 0.999, 1.001,
		1.75, 1.99, 2.0, 2.01, 3.5, 7.3, 64, 100, 1234.5, 1e6, 1e12, 1e300,
	}

	for _, f := range factors {
		stages := tempo.Stages(f)
		if len(stages) == 0 {
			t.Errorf("Stages(%v) returned no stages", f)
			continue
		}
		product := 1.0
		for i, s := range stages {
			if s < tempo.MinStage || s > tempo.MaxStage {
				t.Errorf("Stages(%v)[%d] = %v, outside [%v, %v]", f, i, s, tempo.MinStage, tempo.MaxStage)
			}
			product *= s
		}
		if rel := math.Abs(product-f) / f; rel > 1e-6 {
			t.Errorf("Stages(%v) product = %v, relative error %v", f, product, rel)
		}
	}
}

func TestStagesTerminatesQuickly(t *testing.T) {
	t.Parallel()

	stages := tempo.Stages(100.0)
	if len(stages) > 10 {
		t.Errorf("Stages(100) produced %d stages, want <= 10", len(stages))
	}
}

// ---------------------------------------------------------------------------
// Plan
// ---------------------------------------------------------------------------

func TestNewPlan(t *testing.T) {
	t.Parallel()

	t.Run("identity plan is empty", func(t *testing.T) {
		t.Parallel()
		p := tempo.NewPlan(1.0)
		if !p.IsIdentity() {
			t.Errorf("NewPlan(1.0).IsIdentity() = false, want true")
		}
		if got := p.Expression("atempo"); got != "" {
			t.Errorf("NewPlan(1.0).Expression() = %q, want empty", got)
		}
	})

	t.Run("chained expression", func(t *testing.T) {
		t.Parallel()
		p := tempo.NewPlan(3.5)
		if got, want := p.Expression("atempo"), "atempo=2,atempo=1.75"; got != want {
			t.Errorf("NewPlan(3.5).Expression() = %q, want %q", got, want)
		}
		if p.Factor != 3.5 {
			t.Errorf("NewPlan(3.5).Factor = %v, want 3.5", p.Factor)
		}
		if len(p.Stages) != 2 {
			t.Errorf("NewPlan(3.5).Stages = %v, want two stages", p.Stages)
		}
	})

	t.Run("default factor plans a single stage", func(t *testing.T) {
		t.Parallel()
		factor := tempo.Policy{}.Factor(tempo.Unknown(), tempo.Known(30))
		p := tempo.NewPlan(factor)
		if len(p.Stages) != 1 || p.Stages[0] != 1.5 {
			t.Errorf("NewPlan(default).Stages = %v, want [1.5]", p.Stages)
		}
	})
}

func TestDurationString(t *testing.T) {
	t.Parallel()

	if got := tempo.Unknown().String(); got != "unknown" {
		t.Errorf("Unknown().String() = %q, want %q", got, "unknown")
	}
	if got := tempo.Known(12.34).String(); got != "12.3s" {
		t.Errorf("Known(12.34).String() = %q, want %q", got, "12.3s")
	}
}

func TestIsIdentity(t *testing.T) {
	t.Parallel()

	if !tempo.IsIdentity(1.0) {
		t.Error("IsIdentity(1.0) = false, want true")
	}
	if !tempo.IsIdentity(1.0 + 1e-12) {
		t.Error("IsIdentity(1+1e-12) = false, want true")
	}
	if tempo.IsIdentity(1.001) {
		t.Error("IsIdentity(1.001) = true, want false")
	}
}
