package conformal

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
	"github.com/YuminosukeSato/rulconform/pkg/log"
)

func candidates() []Candidate {
	return []Candidate{
		{Mode: ModeNaive, Margin: Margin{Mode: ModeNaive, Value: 5}, Metrics: IntervalMetrics{Coverage: 0.96, AvgWidth: 10}},
		{Mode: ModeWeighted, Margin: Margin{Mode: ModeWeighted, Value: 7}, Metrics: IntervalMetrics{Coverage: 0.97, AvgWidth: 8}},
		{Mode: ModeParametric, Margin: Margin{Mode: ModeParametric, Value: 2}, Metrics: IntervalMetrics{Coverage: 0.90, AvgWidth: 3}},
	}
}

func TestSelectForTarget(t *testing.T) {
	got, err := SelectForTarget(candidates(), 0.95)
	if err != nil {
		t.Fatalf("SelectForTarget: %v", err)
	}
	if got.Mode != ModeWeighted {
		t.Errorf("selected %q, want the narrowest covering candidate (weighted)", got.Mode)
	}
}

func TestSelectForTargetFallsBackWithWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(w error) {})

	got, err := SelectForTarget(candidates(), 0.99)
	if err != nil {
		t.Fatalf("SelectForTarget: %v", err)
	}
	if got.Mode != ModeWeighted {
		t.Errorf("selected %q, want the closest coverage (weighted)", got.Mode)
	}

	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	var cw *errors.CoverageWarning
	if !errors.As(warnings[0], &cw) {
		t.Fatalf("expected CoverageWarning, got %T", warnings[0])
	}
	if cw.Chosen != "weighted" || cw.Achieved != 0.97 {
		t.Errorf("warning = %+v", cw)
	}
}

func TestSelectForTargetWarnsOnce(t *testing.T) {
	prev := log.GetLogger()
	defer log.SetLogger(prev)
	defer errors.SetZerologWarnFunc(nil)

	var buf bytes.Buffer
	if err := log.SetupLogger("warn", &buf, false); err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}

	if _, err := SelectForTarget(candidates(), 0.99); err != nil {
		t.Fatalf("SelectForTarget: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"type":"CoverageWarning"`) {
		t.Errorf("warning line = %q", lines[0])
	}
}

func TestSelectHighestCoverage(t *testing.T) {
	cands := candidates()
	cands = append(cands, Candidate{Mode: ModeBootstrap, Metrics: IntervalMetrics{Coverage: 0.97, AvgWidth: 6}})

	got, err := SelectHighestCoverage(cands)
	if err != nil {
		t.Fatalf("SelectHighestCoverage: %v", err)
	}
	if got.Mode != ModeBootstrap {
		t.Errorf("selected %q, want bootstrap (same coverage, narrower)", got.Mode)
	}
}

func TestEnsembleMargin(t *testing.T) {
	m, err := EnsembleMargin(candidates())
	if err != nil {
		t.Fatalf("EnsembleMargin: %v", err)
	}
	if m.Value != 5 || m.Mode != ModeEnsemble {
		t.Errorf("EnsembleMargin = %+v, want 5 (ensemble)", m)
	}
}

func TestSelectionEmpty(t *testing.T) {
	if _, err := SelectForTarget(nil, 0.9); err == nil {
		t.Error("SelectForTarget(nil) should fail")
	}
	if _, err := SelectHighestCoverage(nil); err == nil {
		t.Error("SelectHighestCoverage(nil) should fail")
	}
	if _, err := EnsembleMargin(nil); err == nil {
		t.Error("EnsembleMargin(nil) should fail")
	}
}

func TestCompareModes(t *testing.T) {
	truth := make([]float64, 60)
	pred := make([]float64, 60)
	for i := range truth {
		truth[i] = float64(120 - 2*i)
		pred[i] = truth[i] + float64(i%7) - 3
	}
	pred = Regulate(pred)
	residuals := make([]float64, len(truth))
	for i := range truth {
		residuals[i] = truth[i] - pred[i]
	}

	modes := []Mode{ModeNaive, ModeParametric, ModeBootstrap}
	cands, err := CompareModes(residuals, pred, truth, modes, WithAlpha(0.1), WithResamples(50))
	if err != nil {
		t.Fatalf("CompareModes: %v", err)
	}
	if len(cands) != len(modes) {
		t.Fatalf("got %d candidates, want %d", len(cands), len(modes))
	}
	for i, c := range cands {
		if c.Mode != modes[i] {
			t.Errorf("candidate %d mode = %q, want %q", i, c.Mode, modes[i])
		}
		if c.Metrics.Coverage < 0 || c.Metrics.Coverage > 1 || math.IsNaN(c.Metrics.AvgWidth) {
			t.Errorf("candidate %d metrics out of range: %+v", i, c.Metrics)
		}
	}

	all, err := CompareModes(residuals, pred, truth, nil)
	if err != nil {
		t.Fatalf("CompareModes(all): %v", err)
	}
	if len(all) != len(Modes) {
		t.Errorf("nil modes should evaluate all %d modes, got %d", len(Modes), len(all))
	}
}
