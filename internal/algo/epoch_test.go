package algo

import (
	"reflect"
	"testing"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/annot"
)

func ev(start, stop float64, label string) annot.Event {
	return annot.Event{Channel: "TERM", StartTime: start, StopTime: stop, Label: label, Confidence: 1.0}
}

func TestEpochSampleTimes(t *testing.T) {
	tests := []struct {
		name     string
		epoch    float64
		duration float64
		want     []float64
	}{
		{"unit epochs", 1.0, 3.0, []float64{0.5, 1.5, 2.5}},
		{"half second boundary", 0.5, 0.5, []float64{0.25}},
		{"midpoint on the boundary is included", 1.0, 2.5, []float64{0.5, 1.5, 2.5}},
		{"zero duration", 1.0, 0.0, nil},
		{"short file", 1.0, 0.4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &EpochScorer{EpochDuration: tt.epoch, NullClass: NullClass}
			got := s.SampleTimes(tt.duration)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SampleTimes(%v) = %v, want %v", tt.duration, got, tt.want)
			}
		})
	}
}

// The sample count must follow the inclusive boundary rule exactly:
// floor(duration/epoch)+1 samples iff (floor+0.5)*epoch <= duration.
func TestEpochSampleBoundary(t *testing.T) {
	s := &EpochScorer{EpochDuration: 1.0, NullClass: NullClass}

	// duration an exact multiple: midpoint floor+0.5 lands past the
	// end, so the count stays at floor.
	if got := len(s.SampleTimes(3.0)); got != 3 {
		t.Errorf("samples(3.0) = %d, want 3", got)
	}
	// Reaching the next midpoint (3.5) picks up one more.
	if got := len(s.SampleTimes(3.5)); got != 4 {
		t.Errorf("samples(3.5) = %d, want 4", got)
	}
	// The midpoint itself is included (inclusive <=).
	if got := len(s.SampleTimes(2.5)); got != 3 {
		t.Errorf("samples(2.5) = %d, want 3", got)
	}
}

func TestEpochAugment(t *testing.T) {
	s := NewEpochScorer(DefaultParams())

	aug := s.Augment([]annot.Event{ev(2, 4, "seiz")}, 10)
	if len(aug) != 3 {
		t.Fatalf("augmented = %d events, want 3", len(aug))
	}
	if aug[0].Label != NullClass || aug[0].StartTime != 0 || aug[0].StopTime != 2 {
		t.Errorf("head filler = %+v", aug[0])
	}
	if aug[2].Label != NullClass || aug[2].StartTime != 4 || aug[2].StopTime != 10 {
		t.Errorf("tail filler = %+v", aug[2])
	}

	aug = s.Augment(nil, 10)
	if len(aug) != 1 || aug[0].Label != NullClass || aug[0].StopTime != 10 {
		t.Errorf("empty track augment = %+v", aug)
	}

	if aug = s.Augment(nil, 0); aug != nil {
		t.Errorf("zero-duration augment = %+v, want nil", aug)
	}
}

func TestEpochIdenticalTracks(t *testing.T) {
	s := NewEpochScorer(DefaultParams())
	events := []annot.Event{ev(0, 3, "seiz"), ev(5, 8, "bckg")}
	res := s.Score(events, events, 10)

	// Identical tracks: no misses or false alarms on real labels. The
	// null class still accrues false alarms from the null/null
	// transition rows the joint compression keeps.
	for label, n := range res.Misses {
		if label != NullClass && n != 0 {
			t.Errorf("misses[%s] = %d, want 0", label, n)
		}
	}
	for label, n := range res.FalseAlarms {
		if label != NullClass && n != 0 {
			t.Errorf("false_alarms[%s] = %d, want 0", label, n)
		}
	}
	if res.Hits["seiz"] == 0 || res.Hits["bckg"] == 0 {
		t.Errorf("hits = %v, want nonzero for both labels", res.Hits)
	}
	// Off-diagonal confusion is empty.
	for r, row := range res.Confusion {
		for c, n := range row {
			if r != c && n != 0 {
				t.Errorf("confusion[%s][%s] = %d, want 0", r, c, n)
			}
		}
	}
}

func TestEpochJointCompression(t *testing.T) {
	reft := []string{"null", "seiz", "seiz", "bckg", "null"}
	hypt := []string{"null", "seiz", "bckg", "bckg", "null"}

	refo, hypo := compressJoint(reft, hypt)

	// Position 2 changes in hyp only; joint compression keeps it.
	wantRef := []string{"null", "seiz", "seiz", "bckg", "null"}
	wantHyp := []string{"null", "seiz", "bckg", "bckg", "null"}
	if !reflect.DeepEqual(refo, wantRef) || !reflect.DeepEqual(hypo, wantHyp) {
		t.Errorf("compressed = %v / %v, want %v / %v", refo, hypo, wantRef, wantHyp)
	}

	// Both streams repeating drops the position.
	reft = []string{"null", "seiz", "seiz", "null"}
	hypt = []string{"null", "bckg", "bckg", "null"}
	refo, hypo = compressJoint(reft, hypt)
	if len(refo) != 3 || len(hypo) != 3 {
		t.Errorf("compressed lengths = %d/%d, want 3/3", len(refo), len(hypo))
	}
}

func TestEpochHalfSecondScenario(t *testing.T) {
	p := DefaultParams()
	p.EpochDuration = 0.5
	s := NewEpochScorer(p)

	events := []annot.Event{ev(0, 0.5, "seiz")}
	res := s.Score(events, events, 0.5)

	// One midpoint at 0.25; the next (0.75) is past the boundary.
	if got := res.Confusion["seiz"]["seiz"]; got != 1 {
		t.Errorf("confusion[seiz][seiz] = %d, want 1", got)
	}
}

func TestEpochMissAndFalseAlarm(t *testing.T) {
	s := NewEpochScorer(DefaultParams())
	ref := []annot.Event{ev(0, 2, "seiz")}
	hyp := []annot.Event{ev(4, 6, "seiz")}
	res := s.Score(ref, hyp, 8)

	if res.Misses["seiz"] != 1 || res.Deletions["seiz"] != 1 {
		t.Errorf("misses/deletions[seiz] = %d/%d, want 1/1", res.Misses["seiz"], res.Deletions["seiz"])
	}
	if res.FalseAlarms["seiz"] != 1 || res.Insertions["seiz"] != 1 {
		t.Errorf("fa/insertions[seiz] = %d/%d, want 1/1", res.FalseAlarms["seiz"], res.Insertions["seiz"])
	}
	if res.Confusion["seiz"][NullClass] != 2 || res.Confusion[NullClass]["seiz"] != 2 {
		t.Errorf("confusion off-diagonals = %d/%d, want 2/2",
			res.Confusion["seiz"][NullClass], res.Confusion[NullClass]["seiz"])
	}

	// Derived counts come straight off the confusion matrix.
	if res.TruePositives["seiz"] != res.Confusion["seiz"]["seiz"] {
		t.Errorf("TP[seiz] = %d, want %d", res.TruePositives["seiz"], res.Confusion["seiz"]["seiz"])
	}
	wantFN := 0
	for hypLabel, n := range res.Confusion["seiz"] {
		if hypLabel != "seiz" {
			wantFN += n
		}
	}
	if res.FalseNegatives["seiz"] != wantFN {
		t.Errorf("FN[seiz] = %d, want %d", res.FalseNegatives["seiz"], wantFN)
	}
}

func TestEpochEmptyTracks(t *testing.T) {
	s := NewEpochScorer(DefaultParams())
	res := s.Score(nil, nil, 5)

	if got := res.Confusion[NullClass][NullClass]; got != 5 {
		t.Errorf("confusion[null][null] = %d, want 5", got)
	}
	if res.Hits[NullClass] != 0 {
		// Compressed stream collapses to the sentinels only; null-null
		// positions never count as hits.
		t.Errorf("hits[null] = %d, want 0", res.Hits[NullClass])
	}
}
