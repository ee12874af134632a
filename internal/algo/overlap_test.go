package algo

import (
	"testing"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/annot"
)

func TestOverlapTangencyIsNotOverlap(t *testing.T) {
	var s OverlapScorer
	res := s.Score(
		[]annot.Event{ev(0, 10, "seiz")},
		[]annot.Event{ev(10, 20, "seiz")},
	)

	if res.Hits["seiz"] != 0 {
		t.Errorf("hits[seiz] = %d, want 0", res.Hits["seiz"])
	}
	if res.Misses["seiz"] != 1 {
		t.Errorf("misses[seiz] = %d, want 1", res.Misses["seiz"])
	}
	if res.FalseAlarms["seiz"] != 1 {
		t.Errorf("false_alarms[seiz] = %d, want 1", res.FalseAlarms["seiz"])
	}
}

func TestOverlapTinyOverlapCounts(t *testing.T) {
	var s OverlapScorer
	res := s.Score(
		[]annot.Event{ev(1, 5, "seiz")},
		[]annot.Event{ev(4.5, 5.5, "seiz")},
	)

	if res.Hits["seiz"] != 1 || res.Misses["seiz"] != 0 || res.FalseAlarms["seiz"] != 0 {
		t.Errorf("hit/miss/fa = %d/%d/%d, want 1/0/0",
			res.Hits["seiz"], res.Misses["seiz"], res.FalseAlarms["seiz"])
	}
}

func TestOverlapLabelMismatchIsNoHit(t *testing.T) {
	var s OverlapScorer
	res := s.Score(
		[]annot.Event{ev(0, 10, "seiz")},
		[]annot.Event{ev(2, 8, "bckg")},
	)

	if res.Misses["seiz"] != 1 {
		t.Errorf("misses[seiz] = %d, want 1", res.Misses["seiz"])
	}
	if res.FalseAlarms["bckg"] != 1 {
		t.Errorf("false_alarms[bckg] = %d, want 1", res.FalseAlarms["bckg"])
	}
}

func TestOverlapIdenticalTracks(t *testing.T) {
	var s OverlapScorer
	events := []annot.Event{ev(0, 5, "seiz"), ev(10, 15, "seiz"), ev(20, 25, "bckg")}
	res := s.Score(events, events)

	if res.TotalHits != 3 || res.TotalMisses != 0 || res.TotalFalseAlarms != 0 {
		t.Errorf("totals = %d/%d/%d, want 3/0/0", res.TotalHits, res.TotalMisses, res.TotalFalseAlarms)
	}
}

func TestOverlapEmptyRef(t *testing.T) {
	var s OverlapScorer
	res := s.Score(nil, []annot.Event{ev(0, 5, "seiz"), ev(10, 15, "seiz")})

	if res.TotalMisses != 0 {
		t.Errorf("misses = %d, want 0", res.TotalMisses)
	}
	if res.FalseAlarms["seiz"] != 2 {
		t.Errorf("false_alarms[seiz] = %d, want 2", res.FalseAlarms["seiz"])
	}
}

func TestOverlapSwapExchangesMissAndFalseAlarm(t *testing.T) {
	var s OverlapScorer
	ref := []annot.Event{ev(0, 5, "seiz"), ev(10, 15, "seiz")}
	hyp := []annot.Event{ev(2, 4, "seiz"), ev(20, 25, "seiz")}

	fwd := s.Score(ref, hyp)
	rev := s.Score(hyp, ref)

	if fwd.TotalMisses != rev.TotalFalseAlarms || fwd.TotalFalseAlarms != rev.TotalMisses {
		t.Errorf("swap: fwd miss/fa = %d/%d, rev fa/miss = %d/%d",
			fwd.TotalMisses, fwd.TotalFalseAlarms, rev.TotalFalseAlarms, rev.TotalMisses)
	}
	if fwd.TotalHits != rev.TotalHits {
		t.Errorf("swap changed hits: %d vs %d", fwd.TotalHits, rev.TotalHits)
	}
}

func TestOverlapAliases(t *testing.T) {
	var s OverlapScorer
	res := s.Score(
		[]annot.Event{ev(0, 5, "seiz")},
		[]annot.Event{ev(10, 12, "seiz")},
	)

	if res.Insertions["seiz"] != res.FalseAlarms["seiz"] {
		t.Errorf("insertions != false_alarms: %v vs %v", res.Insertions, res.FalseAlarms)
	}
	if res.Deletions["seiz"] != res.Misses["seiz"] {
		t.Errorf("deletions != misses: %v vs %v", res.Deletions, res.Misses)
	}
}
