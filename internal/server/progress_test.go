package server

import (
	"testing"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
)

func TestProgressTracker(t *testing.T) {
	p := NewProgressTracker()
	p.InitJob("j", 2)

	if got := p.Get("j"); got.Total != 2 || got.Completed != 0 || got.PercentComplete != 0 {
		t.Errorf("initial progress = %+v", got)
	}

	p.AlgorithmStarted("j", algo.AlgTAES)
	if got := p.Get("j"); got.CurrentAlgorithm != algo.AlgTAES {
		t.Errorf("current = %v", got.CurrentAlgorithm)
	}

	p.AlgorithmCompleted("j", algo.AlgTAES)
	got := p.Get("j")
	if got.Completed != 1 || got.PercentComplete != 50 {
		t.Errorf("after one completion = %+v", got)
	}
	if got.CurrentAlgorithm != "" {
		t.Errorf("current should clear, got %v", got.CurrentAlgorithm)
	}

	p.AlgorithmStarted("j", algo.AlgDPAlign)
	p.AlgorithmCompleted("j", algo.AlgDPAlign)
	if got := p.Get("j"); got.PercentComplete != 100 {
		t.Errorf("final percent = %v", got.PercentComplete)
	}

	p.Drop("j")
	if got := p.Get("j"); got.Total != 0 {
		t.Errorf("dropped job still tracked: %+v", got)
	}
}

func TestProgressUnknownJob(t *testing.T) {
	p := NewProgressTracker()
	// Updates for unknown jobs are ignored, not panics.
	p.AlgorithmStarted("ghost", algo.AlgTAES)
	p.AlgorithmCompleted("ghost", algo.AlgTAES)
	if got := p.Get("ghost"); got.Total != 0 {
		t.Errorf("ghost progress = %+v", got)
	}
}
