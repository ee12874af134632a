package alpha

import (
	"testing"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
)

const sampleSummary = `
==============================================================================
NEDC DP ALIGNMENT SCORING SUMMARY (v6.0.0):

   Sensitivity (TPR, Recall): 85.0000%
   Precision (PPV): 80.0000%
   F1 Score (F Ratio): 0.8242
   Accuracy: 90.0000%
   True Positives (TP): 17
   False Positives (FP): 4
   False Negatives (FN): 3
   Insertions: 4
   Deletions: 2
   Substitutions: 1

==============================================================================
NEDC TAES SCORING SUMMARY (v6.0.0):

   Sensitivity (TPR, Recall): 61.2800%
   Precision (PPV): 54.0000%
   F1 Score (F Ratio): 0.5741
   True Positives (TP): 133
   False Positives (FP): 113
   False Negatives (FN): 84

==============================================================================
NEDC INTER-RATER AGREEMENT SUMMARY (v6.0.0):

   Multi-Class Kappa: 0.5312
   Label: seiz   Kappa: 0.4488
   Label: bckg   Kappa: 0.5312

==============================================================================
`

func TestParseSummary(t *testing.T) {
	results := ParseSummary(sampleSummary)

	dp, ok := results[algo.AlgDPAlign]
	if !ok {
		t.Fatal("missing dp section")
	}
	if dp["true_positives"] != 17 {
		t.Errorf("dp TP = %v, want 17", dp["true_positives"])
	}
	if dp["insertions"] != 4 || dp["deletions"] != 2 || dp["substitutions"] != 1 {
		t.Errorf("dp ins/del/sub = %v/%v/%v", dp["insertions"], dp["deletions"], dp["substitutions"])
	}
	if dp["sensitivity"] != 0.85 {
		t.Errorf("dp sensitivity = %v, want 0.85", dp["sensitivity"])
	}

	taes, ok := results[algo.AlgTAES]
	if !ok {
		t.Fatal("missing taes section")
	}
	if taes["true_positives"] != 133 || taes["false_negatives"] != 84 {
		t.Errorf("taes counts = %v", taes)
	}
	if taes["f1_score"] != 0.5741 {
		t.Errorf("taes f1 = %v", taes["f1_score"])
	}

	ira, ok := results[algo.AlgIRA]
	if !ok {
		t.Fatal("missing ira section")
	}
	if ira["kappa"] != 0.5312 {
		t.Errorf("kappa = %v, want 0.5312", ira["kappa"])
	}
	if ira["kappa_seiz"] != 0.4488 {
		t.Errorf("kappa_seiz = %v, want 0.4488", ira["kappa_seiz"])
	}

	if _, ok := results[algo.AlgEpoch]; ok {
		t.Error("epoch section should be absent")
	}
}

func TestParseSummaryEmpty(t *testing.T) {
	if got := ParseSummary("no sections here"); len(got) != 0 {
		t.Errorf("ParseSummary = %v, want empty", got)
	}
}
