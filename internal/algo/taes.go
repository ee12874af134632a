package algo

import "github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/annot"

// TAESResult holds time-aligned event scoring counts. Unlike the
// other methods these are fractional.
type TAESResult struct {
	TruePositives  float64 `json:"true_positives"`
	FalsePositives float64 `json:"false_positives"`
	FalseNegatives float64 `json:"false_negatives"`
	TrueNegatives  float64 `json:"true_negatives"`
}

func (*TAESResult) Kind() Algorithm { return AlgTAES }

// Sensitivity returns TP / (TP + FN), or 0 on a zero denominator.
func (r *TAESResult) Sensitivity() float64 {
	denom := r.TruePositives + r.FalseNegatives
	if denom <= 0 {
		return 0
	}
	return r.TruePositives / denom
}

// Precision returns TP / (TP + FP), or 0 on a zero denominator.
func (r *TAESResult) Precision() float64 {
	denom := r.TruePositives + r.FalsePositives
	if denom <= 0 {
		return 0
	}
	return r.TruePositives / denom
}

// F1Score returns the harmonic mean of precision and sensitivity.
func (r *TAESResult) F1Score() float64 {
	p, s := r.Precision(), r.Sensitivity()
	if p+s == 0 {
		return 0
	}
	return 2 * p * s / (p + s)
}

// Specificity is not defined by TAES and reports 0.
func (r *TAESResult) Specificity() float64 { return 0 }

// Accuracy is not defined by TAES and reports 0.
func (r *TAESResult) Accuracy() float64 { return 0 }

// TAESScorer implements time-aligned event scoring for one target
// label, with the NEDC v6.0.0 multi-overlap sequencing rules.
type TAESScorer struct {
	TargetLabel string
}

// NewTAESScorer returns a scorer for the default positive class.
func NewTAESScorer() *TAESScorer {
	return &TAESScorer{TargetLabel: PositiveLabel}
}

// Score computes fractional TP/FP/FN over the target-label events of
// both tracks.
func (s *TAESScorer) Score(reference, hypothesis []annot.Event) *TAESResult {
	var refs, hyps []annot.Event
	for _, ev := range reference {
		if ev.Label == s.TargetLabel {
			refs = append(refs, ev)
		}
	}
	for _, ev := range hypothesis {
		if ev.Label == s.TargetLabel {
			hyps = append(hyps, ev)
		}
	}

	if len(refs) == 0 && len(hyps) == 0 {
		return &TAESResult{}
	}

	refFlags := make([]bool, len(refs))
	hypFlags := make([]bool, len(hyps))
	for i := range refFlags {
		refFlags[i] = true
	}
	for j := range hypFlags {
		hypFlags[j] = true
	}

	var totalHit, totalMiss, totalFA float64

	for r := range refs {
		if !refFlags[r] {
			continue
		}
		for h := range hyps {
			if !hypFlags[h] {
				continue
			}
			if !strictOverlap(refs[r], hyps[h]) {
				continue
			}

			var hit, miss, fa float64
			if hyps[h].StopTime >= refs[r].StopTime {
				hit, miss, fa = ovlpRefSeqs(refs, hyps, r, h, refFlags, hypFlags)
			} else {
				hit, miss, fa = ovlpHypSeqs(refs, hyps, r, h, refFlags, hypFlags)
			}
			totalHit += hit
			totalMiss += miss
			totalFA += fa
		}
	}

	// Unmatched events carry full penalties.
	for _, active := range refFlags {
		if active {
			totalMiss += 1.0
		}
	}
	for _, active := range hypFlags {
		if active {
			totalFA += 1.0
		}
	}

	return &TAESResult{
		TruePositives:  totalHit,
		FalsePositives: totalFA,
		FalseNegatives: totalMiss,
	}
}

// ovlpRefSeqs handles a hypothesis that extends to or beyond the end
// of the reference. The pair scores fractionally; every later still
// active reference the hypothesis also overlaps is consumed as a
// whole miss.
func ovlpRefSeqs(refs, hyps []annot.Event, r, h int, refFlags, hypFlags []bool) (hit, miss, fa float64) {
	hit, fa = calcHF(refs[r], hyps[h])
	miss = 1.0 - hit

	refFlags[r] = false
	hypFlags[h] = false

	for i := r + 1; i < len(refs); i++ {
		if refFlags[i] && strictOverlap(refs[i], hyps[h]) {
			miss += 1.0
			refFlags[i] = false
		}
	}
	return hit, miss, fa
}

// ovlpHypSeqs handles a reference that extends past the hypothesis.
// Later still-active hypotheses overlapping the same reference add
// their fractional hit and reduce the miss by the same amount.
func ovlpHypSeqs(refs, hyps []annot.Event, r, h int, refFlags, hypFlags []bool) (hit, miss, fa float64) {
	hit, fa = calcHF(refs[r], hyps[h])
	miss = 1.0 - hit

	refFlags[r] = false
	hypFlags[h] = false

	for j := h + 1; j < len(hyps); j++ {
		if hypFlags[j] && strictOverlap(refs[r], hyps[j]) {
			ovlpHit, ovlpFA := calcHF(refs[r], hyps[j])
			hit += ovlpHit
			miss -= ovlpHit
			fa += ovlpFA
			hypFlags[j] = false
		}
	}
	return hit, miss, fa
}

// calcHF computes the fractional (hit, fa) contribution of one
// hypothesis against one reference, normalised by the reference
// duration.
func calcHF(ref, hyp annot.Event) (hit, fa float64) {
	refDur := ref.StopTime - ref.StartTime
	if refDur <= 0 {
		return 0, 0
	}

	switch {
	case hyp.StartTime <= ref.StartTime && hyp.StopTime <= ref.StopTime:
		// Pre-prediction
		hit = (hyp.StopTime - ref.StartTime) / refDur
		fa = min(1.0, (ref.StartTime-hyp.StartTime)/refDur)
	case hyp.StartTime >= ref.StartTime && hyp.StopTime >= ref.StopTime:
		// Post-prediction
		hit = (ref.StopTime - hyp.StartTime) / refDur
		fa = min(1.0, (hyp.StopTime-ref.StopTime)/refDur)
	case hyp.StartTime < ref.StartTime && hyp.StopTime > ref.StopTime:
		// Over-prediction
		hit = 1.0
		fa = min(1.0, ((hyp.StopTime-ref.StopTime)+(ref.StartTime-hyp.StartTime))/refDur)
	default:
		// Under-prediction: hypothesis entirely within the reference
		hit = (hyp.StopTime - hyp.StartTime) / refDur
		fa = 0
	}
	return hit, fa
}
