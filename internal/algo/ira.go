package algo

import (
	"sort"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/annot"
)

// IRAResult holds inter-rater agreement output: an integer confusion
// matrix at sample resolution with per-label and multi-class Cohen's
// kappa.
type IRAResult struct {
	Confusion       map[string]map[string]int `json:"confusion_matrix"`
	PerLabelKappa   map[string]float64        `json:"per_label_kappa"`
	MultiClassKappa float64                   `json:"multi_class_kappa"`
	Labels          []string                  `json:"labels"`
}

func (*IRAResult) Kind() Algorithm { return AlgIRA }

// IRAScorer computes Cohen's kappa agreement between two tracks,
// sampled at epoch midpoints.
type IRAScorer struct {
	EpochDuration float64
	NullClass     string
}

// NewIRAScorer builds a scorer from the shared parameter block.
func NewIRAScorer(p Params) *IRAScorer {
	s := &IRAScorer{EpochDuration: p.EpochDuration, NullClass: p.NullClass}
	if s.EpochDuration <= 0 {
		s.EpochDuration = 1.0
	}
	if s.NullClass == "" {
		s.NullClass = NullClass
	}
	return s
}

// Score samples both tracks at epoch midpoints and computes kappas.
// Both tracks are augmented with background exactly as in epoch
// scoring so the two scorers see the same label streams.
func (s *IRAScorer) Score(refEvents, hypEvents []annot.Event, fileDuration float64) *IRAResult {
	es := &EpochScorer{EpochDuration: s.EpochDuration, NullClass: s.NullClass}
	ref := es.Augment(refEvents, fileDuration)
	hyp := es.Augment(hypEvents, fileDuration)

	labels := es.labelUnion(ref, hyp)
	confusion := newConfusion(labels)

	for _, t := range es.SampleTimes(fileDuration) {
		confusion[es.labelAt(t, ref)][es.labelAt(t, hyp)]++
	}

	return s.fromConfusion(confusion, labels)
}

// ScoreLabels computes kappas directly from two equal-length label
// sequences; the shorter length governs when they differ.
func (s *IRAScorer) ScoreLabels(ref, hyp []string) *IRAResult {
	set := map[string]bool{s.NullClass: true}
	for _, l := range ref {
		set[l] = true
	}
	for _, l := range hyp {
		set[l] = true
	}
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	confusion := newConfusion(labels)
	n := len(ref)
	if len(hyp) < n {
		n = len(hyp)
	}
	for i := 0; i < n; i++ {
		confusion[ref[i]][hyp[i]]++
	}
	return s.fromConfusion(confusion, labels)
}

func (s *IRAScorer) fromConfusion(confusion map[string]map[string]int, labels []string) *IRAResult {
	perLabel := make(map[string]float64, len(labels))
	for _, l := range labels {
		perLabel[l] = labelKappa(confusion, l, labels)
	}
	return &IRAResult{
		Confusion:       confusion,
		PerLabelKappa:   perLabel,
		MultiClassKappa: multiClassKappa(confusion, labels),
		Labels:          labels,
	}
}

func newConfusion(labels []string) map[string]map[string]int {
	confusion := make(map[string]map[string]int, len(labels))
	for _, r := range labels {
		confusion[r] = make(map[string]int, len(labels))
		for _, c := range labels {
			confusion[r][c] = 0
		}
	}
	return confusion
}

// labelKappa flattens the matrix into a 2x2 contingency for one label
// and computes Cohen's kappa against chance agreement.
func labelKappa(confusion map[string]map[string]int, label string, labels []string) float64 {
	var a, b, c, d float64
	a = float64(confusion[label][label])
	for _, l2 := range labels {
		if l2 == label {
			continue
		}
		b += float64(confusion[label][l2])
		c += float64(confusion[l2][label])
		for _, l3 := range labels {
			if l3 == label {
				continue
			}
			d += float64(confusion[l2][l3])
		}
	}

	n := a + b + c + d
	if n == 0 {
		return 0
	}

	pO := (a + d) / n
	pE := ((a+b)/n)*((a+c)/n) + ((c+d)/n)*((b+d)/n)

	if 1-pE == 0 {
		if pO == pE {
			return 1
		}
		return 0
	}
	return (pO - pE) / (1 - pE)
}

// multiClassKappa computes the overall chance-corrected agreement
// across all classes.
func multiClassKappa(confusion map[string]map[string]int, labels []string) float64 {
	if len(labels) == 0 {
		return 0
	}

	rowSums := make(map[string]int, len(labels))
	colSums := make(map[string]int, len(labels))
	diag := 0
	for _, r := range labels {
		for _, c := range labels {
			v := confusion[r][c]
			rowSums[r] += v
			colSums[c] += v
		}
		diag += confusion[r][r]
	}

	n := 0
	for _, v := range rowSums {
		n += v
	}
	if n == 0 {
		return 0
	}

	chance := 0
	for _, l := range labels {
		chance += rowSums[l] * colSums[l]
	}

	num := n*diag - chance
	denom := n*n - chance
	if denom == 0 {
		if num == 0 {
			return 1
		}
		return 0
	}
	return float64(num) / float64(denom)
}
