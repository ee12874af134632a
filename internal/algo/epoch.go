package algo

import (
	"sort"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/annot"
)

// EpochResult holds epoch scoring output: a sample-resolution
// confusion matrix plus per-label tallies derived from the jointly
// compressed streams. Every count is an integer.
type EpochResult struct {
	Confusion map[string]map[string]int `json:"confusion_matrix"`

	Hits        map[string]int `json:"hits"`
	Misses      map[string]int `json:"misses"`
	FalseAlarms map[string]int `json:"false_alarms"`
	Insertions  map[string]int `json:"insertions"`
	Deletions   map[string]int `json:"deletions"`

	// TP/FP/FN per label, derived from the confusion matrix once at
	// construction.
	TruePositives  map[string]int `json:"true_positives"`
	FalsePositives map[string]int `json:"false_positives"`
	FalseNegatives map[string]int `json:"false_negatives"`

	// Jointly compressed streams, sentinels included.
	CompressedRef []string `json:"compressed_ref"`
	CompressedHyp []string `json:"compressed_hyp"`
}

func (*EpochResult) Kind() Algorithm { return AlgEpoch }

// EpochScorer samples both tracks at fixed-epoch midpoints and scores
// the label streams after joint duplicate compression.
type EpochScorer struct {
	EpochDuration float64
	NullClass     string
}

// NewEpochScorer builds a scorer from the shared parameter block.
func NewEpochScorer(p Params) *EpochScorer {
	s := &EpochScorer{EpochDuration: p.EpochDuration, NullClass: p.NullClass}
	if s.EpochDuration <= 0 {
		s.EpochDuration = 1.0
	}
	if s.NullClass == "" {
		s.NullClass = NullClass
	}
	return s
}

// Score runs epoch scoring over the two tracks. Both are first
// augmented with background events so the full [0, duration] range is
// covered continuously.
func (s *EpochScorer) Score(refEvents, hypEvents []annot.Event, fileDuration float64) *EpochResult {
	ref := s.Augment(refEvents, fileDuration)
	hyp := s.Augment(hypEvents, fileDuration)

	labels := s.labelUnion(ref, hyp)
	confusion := make(map[string]map[string]int, len(labels))
	for _, r := range labels {
		confusion[r] = make(map[string]int, len(labels))
		for _, c := range labels {
			confusion[r][c] = 0
		}
	}

	// Raw streams get a leading and trailing sentinel so compression
	// always sees a boundary transition at each end.
	reft := []string{s.NullClass}
	hypt := []string{s.NullClass}

	for _, t := range s.SampleTimes(fileDuration) {
		rlab := s.labelAt(t, ref)
		hlab := s.labelAt(t, hyp)
		confusion[rlab][hlab]++
		reft = append(reft, rlab)
		hypt = append(hypt, hlab)
	}

	reft = append(reft, s.NullClass)
	hypt = append(hypt, s.NullClass)

	refo, hypo := compressJoint(reft, hypt)

	hits := make(map[string]int, len(labels))
	misses := make(map[string]int, len(labels))
	falseAlarms := make(map[string]int, len(labels))
	for _, l := range labels {
		hits[l] = 0
		misses[l] = 0
		falseAlarms[l] = 0
	}
	insertions := make(map[string]int)
	deletions := make(map[string]int)

	for i := 1; i < len(refo)-1; i++ {
		rlab, hlab := refo[i], hypo[i]
		switch {
		case rlab == s.NullClass:
			falseAlarms[hlab]++
			insertions[hlab]++
		case hlab == s.NullClass:
			misses[rlab]++
			deletions[rlab]++
		case rlab == hlab:
			hits[rlab]++
		default:
			misses[rlab]++
			falseAlarms[hlab]++
		}
	}

	tp, fp, fn := deriveCounts(confusion, labels)

	return &EpochResult{
		Confusion:      confusion,
		Hits:           hits,
		Misses:         misses,
		FalseAlarms:    falseAlarms,
		Insertions:     insertions,
		Deletions:      deletions,
		TruePositives:  tp,
		FalsePositives: fp,
		FalseNegatives: fn,
		CompressedRef:  refo,
		CompressedHyp:  hypo,
	}
}

// SampleTimes generates the midpoint sample times. The boundary check
// is an inclusive t <= duration; this must not drift or parity with
// the reference implementation breaks.
func (s *EpochScorer) SampleTimes(fileDuration float64) []float64 {
	var samples []float64
	half := s.EpochDuration / 2.0
	for i := 0; ; i++ {
		t := half + float64(i)*s.EpochDuration
		if t > fileDuration {
			break
		}
		samples = append(samples, t)
	}
	return samples
}

// labelAt returns the label of the first event covering t (inclusive
// at both endpoints), or the null class when none does.
func (s *EpochScorer) labelAt(t float64, events []annot.Event) string {
	for _, ev := range events {
		if t >= ev.StartTime && t <= ev.StopTime {
			return ev.Label
		}
	}
	return s.NullClass
}

// Augment fills the gaps between events, and at the head and tail of
// the file, with background events so both tracks cover [0, duration]
// continuously. An empty track becomes a single background event.
func (s *EpochScorer) Augment(events []annot.Event, fileDuration float64) []annot.Event {
	if len(events) == 0 {
		if fileDuration <= 0 {
			return nil
		}
		return []annot.Event{{
			Channel:    "TERM",
			StartTime:  0,
			StopTime:   fileDuration,
			Label:      s.NullClass,
			Confidence: 1.0,
		}}
	}

	sorted := make([]annot.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	augmented := make([]annot.Event, 0, 2*len(sorted)+1)
	curr := 0.0
	for _, ev := range sorted {
		if curr < ev.StartTime {
			augmented = append(augmented, annot.Event{
				Channel:    "TERM",
				StartTime:  curr,
				StopTime:   ev.StartTime,
				Label:      s.NullClass,
				Confidence: 1.0,
			})
		}
		augmented = append(augmented, ev)
		curr = ev.StopTime
	}
	if curr < fileDuration {
		augmented = append(augmented, annot.Event{
			Channel:    "TERM",
			StartTime:  curr,
			StopTime:   fileDuration,
			Label:      s.NullClass,
			Confidence: 1.0,
		})
	}
	return augmented
}

func (s *EpochScorer) labelUnion(ref, hyp []annot.Event) []string {
	set := map[string]bool{s.NullClass: true}
	for _, ev := range ref {
		set[ev.Label] = true
	}
	for _, ev := range hyp {
		set[ev.Label] = true
	}
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// compressJoint removes position i iff both streams repeat their
// previous value there. This is joint duplicate elimination: a change
// in either stream keeps the pair.
func compressJoint(reft, hypt []string) ([]string, []string) {
	if len(reft) == 0 || len(hypt) == 0 {
		return nil, nil
	}
	refo := []string{reft[0]}
	hypo := []string{hypt[0]}
	for i := 1; i < len(reft); i++ {
		if reft[i] != reft[i-1] || hypt[i] != hypt[i-1] {
			refo = append(refo, reft[i])
			hypo = append(hypo, hypt[i])
		}
	}
	return refo, hypo
}

// deriveCounts computes per-label TP/FP/FN from a confusion matrix:
// TP(L) = C[L][L], FP(L) = sum over A != L of C[A][L],
// FN(L) = sum over B != L of C[L][B].
func deriveCounts(confusion map[string]map[string]int, labels []string) (tp, fp, fn map[string]int) {
	tp = make(map[string]int, len(labels))
	fp = make(map[string]int, len(labels))
	fn = make(map[string]int, len(labels))
	for _, l := range labels {
		tp[l] = confusion[l][l]
		for _, other := range labels {
			if other == l {
				continue
			}
			fp[l] += confusion[other][l]
			fn[l] += confusion[l][other]
		}
	}
	return tp, fp, fn
}
