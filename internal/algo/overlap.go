package algo

import "github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/annot"

// OverlapResult holds any-overlap scoring counts. The method produces
// no confusion matrix; insertions alias false alarms and deletions
// alias misses, matching the NEDC summary mapping.
type OverlapResult struct {
	Hits        map[string]int `json:"hits"`
	Misses      map[string]int `json:"misses"`
	FalseAlarms map[string]int `json:"false_alarms"`

	Insertions map[string]int `json:"insertions"`
	Deletions  map[string]int `json:"deletions"`

	TotalHits        int `json:"total_hits"`
	TotalMisses      int `json:"total_misses"`
	TotalFalseAlarms int `json:"total_false_alarms"`
}

func (*OverlapResult) Kind() Algorithm { return AlgOverlap }

// OverlapScorer scores binary any-overlap agreement: each reference
// event is a hit iff some hypothesis event of the same label strictly
// overlaps it, and symmetrically for false alarms.
type OverlapScorer struct{}

// strictOverlap reports temporal overlap with positive measure;
// tangency at an endpoint does not count.
func strictOverlap(a, b annot.Event) bool {
	return b.StopTime > a.StartTime && b.StartTime < a.StopTime
}

// Score counts per-label hits, misses and false alarms.
func (OverlapScorer) Score(refEvents, hypEvents []annot.Event) *OverlapResult {
	hits := make(map[string]int)
	misses := make(map[string]int)
	falseAlarms := make(map[string]int)

	for _, ref := range refEvents {
		matched := false
		for _, hyp := range hypEvents {
			if hyp.Label == ref.Label && strictOverlap(ref, hyp) {
				matched = true
				break
			}
		}
		if _, ok := hits[ref.Label]; !ok {
			hits[ref.Label] = 0
			misses[ref.Label] = 0
		}
		if matched {
			hits[ref.Label]++
		} else {
			misses[ref.Label]++
		}
	}

	for _, hyp := range hypEvents {
		matched := false
		for _, ref := range refEvents {
			if ref.Label == hyp.Label && strictOverlap(hyp, ref) {
				matched = true
				break
			}
		}
		if !matched {
			falseAlarms[hyp.Label]++
		}
	}

	totalHits, totalMisses, totalFAs := 0, 0, 0
	for _, c := range hits {
		totalHits += c
	}
	for _, c := range misses {
		totalMisses += c
	}
	for _, c := range falseAlarms {
		totalFAs += c
	}

	return &OverlapResult{
		Hits:             hits,
		Misses:           misses,
		FalseAlarms:      falseAlarms,
		Insertions:       copyCounts(falseAlarms),
		Deletions:        copyCounts(misses),
		TotalHits:        totalHits,
		TotalMisses:      totalMisses,
		TotalFalseAlarms: totalFAs,
	}
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
