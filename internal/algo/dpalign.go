package algo

// DPResult holds dynamic-programming alignment counts. Every count is
// an integer; TruePositives/FalsePositives/FalseNegatives report the
// positive class only, while the Sum* fields total across labels for
// comparison against oracles that only report totals.
type DPResult struct {
	Hits          int                       `json:"hits"`
	HitsPerLabel  map[string]int            `json:"hits_per_label"`
	Substitutions map[string]map[string]int `json:"substitutions"`
	Insertions    map[string]int            `json:"insertions"`
	Deletions     map[string]int            `json:"deletions"`

	TotalInsertions    int `json:"total_insertions"`
	TotalDeletions     int `json:"total_deletions"`
	TotalSubstitutions int `json:"total_substitutions"`

	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`

	SumTruePositives  int `json:"sum_true_positives"`
	SumFalsePositives int `json:"sum_false_positives"`
	SumFalseNegatives int `json:"sum_false_negatives"`

	// Aligned sequences for debugging; both start and end with the
	// NullClass sentinel.
	AlignedRef []string `json:"aligned_ref"`
	AlignedHyp []string `json:"aligned_hyp"`
}

func (*DPResult) Kind() Algorithm { return AlgDPAlign }

// DPAligner aligns two label sequences with insertion, deletion and
// substitution penalties.
type DPAligner struct {
	PenaltyDel    float64
	PenaltyIns    float64
	PenaltySub    float64
	PositiveLabel string
}

// NewDPAligner returns an aligner with unit penalties and the default
// positive class.
func NewDPAligner() *DPAligner {
	return &DPAligner{
		PenaltyDel:    1.0,
		PenaltyIns:    1.0,
		PenaltySub:    1.0,
		PositiveLabel: PositiveLabel,
	}
}

// Back-pointer codes for the DP matrix.
const (
	dpDel = 0
	dpIns = 1
	dpSub = 2 // substitution or match
)

// Align runs the full alignment and error count over ref and hyp.
// Empty sequences are legal: the result then reflects pure insertions
// or deletions.
func (a *DPAligner) Align(ref, hyp []string) *DPResult {
	alignedRef, alignedHyp := a.align(ref, hyp)
	return a.countErrors(alignedRef, alignedHyp)
}

// align pads both sequences with a NullClass sentinel at each end,
// fills the cost and back-pointer matrices, and backtracks to the
// aligned sequences in chronological order.
func (a *DPAligner) align(ref, hyp []string) ([]string, []string) {
	refi := make([]string, 0, len(ref)+2)
	refi = append(refi, NullClass)
	refi = append(refi, ref...)
	refi = append(refi, NullClass)

	hypi := make([]string, 0, len(hyp)+2)
	hypi = append(hypi, NullClass)
	hypi = append(hypi, hyp...)
	hypi = append(hypi, NullClass)

	m := len(refi)
	n := len(hypi)

	d := make([][]float64, m)
	etypes := make([][]int, m)
	for i := range d {
		d[i] = make([]float64, n)
		etypes[i] = make([]int, n)
		for j := range etypes[i] {
			etypes[i][j] = -1
		}
	}

	for j := 1; j < n; j++ {
		d[0][j] = d[0][j-1] + a.PenaltyIns
		etypes[0][j] = dpIns
	}
	for i := 1; i < m; i++ {
		d[i][0] = d[i-1][0] + a.PenaltyDel
		etypes[i][0] = dpDel
	}
	etypes[0][0] = dpSub

	for j := 1; j < n; j++ {
		for i := 1; i < m; i++ {
			dDel := d[i-1][j] + a.PenaltyDel
			dIns := d[i][j-1] + a.PenaltyIns
			dSub := d[i-1][j-1]
			if refi[i] != hypi[j] {
				dSub += a.PenaltySub
			}

			// Tie-break order is pinned: SUB-or-MATCH wins ties,
			// INS replaces only when strictly smaller, then DEL.
			minDist := dSub
			et := dpSub
			if dIns < minDist {
				minDist = dIns
				et = dpIns
			}
			if dDel < minDist {
				minDist = dDel
				et = dpDel
			}
			d[i][j] = minDist
			etypes[i][j] = et
		}
	}

	// Backtrack from (m-1, n-1) to (0, 0).
	i := m - 1
	j := n - 1
	var reft, hypt []string
	for {
		switch etypes[i][j] {
		case dpDel:
			reft = append(reft, refi[i])
			hypt = append(hypt, NullClass)
			i--
		case dpIns:
			reft = append(reft, NullClass)
			hypt = append(hypt, hypi[j])
			j--
		default:
			reft = append(reft, refi[i])
			hypt = append(hypt, hypi[j])
			i--
			j--
		}
		if i < 0 && j < 0 {
			break
		}
	}

	reverse(reft)
	reverse(hypt)
	return reft, hypt
}

// countErrors walks the aligned sequences, skipping the sentinel at
// each end, and tallies insertions, deletions and the ref->hyp
// substitution matrix.
func (a *DPAligner) countErrors(alignedRef, alignedHyp []string) *DPResult {
	hits := 0
	hitsPerLabel := make(map[string]int)
	substitutions := make(map[string]map[string]int)
	insertions := make(map[string]int)
	deletions := make(map[string]int)

	for idx := 1; idx < len(alignedRef)-1; idx++ {
		refLabel := alignedRef[idx]
		hypLabel := alignedHyp[idx]

		switch {
		case refLabel == NullClass && hypLabel != NullClass:
			insertions[hypLabel]++
		case hypLabel == NullClass && refLabel != NullClass:
			deletions[refLabel]++
		case refLabel != hypLabel:
			if substitutions[refLabel] == nil {
				substitutions[refLabel] = make(map[string]int)
			}
			substitutions[refLabel][hypLabel]++
		}

		if refLabel == hypLabel && refLabel != NullClass {
			hits++
			hitsPerLabel[refLabel]++
		}
	}

	totalIns := 0
	for _, c := range insertions {
		totalIns += c
	}
	totalDel := 0
	for _, c := range deletions {
		totalDel += c
	}
	totalSub := 0
	for _, row := range substitutions {
		for _, c := range row {
			totalSub += c
		}
	}

	pos := a.PositiveLabel
	posSub := 0
	for _, c := range substitutions[pos] {
		posSub += c
	}

	return &DPResult{
		Hits:               hits,
		HitsPerLabel:       hitsPerLabel,
		Substitutions:      substitutions,
		Insertions:         insertions,
		Deletions:          deletions,
		TotalInsertions:    totalIns,
		TotalDeletions:     totalDel,
		TotalSubstitutions: totalSub,
		TruePositives:      hitsPerLabel[pos],
		FalsePositives:     insertions[pos],
		FalseNegatives:     deletions[pos] + posSub,
		SumTruePositives:   hits,
		SumFalsePositives:  totalIns,
		SumFalseNegatives:  totalDel + totalSub,
		AlignedRef:         alignedRef,
		AlignedHyp:         alignedHyp,
	}
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
