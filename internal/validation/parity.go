// Package validation compares scoring results from the reference and
// new implementations metric by metric within a configurable
// tolerance.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
)

// DefaultTolerance is the absolute tolerance for metric comparison.
const DefaultTolerance = 1e-10

// Discrepancy records one metric that differed between the pipelines.
type Discrepancy struct {
	Metric             string  `json:"metric"`
	AlphaValue         float64 `json:"alpha_value"`
	BetaValue          float64 `json:"beta_value"`
	AbsoluteDifference float64 `json:"absolute_difference"`
	RelativeDifference float64 `json:"relative_difference"`
	Tolerance          float64 `json:"tolerance"`
}

// WithinTolerance reports whether the absolute difference is acceptable.
func (d Discrepancy) WithinTolerance() bool {
	return d.AbsoluteDifference <= d.Tolerance
}

// Report is the outcome of comparing one algorithm's results.
type Report struct {
	Algorithm     algo.Algorithm     `json:"algorithm"`
	Passed        bool               `json:"passed"`
	Discrepancies []Discrepancy      `json:"discrepancies"`
	AlphaMetrics  map[string]float64 `json:"alpha_metrics"`
	BetaMetrics   map[string]float64 `json:"beta_metrics"`
}

func (r *Report) String() string {
	if r.Passed {
		return fmt.Sprintf("%s parity PASSED", r.Algorithm)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s parity FAILED (%d discrepancies)", r.Algorithm, len(r.Discrepancies))
	for _, d := range r.Discrepancies {
		fmt.Fprintf(&b, "\n  - %s: alpha=%.6f beta=%.6f diff=%.2e",
			d.Metric, d.AlphaValue, d.BetaValue, d.AbsoluteDifference)
	}
	return b.String()
}

// Validator compares reference (alpha) metric maps against typed
// results from the new (beta) implementation.
type Validator struct {
	Tolerance float64
}

// NewValidator returns a validator with the default tolerance.
func NewValidator() *Validator {
	return &Validator{Tolerance: DefaultTolerance}
}

// Compare dispatches on the beta result type. The alpha side is the
// oracle's flat metric map; keys absent from it are skipped, except by
// the TAES comparison, which reads a missing count as 0.
func (v *Validator) Compare(alpha map[string]float64, beta algo.Result) (*Report, error) {
	switch b := beta.(type) {
	case *algo.TAESResult:
		return v.CompareTAES(alpha, b), nil
	case *algo.DPResult:
		return v.CompareDP(alpha, b), nil
	case *algo.EpochResult:
		return v.CompareEpoch(alpha, b), nil
	case *algo.OverlapResult:
		return v.CompareOverlap(alpha, b), nil
	case *algo.IRAResult:
		return v.CompareIRA(alpha, b), nil
	}
	return nil, fmt.Errorf("no parity comparison for result type %T", beta)
}

// cmp accumulates discrepancies across one report.
type cmp struct {
	tol   float64
	alpha map[string]float64
	beta  map[string]float64
	diffs []Discrepancy
}

func newCmp(tol float64) *cmp {
	return &cmp{
		tol:   tol,
		alpha: make(map[string]float64),
		beta:  make(map[string]float64),
	}
}

// check compares one metric and records a discrepancy when the
// absolute difference exceeds the tolerance. The relative difference
// is informational.
func (c *cmp) check(metric string, a, b float64) {
	c.alpha[metric] = a
	c.beta[metric] = b
	absDiff := math.Abs(a - b)
	if absDiff > c.tol {
		c.diffs = append(c.diffs, Discrepancy{
			Metric:             metric,
			AlphaValue:         a,
			BetaValue:          b,
			AbsoluteDifference: absDiff,
			RelativeDifference: absDiff / math.Max(math.Abs(a), 1e-16),
			Tolerance:          c.tol,
		})
	}
}

// checkIfPresent compares only when the oracle reported the metric.
func (c *cmp) checkIfPresent(alpha map[string]float64, metric string, b float64) {
	if a, ok := alpha[metric]; ok {
		c.check(metric, a, b)
	}
}

func (c *cmp) report(alg algo.Algorithm) *Report {
	if c.diffs == nil {
		c.diffs = []Discrepancy{}
	}
	return &Report{
		Algorithm:     alg,
		Passed:        len(c.diffs) == 0,
		Discrepancies: c.diffs,
		AlphaMetrics:  c.alpha,
		BetaMetrics:   c.beta,
	}
}

// round2 matches the legacy aggregation precision of two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func metricsFromCounts(tp, fp, fn float64) (sen, pre, f1 float64) {
	if tp+fn > 0 {
		sen = tp / (tp + fn)
	}
	if tp+fp > 0 {
		pre = tp / (tp + fp)
	}
	if pre+sen > 0 {
		f1 = 2 * pre * sen / (pre + sen)
	}
	return sen, pre, f1
}

// CompareTAES rounds both sides' fractional counts to two decimals,
// recomputes the derived metrics from the rounded counts, and compares
// counts and derived metrics separately.
func (v *Validator) CompareTAES(alpha map[string]float64, beta *algo.TAESResult) *Report {
	c := newCmp(v.Tolerance)

	alphaTP := round2(alpha["true_positives"])
	alphaFP := round2(alpha["false_positives"])
	alphaFN := round2(alpha["false_negatives"])
	betaTP := round2(beta.TruePositives)
	betaFP := round2(beta.FalsePositives)
	betaFN := round2(beta.FalseNegatives)

	c.check("true_positives", alphaTP, betaTP)
	c.check("false_positives", alphaFP, betaFP)
	c.check("false_negatives", alphaFN, betaFN)

	alphaSen, alphaPre, alphaF1 := metricsFromCounts(alphaTP, alphaFP, alphaFN)
	betaSen, betaPre, betaF1 := metricsFromCounts(betaTP, betaFP, betaFN)

	c.check("sensitivity", alphaSen, betaSen)
	c.check("precision", alphaPre, betaPre)
	c.check("f1_score", alphaF1, betaF1)

	return c.report(algo.AlgTAES)
}

// CompareDP compares alignment totals. Oracles report totals across
// labels, so the Sum* fields are used rather than the positive-class
// TP/FP/FN.
func (v *Validator) CompareDP(alpha map[string]float64, beta *algo.DPResult) *Report {
	c := newCmp(v.Tolerance)

	c.checkIfPresent(alpha, "true_positives", float64(beta.SumTruePositives))
	c.checkIfPresent(alpha, "false_positives", float64(beta.SumFalsePositives))
	c.checkIfPresent(alpha, "false_negatives", float64(beta.SumFalseNegatives))
	c.checkIfPresent(alpha, "hits", float64(beta.Hits))
	c.checkIfPresent(alpha, "insertions", float64(beta.TotalInsertions))
	c.checkIfPresent(alpha, "deletions", float64(beta.TotalDeletions))
	c.checkIfPresent(alpha, "substitutions", float64(beta.TotalSubstitutions))

	return c.report(algo.AlgDPAlign)
}

// CompareEpoch compares the positive-class counts and derived rates.
func (v *Validator) CompareEpoch(alpha map[string]float64, beta *algo.EpochResult) *Report {
	c := newCmp(v.Tolerance)

	tp := float64(beta.TruePositives[algo.PositiveLabel])
	fp := float64(beta.FalsePositives[algo.PositiveLabel])
	fn := float64(beta.FalseNegatives[algo.PositiveLabel])

	c.checkIfPresent(alpha, "true_positives", tp)
	c.checkIfPresent(alpha, "false_positives", fp)
	c.checkIfPresent(alpha, "false_negatives", fn)

	sen, pre, f1 := metricsFromCounts(tp, fp, fn)
	c.checkIfPresent(alpha, "sensitivity", sen)
	c.checkIfPresent(alpha, "precision", pre)
	c.checkIfPresent(alpha, "f1_score", f1)

	return c.report(algo.AlgEpoch)
}

// CompareOverlap compares positive-class hit/miss/false-alarm counts
// and derived rates.
func (v *Validator) CompareOverlap(alpha map[string]float64, beta *algo.OverlapResult) *Report {
	c := newCmp(v.Tolerance)

	tp := float64(beta.Hits[algo.PositiveLabel])
	fp := float64(beta.FalseAlarms[algo.PositiveLabel])
	fn := float64(beta.Misses[algo.PositiveLabel])

	c.checkIfPresent(alpha, "true_positives", tp)
	c.checkIfPresent(alpha, "false_positives", fp)
	c.checkIfPresent(alpha, "false_negatives", fn)

	sen, pre, f1 := metricsFromCounts(tp, fp, fn)
	c.checkIfPresent(alpha, "sensitivity", sen)
	c.checkIfPresent(alpha, "precision", pre)
	c.checkIfPresent(alpha, "f1_score", f1)

	return c.report(algo.AlgOverlap)
}

// CompareIRA compares the multi-class kappa and any per-label kappas
// the oracle reported (flattened as "kappa_<label>").
func (v *Validator) CompareIRA(alpha map[string]float64, beta *algo.IRAResult) *Report {
	c := newCmp(v.Tolerance)

	c.checkIfPresent(alpha, "kappa", beta.MultiClassKappa)
	for label, k := range beta.PerLabelKappa {
		c.checkIfPresent(alpha, "kappa_"+label, k)
	}

	return c.report(algo.AlgIRA)
}
