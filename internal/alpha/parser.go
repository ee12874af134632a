// Package alpha adapts the legacy NEDC scoring tool: it runs the tool
// as a subprocess and parses its text summaries into flat metric maps.
// The rest of the system treats it as an opaque oracle behind the
// Runner interface.
package alpha

import (
	"regexp"
	"strconv"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
)

// Metrics is the oracle's flat metric map for one algorithm.
type Metrics map[string]float64

// ResultMap holds parsed oracle output for every algorithm found in a
// summary.
type ResultMap map[algo.Algorithm]Metrics

var sectionRes = map[algo.Algorithm]*regexp.Regexp{
	algo.AlgDPAlign: regexp.MustCompile(`(?s)NEDC DP ALIGNMENT SCORING SUMMARY.*?(?:\n={70,}|$)`),
	algo.AlgEpoch:   regexp.MustCompile(`(?s)NEDC EPOCH SCORING SUMMARY.*?(?:\n={70,}|$)`),
	algo.AlgOverlap: regexp.MustCompile(`(?s)NEDC OVERLAP SCORING SUMMARY.*?(?:\n={70,}|$)`),
	algo.AlgTAES:    regexp.MustCompile(`(?s)NEDC TAES SCORING SUMMARY.*?(?:\n={70,}|$)`),
	algo.AlgIRA:     regexp.MustCompile(`(?s)NEDC INTER-RATER AGREEMENT SUMMARY.*?(?:\n={70,}|$)`),
}

var (
	cohensKappaRe = regexp.MustCompile(`Cohen's Kappa:\s+(-?\d+\.?\d*)`)
	multiKappaRe  = regexp.MustCompile(`Multi-Class Kappa:\s+(-?\d+\.?\d*)`)
	labelKappaRe  = regexp.MustCompile(`Label:\s+(\w+)\s+Kappa:\s+(-?\d+\.?\d*)`)
)

// ParseSummary extracts every algorithm section present in a NEDC
// summary text. Sections or metrics that are absent are simply left
// out of the result; the validator skips metrics the oracle did not
// report, except for TAES counts, which it reads as 0.
func ParseSummary(text string) ResultMap {
	out := make(ResultMap)
	for alg, re := range sectionRes {
		section := re.FindString(text)
		if section == "" {
			continue
		}
		var m Metrics
		if alg == algo.AlgIRA {
			m = parseIRASection(section)
		} else {
			m = parseCountSection(section)
		}
		if len(m) > 0 {
			out[alg] = m
		}
	}
	return out
}

// parseCountSection pulls the shared rate and count lines out of a DP,
// Epoch, Overlap or TAES summary section.
func parseCountSection(section string) Metrics {
	m := make(Metrics)

	putPct(m, section, "sensitivity", `Sensitivity \(TPR, Recall\)`)
	putPct(m, section, "specificity", `Specificity \(TNR\)`)
	putPct(m, section, "precision", `Precision \(PPV\)`)
	putFloat(m, section, "f1_score", `F1 Score \(F Ratio\)`)
	putPct(m, section, "accuracy", `Accuracy`)

	putFloat(m, section, "true_positives", `True Positives \(TP\)`)
	putFloat(m, section, "true_negatives", `True Negatives \(TN\)`)
	putFloat(m, section, "false_positives", `False Positives \(FP\)`)
	putFloat(m, section, "false_negatives", `False Negatives \(FN\)`)

	putFloat(m, section, "insertions", `Insertions`)
	putFloat(m, section, "deletions", `Deletions`)
	putFloat(m, section, "substitutions", `Substitutions`)
	putFloat(m, section, "hits", `Hits`)

	return m
}

func parseIRASection(section string) Metrics {
	m := make(Metrics)
	if g := cohensKappaRe.FindStringSubmatch(section); g != nil {
		m["kappa"], _ = strconv.ParseFloat(g[1], 64)
	} else if g := multiKappaRe.FindStringSubmatch(section); g != nil {
		m["kappa"], _ = strconv.ParseFloat(g[1], 64)
	}
	for _, g := range labelKappaRe.FindAllStringSubmatch(section, -1) {
		v, err := strconv.ParseFloat(g[2], 64)
		if err == nil {
			m["kappa_"+g[1]] = v
		}
	}
	return m
}

func putPct(m Metrics, text, key, label string) {
	re := regexp.MustCompile(label + `:\s+(-?\d+\.?\d*)%`)
	if g := re.FindStringSubmatch(text); g != nil {
		v, err := strconv.ParseFloat(g[1], 64)
		if err == nil {
			m[key] = v / 100.0
		}
	}
}

func putFloat(m Metrics, text, key, label string) {
	re := regexp.MustCompile(label + `:\s+(-?\d+\.?\d*)`)
	if g := re.FindStringSubmatch(text); g != nil {
		v, err := strconv.ParseFloat(g[1], 64)
		if err == nil {
			m[key] = v
		}
	}
}
