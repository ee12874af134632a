// Package algo implements the NEDC EEG scoring algorithms: DP
// alignment, epoch scoring, any-overlap scoring, time-aligned event
// scoring (TAES) and inter-rater agreement (Cohen's kappa).
//
// All scorers are stateless and safe for concurrent use; they never
// mutate their inputs. Counting semantics follow NEDC v6.0.0.
package algo

import "fmt"

// NullClass is the background sentinel label shared by every scorer:
// the sampling default for uncovered time and the DP padding token.
const NullClass = "null"

// PositiveLabel is the default positive class for TP/FP/FN reporting.
const PositiveLabel = "seiz"

// Algorithm identifies one of the five scoring methods.
type Algorithm string

const (
	AlgDPAlign Algorithm = "dp"
	AlgEpoch   Algorithm = "epoch"
	AlgOverlap Algorithm = "overlap"
	AlgIRA     Algorithm = "ira"
	AlgTAES    Algorithm = "taes"
)

// All returns the five algorithms in canonical order.
func All() []Algorithm {
	return []Algorithm{AlgDPAlign, AlgEpoch, AlgOverlap, AlgIRA, AlgTAES}
}

// ParseAlgorithm maps a wire token to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgDPAlign, AlgEpoch, AlgOverlap, AlgIRA, AlgTAES:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("unknown algorithm %q", s)
}

// Params is the NEDC-style scoring parameter block. One value is
// shared by every scorer in a run; it flows by value.
type Params struct {
	EpochDuration float64           `yaml:"epoch_duration"`
	NullClass     string            `yaml:"null_class"`
	LabelMap      map[string]string `yaml:"label_map"`
	GuardWidth    float64           `yaml:"guard_width"`
}

// DefaultParams returns the NEDC v6.0.0 defaults.
func DefaultParams() Params {
	return Params{
		EpochDuration: 1.0,
		NullClass:     NullClass,
		GuardWidth:    0.001,
	}
}

// Canon maps a raw annotation label through the label map, if one is
// configured. Unmapped labels pass through unchanged.
func (p Params) Canon(label string) string {
	if p.LabelMap == nil {
		return label
	}
	if mapped, ok := p.LabelMap[label]; ok {
		return mapped
	}
	return label
}
