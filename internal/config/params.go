package config

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
)

// paramsFile is the on-disk shape of the NEDC parameter block.
type paramsFile struct {
	EpochDuration float64           `yaml:"epoch_duration"`
	NullClass     string            `yaml:"null_class"`
	LabelMap      map[string]string `yaml:"label_map"`
	GuardWidth    float64           `yaml:"guard_width"`
}

// LoadParams reads a scoring parameter file. Missing fields keep
// their defaults.
func LoadParams(path string) (algo.Params, error) {
	p := algo.DefaultParams()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read params file: %w", err)
	}
	var pf paramsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return p, fmt.Errorf("parse params file: %w", err)
	}

	if pf.EpochDuration > 0 {
		p.EpochDuration = pf.EpochDuration
	}
	if pf.NullClass != "" {
		p.NullClass = pf.NullClass
	}
	if pf.LabelMap != nil {
		p.LabelMap = pf.LabelMap
	}
	if pf.GuardWidth > 0 {
		p.GuardWidth = pf.GuardWidth
	}
	return p, nil
}

// ParamStore holds the current parameter block and swaps it
// atomically on reload.
type ParamStore struct {
	v atomic.Value
}

// NewParamStore seeds the store with an initial block.
func NewParamStore(p algo.Params) *ParamStore {
	s := &ParamStore{}
	s.v.Store(p)
	return s
}

// Get returns the current parameter block by value.
func (s *ParamStore) Get() algo.Params {
	return s.v.Load().(algo.Params)
}

// Set replaces the parameter block.
func (s *ParamStore) Set(p algo.Params) {
	s.v.Store(p)
}
