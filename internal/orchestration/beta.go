// Package orchestration runs the reference (alpha) and new (beta)
// scoring pipelines, times them, and validates parity between their
// results.
package orchestration

import (
	"fmt"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/annot"
)

// Pipeline selects which implementations run for an evaluation.
type Pipeline string

const (
	PipelineDual  Pipeline = "dual"
	PipelineAlpha Pipeline = "alpha"
	PipelineBeta  Pipeline = "beta"
)

// ParsePipeline accepts both the wire names and the short forms.
func ParsePipeline(s string) (Pipeline, error) {
	switch s {
	case "dual", "both":
		return PipelineDual, nil
	case "alpha", "reference-only":
		return PipelineAlpha, nil
	case "beta", "new-only":
		return PipelineBeta, nil
	}
	return "", fmt.Errorf("unknown pipeline %q", s)
}

// UsesBeta reports whether the pipeline runs the new implementation.
// Only such pipelines are cacheable; the alpha-only path may have
// external side effects.
func (p Pipeline) UsesBeta() bool {
	return p == PipelineDual || p == PipelineBeta
}

// BetaPipeline is the new implementation: parse the annotation files
// and run the requested in-process scorer.
type BetaPipeline struct {
	Params algo.Params
}

// NewBetaPipeline builds a pipeline around one parameter block.
func NewBetaPipeline(p algo.Params) *BetaPipeline {
	return &BetaPipeline{Params: p}
}

// Evaluate parses both files and scores them with one algorithm.
func (b *BetaPipeline) Evaluate(alg algo.Algorithm, refPath, hypPath string) (algo.Result, error) {
	ref, err := annot.ParseFile(refPath)
	if err != nil {
		return nil, fmt.Errorf("parse reference: %w", err)
	}
	hyp, err := annot.ParseFile(hypPath)
	if err != nil {
		return nil, fmt.Errorf("parse hypothesis: %w", err)
	}
	return b.Score(alg, ref, hyp)
}

// Score runs one scorer over already-parsed files. Labels pass
// through the configured label map first.
func (b *BetaPipeline) Score(alg algo.Algorithm, ref, hyp *annot.File) (algo.Result, error) {
	refEvents := b.canon(ref.Events)
	hypEvents := b.canon(hyp.Events)
	duration := ref.Duration

	switch alg {
	case algo.AlgDPAlign:
		return algo.NewDPAligner().Align(labelSeq(refEvents), labelSeq(hypEvents)), nil
	case algo.AlgEpoch:
		return algo.NewEpochScorer(b.Params).Score(refEvents, hypEvents, duration), nil
	case algo.AlgOverlap:
		return algo.OverlapScorer{}.Score(refEvents, hypEvents), nil
	case algo.AlgTAES:
		return algo.NewTAESScorer().Score(refEvents, hypEvents), nil
	case algo.AlgIRA:
		return algo.NewIRAScorer(b.Params).Score(refEvents, hypEvents, duration), nil
	}
	return nil, fmt.Errorf("unsupported algorithm %q", alg)
}

func (b *BetaPipeline) canon(events []annot.Event) []annot.Event {
	if b.Params.LabelMap == nil {
		return events
	}
	out := make([]annot.Event, len(events))
	copy(out, events)
	for i := range out {
		out[i].Label = b.Params.Canon(out[i].Label)
	}
	return out
}

func labelSeq(events []annot.Event) []string {
	labels := make([]string, len(events))
	for i, ev := range events {
		labels[i] = ev.Label
	}
	return labels
}
