package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/alpha"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/validation"
)

// Outcome is the result of one evaluation: whichever pipelines ran,
// the parity report when both did, and wall times from the monotonic
// clock. It serialises to the wire/cache JSON shape.
type Outcome struct {
	AlphaResult  alpha.Metrics      `json:"alpha_result,omitempty"`
	BetaResult   algo.Result        `json:"beta_result,omitempty"`
	ParityPassed *bool              `json:"parity_passed,omitempty"`
	ParityReport *validation.Report `json:"parity_report,omitempty"`
	AlphaTime    float64            `json:"alpha_time,omitempty"`
	BetaTime     float64            `json:"beta_time,omitempty"`
	Speedup      float64            `json:"speedup,omitempty"`
}

// Orchestrator runs the reference and new implementations and
// validates parity. Parity failure is recorded, never an error.
type Orchestrator struct {
	Alpha     alpha.Runner
	Beta      *BetaPipeline
	Validator *validation.Validator
}

// NewOrchestrator wires an orchestrator with the default tolerance.
func NewOrchestrator(runner alpha.Runner, beta *BetaPipeline) *Orchestrator {
	return &Orchestrator{
		Alpha:     runner,
		Beta:      beta,
		Validator: validation.NewValidator(),
	}
}

// Evaluate runs the selected pipelines on one file pair for one
// algorithm.
func (o *Orchestrator) Evaluate(ctx context.Context, refPath, hypPath string, alg algo.Algorithm, pipeline Pipeline) (*Outcome, error) {
	out := &Outcome{}

	if pipeline == PipelineDual || pipeline == PipelineAlpha {
		if o.Alpha == nil {
			return nil, fmt.Errorf("reference pipeline requested but no alpha runner configured")
		}
		start := time.Now()
		alphaAll, err := o.Alpha.Evaluate(ctx, refPath, hypPath)
		out.AlphaTime = time.Since(start).Seconds()
		if err != nil {
			return nil, fmt.Errorf("alpha pipeline: %w", err)
		}
		out.AlphaResult = alphaAll[alg]
	}

	if pipeline.UsesBeta() {
		start := time.Now()
		betaRes, err := o.Beta.Evaluate(alg, refPath, hypPath)
		out.BetaTime = time.Since(start).Seconds()
		if err != nil {
			return nil, fmt.Errorf("beta pipeline: %w", err)
		}
		out.BetaResult = betaRes
	}

	if pipeline == PipelineDual {
		report, err := o.Validator.Compare(out.AlphaResult, out.BetaResult)
		if err != nil {
			return nil, fmt.Errorf("parity validation: %w", err)
		}
		out.ParityReport = report
		passed := report.Passed
		out.ParityPassed = &passed
		out.Speedup = speedup(out.AlphaTime, out.BetaTime)
	}

	return out, nil
}

// speedup is alpha time over beta time, 0 when beta took no time.
func speedup(alphaTime, betaTime float64) float64 {
	if betaTime > 0 {
		return alphaTime / betaTime
	}
	return 0
}
