package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/alpha"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/config"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/logger"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/orchestration"
)

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [ref.csv_bi hyp.csv_bi]",
		Short: "Score a file pair (or list pair) and print the results as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if err := logger.Init(cfg.LogLevel, ""); err != nil {
				return err
			}

			algName, _ := cmd.Flags().GetString("algorithm")
			pipelineStr, _ := cmd.Flags().GetString("pipeline")
			refList, _ := cmd.Flags().GetString("ref-list")
			hypList, _ := cmd.Flags().GetString("hyp-list")

			pipeline, err := orchestration.ParsePipeline(pipelineStr)
			if err != nil {
				return err
			}

			params, _, err := loadParams(cfg)
			if err != nil {
				return err
			}
			var runner alpha.Runner
			if cfg.AlphaCommand != "" {
				runner = alpha.NewCommandRunner(strings.Fields(cfg.AlphaCommand)...)
			}
			orch := orchestration.NewOrchestrator(runner, orchestration.NewBetaPipeline(params))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			// List mode: two parallel filename lists.
			if refList != "" || hypList != "" {
				if refList == "" || hypList == "" {
					return fmt.Errorf("--ref-list and --hyp-list must be given together")
				}
				alg, err := algo.ParseAlgorithm(algName)
				if err != nil {
					return err
				}
				batch, err := orch.EvaluateLists(ctx, refList, hypList, alg, pipeline, cfg.ParallelWorkers)
				if err != nil {
					return err
				}
				return enc.Encode(batch)
			}

			if len(args) != 2 {
				return fmt.Errorf("expected ref and hyp file arguments")
			}

			algorithms := []algo.Algorithm{}
			if algName == "all" {
				algorithms = algo.All()
			} else {
				alg, err := algo.ParseAlgorithm(algName)
				if err != nil {
					return err
				}
				algorithms = append(algorithms, alg)
			}

			out := make(map[algo.Algorithm]*orchestration.Outcome, len(algorithms))
			for _, alg := range algorithms {
				res, err := orch.Evaluate(ctx, args[0], args[1], alg, pipeline)
				if err != nil {
					return fmt.Errorf("%s: %w", alg, err)
				}
				out[alg] = res
			}
			return enc.Encode(out)
		},
	}

	cmd.Flags().String("algorithm", "all", "algorithm: dp, epoch, overlap, ira, taes, all")
	cmd.Flags().String("pipeline", "beta", "pipeline: dual, reference-only, new-only")
	cmd.Flags().String("ref-list", "", "file listing reference paths, one per line")
	cmd.Flags().String("hyp-list", "", "file listing hypothesis paths, one per line")
	return cmd
}
