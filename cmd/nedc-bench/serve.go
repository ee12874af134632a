package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/alpha"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/cache"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/config"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/logger"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/metrics"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/orchestration"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/server"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/store"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the evaluation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}
			if db, _ := cmd.Flags().GetString("db"); db != "" {
				cfg.DBPath = db
			}

			if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			params, paramStore, err := loadParams(cfg)
			if err != nil {
				return err
			}

			archive, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open job archive: %w", err)
			}
			defer archive.Close()

			var runner alpha.Runner
			if cfg.AlphaCommand != "" {
				runner = alpha.NewCommandRunner(strings.Fields(cfg.AlphaCommand)...)
			}
			orch := orchestration.NewOrchestrator(runner, orchestration.NewBetaPipeline(params))

			c := cache.New(cfg.RedisURL, cfg.CacheTTL)
			prom := metrics.NewProm()
			srv := server.NewServer(cfg, orch, c, archive, prom)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if cfg.ParamsPath != "" {
				if err := config.WatchParams(ctx, cfg.ParamsPath, paramStore); err != nil {
					slog.Warn("params watch unavailable", "err", err)
				}
			}

			go srv.RunWorker(ctx)

			httpSrv := &http.Server{
				Addr:    cfg.Addr,
				Handler: srv,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("nedc-bench listening", "addr", cfg.Addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				slog.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides ADDR)")
	cmd.Flags().String("db", "", "job archive path (overrides DB_PATH)")
	return cmd
}

func loadParams(cfg config.Config) (algo.Params, *config.ParamStore, error) {
	params := algo.DefaultParams()
	if cfg.ParamsPath != "" {
		var err error
		params, err = config.LoadParams(cfg.ParamsPath)
		if err != nil {
			return params, nil, fmt.Errorf("load params: %w", err)
		}
	}
	return params, config.NewParamStore(params), nil
}
