// Package config loads service configuration from the environment and
// the NEDC-style scoring parameter file.
package config

import (
	"os"
	"strconv"
	"time"
)

// Version is the software version folded into cache keys; bump it to
// invalidate cached results across releases.
const Version = "1.0.0"

// Config is the service configuration, read once at startup.
type Config struct {
	Addr            string
	LogLevel        string
	LogFile         string
	RedisURL        string
	CacheTTL        time.Duration
	MaxWorkers      int
	ParallelWorkers int
	RequestsPerMin  int
	ScratchDir      string
	DBPath          string
	ParamsPath      string
	AlphaCommand    string
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:            envStr("ADDR", ":8000"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		LogFile:         envStr("LOG_FILE", ""),
		RedisURL:        envStr("REDIS_URL", "redis://redis:6379"),
		CacheTTL:        time.Duration(envInt("CACHE_TTL_SECONDS", 86400)) * time.Second,
		MaxWorkers:      envInt("MAX_WORKERS", 1),
		ParallelWorkers: envInt("PARALLEL_WORKERS", 4),
		RequestsPerMin:  envInt("REQUESTS_PER_MINUTE", 100),
		ScratchDir:      envStr("SCRATCH_DIR", os.TempDir()),
		DBPath:          envStr("DB_PATH", "nedc-bench.db"),
		ParamsPath:      envStr("PARAMS_FILE", ""),
		AlphaCommand:    envStr("ALPHA_COMMAND", ""),
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	if cfg.ParallelWorkers < 1 {
		cfg.ParallelWorkers = 1
	}
	return cfg
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
