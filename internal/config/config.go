// Package config loads process configuration from the environment,
// generalizing the teacher's STOCKFISH_PATH-plus-fallback-list pattern and
// hardcoded pool size into a full set of env-driven knobs with defaults
// (SPEC_FULL.md §2 Configuration).
package config

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shoxrux/bughouse-orchestrator/internal/boardstate/variant"
)

// Config bundles every env-tunable knob the orchestrator needs at startup.
type Config struct {
	EngineBinary string
	ListenAddr   string

	PoolCapacity     int
	PoolIdleTTL      time.Duration
	PoolReapInterval time.Duration
	PoolWarmFloor    int

	ThinkTimeMs    int
	EvalDepth      int
	VariantPath    string
	ClockAllowance time.Duration
	LoopDelay      time.Duration
	BiasStrategy   variant.Strategy
}

// Load reads Config from the environment, falling back to built-in
// defaults (pool capacity 9, 1000ms think time, 5m clock allowance, ...)
// where no override is present or an override fails to parse.
func Load() (Config, error) {
	enginePath, err := findEngineBinary()
	if err != nil {
		return Config{}, err
	}

	return Config{
		EngineBinary:     enginePath,
		ListenAddr:       envString("LISTEN_ADDR", ":8080"),
		PoolCapacity:     envInt("ENGINE_POOL_CAPACITY", 9),
		PoolIdleTTL:      envDuration("ENGINE_POOL_IDLE_TTL", 10*time.Minute),
		PoolReapInterval: envDuration("ENGINE_POOL_REAP_INTERVAL", 5*time.Minute),
		PoolWarmFloor:    envInt("ENGINE_POOL_WARM_FLOOR", 3),
		ThinkTimeMs:      envInt("BOT_THINK_TIME_MS", 1000),
		EvalDepth:        envInt("BOT_EVAL_DEPTH", 12),
		VariantPath:      envString("ENGINE_VARIANT_PATH", ""),
		ClockAllowance:   envDuration("CLOCK_ALLOWANCE", 5*time.Minute),
		LoopDelay:        envDuration("PARTNER_LOOP_DELAY", 150*time.Millisecond),
		BiasStrategy:     envBiasStrategy("BOT_BIAS_STRATEGY", variant.RoyalPiece),
	}, nil
}

// envBiasStrategy parses spec.md §4.6.4's "chosen at build time" forcing-
// line strategy name into a variant.Strategy, defaulting to def when unset
// or unrecognized.
func envBiasStrategy(key string, def variant.Strategy) variant.Strategy {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "royal-piece", "royal":
		return variant.RoyalPiece
	case "high-value", "highvalue":
		return variant.HighValue
	case "proximity":
		return variant.Proximity
	default:
		return def
	}
}

// findEngineBinary locates the UCI engine executable, adapted from the
// teacher's findStockfish: an explicit env var first, then a list of
// common install locations for a bughouse-capable engine (e.g. a
// Fairy-Stockfish build, since vanilla Stockfish has no drop support).
func findEngineBinary() (string, error) {
	if path := os.Getenv("ENGINE_PATH"); path != "" {
		return path, nil
	}
	possiblePaths := []string{
		"fairy-stockfish", "fairy-stockfish_x86-64",
		"/usr/games/fairy-stockfish", "/usr/bin/fairy-stockfish",
		"/opt/homebrew/bin/fairy-stockfish", "/usr/local/bin/fairy-stockfish",
		"./fairy-stockfish",
	}
	for _, path := range possiblePaths {
		if p, err := exec.LookPath(path); err == nil {
			return p, nil
		}
	}
	return "", os.ErrNotExist
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
