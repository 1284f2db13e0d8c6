// Command orchestrator wires config, logging, the engine pool, and the
// control-plane HTTP surface together and runs until SIGINT/SIGTERM,
// following the teacher's main() shape: build dependencies, start the
// server in a goroutine, block on a signal channel, shut down gracefully.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shoxrux/bughouse-orchestrator/internal/apiserver"
	"github.com/shoxrux/bughouse-orchestrator/internal/config"
	"github.com/shoxrux/bughouse-orchestrator/internal/controller"
	"github.com/shoxrux/bughouse-orchestrator/internal/enginepool"
	"github.com/shoxrux/bughouse-orchestrator/internal/logging"
	"github.com/shoxrux/bughouse-orchestrator/internal/uci"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Using engine at: %s", cfg.EngineBinary)

	logger, err := logging.New(os.Getenv("DEBUG") == "true")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	spawn := func(name string) (*uci.Transport, error) {
		return uci.New(name, cfg.EngineBinary, nil, logger)
	}
	pool := enginepool.New(enginepool.Config{
		Capacity:     cfg.PoolCapacity,
		IdleTTL:      cfg.PoolIdleTTL,
		ReapInterval: cfg.PoolReapInterval,
		WarmFloor:    cfg.PoolWarmFloor,
	}, spawn, logger)

	ctrlCfg := controller.Config{
		ThinkTimeMs:    cfg.ThinkTimeMs,
		EvalDepth:      cfg.EvalDepth,
		VariantPath:    cfg.VariantPath,
		ClockAllowance: cfg.ClockAllowance,
		LoopDelay:      cfg.LoopDelay,
		BiasStrategy:   cfg.BiasStrategy,
	}
	_, router := apiserver.New(pool, ctrlCfg, logger)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		log.Printf("Starting bughouse orchestrator on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Shutting down engine pool...")
	pool.Shutdown()
	log.Println("Server exiting")
}
