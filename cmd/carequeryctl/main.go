// carequeryctl loads the corpus and asks questions from the command line.
//
// Usage:
//
//	carequeryctl load -file records.jsonl
//	carequeryctl ask -q "Is metformin covered?" [-k 10] [-domain pharmacy] [-remote http://localhost:8080]
//	carequeryctl stats
//
// Configuration is read the same way as the API server (ENV, config/<env>.yaml, .env).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/bootstrap"
	"github.com/kailas-cloud/carequery/internal/config"
	logpkg "github.com/kailas-cloud/carequery/internal/logger"
	"github.com/kailas-cloud/carequery/internal/metrics"
)

const usage = `usage: carequeryctl <command> [flags]

commands:
  load    embed and index a corpus file (JSON array or JSONL)
  ask     answer a question
  stats   print the indexed document count`

var errUsage = errors.New(usage)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		cancel()
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		errorColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "load":
		return runLoad(ctx, args[1:])
	case "ask":
		return runAsk(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

// env holds what every local command needs.
type env struct {
	cfg     config.Config
	logger  *zap.Logger
	backend *bootstrap.Backend
}

func (e *env) Close() {
	e.backend.Close()
	_ = e.logger.Sync()
}

func openEnv(ctx context.Context) (*env, error) {
	name := config.GetEnv()
	cfg, err := config.Load(name)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if level == "" || level == "debug" {
		level = "warn"
	}
	logger, err := logpkg.NewLogger(name, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	bootstrap.SetupTracing(config.TracingConfig{})
	metrics.RegisterAll()

	backend, err := bootstrap.OpenBackend(ctx, cfg.Database, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	if cfg.Database.Driver == config.DriverMemory {
		warnColor.Fprintln(os.Stderr, "warning: memory driver keeps nothing between runs")
	}
	return &env{cfg: cfg, logger: logger, backend: backend}, nil
}
