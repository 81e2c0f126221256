// Package main is the command-line entry point for the safe-haven research tools.
//
// Every subcommand works from a named scenario (built-in or loaded from
// SAFEHAVEN_SCENARIO_FILE) and writes its result as msgpack under
// SAFEHAVEN_OUTPUT_DIR for the plotting layer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/aristath/safehaven/internal/config"
	"github.com/aristath/safehaven/internal/modules/scenarios"
	"github.com/aristath/safehaven/pkg/logger"
)

const usage = `usage: safehaven <command> [flags]

commands:
  categorize  bin annual returns and report counts and break-even payoff
  simulate    bootstrap trajectories at one allocation
  sweep       search the best allocation per quantile
  boundary    payoff x allocation grid and cost-effective boundary
  screen      judge a put chain against the efficient price
  stress      best put per price drop x IV increase scenario
  scenarios   list available scenarios
`

// errUsage marks command-line mistakes
var errUsage = errors.New("usage error")

type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	registry *scenarios.Registry
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"categorize": runCategorize,
	"simulate":   runSimulate,
	"sweep":      runSweep,
	"boundary":   runBoundary,
	"screen":     runScreen,
	"stress":     runStress,
	"scenarios":  runScenarios,
}

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		log.Fatal().Str("command", os.Args[1]).Msg("Unknown command")
	}

	registry, err := scenarios.NewRegistryFromFile(cfg.ScenarioFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.ScenarioFile).Msg("Failed to load scenarios")
	}

	// Cancel long simulations on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Warn().Msg("Interrupt received, cancelling")
		cancel()
	}()

	a := &app{cfg: cfg, log: log, registry: registry}
	err = cmd(ctx, a, os.Args[2:])
	cancel()

	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}
