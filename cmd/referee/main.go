// referee runs one game between two agent executables.
//
// Usage:
//
//	referee [flags]
//
// Each agent is started as "<command> <args...> <role>", A with Joueur1 and
// B with Joueur2. The game transcript goes to stdout; diagnostics go to
// stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmora/referee"
	"github.com/dmora/referee/channel"
	"github.com/dmora/referee/internal/logging"
	"github.com/dmora/referee/metrics"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, help, err := loadConfig(args)
	if err != nil {
		return err
	}
	if help {
		return nil
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var observer referee.Observer
	if cfg.Metrics.Listen != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observer = metrics.New(registry)
		srv, err := metrics.Serve(cfg.Metrics.Listen, registry, logger)
		if err != nil {
			return err
		}
		defer srv.Stop()
	}

	launcher := channel.NewLauncher(
		channel.WithGracePeriod(cfg.GracePeriod),
		channel.WithLogger(logger),
	)

	a, err := launcher.Start(ctx, cfg.Agents.A)
	if err != nil {
		return fmt.Errorf("launch agent %s: %w", cfg.Agents.A.Name, err)
	}
	b, err := launcher.Start(ctx, cfg.Agents.B)
	if err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.GracePeriod)
		defer cancel()
		_ = a.Stop(stopCtx)
		return fmt.Errorf("launch agent %s: %w", cfg.Agents.B.Name, err)
	}

	match := referee.NewMatch(a, b,
		referee.WithConfig(cfg.Config),
		referee.WithLogger(logger),
		referee.WithObserver(observer),
		referee.WithStopTimeout(2*cfg.GracePeriod),
	)
	_, err = match.Run(ctx)
	return err
}
