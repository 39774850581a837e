package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmora/referee/internal/config"
)

// flagValues holds raw flag values; only flags the user set are applied.
type flagValues struct {
	configPath     string
	envFile        string
	agent          string
	agentA         string
	agentB         string
	startupTimeout time.Duration
	turnTimeout    time.Duration
	moveLimit      int
	gracePeriod    time.Duration
	logLevel       string
	logFormat      string
	metricsListen  string
}

func newFlagSet(v *flagValues) *pflag.FlagSet {
	defaults := config.Default()

	flagSet := pflag.NewFlagSet("referee", pflag.ContinueOnError)
	flagSet.StringVar(&v.configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&v.envFile, "env-file", "", "load environment from this file (default: .env if present)")
	flagSet.StringVar(&v.agent, "agent", "", "command line for both agents (default "+config.DefaultCommand+"); commands with a slash are relative to the working directory, bare names are searched on PATH")
	flagSet.StringVar(&v.agentA, "agent-a", "", "command line for agent A, overrides --agent")
	flagSet.StringVar(&v.agentB, "agent-b", "", "command line for agent B, overrides --agent")
	flagSet.DurationVar(&v.startupTimeout, "startup-timeout", defaults.StartupTimeout, "bound on each agent's first response")
	flagSet.DurationVar(&v.turnTimeout, "turn-timeout", defaults.TurnTimeout, "bound on every later response")
	flagSet.IntVar(&v.moveLimit, "move-limit", defaults.MoveLimit, "responses after which the game ends with RESULT LIMIT")
	flagSet.DurationVar(&v.gracePeriod, "grace-period", defaults.GracePeriod, "delay between SIGTERM and SIGKILL at teardown")
	flagSet.StringVar(&v.logLevel, "log-level", defaults.Log.Level, "diagnostic level: debug, info, warn, error")
	flagSet.StringVar(&v.logFormat, "log-format", defaults.Log.Format, "diagnostic format: text, json")
	flagSet.StringVar(&v.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address (e.g. :9464)")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

// loadConfig layers defaults, the YAML file, the environment and flags.
// help is true when usage was printed and the caller should exit cleanly.
func loadConfig(args []string) (cfg *config.Config, help bool, err error) {
	var v flagValues
	flagSet := newFlagSet(&v)
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil, true, nil
		}
		return nil, false, err
	}
	if h, _ := flagSet.GetBool("help"); h {
		printHelp(flagSet)
		return nil, true, nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, false, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if v.envFile != "" {
		err = config.LoadEnvFile(v.envFile, true)
	} else {
		err = config.LoadEnvFile(".env", false)
	}
	if err != nil {
		return nil, false, err
	}

	cfg, err = config.Load(v.configPath)
	if err != nil {
		return nil, false, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, false, err
	}
	applyFlags(flagSet, &v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, false, nil
}

func applyFlags(flagSet *pflag.FlagSet, v *flagValues, cfg *config.Config) {
	if flagSet.Changed("agent") {
		config.SetCommand(&cfg.Agents.A, v.agent)
		config.SetCommand(&cfg.Agents.B, v.agent)
	}
	if flagSet.Changed("agent-a") {
		config.SetCommand(&cfg.Agents.A, v.agentA)
	}
	if flagSet.Changed("agent-b") {
		config.SetCommand(&cfg.Agents.B, v.agentB)
	}
	if flagSet.Changed("startup-timeout") {
		cfg.StartupTimeout = v.startupTimeout
	}
	if flagSet.Changed("turn-timeout") {
		cfg.TurnTimeout = v.turnTimeout
	}
	if flagSet.Changed("move-limit") {
		cfg.MoveLimit = v.moveLimit
	}
	if flagSet.Changed("grace-period") {
		cfg.GracePeriod = v.gracePeriod
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = v.logLevel
	}
	if flagSet.Changed("log-format") {
		cfg.Log.Format = v.logFormat
	}
	if flagSet.Changed("metrics-listen") {
		cfg.Metrics.Listen = v.metricsListen
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `referee: arbitrate one game between two agent executables.

Agent A is started as "<command> <args...> Joueur1" and moves first; agent B
is started with Joueur2. A receives START, each validated move is forwarded
to the other agent, and the game ends on a RESULT line, a disqualification
(timeout or malformed move) or the move limit.

Settings are layered: defaults, --config YAML, environment (REFEREE_*,
optionally from --env-file or ./.env), then flags.

Usage:
  referee [flags]

Examples:
  # Two copies of the same bot
  referee --agent ./player

  # Interpreted bot during development
  referee --agent "python3 -u awale_game/player_adapter.py"

  # Bot against bot with debug logs and metrics
  referee --agent-a ./alpha --agent-b ./beta --log-level debug --metrics-listen :9464

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
