// Package config loads the referee's configuration.
//
// Sources are layered, lowest precedence first: built-in defaults, a YAML
// file, a .env file plus the process environment, then command-line flags
// (applied by cmd/referee).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dmora/referee"
	"github.com/dmora/referee/internal/logging"
)

// DefaultCommand is the agent executable used when none is configured. It is
// resolved against the agent's working directory, not PATH.
const DefaultCommand = "./player.exe"

// DefaultGracePeriod is the SIGTERM→SIGKILL delay used during teardown.
const DefaultGracePeriod = 500 * time.Millisecond

// Config is the full referee configuration.
type Config struct {
	referee.Config `yaml:",inline"`

	// GracePeriod is how long an agent may take to exit after SIGTERM.
	GracePeriod time.Duration `yaml:"grace_period"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Agents  AgentsConfig  `yaml:"agents"`
}

// LogConfig selects diagnostic verbosity and encoding.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is a TCP address such as ":9464". Empty disables metrics.
	Listen string `yaml:"listen"`
}

// AgentsConfig holds the two launch specs. A moves first.
type AgentsConfig struct {
	A referee.AgentSpec `yaml:"a"`
	B referee.AgentSpec `yaml:"b"`
}

// Default returns the built-in configuration: both sides run DefaultCommand
// with the standard roles and tournament timing.
func Default() *Config {
	return &Config{
		Config:      referee.DefaultConfig(),
		GracePeriod: DefaultGracePeriod,
		Log:         LogConfig{Level: "info", Format: logging.FormatText},
		Agents: AgentsConfig{
			A: referee.AgentSpec{Name: "A", Role: referee.RoleFirst, Command: DefaultCommand},
			B: referee.AgentSpec{Name: "B", Role: referee.RoleSecond, Command: DefaultCommand},
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is only
// an error when required is true.
func LoadEnvFile(path string, required bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

// Environment variables read by ApplyEnv.
const (
	EnvAgent          = "REFEREE_AGENT"
	EnvAgentA         = "REFEREE_AGENT_A"
	EnvAgentB         = "REFEREE_AGENT_B"
	EnvStartupTimeout = "REFEREE_STARTUP_TIMEOUT"
	EnvTurnTimeout    = "REFEREE_TURN_TIMEOUT"
	EnvMoveLimit      = "REFEREE_MOVE_LIMIT"
	EnvGracePeriod    = "REFEREE_GRACE_PERIOD"
	EnvLogLevel       = "REFEREE_LOG_LEVEL"
	EnvLogFormat      = "REFEREE_LOG_FORMAT"
	EnvMetricsListen  = "REFEREE_METRICS_LISTEN"
)

// ApplyEnv overlays values found through lookup (normally os.LookupEnv).
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvAgent); ok {
		SetCommand(&c.Agents.A, v)
		SetCommand(&c.Agents.B, v)
	}
	if v, ok := get(EnvAgentA); ok {
		SetCommand(&c.Agents.A, v)
	}
	if v, ok := get(EnvAgentB); ok {
		SetCommand(&c.Agents.B, v)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvStartupTimeout, &c.StartupTimeout},
		{EnvTurnTimeout, &c.TurnTimeout},
		{EnvGracePeriod, &c.GracePeriod},
	}
	for _, d := range durations {
		if v, ok := get(d.key); ok {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	if v, ok := get(EnvMoveLimit); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMoveLimit, err)
		}
		c.MoveLimit = n
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := get(EnvLogFormat); ok {
		c.Log.Format = v
	}
	if v, ok := get(EnvMetricsListen); ok {
		c.Metrics.Listen = v
	}
	return nil
}

// SetCommand replaces spec's command line with a whitespace-separated
// "command arg..." string. Quoting is not interpreted.
func SetCommand(spec *referee.AgentSpec, commandLine string) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return
	}
	spec.Command = fields[0]
	spec.Args = fields[1:]
}

// normalize restores names and roles a partial YAML file may have blanked.
func (c *Config) normalize() {
	if c.Agents.A.Name == "" {
		c.Agents.A.Name = "A"
	}
	if c.Agents.B.Name == "" {
		c.Agents.B.Name = "B"
	}
	if c.Agents.A.Role == "" {
		c.Agents.A.Role = referee.RoleFirst
	}
	if c.Agents.B.Role == "" {
		c.Agents.B.Role = referee.RoleSecond
	}
}

// Validate checks the whole configuration and reports every problem.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Config.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.GracePeriod <= 0 {
		errs = append(errs, errors.New("grace_period must be positive"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (supported: text, json)", c.Log.Format))
	}
	if c.Agents.A.Name == c.Agents.B.Name {
		errs = append(errs, fmt.Errorf("agents must have distinct names, both are %q", c.Agents.A.Name))
	}
	for _, spec := range []referee.AgentSpec{c.Agents.A, c.Agents.B} {
		if err := spec.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
