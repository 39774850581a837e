package referee

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Roles passed to agents as their final argument. RoleFirst plays the odd
// holes and moves first; RoleSecond plays the even holes.
const (
	RoleFirst  = "Joueur1"
	RoleSecond = "Joueur2"
)

// AgentSpec describes how to launch one agent.
//
// AgentSpec is a value type: it carries identity and launch configuration
// but no runtime state (no process handles, no pipes).
type AgentSpec struct {
	// Name is the display name used in console output ("A" or "B").
	Name string `yaml:"name,omitempty"`

	// Role is appended as the last argument. Defaults to RoleFirst for
	// the first agent and RoleSecond for the second.
	Role string `yaml:"role,omitempty"`

	// Command is the executable, resolved via PATH.
	Command string `yaml:"command"`

	// Args are placed between Command and Role
	// (e.g. "-u", "player_adapter.py" for an interpreted agent).
	Args []string `yaml:"args,omitempty"`

	// Dir is the working directory. Empty inherits the referee's.
	Dir string `yaml:"dir,omitempty"`

	// Env holds KEY=VALUE overrides merged onto the referee's environment.
	Env map[string]string `yaml:"env,omitempty"`
}

// Argv returns the full argument vector after Command: Args then Role.
func (s AgentSpec) Argv() []string {
	argv := make([]string, 0, len(s.Args)+1)
	argv = append(argv, s.Args...)
	if s.Role != "" {
		argv = append(argv, s.Role)
	}
	return argv
}

// Clone returns a deep copy of s, cloning Args and Env.
func (s AgentSpec) Clone() AgentSpec {
	s.Args = slices.Clone(s.Args)
	s.Env = maps.Clone(s.Env)
	return s
}

// Validate checks that s can be handed to a Launcher.
func (s AgentSpec) Validate() error {
	if s.Name == "" {
		return errors.New("agent name is required")
	}
	if strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("agent %s: command is required", s.Name)
	}
	if strings.ContainsRune(s.Command, 0) {
		return fmt.Errorf("agent %s: command contains null byte", s.Name)
	}
	for i, arg := range s.Argv() {
		if strings.ContainsRune(arg, 0) {
			return fmt.Errorf("agent %s: argument %d contains null byte", s.Name, i)
		}
	}
	if err := ValidateEnv(s.Env); err != nil {
		return fmt.Errorf("agent %s: %w", s.Name, err)
	}
	return nil
}

// ValidateEnv rejects environment keys that cannot be passed to a process.
func ValidateEnv(env map[string]string) error {
	for k, v := range env {
		switch {
		case k == "":
			return errors.New("env: empty key")
		case strings.ContainsAny(k, "=\x00"):
			return fmt.Errorf("env: invalid key %q", k)
		case strings.ContainsRune(v, 0):
			return fmt.Errorf("env: value for %q contains null byte", k)
		}
	}
	return nil
}

// MergeEnv returns base with overrides applied. Keys in overrides replace
// matching KEY=... entries in base; new keys are appended in sorted order.
// Returns nil when overrides is empty so exec.Cmd inherits the parent env.
func MergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	merged := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[k]; ok {
			continue
		}
		merged = append(merged, kv)
	}
	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		merged = append(merged, k+"="+overrides[k])
	}
	return merged
}
