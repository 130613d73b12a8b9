package sched

import (
	"fmt"
	"os"
	"strings"

	yaml "github.com/goccy/go-yaml"
)

// Policy selects the dispatch algorithm.
type Policy int

const (
	// Basic runs every due task inside the timer interrupt.
	Basic Policy = iota
	// Cooperative runs tasks from the foreground in priority order, never
	// preempting a running body.
	Cooperative
	// Preemptive runs higher priority work from the interrupt that raised it.
	Preemptive
)

func (p Policy) String() string {
	switch p {
	case Basic:
		return "basic"
	case Cooperative:
		return "cooperative"
	case Preemptive:
		return "preemptive"
	default:
		return "unknown"
	}
}

// requiresPeriod reports whether every task must be periodic.
func (p Policy) requiresPeriod() bool { return p != Preemptive }

// ParsePolicy converts a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic", "np-basic":
		return Basic, nil
	case "cooperative", "np", "nonpreemptive":
		return Cooperative, nil
	case "preemptive", "pre":
		return Preemptive, nil
	default:
		return Basic, fmt.Errorf("unknown policy %q", s)
	}
}

// Config mirrors the scheduler section of the YAML file.
type Config struct {
	Policy         string `yaml:"policy"`           // preemptive (by default)
	Tasks          int    `yaml:"tasks"`            // 10 (by default)
	TicksPerSecond int    `yaml:"ticks_per_second"` // 1024 (by default)
	ThreadBlocks   int    `yaml:"thread_blocks"`    // 4 (by default)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Policy:         Preemptive.String(),
		Tasks:          10,
		TicksPerSecond: 1024,
		ThreadBlocks:   4,
	}
}

// Clamp applies the sanity limits in place.
func (c *Config) Clamp() {
	if c.Tasks <= 0 {
		c.Tasks = 10
	} else if c.Tasks > MaxTasks {
		c.Tasks = MaxTasks
	}
	if c.TicksPerSecond <= 0 {
		c.TicksPerSecond = 1024
	}
	if c.ThreadBlocks < 0 {
		c.ThreadBlocks = 0
	}
	if c.Policy == "" {
		c.Policy = Preemptive.String()
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only. A
// missing file also yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Clamp()
	if _, err := ParsePolicy(cfg.Policy); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
