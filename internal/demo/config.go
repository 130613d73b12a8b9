// Package demo is the startup wiring: it reads the application file and
// registers the sample tasks it describes.
package demo

import (
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"

	"ticksched/internal/sched"
)

// File mirrors the application YAML file.
type File struct {
	Scheduler  sched.Config    `yaml:"scheduler"`
	Log        LogConfig       `yaml:"log"`
	Trace      TraceConfig     `yaml:"trace"`
	Semaphores []SemaphoreSpec `yaml:"semaphores"`
	Tasks      []TaskSpec      `yaml:"tasks"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // info (by default)
	Format string `yaml:"format"` // text (by default)
}

// TraceConfig selects the event trace output.
type TraceConfig struct {
	CSV string `yaml:"csv"` // empty: no CSV file
}

// SemaphoreSpec declares a named semaphore.
type SemaphoreSpec struct {
	Name    string `yaml:"name"`
	Initial uint8  `yaml:"initial"`
}

// TaskSpec declares one task. Job selects the body:
//
//	blink    toggle LED
//	post     post Semaphore
//	consume  thread: wait on Semaphore up to Batch times, toggle LED each time
//	chain    toggle LED, then Activate Target after Delay ticks
//	spin     burn Spin loop iterations
type TaskSpec struct {
	Name      string   `yaml:"name"`
	Priority  uint8    `yaml:"priority"`
	Period    uint16   `yaml:"period"`
	Phasing   uint16   `yaml:"phasing"`
	Flags     []string `yaml:"flags"`
	Job       string   `yaml:"job"`
	LED       string   `yaml:"led"`
	Semaphore string   `yaml:"semaphore"`
	Batch     int      `yaml:"batch"`
	Timeout   uint16   `yaml:"timeout"`
	Target    uint8    `yaml:"target"`
	Delay     uint16   `yaml:"delay"`
	Spin      int      `yaml:"spin"`
}

// DefaultFile is the demo used when no file is given: two periodic blinkers
// and an event-only task nobody activates.
func DefaultFile() File {
	return File{
		Scheduler: sched.DefaultConfig(),
		Log:       LogConfig{Level: "info", Format: "text"},
		Tasks: []TaskSpec{
			{Name: "red", Priority: 3, Period: 512, Job: "blink", LED: "red"},
			{Name: "green", Priority: 5, Period: 1024, Job: "blink", LED: "green"},
			{Name: "yellow", Priority: 4, Job: "blink", LED: "yellow"},
		},
	}
}

// Load reads the application file; empty path = DefaultFile.
func Load(path string) (File, error) {
	f := DefaultFile()
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read %s: %w", path, err)
	}
	f.Tasks = nil
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}

	f.Scheduler.Clamp()
	if _, err := sched.ParsePolicy(f.Scheduler.Policy); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
