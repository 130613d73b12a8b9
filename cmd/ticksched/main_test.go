package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	flagConfig, flagPolicy, flagCSV = "", "", ""

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestSimulate_Default(t *testing.T) {
	out := execute(t, "simulate", "--ticks", "2048")
	assert.Contains(t, out, "2,048 ticks")
	assert.Contains(t, out, "leds: red=4 green=2 yellow=0 toggles")
}

func TestSimulate_ConfigAndCSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "trace.csv")
	out := execute(t, "simulate", "-n", "1024",
		"--config", filepath.Join("..", "..", "config.yml"),
		"--csv", csvPath, "--log-level", "error")
	assert.Contains(t, out, "yellow=16")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Dispatch")
}

func TestSimulate_BadPolicy(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"simulate", "--policy", "lottery"})
	assert.Error(t, cmd.Execute())
}

func TestRun_Duration(t *testing.T) {
	out := execute(t, "run", "--duration", "50ms", "--rate", "1000")
	assert.Contains(t, out, "leds:")
}

func TestTickRate(t *testing.T) {
	tests := map[string]struct {
		args []string
		want int
	}{
		"configured rate by default": {want: 100},
		"flag overrides":             {args: []string{"--rate", "50"}, want: 50},
		"non-positive flag ignored":  {args: []string{"--rate", "0"}, want: 100},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cmd := newRunCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))
			assert.Equal(t, tt.want, tickRate(cmd, 100))
		})
	}
}
