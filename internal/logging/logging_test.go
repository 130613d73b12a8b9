package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerWithWriter(t *testing.T) {
	tests := map[string]struct {
		level  slog.Level
		format string
		want   []string
		reject []string
	}{
		"text format": {
			level:  slog.LevelInfo,
			format: "text",
			want:   []string{"msg=activated", "prio=3"},
		},
		"json format": {
			level:  slog.LevelInfo,
			format: "json",
			want:   []string{`"msg":"activated"`, `"prio":3`},
		},
		"level filtering": {
			level:  slog.LevelWarn,
			format: "text",
			reject: []string{"activated"},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(tt.level, tt.format, &buf)
			logger.Info("activated", "prio", 3)

			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
			for _, r := range tt.reject {
				assert.NotContains(t, buf.String(), r)
			}
		})
	}
}

func TestNewLoggerWithWriter_ChildLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelDebug, "text", &buf)
	logger.With("component", "sched").Debug("task registered", "prio", 5)

	assert.Contains(t, buf.String(), "component=sched")
	assert.Contains(t, buf.String(), "prio=5")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "ParseLevel(%q)", tt.input)
	}
}
