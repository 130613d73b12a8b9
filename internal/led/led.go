// Package led drives a simulated GPIO output port with one bit per LED.
package led

import (
	"log/slog"
	"math/bits"
	"strings"
)

// Color is a bit mask over the port pins.
type Color uint8

const (
	Red    Color = 0x10
	Green  Color = 0x20
	Yellow Color = 0x40
)

// ParseColor maps a color name; unknown names yield 0.
func ParseColor(name string) Color {
	switch strings.ToLower(name) {
	case "red":
		return Red
	case "green", "blue":
		return Green
	case "yellow":
		return Yellow
	default:
		return 0
	}
}

// Bank is an output port. It is meant to be driven from task bodies, which
// the scheduler never runs concurrently, so it carries no lock.
type Bank struct {
	enabled Color
	state   Color
	toggles [8]int
	logger  *slog.Logger
}

// NewBank returns a port with every pin disabled.
func NewBank(logger *slog.Logger) *Bank {
	return &Bank{logger: logger.With("component", "led")}
}

// Init configures colors as outputs and switches them off.
func (b *Bank) Init(colors Color) {
	b.enabled |= colors
	b.state &^= colors
}

// Set switches colors on or off. Pins not configured by Init are ignored.
func (b *Bank) Set(colors Color, on bool) {
	colors &= b.enabled
	if on {
		b.state |= colors
	} else {
		b.state &^= colors
	}
	b.logger.Debug("set", "colors", colors, "on", on)
}

// Toggle inverts colors.
func (b *Bank) Toggle(colors Color) {
	colors &= b.enabled
	b.state ^= colors
	for m := uint8(colors); m != 0; m &= m - 1 {
		b.toggles[bits.TrailingZeros8(m)]++
	}
	b.logger.Debug("toggle", "colors", colors, "state", b.state)
}

// State returns the lit pins.
func (b *Bank) State() Color { return b.state }

// Toggles returns how often the lowest pin of c has been toggled.
func (b *Bank) Toggles(c Color) int {
	if c == 0 {
		return 0
	}
	return b.toggles[bits.TrailingZeros8(uint8(c))]
}
