package rctransfer

import (
	"io"
	"os"
	"time"
)

// Default timings.
const (
	DefaultTimeout        = 250 * time.Millisecond
	DefaultInterFileDelay = time.Second
)

// Config holds session configuration.
type Config struct {
	// Format is the transmission format
	Format TransmissionFormat

	// User is the CP/M user number (0-15)
	User int

	// CharDelay is the pause after each character sent
	CharDelay time.Duration

	// InterFileDelay separates consecutive files
	InterFileDelay time.Duration

	// Padding fills the last record of a package (PadNUL or PadSUB)
	Padding byte

	// Conversion is applied to text files in the direction of the transfer
	Conversion Conversion

	// Echo shows every character transferred on Output
	Echo bool

	// ShowResponses shows remote responses instead of progress dots
	ShowResponses bool

	// Output receives the transcript (default os.Stdout)
	Output io.Writer

	// ProgressInterval is the minimum time between progress callbacks
	ProgressInterval time.Duration
}

// DefaultConfig returns a default configuration: package format, user 0,
// NUL padding, echo on, and the newline conversion for sending.
func DefaultConfig() *Config {
	return &Config{
		Format:           Package,
		User:             0,
		CharDelay:        0,
		InterFileDelay:   DefaultInterFileDelay,
		Padding:          PadNUL,
		Conversion:       DefaultConversion(false),
		Echo:             true,
		Output:           os.Stdout,
		ProgressInterval: 100 * time.Millisecond,
	}
}

// transcripts returns the transcript for echoed data (nil when echo is off)
// and the one for response progress, which is always shown.
func (c *Config) transcripts() (echo, console *Transcript) {
	out := c.Output
	if out == nil {
		out = os.Stdout
	}
	console = NewTranscript(out)
	console.ShowResponses = c.ShowResponses
	if c.Echo {
		echo = console
	}
	return echo, console
}
