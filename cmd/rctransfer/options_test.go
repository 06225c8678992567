package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/drunlade/go-rctransfer/rctransfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	args := []string{"rctransfer", "-p", "/dev/ttyUSB0", "--no-echo", "-u", "3",
		"--source-newlines", "CR,LF", "-t", "cpm-plaintext", "a.txt", "b.txt"}
	s, err := newCommandLine().parse(args, defaultSettings())
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", s.Port)
	assert.False(t, s.Echo)
	assert.Equal(t, 3, s.User)
	assert.Equal(t, []string{"CR", "LF"}, s.SourceNewlines)
	assert.Equal(t, "cpm-plaintext", s.Transmission)
	assert.Equal(t, []string{"a.txt", "b.txt"}, s.Files)
	assert.Equal(t, 115200, s.Baud, "defaults survive")
	assert.True(t, s.FlowControl)
}

func TestParseOverlaysOnlyGivenOptions(t *testing.T) {
	base := defaultSettings()
	base.Baud = 9600
	base.Echo = false
	base.Port = "/dev/ttyS1"

	s, err := newCommandLine().parse([]string{"rctransfer", "-r", "A:*.TXT"}, base)
	require.NoError(t, err)
	assert.Equal(t, 9600, s.Baud)
	assert.False(t, s.Echo)
	assert.Equal(t, "/dev/ttyS1", s.Port)
	assert.True(t, s.Receive)

	s, err = newCommandLine().parse([]string{"rctransfer", "--echo", "-b", "57600", "x"}, base)
	require.NoError(t, err)
	assert.True(t, s.Echo)
	assert.Equal(t, 57600, s.Baud)
}

func TestParseNegativeFlagWins(t *testing.T) {
	s, err := newCommandLine().parse([]string{"rctransfer", "--flow-control", "--no-flow-control", "--shared-port", "x"}, defaultSettings())
	require.NoError(t, err)
	assert.False(t, s.FlowControl)
	assert.False(t, s.ExclusivePort)
}

func TestParseInvalidOption(t *testing.T) {
	_, err := newCommandLine().parse([]string{"rctransfer", "--bogus"}, defaultSettings())
	require.Error(t, err)
	assert.Equal(t, rctransfer.ErrConfig, err.(*rctransfer.Error).Type)
}

func TestUsageListsOptions(t *testing.T) {
	var buf bytes.Buffer
	newCommandLine().usage(&buf)
	for _, name := range []string{"--port", "--transmission-format", "--source-newlines", "--ssh-key"} {
		assert.Contains(t, buf.String(), name)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "rctransfer", "config.toml"), defaultConfigPath())
}

func TestResolve(t *testing.T) {
	s := defaultSettings()
	s.Transmission = "basic-plaintext"
	s.FileFormat = "binary"
	s.DelayMS = 5
	s.Padding = "sub"
	s.User = 7
	s.ShowResponses = true

	var out bytes.Buffer
	tr, err := resolve(s, &out)
	require.NoError(t, err)
	assert.Equal(t, rctransfer.BASICPlaintext, tr.config.Format)
	require.NotNil(t, tr.specified)
	assert.Equal(t, rctransfer.Binary, *tr.specified)
	assert.Equal(t, 5*time.Millisecond, tr.config.CharDelay)
	assert.Equal(t, rctransfer.PadSUB, tr.config.Padding)
	assert.Equal(t, 7, tr.config.User)
	assert.True(t, tr.config.ShowResponses)
	assert.Same(t, &out, tr.config.Output)

	tr, err = resolve(defaultSettings(), &out)
	require.NoError(t, err)
	assert.Nil(t, tr.specified, "no file format means inferred")
}

func TestResolveRejects(t *testing.T) {
	tests := map[string]func(*settings){
		"user":         func(s *settings) { s.User = 16 },
		"delay":        func(s *settings) { s.DelayMS = -1 },
		"baud":         func(s *settings) { s.Baud = 1234 },
		"padding":      func(s *settings) { s.Padding = "space" },
		"transmission": func(s *settings) { s.Transmission = "kermit" },
		"file format":  func(s *settings) { s.FileFormat = "ebcdic" },
		"newline":      func(s *settings) { s.TargetNewline = "NEL" },
	}
	for name, modify := range tests {
		s := defaultSettings()
		modify(&s)
		_, err := resolve(s, &bytes.Buffer{})
		require.Error(t, err, name)
		assert.Equal(t, rctransfer.ErrConfig, err.(*rctransfer.Error).Type, name)
	}
}

func TestResolveConversion(t *testing.T) {
	host := rctransfer.HostNewline()

	c, err := resolveConversion([]string{"system"}, "system", false)
	require.NoError(t, err)
	assert.Equal(t, rctransfer.Conversion{Sources: rctransfer.NewNewlineSet(host), Target: rctransfer.CRLF}, c)

	c, err = resolveConversion([]string{"system"}, "system", true)
	require.NoError(t, err)
	assert.Equal(t, rctransfer.Conversion{Sources: rctransfer.NewNewlineSet(rctransfer.CRLF), Target: host}, c)

	c, err = resolveConversion([]string{"none"}, "system", false)
	require.NoError(t, err)
	assert.True(t, c.None())

	c, err = resolveConversion([]string{"cr", " LF ", ""}, "lfcr", false)
	require.NoError(t, err)
	assert.Equal(t, rctransfer.Conversion{Sources: rctransfer.NewNewlineSet(rctransfer.CR, rctransfer.LF), Target: rctransfer.LFCR}, c)

	_, err = resolveConversion([]string{"bogus"}, "system", false)
	assert.Error(t, err)
}
