package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drunlade/go-rctransfer/rctransfer"
	"github.com/pborman/getopt"
)

// settings is everything the command line and the config file can set.
type settings struct {
	Port           string
	FlowControl    bool
	ExclusivePort  bool
	Baud           int
	DelayMS        int
	Transmission   string
	FileFormat     string
	User           int
	Receive        bool
	Echo           bool
	SourceNewlines []string
	TargetNewline  string
	Padding        string
	ShowResponses  bool
	SSHKey         string
	SSHInsecure    bool
	LogFile        string
	Verbose        bool

	ConfigFile string
	Files      []string
	Help       bool
	Version    bool
}

func defaultSettings() settings {
	return settings{
		FlowControl:    true,
		ExclusivePort:  true,
		Baud:           115200,
		Transmission:   rctransfer.Package.String(),
		Echo:           true,
		SourceNewlines: []string{"system"},
		TargetNewline:  "system",
		Padding:        "nul",
	}
}

// commandLine holds the parsed option set so the options that were given
// can be told apart from defaults.
type commandLine struct {
	set *getopt.Set

	port, transmission, fileFormat, target, padding *string
	sshKey, logFile, configFile                     *string
	baud, delay, user                               *int
	sources                                         *[]string

	flowControl, noFlowControl, exclusive, shared *bool
	receive, echo, noEcho, responses              *bool
	insecure, verbose, help, version              *bool
}

func newCommandLine() *commandLine {
	set := getopt.New()
	set.SetProgram("rctransfer")
	set.SetParameters("FILE...")
	return &commandLine{
		set:           set,
		port:          set.StringLong("port", 'p', "", "serial device, \"clipboard\", or ssh://user@host[:port][/command]; omit to only echo", "PORT"),
		flowControl:   set.BoolLong("flow-control", 0, "enable RTS/CTS flow control (default)"),
		noFlowControl: set.BoolLong("no-flow-control", 0, "disable RTS/CTS flow control"),
		exclusive:     set.BoolLong("exclusive-port", 0, "ask for exclusive port access (default)"),
		shared:        set.BoolLong("shared-port", 0, "allow shared port access"),
		baud:          set.IntLong("baud", 'b', 115200, "line speed; the RC2014 Dual Clock Module supports 4800-115200", "N"),
		delay:         set.IntLong("delay", 'd', 0, "delay between characters sent, in milliseconds", "MS"),
		transmission:  set.StringLong("transmission-format", 't', "package", "package, cpm-plaintext or basic-plaintext", "FORMAT"),
		fileFormat:    set.StringLong("file-format", 'f', "", "binary or text (default: inferred)", "FORMAT"),
		user:          set.IntLong("user", 'u', 0, "CP/M user number (0-15)", "N"),
		receive:       set.BoolLong("receive", 'r', "receive files from the remote computer"),
		echo:          set.BoolLong("echo", 0, "echo the transmission to the console (default)"),
		noEcho:        set.BoolLong("no-echo", 0, "do not echo the transmission"),
		sources:       set.ListLong("source-newlines", 0, "newlines converted: CR,LF,CRLF,LFCR,system or none", "LIST"),
		target:        set.StringLong("target-newline", 0, "system", "newline converted to: CR, LF, CRLF, LFCR or system", "NL"),
		padding:       set.StringLong("padding", 0, "nul", "padding for the last record of a package: nul or sub", "PAD"),
		responses:     set.BoolLong("show-responses", 0, "show remote responses instead of progress dots"),
		sshKey:        set.StringLong("ssh-key", 0, "", "private key for an ssh:// port", "FILE"),
		insecure:      set.BoolLong("ssh-insecure", 0, "do not verify the ssh:// host key"),
		configFile:    set.StringLong("config", 0, "", "defaults file (default: $XDG_CONFIG_HOME/rctransfer/config.toml)", "FILE"),
		logFile:       set.StringLong("log", 0, "", "log link traffic to FILE", "FILE"),
		verbose:       set.BoolLong("verbose", 'v', "log to stderr and print transfer statistics"),
		help:          set.BoolLong("help", 'h', "show help"),
		version:       set.BoolLong("version", 0, "show version"),
	}
}

func (c *commandLine) seen(name string) bool {
	opt := c.set.Lookup(name)
	return opt != nil && opt.Seen()
}

// parse reads args (program name first) and applies the options that were
// given on top of base.
func (c *commandLine) parse(args []string, base settings) (settings, error) {
	if err := c.set.Getopt(args, nil); err != nil {
		return base, rctransfer.WrapError(rctransfer.ErrConfig, "invalid options", err)
	}
	s := base
	s.Files = c.set.Args()
	s.Help = *c.help
	s.Version = *c.version
	s.ConfigFile = *c.configFile

	if c.seen("port") {
		s.Port = *c.port
	}
	switch {
	case c.seen("no-flow-control"):
		s.FlowControl = false
	case c.seen("flow-control"):
		s.FlowControl = true
	}
	switch {
	case c.seen("shared-port"):
		s.ExclusivePort = false
	case c.seen("exclusive-port"):
		s.ExclusivePort = true
	}
	if c.seen("baud") {
		s.Baud = *c.baud
	}
	if c.seen("delay") {
		s.DelayMS = *c.delay
	}
	if c.seen("transmission-format") {
		s.Transmission = *c.transmission
	}
	if c.seen("file-format") {
		s.FileFormat = *c.fileFormat
	}
	if c.seen("user") {
		s.User = *c.user
	}
	if c.seen("receive") {
		s.Receive = true
	}
	switch {
	case c.seen("no-echo"):
		s.Echo = false
	case c.seen("echo"):
		s.Echo = true
	}
	if c.seen("source-newlines") {
		s.SourceNewlines = *c.sources
	}
	if c.seen("target-newline") {
		s.TargetNewline = *c.target
	}
	if c.seen("padding") {
		s.Padding = *c.padding
	}
	if c.seen("show-responses") {
		s.ShowResponses = true
	}
	if c.seen("ssh-key") {
		s.SSHKey = *c.sshKey
	}
	if c.seen("ssh-insecure") {
		s.SSHInsecure = true
	}
	if c.seen("log") {
		s.LogFile = *c.logFile
	}
	if c.seen("verbose") {
		s.Verbose = true
	}
	return s, nil
}

func (c *commandLine) usage(w io.Writer) {
	c.set.PrintUsage(w)
}

// defaultConfigPath returns the config file looked for when --config is not given.
func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "rctransfer", "config.toml")
}

// transfer is the resolved form of settings.
type transfer struct {
	config    *rctransfer.Config
	specified *rctransfer.FileFormat
}

// resolve validates settings and builds the session configuration.
func resolve(s settings, output io.Writer) (*transfer, error) {
	tf, err := rctransfer.ParseTransmissionFormat(s.Transmission)
	if err != nil {
		return nil, err
	}
	var specified *rctransfer.FileFormat
	if s.FileFormat != "" {
		ff, err := rctransfer.ParseFileFormat(s.FileFormat)
		if err != nil {
			return nil, err
		}
		specified = &ff
	}
	if s.User < 0 || s.User > 15 {
		return nil, rctransfer.NewError(rctransfer.ErrConfig, fmt.Sprintf("user number %d is not in 0-15", s.User))
	}
	if s.DelayMS < 0 {
		return nil, rctransfer.NewError(rctransfer.ErrConfig, fmt.Sprintf("negative delay %d", s.DelayMS))
	}
	if !rctransfer.ValidBaudRate(s.Baud) {
		return nil, rctransfer.NewError(rctransfer.ErrConfig, fmt.Sprintf("unsupported baud rate %d", s.Baud))
	}
	padding, err := rctransfer.ParsePadding(s.Padding)
	if err != nil {
		return nil, err
	}
	conversion, err := resolveConversion(s.SourceNewlines, s.TargetNewline, s.Receive)
	if err != nil {
		return nil, err
	}

	config := rctransfer.DefaultConfig()
	config.Format = tf
	config.User = s.User
	config.CharDelay = time.Duration(s.DelayMS) * time.Millisecond
	config.Padding = padding
	config.Conversion = conversion
	config.Echo = s.Echo
	config.ShowResponses = s.ShowResponses
	config.Output = output
	return &transfer{config: config, specified: specified}, nil
}

// resolveConversion maps the newline options to a conversion. "system" is
// the local newline on the local side and CRLF on the CP/M side.
func resolveConversion(sources []string, target string, receiving bool) (rctransfer.Conversion, error) {
	sourceSystem, targetSystem := rctransfer.HostNewline(), rctransfer.RemoteNewline
	if receiving {
		sourceSystem, targetSystem = targetSystem, sourceSystem
	}

	var set rctransfer.NewlineSet
	for _, name := range sources {
		name = strings.TrimSpace(name)
		switch strings.ToLower(name) {
		case "", "none":
			continue
		case "system":
			set = set.Add(sourceSystem)
		default:
			n, err := rctransfer.ParseNewline(name)
			if err != nil {
				return rctransfer.Conversion{}, err
			}
			set = set.Add(n)
		}
	}

	t := targetSystem
	if !strings.EqualFold(target, "system") {
		n, err := rctransfer.ParseNewline(target)
		if err != nil {
			return rctransfer.Conversion{}, err
		}
		t = n
	}
	return rctransfer.Conversion{Sources: set, Target: t}, nil
}
