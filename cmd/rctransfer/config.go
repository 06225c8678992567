package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/drunlade/go-rctransfer/rctransfer"
)

// config.toml key mapping to settings.
type fileConfig struct {
	Port               string   `toml:"port"`
	FlowControl        bool     `toml:"flow_control"`
	ExclusivePort      bool     `toml:"exclusive_port"`
	Baud               int      `toml:"baud"`
	Delay              int      `toml:"delay"`
	TransmissionFormat string   `toml:"transmission_format"`
	FileFormat         string   `toml:"file_format"`
	User               int      `toml:"user"`
	Echo               bool     `toml:"echo"`
	SourceNewlines     []string `toml:"source_newlines"`
	TargetNewline      string   `toml:"target_newline"`
	Padding            string   `toml:"padding"`
	ShowResponses      bool     `toml:"show_responses"`
	SSHKey             string   `toml:"ssh_key"`
	SSHInsecure        bool     `toml:"ssh_insecure"`
	Log                string   `toml:"log"`
	Verbose            bool     `toml:"verbose"`
}

// loadConfigFile overlays the keys defined in path onto base. A missing file
// is not an error unless required is set.
func loadConfigFile(path string, base settings, required bool) (settings, error) {
	if path == "" {
		return base, nil
	}
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return base, rctransfer.WrapError(rctransfer.ErrConfig, fmt.Sprintf("load config %s", path), err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return base, rctransfer.NewError(rctransfer.ErrConfig,
			fmt.Sprintf("load config %s: unknown key %q", path, undecoded[0].String()))
	}

	s := base
	if meta.IsDefined("port") {
		s.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("flow_control") {
		s.FlowControl = raw.FlowControl
	}
	if meta.IsDefined("exclusive_port") {
		s.ExclusivePort = raw.ExclusivePort
	}
	if meta.IsDefined("baud") {
		s.Baud = raw.Baud
	}
	if meta.IsDefined("delay") {
		s.DelayMS = raw.Delay
	}
	if meta.IsDefined("transmission_format") {
		s.Transmission = strings.TrimSpace(raw.TransmissionFormat)
	}
	if meta.IsDefined("file_format") {
		s.FileFormat = strings.TrimSpace(raw.FileFormat)
	}
	if meta.IsDefined("user") {
		s.User = raw.User
	}
	if meta.IsDefined("echo") {
		s.Echo = raw.Echo
	}
	if meta.IsDefined("source_newlines") {
		s.SourceNewlines = raw.SourceNewlines
	}
	if meta.IsDefined("target_newline") {
		s.TargetNewline = strings.TrimSpace(raw.TargetNewline)
	}
	if meta.IsDefined("padding") {
		s.Padding = strings.TrimSpace(raw.Padding)
	}
	if meta.IsDefined("show_responses") {
		s.ShowResponses = raw.ShowResponses
	}
	if meta.IsDefined("ssh_key") {
		s.SSHKey = strings.TrimSpace(raw.SSHKey)
	}
	if meta.IsDefined("ssh_insecure") {
		s.SSHInsecure = raw.SSHInsecure
	}
	if meta.IsDefined("log") {
		s.LogFile = strings.TrimSpace(raw.Log)
	}
	if meta.IsDefined("verbose") {
		s.Verbose = raw.Verbose
	}
	return s, nil
}
