package rctransfer

import (
	"io"
	"strings"
)

// LinkKind tells the session what sits at the other end of a link.
type LinkKind int

const (
	// LinkConsole has no remote: transfers are only echoed
	LinkConsole LinkKind = iota

	// LinkClipboard exchanges the wire text through the system clipboard
	LinkClipboard

	// LinkSerial is a serial port wired to the retrocomputer
	LinkSerial

	// LinkSSH is the retrocomputer's console behind an SSH console server
	LinkSSH
)

func (k LinkKind) String() string {
	switch k {
	case LinkConsole:
		return "console"
	case LinkClipboard:
		return "clipboard"
	case LinkSerial:
		return "serial"
	case LinkSSH:
		return "ssh"
	default:
		return "unknown"
	}
}

// Interactive reports whether a live remote answers on the link.
func (k LinkKind) Interactive() bool {
	return k == LinkSerial || k == LinkSSH
}

// Link is the byte stream to the retrocomputer. A Read that finds nothing
// before the link's timeout returns 0 bytes (with a nil error or io.EOF).
type Link interface {
	io.ReadWriteCloser

	// Kind reports what the link is connected to
	Kind() LinkKind

	// Name is the port name used in reports
	Name() string
}

// ClipboardPort is the port name that selects the clipboard link.
const ClipboardPort = "clipboard"

// IsSSHPort reports whether port names an SSH console server.
func IsSSHPort(port string) bool {
	return strings.HasPrefix(strings.ToLower(port), "ssh://")
}

// ConsoleLink discards everything written and never has anything to read.
type ConsoleLink struct{}

func (ConsoleLink) Read(p []byte) (int, error)  { return 0, io.EOF }
func (ConsoleLink) Write(p []byte) (int, error) { return len(p), nil }
func (ConsoleLink) Close() error                { return nil }
func (ConsoleLink) Kind() LinkKind              { return LinkConsole }
func (ConsoleLink) Name() string                { return "console" }

// streamLink adapts an opened stream (serial port, SSH channel) to Link.
type streamLink struct {
	io.ReadWriteCloser
	kind LinkKind
	name string
}

func (s *streamLink) Kind() LinkKind { return s.kind }
func (s *streamLink) Name() string   { return s.name }

// NewStreamLink wraps rwc as a link of the given kind. Reads on rwc must
// return after a bounded wait when the remote is quiet.
func NewStreamLink(rwc io.ReadWriteCloser, kind LinkKind, name string) Link {
	return &streamLink{ReadWriteCloser: rwc, kind: kind, name: name}
}

// Compile-time interface satisfaction checks.
var (
	_ Link = ConsoleLink{}
	_ Link = (*streamLink)(nil)
)
