package rctransfer

import (
	"bytes"

	"github.com/atotto/clipboard"
)

// Clipboard access, replaceable in tests.
var (
	clipboardRead  = clipboard.ReadAll
	clipboardWrite = clipboard.WriteAll
)

// ClipboardAvailable reports whether the system clipboard can be used.
func ClipboardAvailable() bool {
	return !clipboard.Unsupported
}

// ClipboardLink accumulates everything written so it can be pasted into a
// terminal program, and reads whatever was last copied to the clipboard.
type ClipboardLink struct {
	out bytes.Buffer
	in  *bytes.Reader
}

// NewClipboardLink creates a clipboard link.
func NewClipboardLink() *ClipboardLink {
	return &ClipboardLink{}
}

// Read returns the clipboard contents loaded by the last Paste, pasting
// first if nothing has been loaded yet.
func (c *ClipboardLink) Read(p []byte) (int, error) {
	if c.in == nil {
		if err := c.Paste(); err != nil {
			return 0, err
		}
	}
	return c.in.Read(p)
}

// Write appends to the buffer that Copy places on the clipboard.
func (c *ClipboardLink) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// Paste loads the current clipboard contents for reading.
func (c *ClipboardLink) Paste() error {
	text, err := clipboardRead()
	if err != nil {
		return WrapError(ErrTransport, "clipboard is unavailable", err)
	}
	c.in = bytes.NewReader([]byte(text))
	return nil
}

// Copy places everything written so far on the clipboard.
func (c *ClipboardLink) Copy() error {
	if err := clipboardWrite(c.out.String()); err != nil {
		return WrapError(ErrTransport, "clipboard is unavailable", err)
	}
	return nil
}

// Written returns everything written so far.
func (c *ClipboardLink) Written() string {
	return c.out.String()
}

func (c *ClipboardLink) Close() error   { return nil }
func (c *ClipboardLink) Kind() LinkKind { return LinkClipboard }
func (c *ClipboardLink) Name() string   { return ClipboardPort }

var _ Link = (*ClipboardLink)(nil)
