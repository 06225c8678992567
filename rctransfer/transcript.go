package rctransfer

import (
	"fmt"
	"io"
)

// Transcript renders a human-readable trace of the bytes on the link.
//
// Control characters are shown as escapes. Package payloads are shown as
// space-separated hex pairs: line by line for text files, sixteen pairs per
// line for binary files. A nil *Transcript discards everything.
type Transcript struct {
	w io.Writer

	// ShowResponses echoes remote responses instead of progress dots
	ShowResponses bool

	nibble     byte
	haveNibble bool
	pairs      int
}

// NewTranscript creates a transcript writing to w.
func NewTranscript(w io.Writer) *Transcript {
	return &Transcript{w: w}
}

// Plain echoes characters that are not part of a package payload.
func (t *Transcript) Plain(s string) {
	if t == nil {
		return
	}
	for i := 0; i < len(s); i++ {
		t.echo(s[i], Text, false)
	}
}

// Hex echoes package payload characters, grouping them into pairs.
func (t *Transcript) Hex(s string, format FileFormat) {
	if t == nil {
		return
	}
	for i := 0; i < len(s); i++ {
		t.echo(s[i], format, true)
	}
}

// Response echoes one byte received from the remote while scraping a
// command response: the byte itself with ShowResponses, a dot otherwise.
func (t *Transcript) Response(c byte) {
	if t == nil {
		return
	}
	if t.ShowResponses {
		t.echo(c, Text, false)
		return
	}
	io.WriteString(t.w, ".")
}

// BeginResponse and EndResponse bracket a scraped response.
func (t *Transcript) BeginResponse() {
	t.Printf("[[")
}

func (t *Transcript) EndResponse() {
	t.Printf("]]\n")
}

// Printf writes a formatted note to the transcript.
func (t *Transcript) Printf(format string, args ...interface{}) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.w, format, args...)
}

func (t *Transcript) echo(c byte, format FileFormat, hexPairs bool) {
	switch c {
	case '\\':
		io.WriteString(t.w, `\\`)
	case '\t':
		io.WriteString(t.w, "\\t\t")
	case '\r':
		io.WriteString(t.w, `\r`)
	case '\n':
		io.WriteString(t.w, "\\n\n")
	case PadNUL:
		io.WriteString(t.w, `\0`)
	case PadSUB:
		io.WriteString(t.w, `\x1A`)
	default:
		if !hexPairs {
			t.w.Write([]byte{c})
			return
		}
		t.pair(c, format)
	}
}

func (t *Transcript) pair(c byte, format FileFormat) {
	if !t.haveNibble {
		t.nibble = c
		t.haveNibble = true
		t.w.Write([]byte{c})
		return
	}
	first := t.nibble
	t.haveNibble = false
	t.pairs = (t.pairs + 1) % 16
	fmt.Fprintf(t.w, "%c ", c)
	switch {
	case format == Text && first == '0' && c == 'A':
		io.WriteString(t.w, "\n")
	case format == Binary && t.pairs == 8:
		io.WriteString(t.w, "  ")
	case format == Binary && t.pairs == 0:
		io.WriteString(t.w, "\n")
	}
}
