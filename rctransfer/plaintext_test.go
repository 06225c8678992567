package rctransfer

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCPMPrompt(t *testing.T) {
	tests := []struct {
		name    string
		capture string
		want    string
	}{
		{"prompt", "hello\r\nA>", "hello\r\n"},
		{"user prompt", "hello\r\nB3>", "hello\r\n"},
		{"user first", "hello\r\n10A>", "hello\r\n"},
		{"padding before break", "hello\r\n\x1a\x1a\r\nA>", "hello\r\n"},
		{"nul padding", "hello\r\n\x00\x00\r\nA>", "hello\r\n"},
		{"blank line from TYPE", "hello\r\n\r\nA>", "hello\r\n"},
		{"padding without break", "hello\x1aA>", "hello"},
		{"user first after padding", "hello\x1a3A>", "hello"},
		{"digits end the file", "TOTAL 12A>", "TOTAL 12"},
		{"digits before user prompt", "TOTAL 12B3>", "TOTAL 12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripCPMPrompt(tt.capture)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripCPMPromptMalformed(t *testing.T) {
	for _, capture := range []string{"hello\r\n", "garbage>", "hello\r\nA> "} {
		_, err := StripCPMPrompt(capture)
		require.Error(t, err, capture)
		assert.Equal(t, ErrMalformedPrompt, err.(*Error).Type, capture)
	}
}

func TestStripBASICPrompt(t *testing.T) {
	assert.Equal(t, "10 PRINT 1\r\n", StripBASICPrompt("10 PRINT 1\r\n>"))
	assert.Equal(t, "10 PRINT 1\r\n", StripBASICPrompt("10 PRINT 1\r\nOk\r\n"))
	assert.Equal(t, "10 PRINT 1\r\n", StripBASICPrompt("10 PRINT 1\r\n"))
}

func TestParseDirectory(t *testing.T) {
	response := "DIR *.*\r\nA: HELLO    TXT : WORLD    COM\r\nA: README   ME\r\nA>"
	assert.Equal(t, []string{"A:HELLO.TXT", "A:WORLD.COM", "A:README.ME"}, ParseDirectory(response))

	assert.Nil(t, ParseDirectory("DIR X.Y\r\nNo file\r\nA>"))
	assert.Nil(t, ParseDirectory("DIR\r\nA>"))
	assert.Nil(t, ParseDirectory(""))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitLines("a\r\nb\rc\n"))
	assert.Nil(t, splitLines("\n"))
}

func newTestPlaintext(link *scriptedLink) (*PlaintextSession, *bytes.Buffer) {
	var out bytes.Buffer
	lio := newLineIO(link, 0, 0)
	lio.SetTranscripts(nil, NewTranscript(&out))
	return newPlaintextSession(lio, link.Kind()), &out
}

func TestSendCPMFile(t *testing.T) {
	link := newScriptedLink(LinkConsole)
	p, _ := newTestPlaintext(link)

	err := p.SendCPMFile(strings.NewReader("line1\nline2\n"), "hello.txt", 2, Conversion{NewNewlineSet(LF), CRLF})
	require.NoError(t, err)
	want := "USER 2\nERA hello.txt\nC:ED HELLO.TXT\ni\nline1\rline2\r\x1aE\n\nERA hello.BAK\n"
	assert.Equal(t, want, link.written.String())
}

func TestSendCPMFileDrainsResponses(t *testing.T) {
	link := newScriptedLink(LinkSerial,
		cue{"USER 0\n", "USER 0\r\nA>"},
		cue{"ERA X.TXT\n", "ERA X.TXT\r\nNo file\r\nA>"},
		cue{"C:ED X.TXT\n", "C:ED X.TXT\r\nNEW FILE\r\n    : *"},
		cue{"\x1aE\n\n", "\r\nA>"},
		cue{"ERA X.BAK\n", "ERA X.BAK\r\nA>"},
	)
	p, _ := newTestPlaintext(link)
	require.NoError(t, p.SendCPMFile(strings.NewReader("hi"), "X.TXT", 0, NoConversion))
	assert.Contains(t, link.written.String(), "i\nhi\x1aE\n\n")
	assert.Zero(t, link.pending.Len(), "every response is read")
}

func TestSendBASICFile(t *testing.T) {
	link := newScriptedLink(LinkConsole)
	p, _ := newTestPlaintext(link)
	require.NoError(t, p.SendBASICFile(strings.NewReader("10 PRINT 1\n20 END"), Conversion{NewNewlineSet(LF), CRLF}))
	assert.Equal(t, "10 PRINT 1\r\n20 END", link.written.String())
}

func TestReceiveCPMFileFromCapture(t *testing.T) {
	link := newScriptedLink(LinkClipboard)
	link.pending.WriteString("hello\r\nworld\r\n\x1a")
	p, _ := newTestPlaintext(link)

	text, err := p.ReceiveCPMFile("A:HELLO.TXT", Conversion{NewNewlineSet(CRLF), LF})
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", text)
	assert.Empty(t, link.written.String(), "nothing is typed into a capture")
}

func TestReceiveCPMFileLive(t *testing.T) {
	link := newScriptedLink(LinkSerial,
		cue{"TYPE A:HELLO.TXT\n", "TYPE A:HELLO.TXT\r\nhello\r\n\r\nA>"},
	)
	p, _ := newTestPlaintext(link)

	text, err := p.ReceiveCPMFile("A:HELLO.TXT", NoConversion)
	require.NoError(t, err)
	assert.Equal(t, "hello\r\n", text)
}

func TestReceiveCPMFileConsole(t *testing.T) {
	link := newScriptedLink(LinkConsole)
	p, _ := newTestPlaintext(link)
	text, err := p.ReceiveCPMFile("A:HELLO.TXT", NoConversion)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, "TYPE A:HELLO.TXT\n", link.written.String())
}

func TestReceiveBASICFileLive(t *testing.T) {
	link := newScriptedLink(LinkSerial,
		cue{"LIST\r\n", "LIST\r\n10 PRINT 1\r\n20 END\r\nOk\r\n"},
	)
	p, _ := newTestPlaintext(link)

	text, err := p.ReceiveBASICFile(Conversion{NewNewlineSet(CRLF), LF})
	require.NoError(t, err)
	assert.Equal(t, "10 PRINT 1\n20 END\n", text)
}

func TestDirectory(t *testing.T) {
	link := newScriptedLink(LinkSerial,
		cue{"USER 1\n", "USER 1\r\nA>"},
		cue{"DIR *.TXT\n", "DIR *.TXT\r\nA: HELLO    TXT : WORLD    TXT\r\nA>"},
	)
	p, out := newTestPlaintext(link)

	names, err := p.Directory("*.txt", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A:HELLO.TXT", "A:WORLD.TXT"}, names)
	assert.Equal(t, "USER 1\nDIR *.TXT\n", link.written.String())
	assert.Contains(t, out.String(), "[[")
}

func TestNewPlaintextSession(t *testing.T) {
	config := DefaultConfig()
	config.Output = io.Discard
	p := NewPlaintextSession(ConsoleLink{}, config)
	_, err := p.Command("DIR\n", false)
	assert.NoError(t, err)
}
