package rctransfer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// BASIC interpreter banners that follow a LIST.
const (
	bbcBASICPrompt = ">"
	msBASICPrompt  = "Ok\r\n"
)

// syntheticPrompt is appended to captures that were not taken from a live
// CP/M console so they end like one.
const syntheticPrompt = "X>"

// CP/M command prompts at the very end of a capture. The user-first form
// ("3A>") is only taken when it starts a line or follows padding; otherwise
// the drive-first form ("A>", "B3>") is, so digits ending the file stay in it.
var (
	cpmPrompt          = regexp.MustCompile(`[A-Z][0-9]{0,2}>$`)
	cpmUserFirstPrompt = regexp.MustCompile(`(?:^|[\r\n\x00\x1a])([0-9]{1,2}[A-Z]>)$`)
)

// PlaintextSession types commands at a CP/M or BASIC prompt and scrapes the
// echoed response.
type PlaintextSession struct {
	io         *lineIO
	kind       LinkKind
	translator Translator
}

// NewPlaintextSession creates a plaintext session on link.
func NewPlaintextSession(link Link, config *Config) *PlaintextSession {
	if config == nil {
		config = DefaultConfig()
	}
	lio := newLineIO(link, 256, config.CharDelay)
	lio.SetTranscripts(config.transcripts())
	return newPlaintextSession(lio, link.Kind())
}

func newPlaintextSession(lio *lineIO, kind LinkKind) *PlaintextSession {
	return &PlaintextSession{io: lio, kind: kind}
}

// Command sends a command line and returns the response: everything until
// the link goes quiet, or only the first line with untilNewline. On a
// console link the command is only echoed.
func (p *PlaintextSession) Command(line string, untilNewline bool) (string, error) {
	if err := p.io.Send(line); err != nil {
		return "", err
	}
	if !p.kind.Interactive() {
		return "", nil
	}
	return p.io.Drain(untilNewline)
}

// SendCPMFile types r into ED.COM as target on the CP/M computer.
//
// ED converts CR into CRLF, so every source newline is sent as CR. Any
// existing target and the backup ED leaves behind are erased.
func (p *PlaintextSession) SendCPMFile(r io.Reader, target string, user int, c Conversion) error {
	if _, err := p.Command(fmt.Sprintf("USER %d\n", user), false); err != nil {
		return err
	}
	if _, err := p.Command(fmt.Sprintf("ERA %s\n", target), false); err != nil {
		return err
	}
	if _, err := p.Command(fmt.Sprintf("C:ED %s\n", strings.ToUpper(target)), false); err != nil {
		return err
	}
	// lower-case insert preserves the case of the text
	if err := p.io.Send("i\n"); err != nil {
		return err
	}
	toED := Conversion{Sources: c.Sources, Target: CR}
	if err := p.eachLine(r, func(line string) error {
		return p.io.Send(p.translator.Translate(line, toED))
	}); err != nil {
		return err
	}
	if err := p.io.Send(string(PadSUB) + "E\n\n"); err != nil {
		return err
	}
	if p.kind.Interactive() {
		if _, err := p.io.Drain(false); err != nil {
			return err
		}
	}
	name := strings.SplitN(target, ".", 2)[0]
	_, err := p.Command(fmt.Sprintf("ERA %s.BAK\n", name), false)
	return err
}

// SendBASICFile types r at a BASIC prompt, line by line.
func (p *PlaintextSession) SendBASICFile(r io.Reader, c Conversion) error {
	return p.eachLine(r, func(line string) error {
		return p.io.Send(p.translator.Translate(line, c))
	})
}

func (p *PlaintextSession) eachLine(r io.Reader, fn func(string) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return WrapError(ErrLocalIO, "read failed", err)
		}
	}
}

// ReceiveCPMFile types file with TYPE and returns its text, converted with c.
// The trailing CP/M prompt and padding are removed.
func (p *PlaintextSession) ReceiveCPMFile(file string, c Conversion) (string, error) {
	switch p.kind {
	case LinkConsole:
		return "", p.io.Send(fmt.Sprintf("TYPE %s\n", file))
	case LinkClipboard:
	default:
		if _, err := p.Command(fmt.Sprintf("TYPE %s\n", file), true); err != nil {
			return "", err
		}
	}
	contents, err := p.io.Collect(true)
	if err != nil {
		return "", err
	}
	if !p.kind.Interactive() && !cpmPrompt.MatchString(contents) {
		if strings.HasSuffix(contents, "\n") {
			contents += syntheticPrompt
		} else {
			contents += "\n" + syntheticPrompt
		}
	}
	body, err := StripCPMPrompt(contents)
	if err != nil {
		return "", err
	}
	return p.translator.Translate(body, c), nil
}

// ReceiveBASICFile lists the program in the BASIC interpreter and returns
// its text, converted with c.
func (p *PlaintextSession) ReceiveBASICFile(c Conversion) (string, error) {
	switch p.kind {
	case LinkConsole:
		return "", p.io.Send("LIST\n")
	case LinkClipboard:
	default:
		// BASIC wants CRLF here; CP/M's TYPE does not
		if err := p.io.Send("LIST\r\n"); err != nil {
			return "", err
		}
		echo, err := p.io.ReadLine()
		if err != nil {
			return "", err
		}
		p.io.echo.Plain(echo)
	}
	contents, err := p.io.Collect(true)
	if err != nil {
		return "", err
	}
	return p.translator.Translate(StripBASICPrompt(contents), c), nil
}

// Directory lists the remote files matching filespec, as "A:NAME.EXT".
func (p *PlaintextSession) Directory(filespec string, user int) ([]string, error) {
	if _, err := p.Command(fmt.Sprintf("USER %d\n", user), false); err != nil {
		return nil, err
	}
	response, err := p.Command(fmt.Sprintf("DIR %s\n", strings.ToUpper(filespec)), false)
	if err != nil {
		return nil, err
	}
	return ParseDirectory(response), nil
}

// ParseDirectory parses the output of CP/M's DIR command, including the
// echoed command line and the trailing prompt.
//
//	A: HELLO    TXT : WORLD    COM
//	A: README   ME
func ParseDirectory(response string) []string {
	lines := splitLines(response)
	if len(lines) < 2 {
		return nil
	}
	lines = lines[1 : len(lines)-1]
	if len(lines) == 0 || strings.TrimSpace(lines[len(lines)-1]) == "No file" {
		return nil
	}
	var names []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		drive := line[:1]
		for _, entry := range strings.Split(line, ":")[1:] {
			fields := strings.Fields(entry)
			if len(fields) == 0 {
				continue
			}
			names = append(names, drive+":"+strings.Join(fields, "."))
		}
	}
	return names
}

// splitLines splits on CRLF, LF or CR.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// StripCPMPrompt removes the CP/M prompt that ends a TYPE capture, along with
// the padding that ends the file.
//
// Exactly one prompt token must end the capture. If padding precedes the line
// break before the prompt, that break is dropped; then every trailing padding
// character is removed; then a final blank line added by TYPE is removed.
func StripCPMPrompt(capture string) (string, error) {
	start := -1
	if m := cpmUserFirstPrompt.FindStringSubmatchIndex(capture); m != nil {
		start = m[2]
	} else if loc := cpmPrompt.FindStringIndex(capture); loc != nil {
		start = loc[0]
	}
	if start < 0 {
		tail := capture
		if len(tail) > 8 {
			tail = tail[len(tail)-8:]
		}
		return "", NewError(ErrMalformedPrompt, fmt.Sprintf("response ends with %q", tail))
	}
	body := capture[:start]
	if trimmed := trimLineBreak(body); strings.ContainsAny(lastByte(trimmed), paddingCutset) {
		body = trimmed
	}
	body = strings.TrimRight(body, paddingCutset)
	if strings.HasSuffix(body, "\r\n\r\n") {
		body = body[:len(body)-2]
	}
	return body, nil
}

// StripBASICPrompt removes a trailing BBC BASIC ">" or MS BASIC "Ok\r\n".
func StripBASICPrompt(capture string) string {
	switch {
	case strings.HasSuffix(capture, bbcBASICPrompt):
		return strings.TrimSuffix(capture, bbcBASICPrompt)
	case strings.HasSuffix(capture, msBASICPrompt):
		return strings.TrimSuffix(capture, msBASICPrompt)
	}
	return capture
}

func trimLineBreak(s string) string {
	for _, nl := range []string{"\r\n", "\n", "\r"} {
		if strings.HasSuffix(s, nl) {
			return strings.TrimSuffix(s, nl)
		}
	}
	return s
}

func lastByte(s string) string {
	if s == "" {
		return ""
	}
	return s[len(s)-1:]
}
