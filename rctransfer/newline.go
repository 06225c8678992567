package rctransfer

import (
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"
)

// Newline is a line-ending convention.
type Newline int

const (
	// CR is used by classic Mac OS, Apple II and Commodore machines
	CR Newline = iota

	// LF is used by Unix
	LF

	// CRLF is used by CP/M, MS-DOS and Windows
	CRLF

	// LFCR is used by the BBC Micro
	LFCR
)

// newlineOrder is the order source conventions are replaced in. Two-character
// conventions come first so their halves are never matched on their own.
var newlineOrder = [...]Newline{CRLF, LFCR, CR, LF}

var newlineTable = [...]struct {
	name string
	raw  string
	hex  string
}{
	CR:   {"CR", "\r", "0D"},
	LF:   {"LF", "\n", "0A"},
	CRLF: {"CRLF", "\r\n", "0D0A"},
	LFCR: {"LFCR", "\n\r", "0A0D"},
}

func (n Newline) String() string {
	if n < CR || n > LFCR {
		return fmt.Sprintf("Newline(%d)", int(n))
	}
	return newlineTable[n].name
}

// Raw returns the literal characters of the convention.
func (n Newline) Raw() string {
	return newlineTable[n].raw
}

// Hex returns the convention as it appears inside a package payload.
func (n Newline) Hex() string {
	return newlineTable[n].hex
}

// bytes returns the raw literal as byte values.
func (n Newline) bytes() []byte {
	return []byte(newlineTable[n].raw)
}

// ParseNewline parses CR, LF, CRLF or LFCR, case-insensitively.
func ParseNewline(s string) (Newline, error) {
	for i, e := range newlineTable {
		if strings.EqualFold(strings.TrimSpace(s), e.name) {
			return Newline(i), nil
		}
	}
	return LF, NewError(ErrConfig, fmt.Sprintf("unknown newline %q", s))
}

// HostNewline returns the newline convention of the local computer.
func HostNewline() Newline {
	if runtime.GOOS == "windows" {
		return CRLF
	}
	return LF
}

// RemoteNewline is the newline convention assumed for the CP/M computer.
const RemoteNewline = CRLF

// NewlineSet is a set of newline conventions. The zero value is empty and
// means no conversion.
type NewlineSet uint8

// NewNewlineSet returns a set holding the given conventions.
func NewNewlineSet(newlines ...Newline) NewlineSet {
	var s NewlineSet
	for _, n := range newlines {
		s = s.Add(n)
	}
	return s
}

// Add returns the set with n added.
func (s NewlineSet) Add(n Newline) NewlineSet {
	return s | 1<<uint(n)
}

// Has reports whether n is a member of the set.
func (s NewlineSet) Has(n Newline) bool {
	return s&(1<<uint(n)) != 0
}

// Empty reports whether the set has no members.
func (s NewlineSet) Empty() bool {
	return s == 0
}

// Members returns the conventions in replacement order.
func (s NewlineSet) Members() []Newline {
	var out []Newline
	for _, n := range newlineOrder {
		if s.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

func (s NewlineSet) String() string {
	if s.Empty() {
		return "none"
	}
	names := make([]string, 0, 4)
	for _, n := range s.Members() {
		names = append(names, n.String())
	}
	return strings.Join(names, ",")
}

// Conversion converts every source convention to a single target.
type Conversion struct {
	Sources NewlineSet
	Target  Newline
}

// NoConversion leaves all line endings untouched.
var NoConversion = Conversion{}

// None reports whether the conversion leaves text unchanged.
func (c Conversion) None() bool {
	return c.Sources.Empty()
}

func (c Conversion) String() string {
	if c.None() {
		return "none"
	}
	return fmt.Sprintf("%s->%s", c.Sources, c.Target)
}

// DefaultConversion converts the local computer's line endings to CP/M's
// when sending, and back when receiving.
func DefaultConversion(receiving bool) Conversion {
	if receiving {
		return Conversion{Sources: NewNewlineSet(RemoteNewline), Target: HostNewline()}
	}
	return Conversion{Sources: NewNewlineSet(HostNewline()), Target: RemoteNewline}
}

// defaultSentinel is the first candidate tried when neither CR nor LF can
// serve as the placeholder.
const defaultSentinel = '\u0081'

// Translator converts line endings in raw text.
//
// Every source convention is first replaced with a sentinel character that
// does not occur in the text, and the sentinel is then replaced with the
// target. The last sentinel found by the upward search is remembered as the
// starting guess for the next call on the same Translator.
type Translator struct {
	candidate rune
}

// NewTranslator returns a translator ready for use. The zero value is also usable.
func NewTranslator() *Translator {
	return &Translator{candidate: defaultSentinel}
}

// Translate applies the conversion to text.
func (t *Translator) Translate(text string, c Conversion) string {
	if c.None() {
		return text
	}
	sentinel := string(t.sentinel(text, c.Sources))
	for _, n := range c.Sources.Members() {
		text = strings.ReplaceAll(text, n.Raw(), sentinel)
	}
	return strings.ReplaceAll(text, sentinel, c.Target.Raw())
}

// sentinel picks a placeholder that is absent from text, or one whose every
// occurrence in text is itself about to be replaced.
func (t *Translator) sentinel(text string, sources NewlineSet) rune {
	if sources.Has(LF) || !strings.ContainsRune(text, '\n') {
		return '\n'
	}
	if sources.Has(CR) || !strings.ContainsRune(text, '\r') {
		return '\r'
	}
	if t.candidate < defaultSentinel {
		t.candidate = defaultSentinel
	}
	r := t.candidate
	for strings.ContainsRune(text, r) {
		r++
		if r >= 0xD800 && r <= 0xDFFF {
			r = 0xE000
		}
		if r > utf8.MaxRune {
			r = defaultSentinel
		}
	}
	t.candidate = r
	return r
}
