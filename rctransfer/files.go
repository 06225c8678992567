package rctransfer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// File is one file of a batch.
type File struct {
	// OriginalPath is the local path when sending, the remote name when receiving
	OriginalPath string

	// TargetName is the remote 8.3 name when sending, the local path when receiving
	TargetName string

	// Format is the file format the transfer uses
	Format FileFormat

	// FormatInferred is set when no format was specified
	FormatInferred bool

	// FormatOverridden is set when the specified format was replaced
	FormatOverridden bool
}

// Renamer asks for a replacement when a file name does not fit 8.3. It returns
// the user's answer; an empty answer accepts proposed.
type Renamer func(original, proposed string) (string, error)

// Extensions recognised by InferFormat, upper case.
var (
	textExtensions = []string{
		".TXT", ".ME",                  // plain text
		".BAK",                         // text editor backup
		".ASM", ".Z80", ".HEX", ".IHX", // assembly, Intel hex
		".LIS", ".LST", ".MAP", ".SYM", // linker and debugger output
		".ADB", ".ADS",                 // Ada
		".BAS",                         // BASIC
		".C", ".H",                     // C
		".F", ".F77", ".FOR",           // FORTRAN
		".FTH", ".FS", ".4TH",          // Forth
		".PAS",                         // Pascal
		".JSON", ".XML",                // text data
		".MD", ".TEX",                  // markup
		".PKG",                         // packages sent as basic-plaintext
	}
	binaryExtensions = []string{".BIN", ".COM", ".O"}
)

// sniffSize is how much of a file InferFormat reads to decide.
const sniffSize = 1024

// TruncateFilename returns the name a file gets on the other side.
//
// When receiving, a leading drive ("A:") is removed. When sending, the base
// name is reduced to 8.3: dots in the name become dashes, the name is cut to
// eight characters and the extension to three, and the result is upper
// case. If that changed the name, rename is asked for a replacement, with
// the reduced name as the proposal; a nil rename accepts the proposal.
func TruncateFilename(name string, receiving bool, rename Renamer) (string, error) {
	if receiving {
		if len(name) > 2 && unicode.IsLetter(rune(name[0])) && name[1] == ':' {
			return name[2:], nil
		}
		return name, nil
	}

	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.ReplaceAll(strings.TrimSuffix(base, ext), ".", "-")
	if len(stem) > 8 {
		stem = strings.TrimRight(stem[:8], "-")
	}
	if len(ext) > 4 {
		ext = ext[:4]
	}
	proposed := strings.ToUpper(stem + ext)
	if proposed == strings.ToUpper(base) || rename == nil {
		return proposed, nil
	}

	answer, err := rename(base, proposed)
	if err != nil {
		return "", err
	}
	target, ok := NormalizeTargetName(answer, proposed)
	if !ok {
		return "", NewError(ErrConfig, fmt.Sprintf("%s is not a valid filename", strings.ToUpper(answer)))
	}
	return target, nil
}

// NormalizeTargetName validates a user-supplied 8.3 name. An empty answer
// selects proposed.
func NormalizeTargetName(answer, proposed string) (string, bool) {
	tokens := strings.Split(answer, ".")
	switch {
	case tokens[0] == "":
		return proposed, true
	case len(tokens) == 1 && len(tokens[0]) <= 8:
		return strings.ToUpper(tokens[0]), true
	case len(tokens) == 2 && len(tokens[0]) <= 8 && len(tokens[1]) <= 3:
		return strings.ToUpper(answer), true
	}
	return "", false
}

// InferFormat decides whether a file is text or binary.
//
// Plaintext transmissions are always text. Otherwise a specified format
// wins, then the extension lists. A received file of unknown type is binary;
// a local file is text when its first kilobyte is 7-bit ASCII.
func InferFormat(path string, specified *FileFormat, tf TransmissionFormat, receiving bool) FileFormat {
	if tf.Plaintext() {
		return Text
	}
	if specified != nil {
		return *specified
	}
	upper := strings.ToUpper(path)
	for _, ext := range textExtensions {
		if strings.HasSuffix(upper, ext) {
			return Text
		}
	}
	for _, ext := range binaryExtensions {
		if strings.HasSuffix(upper, ext) {
			return Binary
		}
	}
	if receiving {
		return Binary
	}
	return sniffFormat(path)
}

func sniffFormat(path string) FileFormat {
	f, err := os.Open(path)
	if err != nil {
		// a missing file fails later, when it is opened for sending
		return Binary
	}
	defer f.Close()
	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Binary
	}
	for _, c := range buf[:n] {
		if c >= 0x80 {
			return Binary
		}
	}
	return Text
}

// ExpandLocal expands a local wildcard pattern.
func ExpandLocal(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, WrapError(ErrConfig, fmt.Sprintf("bad pattern %q", pattern), err)
	}
	if len(matches) == 0 {
		return nil, NewError(ErrNoMatch, fmt.Sprintf("no file matching %q", pattern))
	}
	return matches, nil
}

var bracketClass = regexp.MustCompile(`\[[^\]]*\]`)

// SynthesizeName makes up a concrete name for a remote wildcard when the
// remote cannot be asked: a bracket class becomes its first member, '?'
// becomes 'A' and '*' is dropped.
func SynthesizeName(filespec string) string {
	var sb strings.Builder
	last := 0
	for _, loc := range bracketClass.FindAllStringIndex(filespec, -1) {
		sb.WriteString(literalize(filespec[last:loc[0]]))
		if class := filespec[loc[0]+1 : loc[1]-1]; class != "" {
			sb.WriteByte(class[0])
		}
		last = loc[1]
	}
	sb.WriteString(literalize(filespec[last:]))
	return sb.String()
}

func literalize(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "?", "A"), "*", "")
}

// dedupe removes repeated names, keeping the first occurrence.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
