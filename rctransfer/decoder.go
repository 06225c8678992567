package rctransfer

import (
	"fmt"
	"io"
	"strings"
)

// UploadCommand returns the command line that starts UPLOAD.COM for file.
func UploadCommand(file string) string {
	return fmt.Sprintf("A:UPLOAD %s\n", file)
}

// Received is a package received from UPLOAD.COM.
type Received struct {
	// Payload is the file contents. For text files the newlines are
	// translated and trailing padding removed.
	Payload []byte

	// Declared is the length and checksum carried by the trailer
	Declared Outcome

	// Found is the length and checksum computed from the payload
	Found Outcome
}

// DecoderConfig holds configuration for a decoder.
type DecoderConfig struct {
	// SkipEcho starts directly at the package header, for input that does
	// not begin with the echo of the UPLOAD command (e.g. the clipboard)
	SkipEcho bool

	// Echo receives an echo of the package as it is read (may be nil)
	Echo *Transcript

	// Console shows progress while waiting and the trailer (may be nil)
	Console *Transcript
}

// Decoder reads UPLOAD.COM packages one byte at a time.
//
// The decoder runs through its states in order and never goes back:
//
//	awaitEcho -> awaitPromptOrData -> skipHeader -> collectPayload ->
//	readTrailer -> validate -> stripPadding
//
// io.EOF from the byte source (including a link timeout) before the trailer
// is complete yields ErrIncomplete.
type Decoder struct {
	r          io.ByteReader
	skipEcho   bool
	echo       *Transcript
	console    *Transcript
	translator Translator
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.ByteReader, config DecoderConfig) *Decoder {
	return &Decoder{
		r:        r,
		skipEcho: config.SkipEcho,
		echo:     config.Echo,
		console:  config.Console,
	}
}

// Decode reads one package.
//
// If the remote answers with an error line instead of a package, Decode
// returns an *Error of type ErrRemoteRejected carrying that line. If the
// trailer disagrees with the payload, Decode returns the package together
// with an ErrLengthMismatch or ErrChecksumMismatch error; the payload is
// still usable.
func (d *Decoder) Decode(format FileFormat, c Conversion) (*Received, error) {
	first, err := d.awaitEcho()
	if err != nil {
		return nil, err
	}
	if err := d.awaitPromptOrData(first); err != nil {
		return nil, err
	}
	if err := d.skipHeader(first); err != nil {
		return nil, err
	}
	hexText, err := d.collectPayload(format)
	if err != nil {
		return nil, err
	}
	declared, err := d.readTrailer()
	if err != nil {
		return nil, err
	}

	raw, err := decodeHexPairs(hexText)
	if err != nil {
		return nil, err
	}
	pkg := &Received{Declared: declared, Found: measure(raw)}
	pkg.Payload = raw
	if format == Text {
		pkg.Payload = d.stripPadding(raw, c)
	}
	return pkg, pkg.Verify()
}

// Verify compares the trailer with the payload. The length is checked first.
func (p *Received) Verify() error {
	if p.Declared.Length != p.Found.Length {
		return NewError(ErrLengthMismatch, fmt.Sprintf("package reports %02X; found %02X",
			p.Declared.Length, p.Found.Length))
	}
	if p.Declared.Checksum != p.Found.Checksum {
		return NewError(ErrChecksumMismatch, fmt.Sprintf("package reports %02X; found %02X",
			p.Declared.Checksum, p.Found.Checksum))
	}
	return nil
}

func measure(raw []byte) Outcome {
	var state packageState
	state.add(raw)
	return Outcome{Length: byte(state.count), Checksum: state.sum, Bytes: state.count}
}

func (d *Decoder) next(context string) (byte, error) {
	c, err := d.r.ReadByte()
	if err == io.EOF {
		return 0, NewError(ErrIncomplete, "stream ended "+context)
	}
	return c, err
}

// awaitEcho discards the echo of the UPLOAD command and the line breaks
// after it, and returns the first byte of the response.
func (d *Decoder) awaitEcho() (byte, error) {
	if d.skipEcho {
		return d.next("before the package header")
	}
	d.console.BeginResponse()
	defer d.console.EndResponse()
	for {
		c, err := d.next("while waiting for the command echo")
		if err != nil {
			return 0, err
		}
		d.console.Response(c)
		if c == '\n' {
			break
		}
	}
	for {
		c, err := d.next("before the response")
		if err != nil {
			return 0, err
		}
		if c != '\r' && c != '\n' {
			return c, nil
		}
		d.console.Response(c)
	}
}

// awaitPromptOrData turns anything but a package header into a rejection
// carrying the remote's first response line ("Can't find input file$",
// "Break key pressed$", ...).
func (d *Decoder) awaitPromptOrData(first byte) error {
	if first == RemoteDrive || first == PackageStart {
		return nil
	}
	var sb strings.Builder
	sb.WriteByte(first)
	for {
		c, err := d.r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if c == '\r' || c == '\n' {
			break
		}
		sb.WriteByte(c)
	}
	d.console.Printf("Response: %s\n", sb.String())
	return NewError(ErrRemoteRejected, sb.String())
}

// skipHeader consumes "A:<anything>:". A response that starts at the ':'
// is already at the payload.
func (d *Decoder) skipHeader(first byte) error {
	d.echo.Plain(string(first))
	if first == PackageStart {
		d.echo.Printf("\n")
		return nil
	}
	c, err := d.next("in the package header")
	if err != nil {
		return err
	}
	d.echo.Plain(string(c))
	for {
		c, err := d.next("in the package header")
		if err != nil {
			return err
		}
		d.echo.Plain(string(c))
		if c == PackageStart {
			d.echo.Printf("\n")
			return nil
		}
	}
}

// collectPayload accumulates hex digits up to the '>' terminator. Line
// breaks inserted by the remote are ignored.
func (d *Decoder) collectPayload(format FileFormat) (string, error) {
	var sb strings.Builder
	for {
		c, err := d.next("in the package payload")
		if err != nil {
			return "", err
		}
		if c == PackageEnd {
			return sb.String(), nil
		}
		if c == '\r' || c == '\n' {
			continue
		}
		sb.WriteByte(c)
		d.echo.Hex(string(c), format)
	}
}

// readTrailer reads the length and checksum residues.
func (d *Decoder) readTrailer() (Outcome, error) {
	length, err := d.readHexByte()
	if err != nil {
		return Outcome{}, err
	}
	checksum, err := d.readHexByte()
	if err != nil {
		return Outcome{}, err
	}
	declared := Outcome{Length: length, Checksum: checksum}
	d.console.Printf("%s\n", declared.Trailer())
	return declared, nil
}

// readHexByte reads two hex digits and decodes them into a byte.
func (d *Decoder) readHexByte() (byte, error) {
	var v byte
	for i := 0; i < 2; i++ {
		c, err := d.next("in the package trailer")
		if err != nil {
			return 0, err
		}
		n := hexDigitValue(c)
		if n < 0 {
			return 0, NewError(ErrMalformedPackage, fmt.Sprintf("invalid hex digit %q in trailer", c))
		}
		v = v<<4 | byte(n)
	}
	return v, nil
}

// hexDigitValue converts a hex digit character to its numeric value.
// Returns -1 if the character is not a valid hex digit.
func hexDigitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	}
	return -1
}

// stripPadding restores the receiver's line endings and drops the trailing
// run of padding characters.
func (d *Decoder) stripPadding(raw []byte, c Conversion) []byte {
	text := d.translator.Translate(string(raw), c)
	return []byte(strings.TrimRight(text, paddingCutset))
}
