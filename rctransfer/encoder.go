package rctransfer

import (
	"errors"
	"fmt"
	"io"
)

// Header names the file a package is written to on the remote.
type Header struct {
	// TargetName is the 8.3 file name on the CP/M computer
	TargetName string

	// User is the CP/M user number (0-15)
	User int
}

// Preamble returns the command line that starts DOWNLOAD.COM, up to and
// including the payload's opening ':'.
func (h Header) Preamble() string {
	return fmt.Sprintf("A:DOWNLOAD %s\nU%d\n%c", h.TargetName, h.User, PackageStart)
}

// Outcome is the result of encoding or decoding one package.
type Outcome struct {
	// Length is the payload length (padding included) modulo 256
	Length byte

	// Checksum is the sum of the payload bytes modulo 256
	Checksum byte

	// Bytes is the payload length including padding
	Bytes int64

	// Padding is the number of padding bytes in the payload
	Padding int
}

// Trailer returns the package trailer for the outcome.
func (o Outcome) Trailer() string {
	return fmt.Sprintf("%c%02X%02X", PackageEnd, o.Length, o.Checksum)
}

// EncoderConfig holds configuration for an encoder.
type EncoderConfig struct {
	// Padding is the byte used to fill the last record (PadNUL or PadSUB)
	Padding byte

	// Transcript receives an echo of everything written (may be nil)
	Transcript *Transcript

	// Progress is called with the payload bytes written so far (may be nil)
	Progress func(written int64)
}

// Encoder writes files as DOWNLOAD.COM packages.
type Encoder struct {
	w          io.Writer
	padding    byte
	transcript *Transcript
	progress   func(int64)
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer, config EncoderConfig) *Encoder {
	return &Encoder{
		w:          w,
		padding:    config.Padding,
		transcript: config.Transcript,
		progress:   config.Progress,
	}
}

// packageState is the running state of one package.
type packageState struct {
	count int64
	sum   byte
}

func (s *packageState) add(b []byte) {
	s.count += int64(len(b))
	for _, c := range b {
		s.sum += c
	}
}

// Encode writes the package for the contents of r.
//
// Text payloads are newline-translated with c; binary payloads are written
// byte for byte. The final record is padded to BlockSize. With NUL padding a
// payload that already ends on a record boundary gets no padding, except an
// empty payload, which always gets one full record.
func (e *Encoder) Encode(r io.Reader, h Header, format FileFormat, c Conversion) (Outcome, error) {
	if format == Binary {
		c = NoConversion
	}
	if err := e.writePlain(h.Preamble()); err != nil {
		return Outcome{}, err
	}

	var (
		state      packageState
		translator HexLineTranslator
		block      = make([]byte, BlockSize)
	)
	for {
		n, err := io.ReadFull(r, block)
		final := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !final {
			return Outcome{}, WrapError(ErrLocalIO, "read failed", err)
		}
		if n > 0 || (final && translator.Pending()) {
			out := translator.Block(block[:n], c, final)
			if err := e.writeHex(out, format); err != nil {
				return Outcome{}, err
			}
			state.add(out)
			if e.progress != nil {
				e.progress(state.count)
			}
		}
		if final {
			break
		}
	}

	padding := e.paddingNeeded(state.count)
	if padding > 0 {
		pad := make([]byte, padding)
		for i := range pad {
			pad[i] = e.padding
		}
		if err := e.writeHex(pad, format); err != nil {
			return Outcome{}, err
		}
		state.add(pad)
	}

	outcome := Outcome{
		Length:   byte(state.count),
		Checksum: state.sum,
		Bytes:    state.count,
		Padding:  padding,
	}
	if err := e.writePlain(outcome.Trailer()); err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// paddingNeeded returns how many padding bytes follow a payload of count bytes.
func (e *Encoder) paddingNeeded(count int64) int {
	padding := BlockSize - int(count%BlockSize)
	if padding == BlockSize && e.padding == PadNUL && count > 0 {
		return 0
	}
	return padding
}

func (e *Encoder) writePlain(s string) error {
	e.transcript.Plain(s)
	if _, err := io.WriteString(e.w, s); err != nil {
		return transportError(err)
	}
	return nil
}

func (e *Encoder) writeHex(b []byte, format FileFormat) error {
	s := encodeHexPairs(b)
	e.transcript.Hex(s, format)
	if _, err := io.WriteString(e.w, s); err != nil {
		return transportError(err)
	}
	return nil
}

// transportError keeps typed errors from the link and wraps anything else.
func transportError(err error) error {
	if _, ok := errorType(err); ok {
		return err
	}
	return WrapError(ErrTransport, "write failed", err)
}
