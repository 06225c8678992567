// Package rctransfer moves files between a host and an RC2014-class
// retrocomputer over a serial line.
//
// Files travel either as plaintext typed at a CP/M or BASIC prompt, or as
// hex-encoded, checksummed packages understood by the CP/M loaders
// DOWNLOAD.COM (host to remote) and UPLOAD.COM (remote to host).
//
// The package is designed as a library: the Encoder, Decoder and newline
// translators can be used on any byte stream, while Session drives a whole
// batch of files over a Link and reports per-file results.
package rctransfer

import (
	"fmt"
	"strings"
)

// Package framing
const (
	// BlockSize is the CP/M record size; package payloads are a multiple of it
	BlockSize = 128

	// PackageStart separates the preamble from the payload
	PackageStart = ':'

	// PackageEnd separates the payload from the trailer
	PackageEnd = '>'

	// RemoteDrive is the first byte of UPLOAD.COM's header line
	RemoteDrive = 'A'
)

// Padding characters
const (
	// PadNUL is used by the rc2014.co.uk packager
	PadNUL byte = 0x00

	// PadSUB is the CP/M end-of-file marker written by ED.COM
	PadSUB byte = 0x1A
)

// paddingCutset holds every byte treated as padding on reception.
const paddingCutset = "\x00\x1a"

// TransmissionFormat selects the command protocol used on the link.
type TransmissionFormat int

const (
	// Package is the DOWNLOAD.COM / UPLOAD.COM hex package format
	Package TransmissionFormat = iota

	// CPMPlaintext types the file at the CP/M command prompt
	CPMPlaintext

	// BASICPlaintext types the file at a BASIC interpreter prompt
	BASICPlaintext
)

func (f TransmissionFormat) String() string {
	switch f {
	case Package:
		return "package"
	case CPMPlaintext:
		return "cpm-plaintext"
	case BASICPlaintext:
		return "basic-plaintext"
	default:
		return fmt.Sprintf("TransmissionFormat(%d)", int(f))
	}
}

// Plaintext reports whether the format types characters at a prompt.
func (f TransmissionFormat) Plaintext() bool {
	return f == CPMPlaintext || f == BASICPlaintext
}

// ParseTransmissionFormat parses "package", "cpm-plaintext" or "basic-plaintext".
func ParseTransmissionFormat(s string) (TransmissionFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "package":
		return Package, nil
	case "cpm-plaintext":
		return CPMPlaintext, nil
	case "basic-plaintext":
		return BASICPlaintext, nil
	}
	return Package, NewError(ErrConfig, fmt.Sprintf("unknown transmission format %q", s))
}

// FileFormat controls whether newline translation applies to a payload.
type FileFormat int

const (
	// Binary payloads are transmitted byte for byte
	Binary FileFormat = iota

	// Text payloads have their newlines translated
	Text
)

func (f FileFormat) String() string {
	if f == Text {
		return "text"
	}
	return "binary"
}

// ParseFileFormat parses "text" or "binary".
func ParseFileFormat(s string) (FileFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return Text, nil
	case "binary":
		return Binary, nil
	}
	return Binary, NewError(ErrConfig, fmt.Sprintf("unknown file format %q", s))
}

// ParsePadding parses "nul" or "sub" into a padding byte.
func ParsePadding(s string) (byte, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nul", "null", "":
		return PadNUL, nil
	case "sub", "eof":
		return PadSUB, nil
	}
	return PadNUL, NewError(ErrConfig, fmt.Sprintf("unknown padding %q", s))
}
