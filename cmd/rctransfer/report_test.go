package main

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/drunlade/go-rctransfer/rctransfer"
	"github.com/stretchr/testify/assert"
)

type nopPort struct{ io.Writer }

func (nopPort) Read(p []byte) (int, error) { return 0, nil }
func (nopPort) Close() error               { return nil }

func newTestReporter(s settings, link rctransfer.Link) (*reporter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	config := rctransfer.DefaultConfig()
	if s.Transmission == "basic-plaintext" {
		config.Format = rctransfer.BASICPlaintext
	}
	return &reporter{out: &out, errOut: &errOut, settings: s, config: config, link: link}, &out, &errOut
}

func TestReporterSimulatedSend(t *testing.T) {
	r, out, _ := newTestReporter(defaultSettings(), rctransfer.ConsoleLink{})
	cb := r.callbacks()
	file := rctransfer.File{OriginalPath: "hello.txt", TargetName: "HELLO.TXT", Format: rctransfer.Text, FormatInferred: true}

	cb.OnFileStart(file, 1, 2)
	cb.OnFileComplete(rctransfer.Result{File: file, Duration: 1500 * time.Millisecond}, 1, 2)

	assert.Equal(t, "\nUploading file 1/2: hello.txt -> HELLO.TXT\n"+
		"\nSimulated package transmission of HELLO.TXT (1/2) completed in 1.500 seconds. File format: text (specified as inferred)\n",
		out.String())
}

func TestReporterReceiveOverSerial(t *testing.T) {
	s := defaultSettings()
	s.Receive = true
	s.FileFormat = "binary"
	s.Verbose = true
	link := rctransfer.NewStreamLink(nopPort{io.Discard}, rctransfer.LinkSerial, "/dev/ttyUSB0")
	r, out, _ := newTestReporter(s, link)
	file := rctransfer.File{OriginalPath: "A:GAME.COM", TargetName: "GAME.COM", Format: rctransfer.Binary}

	r.fileStart(file, 1, 1)
	r.fileComplete(rctransfer.Result{
		File:      file,
		Duration:  2 * time.Second,
		FileBytes: 256,
		WireBytes: 560,
		Outcome:   rctransfer.Outcome{Padding: 0},
		Err:       rctransfer.NewError(rctransfer.ErrIncomplete, "stream ended"),
	}, 1, 1)

	text := out.String()
	assert.Contains(t, text, "\nDownloading file 1/1: A:GAME.COM -> GAME.COM\n")
	assert.Contains(t, text, "\n\nPackage reception of A:GAME.COM from /dev/ttyUSB0 (1/1) completed in 2.000 seconds. "+
		"File format: binary (specified as binary) with errors\n")
	assert.Contains(t, text, "File size:                256")
	assert.Contains(t, text, "Transmission size:        560")
}

func TestReporterBASICNames(t *testing.T) {
	s := defaultSettings()
	s.Transmission = "basic-plaintext"
	r, out, _ := newTestReporter(s, rctransfer.ConsoleLink{})
	r.fileStart(rctransfer.File{OriginalPath: "prog.bas", TargetName: "PROG.BAS"}, 1, 1)
	assert.Equal(t, "\nUploading file 1/1: prog.bas -> BASIC Interpreter\n", out.String())
}

func TestReporterWarnings(t *testing.T) {
	r, out, errOut := newTestReporter(defaultSettings(), rctransfer.ConsoleLink{})
	cb := r.callbacks()

	cb.OnWarning(rctransfer.File{}, rctransfer.NewError(rctransfer.ErrChecksumMismatch, "package reports 42; found 41"))
	cb.OnWarning(rctransfer.File{}, rctransfer.NewError(rctransfer.ErrNoMatch, `no file matching "*.bas"`))
	cb.OnWarning(rctransfer.File{}, rctransfer.NewError(rctransfer.ErrTransport, "clipboard is unavailable"))

	assert.Equal(t, "Checksum error! Package reports 42; found 41\nNo file matching \"*.bas\"\n", out.String())
	assert.Equal(t, "Warning: transport failure: clipboard is unavailable\n", errOut.String())
	assert.Equal(t, 1, r.skipped)
}

func TestReporterErrors(t *testing.T) {
	r, _, errOut := newTestReporter(defaultSettings(), rctransfer.ConsoleLink{})
	cb := r.callbacks()

	cb.OnError(rctransfer.NewError(rctransfer.ErrRemoteRejected, "Can't find input file$"), "receive file")
	assert.Empty(t, errOut.String(), "rejections were already shown as the response")

	cb.OnError(rctransfer.NewError(rctransfer.ErrSourceFileMissing, "file x not found"), "send file")
	assert.Equal(t, "Error in send file: file not found: file x not found\n", errOut.String())
}
