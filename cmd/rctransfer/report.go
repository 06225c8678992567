package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/drunlade/go-rctransfer/rctransfer"
)

// reporter prints the per-file progress and completion lines.
type reporter struct {
	out      io.Writer
	errOut   io.Writer
	settings settings
	config   *rctransfer.Config
	link     rctransfer.Link

	skipped int
}

func (r *reporter) callbacks() *rctransfer.Callbacks {
	return &rctransfer.Callbacks{
		OnFileStart:    r.fileStart,
		OnFileComplete: r.fileComplete,
		OnWarning: func(file rctransfer.File, err error) {
			if rctransfer.IsMismatch(err) || rctransfer.IsNoMatch(err) {
				fmt.Fprintln(r.out, capitalize(messageOf(err)))
			} else {
				fmt.Fprintf(r.errOut, "Warning: %v\n", err)
			}
			if rctransfer.IsNoMatch(err) {
				r.skipped++
			}
		},
		OnError: func(err error, context string) {
			switch {
			case rctransfer.IsRemoteRejected(err):
				// already shown as the remote's response
			default:
				fmt.Fprintf(r.errOut, "Error in %s: %v\n", context, err)
			}
		},
	}
}

func (r *reporter) fileStart(file rctransfer.File, index, count int) {
	basic := r.config.Format == rctransfer.BASICPlaintext
	if r.settings.Receive {
		source := file.OriginalPath
		if basic {
			source = "BASIC Interpreter"
		}
		fmt.Fprintf(r.out, "\nDownloading file %d/%d: %s -> %s\n", index, count, source, file.TargetName)
		return
	}
	target := file.TargetName
	if basic {
		target = "BASIC Interpreter"
	}
	fmt.Fprintf(r.out, "\nUploading file %d/%d: %s -> %s\n", index, count, file.OriginalPath, target)
}

func (r *reporter) fileComplete(result rctransfer.Result, index, count int) {
	file := result.File
	direction, name, preposition := "transmission", file.TargetName, "to"
	if r.settings.Receive {
		direction, name, preposition = "reception", file.OriginalPath, "from"
	}

	var sb strings.Builder
	if r.link.Kind() == rctransfer.LinkConsole {
		fmt.Fprintf(&sb, "\nSimulated %s %s of %s ", r.config.Format, direction, name)
	} else {
		fmt.Fprintf(&sb, "\n\n%s %s of %s %s %s ", capitalize(r.config.Format.String()), direction, name,
			preposition, r.link.Name())
	}
	specifiedAs := "inferred"
	if !file.FormatInferred {
		specifiedAs = r.settings.FileFormat
	}
	fmt.Fprintf(&sb, "(%d/%d) completed in %.3f seconds. File format: %s (specified as %s)",
		index, count, result.Duration.Seconds(), file.Format, specifiedAs)
	if !result.OK() {
		sb.WriteString(" with errors")
	}
	fmt.Fprintln(r.out, sb.String())

	if r.settings.Verbose {
		fmt.Fprintf(r.out, "\tFile size:         %10d\n", result.FileBytes)
		if r.config.Format == rctransfer.Package {
			fmt.Fprintf(r.out, "\tBytes of padding:  %10d\n", result.Outcome.Padding)
		}
		fmt.Fprintf(r.out, "\tTransmission size: %10d\n", result.WireBytes)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// messageOf returns the message of a transfer error without its type prefix.
func messageOf(err error) string {
	var e *rctransfer.Error
	if errors.As(err, &e) {
		switch e.Type {
		case rctransfer.ErrLengthMismatch:
			return "Length error! " + capitalize(e.Message)
		case rctransfer.ErrChecksumMismatch:
			return "Checksum error! " + capitalize(e.Message)
		}
		return e.Message
	}
	return err.Error()
}
