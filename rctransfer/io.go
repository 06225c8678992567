package rctransfer

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// lineIO provides byte-at-a-time reads and paced writes over a link.
//
// A read that returns no data (the link's timeout expired) or io.EOF is
// reported as io.EOF: the stream is over as far as the caller is concerned.
// Any other read or write error is a transport failure. Writes honour the
// per-character delay used when hardware flow control is unavailable.
type lineIO struct {
	reader  io.Reader
	writer  io.Writer
	rbuf    []byte
	rpos    int
	rleft   int
	delay   time.Duration
	ctx     context.Context
	echo    *Transcript
	console *Transcript
}

// newLineIO creates a line I/O handler.
//
// Parameters:
//   - rw: the link
//   - bufsize: size of the read buffer
//   - delay: pause after every character written (0 = write strings whole)
func newLineIO(rw io.ReadWriter, bufsize int, delay time.Duration) *lineIO {
	if bufsize <= 0 {
		bufsize = 256
	}
	return &lineIO{
		reader: rw,
		writer: rw,
		rbuf:   make([]byte, bufsize),
		delay:  delay,
		ctx:    context.Background(),
	}
}

// SetContext sets the context for cancellation.
func (l *lineIO) SetContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.ctx = ctx
}

// SetTranscripts sets where transferred characters are echoed (nil when
// echo is off) and where response progress is shown.
func (l *lineIO) SetTranscripts(echo, console *Transcript) {
	l.echo = echo
	l.console = console
}

func (l *lineIO) cancelled() error {
	select {
	case <-l.ctx.Done():
		return WrapError(ErrCancelled, "transfer interrupted", l.ctx.Err())
	default:
		return nil
	}
}

// ReadByte reads a single byte. io.EOF means the link went quiet.
func (l *lineIO) ReadByte() (byte, error) {
	if l.rleft > 0 {
		l.rleft--
		b := l.rbuf[l.rpos]
		l.rpos++
		return b, nil
	}
	if err := l.cancelled(); err != nil {
		return 0, err
	}

	l.rpos = 0
	n, err := l.reader.Read(l.rbuf)
	if n > 0 {
		l.rleft = n - 1
		l.rpos = 1
		return l.rbuf[0], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return 0, io.EOF
	}
	return 0, WrapError(ErrTransport, "read failed", err)
}

// Write writes p to the link, pausing after each byte when a delay is set.
func (l *lineIO) Write(p []byte) (int, error) {
	if l.delay <= 0 {
		if err := l.cancelled(); err != nil {
			return 0, err
		}
		n, err := l.writer.Write(p)
		if err != nil {
			return n, WrapError(ErrTransport, "write failed", err)
		}
		return n, l.Flush()
	}
	for i := range p {
		if _, err := l.writer.Write(p[i : i+1]); err != nil {
			return i, WrapError(ErrTransport, "write failed", err)
		}
		if err := l.Flush(); err != nil {
			return i, err
		}
		if err := l.pause(); err != nil {
			return i + 1, err
		}
	}
	return len(p), nil
}

func (l *lineIO) pause() error {
	timer := time.NewTimer(l.delay)
	defer timer.Stop()
	select {
	case <-l.ctx.Done():
		return WrapError(ErrCancelled, "transfer interrupted", l.ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Send echoes and writes a command string.
func (l *lineIO) Send(s string) error {
	l.echo.Plain(s)
	_, err := io.WriteString(l, s)
	return err
}

// Flush flushes any buffered writes.
func (l *lineIO) Flush() error {
	if f, ok := l.writer.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return WrapError(ErrTransport, "flush failed", err)
		}
	}
	return nil
}

// Drain reads a command response, marking progress on the transcript. With
// untilNewline it stops at the first LF, otherwise when the link goes quiet.
// The terminating LF is not included.
func (l *lineIO) Drain(untilNewline bool) (string, error) {
	var sb strings.Builder
	l.console.BeginResponse()
	defer l.console.EndResponse()
	for {
		c, err := l.ReadByte()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		if untilNewline && c == '\n' {
			return sb.String(), nil
		}
		sb.WriteByte(c)
		l.console.Response(c)
	}
}

// Collect reads everything until the link goes quiet, echoing each
// character when echo is set and echo is enabled.
func (l *lineIO) Collect(echo bool) (string, error) {
	var sb strings.Builder
	for {
		c, err := l.ReadByte()
		if err == io.EOF {
			if echo {
				l.echo.Printf("\n")
			}
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteByte(c)
		if echo {
			l.echo.Plain(string(c))
		}
	}
}

// ReadLine reads through the next LF (included) or until the link goes quiet.
func (l *lineIO) ReadLine() (string, error) {
	var sb strings.Builder
	for {
		c, err := l.ReadByte()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteByte(c)
		if c == '\n' {
			return sb.String(), nil
		}
	}
}

// PurgeLine discards any buffered input.
func (l *lineIO) PurgeLine() {
	l.rleft = 0
	l.rpos = 0
}
