package rctransfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readWriter struct {
	io.Reader
	io.Writer
}

type countingWriter struct {
	calls int
	buf   bytes.Buffer
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.calls++
	return c.buf.Write(p)
}

type brokenReader struct{}

func (brokenReader) Read(p []byte) (int, error) { return 0, errors.New("device unplugged") }

func TestLineIOReadByteQuietIsEOF(t *testing.T) {
	lio := newLineIO(newScriptedLink(LinkSerial), 0, 0)
	_, err := lio.ReadByte()
	assert.Equal(t, io.EOF, err)

	lio = newLineIO(readWriter{strings.NewReader("ab"), io.Discard}, 1, 0)
	for _, want := range []byte("ab") {
		c, err := lio.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, want, c)
	}
	_, err = lio.ReadByte()
	assert.Equal(t, io.EOF, err)
}

func TestLineIOReadFailure(t *testing.T) {
	lio := newLineIO(readWriter{brokenReader{}, io.Discard}, 0, 0)
	_, err := lio.ReadByte()
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestLineIOCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lio := newLineIO(readWriter{strings.NewReader("ab"), io.Discard}, 0, 0)
	lio.SetContext(ctx)
	_, err := lio.ReadByte()
	assert.True(t, IsCancelled(err))

	_, err = lio.Write([]byte("x"))
	assert.True(t, IsCancelled(err))
}

func TestLineIOPacedWrite(t *testing.T) {
	w := &countingWriter{}
	lio := newLineIO(readWriter{strings.NewReader(""), w}, 0, time.Millisecond)
	n, err := lio.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, w.calls)
	assert.Equal(t, "abc", w.buf.String())

	w = &countingWriter{}
	lio = newLineIO(readWriter{strings.NewReader(""), w}, 0, 0)
	_, err = lio.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 1, w.calls)
}

func TestLineIOSendEchoes(t *testing.T) {
	var echo bytes.Buffer
	w := &countingWriter{}
	lio := newLineIO(readWriter{strings.NewReader(""), w}, 0, 0)
	lio.SetTranscripts(NewTranscript(&echo), nil)
	require.NoError(t, lio.Send("DIR\n"))
	assert.Equal(t, "DIR\n", w.buf.String())
	assert.Equal(t, "DIR\\n\n", echo.String())
}

func TestLineIODrain(t *testing.T) {
	var console bytes.Buffer
	lio := newLineIO(readWriter{strings.NewReader("DIR\r\nA: X\r\nA>"), io.Discard}, 0, 0)
	lio.SetTranscripts(nil, NewTranscript(&console))

	line, err := lio.Drain(true)
	require.NoError(t, err)
	assert.Equal(t, "DIR\r", line)

	rest, err := lio.Drain(false)
	require.NoError(t, err)
	assert.Equal(t, "A: X\r\nA>", rest)
	assert.Equal(t, "[[....]]\n[[........]]\n", console.String())
}

func TestLineIOReadLineAndCollect(t *testing.T) {
	lio := newLineIO(readWriter{strings.NewReader("LIST\r\n10 END\r\n>"), io.Discard}, 0, 0)
	line, err := lio.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "LIST\r\n", line)

	rest, err := lio.Collect(false)
	require.NoError(t, err)
	assert.Equal(t, "10 END\r\n>", rest)
}

func TestLineIOPurgeLine(t *testing.T) {
	lio := newLineIO(readWriter{strings.NewReader("stale"), io.Discard}, 0, 0)
	_, err := lio.ReadByte()
	require.NoError(t, err)
	lio.PurgeLine()
	_, err = lio.ReadByte()
	assert.Equal(t, io.EOF, err)
}
