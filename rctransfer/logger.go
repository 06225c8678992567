package rctransfer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger interface for link and session logging
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// FileLogger writes logs to a file
type FileLogger struct {
	file *os.File
	mu   sync.Mutex
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(path string) (*FileLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{file: file}, nil
}

func (l *FileLogger) log(level, format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.file, "[%s] %s: %s\n", timestamp, level, msg)
}

func (l *FileLogger) Debug(format string, args ...interface{}) {
	l.log("DEBUG", format, args...)
}

func (l *FileLogger) Info(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

func (l *FileLogger) Error(format string, args ...interface{}) {
	l.log("ERROR", format, args...)
}

func (l *FileLogger) Close() error {
	if l != nil && l.file != nil {
		return l.file.Close()
	}
	return nil
}

// NoopLogger does nothing
type NoopLogger struct{}

func (NoopLogger) Debug(format string, args ...interface{}) {}
func (NoopLogger) Info(format string, args ...interface{})  {}
func (NoopLogger) Error(format string, args ...interface{}) {}

// ZerologLogger adapts a zerolog.Logger
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps logger
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

// NewConsoleLogger logs human-readable lines to w at the given level
func NewConsoleLogger(w io.Writer, level zerolog.Level) *ZerologLogger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", "rctransfer").Logger()
	return NewZerologLogger(logger)
}

func (l *ZerologLogger) Debug(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Info(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Error(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

// MultiLogger fans every message out to several loggers
type MultiLogger []Logger

func (m MultiLogger) Debug(format string, args ...interface{}) {
	for _, l := range m {
		l.Debug(format, args...)
	}
}

func (m MultiLogger) Info(format string, args ...interface{}) {
	for _, l := range m {
		l.Info(format, args...)
	}
}

func (m MultiLogger) Error(format string, args ...interface{}) {
	for _, l := range m {
		l.Error(format, args...)
	}
}

// LoggingLink wraps a link and logs all reads and writes
type LoggingLink struct {
	Link
	logger Logger
}

// NewLoggingLink wraps link so its traffic is logged at debug level
func NewLoggingLink(link Link, logger Logger) *LoggingLink {
	return &LoggingLink{Link: link, logger: logger}
}

func (ll *LoggingLink) Read(p []byte) (int, error) {
	n, err := ll.Link.Read(p)
	if n > 0 {
		data := p[:n]
		if n > 128 {
			ll.logger.Debug("%s: Read %d bytes: %q...[truncated]", ll.Name(), n, data[:128])
		} else {
			ll.logger.Debug("%s: Read %d bytes: %q", ll.Name(), n, data)
		}
	}
	if err != nil && err != io.EOF {
		ll.logger.Error("%s: Read error: %v", ll.Name(), err)
	}
	return n, err
}

func (ll *LoggingLink) Write(p []byte) (int, error) {
	n, err := ll.Link.Write(p)
	if n > 10 {
		// Single characters are paced writes; only log longer ones
		data := p[:n]
		if n > 128 {
			ll.logger.Debug("%s: Wrote %d bytes: %q...[truncated]", ll.Name(), n, data[:128])
		} else {
			ll.logger.Debug("%s: Wrote %d bytes: %q", ll.Name(), n, data)
		}
	}
	if err != nil {
		ll.logger.Error("%s: Write error: %v", ll.Name(), err)
	}
	return n, err
}

// Unwrap returns the wrapped link
func (ll *LoggingLink) Unwrap() Link {
	return ll.Link
}
