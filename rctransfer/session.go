package rctransfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Session transfers batches of files over one link.
type Session struct {
	// I/O
	link Link
	io   *lineIO
	wire *byteCounter

	// Configuration
	config *Config

	// Callbacks
	callbacks *Callbacks

	// Renamer for names that do not fit 8.3 (nil accepts the proposal)
	renamer Renamer

	// Transcripts
	echo    *Transcript
	console *Transcript

	plaintext *PlaintextSession
	progress  *ProgressTracker

	// Context
	ctx context.Context

	// Logger
	logger Logger
}

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the session configuration.
func WithConfig(config *Config) Option {
	return func(s *Session) {
		s.config = config
	}
}

// WithCallbacks sets the session callbacks.
func WithCallbacks(callbacks *Callbacks) Option {
	return func(s *Session) {
		s.callbacks = mergeCallbacks(callbacks)
	}
}

// WithContext sets the session context.
func WithContext(ctx context.Context) Option {
	return func(s *Session) {
		s.ctx = ctx
	}
}

// WithLogger logs link traffic and session events.
func WithLogger(logger Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRenamer sets how names that do not fit 8.3 are replaced.
func WithRenamer(renamer Renamer) Option {
	return func(s *Session) {
		s.renamer = renamer
	}
}

// NewSession creates a new transfer session on link.
func NewSession(link Link, opts ...Option) *Session {
	s := &Session{
		link:      link,
		config:    DefaultConfig(),
		callbacks: defaultCallbacks(),
		ctx:       context.Background(),
		logger:    NoopLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if _, ok := s.logger.(NoopLogger); !ok {
		s.link = NewLoggingLink(link, s.logger)
	}
	s.wire = &byteCounter{w: s.link}
	s.io = newLineIO(struct {
		io.Reader
		io.Writer
	}{s.link, s.wire}, 256, s.config.CharDelay)
	s.io.SetContext(s.ctx)
	s.echo, s.console = s.config.transcripts()
	s.io.SetTranscripts(s.echo, s.console)
	s.plaintext = newPlaintextSession(s.io, link.Kind())
	s.progress = NewProgressTracker(s.callbacks.OnProgress, s.config.ProgressInterval)
	return s
}

// Link returns the link the session runs on.
func (s *Session) Link() Link {
	return s.link
}

// Plaintext returns the plaintext session sharing this session's link.
func (s *Session) Plaintext() *PlaintextSession {
	return s.plaintext
}

// ExpandFiles turns command-line file specs into the files of a batch.
//
// When sending, each spec is a local wildcard pattern. When receiving, a
// spec is a remote CP/M file spec: on a live link with a CP/M transmission
// format the remote is asked with DIR, otherwise a name is made up. A spec
// that matches nothing is reported through OnWarning and skipped.
func (s *Session) ExpandFiles(ctx context.Context, specs []string, specified *FileFormat, receiving bool) ([]File, error) {
	s.setContext(ctx)
	var files []File
	for _, spec := range specs {
		names, err := s.expand(spec, receiving)
		if err != nil {
			if IsFatal(err) {
				return files, err
			}
			s.callbacks.OnWarning(File{OriginalPath: spec}, err)
			continue
		}
		for _, name := range names {
			target, err := TruncateFilename(name, receiving, s.renamer)
			if err != nil {
				if IsFatal(err) {
					return files, err
				}
				s.callbacks.OnWarning(File{OriginalPath: name}, err)
				continue
			}
			probe := name
			if receiving {
				probe = target
			}
			format := InferFormat(probe, specified, s.config.Format, receiving)
			files = append(files, File{
				OriginalPath:     name,
				TargetName:       target,
				Format:           format,
				FormatInferred:   specified == nil,
				FormatOverridden: specified != nil && *specified != format,
			})
		}
	}
	return files, nil
}

func (s *Session) expand(spec string, receiving bool) ([]string, error) {
	if !receiving {
		return ExpandLocal(spec)
	}
	if !s.link.Kind().Interactive() || s.config.Format == BASICPlaintext {
		return []string{SynthesizeName(spec)}, nil
	}
	names, err := s.plaintext.Directory(spec, s.config.User)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		s.console.Printf("Response: No file\n")
		return nil, NewError(ErrNoMatch, fmt.Sprintf("no file matching %q", spec))
	}
	return dedupe(names), nil
}

// SendFiles sends each file in turn. Only transport failures and
// cancellation stop the batch; other failures are recorded in the report.
func (s *Session) SendFiles(ctx context.Context, files []File) (*Report, error) {
	return s.batch(ctx, files, "send file", s.sendFile)
}

// ReceiveFiles receives each file in turn. Only transport failures and
// cancellation stop the batch; other failures are recorded in the report.
func (s *Session) ReceiveFiles(ctx context.Context, files []File) (*Report, error) {
	return s.batch(ctx, files, "receive file", s.receiveFile)
}

func (s *Session) batch(ctx context.Context, files []File, what string, transfer func(File) Result) (*Report, error) {
	s.setContext(ctx)
	report := &Report{}
	for i, file := range files {
		if i > 0 {
			if err := s.interFileDelay(); err != nil {
				return report, err
			}
		}
		s.callbacks.OnFileStart(file, i+1, len(files))
		s.logger.Info("%s %d/%d: %s -> %s", what, i+1, len(files), file.OriginalPath, file.TargetName)

		start := time.Now()
		wireStart := s.wire.n
		result := transfer(file)
		result.File = file
		result.Duration = time.Since(start)
		result.WireBytes = s.wire.n - wireStart
		if result.Err != nil {
			result.Err = withFile(result.Err, file.OriginalPath)
		}
		report.Add(result)

		if result.Warning != nil {
			s.logger.Error("%s: %v", file.OriginalPath, result.Warning)
			s.callbacks.OnWarning(file, result.Warning)
		}
		if result.Err != nil {
			s.logger.Error("%s: %v", file.OriginalPath, result.Err)
			s.callbacks.OnError(result.Err, what)
		}
		s.callbacks.OnFileComplete(result, i+1, len(files))
		if IsFatal(result.Err) {
			return report, result.Err
		}
	}
	return report, nil
}

func (s *Session) setContext(ctx context.Context) {
	if ctx == nil {
		ctx = s.ctx
	}
	s.io.SetContext(ctx)
}

func (s *Session) interFileDelay() error {
	if s.config.InterFileDelay <= 0 {
		return s.io.cancelled()
	}
	timer := time.NewTimer(s.config.InterFileDelay)
	defer timer.Stop()
	select {
	case <-s.io.ctx.Done():
		return WrapError(ErrCancelled, "transfer interrupted", s.io.ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (s *Session) conversion(file File) Conversion {
	if file.Format == Binary {
		return NoConversion
	}
	return s.config.Conversion
}

func (s *Session) sendFile(file File) Result {
	var result Result
	open := s.callbacks.OnFileOpen
	if open == nil {
		open = defaultOpen
	}
	f, info, err := open(file.OriginalPath)
	if err != nil {
		result.Err = WrapError(ErrSourceFileMissing, fmt.Sprintf("file %s not found", file.OriginalPath), err)
		return result
	}
	defer f.Close()

	var size int64
	if info != nil {
		size = info.Size()
	}
	src := &countingReader{r: f}
	c := s.conversion(file)

	switch s.config.Format {
	case BASICPlaintext:
		result.Err = s.plaintext.SendBASICFile(src, c)
	case CPMPlaintext:
		result.Err = s.plaintext.SendCPMFile(src, file.TargetName, s.config.User, c)
	default:
		s.progress.Start(file.OriginalPath, size)
		encoder := NewEncoder(s.io, EncoderConfig{
			Padding:    s.config.Padding,
			Transcript: s.echo,
			Progress:   s.progress.Update,
		})
		header := Header{TargetName: file.TargetName, User: s.config.User}
		result.Outcome, result.Err = encoder.Encode(src, header, file.Format, c)
		s.progress.Complete()
		if result.Err == nil && s.link.Kind().Interactive() {
			result.Response, result.Err = s.readResponse()
			if result.Err == nil {
				s.console.Printf("Response: %s\n", result.Response)
				s.callbacks.OnResponse(file, result.Response)
			}
		}
	}
	result.FileBytes = src.n

	if clip := clipboardOf(s.link); clip != nil {
		if err := clip.Copy(); err != nil {
			result.Warning = err
		}
	}
	return result
}

// readResponse collects the remote's reply to a package as one line.
func (s *Session) readResponse() (string, error) {
	response, err := s.io.Collect(false)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, line := range splitLines(response) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " "), nil
}

func (s *Session) receiveFile(file File) Result {
	var result Result
	clip := clipboardOf(s.link)
	if clip != nil {
		if err := clip.Paste(); err != nil {
			result.Err = err
			return result
		}
		s.io.PurgeLine()
	}

	c := s.conversion(file)
	var (
		payload []byte
		err     error
	)
	switch s.config.Format {
	case BASICPlaintext:
		var text string
		text, err = s.plaintext.ReceiveBASICFile(c)
		payload = []byte(text)
	case CPMPlaintext:
		var text string
		text, err = s.plaintext.ReceiveCPMFile(file.OriginalPath, c)
		payload = []byte(text)
	default:
		var pkg *Received
		pkg, result.Warning, err = s.receivePackage(file, c)
		if pkg != nil {
			payload, result.Outcome = pkg.Payload, pkg.Found
		}
	}
	if err != nil {
		result.Err = err
		return result
	}
	if s.link.Kind() == LinkConsole {
		// nothing came back to write
		return result
	}

	create := s.callbacks.OnFileCreate
	if create == nil {
		create = defaultCreate
	}
	w, err := create(file.TargetName)
	if err != nil {
		result.Err = WrapError(ErrLocalIO, fmt.Sprintf("cannot create %s", file.TargetName), err)
		return result
	}
	n, err := io.Copy(w, bytes.NewReader(payload))
	result.FileBytes = n
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		result.Err = WrapError(ErrLocalIO, fmt.Sprintf("cannot write %s", file.TargetName), err)
	}
	return result
}

// receivePackage runs UPLOAD.COM for file. A length or checksum mismatch is
// returned as a warning alongside the payload.
func (s *Session) receivePackage(file File, c Conversion) (pkg *Received, warning, err error) {
	kind := s.link.Kind()
	if kind != LinkClipboard {
		if err := s.io.Send(UploadCommand(file.OriginalPath)); err != nil {
			return nil, nil, err
		}
	}
	if kind == LinkConsole {
		return nil, nil, nil
	}

	decoder := NewDecoder(s.io, DecoderConfig{
		SkipEcho: kind == LinkClipboard,
		Echo:     s.echo,
		Console:  s.console,
	})
	pkg, err = decoder.Decode(file.Format, c)
	if pkg != nil && IsMismatch(err) {
		warning, err = err, nil
	}
	if _, derr := s.io.Drain(false); err == nil && derr != nil {
		err = derr
	}
	if err != nil {
		return nil, nil, err
	}
	return pkg, warning, nil
}

// pasteboard is the part of *ClipboardLink the session needs.
type pasteboard interface {
	Paste() error
	Copy() error
}

// clipboardOf finds the clipboard behind link, looking through wrappers.
func clipboardOf(link Link) pasteboard {
	for link != nil {
		if c, ok := link.(pasteboard); ok {
			return c
		}
		u, ok := link.(interface{ Unwrap() Link })
		if !ok {
			return nil
		}
		link = u.Unwrap()
	}
	return nil
}

// byteCounter counts the bytes written to the link.
type byteCounter struct {
	w io.Writer
	n int64
}

func (b *byteCounter) Write(p []byte) (int, error) {
	n, err := b.w.Write(p)
	b.n += int64(n)
	return n, err
}

// countingReader counts the bytes read from a source file.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
