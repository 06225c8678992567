package rctransfer

import (
	"io"
	"os"
)

// Callbacks provides hooks for transfer events.
// All callbacks are optional - nil callbacks use default behavior.
type Callbacks struct {
	// OnFileStart is called before a file is transferred.
	// index counts from 1 up to count.
	OnFileStart func(file File, index, count int)

	// OnFileComplete is called after each file, successful or not.
	OnFileComplete func(result Result, index, count int)

	// OnProgress is called periodically while a package is sent.
	// transferred: payload bytes sent so far
	// total: size of the source file (0 if unknown)
	// rate: transfer rate in bytes per second
	OnProgress func(filename string, transferred, total int64, rate float64)

	// OnResponse is called with the remote's reply to a package, lines
	// joined by spaces.
	OnResponse func(file File, response string)

	// OnWarning is called for problems that do not stop the file, such as a
	// payload written despite a checksum mismatch.
	OnWarning func(file File, err error)

	// OnError is called when a file fails.
	// context: description of where the error occurred
	OnError func(err error, context string)

	// OnFileOpen is called when opening a local file for sending.
	// If nil, uses default file opening.
	OnFileOpen func(path string) (io.ReadCloser, os.FileInfo, error)

	// OnFileCreate is called when creating a local file for a received file.
	// If nil, uses default file creation.
	OnFileCreate func(path string) (io.WriteCloser, error)
}

// defaultCallbacks returns a set of callbacks with default implementations.
func defaultCallbacks() *Callbacks {
	return &Callbacks{
		OnFileStart:    func(File, int, int) {},
		OnFileComplete: func(Result, int, int) {},
		OnProgress:     func(string, int64, int64, float64) {},
		OnResponse:     func(File, string) {},
		OnWarning:      func(File, error) {},
		OnError:        func(error, string) {},
		OnFileOpen:     nil, // Use default
		OnFileCreate:   nil, // Use default
	}
}

// mergeCallbacks merges user callbacks with defaults.
// User callbacks override defaults, nil callbacks use defaults.
func mergeCallbacks(user *Callbacks) *Callbacks {
	result := defaultCallbacks()
	if user == nil {
		return result
	}
	if user.OnFileStart != nil {
		result.OnFileStart = user.OnFileStart
	}
	if user.OnFileComplete != nil {
		result.OnFileComplete = user.OnFileComplete
	}
	if user.OnProgress != nil {
		result.OnProgress = user.OnProgress
	}
	if user.OnResponse != nil {
		result.OnResponse = user.OnResponse
	}
	if user.OnWarning != nil {
		result.OnWarning = user.OnWarning
	}
	if user.OnError != nil {
		result.OnError = user.OnError
	}

	// File operations (nil means use default)
	result.OnFileOpen = user.OnFileOpen
	result.OnFileCreate = user.OnFileCreate

	return result
}

func defaultOpen(path string) (io.ReadCloser, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

func defaultCreate(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
