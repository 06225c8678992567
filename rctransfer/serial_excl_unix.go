//go:build linux || darwin

package rctransfer

import (
	"io"

	"golang.org/x/sys/unix"
)

// lockPort sets TIOCEXCL so further opens of the tty fail with EBUSY.
func lockPort(port io.ReadWriteCloser) error {
	f, ok := port.(interface{ Fd() uintptr })
	if !ok {
		return nil
	}
	return unix.IoctlSetInt(int(f.Fd()), unix.TIOCEXCL, 0)
}
