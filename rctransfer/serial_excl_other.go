//go:build !linux && !darwin

package rctransfer

import "io"

// lockPort is a no-op: Windows opens COM ports exclusively already.
func lockPort(port io.ReadWriteCloser) error {
	return nil
}
