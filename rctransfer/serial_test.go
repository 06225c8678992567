package rctransfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidBaudRate(t *testing.T) {
	for _, baud := range []int{4800, 9600, 14400, 19200, 38400, 57600, 115200} {
		assert.True(t, ValidBaudRate(baud), baud)
	}
	assert.False(t, ValidBaudRate(0))
	assert.False(t, ValidBaudRate(12345))
}

func TestDefaultSerialConfig(t *testing.T) {
	config := DefaultSerialConfig("/dev/ttyUSB0")
	assert.Equal(t, "/dev/ttyUSB0", config.Port)
	assert.Equal(t, 115200, config.Baud)
	assert.True(t, config.FlowControl)
	assert.True(t, config.Exclusive)
	assert.Equal(t, DefaultTimeout, config.Timeout)
}

func TestOpenSerialRejectsBadBaud(t *testing.T) {
	config := DefaultSerialConfig("/dev/ttyUSB0")
	config.Baud = 12345
	_, err := OpenSerial(config)
	require.Error(t, err)
	assert.Equal(t, ErrConfig, err.(*Error).Type)
}

func TestOpenSerialMissingPort(t *testing.T) {
	_, err := OpenSerial(DefaultSerialConfig("/dev/rctransfer-no-such-port"))
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}
