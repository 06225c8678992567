package rctransfer

import (
	"fmt"
	"time"

	"github.com/jacobsa/go-serial/serial"
)

// BaudRates lists the accepted baud rates. The RC2014 Dual Clock Module
// supports 4800, 9600, 14400, 19200, 38400, 57600 and 115200.
var BaudRates = []int{50, 75, 110, 134, 150, 200, 300, 600, 1200, 1800, 2400, 4800, 9600, 14400,
	19200, 28800, 38400, 57600, 115200, 230400, 460800, 500000, 576000, 921600,
	1000000, 1152000, 1500000, 2000000, 2500000, 3000000, 3500000, 4000000}

// ValidBaudRate reports whether baud is one of BaudRates.
func ValidBaudRate(baud int) bool {
	for _, b := range BaudRates {
		if b == baud {
			return true
		}
	}
	return false
}

// SerialConfig describes a serial port.
type SerialConfig struct {
	// Port is the device name, e.g. /dev/ttyUSB0 or COM3
	Port string

	// Baud is the line speed
	Baud int

	// FlowControl enables RTS/CTS hardware flow control
	FlowControl bool

	// Exclusive asks the OS for exclusive access where supported
	Exclusive bool

	// Timeout bounds each read; a quiet line reads as end of stream
	Timeout time.Duration
}

// DefaultSerialConfig returns 115200 baud with flow control and a 250 ms timeout.
func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{
		Port:        port,
		Baud:        115200,
		FlowControl: true,
		Exclusive:   true,
		Timeout:     DefaultTimeout,
	}
}

// OpenSerial opens a serial port at 8N1.
func OpenSerial(config SerialConfig) (Link, error) {
	if !ValidBaudRate(config.Baud) {
		return nil, NewError(ErrConfig, fmt.Sprintf("unsupported baud rate %d", config.Baud))
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	options := serial.OpenOptions{
		PortName:              config.Port,
		BaudRate:              uint(config.Baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		RTSCTSFlowControl:     config.FlowControl,
		InterCharacterTimeout: uint(timeout / time.Millisecond),
		MinimumReadSize:       0,
	}
	port, err := serial.Open(options)
	if err != nil {
		return nil, WrapError(ErrTransport, fmt.Sprintf("connection failure on %s", config.Port), err)
	}
	if config.Exclusive {
		if err := lockPort(port); err != nil {
			port.Close()
			return nil, WrapError(ErrTransport, fmt.Sprintf("cannot get exclusive access to %s", config.Port), err)
		}
	}
	return NewStreamLink(port, LinkSerial, config.Port), nil
}
