package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// ErrTimeout is returned when a read deadline passes before the requested
// number of bytes arrived.
var ErrTimeout = errors.New("transport: read timed out")

// consoleBaud is the only line speed the console's data logger speaks.
const consoleBaud = 19200

// pollInterval is the per-read timeout the serial port is opened with.
// ReadFull accumulates these short reads until its own deadline.
const pollInterval = 100 * time.Millisecond

// Serial is a console link over a local serial port.
type Serial struct {
	port *serial.Port
	name string
}

// OpenSerial opens the serial port the console is attached to.
//
// Example:
//
//	device, err := transport.OpenSerial("/dev/ttyUSB0")
func OpenSerial(name string) (*Serial, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        consoleBaud,
		ReadTimeout: pollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &Serial{port: port, name: name}, nil
}

// Write writes p to the port.
func (s *Serial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// ReadFull reads exactly len(p) bytes, or fails with ErrTimeout once the
// timeout has passed. The port's short per-read timeout makes the overall
// deadline reasonably accurate without reopening the port.
func (s *Serial) ReadFull(p []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	n := 0
	for n < len(p) {
		m, err := s.port.Read(p[n:])
		n += m
		if err != nil && err != io.EOF {
			return n, err
		}
		if n < len(p) && time.Now().After(deadline) {
			return n, ErrTimeout
		}
	}
	return n, nil
}

// Close closes the port.
func (s *Serial) Close() error {
	return s.port.Close()
}

func (s *Serial) String() string {
	return "serial:" + s.name
}
