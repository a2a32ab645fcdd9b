// Package transport connects the programmer to a PIC18 bootloader over a
// serial line and performs the synchronization handshake.
package transport

import (
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

var (
	// ErrTimeout is returned by Port.Read when no byte arrived within the
	// read timeout.
	ErrTimeout = errors.New("serial: read timed out")
)

// Config holds the serial line settings.
type Config struct {
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits

	// ReadTimeout bounds a single Read call; zero blocks until data arrives
	ReadTimeout time.Duration
}

// DefaultConfig returns 115200 baud, 8N1, with a one second read timeout.
func DefaultConfig() Config {
	return Config{
		BaudRate:    115200,
		DataBits:    8,
		Parity:      serial.NoParity,
		StopBits:    serial.OneStopBit,
		ReadTimeout: time.Second,
	}
}

// Port is an open serial line. It implements io.ReadWriter and the input
// reset used by the programmer in loopback mode.
type Port struct {
	port line
	name string
}

// line is the part of serial.Port used after opening.
type line interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	ResetInputBuffer() error
	Close() error
}

// Open opens the serial device at name.
//
// Example:
//
//	port, err := transport.Open("/dev/ttyUSB0", transport.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
func Open(name string, cfg Config) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}

	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			port.Close()
			return nil, errors.Wrapf(err, "set read timeout on %s", name)
		}
	}

	return &Port{port: port, name: name}, nil
}

// Name returns the device path the port was opened with.
func (p *Port) Name() string {
	return p.name
}

// Read reads available bytes. A read that times out with nothing received
// returns ErrTimeout instead of zero bytes.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err != nil {
		return n, errors.Wrapf(err, "read %s", p.name)
	}
	if n == 0 && len(b) > 0 {
		return 0, ErrTimeout
	}
	return n, nil
}

// Write writes all of b.
func (p *Port) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := p.port.Write(b[written:])
		written += n
		if err != nil {
			return written, errors.Wrapf(err, "write %s", p.name)
		}
		if n == 0 {
			return written, errors.Errorf("write %s: no progress after %d bytes", p.name, written)
		}
	}
	return written, nil
}

// ResetInputBuffer discards received but unread bytes.
func (p *Port) ResetInputBuffer() error {
	return errors.Wrapf(p.port.ResetInputBuffer(), "reset input %s", p.name)
}

// Close closes the port.
func (p *Port) Close() error {
	return errors.Wrapf(p.port.Close(), "close %s", p.name)
}

// ListPorts returns the serial devices present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "list serial ports")
	}
	return ports, nil
}
