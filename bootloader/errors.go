package bootloader

import (
	"errors"
	"fmt"
)

// AlignmentError indicates that a write run does not start on a write page
// boundary. The device masks the low offset bits, so such a write would land
// at the wrong address.
type AlignmentError struct {
	Offset    uint32
	Alignment int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("write offset 0x%04X is not aligned to %d bytes", e.Offset, e.Alignment)
}

// TransportError indicates that the byte sink failed during a transfer.
// The transfer is aborted; nothing is retried.
type TransportError struct {
	// Op names the failed operation ("write", "read echo", "reset input")
	Op string

	// Err is the underlying I/O error
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// EchoMismatchError indicates that the loopback echo differs from the frame
// that was sent.
type EchoMismatchError struct {
	// Index is the position of the first differing byte in the frame
	Index    int
	Expected byte
	Actual   byte
}

func (e *EchoMismatchError) Error() string {
	return fmt.Sprintf("loopback echo mismatch at byte %d: expected 0x%02X, got 0x%02X",
		e.Index, e.Expected, e.Actual)
}

// IsTransportError returns true if err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
