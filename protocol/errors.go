package protocol

import "fmt"

// FrameTooLargeError indicates that a command does not fit a single frame.
// It points at a paging or erase planning configuration that produces
// chunks or erase lists too large for the device buffer.
type FrameTooLargeError struct {
	// Size is the logical frame size (payload plus CRC) in bytes
	Size int

	// Max is the largest allowed logical size
	Max int
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("frame too large: %d logical bytes, maximum is %d", e.Size, e.Max)
}

// FieldRangeError indicates that a value does not fit its wire field.
type FieldRangeError struct {
	// Field names the command field
	Field string

	// Value is the rejected value
	Value uint64

	// Max is the largest value the field can carry
	Max uint64
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("%s 0x%X out of range: maximum is 0x%X", e.Field, e.Value, e.Max)
}

// DecodeError indicates a malformed frame or command payload.
type DecodeError struct {
	// Reason describes what was wrong with the frame
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode frame: " + e.Reason
}

// IsDecodeError returns true if the error is a DecodeError.
func IsDecodeError(err error) bool {
	_, ok := err.(*DecodeError)
	return ok
}
