package ihex

import "fmt"

// FormatError indicates a record whose checksum does not match its contents.
type FormatError struct {
	// Line is the 1-based input line, or 0 when parsing a lone record
	Line int

	// Expected is the checksum computed from the record contents
	Expected byte

	// Actual is the checksum found on the line
	Actual byte
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%schecksum mismatch: expected 0x%02X, got 0x%02X",
		linePrefix(e.Line), e.Expected, e.Actual)
}

// MalformedLineError indicates a line that does not follow the record grammar.
type MalformedLineError struct {
	// Line is the 1-based input line, or 0 when parsing a lone record
	Line int

	// Reason describes what is wrong with the line
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("%smalformed record: %s", linePrefix(e.Line), e.Reason)
}

// UnsupportedRecordError indicates a record type the consolidator cannot
// handle, such as segment addressing.
type UnsupportedRecordError struct {
	// Index is the 0-based position of the record in the input sequence
	Index int

	// Type is the offending record type
	Type RecordType
}

func (e *UnsupportedRecordError) Error() string {
	return fmt.Sprintf("record %d: unsupported record type %s", e.Index, e.Type)
}

func linePrefix(line int) string {
	if line <= 0 {
		return ""
	}
	return fmt.Sprintf("line %d: ", line)
}
