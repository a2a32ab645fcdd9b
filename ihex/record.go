package ihex

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// RecordType is the Intel HEX record type byte.
type RecordType byte

// Record types. Every type has its own tag.
const (
	Data                   RecordType = 0x00
	EndOfFile              RecordType = 0x01
	ExtendedSegmentAddress RecordType = 0x02
	StartSegmentAddress    RecordType = 0x03
	ExtendedLinearAddress  RecordType = 0x04
	StartLinearAddress     RecordType = 0x05
)

func (t RecordType) String() string {
	switch t {
	case Data:
		return "Data"
	case EndOfFile:
		return "EndOfFile"
	case ExtendedSegmentAddress:
		return "ExtendedSegmentAddress"
	case StartSegmentAddress:
		return "StartSegmentAddress"
	case ExtendedLinearAddress:
		return "ExtendedLinearAddress"
	case StartLinearAddress:
		return "StartLinearAddress"
	default:
		return fmt.Sprintf("RecordType(0x%02X)", byte(t))
	}
}

// Constants for record parsing.
const (
	// StartCode marks the beginning of every record
	StartCode = ':'

	// RecordOverhead is the number of bytes besides the payload:
	// count(1) + address(2) + type(1) + checksum(1)
	RecordOverhead = 5

	// MaxRecordData is the largest payload a record can declare
	MaxRecordData = 0xFF
)

// Record is a single parsed line.
type Record struct {
	// Type is the record type
	Type RecordType

	// Address is the 16-bit load offset of the line
	Address uint16

	// Data is the record payload (0-255 bytes)
	Data []byte
}

// Checksum computes the record checksum: the two's complement of the 8-bit
// sum of the count, address, type and payload bytes.
func (r *Record) Checksum() byte {
	sum := byte(len(r.Data))
	sum += byte(r.Address >> 8)
	sum += byte(r.Address)
	sum += byte(r.Type)
	for _, b := range r.Data {
		sum += b
	}
	return ^sum + 1
}

// String serializes the record back to its text form, upper case.
func (r *Record) String() string {
	var sb strings.Builder
	sb.Grow(1 + 2*(RecordOverhead+len(r.Data)))
	fmt.Fprintf(&sb, ":%02X%04X%02X", len(r.Data), r.Address, byte(r.Type))
	sb.WriteString(strings.ToUpper(hex.EncodeToString(r.Data)))
	fmt.Fprintf(&sb, "%02X", r.Checksum())
	return sb.String()
}

// ParseRecord parses one line of text into a Record.
//
// It returns a MalformedLineError if the line does not follow the record
// grammar and a FormatError if the trailing checksum does not match.
// Errors carry no line number; ParseReader fills it in.
func ParseRecord(line string) (*Record, error) {
	if len(line) == 0 || line[0] != StartCode {
		return nil, &MalformedLineError{Reason: "missing start code ':'"}
	}
	body := line[1:]

	// count(2) + address(4) + type(2) + checksum(2)
	if len(body) < 2*RecordOverhead {
		return nil, &MalformedLineError{Reason: fmt.Sprintf(
			"line too short: got %d characters, minimum is %d", len(line), 1+2*RecordOverhead)}
	}

	count, err := hex.DecodeString(body[:2])
	if err != nil {
		return nil, &MalformedLineError{Reason: "invalid byte count: " + err.Error()}
	}
	expectedLen := 2 * (RecordOverhead + int(count[0]))
	if len(body) < expectedLen {
		return nil, &MalformedLineError{Reason: fmt.Sprintf(
			"line too short for %d data bytes: got %d characters, expected %d",
			count[0], len(line), 1+expectedLen)}
	}
	if len(body) > expectedLen {
		return nil, &MalformedLineError{Reason: fmt.Sprintf(
			"%d unexpected characters after checksum", len(body)-expectedLen)}
	}

	raw, err := hex.DecodeString(body)
	if err != nil {
		return nil, &MalformedLineError{Reason: "invalid hex data: " + err.Error()}
	}

	rec := &Record{
		Type:    RecordType(raw[3]),
		Address: uint16(raw[1])<<8 | uint16(raw[2]),
		Data:    raw[4 : len(raw)-1],
	}

	checksum := raw[len(raw)-1]
	if calculated := rec.Checksum(); checksum != calculated {
		return nil, &FormatError{Expected: calculated, Actual: checksum}
	}

	switch rec.Type {
	case ExtendedSegmentAddress, ExtendedLinearAddress:
		if len(rec.Data) != 2 {
			return nil, &MalformedLineError{Reason: fmt.Sprintf(
				"%s record must carry 2 bytes, got %d", rec.Type, len(rec.Data))}
		}
	}

	return rec, nil
}
