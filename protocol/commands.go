package protocol

import "fmt"

// BuildEraseCmd constructs an Erase command frame carrying every block.
//
// Payload structure:
//
//	[CMD][ADDR_H][ADDR_L][PAGES]...
//
// The device aligns each address down to its erase page itself; the caller
// is expected to pass aligned addresses.
func BuildEraseCmd(blocks []EraseBlock) ([]byte, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("erase list cannot be empty")
	}

	data := make([]byte, 0, len(blocks)*EraseEntrySize)
	for _, b := range blocks {
		if b.Address > MaxAddress {
			return nil, &FieldRangeError{Field: "erase address", Value: uint64(b.Address), Max: MaxAddress}
		}
		if b.Pages < 1 || b.Pages > MaxErasePages {
			return nil, &FieldRangeError{Field: "erase page count", Value: uint64(b.Pages), Max: MaxErasePages}
		}
		data = append(data, byte(b.Address>>8), byte(b.Address), byte(b.Pages))
	}

	return Encode([]byte{CmdErase}, data)
}

// BuildWriteCmd constructs a Write command frame.
//
// Payload structure:
//
//	[CMD][OFFSET_H][OFFSET_L][DATA...]
//
// The firmware masks the low five offset bits, so offset should be 32-byte
// aligned; alignment is checked by the caller, which knows the device page
// size.
func BuildWriteCmd(offset uint32, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	if offset > MaxAddress {
		return nil, &FieldRangeError{Field: "write offset", Value: uint64(offset), Max: MaxAddress}
	}

	header := []byte{CmdWrite, byte(offset >> 8), byte(offset)}
	return Encode(header, data)
}

// BuildFinishCmd constructs a Finish command frame.
// Optional config bytes are written by the device to its configuration
// registers, starting at the first one.
//
// Payload structure:
//
//	[CMD][CONFIG...]
func BuildFinishCmd(config []byte) ([]byte, error) {
	return Encode([]byte{CmdFinish}, config)
}

// ParseCommand decodes a frame payload produced by one of the Build*
// functions.
func ParseCommand(payload []byte) (*Command, error) {
	if len(payload) == 0 {
		return nil, &DecodeError{Reason: "empty payload"}
	}

	cmd := &Command{Code: payload[0]}
	body := payload[1:]

	switch cmd.Code {
	case CmdErase:
		if len(body) == 0 || len(body)%EraseEntrySize != 0 {
			return nil, &DecodeError{Reason: fmt.Sprintf("erase payload length %d is not a multiple of %d", len(body), EraseEntrySize)}
		}
		for i := 0; i < len(body); i += EraseEntrySize {
			cmd.Blocks = append(cmd.Blocks, EraseBlock{
				Address: uint32(body[i])<<8 | uint32(body[i+1]),
				Pages:   int(body[i+2]),
			})
		}

	case CmdWrite:
		if len(body) < 3 {
			return nil, &DecodeError{Reason: "write payload too short"}
		}
		cmd.Offset = uint16(body[0])<<8 | uint16(body[1])
		cmd.Data = body[2:]

	case CmdFinish:
		if len(body) > 0 {
			cmd.Data = body
		}

	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown command 0x%02X", cmd.Code)}
	}

	return cmd, nil
}
