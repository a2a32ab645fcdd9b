// Package protocol implements the PIC18 serial bootloader wire protocol.
//
// This package provides functions to frame commands for transmission and to
// decode frames back into their logical payload.
//
// # Frame Format
//
// Every command travels in a byte-stuffed frame:
//
//	[STX][STX][PAYLOAD...][CRC_H][CRC_L][ETX]
//
// Where:
//   - STX = Start of frame (0x0F), sent twice
//   - ETX = End of frame (0x04), sent once and never escaped
//   - DLE = Escape (0x05)
//   - CRC = CRC16-CCITT over the logical payload, high byte first
//
// Any STX, ETX or DLE value inside the payload or the CRC is preceded by DLE
// on the wire. The logical frame (payload plus CRC, before escaping) may not
// exceed MaxLogicalSize bytes.
//
// # Commands
//
// Use the Build* functions to create command frames:
//
//	frame, err := protocol.BuildEraseCmd(blocks)
//	frame, err := protocol.BuildWriteCmd(0x0040, data)
//	frame, err := protocol.BuildFinishCmd(nil)
//
// The device never answers; the host paces transmissions instead.
//
// # Decoding
//
// Decode reverses Encode and verifies the CRC:
//
//	payload, err := protocol.Decode(frame)
//	cmd, err := protocol.ParseCommand(payload)
//
// Decoder does the same incrementally, one byte at a time, the way the
// device firmware consumes the serial stream.
package protocol
