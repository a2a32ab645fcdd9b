package protocol

// Frame control bytes.
const (
	// StartOfFrame opens a frame; it is sent twice (0x0F)
	StartOfFrame = 0x0F

	// EndOfFrame closes a frame (0x04)
	EndOfFrame = 0x04

	// Escape precedes any control byte found inside a frame (0x05)
	Escape = 0x05
)

// Command codes understood by the bootloader firmware.
const (
	// CmdErase erases a list of 64-byte flash pages.
	// Payload: [ADDR_H][ADDR_L][PAGE_COUNT] repeated.
	CmdErase = 0x11

	// CmdWrite programs 32-byte aligned flash data.
	// Payload: [OFFSET_H][OFFSET_L][DATA...]
	CmdWrite = 0x12

	// CmdFinish restores the reset vector, optionally writes the
	// configuration registers and resets the device.
	// Payload: [CONFIG...]
	CmdFinish = 0x13
)

// Handshake bytes used before the first frame.
const (
	// SyncByte is streamed while the device auto-detects the baud rate
	SyncByte = 0x55

	// SyncEnd terminates the sync stream
	SyncEnd = 0x00
)

const (
	// MaxLogicalSize is the largest number of unescaped bytes (payload plus
	// CRC) a single frame may carry. The firmware receive buffer is 256
	// bytes with an 8-bit length counter.
	MaxLogicalSize = 255

	// ChecksumSize is the size of the trailing CRC in bytes
	ChecksumSize = 2

	// MaxAddress is the highest address that fits the 16-bit address fields
	MaxAddress = 0xFFFF

	// MaxErasePages is the largest page count a single erase entry can carry
	MaxErasePages = 0xFF

	// EraseEntrySize is the size of one erase entry in the erase payload
	EraseEntrySize = 3

	// WriteHeaderSize is the size of the write command header
	// (command + 16-bit offset)
	WriteHeaderSize = 3
)
