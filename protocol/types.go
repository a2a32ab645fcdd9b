package protocol

// EraseBlock describes a run of flash pages erased by a single erase entry.
type EraseBlock struct {
	// Address is the first byte of the block, aligned to the erase page size
	Address uint32

	// Pages is the number of erase pages in the block
	Pages int
}

// Command is a decoded command payload.
// Only the fields relevant to Code are set.
type Command struct {
	// Code is the command byte (CmdErase, CmdWrite or CmdFinish)
	Code byte

	// Blocks lists the erase entries of an erase command
	Blocks []EraseBlock

	// Offset is the flash offset of a write command
	Offset uint16

	// Data is the write data of a write command or the configuration
	// bytes of a finish command
	Data []byte
}
