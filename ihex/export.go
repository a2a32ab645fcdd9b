package ihex

import (
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
)

// DefaultLineLength is the number of data bytes per exported data record
const DefaultLineLength = 16

// WriteHex writes regions to w as Intel HEX with lineLength data bytes per
// record, followed by an end of file record. Extended linear address records
// are emitted whenever a region crosses a 64 KiB boundary.
func WriteHex(w io.Writer, regions []Region, lineLength byte) error {
	if lineLength == 0 {
		lineLength = DefaultLineLength
	}

	mem := gohex.NewMemory()
	for _, r := range regions {
		if err := mem.AddBinary(r.Address, r.Data); err != nil {
			return fmt.Errorf("add region at 0x%08X: %w", r.Address, err)
		}
	}

	if err := mem.DumpIntelHex(w, lineLength); err != nil {
		return fmt.Errorf("dump intel hex: %w", err)
	}
	return nil
}
