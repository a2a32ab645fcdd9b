package ihex

import (
	"fmt"
	"io"
	"slices"
)

// Region is a contiguous run of bytes at an absolute address.
type Region struct {
	// Address is the absolute address of the first byte
	Address uint32

	// Data holds the region bytes
	Data []byte
}

// End returns the address just past the last byte of the region.
func (r Region) End() uint32 {
	return r.Address + uint32(len(r.Data))
}

// Len returns the region size in bytes.
func (r Region) Len() int {
	return len(r.Data)
}

// Firmware is a parsed and consolidated Intel HEX image.
type Firmware struct {
	// Records contains every parsed record in file order
	Records []*Record

	// Regions contains the consolidated memory regions, sorted by address
	Regions []Region
}

// Size returns the total number of data bytes in all regions.
func (fw *Firmware) Size() int {
	n := 0
	for _, r := range fw.Regions {
		n += len(r.Data)
	}
	return n
}

// Load parses and consolidates an Intel HEX file.
func Load(path string) (*Firmware, error) {
	records, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return newFirmware(records)
}

// Read parses and consolidates an Intel HEX image from any io.Reader.
func Read(r io.Reader) (*Firmware, error) {
	records, err := ParseReader(r)
	if err != nil {
		return nil, err
	}
	return newFirmware(records)
}

func newFirmware(records []*Record) (*Firmware, error) {
	regions, err := Consolidate(records)
	if err != nil {
		return nil, err
	}
	return &Firmware{Records: records, Regions: regions}, nil
}

// chunk is a candidate region with its position in the input.
type chunk struct {
	address uint32
	data    []byte
	seq     int
}

func (c chunk) end() uint32 {
	return c.address + uint32(len(c.data))
}

// Consolidate folds records into sorted, disjoint, maximal regions.
//
// Records are processed in order until the first end of file record.
// Data records are placed at their address plus the current extended linear
// address. Any record type other than data, end of file and extended linear
// address fails with an UnsupportedRecordError.
//
// Candidates that touch are merged. Overlapping candidates are composited in
// input order, so later records win, exactly as if every record had been
// written to memory at its absolute address.
func Consolidate(records []*Record) ([]Region, error) {
	var chunks []chunk
	var ela uint32

loop:
	for i, rec := range records {
		switch rec.Type {
		case EndOfFile:
			break loop
		case Data:
			if len(rec.Data) == 0 {
				continue
			}
			chunks = append(chunks, chunk{
				address: uint32(rec.Address) + ela,
				data:    rec.Data,
				seq:     len(chunks),
			})
		case ExtendedLinearAddress:
			if len(rec.Data) != 2 {
				return nil, fmt.Errorf("record %d: extended linear address needs 2 bytes, got %d", i, len(rec.Data))
			}
			ela = uint32(rec.Data[0])<<24 + uint32(rec.Data[1])<<16
		default:
			return nil, &UnsupportedRecordError{Index: i, Type: rec.Type}
		}
	}

	slices.SortStableFunc(chunks, func(a, b chunk) int {
		switch {
		case a.address < b.address:
			return -1
		case a.address > b.address:
			return 1
		}
		return 0
	})

	var regions []Region
	for start := 0; start < len(chunks); {
		// Gather every chunk that touches or overlaps the current run
		end := start + 1
		runEnd := chunks[start].end()
		for end < len(chunks) && chunks[end].address <= runEnd {
			runEnd = max(runEnd, chunks[end].end())
			end++
		}
		regions = append(regions, flatten(chunks[start:end], runEnd))
		start = end
	}

	return regions, nil
}

// flatten copies a run of chunks into one region, applying them in input
// order.
func flatten(run []chunk, runEnd uint32) Region {
	base := run[0].address
	data := make([]byte, runEnd-base)

	ordered := slices.Clone(run)
	slices.SortFunc(ordered, func(a, b chunk) int { return a.seq - b.seq })
	for _, c := range ordered {
		copy(data[c.address-base:], c.data)
	}

	return Region{Address: base, Data: data}
}

// Clip returns the regions that start below ceiling. Regions are kept whole;
// the device firmware refuses writes into its own protected area.
func Clip(regions []Region, ceiling uint32) []Region {
	kept := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.Address < ceiling {
			kept = append(kept, r)
		}
	}
	return kept
}
