package pager

import (
	"cmp"
	"slices"

	"github.com/picboot/go-picboot/ihex"
	"github.com/picboot/go-picboot/protocol"
)

// PlanErase returns erase blocks covering every byte of regions.
//
// Each region is covered independently: its start is rounded down to a
// multiple of eraseSize and blocks of at most maxPages pages are emitted
// until the region end is reached. Blocks of different regions are not
// merged; see CoalesceErase. An eraseSize of zero is treated as one byte and
// maxPages below one as one page.
//
// Example:
//
//	blocks := pager.PlanErase(fw.Regions, 64, 255)
//	// Region{0x0000, 4 bytes} -> EraseBlock{Address: 0, Pages: 1}
func PlanErase(regions []ihex.Region, eraseSize uint32, maxPages int) []protocol.EraseBlock {
	size := uint64(max(eraseSize, 1))
	maxPages = max(maxPages, 1)

	var blocks []protocol.EraseBlock
	for _, r := range regions {
		if r.Len() == 0 {
			continue
		}
		// 64-bit so a region ending at the top of the address space does not wrap
		end := uint64(r.Address) + uint64(r.Len())
		start := uint64(r.Address) / size * size
		blocks = appendSpan(blocks, start, end, size, maxPages)
	}
	return blocks
}

// CoalesceErase merges blocks that touch or overlap, then splits the merged
// spans again so that no block exceeds maxPages. Block addresses are rounded
// down to eraseSize first, the way the device aligns them. The result is
// sorted by address and covers exactly the same pages as the input.
func CoalesceErase(blocks []protocol.EraseBlock, eraseSize uint32, maxPages int) []protocol.EraseBlock {
	if len(blocks) == 0 {
		return nil
	}
	size := uint64(max(eraseSize, 1))
	maxPages = max(maxPages, 1)

	type span struct{ start, end uint64 }
	var spans []span
	for _, b := range blocks {
		if b.Pages < 1 {
			continue
		}
		start := uint64(b.Address) / size * size
		spans = append(spans, span{start, start + uint64(b.Pages)*size})
	}
	slices.SortFunc(spans, func(a, b span) int {
		return cmp.Compare(a.start, b.start)
	})

	var merged []span
	for _, s := range spans {
		if n := len(merged); n > 0 && s.start <= merged[n-1].end {
			merged[n-1].end = max(merged[n-1].end, s.end)
			continue
		}
		merged = append(merged, s)
	}

	var out []protocol.EraseBlock
	for _, s := range merged {
		out = appendSpan(out, s.start, s.end, size, maxPages)
	}
	return out
}

// appendSpan chops [start, end) into blocks of at most maxPages pages.
// start must be a multiple of size.
func appendSpan(blocks []protocol.EraseBlock, start, end, size uint64, maxPages int) []protocol.EraseBlock {
	for start < end {
		pages := int(min((end-start+size-1)/size, uint64(maxPages)))
		blocks = append(blocks, protocol.EraseBlock{Address: uint32(start), Pages: pages})
		start += uint64(pages) * size
	}
	return blocks
}
