// Package pager re-buckets firmware regions into device pages.
//
// Pager buffers arbitrary writes sparsely, keyed by page index, and emits
// dense runs of consecutive pages padded with a fill byte. PlanErase covers
// regions with page-aligned erase blocks.
package pager

import (
	"iter"
	"maps"
	"slices"
)

// FilledPage is a dense buffer covering one or more consecutive pages.
type FilledPage struct {
	// Offset is the absolute address of the first byte, a multiple of the
	// page size
	Offset uint32

	// Data holds whole pages; bytes never written carry the fill byte
	Data []byte
}

// End returns the address just past the last byte of the run.
func (p FilledPage) End() uint32 {
	return p.Offset + uint32(len(p.Data))
}

// segment references caller data placed at an offset inside a page.
type segment struct {
	data   []byte
	offset int
}

// Pager is a sparse write buffer keyed by page index.
//
// Write keeps references to the caller's slices; they must not be modified
// until the runs have been materialized.
type Pager struct {
	pageSize int
	fillByte byte
	pages    map[uint32][]segment
}

// New returns an empty Pager. pageSize must be positive.
func New(pageSize int, fill byte) *Pager {
	if pageSize <= 0 {
		panic("pager: page size must be positive")
	}
	return &Pager{
		pageSize: pageSize,
		fillByte: fill,
		pages:    make(map[uint32][]segment),
	}
}

// PageSize returns the page size in bytes.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// Len returns the number of pages touched by writes.
func (p *Pager) Len() int {
	return len(p.pages)
}

// Write records data at the absolute address, split across page boundaries.
// Overlapping writes are allowed; the later write wins.
func (p *Pager) Write(address uint32, data []byte) {
	size := uint32(p.pageSize)
	for len(data) > 0 {
		page := address / size
		offset := int(address % size)
		n := min(p.pageSize-offset, len(data))

		p.pages[page] = append(p.pages[page], segment{data: data[:n], offset: offset})

		data = data[n:]
		address += uint32(n)
	}
}

// Runs returns the touched pages grouped into runs of at most maxPages
// consecutive page indices, in ascending order. A run ends early at any gap.
// Each run is materialized only when the sequence reaches it, and every call
// starts over from the buffered writes. maxPages below 1 is treated as 1.
func (p *Pager) Runs(maxPages int) iter.Seq[FilledPage] {
	maxPages = max(maxPages, 1)

	return func(yield func(FilledPage) bool) {
		ids := slices.Sorted(maps.Keys(p.pages))

		var run []uint32
		for _, id := range ids {
			if len(run) > 0 && (id != run[len(run)-1]+1 || len(run) >= maxPages) {
				if !yield(p.fill(run)) {
					return
				}
				run = run[:0]
			}
			run = append(run, id)
		}
		if len(run) > 0 {
			yield(p.fill(run))
		}
	}
}

// Collect materializes every run returned by Runs.
func (p *Pager) Collect(maxPages int) []FilledPage {
	return slices.Collect(p.Runs(maxPages))
}

// fill allocates a buffer for a run of consecutive pages and copies every
// recorded segment into it in write order.
func (p *Pager) fill(run []uint32) FilledPage {
	data := make([]byte, len(run)*p.pageSize)
	for i := range data {
		data[i] = p.fillByte
	}

	for i, id := range run {
		base := i * p.pageSize
		for _, seg := range p.pages[id] {
			copy(data[base+seg.offset:], seg.data)
		}
	}

	return FilledPage{
		Offset: run[0] * uint32(p.pageSize),
		Data:   data,
	}
}
