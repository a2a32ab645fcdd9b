package bootloader

import (
	"github.com/picboot/go-picboot/ihex"
	"github.com/picboot/go-picboot/pager"
	"github.com/picboot/go-picboot/protocol"
)

// Plan is the full command sequence for one image, computed before any
// byte is sent.
type Plan struct {
	// Regions are the image regions below the memory ceiling
	Regions []ihex.Region

	// Erase lists the blocks sent in the single erase command
	Erase []protocol.EraseBlock

	// Writes are the page runs, one write command each, in address order
	Writes []pager.FilledPage
}

// Bytes returns the number of page bytes the plan writes, padding included.
func (p *Plan) Bytes() int {
	n := 0
	for _, w := range p.Writes {
		n += len(w.Data)
	}
	return n
}

// Plan applies the memory ceiling to regions and derives the erase blocks
// and write runs for the configured geometry.
func (p *Programmer) Plan(regions []ihex.Region) *Plan {
	g := p.config.Geometry
	kept := ihex.Clip(regions, g.MemoryCeiling)

	erase := pager.PlanErase(kept, uint32(g.ErasePageSize), g.MaxErasePages)
	if p.config.CoalesceErase {
		erase = pager.CoalesceErase(erase, uint32(g.ErasePageSize), g.MaxErasePages)
	}

	pages := pager.New(g.WritePageSize, g.FillByte)
	for _, r := range kept {
		pages.Write(r.Address, r.Data)
	}

	return &Plan{
		Regions: kept,
		Erase:   erase,
		Writes:  pages.Collect(g.WriteRunPages()),
	}
}
