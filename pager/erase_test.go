package pager

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/picboot/go-picboot/ihex"
	"github.com/picboot/go-picboot/protocol"
)

func TestPlanErase(t *testing.T) {
	tests := []struct {
		name     string
		regions  []ihex.Region
		maxPages int
		want     []protocol.EraseBlock
	}{
		{
			name:     "small region",
			regions:  []ihex.Region{{Address: 0, Data: make([]byte, 4)}},
			maxPages: 255,
			want:     []protocol.EraseBlock{{Address: 0, Pages: 1}},
		},
		{
			name:     "unaligned start",
			regions:  []ihex.Region{{Address: 0x50, Data: make([]byte, 0x40)}},
			maxPages: 255,
			want:     []protocol.EraseBlock{{Address: 0x40, Pages: 2}},
		},
		{
			name:     "exact multiple",
			regions:  []ihex.Region{{Address: 0x80, Data: make([]byte, 0x80)}},
			maxPages: 255,
			want:     []protocol.EraseBlock{{Address: 0x80, Pages: 2}},
		},
		{
			name:     "page cap splits a region",
			regions:  []ihex.Region{{Address: 0, Data: make([]byte, 64*5)}},
			maxPages: 2,
			want: []protocol.EraseBlock{
				{Address: 0, Pages: 2},
				{Address: 128, Pages: 2},
				{Address: 256, Pages: 1},
			},
		},
		{
			name: "regions sharing a page are not merged",
			regions: []ihex.Region{
				{Address: 0x00, Data: make([]byte, 4)},
				{Address: 0x10, Data: make([]byte, 4)},
			},
			maxPages: 255,
			want: []protocol.EraseBlock{
				{Address: 0, Pages: 1},
				{Address: 0, Pages: 1},
			},
		},
		{
			name:     "empty input",
			regions:  nil,
			maxPages: 255,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanErase(tt.regions, 64, tt.maxPages)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlanErase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanEraseCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for iter := 0; iter < 200; iter++ {
		const eraseSize = 64
		maxPages := 1 + rng.Intn(6)

		var regions []ihex.Region
		for n := 1 + rng.Intn(4); n > 0; n-- {
			regions = append(regions, ihex.Region{
				Address: uint32(rng.Intn(0x8000)),
				Data:    make([]byte, 1+rng.Intn(1024)),
			})
		}

		blocks := PlanErase(regions, eraseSize, maxPages)
		for _, b := range blocks {
			if b.Address%eraseSize != 0 {
				t.Fatalf("block 0x%X not aligned", b.Address)
			}
			if b.Pages < 1 || b.Pages > maxPages {
				t.Fatalf("block 0x%X has %d pages, cap %d", b.Address, b.Pages, maxPages)
			}
		}

		for _, r := range regions {
			for addr := r.Address; addr < r.End(); addr++ {
				if !erased(blocks, addr, eraseSize) {
					t.Fatalf("byte 0x%X of region 0x%X not erased by %v", addr, r.Address, blocks)
				}
			}
		}

		coalesced := CoalesceErase(blocks, eraseSize, maxPages)
		for _, b := range coalesced {
			if b.Pages < 1 || b.Pages > maxPages {
				t.Fatalf("coalesced block 0x%X has %d pages, cap %d", b.Address, b.Pages, maxPages)
			}
		}
		for addr := uint32(0); addr < 0x8000+1024; addr += eraseSize {
			if erased(blocks, addr, eraseSize) != erased(coalesced, addr, eraseSize) {
				t.Fatalf("coalescing changed coverage of page 0x%X", addr)
			}
		}
	}
}

func TestCoalesceErase(t *testing.T) {
	blocks := []protocol.EraseBlock{
		{Address: 0x0C0, Pages: 1},
		{Address: 0x000, Pages: 1},
		{Address: 0x000, Pages: 1},
		{Address: 0x040, Pages: 2},
		{Address: 0x400, Pages: 1},
	}

	got := CoalesceErase(blocks, 64, 255)
	want := []protocol.EraseBlock{
		{Address: 0x000, Pages: 4},
		{Address: 0x400, Pages: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CoalesceErase() = %v, want %v", got, want)
	}

	got = CoalesceErase(blocks, 64, 2)
	want = []protocol.EraseBlock{
		{Address: 0x000, Pages: 2},
		{Address: 0x080, Pages: 2},
		{Address: 0x400, Pages: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CoalesceErase() with cap 2 = %v, want %v", got, want)
	}

	if got := CoalesceErase(nil, 64, 255); got != nil {
		t.Errorf("CoalesceErase(nil) = %v", got)
	}
}

func TestCoalesceEraseAlignment(t *testing.T) {
	tests := []struct {
		name   string
		blocks []protocol.EraseBlock
		want   []protocol.EraseBlock
	}{
		{
			name:   "unaligned block inside an aligned one",
			blocks: []protocol.EraseBlock{{Address: 0, Pages: 1}, {Address: 10, Pages: 1}},
			want:   []protocol.EraseBlock{{Address: 0, Pages: 1}},
		},
		{
			name:   "unaligned block extends the span",
			blocks: []protocol.EraseBlock{{Address: 0x00, Pages: 1}, {Address: 0x50, Pages: 2}},
			want:   []protocol.EraseBlock{{Address: 0x00, Pages: 3}},
		},
		{
			name:   "unaligned blocks apart",
			blocks: []protocol.EraseBlock{{Address: 0x141, Pages: 1}, {Address: 0x01, Pages: 1}},
			want:   []protocol.EraseBlock{{Address: 0x000, Pages: 1}, {Address: 0x140, Pages: 1}},
		},
		{
			name:   "empty blocks dropped",
			blocks: []protocol.EraseBlock{{Address: 0x40, Pages: 0}, {Address: 0x80, Pages: 1}},
			want:   []protocol.EraseBlock{{Address: 0x80, Pages: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoalesceErase(tt.blocks, 64, 255)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CoalesceErase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanEraseLimits(t *testing.T) {
	tests := []struct {
		name      string
		regions   []ihex.Region
		eraseSize uint32
		want      []protocol.EraseBlock
	}{
		{
			name:      "region ending at top of address space",
			regions:   []ihex.Region{{Address: 0xFFFFFFC0, Data: make([]byte, 64)}},
			eraseSize: 64,
			want:      []protocol.EraseBlock{{Address: 0xFFFFFFC0, Pages: 1}},
		},
		{
			name:      "unaligned region ending at top of address space",
			regions:   []ihex.Region{{Address: 0xFFFFFF90, Data: make([]byte, 0x70)}},
			eraseSize: 64,
			want:      []protocol.EraseBlock{{Address: 0xFFFFFF80, Pages: 2}},
		},
		{
			name:      "zero erase size",
			regions:   []ihex.Region{{Address: 0x10, Data: make([]byte, 3)}},
			eraseSize: 0,
			want:      []protocol.EraseBlock{{Address: 0x10, Pages: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanErase(tt.regions, tt.eraseSize, 255)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlanErase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func erased(blocks []protocol.EraseBlock, addr, eraseSize uint32) bool {
	for _, b := range blocks {
		if addr >= b.Address && addr < b.Address+uint32(b.Pages)*eraseSize {
			return true
		}
	}
	return false
}
