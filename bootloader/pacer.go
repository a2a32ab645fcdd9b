package bootloader

import (
	"context"
	"time"

	"github.com/picboot/go-picboot/protocol"
)

// Pacer decides how long to wait after each command so the device can
// finish erasing or programming before the next frame arrives. The device
// sends no acknowledgement, so pacing is the only flow control.
type Pacer interface {
	// Erase returns the delay after an erase command carrying blocks
	Erase(blocks []protocol.EraseBlock) time.Duration

	// Write returns the delay after a write command of the given number of
	// write pages
	Write(pages int) time.Duration

	// Finish returns the delay after the finish command
	Finish() time.Duration
}

// TimedPacer computes delays from fixed per-operation costs, counted in Unit.
//
//	erase:  EraseBase + sum(pages*ErasePerPage + ErasePerBlock)
//	write:  WriteBase + pages*WritePerPage
//	finish: FinishDelay
type TimedPacer struct {
	Unit          time.Duration
	EraseBase     int
	ErasePerPage  int
	ErasePerBlock int
	WriteBase     int
	WritePerPage  int
	FinishDelay   int
}

// DefaultPacer returns the timing used by the PIC18 bootloader firmware.
func DefaultPacer() TimedPacer {
	return TimedPacer{
		Unit:          time.Millisecond,
		EraseBase:     1,
		ErasePerPage:  3,
		ErasePerBlock: 1,
		WriteBase:     3,
		WritePerPage:  4,
		FinishDelay:   10,
	}
}

func (t TimedPacer) Erase(blocks []protocol.EraseBlock) time.Duration {
	units := t.EraseBase
	for _, b := range blocks {
		units += b.Pages*t.ErasePerPage + t.ErasePerBlock
	}
	return time.Duration(units) * t.Unit
}

func (t TimedPacer) Write(pages int) time.Duration {
	return time.Duration(t.WriteBase+pages*t.WritePerPage) * t.Unit
}

func (t TimedPacer) Finish() time.Duration {
	return time.Duration(t.FinishDelay) * t.Unit
}

// NoPacing never waits. It is meant for simulated devices.
type NoPacing struct{}

func (NoPacing) Erase([]protocol.EraseBlock) time.Duration { return 0 }
func (NoPacing) Write(int) time.Duration                   { return 0 }
func (NoPacing) Finish() time.Duration                     { return 0 }

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
