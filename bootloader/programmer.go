package bootloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/picboot/go-picboot/ihex"
	"github.com/picboot/go-picboot/protocol"
)

// inputResetter is implemented by transports that can drop unread input,
// such as transport.Port.
type inputResetter interface {
	ResetInputBuffer() error
}

// Programmer sends a firmware image to a PIC18 serial bootloader.
// It handles erase planning, paging, framing, and pacing.
//
// A Programmer runs one transfer at a time.
type Programmer struct {
	device io.ReadWriter
	config Config
	state  State
}

// New creates a new Programmer with the given device and options.
// The device is the serial byte stream to the bootloader; in loopback mode
// it must also return every transmitted byte.
//
// Example:
//
//	port, _ := transport.Open("/dev/ttyUSB0", transport.DefaultConfig())
//	prog := bootloader.New(port,
//	    bootloader.WithProgressCallback(progressFunc),
//	    bootloader.WithLoopback(true),
//	)
func New(device io.ReadWriter, opts ...Option) *Programmer {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		device: device,
		config: cfg,
	}
}

// State returns the stage reached by the last transfer.
func (p *Programmer) State() State {
	return p.state
}

// Program plans and executes the transfer of fw.
//
// Example:
//
//	fw, _ := ihex.Load("firmware.hex")
//	err := prog.Program(context.Background(), fw)
func (p *Programmer) Program(ctx context.Context, fw *ihex.Firmware) error {
	if fw == nil {
		return fmt.Errorf("firmware cannot be nil")
	}

	plan := p.Plan(fw.Regions)
	if dropped := len(fw.Regions) - len(plan.Regions); dropped > 0 {
		p.logInfo("regions above memory ceiling skipped",
			"count", dropped,
			"ceiling", fmt.Sprintf("0x%04X", p.config.Geometry.MemoryCeiling),
		)
	}

	return p.Execute(ctx, plan)
}

// Execute sends a precomputed plan:
//  1. one erase command with every block, if there is anything to erase
//  2. one write command per page run, in address order
//  3. the finish command
//
// Every command is followed by the configured pacing. Any error aborts the
// transfer; the device is then left partially programmed.
func (p *Programmer) Execute(ctx context.Context, plan *Plan) error {
	if plan == nil {
		return fmt.Errorf("plan cannot be nil")
	}

	startTime := time.Now()
	p.state = StateIdle
	total := len(plan.Writes)

	// Erasing
	p.state = StateErasing
	p.reportProgress(Progress{Phase: StateErasing, TotalRuns: total})

	if len(plan.Erase) > 0 {
		if err := p.erase(ctx, plan.Erase); err != nil {
			p.logError("erase failed", "error", err)
			return fmt.Errorf("erase: %w", err)
		}
	}

	// Writing
	p.state = StateWriting
	bytesWritten := 0
	for i, run := range plan.Writes {
		if err := p.write(ctx, run.Offset, run.Data); err != nil {
			p.logError("write failed", "offset", fmt.Sprintf("0x%04X", run.Offset), "error", err)
			return fmt.Errorf("write run %d at 0x%04X: %w", i, run.Offset, err)
		}
		bytesWritten += len(run.Data)

		// Report progress (5% to 95%)
		p.reportProgress(Progress{
			Phase:        StateWriting,
			CurrentRun:   i + 1,
			TotalRuns:    total,
			Percentage:   5 + float64(i+1)/float64(total)*90,
			BytesWritten: bytesWritten,
			ElapsedTime:  time.Since(startTime),
		})
	}

	// Finishing
	p.state = StateFinishing
	p.reportProgress(Progress{
		Phase:        StateFinishing,
		CurrentRun:   total,
		TotalRuns:    total,
		Percentage:   95,
		BytesWritten: bytesWritten,
		ElapsedTime:  time.Since(startTime),
	})

	if err := p.finish(ctx); err != nil {
		p.logError("finish failed", "error", err)
		return fmt.Errorf("finish: %w", err)
	}

	p.state = StateDone
	p.reportProgress(Progress{
		Phase:        StateDone,
		CurrentRun:   total,
		TotalRuns:    total,
		Percentage:   100,
		BytesWritten: bytesWritten,
		ElapsedTime:  time.Since(startTime),
	})

	p.logInfo("programming complete",
		"erase_blocks", len(plan.Erase),
		"runs", total,
		"bytes", bytesWritten,
		"elapsed", time.Since(startTime).String(),
	)

	return nil
}

// erase sends all blocks in a single erase command.
func (p *Programmer) erase(ctx context.Context, blocks []protocol.EraseBlock) error {
	frame, err := protocol.BuildEraseCmd(blocks)
	if err != nil {
		return err
	}

	p.logDebug("erase", "blocks", len(blocks), "frame_bytes", len(frame))
	if err := p.transmit(ctx, frame); err != nil {
		return err
	}
	return p.config.Sleep(ctx, p.config.Pacer.Erase(blocks))
}

// write programs one run of whole write pages.
func (p *Programmer) write(ctx context.Context, offset uint32, data []byte) error {
	pageSize := p.config.Geometry.WritePageSize
	if offset%uint32(pageSize) != 0 {
		return &AlignmentError{Offset: offset, Alignment: pageSize}
	}

	frame, err := protocol.BuildWriteCmd(offset, data)
	if err != nil {
		return err
	}

	p.logDebug("write", "offset", fmt.Sprintf("0x%04X", offset), "size", len(data))
	if err := p.transmit(ctx, frame); err != nil {
		return err
	}
	return p.config.Sleep(ctx, p.config.Pacer.Write(len(data)/pageSize))
}

// finish tells the bootloader the image is complete.
func (p *Programmer) finish(ctx context.Context) error {
	frame, err := protocol.BuildFinishCmd(p.config.FinishConfig)
	if err != nil {
		return err
	}

	p.logDebug("finish", "config_bytes", len(p.config.FinishConfig))
	if err := p.transmit(ctx, frame); err != nil {
		return err
	}
	return p.config.Sleep(ctx, p.config.Pacer.Finish())
}

// transmit writes one frame to the device.
//
// In loopback mode pending input is dropped first and the frame is then read
// back from the line, which also waits for the bytes to leave the adapter.
// Otherwise a fixed delay follows the frame.
func (p *Programmer) transmit(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}

	if p.config.Loopback {
		if r, ok := p.device.(inputResetter); ok {
			if err := r.ResetInputBuffer(); err != nil {
				return &TransportError{Op: "reset input", Err: err}
			}
		}
	}

	if _, err := p.device.Write(frame); err != nil {
		return &TransportError{Op: "write", Err: err}
	}

	if !p.config.Loopback {
		return p.config.Sleep(ctx, p.config.PostFrameDelay)
	}

	echo := make([]byte, len(frame))
	if _, err := io.ReadFull(p.device, echo); err != nil {
		return &TransportError{Op: "read echo", Err: err}
	}
	if !bytes.Equal(echo, frame) {
		for i := range frame {
			if echo[i] != frame[i] {
				return &EchoMismatchError{Index: i, Expected: frame[i], Actual: echo[i]}
			}
		}
	}

	return nil
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
