// Package bootloader programs PIC18 microcontrollers through the serial
// bootloader firmware.
//
// # Overview
//
// This package orchestrates the complete transfer sequence:
//   - Dropping regions that start inside the protected boot block
//   - Planning 64-byte aligned erase blocks
//   - Re-bucketing the image into 32-byte aligned write runs
//   - Sending erase, write, and finish frames with timed pacing
//
// # Basic Usage
//
// The simplest way to program a device:
//
//	// User provides the serial line (io.ReadWriter)
//	port, err := transport.Open("/dev/ttyUSB0", transport.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	// Parse firmware file
//	fw, err := ihex.Load("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create programmer and send the image
//	prog := bootloader.New(port)
//	if err := prog.Program(context.Background(), fw); err != nil {
//	    log.Fatal(err)
//	}
//
// The device must already be synchronized; see transport.Synchronize.
//
// # Dry Runs
//
// Plan computes every command without touching the device:
//
//	plan := prog.Plan(fw.Regions)
//	for _, b := range plan.Erase {
//	    fmt.Printf("erase 0x%04X x%d\n", b.Address, b.Pages)
//	}
//	err := prog.Execute(ctx, plan)
//
// # Configuration Options
//
// Customize behavior with functional options:
//
//	prog := bootloader.New(port,
//	    bootloader.WithProgressCallback(progressFunc),
//	    bootloader.WithLogger(myLogger),
//	    bootloader.WithMemoryCeiling(0x7C00),
//	    bootloader.WithLoopback(false),
//	    bootloader.WithPostFrameDelay(300*time.Millisecond),
//	    bootloader.WithCoalescedErase(true),
//	)
//
// # Pacing
//
// The firmware never acknowledges a command. The host waits after each
// frame long enough for the flash operation to complete; the Pacer decides
// how long. With loopback wiring the host additionally reads back each frame
// so that the wait starts once the bytes have actually left the adapter.
// A device slower than the pacing assumes loses frames silently.
//
// # Error Handling
//
// The package provides structured error types:
//   - AlignmentError: a write run does not start on a write page boundary
//   - TransportError: the serial line failed (wraps the I/O error)
//   - EchoMismatchError: the loopback echo differs from the frame
//   - protocol.FrameTooLargeError: a command does not fit one frame
//   - protocol.FieldRangeError: an address or page count does not fit its field
//
// Every error aborts the transfer. A partially programmed device keeps the
// bootloader in control of the reset vector until the finish command, so the
// transfer can simply be restarted.
package bootloader
