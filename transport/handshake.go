package transport

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/picboot/go-picboot/protocol"
)

// SyncConfig controls Synchronize.
type SyncConfig struct {
	// Loopback waits for the terminating byte to come back on the line
	// instead of waiting Settle
	Loopback bool

	// BurstSize is the number of sync bytes written per burst
	BurstSize int

	// BurstInterval is the pause between bursts
	BurstInterval time.Duration

	// Settle is the wait after the terminating byte without loopback
	Settle time.Duration

	// EchoTimeout bounds the wait for the echoed terminating byte
	EchoTimeout time.Duration
}

// DefaultSyncConfig returns bursts of 100 bytes, a one second settle time
// and a five second echo timeout.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Loopback:    true,
		BurstSize:   100,
		Settle:      time.Second,
		EchoTimeout: 5 * time.Second,
	}
}

// Synchronize brings the bootloader into command mode.
//
// The bootloader measures the baud rate from a stream of 0x55 bytes sent
// while it is reset. Bursts are written until ready reports true (typically
// an operator keypress after releasing reset), then a single 0x00 ends the
// stream. Pending input is discarded before returning.
//
// Example:
//
//	console, _ := transport.OpenConsole()
//	err := transport.Synchronize(ctx, port, console.KeyPressed, transport.DefaultSyncConfig())
//	console.Close()
func Synchronize(ctx context.Context, rw io.ReadWriter, ready func() bool, cfg SyncConfig) error {
	burst := bytes.Repeat([]byte{protocol.SyncByte}, max(cfg.BurstSize, 1))

	for !ready() {
		if _, err := rw.Write(burst); err != nil {
			return errors.Wrap(err, "sync burst")
		}
		if err := sleep(ctx, cfg.BurstInterval); err != nil {
			return err
		}
	}

	if _, err := rw.Write([]byte{protocol.SyncEnd}); err != nil {
		return errors.Wrap(err, "sync end")
	}

	if cfg.Loopback {
		if err := awaitSyncEnd(ctx, rw, cfg.EchoTimeout); err != nil {
			return err
		}
	} else if err := sleep(ctx, cfg.Settle); err != nil {
		return err
	}

	if r, ok := rw.(interface{ ResetInputBuffer() error }); ok {
		return r.ResetInputBuffer()
	}
	return nil
}

// awaitSyncEnd reads the echoed sync stream until it ends with the
// terminating byte.
func awaitSyncEnd(ctx context.Context, r io.Reader, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 256)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		if n > 0 && buf[n-1] == protocol.SyncEnd {
			return nil
		}

		switch {
		case errors.Is(err, ErrTimeout):
			if timeout > 0 && time.Now().After(deadline) {
				return errors.Wrap(err, "sync echo")
			}
		case err != nil:
			return errors.Wrap(err, "sync echo")
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
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
