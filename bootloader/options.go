package bootloader

import "time"

// Geometry describes the flash layout the bootloader firmware expects.
type Geometry struct {
	// MemoryCeiling is the first address reserved for the bootloader itself.
	// Regions starting at or above it are never sent.
	MemoryCeiling uint32

	// WritePageSize is the programming granularity; write offsets must be a
	// multiple of it
	WritePageSize int

	// MaxWriteSize is the largest data payload of a single write command
	MaxWriteSize int

	// ErasePageSize is the erase granularity
	ErasePageSize int

	// MaxErasePages is the page count limit of a single erase entry
	MaxErasePages int

	// FillByte pads partially written pages; 0xFF is the erased flash value
	FillByte byte
}

// DefaultGeometry returns the layout of the PIC18 serial bootloader.
func DefaultGeometry() Geometry {
	return Geometry{
		MemoryCeiling: 0x7C00,
		WritePageSize: 32,
		MaxWriteSize:  224,
		ErasePageSize: 64,
		MaxErasePages: 255,
		FillByte:      0xFF,
	}
}

// WriteRunPages returns how many write pages fit in one write command.
func (g Geometry) WriteRunPages() int {
	return max(g.MaxWriteSize/g.WritePageSize, 1)
}

// Config holds the programmer configuration.
type Config struct {
	// Geometry describes the device flash layout
	Geometry Geometry

	// Pacer decides the delay after each command
	Pacer Pacer

	// Loopback reads every frame back from the line before continuing.
	// Use it when the adapter echoes transmitted bytes.
	Loopback bool

	// PostFrameDelay is waited after every frame when Loopback is off
	PostFrameDelay time.Duration

	// FinishConfig is sent with the finish command and written by the device
	// to its configuration registers (optional)
	FinishConfig []byte

	// CoalesceErase merges erase blocks that touch or overlap
	CoalesceErase bool

	// ProgressCallback is called during programming to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Sleep implements all waits
	Sleep SleepFunc
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Geometry:       DefaultGeometry(),
		Pacer:          DefaultPacer(),
		Loopback:       true,
		PostFrameDelay: 300 * time.Millisecond,
		Sleep:          Sleep,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track programming progress.
//
// Example:
//
//	prog := bootloader.New(device,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithGeometry replaces the whole flash layout. Sizes that are not positive
// are ignored.
func WithGeometry(g Geometry) Option {
	return func(c *Config) {
		if g.WritePageSize <= 0 || g.MaxWriteSize <= 0 || g.ErasePageSize <= 0 || g.MaxErasePages <= 0 {
			return
		}
		c.Geometry = g
	}
}

// WithMemoryCeiling sets the first address reserved for the bootloader.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithMemoryCeiling(0x7800))
func WithMemoryCeiling(ceiling uint32) Option {
	return func(c *Config) {
		c.Geometry.MemoryCeiling = ceiling
	}
}

// WithFillByte sets the value of page bytes not covered by the image.
func WithFillByte(fill byte) Option {
	return func(c *Config) {
		c.Geometry.FillByte = fill
	}
}

// WithPacer replaces the command pacing. A nil pacer disables pacing.
//
// Example:
//
//	prog := bootloader.New(sim, bootloader.WithPacer(bootloader.NoPacing{}))
func WithPacer(pacer Pacer) Option {
	return func(c *Config) {
		if pacer == nil {
			pacer = NoPacing{}
		}
		c.Pacer = pacer
	}
}

// WithLoopback enables or disables echo verification.
// Default is true.
func WithLoopback(loopback bool) Option {
	return func(c *Config) {
		c.Loopback = loopback
	}
}

// WithPostFrameDelay sets the wait after each frame when loopback is off.
// Default is 300ms.
func WithPostFrameDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.PostFrameDelay = d
		}
	}
}

// WithFinishConfig sets configuration bytes carried by the finish command.
//
// Example:
//
//	prog := bootloader.New(device, bootloader.WithFinishConfig([]byte{0x00, 0x26}))
func WithFinishConfig(config []byte) Option {
	return func(c *Config) {
		c.FinishConfig = config
	}
}

// WithCoalescedErase merges touching erase blocks into fewer entries.
// Default is false.
func WithCoalescedErase(enabled bool) Option {
	return func(c *Config) {
		c.CoalesceErase = enabled
	}
}

// WithSleepFunc replaces the function used for every wait.
func WithSleepFunc(sleep SleepFunc) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}
