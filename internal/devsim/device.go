// Package devsim simulates a PIC18 running the serial bootloader firmware.
//
// Device implements io.ReadWriter. Bytes written to it are decoded into
// frames and applied to an in-memory flash array the way the firmware does:
// erase entries are 64-byte aligned, writes are 32-byte aligned and can only
// clear bits, the boot block is protected, and the application reset vector
// is relocated so the bootloader keeps control until the finish command.
package devsim

import (
	"bytes"
	"fmt"
	"io"

	"github.com/picboot/go-picboot/protocol"
)

const (
	// FlashSize is the program memory size of the simulated part
	FlashSize = 0x8000

	// BootBase is the first address of the protected boot block
	BootBase = 0x7C00

	// ResetVectorCopy is where the application reset vector is restored by
	// the finish command
	ResetVectorCopy = FlashSize - 64

	erasePage = 64
	writePage = 32
	vectorLen = 4
)

// Device is a simulated bootloader target.
type Device struct {
	// Flash is the program memory
	Flash []byte

	// Echo returns every written byte on Read, like a loopback adapter
	Echo bool

	// Finished is set once the finish command has been applied
	Finished bool

	// Config holds the configuration bytes of the finish command
	Config []byte

	// Commands lists every decoded command in arrival order
	Commands []*protocol.Command

	// Errors lists frame and command errors; the firmware drops such frames
	Errors []error

	decoder   *protocol.Decoder
	echo      bytes.Buffer
	origReset [vectorLen]byte
}

// New returns a device with erased flash.
func New(echo bool) *Device {
	flash := make([]byte, FlashSize)
	for i := range flash {
		flash[i] = 0xFF
	}
	return &Device{
		Flash:   flash,
		Echo:    echo,
		decoder: protocol.NewDecoder(),
	}
}

// Write feeds bytes to the device. It never fails; protocol errors are
// recorded in Errors.
func (d *Device) Write(p []byte) (int, error) {
	if d.Echo {
		d.echo.Write(p)
	}

	for _, b := range p {
		payload, err := d.decoder.Feed(b)
		if err != nil {
			d.Errors = append(d.Errors, err)
			continue
		}
		if payload != nil {
			d.apply(payload)
		}
	}
	return len(p), nil
}

// Read returns echoed bytes. It returns io.EOF when nothing is pending.
func (d *Device) Read(p []byte) (int, error) {
	if d.echo.Len() == 0 {
		return 0, io.EOF
	}
	return d.echo.Read(p)
}

// ResetInputBuffer drops pending echo bytes.
func (d *Device) ResetInputBuffer() error {
	d.echo.Reset()
	return nil
}

// ApplicationResetVector returns the application's original first
// instruction as restored by the finish command.
func (d *Device) ApplicationResetVector() []byte {
	return d.Flash[ResetVectorCopy : ResetVectorCopy+vectorLen]
}

func (d *Device) apply(payload []byte) {
	cmd, err := protocol.ParseCommand(payload)
	if err != nil {
		d.Errors = append(d.Errors, err)
		return
	}
	d.Commands = append(d.Commands, cmd)

	switch cmd.Code {
	case protocol.CmdErase:
		for _, b := range cmd.Blocks {
			addr := int(b.Address) &^ (erasePage - 1)
			for i := 0; i < b.Pages; i++ {
				d.erase(addr+i*erasePage, false)
			}
		}

	case protocol.CmdWrite:
		d.write(int(cmd.Offset)&^(writePage-1), cmd.Data)

	case protocol.CmdFinish:
		d.erase(ResetVectorCopy, true)
		d.program(ResetVectorCopy, d.origReset[:], true)
		d.Config = cmd.Data
		d.Finished = true
	}
}

func (d *Device) write(addr int, data []byte) {
	if addr == 0 && len(data) >= vectorLen {
		// keep the bootloader reachable until finish
		copy(d.origReset[:], data)
		data = bytes.Clone(data)
		word := BootBase / 2
		copy(data, []byte{byte(word), 0xEF, byte(word >> 8), 0xF0 | byte(word>>16)&0x0F})
	}
	d.program(addr, data, false)
}

func (d *Device) erase(addr int, unlocked bool) {
	if !d.writable(addr, erasePage, unlocked) {
		return
	}
	for i := addr; i < addr+erasePage; i++ {
		d.Flash[i] = 0xFF
	}
}

func (d *Device) program(addr int, data []byte, unlocked bool) {
	if !d.writable(addr, len(data), unlocked) {
		return
	}
	for i, b := range data {
		d.Flash[addr+i] &= b
	}
}

func (d *Device) writable(addr, n int, unlocked bool) bool {
	switch {
	case addr+n > len(d.Flash):
		d.Errors = append(d.Errors, fmt.Errorf("access 0x%04X+%d beyond flash", addr, n))
		return false
	case !unlocked && addr+n > BootBase:
		d.Errors = append(d.Errors, fmt.Errorf("access 0x%04X+%d inside boot block", addr, n))
		return false
	}
	return true
}
