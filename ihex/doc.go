// Package ihex parses Intel HEX firmware images into contiguous memory regions.
//
// # Record Format
//
// Every line holds one record:
//
//	:LLAAAATT[DD...]CC
//	  LL   = payload byte count
//	  AAAA = 16-bit address (big-endian)
//	  TT   = record type
//	  DD   = payload bytes
//	  CC   = two's complement of the sum of all preceding bytes
//
// Example:
//
//	:0400000001020304F2
//	  04 = 4 data bytes
//	  0000 = address 0x0000
//	  00 = data record
//	  01020304 = data
//	  F2 = checksum
//
// # Supported Records
//
// Only the linear addressing subset used by PIC18 toolchains is consolidated:
// data (00), end of file (01) and extended linear address (04). Segment
// addressing and start address records parse, but Consolidate rejects them
// with an UnsupportedRecordError.
//
// # Usage
//
// Load and consolidate a file:
//
//	fw, err := ihex.Load("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range fw.Regions {
//	    fmt.Printf("0x%06X: %d bytes\n", r.Address, len(r.Data))
//	}
//
// Write regions back as Intel HEX:
//
//	err := ihex.WriteHex(os.Stdout, fw.Regions, 16)
package ihex
