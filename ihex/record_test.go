package ihex

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"testing/quick"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *Record
		wantErr bool
		errMsg  string
	}{
		{
			name: "data record",
			line: ":0400000001020304F2",
			want: &Record{Type: Data, Address: 0x0000, Data: []byte{0x01, 0x02, 0x03, 0x04}},
		},
		{
			name: "lower case hex",
			line: ":04004000deadbeef84",
			want: &Record{Type: Data, Address: 0x0040, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		},
		{
			name: "end of file",
			line: ":00000001FF",
			want: &Record{Type: EndOfFile, Data: []byte{}},
		},
		{
			name: "extended linear address",
			line: ":020000040001F9",
			want: &Record{Type: ExtendedLinearAddress, Data: []byte{0x00, 0x01}},
		},
		{
			name: "start linear address",
			line: ":0400000500007C007B",
			want: &Record{Type: StartLinearAddress, Data: []byte{0x00, 0x00, 0x7C, 0x00}},
		},
		{
			name:    "checksum mismatch",
			line:    ":0400000001020304F3",
			wantErr: true,
			errMsg:  "checksum mismatch: expected 0xF2, got 0xF3",
		},
		{
			name:    "missing start code",
			line:    "0400000001020304F2",
			wantErr: true,
			errMsg:  "missing start code",
		},
		{
			name:    "shorter than header",
			line:    ":0400",
			wantErr: true,
			errMsg:  "line too short",
		},
		{
			name:    "shorter than declared payload",
			line:    ":0400000001020304",
			wantErr: true,
			errMsg:  "line too short for 4 data bytes",
		},
		{
			name:    "trailing characters",
			line:    ":00000001FF00",
			wantErr: true,
			errMsg:  "unexpected characters after checksum",
		},
		{
			name:    "invalid hex",
			line:    ":04000000010203G4F2",
			wantErr: true,
			errMsg:  "invalid hex data",
		},
		{
			name:    "short extended linear address",
			line:    ":0100000400FB",
			wantErr: true,
			errMsg:  "must carry 2 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseRecord() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ParseRecord() error = %v, want containing %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecord() error = %v", err)
			}
			assertRecord(t, got, tt.want)
		})
	}
}

func TestParseRecordErrorTypes(t *testing.T) {
	_, err := ParseRecord(":0400000001020304F3")
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("error = %v, want FormatError", err)
	}
	if formatErr.Expected != 0xF2 || formatErr.Actual != 0xF3 {
		t.Errorf("FormatError = %+v", formatErr)
	}

	_, err = ParseRecord(":04000000010203")
	var malformed *MalformedLineError
	if !errors.As(err, &malformed) {
		t.Errorf("error = %v, want MalformedLineError", err)
	}
}

func TestRecordString(t *testing.T) {
	rec := &Record{Type: Data, Address: 0x0040, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	if got, want := rec.String(), ":04004000DEADBEEF84"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	eof := &Record{Type: EndOfFile}
	if got, want := eof.String(), ":00000001FF"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	f := func(typ uint8, addr uint16, data []byte) bool {
		if len(data) > MaxRecordData {
			data = data[:MaxRecordData]
		}
		rec := &Record{Type: RecordType(typ % 6), Address: addr, Data: data}
		if rec.Type == ExtendedLinearAddress || rec.Type == ExtendedSegmentAddress {
			rec.Data = append([]byte{0, 0}, data...)[:2]
		}

		got, err := ParseRecord(rec.String())
		if err != nil {
			return false
		}
		return got.Type == rec.Type && got.Address == rec.Address && bytes.Equal(got.Data, rec.Data)
	}

	cfg := &quick.Config{MaxCount: 500, Rand: rand.New(rand.NewSource(7))}
	if err := quick.Check(f, cfg); err != nil {
		t.Error(err)
	}
}

func TestRecordTypeString(t *testing.T) {
	if StartLinearAddress == StartSegmentAddress {
		t.Fatal("start address record types share a tag")
	}
	if got := StartLinearAddress.String(); got != "StartLinearAddress" {
		t.Errorf("String() = %q", got)
	}
	if got := RecordType(0x42).String(); got != "RecordType(0x42)" {
		t.Errorf("String() = %q", got)
	}
}

func assertRecord(t *testing.T, got, want *Record) {
	t.Helper()
	if got.Type != want.Type {
		t.Errorf("Type = %s, want %s", got.Type, want.Type)
	}
	if got.Address != want.Address {
		t.Errorf("Address = 0x%04X, want 0x%04X", got.Address, want.Address)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Errorf("Data = % X, want % X", got.Data, want.Data)
	}
}
