package protocol

// isControl reports whether b must be escaped inside a frame.
func isControl(b byte) bool {
	return b == StartOfFrame || b == EndOfFrame || b == Escape
}

// Encode wraps the concatenation of parts in a frame.
//
// Frame structure:
//
//	[STX][STX][PARTS...][CRC_H][CRC_L][ETX]
//
// Control bytes in the parts and in the CRC are escaped. The CRC covers the
// unescaped parts only. Encode fails with a FrameTooLargeError when the
// logical size (parts plus CRC) exceeds MaxLogicalSize.
func Encode(parts ...[]byte) ([]byte, error) {
	size := ChecksumSize
	for _, p := range parts {
		size += len(p)
	}
	if size > MaxLogicalSize {
		return nil, &FrameTooLargeError{Size: size, Max: MaxLogicalSize}
	}

	// Worst case every logical byte is escaped
	frame := make([]byte, 0, 3+2*size)
	frame = append(frame, StartOfFrame, StartOfFrame)

	crc := NewCRC16()
	for _, p := range parts {
		for _, b := range p {
			frame = appendEscaped(frame, b)
			crc.Update(b)
		}
	}
	sum := crc.Sum16()
	frame = appendEscaped(frame, byte(sum>>8))
	frame = appendEscaped(frame, byte(sum))

	frame = append(frame, EndOfFrame)
	return frame, nil
}

func appendEscaped(frame []byte, b byte) []byte {
	if isControl(b) {
		frame = append(frame, Escape)
	}
	return append(frame, b)
}

type decoderState int

const (
	stateIdle decoderState = iota
	stateStart
	stateData
	stateEscaped
)

// Decoder reassembles frames from a byte stream, one byte at a time.
// It follows the device firmware: bytes before a double STX are skipped,
// an unescaped STX inside a frame is an error, and the frame ends at the
// first unescaped ETX.
type Decoder struct {
	state decoderState
	buf   []byte
}

// NewDecoder returns a Decoder waiting for the start of a frame.
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, MaxLogicalSize+1)}
}

// Feed consumes one byte. It returns the verified payload (without the CRC)
// when b completes a frame, and nil otherwise. After an error the decoder
// waits for the next frame.
func (d *Decoder) Feed(b byte) ([]byte, error) {
	switch d.state {
	case stateIdle:
		if b == StartOfFrame {
			d.state = stateStart
		}
		return nil, nil

	case stateStart:
		if b == StartOfFrame {
			d.state = stateData
			d.buf = d.buf[:0]
		} else {
			d.state = stateIdle
		}
		return nil, nil

	case stateEscaped:
		d.state = stateData
		return nil, d.push(b)
	}

	switch b {
	case Escape:
		d.state = stateEscaped
		return nil, nil
	case StartOfFrame:
		return nil, d.fail("unexpected start of frame")
	case EndOfFrame:
		return d.finish()
	}
	return nil, d.push(b)
}

// Reset discards any partial frame.
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.buf = d.buf[:0]
}

func (d *Decoder) push(b byte) error {
	if len(d.buf) > MaxLogicalSize {
		return d.fail("buffer overrun")
	}
	d.buf = append(d.buf, b)
	return nil
}

func (d *Decoder) finish() ([]byte, error) {
	if len(d.buf) < ChecksumSize+1 {
		return nil, d.fail("frame too short")
	}
	if len(d.buf) > MaxLogicalSize {
		return nil, d.fail("buffer overrun")
	}

	n := len(d.buf) - ChecksumSize
	got := uint16(d.buf[n])<<8 | uint16(d.buf[n+1])
	if want := Checksum(d.buf[:n]); got != want {
		return nil, d.fail("checksum mismatch")
	}

	payload := make([]byte, n)
	copy(payload, d.buf[:n])
	d.Reset()
	return payload, nil
}

func (d *Decoder) fail(reason string) error {
	d.Reset()
	return &DecodeError{Reason: reason}
}

// Decode reverses Encode. The frame must start with the double STX and end
// with its ETX; the returned payload excludes the CRC.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < 2 || frame[0] != StartOfFrame || frame[1] != StartOfFrame {
		return nil, &DecodeError{Reason: "missing start of frame"}
	}

	d := NewDecoder()
	for i, b := range frame {
		payload, err := d.Feed(b)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			if i != len(frame)-1 {
				return nil, &DecodeError{Reason: "trailing bytes after end of frame"}
			}
			return payload, nil
		}
	}
	return nil, &DecodeError{Reason: "missing end of frame"}
}
