package protocol

// Checksum algorithm constants.
const (
	// CRC16Polynomial is the CRC-16-CCITT polynomial (x^16 + x^12 + x^5 + 1)
	CRC16Polynomial = 0x1021

	// CRC16InitialValue is the CRC-16 initial value
	CRC16InitialValue = 0xFFFF
)

// CRC16 is an incremental CRC-16-CCITT accumulator.
//
// It uses the table-less byte-wise form of the algorithm, which is what the
// device firmware runs. The zero value is not ready for use; call NewCRC16.
type CRC16 struct {
	crc uint16
}

// NewCRC16 returns an accumulator primed with CRC16InitialValue.
func NewCRC16() *CRC16 {
	return &CRC16{crc: CRC16InitialValue}
}

// Update folds one byte into the checksum.
func (c *CRC16) Update(b byte) {
	crc := c.crc<<8 | c.crc>>8
	crc ^= uint16(b)
	crc ^= (crc & 0xFF) >> 4
	crc ^= crc << 12
	crc ^= (crc & 0xFF) << 5
	c.crc = crc
}

// Write folds p into the checksum. It never fails.
func (c *CRC16) Write(p []byte) (int, error) {
	for _, b := range p {
		c.Update(b)
	}
	return len(p), nil
}

// Sum16 returns the current checksum value.
func (c *CRC16) Sum16() uint16 {
	return c.crc
}

// Reset restores the initial value.
func (c *CRC16) Reset() {
	c.crc = CRC16InitialValue
}

// Checksum computes the CRC-16-CCITT of data.
func Checksum(data []byte) uint16 {
	c := NewCRC16()
	_, _ = c.Write(data)
	return c.Sum16()
}
