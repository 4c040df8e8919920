package remoteid

import "encoding/binary"

// cursor reads little-endian fields from a body in order. Optional reads
// report absence instead of failing; after the first absent optional field
// every later optional read is absent too.
type cursor struct {
	data      []byte
	off       int
	exhausted bool
}

func (c *cursor) remaining() int { return len(c.data) - c.off }

func (c *cursor) take(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, &LengthError{Expected: c.off + n, Actual: len(c.data)}
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) optional(n int) ([]byte, bool) {
	if c.exhausted || c.remaining() < n {
		c.exhausted = true
		return nil, false
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, true
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) i32() (int32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (c *cursor) optU8() *uint8 {
	b, ok := c.optional(1)
	if !ok {
		return nil
	}
	v := b[0]
	return &v
}

func (c *cursor) optU16() *uint16 {
	b, ok := c.optional(2)
	if !ok {
		return nil
	}
	v := binary.LittleEndian.Uint16(b)
	return &v
}

func (c *cursor) optU32() *uint32 {
	b, ok := c.optional(4)
	if !ok {
		return nil
	}
	v := binary.LittleEndian.Uint32(b)
	return &v
}
