// Package leb128 decodes LEB128 variable-length integers and raw
// little-endian IEEE-754 floats, the numeric encodings used throughout
// the WebAssembly binary format. Every decoder here is a pure function
// over a cursor.Cursor: it consumes exactly the bytes it needs and
// returns the bytes-consumed count alongside the decoded value.
package leb128

import (
	"fmt"
	"math"

	"github.com/pretzelhammer/watson/cursor"
)

// maxBytes is the largest number of LEB128 bytes a decoder will accept
// before declaring overflow: 5 for a 32-bit payload (7*5=35 > 32 bits
// of payload), 10 for a 64-bit payload (7*10=70 > 64 bits).
func maxBytes(bitWidth uint) uint {
	return (bitWidth + 6) / 7
}

// readRaw accumulates up to maxBytes(bitWidth) LEB128 bytes into a
// uint64, returning the raw accumulated bits, the number of bytes
// consumed, whether the terminating byte's sign bit (bit 6) was set,
// and any error.
func readRaw(c *cursor.Cursor, bitWidth uint) (result uint64, n int, signBit bool, err error) {
	limit := maxBytes(bitWidth)
	var shift uint
	for {
		b, err := c.Byte()
		if err != nil {
			return 0, n, false, fmt.Errorf("leb128: %w", err)
		}
		n++
		payload := uint64(b & 0x7f)
		result |= payload << shift
		if b&0x80 == 0 {
			signBit = b&0x40 != 0
			return result, n, signBit, nil
		}
		shift += 7
		if uint(n) >= limit {
			return 0, n, false, fmt.Errorf("leb128: more than %d bytes consumed without a terminating byte", limit)
		}
	}
}

// DecodeUint32 decodes an unsigned 32-bit LEB128 integer, failing if
// more than 5 bytes are consumed or the final byte's payload overflows
// 32 bits.
func DecodeUint32(c *cursor.Cursor) (uint32, int, error) {
	raw, n, _, err := readRaw(c, 32)
	if err != nil {
		return 0, n, err
	}
	if raw > math.MaxUint32 {
		return 0, n, fmt.Errorf("leb128: unsigned value overflows 32 bits")
	}
	return uint32(raw), n, nil
}

// DecodeUint64 decodes an unsigned 64-bit LEB128 integer, failing if
// more than 10 bytes are consumed.
func DecodeUint64(c *cursor.Cursor) (uint64, int, error) {
	raw, n, _, err := readRaw(c, 64)
	if err != nil {
		return 0, n, err
	}
	return raw, n, nil
}

// DecodeInt32 decodes a signed 32-bit LEB128 integer, sign-extending
// from bit 6 of the terminating byte, failing if more than 5 bytes are
// consumed.
func DecodeInt32(c *cursor.Cursor) (int32, int, error) {
	raw, n, signBit, err := readRaw(c, 32)
	if err != nil {
		return 0, n, err
	}
	if signBit {
		shift := uint(n) * 7
		if shift < 64 {
			raw |= ^uint64(0) << shift
		}
	}
	v := int64(raw)
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, n, fmt.Errorf("leb128: signed value overflows 32 bits")
	}
	return int32(v), n, nil
}

// DecodeInt64 decodes a signed 64-bit LEB128 integer, sign-extending
// from bit 6 of the terminating byte, failing if more than 10 bytes are
// consumed.
func DecodeInt64(c *cursor.Cursor) (int64, int, error) {
	raw, n, signBit, err := readRaw(c, 64)
	if err != nil {
		return 0, n, err
	}
	if signBit {
		shift := uint(n) * 7
		if shift < 64 {
			raw |= ^uint64(0) << shift
		}
	}
	return int64(raw), n, nil
}

// DecodeFloat32 reads 4 little-endian bytes and reinterprets the bit
// pattern as an IEEE-754 single-precision float, preserving every bit
// pattern including NaNs.
func DecodeFloat32(c *cursor.Cursor) (float32, int, error) {
	b, err := c.Take(4)
	if err != nil {
		return 0, 0, fmt.Errorf("leb128: f32: %w", err)
	}
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits), 4, nil
}

// DecodeFloat64 reads 8 little-endian bytes and reinterprets the bit
// pattern as an IEEE-754 double-precision float, preserving every bit
// pattern including NaNs.
func DecodeFloat64(c *cursor.Cursor) (float64, int, error) {
	b, err := c.Take(8)
	if err != nil {
		return 0, 0, fmt.Errorf("leb128: f64: %w", err)
	}
	var bits uint64
	for i := 7; i >= 0; i-- {
		bits = bits<<8 | uint64(b[i])
	}
	return math.Float64frombits(bits), 8, nil
}
