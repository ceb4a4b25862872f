package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByte(t *testing.T) {
	c := New([]byte{0x01, 0x02})
	b, err := c.Byte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)
	assert.Equal(t, 1, c.Pos())

	b, err = c.Byte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), b)

	_, err = c.Byte()
	assert.Error(t, err)
}

func TestTakeIsZeroCopy(t *testing.T) {
	buf := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	c := New(buf)
	s, err := c.Take(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, s)

	// Mutating the returned slice mutates the source buffer: proof this
	// is a subslice, not a copy.
	s[0] = 0x00
	assert.Equal(t, byte(0x00), buf[0])

	rest, err := c.Take(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCC, 0xDD}, rest)

	_, err = c.Take(1)
	assert.Error(t, err)
}

func TestTag(t *testing.T) {
	c := New([]byte{0x00, 0x61, 0x73, 0x6d})
	require.NoError(t, c.Tag([]byte{0x00, 0x61, 0x73, 0x6d}))

	c = New([]byte{0x00, 0x61, 0x73, 0x6e})
	assert.Error(t, c.Tag([]byte{0x00, 0x61, 0x73, 0x6d}))

	c = New([]byte{0x00})
	assert.Error(t, c.Tag([]byte{0x00, 0x61}))
}

func TestManyN(t *testing.T) {
	c := New([]byte{1, 2, 3, 4, 5, 6})
	out, err := ManyN(c, 3, func(c *Cursor) (uint16, error) {
		hi, err := c.Byte()
		if err != nil {
			return 0, err
		}
		lo, err := c.Byte()
		if err != nil {
			return 0, err
		}
		return uint16(hi)<<8 | uint16(lo), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x0102, 0x0304, 0x0506}, out)
	assert.True(t, c.Done())
}

func TestManyNFailsOnInnerError(t *testing.T) {
	c := New([]byte{1})
	_, err := ManyN(c, 2, func(c *Cursor) (byte, error) {
		return c.Byte()
	})
	assert.Error(t, err)
}

func TestRemainingAndLen(t *testing.T) {
	c := New([]byte{1, 2, 3})
	assert.Equal(t, 3, c.Len())
	_, err := c.Take(1)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []byte{2, 3}, c.Remaining())
}
