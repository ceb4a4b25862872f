package wasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pretzelhammer/watson/cursor"
)

func TestDecodeNullaryInstruction(t *testing.T) {
	insn, err := decodeInstruction(cursor.New(nil), OpNop)
	require.NoError(t, err)
	assert.Equal(t, Instruction{Op: OpNop}, insn)
}

func TestDecodeNestedBlock(t *testing.T) {
	// block (empty) { loop (empty) { nop } }
	bytes := []byte{
		0x40,       // outer block type
		0x03, 0x40, // loop, block type
		0x01, // nop
		0x0B, // inner end (loop)
		0x0B, // outer end (block)
	}
	insn, err := decodeInstruction(cursor.New(bytes), OpBlock)
	require.NoError(t, err)
	require.Equal(t, OpBlock, insn.Op)
	require.Len(t, insn.Body, 1)
	loop := insn.Body[0]
	assert.Equal(t, OpLoop, loop.Op)
	require.Len(t, loop.Body, 1)
	assert.Equal(t, OpNop, loop.Body[0].Op)
}

func TestDecodeIfWithElse(t *testing.T) {
	bytes := []byte{
		0x40, // block type
		0x01, // then: nop
		0x05, // else
		0x01, // else: nop
		0x0B, // end
	}
	insn, err := decodeInstruction(cursor.New(bytes), OpIf)
	require.NoError(t, err)
	require.True(t, insn.HasElse)
	require.Len(t, insn.Body, 1)
	require.Len(t, insn.Else, 1)
	assert.Equal(t, OpNop, insn.Body[0].Op)
	assert.Equal(t, OpNop, insn.Else[0].Op)
}

func TestDecodeIfWithoutElse(t *testing.T) {
	bytes := []byte{0x40, 0x01, 0x0B}
	insn, err := decodeInstruction(cursor.New(bytes), OpIf)
	require.NoError(t, err)
	assert.False(t, insn.HasElse)
	assert.Nil(t, insn.Else)
	require.Len(t, insn.Body, 1)
}

func TestDecodeBrTable(t *testing.T) {
	bytes := []byte{0x02, 0x00, 0x01, 0x02} // count=2, labels 0,1, default 2
	insn, err := decodeInstruction(cursor.New(bytes), OpBrTable)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, insn.Labels)
	assert.Equal(t, uint32(2), insn.Default)
}

func TestDecodeMemoryLoadStore(t *testing.T) {
	bytes := []byte{0x02, 0x04} // align=2, offset=4
	insn, err := decodeInstruction(cursor.New(bytes), OpI32Load)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), insn.Align)
	assert.Equal(t, uint32(4), insn.Offset)
}

func TestDecodeI32ConstNegative(t *testing.T) {
	insn, err := decodeInstruction(cursor.New([]byte{0x7b}), OpI32Const) // -5
	require.NoError(t, err)
	assert.Equal(t, int32(-5), insn.I32)
}

func TestDecodeUnknownOpcodeFails(t *testing.T) {
	_, err := decodeInstruction(cursor.New(nil), Op(0xFF))
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestDecodeExpressionUnterminatedFails(t *testing.T) {
	_, err := decodeExpression(cursor.New([]byte{0x01})) // nop with no end
	assert.ErrorIs(t, err, ErrUnterminatedExpr)
}

func TestDecodeExpressionElseOutsideIfFails(t *testing.T) {
	_, err := decodeExpression(cursor.New([]byte{0x05})) // bare else
	assert.ErrorIs(t, err, ErrUnexpectedElse)
}

func TestDecodeCallIndirectDiscardsReservedByte(t *testing.T) {
	bytes := []byte{0x03, 0x00} // type index 3, reserved 0
	insn, err := decodeInstruction(cursor.New(bytes), OpCallIndirect)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), insn.Index)
}
