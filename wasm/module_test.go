package wasm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header() []byte {
	return append(append([]byte{}, Magic...), Version...)
}

func TestParseMinimalModule(t *testing.T) {
	view, err := Parse(header())
	require.NoError(t, err)
	assert.Empty(t, view.Sections)
}

func TestParseRejectsBadMagic(t *testing.T) {
	input := append([]byte{0x00, 0x61, 0x73, 0x6e}, Version...)
	_, err := Parse(input)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.ErrorIs(t, parseErr, ErrInvalidMagic)
}

func TestParseRejectsBadVersion(t *testing.T) {
	input := append(append([]byte{}, Magic...), 0x02, 0x00, 0x00, 0x00)
	_, err := Parse(input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestParseEmptyTypeSection(t *testing.T) {
	input := append(header(), 0x01, 0x01, 0x00) // section 1, length 1, count 0
	view, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, view.Sections, 1)
	assert.Equal(t, SectionKindType, view.Sections[0].Kind)
	assert.Empty(t, view.Sections[0].Types)
}

func TestParseTypeSectionOneFunction(t *testing.T) {
	// (i32) -> (i32)
	payload := []byte{
		0x01,       // count=1
		0x60,       // func form
		0x01, 0x7f, // one param: i32
		0x01, 0x7f, // one result: i32
	}
	input := append(header(), 0x01, byte(len(payload)))
	input = append(input, payload...)
	view, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, view.Sections, 1)
	types := view.Sections[0].Types
	require.Len(t, types, 1)
	assert.Equal(t, []ValueType{ValueTypeI32}, types[0].Function.Inputs)
	assert.Equal(t, []ValueType{ValueTypeI32}, types[0].Function.Outputs)
}

func TestParseStartSection(t *testing.T) {
	input := append(header(), 0x08, 0x01, 0x00) // section 8, length 1, index 0
	view, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, view.Sections, 1)
	assert.Equal(t, SectionKindStart, view.Sections[0].Kind)
	assert.Equal(t, uint32(0), view.Sections[0].Start)
}

func TestParseCodeSectionI32Const(t *testing.T) {
	// one function body: no locals, i32.const 42, end
	payload := []byte{
		0x01,                   // vector count = 1
		0x04,                   // body size = 4
		0x00,                   // local entry count = 0
		0x41, 0x2a,             // i32.const 42
		0x0B,                   // end
	}
	input := append(header(), 0x0A, byte(len(payload)))
	input = append(input, payload...)
	view, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, view.Sections, 1)
	require.Equal(t, SectionKindCode, view.Sections[0].Kind)
	code := view.Sections[0].Code
	require.Len(t, code, 1)
	require.Empty(t, code[0].Locals)
	require.Len(t, code[0].Expression, 1)
	assert.Equal(t, OpI32Const, code[0].Expression[0].Op)
	assert.Equal(t, int32(42), code[0].Expression[0].I32)
}

func TestParseUnknownSectionIDFails(t *testing.T) {
	input := append(header(), 0x0C, 0x00) // section id 12 does not exist
	_, err := Parse(input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSectionID)
}

func TestParseSectionLengthMismatchFails(t *testing.T) {
	// declared length 2 but the type section body only consumes 1 byte (count=0)
	input := append(header(), 0x01, 0x02, 0x00, 0x00)
	_, err := Parse(input)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSectionLengthMismatch)
}

func TestParsePartialResultOnFailure(t *testing.T) {
	// a valid type section followed by a truncated section header
	input := append(header(), 0x01, 0x01, 0x00)
	input = append(input, 0x02) // section id 2 (import), but no length byte follows
	_, err := Parse(input)
	require.Error(t, err)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Len(t, parseErr.Partial.Sections, 1)
	assert.Equal(t, SectionKindType, parseErr.Partial.Sections[0].Kind)
}
