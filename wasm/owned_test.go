package wasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToOwnedCopiesCustomSectionBytes(t *testing.T) {
	backing := []byte{0xde, 0xad, 0xbe, 0xef}
	view := ProgramView{Sections: []Section{
		{Kind: SectionKindCustom, Custom: &CustomSection{Name: "name", Data: backing[:2]}},
	}}
	owned := view.ToOwned()

	backing[0] = 0xff
	assert.Equal(t, byte(0xde), owned.Sections[0].Custom.Data[0], "owned copy must not alias the input buffer")
}

func TestToOwnedCopiesUnknownSectionBytes(t *testing.T) {
	backing := []byte{0x01, 0x02, 0x03}
	view := ProgramView{Sections: []Section{
		{Kind: SectionKindUnknown, Unknown: &UnknownSection{ID: 99, Data: backing}},
	}}
	owned := view.ToOwned()

	backing[0] = 0x00
	assert.Equal(t, byte(0x01), owned.Sections[0].Unknown.Data[0])
}

func TestToOwnedCopiesDataSegmentInit(t *testing.T) {
	backing := []byte{0x10, 0x20, 0x30}
	view := ProgramView{Sections: []Section{
		{Kind: SectionKindData, Data: []DataSegment{{MemoryIndex: 0, Init: backing}}},
	}}
	owned := view.ToOwned()

	backing[0] = 0x99
	assert.Equal(t, byte(0x10), owned.Sections[0].Data[0].Init[0])
}

func TestToOwnedPreservesStructure(t *testing.T) {
	view := ProgramView{Sections: []Section{
		{Kind: SectionKindType, Types: []WasmType{{Kind: WasmTypeKindFunction}}},
		{Kind: SectionKindStart, Start: 7},
	}}
	owned := view.ToOwned()
	require.Len(t, owned.Sections, 2)
	assert.Equal(t, SectionKindType, owned.Sections[0].Kind)
	assert.Equal(t, uint32(7), owned.Sections[1].Start)
}

func TestToOwnedHandlesNilPayloads(t *testing.T) {
	view := ProgramView{Sections: []Section{{Kind: SectionKindData, Data: []DataSegment{{Init: nil}}}}}
	owned := view.ToOwned()
	assert.Nil(t, owned.Sections[0].Data[0].Init)
}
