package wasm

import (
	"fmt"

	"github.com/pretzelhammer/watson/cursor"
	"github.com/pretzelhammer/watson/leb128"
)

// Magic is the 4-byte "\0asm" header every Wasm module begins with.
var Magic = []byte{0x00, 0x61, 0x73, 0x6d}

// Version is the only binary format version this decoder understands.
var Version = []byte{0x01, 0x00, 0x00, 0x00}

// Parse validates the header and decodes every section of a Wasm MVP
// binary module, in source order, until the input is exhausted. On
// failure it returns a *ParseError carrying every section successfully
// decoded before the failing one, so a best-effort caller can still
// inspect whatever was salvageable.
func Parse(input []byte) (ProgramView, error) {
	c := cursor.New(input)

	if err := c.Tag(Magic); err != nil {
		return ProgramView{}, &ParseError{Err: fmt.Errorf("%w: %v", ErrInvalidMagic, err)}
	}
	if err := c.Tag(Version); err != nil {
		return ProgramView{}, &ParseError{Err: fmt.Errorf("%w: %v", ErrInvalidVersion, err)}
	}

	view := ProgramView{}
	for !c.Done() {
		section, err := decodeSection(c)
		if err != nil {
			return ProgramView{}, &ParseError{Partial: view, Err: err}
		}
		view.Sections = append(view.Sections, section)
	}
	return view, nil
}

// decodeSection frames one section: id byte, LEB128 length, then a
// payload sliced to exactly that length so the body decoder cannot run
// past (or short of) the declared boundary without it being caught
// below.
func decodeSection(c *cursor.Cursor) (Section, error) {
	id, err := c.Byte()
	if err != nil {
		return Section{}, fmt.Errorf("section id: %w", err)
	}
	length, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return Section{}, fmt.Errorf("section %d length: %w", id, err)
	}
	payload, err := c.Take(length)
	if err != nil {
		return Section{}, fmt.Errorf("section %d payload: %w", id, err)
	}

	body := cursor.New(payload)
	section, err := decodeSectionBody(body, id, length)
	if err != nil {
		return Section{}, fmt.Errorf("section id %d: %w", id, err)
	}
	if !body.Done() {
		return Section{}, fmt.Errorf("section id %d: %w", id, ErrSectionLengthMismatch)
	}
	return section, nil
}

func decodeSectionBody(c *cursor.Cursor, id byte, length uint32) (Section, error) {
	switch id {
	case sectionIDCustom:
		custom, err := decodeCustomSection(c, length)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindCustom, Custom: custom}, nil
	case sectionIDType:
		types, err := decodeTypeSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindType, Types: types}, nil
	case sectionIDImport:
		imports, err := decodeImportSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindImport, Imports: imports}, nil
	case sectionIDFunction:
		indices, err := decodeFunctionSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindFunction, TypeIndices: indices}, nil
	case sectionIDTable:
		tables, err := decodeTableSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindTable, Tables: tables}, nil
	case sectionIDMemory:
		memories, err := decodeMemorySection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindMemory, Memories: memories}, nil
	case sectionIDGlobal:
		globals, err := decodeGlobalSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindGlobal, Globals: globals}, nil
	case sectionIDExport:
		exports, err := decodeExportSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindExport, Exports: exports}, nil
	case sectionIDStart:
		start, err := decodeStartSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindStart, Start: start}, nil
	case sectionIDElement:
		elements, err := decodeElementSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindElement, Elements: elements}, nil
	case sectionIDCode:
		code, err := decodeCodeSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindCode, Code: code}, nil
	case sectionIDData:
		data, err := decodeDataSection(c)
		if err != nil {
			return Section{}, err
		}
		return Section{Kind: SectionKindData, Data: data}, nil
	default:
		return Section{}, ErrUnknownSectionID
	}
}
