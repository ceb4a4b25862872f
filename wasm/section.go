package wasm

import (
	"fmt"
	"unicode/utf8"

	"github.com/pretzelhammer/watson/cursor"
	"github.com/pretzelhammer/watson/leb128"
)

func decodeName(c *cursor.Cursor) (string, error) {
	n, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return "", fmt.Errorf("name length: %w", err)
	}
	b, err := c.Take(n)
	if err != nil {
		return "", fmt.Errorf("name bytes: %w", err)
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

func decodeValueType(c *cursor.Cursor) (ValueType, error) {
	b, err := c.Byte()
	if err != nil {
		return 0, fmt.Errorf("value type: %w", err)
	}
	switch ValueType(b) {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return ValueType(b), nil
	default:
		return 0, ErrInvalidValueType
	}
}

func decodeLimits(c *cursor.Cursor) (Limits, error) {
	flag, err := c.Byte()
	if err != nil {
		return Limits{}, fmt.Errorf("limits flag: %w", err)
	}
	min, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return Limits{}, fmt.Errorf("limits min: %w", err)
	}
	switch flag {
	case 0x00:
		return Limits{Min: min}, nil
	case 0x01:
		max, _, err := leb128.DecodeUint32(c)
		if err != nil {
			return Limits{}, fmt.Errorf("limits max: %w", err)
		}
		return Limits{Min: min, Max: &max}, nil
	default:
		return Limits{}, ErrInvalidLimitsFlag
	}
}

func decodeElemType(c *cursor.Cursor) (byte, error) {
	b, err := c.Byte()
	if err != nil {
		return 0, fmt.Errorf("element type: %w", err)
	}
	if b != ElemTypeFuncRef {
		return 0, ErrInvalidElemType
	}
	return b, nil
}

func decodeTable(c *cursor.Cursor) (Table, error) {
	elemType, err := decodeElemType(c)
	if err != nil {
		return Table{}, err
	}
	limits, err := decodeLimits(c)
	if err != nil {
		return Table{}, err
	}
	return Table{ElementType: elemType, Limits: limits}, nil
}

func decodeMemory(c *cursor.Cursor) (Memory, error) {
	limits, err := decodeLimits(c)
	if err != nil {
		return Memory{}, err
	}
	return Memory{MinPages: limits.Min, MaxPages: limits.Max}, nil
}

func decodeMut(c *cursor.Cursor) (Mut, error) {
	b, err := c.Byte()
	if err != nil {
		return 0, fmt.Errorf("mutability: %w", err)
	}
	switch Mut(b) {
	case Immutable, Mutable:
		return Mut(b), nil
	default:
		return 0, ErrInvalidMutFlag
	}
}

func decodeGlobalType(c *cursor.Cursor) (GlobalType, error) {
	vt, err := decodeValueType(c)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := decodeMut(c)
	if err != nil {
		return GlobalType{}, err
	}
	return GlobalType{ValueType: vt, Mut: mut}, nil
}

func decodeFunctionType(c *cursor.Cursor) (FunctionType, error) {
	form, err := c.Byte()
	if err != nil {
		return FunctionType{}, fmt.Errorf("function type form: %w", err)
	}
	if form != FuncTypeForm {
		return FunctionType{}, ErrInvalidTypeForm
	}
	inCount, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return FunctionType{}, fmt.Errorf("param count: %w", err)
	}
	inputs, err := cursor.ManyN(c, inCount, decodeValueType)
	if err != nil {
		return FunctionType{}, fmt.Errorf("params: %w", err)
	}
	outCount, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return FunctionType{}, fmt.Errorf("result count: %w", err)
	}
	outputs, err := cursor.ManyN(c, outCount, decodeValueType)
	if err != nil {
		return FunctionType{}, fmt.Errorf("results: %w", err)
	}
	return FunctionType{Inputs: inputs, Outputs: outputs}, nil
}

func decodeTypeSection(c *cursor.Cursor) ([]WasmType, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, func(c *cursor.Cursor) (WasmType, error) {
		ft, err := decodeFunctionType(c)
		if err != nil {
			return WasmType{}, err
		}
		return WasmType{Kind: WasmTypeKindFunction, Function: ft}, nil
	})
}

// decodeImportDesc decodes the kind-specific payload of one import
// entry following the Wasm spec's field order: function carries a type
// index, table an element type plus limits, memory just limits, global
// a value type plus mutability. (The teacher's own decoder swaps the
// memory and global payloads relative to this; spec.md §9 calls that
// out as a known bug to not repeat.)
func decodeImportDesc(c *cursor.Cursor, imp *WasmImport) error {
	kind, err := c.Byte()
	if err != nil {
		return fmt.Errorf("import kind: %w", err)
	}
	imp.Kind = ExternalKind(kind)
	switch imp.Kind {
	case ExternalKindFunction:
		idx, _, err := leb128.DecodeUint32(c)
		if err != nil {
			return fmt.Errorf("import type index: %w", err)
		}
		imp.TypeIndex = idx
	case ExternalKindTable:
		t, err := decodeTable(c)
		if err != nil {
			return err
		}
		imp.Table = &t
	case ExternalKindMemory:
		m, err := decodeMemory(c)
		if err != nil {
			return err
		}
		imp.Memory = &m
	case ExternalKindGlobal:
		gt, err := decodeGlobalType(c)
		if err != nil {
			return err
		}
		imp.GlobalType = &gt
	default:
		return ErrInvalidExternalKind
	}
	return nil
}

func decodeImportSection(c *cursor.Cursor) ([]WasmImport, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, func(c *cursor.Cursor) (WasmImport, error) {
		var imp WasmImport
		imp.ModuleName, err = decodeName(c)
		if err != nil {
			return WasmImport{}, fmt.Errorf("module name: %w", err)
		}
		imp.Name, err = decodeName(c)
		if err != nil {
			return WasmImport{}, fmt.Errorf("field name: %w", err)
		}
		if err := decodeImportDesc(c, &imp); err != nil {
			return WasmImport{}, err
		}
		return imp, nil
	})
}

func decodeFunctionSection(c *cursor.Cursor) ([]uint32, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, func(c *cursor.Cursor) (uint32, error) {
		v, _, err := leb128.DecodeUint32(c)
		return v, err
	})
}

func decodeTableSection(c *cursor.Cursor) ([]Table, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, decodeTable)
}

func decodeMemorySection(c *cursor.Cursor) ([]Memory, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, decodeMemory)
}

func decodeGlobalSection(c *cursor.Cursor) ([]Global, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, func(c *cursor.Cursor) (Global, error) {
		gt, err := decodeGlobalType(c)
		if err != nil {
			return Global{}, err
		}
		expr, err := decodeExpression(c)
		if err != nil {
			return Global{}, fmt.Errorf("initializer: %w", err)
		}
		return Global{Type: gt, Expression: expr}, nil
	})
}

func decodeExport(c *cursor.Cursor) (WasmExport, error) {
	name, err := decodeName(c)
	if err != nil {
		return WasmExport{}, fmt.Errorf("export name: %w", err)
	}
	kindByte, err := c.Byte()
	if err != nil {
		return WasmExport{}, fmt.Errorf("export kind: %w", err)
	}
	kind := ExternalKind(kindByte)
	switch kind {
	case ExternalKindFunction, ExternalKindTable, ExternalKindMemory, ExternalKindGlobal:
	default:
		return WasmExport{}, ErrInvalidExternalKind
	}
	idx, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return WasmExport{}, fmt.Errorf("export index: %w", err)
	}
	return WasmExport{Kind: kind, Export: Export{Name: name, Index: idx}}, nil
}

func decodeExportSection(c *cursor.Cursor) ([]WasmExport, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, decodeExport)
}

func decodeStartSection(c *cursor.Cursor) (uint32, error) {
	idx, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return 0, fmt.Errorf("start function index: %w", err)
	}
	return idx, nil
}

func decodeElementSegment(c *cursor.Cursor) (ElementSegment, error) {
	tableIdx, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return ElementSegment{}, fmt.Errorf("table index: %w", err)
	}
	offset, err := decodeExpression(c)
	if err != nil {
		return ElementSegment{}, fmt.Errorf("offset: %w", err)
	}
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return ElementSegment{}, fmt.Errorf("function index count: %w", err)
	}
	funcs, err := cursor.ManyN(c, count, func(c *cursor.Cursor) (uint32, error) {
		v, _, err := leb128.DecodeUint32(c)
		return v, err
	})
	if err != nil {
		return ElementSegment{}, fmt.Errorf("function indices: %w", err)
	}
	return ElementSegment{TableIndex: tableIdx, Offset: offset, FuncIndices: funcs}, nil
}

func decodeElementSection(c *cursor.Cursor) ([]ElementSegment, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, decodeElementSegment)
}

func decodeLocalEntry(c *cursor.Cursor) (LocalEntry, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return LocalEntry{}, fmt.Errorf("local run count: %w", err)
	}
	vt, err := decodeValueType(c)
	if err != nil {
		return LocalEntry{}, err
	}
	return LocalEntry{Count: count, ValueType: vt}, nil
}

func decodeCodeBlock(c *cursor.Cursor) (CodeBlock, error) {
	// The body-size prefix is reserved for validating the byte span;
	// this decoder trusts the expression's own `end` terminator instead
	// of re-slicing by size, so the value is read and discarded.
	if _, _, err := leb128.DecodeUint32(c); err != nil {
		return CodeBlock{}, fmt.Errorf("body size: %w", err)
	}
	localCount, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return CodeBlock{}, fmt.Errorf("local run count: %w", err)
	}
	locals, err := cursor.ManyN(c, localCount, decodeLocalEntry)
	if err != nil {
		return CodeBlock{}, fmt.Errorf("locals: %w", err)
	}
	expr, err := decodeExpression(c)
	if err != nil {
		return CodeBlock{}, fmt.Errorf("body: %w", err)
	}
	return CodeBlock{Locals: locals, Expression: expr}, nil
}

func decodeCodeSection(c *cursor.Cursor) ([]CodeBlock, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, decodeCodeBlock)
}

func decodeDataSegment(c *cursor.Cursor) (DataSegment, error) {
	memIdx, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return DataSegment{}, fmt.Errorf("memory index: %w", err)
	}
	offset, err := decodeExpression(c)
	if err != nil {
		return DataSegment{}, fmt.Errorf("offset: %w", err)
	}
	n, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return DataSegment{}, fmt.Errorf("data length: %w", err)
	}
	data, err := c.Take(n)
	if err != nil {
		return DataSegment{}, fmt.Errorf("data: %w", err)
	}
	return DataSegment{MemoryIndex: memIdx, Offset: offset, Init: data}, nil
}

func decodeDataSection(c *cursor.Cursor) ([]DataSegment, error) {
	count, _, err := leb128.DecodeUint32(c)
	if err != nil {
		return nil, fmt.Errorf("vector size: %w", err)
	}
	return cursor.ManyN(c, count, decodeDataSegment)
}

func decodeCustomSection(c *cursor.Cursor, declaredLen uint32) (*CustomSection, error) {
	before := c.Len()
	name, err := decodeName(c)
	if err != nil {
		return nil, fmt.Errorf("custom section name: %w", err)
	}
	consumed := uint32(before - c.Len())
	if consumed > declaredLen {
		return nil, fmt.Errorf("wasm: custom section name longer than declared section length")
	}
	remaining := declaredLen - consumed
	data, err := c.Take(remaining)
	if err != nil {
		return nil, fmt.Errorf("custom section data: %w", err)
	}
	return &CustomSection{Name: name, Data: data}, nil
}
