package wasm

import (
	"fmt"

	"github.com/pretzelhammer/watson/cursor"
	"github.com/pretzelhammer/watson/leb128"
)

// Op is a single-byte Wasm MVP opcode.
type Op byte

// The full MVP opcode set, matching the WebAssembly Core Specification
// 1.0 binary grammar. Grouped the way the spec's own opcode table is
// laid out: control flow, variable access, memory, numeric constants,
// comparisons, numeric operators, then conversions.
const (
	OpUnreachable Op = 0x00
	OpNop         Op = 0x01
	OpBlock       Op = 0x02
	OpLoop        Op = 0x03
	OpIf          Op = 0x04
	OpElse        Op = 0x05
	OpEnd         Op = 0x0B
	OpBr          Op = 0x0C
	OpBrIf        Op = 0x0D
	OpBrTable     Op = 0x0E
	OpReturn      Op = 0x0F
	OpCall        Op = 0x10
	OpCallIndirect Op = 0x11

	OpDrop   Op = 0x1A
	OpSelect Op = 0x1B

	OpLocalGet  Op = 0x20
	OpLocalSet  Op = 0x21
	OpLocalTee  Op = 0x22
	OpGlobalGet Op = 0x23
	OpGlobalSet Op = 0x24

	OpI32Load    Op = 0x28
	OpI64Load    Op = 0x29
	OpF32Load    Op = 0x2A
	OpF64Load    Op = 0x2B
	OpI32Load8S  Op = 0x2C
	OpI32Load8U  Op = 0x2D
	OpI32Load16S Op = 0x2E
	OpI32Load16U Op = 0x2F
	OpI64Load8S  Op = 0x30
	OpI64Load8U  Op = 0x31
	OpI64Load16S Op = 0x32
	OpI64Load16U Op = 0x33
	OpI64Load32S Op = 0x34
	OpI64Load32U Op = 0x35
	OpI32Store   Op = 0x36
	OpI64Store   Op = 0x37
	OpF32Store   Op = 0x38
	OpF64Store   Op = 0x39
	OpI32Store8  Op = 0x3A
	OpI32Store16 Op = 0x3B
	OpI64Store8  Op = 0x3C
	OpI64Store16 Op = 0x3D
	OpI64Store32 Op = 0x3E

	OpMemorySize Op = 0x3F
	OpMemoryGrow Op = 0x40

	OpI32Const Op = 0x41
	OpI64Const Op = 0x42
	OpF32Const Op = 0x43
	OpF64Const Op = 0x44

	// 0x45 (I32Eqz) through 0xBF (F64ReinterpretI64) are a single
	// contiguous, operand-less run: comparisons, integer and float
	// arithmetic, and the numeric conversions/reinterpretations. The
	// decoder doesn't need a name per opcode to parse them — it only
	// needs to know the byte falls in this range — but the named
	// constants below are kept for callers that want to match on a
	// specific operation.
	OpI32Eqz Op = 0x45
	OpI32Eq  Op = 0x46
	OpI32Ne  Op = 0x47
	OpI32LtS Op = 0x48
	OpI32LtU Op = 0x49
	OpI32GtS Op = 0x4A
	OpI32GtU Op = 0x4B
	OpI32LeS Op = 0x4C
	OpI32LeU Op = 0x4D
	OpI32GeS Op = 0x4E
	OpI32GeU Op = 0x4F
	OpI64Eqz Op = 0x50
	OpI64Eq  Op = 0x51
	OpI64Ne  Op = 0x52
	OpI64LtS Op = 0x53
	OpI64LtU Op = 0x54
	OpI64GtS Op = 0x55
	OpI64GtU Op = 0x56
	OpI64LeS Op = 0x57
	OpI64LeU Op = 0x58
	OpI64GeS Op = 0x59
	OpI64GeU Op = 0x5A
	OpF32Eq  Op = 0x5B
	OpF32Ne  Op = 0x5C
	OpF32Lt  Op = 0x5D
	OpF32Gt  Op = 0x5E
	OpF32Le  Op = 0x5F
	OpF32Ge  Op = 0x60
	OpF64Eq  Op = 0x61
	OpF64Ne  Op = 0x62
	OpF64Lt  Op = 0x63
	OpF64Gt  Op = 0x64
	OpF64Le  Op = 0x65
	OpF64Ge  Op = 0x66

	OpI32Clz    Op = 0x67
	OpI32Ctz    Op = 0x68
	OpI32Popcnt Op = 0x69
	OpI32Add    Op = 0x6A
	OpI32Sub    Op = 0x6B
	OpI32Mul    Op = 0x6C
	OpI32DivS   Op = 0x6D
	OpI32DivU   Op = 0x6E
	OpI32RemS   Op = 0x6F
	OpI32RemU   Op = 0x70
	OpI32And    Op = 0x71
	OpI32Or     Op = 0x72
	OpI32Xor    Op = 0x73
	OpI32Shl    Op = 0x74
	OpI32ShrS   Op = 0x75
	OpI32ShrU   Op = 0x76
	OpI32Rotl   Op = 0x77
	OpI32Rotr   Op = 0x78

	OpI64Clz    Op = 0x79
	OpI64Ctz    Op = 0x7A
	OpI64Popcnt Op = 0x7B
	OpI64Add    Op = 0x7C
	OpI64Sub    Op = 0x7D
	OpI64Mul    Op = 0x7E
	OpI64DivS   Op = 0x7F
	OpI64DivU   Op = 0x80
	OpI64RemS   Op = 0x81
	OpI64RemU   Op = 0x82
	OpI64And    Op = 0x83
	OpI64Or     Op = 0x84
	OpI64Xor    Op = 0x85
	OpI64Shl    Op = 0x86
	OpI64ShrS   Op = 0x87
	OpI64ShrU   Op = 0x88
	OpI64Rotl   Op = 0x89
	OpI64Rotr   Op = 0x8A

	OpF32Abs      Op = 0x8B
	OpF32Neg      Op = 0x8C
	OpF32Ceil     Op = 0x8D
	OpF32Floor    Op = 0x8E
	OpF32Trunc    Op = 0x8F
	OpF32Nearest  Op = 0x90
	OpF32Sqrt     Op = 0x91
	OpF32Add      Op = 0x92
	OpF32Sub      Op = 0x93
	OpF32Mul      Op = 0x94
	OpF32Div      Op = 0x95
	OpF32Min      Op = 0x96
	OpF32Max      Op = 0x97
	OpF32Copysign Op = 0x98

	OpF64Abs      Op = 0x99
	OpF64Neg      Op = 0x9A
	OpF64Ceil     Op = 0x9B
	OpF64Floor    Op = 0x9C
	OpF64Trunc    Op = 0x9D
	OpF64Nearest  Op = 0x9E
	OpF64Sqrt     Op = 0x9F
	OpF64Add      Op = 0xA0
	OpF64Sub      Op = 0xA1
	OpF64Mul      Op = 0xA2
	OpF64Div      Op = 0xA3
	OpF64Min      Op = 0xA4
	OpF64Max      Op = 0xA5
	OpF64Copysign Op = 0xA6

	OpI32WrapI64        Op = 0xA7
	OpI32TruncF32S      Op = 0xA8
	OpI32TruncF32U      Op = 0xA9
	OpI32TruncF64S      Op = 0xAA
	OpI32TruncF64U      Op = 0xAB
	OpI64ExtendI32S     Op = 0xAC
	OpI64ExtendI32U     Op = 0xAD
	OpI64TruncF32S      Op = 0xAE
	OpI64TruncF32U      Op = 0xAF
	OpI64TruncF64S      Op = 0xB0
	OpI64TruncF64U      Op = 0xB1
	OpF32ConvertI32S    Op = 0xB2
	OpF32ConvertI32U    Op = 0xB3
	OpF32ConvertI64S    Op = 0xB4
	OpF32ConvertI64U    Op = 0xB5
	OpF32DemoteF64      Op = 0xB6
	OpF64ConvertI32S    Op = 0xB7
	OpF64ConvertI32U    Op = 0xB8
	OpF64ConvertI64S    Op = 0xB9
	OpF64ConvertI64U    Op = 0xBA
	OpF64PromoteF32     Op = 0xBB
	OpI32ReinterpretF32 Op = 0xBC
	OpI64ReinterpretF64 Op = 0xBD
	OpF32ReinterpretI32 Op = 0xBE
	OpF64ReinterpretI64 Op = 0xBF
)

// nullaryLo/nullaryHi bound the contiguous comparison/arithmetic/
// conversion run that takes no operand bytes at all.
const (
	nullaryLo = OpI32Eqz
	nullaryHi = OpF64ReinterpretI64
)

func isNullary(op Op) bool {
	switch op {
	case OpUnreachable, OpNop, OpReturn, OpDrop, OpSelect:
		return true
	}
	return op >= nullaryLo && op <= nullaryHi
}

// BlockTypeEmpty is the block-type byte meaning "no result type" (what
// the binary format calls the empty/void block type).
const BlockTypeEmpty byte = 0x40

// Instruction is one decoded opcode plus whichever operand fields its
// opcode uses. A flat struct stands in for the tagged union spec.md
// describes: Op discriminates which of the remaining fields are
// meaningful, mirroring the kind+payload shape the teacher already
// uses for ImportDesc.
type Instruction struct {
	Op Op

	// Block, Loop, If
	BlockType byte
	Body      []Instruction
	HasElse   bool
	Else      []Instruction

	// Br, BrIf, Call, CallIndirect (type index), LocalGet/Set/Tee,
	// GlobalGet/Set
	Index uint32

	// BrTable
	Labels  []uint32
	Default uint32

	// memory loads/stores
	Align  uint32
	Offset uint32

	// constants
	I32 int32
	I64 int64
	F32 float32
	F64 float64
}

// decodeExpression decodes an instruction stream terminated by a single
// end byte, which is consumed but not emitted as an instruction.
func decodeExpression(c *cursor.Cursor) ([]Instruction, error) {
	body, term, err := decodeInstructionStream(c, false)
	if err != nil {
		return nil, err
	}
	if term != OpEnd {
		return nil, ErrUnterminatedExpr
	}
	return body, nil
}

// decodeInstructionStream reads instructions until it hits a
// terminating end (always) or else (only when allowElse), returning
// the decoded body and which byte stopped it.
func decodeInstructionStream(c *cursor.Cursor, allowElse bool) (body []Instruction, terminator Op, err error) {
	for {
		b, err := c.Byte()
		if err != nil {
			return nil, 0, fmt.Errorf("expression: %w", ErrUnterminatedExpr)
		}
		op := Op(b)
		if op == OpEnd {
			return body, OpEnd, nil
		}
		if op == OpElse {
			if !allowElse {
				return nil, 0, ErrUnexpectedElse
			}
			return body, OpElse, nil
		}
		insn, err := decodeInstruction(c, op)
		if err != nil {
			return nil, 0, err
		}
		body = append(body, insn)
	}
}

// decodeInstruction decodes one opcode byte's operands. The opcode
// byte itself has already been consumed by the caller.
func decodeInstruction(c *cursor.Cursor, op Op) (Instruction, error) {
	if isNullary(op) {
		return Instruction{Op: op}, nil
	}

	switch op {
	case OpBlock, OpLoop:
		blockType, err := c.Byte()
		if err != nil {
			return Instruction{}, fmt.Errorf("block type: %w", err)
		}
		body, err := decodeExpression(c)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, BlockType: blockType, Body: body}, nil

	case OpIf:
		blockType, err := c.Byte()
		if err != nil {
			return Instruction{}, fmt.Errorf("block type: %w", err)
		}
		then, term, err := decodeInstructionStream(c, true)
		if err != nil {
			return Instruction{}, err
		}
		insn := Instruction{Op: op, BlockType: blockType, Body: then}
		if term == OpElse {
			elseBody, elseTerm, err := decodeInstructionStream(c, false)
			if err != nil {
				return Instruction{}, err
			}
			if elseTerm != OpEnd {
				return Instruction{}, ErrUnterminatedExpr
			}
			insn.HasElse = true
			insn.Else = elseBody
		}
		return insn, nil

	case OpBr, OpBrIf:
		idx, _, err := leb128.DecodeUint32(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("branch label: %w", err)
		}
		return Instruction{Op: op, Index: idx}, nil

	case OpBrTable:
		count, _, err := leb128.DecodeUint32(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("br_table count: %w", err)
		}
		labels, err := cursor.ManyN(c, count, func(c *cursor.Cursor) (uint32, error) {
			v, _, err := leb128.DecodeUint32(c)
			return v, err
		})
		if err != nil {
			return Instruction{}, fmt.Errorf("br_table labels: %w", err)
		}
		def, _, err := leb128.DecodeUint32(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("br_table default: %w", err)
		}
		return Instruction{Op: op, Labels: labels, Default: def}, nil

	case OpCall, OpLocalGet, OpLocalSet, OpLocalTee, OpGlobalGet, OpGlobalSet:
		idx, _, err := leb128.DecodeUint32(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("index immediate: %w", err)
		}
		return Instruction{Op: op, Index: idx}, nil

	case OpCallIndirect:
		typeIdx, _, err := leb128.DecodeUint32(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("call_indirect type index: %w", err)
		}
		if _, _, err := leb128.DecodeUint32(c); err != nil { // reserved table index, MVP requires 0
			return Instruction{}, fmt.Errorf("call_indirect reserved byte: %w", err)
		}
		return Instruction{Op: op, Index: typeIdx}, nil

	case OpI32Load, OpI64Load, OpF32Load, OpF64Load,
		OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U,
		OpI32Store, OpI64Store, OpF32Store, OpF64Store,
		OpI32Store8, OpI32Store16, OpI64Store8, OpI64Store16, OpI64Store32:
		align, _, err := leb128.DecodeUint32(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("memory alignment: %w", err)
		}
		offset, _, err := leb128.DecodeUint32(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("memory offset: %w", err)
		}
		return Instruction{Op: op, Align: align, Offset: offset}, nil

	case OpMemorySize, OpMemoryGrow:
		if _, _, err := leb128.DecodeUint32(c); err != nil { // reserved byte
			return Instruction{}, fmt.Errorf("memory reserved byte: %w", err)
		}
		return Instruction{Op: op}, nil

	case OpI32Const:
		v, _, err := leb128.DecodeInt32(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("i32.const: %w", err)
		}
		return Instruction{Op: op, I32: v}, nil

	case OpI64Const:
		v, _, err := leb128.DecodeInt64(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("i64.const: %w", err)
		}
		return Instruction{Op: op, I64: v}, nil

	case OpF32Const:
		v, _, err := leb128.DecodeFloat32(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("f32.const: %w", err)
		}
		return Instruction{Op: op, F32: v}, nil

	case OpF64Const:
		v, _, err := leb128.DecodeFloat64(c)
		if err != nil {
			return Instruction{}, fmt.Errorf("f64.const: %w", err)
		}
		return Instruction{Op: op, F64: v}, nil

	default:
		return Instruction{}, fmt.Errorf("opcode 0x%02x: %w", byte(op), ErrUnknownOpcode)
	}
}
