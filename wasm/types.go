package wasm

// ValueType is one of the four MVP value types, encoded as a single
// byte in the binary format.
type ValueType byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return "invalid"
	}
}

// FuncTypeForm is the single byte that tags a WasmType as a function
// type in the binary format; it is the only form the MVP defines.
const FuncTypeForm byte = 0x60

// ElemTypeFuncRef is the MVP's only legal table element type marker
// (what the spec text calls "anyfunc").
const ElemTypeFuncRef byte = 0x70

// FunctionType is an ordered list of parameter types and an ordered
// list of result types.
type FunctionType struct {
	Inputs  []ValueType
	Outputs []ValueType
}

// WasmTypeKind tags the variants of WasmType. The MVP binary format
// only ever produces WasmTypeKindFunction; the tag exists so the
// representation matches the algebra spec.md describes and so a future
// proposal's type forms have somewhere to go without reshaping callers.
type WasmTypeKind byte

const (
	WasmTypeKindFunction WasmTypeKind = iota
)

// WasmType is one entry of the Type section.
type WasmType struct {
	Kind     WasmTypeKind
	Function FunctionType
}

// Limits is the shared min/optional-max encoding used by tables and
// memories: one flag byte (0x00 = min only, 0x01 = min and max) then
// one or two LEB128 u32s.
type Limits struct {
	Min uint32
	Max *uint32
}

// Table describes the module's table section entry. The MVP allows at
// most one table, always of funcref element type.
type Table struct {
	ElementType byte
	Limits      Limits
}

// Memory describes one memory section entry, expressed in units of
// 64KiB pages.
type Memory struct {
	MinPages uint32
	MaxPages *uint32
}

// Mut is a global's mutability flag.
type Mut byte

const (
	Immutable Mut = 0
	Mutable   Mut = 1
)

// GlobalType is a global variable's declared value type and
// mutability.
type GlobalType struct {
	ValueType ValueType
	Mut       Mut
}

// Global is one Global section entry: its type plus a constant
// initializer expression.
type Global struct {
	Type       GlobalType
	Expression []Instruction
}

// ExternalKind tags which index space an Import or Export entry names.
type ExternalKind byte

const (
	ExternalKindFunction ExternalKind = 0
	ExternalKindTable    ExternalKind = 1
	ExternalKindMemory   ExternalKind = 2
	ExternalKindGlobal   ExternalKind = 3
)

// WasmImport is one Import section entry. Exactly one of the
// kind-specific fields is meaningful, selected by Kind — the same
// kind-tagged-pointer shape the teacher's ImportDesc uses.
type WasmImport struct {
	ModuleName string
	Name       string
	Kind       ExternalKind

	TypeIndex  uint32      // meaningful iff Kind == ExternalKindFunction
	Table      *Table      // meaningful iff Kind == ExternalKindTable
	Memory     *Memory     // meaningful iff Kind == ExternalKindMemory
	GlobalType *GlobalType // meaningful iff Kind == ExternalKindGlobal
}

// Export names one entry of the Export section.
type Export struct {
	Name  string
	Index uint32
}

// WasmExport pairs an Export with the index space it names.
type WasmExport struct {
	Kind ExternalKind
	Export
}

// LocalEntry is a run of Count consecutive locals sharing ValueType,
// as they are declared in a function body.
type LocalEntry struct {
	Count     uint32
	ValueType ValueType
}

// CodeBlock is one function body: its local-variable runs followed by
// its instruction expression, terminated by the matching end.
type CodeBlock struct {
	Locals      []LocalEntry
	Expression  []Instruction
}

// ElementSegment is one Element section entry: a table, an offset
// initializer expression, and the function indices to populate it
// with.
type ElementSegment struct {
	TableIndex uint32
	Offset     []Instruction
	FuncIndices []uint32
}

// DataSegment is one Data section entry: a memory, an offset
// initializer expression, and the raw bytes to copy in.
type DataSegment struct {
	MemoryIndex uint32
	Offset      []Instruction
	Init        []byte
}

// CustomSection is a name plus the section's remaining raw bytes,
// whose length is the declared section length minus the bytes consumed
// decoding the name.
type CustomSection struct {
	Name string
	Data []byte
}

// UnknownSection preserves an unrecognized section id's raw payload
// rather than failing the whole parse on it. Parse does not currently
// produce these — unknown ids fail per spec.md §4.5 — but the type is
// part of the Section algebra for a caller that wants to tolerate them.
type UnknownSection struct {
	ID   byte
	Data []byte
}

// SectionKind tags which Wasm section a Section value carries.
type SectionKind byte

const (
	SectionKindCustom SectionKind = iota
	SectionKindType
	SectionKindImport
	SectionKindFunction
	SectionKindTable
	SectionKindMemory
	SectionKindGlobal
	SectionKindExport
	SectionKindStart
	SectionKindElement
	SectionKindCode
	SectionKindData
	SectionKindUnknown
)

// sectionID is the on-the-wire id byte for each standard section.
const (
	sectionIDCustom   byte = 0
	sectionIDType     byte = 1
	sectionIDImport   byte = 2
	sectionIDFunction byte = 3
	sectionIDTable    byte = 4
	sectionIDMemory   byte = 5
	sectionIDGlobal   byte = 6
	sectionIDExport   byte = 7
	sectionIDStart    byte = 8
	sectionIDElement  byte = 9
	sectionIDCode     byte = 10
	sectionIDData     byte = 11
)

// Section is one top-level module section, tagged by Kind with exactly
// one of the payload fields populated.
type Section struct {
	Kind SectionKind

	Types     []WasmType
	Imports   []WasmImport
	TypeIndices []uint32 // Function section: type index per function
	Tables    []Table
	Memories  []Memory
	Globals   []Global
	Exports   []WasmExport
	Start     uint32 // Start section: the start function's index
	Elements  []ElementSegment
	Code      []CodeBlock
	Data      []DataSegment
	Custom    *CustomSection
	Unknown   *UnknownSection
}

// Program is the owned, fully independent decode of a Wasm module: its
// Custom/Unknown/DataSegment byte payloads are freshly allocated copies
// with no remaining reference to any input buffer.
type Program struct {
	Sections []Section
}

// ProgramView is the result of Parse: structurally identical to
// Program, but its Custom/Unknown/DataSegment byte payloads are
// subslices of the input buffer given to Parse and must not outlive it.
// Call ToOwned to obtain an independent Program.
type ProgramView Program
