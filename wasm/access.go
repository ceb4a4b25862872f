package wasm

// firstSectionOfKind returns the first section of the given kind, and
// whether one was found; later sections of the same kind are ignored.
func firstSectionOfKind(sections []Section, kind SectionKind) (Section, bool) {
	for _, s := range sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}

func findExportedFunction(sections []Section, name string) (WasmExport, CodeBlock, error) {
	exportSection, ok := firstSectionOfKind(sections, SectionKindExport)
	if !ok {
		return WasmExport{}, CodeBlock{}, ErrNoExportSection
	}
	codeSection, ok := firstSectionOfKind(sections, SectionKindCode)
	if !ok {
		return WasmExport{}, CodeBlock{}, ErrNoCodeSection
	}
	for _, export := range exportSection.Exports {
		if export.Kind == ExternalKindFunction && export.Name == name {
			block, err := codeBlockAt(codeSection, export.Index)
			if err != nil {
				return WasmExport{}, CodeBlock{}, err
			}
			return export, block, nil
		}
	}
	return WasmExport{}, CodeBlock{}, ErrExportNotFound
}

func findCodeBlock(sections []Section, index uint32) (CodeBlock, error) {
	codeSection, ok := firstSectionOfKind(sections, SectionKindCode)
	if !ok {
		return CodeBlock{}, ErrNoCodeSection
	}
	return codeBlockAt(codeSection, index)
}

func codeBlockAt(codeSection Section, index uint32) (CodeBlock, error) {
	if int(index) >= len(codeSection.Code) {
		return CodeBlock{}, ErrCodeIndexOutOfRange
	}
	return codeSection.Code[index], nil
}

// FindExportedFunction scans the module's Export section for a
// function export named name and returns it alongside its code block.
func (v ProgramView) FindExportedFunction(name string) (WasmExport, CodeBlock, error) {
	return findExportedFunction(v.Sections, name)
}

// FindCodeBlock returns the index-th entry of the module's Code
// section.
func (v ProgramView) FindCodeBlock(index uint32) (CodeBlock, error) {
	return findCodeBlock(v.Sections, index)
}

// FindExportedFunction scans the module's Export section for a
// function export named name and returns it alongside its code block.
func (p Program) FindExportedFunction(name string) (WasmExport, CodeBlock, error) {
	return findExportedFunction(p.Sections, name)
}

// FindCodeBlock returns the index-th entry of the module's Code
// section.
func (p Program) FindCodeBlock(index uint32) (CodeBlock, error) {
	return findCodeBlock(p.Sections, index)
}
