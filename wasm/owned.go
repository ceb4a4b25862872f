package wasm

// ToOwned produces a Program whose byte payloads are independently
// allocated copies, safe to retain after the buffer given to Parse is
// gone. Every other field is already independent of the input buffer
// (Go strings are copies on creation, and instruction/locals slices are
// freshly allocated during decoding) — only the raw []byte leaves that
// Parse sliced directly out of the input need copying here: custom and
// unknown section payloads, and data-segment init bytes.
func (v ProgramView) ToOwned() Program {
	sections := make([]Section, len(v.Sections))
	for i, s := range v.Sections {
		sections[i] = s.cloneOwned()
	}
	return Program{Sections: sections}
}

func (s Section) cloneOwned() Section {
	out := s
	if s.Custom != nil {
		out.Custom = &CustomSection{
			Name: s.Custom.Name,
			Data: cloneBytes(s.Custom.Data),
		}
	}
	if s.Unknown != nil {
		out.Unknown = &UnknownSection{
			ID:   s.Unknown.ID,
			Data: cloneBytes(s.Unknown.Data),
		}
	}
	if s.Data != nil {
		out.Data = make([]DataSegment, len(s.Data))
		for i, d := range s.Data {
			out.Data[i] = DataSegment{
				MemoryIndex: d.MemoryIndex,
				Offset:      d.Offset,
				Init:        cloneBytes(d.Init),
			}
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
