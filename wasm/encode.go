package wasm

import (
	"github.com/wippyai/webidl-bindings/internal/wire"
)

// Encode encodes the module to WebAssembly binary format.
//
// Sections are written in the order of m.Sections. The type, import,
// function, export and code sections are regenerated from the module's
// fields; if one of them has content but no entry in m.Sections, it is
// inserted at its canonical position.
func (m *Module) Encode() []byte {
	w := wire.NewWriter()

	// Magic number and version
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	modelled := []byte{SectionType, SectionImport, SectionFunction, SectionExport, SectionCode}
	written := make(map[byte]bool, len(modelled))

	emitModelled := func(id byte) {
		written[id] = true
		if data := m.encodeModelled(id); data != nil {
			writeSection(w, id, data)
		}
	}
	// flushBefore writes pending modelled sections that must precede order.
	flushBefore := func(order int) {
		for _, id := range modelled {
			if !written[id] && sectionOrder(id) < order && !m.hasSection(id) {
				emitModelled(id)
			}
		}
	}

	for _, s := range m.Sections {
		if s.ID == SectionCustom {
			sec := wire.NewWriter()
			sec.WriteString(s.Name)
			sec.WriteBytes(s.Data)
			writeSection(w, SectionCustom, sec.Bytes())
			continue
		}
		flushBefore(sectionOrder(s.ID))
		if isModelled(s.ID) {
			emitModelled(s.ID)
			continue
		}
		writeSection(w, s.ID, s.Data)
	}
	flushBefore(sectionOrder(SectionData) + 1)

	return w.Bytes()
}

func isModelled(id byte) bool {
	switch id {
	case SectionType, SectionImport, SectionFunction, SectionExport, SectionCode:
		return true
	}
	return false
}

func (m *Module) hasSection(id byte) bool {
	for _, s := range m.Sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

// encodeModelled returns the payload of a modelled section, or nil if the
// section would be empty.
func (m *Module) encodeModelled(id byte) []byte {
	sec := wire.NewWriter()
	switch id {
	case SectionType:
		if len(m.Types) == 0 {
			return nil
		}
		sec.WriteCount(len(m.Types))
		for _, ft := range m.Types {
			sec.Byte(FuncTypeByte)
			writeValTypes(sec, ft.Params)
			writeValTypes(sec, ft.Results)
		}
	case SectionImport:
		if len(m.Imports) == 0 {
			return nil
		}
		sec.WriteCount(len(m.Imports))
		for _, imp := range m.Imports {
			sec.WriteString(imp.Module)
			sec.WriteString(imp.Name)
			sec.Byte(imp.Kind)
			if imp.Kind == KindFunc {
				sec.WriteU32(imp.TypeIdx)
			} else {
				sec.WriteBytes(imp.Desc)
			}
		}
	case SectionFunction:
		if len(m.Funcs) == 0 {
			return nil
		}
		sec.WriteCount(len(m.Funcs))
		for _, typeIdx := range m.Funcs {
			sec.WriteU32(typeIdx)
		}
	case SectionExport:
		if len(m.Exports) == 0 {
			return nil
		}
		sec.WriteCount(len(m.Exports))
		for _, exp := range m.Exports {
			sec.WriteString(exp.Name)
			sec.Byte(exp.Kind)
			sec.WriteU32(exp.Idx)
		}
	case SectionCode:
		if len(m.Code) == 0 {
			return nil
		}
		sec.WriteCount(len(m.Code))
		for _, body := range m.Code {
			sec.WriteU32(uint32(len(body)))
			sec.WriteBytes(body)
		}
	}
	return sec.Bytes()
}

func writeSection(w *wire.Writer, id byte, data []byte) {
	w.Byte(id)
	w.WriteU32(uint32(len(data)))
	w.WriteBytes(data)
}

func writeValTypes(w *wire.Writer, types []ValType) {
	w.WriteCount(len(types))
	for _, t := range types {
		w.Byte(byte(t))
	}
}
