package wasm

import (
	"slices"
)

// Module is a core WebAssembly module modelled as far as a bindings section
// needs: the function and function-type index spaces, exports, and custom
// sections. Every other section is carried through unchanged.
type Module struct {
	Types   []FuncType
	Imports []Import
	Funcs   []uint32 // Type indices for declared functions
	Exports []Export
	Code    [][]byte // Raw function bodies, one per declared function

	// Sections lists every section in file order. Type, import, function,
	// export and code sections are re-encoded from the fields above; the
	// rest, custom sections included, are written back verbatim.
	Sections []Section
}

// Section is one module section. Name is set for custom sections only, and
// Data then excludes the name.
type Section struct {
	Name string
	Data []byte
	ID   byte
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ValType represents a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	default:
		return "unknown"
	}
}

// Import represents an imported function, table, memory, global, or tag.
// Only function imports are decoded; Desc keeps the raw descriptor of the
// other kinds.
type Import struct {
	Module  string
	Name    string
	Desc    []byte
	TypeIdx uint32
	Kind    byte
}

// Export describes an exported item.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// NumImportedFuncs returns the number of imported functions, which occupy
// the start of the function index space.
func (m *Module) NumImportedFuncs() int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Kind == KindFunc {
			count++
		}
	}
	return count
}

// NumFuncs returns the size of the function index space.
func (m *Module) NumFuncs() int {
	return m.NumImportedFuncs() + len(m.Funcs)
}

// FuncTypeIndex returns the type index of the function at funcIdx.
func (m *Module) FuncTypeIndex(funcIdx uint32) (uint32, bool) {
	for _, imp := range m.Imports {
		if imp.Kind != KindFunc {
			continue
		}
		if funcIdx == 0 {
			return imp.TypeIdx, true
		}
		funcIdx--
	}
	if int(funcIdx) >= len(m.Funcs) {
		return 0, false
	}
	return m.Funcs[funcIdx], true
}

// FuncType returns the signature at typeIdx.
func (m *Module) FuncType(typeIdx uint32) (*FuncType, bool) {
	if int(typeIdx) >= len(m.Types) {
		return nil, false
	}
	return &m.Types[typeIdx], true
}

// GetFuncType returns the type of a function by its index
func (m *Module) GetFuncType(funcIdx uint32) *FuncType {
	typeIdx, ok := m.FuncTypeIndex(funcIdx)
	if !ok {
		return nil
	}
	ft, _ := m.FuncType(typeIdx)
	return ft
}

// ExportedFunc returns the function index exported under name.
func (m *Module) ExportedFunc(name string) (uint32, bool) {
	for _, exp := range m.Exports {
		if exp.Kind == KindFunc && exp.Name == name {
			return exp.Idx, true
		}
	}
	return 0, false
}

// ImportedFunc returns the function index of the import module.name.
func (m *Module) ImportedFunc(module, name string) (uint32, bool) {
	var idx uint32
	for _, imp := range m.Imports {
		if imp.Kind != KindFunc {
			continue
		}
		if imp.Module == module && imp.Name == name {
			return idx, true
		}
		idx++
	}
	return 0, false
}

// FuncName returns a display name for funcIdx: its first export name, or
// "module.name" for an import, or "" if it has neither.
func (m *Module) FuncName(funcIdx uint32) string {
	for _, exp := range m.Exports {
		if exp.Kind == KindFunc && exp.Idx == funcIdx {
			return exp.Name
		}
	}
	var idx uint32
	for _, imp := range m.Imports {
		if imp.Kind != KindFunc {
			continue
		}
		if idx == funcIdx {
			return imp.Module + "." + imp.Name
		}
		idx++
	}
	return ""
}

// AddType adds a function type and returns its index, reusing existing if equal
func (m *Module) AddType(ft FuncType) uint32 {
	for i, existing := range m.Types {
		if typesEqual(existing, ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// AddImportFunc appends a function import and returns its function index.
// Imports precede declared functions in the index space, so adding one
// after AddFunc shifts the indices of every declared function.
func (m *Module) AddImportFunc(module, name string, typeIdx uint32) uint32 {
	idx := uint32(m.NumImportedFuncs())
	m.Imports = append(m.Imports, Import{Module: module, Name: name, Kind: KindFunc, TypeIdx: typeIdx})
	return idx
}

// AddFunc declares a function of type typeIdx with the given raw body and
// returns its function index. A nil body declares a stub that traps.
func (m *Module) AddFunc(typeIdx uint32, body []byte) uint32 {
	if body == nil {
		body = stubBody
	}
	m.Funcs = append(m.Funcs, typeIdx)
	m.Code = append(m.Code, slices.Clone(body))
	return uint32(m.NumFuncs() - 1)
}

// AddExport exports the function at funcIdx under name.
func (m *Module) AddExport(name string, funcIdx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: KindFunc, Idx: funcIdx})
}

// CustomSection returns the payload of the first custom section called name.
func (m *Module) CustomSection(name string) ([]byte, bool) {
	for _, s := range m.Sections {
		if s.ID == SectionCustom && s.Name == name {
			return s.Data, true
		}
	}
	return nil, false
}

// SetCustomSection replaces the payload of the custom section called name,
// dropping any later duplicates, or appends a new one at the end.
func (m *Module) SetCustomSection(name string, data []byte) {
	replaced := false
	out := m.Sections[:0]
	for _, s := range m.Sections {
		if s.ID == SectionCustom && s.Name == name {
			if replaced {
				continue
			}
			s.Data = data
			replaced = true
		}
		out = append(out, s)
	}
	m.Sections = out
	if !replaced {
		m.Sections = append(m.Sections, Section{ID: SectionCustom, Name: name, Data: data})
	}
}

// RemoveCustomSection drops every custom section called name and reports
// whether any existed.
func (m *Module) RemoveCustomSection(name string) bool {
	n := len(m.Sections)
	m.Sections = slices.DeleteFunc(m.Sections, func(s Section) bool {
		return s.ID == SectionCustom && s.Name == name
	})
	return len(m.Sections) != n
}

func typesEqual(a, b FuncType) bool {
	return slices.Equal(a.Params, b.Params) && slices.Equal(a.Results, b.Results)
}
