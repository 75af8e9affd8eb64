package webidlbindings

import (
	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/binary"
	"github.com/wippyai/webidl-bindings/internal/wire"
	"github.com/wippyai/webidl-bindings/wasm"
)

// SectionName is the name of the custom section holding the bindings.
const SectionName = "webidl-bindings"

// Name section subsection IDs.
const (
	nameSubsectionFuncs byte = 1
	nameSubsectionTypes byte = 4
)

// ModuleIndex resolves host function and function-type handles against a
// parsed module. A handle is its index plus one. Index spaces are read from
// the module on every call, so functions added after NewModuleIndex are
// visible; names are collected once.
//
// ModuleIndex implements ast.HostResolver, ast.FuncTypes, binary.IDs and
// binary.Indices.
type ModuleIndex struct {
	m         *wasm.Module
	funcNames map[string]uint32
	typeNames map[string]uint32
	display   map[uint32]string // first name registered per function
}

var (
	_ ast.HostResolver = (*ModuleIndex)(nil)
	_ ast.FuncTypes    = (*ModuleIndex)(nil)
	_ binary.IDs       = (*ModuleIndex)(nil)
	_ binary.Indices   = (*ModuleIndex)(nil)
)

// NewModuleIndex indexes m. Function and type names come from the "name"
// custom section when present; a malformed name section is ignored.
func NewModuleIndex(m *wasm.Module) *ModuleIndex {
	idx := &ModuleIndex{
		m:         m,
		funcNames: make(map[string]uint32),
		typeNames: make(map[string]uint32),
		display:   make(map[uint32]string),
	}
	if data, ok := m.CustomSection("name"); ok {
		idx.readNames(data)
	}
	return idx
}

// Module returns the indexed module.
func (x *ModuleIndex) Module() *wasm.Module {
	return x.m
}

// NameFunc registers name for the function at idx. It reports false if idx
// is outside the function index space.
func (x *ModuleIndex) NameFunc(name string, idx uint32) bool {
	if int(idx) >= x.m.NumFuncs() {
		return false
	}
	x.funcNames[name] = idx
	if _, ok := x.display[idx]; !ok {
		x.display[idx] = name
	}
	return true
}

// NameFuncType registers name for the function type at idx. It reports
// false if idx is outside the type index space.
func (x *ModuleIndex) NameFuncType(name string, idx uint32) bool {
	if int(idx) >= len(x.m.Types) {
		return false
	}
	x.typeNames[name] = idx
	return true
}

// FuncByName resolves a registered or name-section function name, then an
// export name, then an import written as "module.name".
func (x *ModuleIndex) FuncByName(name string) (ast.FuncRef, bool) {
	if idx, ok := x.funcNames[name]; ok {
		return x.FuncByIndex(idx)
	}
	if idx, ok := x.m.ExportedFunc(name); ok {
		return x.FuncByIndex(idx)
	}
	for i := range len(name) {
		if name[i] != '.' {
			continue
		}
		if idx, ok := x.m.ImportedFunc(name[:i], name[i+1:]); ok {
			return x.FuncByIndex(idx)
		}
	}
	return 0, false
}

// FuncByIndex returns the handle of the function at idx.
func (x *ModuleIndex) FuncByIndex(idx uint32) (ast.FuncRef, bool) {
	if int(idx) >= x.m.NumFuncs() {
		return 0, false
	}
	return ast.FuncRef(idx + 1), true
}

// FuncTypeByName resolves a registered or name-section type name.
func (x *ModuleIndex) FuncTypeByName(name string) (ast.FuncTypeRef, bool) {
	idx, ok := x.typeNames[name]
	if !ok {
		return 0, false
	}
	return x.FuncTypeByIndex(idx)
}

// FuncTypeByIndex returns the handle of the function type at idx.
func (x *ModuleIndex) FuncTypeByIndex(idx uint32) (ast.FuncTypeRef, bool) {
	if int(idx) >= len(x.m.Types) {
		return 0, false
	}
	return ast.FuncTypeRef(idx + 1), true
}

// FuncIndex maps a function handle back to its index.
func (x *ModuleIndex) FuncIndex(ref ast.FuncRef) (uint32, bool) {
	if ref == 0 || int(ref) > x.m.NumFuncs() {
		return 0, false
	}
	return uint32(ref) - 1, true
}

// FuncTypeIndex maps a function-type handle back to its index.
func (x *ModuleIndex) FuncTypeIndex(ref ast.FuncTypeRef) (uint32, bool) {
	if ref == 0 || int(ref) > len(x.m.Types) {
		return 0, false
	}
	return uint32(ref) - 1, true
}

// FuncType returns the signature behind ref. Signatures using a value type
// outside ast.ValTypes, such as funcref, are reported as not found.
func (x *ModuleIndex) FuncType(ref ast.FuncTypeRef) (params, results []ast.ValType, ok bool) {
	idx, ok := x.FuncTypeIndex(ref)
	if !ok {
		return nil, nil, false
	}
	ft, _ := x.m.FuncType(idx)
	if params, ok = convertValTypes(ft.Params); !ok {
		return nil, nil, false
	}
	if results, ok = convertValTypes(ft.Results); !ok {
		return nil, nil, false
	}
	return params, results, true
}

// FuncTypeOf returns the handle of the type of the function behind ref.
func (x *ModuleIndex) FuncTypeOf(ref ast.FuncRef) (ast.FuncTypeRef, bool) {
	idx, ok := x.FuncIndex(ref)
	if !ok {
		return 0, false
	}
	typeIdx, ok := x.m.FuncTypeIndex(idx)
	if !ok {
		return 0, false
	}
	return x.FuncTypeByIndex(typeIdx)
}

// FuncName returns a display name for the function behind ref.
func (x *ModuleIndex) FuncName(ref ast.FuncRef) string {
	idx, ok := x.FuncIndex(ref)
	if !ok {
		return ""
	}
	if name, ok := x.display[idx]; ok {
		return name
	}
	return x.m.FuncName(idx)
}

func convertValTypes(in []wasm.ValType) ([]ast.ValType, bool) {
	out := make([]ast.ValType, len(in))
	for i, v := range in {
		vt, ok := ast.ValTypeFromByte(byte(v))
		if !ok {
			return nil, false
		}
		out[i] = vt
	}
	return out, true
}

// readNames collects function and type names from a name section. Reading
// stops at the first malformed subsection; names read so far are kept.
func (x *ModuleIndex) readNames(data []byte) {
	r := wire.NewReader(data)
	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return
		}
		size, err := r.ReadU32()
		if err != nil {
			return
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return
		}
		switch id {
		case nameSubsectionFuncs:
			readNameMap(payload, func(idx uint32, name string) { x.NameFunc(name, idx) })
		case nameSubsectionTypes:
			readNameMap(payload, func(idx uint32, name string) { x.NameFuncType(name, idx) })
		}
	}
}

func readNameMap(data []byte, add func(idx uint32, name string)) {
	r := wire.NewReader(data)
	count, err := r.ReadCount()
	if err != nil {
		return
	}
	for range count {
		idx, err := r.ReadU32()
		if err != nil {
			return
		}
		name, err := r.ReadString()
		if err != nil {
			return
		}
		add(idx, name)
	}
}

// FromModule decodes the bindings section of m. It reports false, with a nil
// error, when m has no such section.
func FromModule(m *wasm.Module, opts ...binary.Option) (*ast.Section, bool, error) {
	data, ok := m.CustomSection(SectionName)
	if !ok {
		return nil, false, nil
	}
	s, err := binary.Decode(NewModuleIndex(m), data, opts...)
	if err != nil {
		return nil, true, err
	}
	return s, true, nil
}

// AddToModule encodes s against m and stores it as the bindings section,
// replacing any existing one. Handles in s must have been issued by a
// ModuleIndex over m; an unresolvable handle panics.
func AddToModule(m *wasm.Module, s *ast.Section) {
	m.SetCustomSection(SectionName, binary.EncodeBytes(s, NewModuleIndex(m)))
}

// RemoveFromModule drops the bindings section and reports whether m had one.
func RemoveFromModule(m *wasm.Module) bool {
	return m.RemoveCustomSection(SectionName)
}
