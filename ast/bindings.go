package ast

import (
	"iter"

	"github.com/wippyai/webidl-bindings/errors"
)

// BindingKind is the wire discriminant of a function binding.
type BindingKind byte

const (
	BindingImport BindingKind = 0
	BindingExport BindingKind = 1
)

func (k BindingKind) String() string {
	switch k {
	case BindingImport:
		return "import"
	case BindingExport:
		return "export"
	default:
		return "unknown"
	}
}

// FunctionBinding is implemented by *ImportBinding and *ExportBinding.
type FunctionBinding interface {
	Kind() BindingKind
	WasmFuncType() FuncTypeRef
	WebidlFuncType() TypeRef
	binding()
}

// ImportBinding describes calling an imported Web IDL function from Wasm.
// Params leave Wasm; the result enters Wasm.
type ImportBinding struct {
	Params     OutgoingMap
	Result     IncomingMap
	WebidlType TypeRef
	WasmType   FuncTypeRef
}

// ExportBinding describes calling an exported Wasm function from Web IDL.
// Params enter Wasm; the result leaves Wasm.
type ExportBinding struct {
	Params     IncomingMap
	Result     OutgoingMap
	WebidlType TypeRef
	WasmType   FuncTypeRef
}

func (*ImportBinding) Kind() BindingKind { return BindingImport }
func (*ExportBinding) Kind() BindingKind { return BindingExport }

func (b *ImportBinding) WasmFuncType() FuncTypeRef { return b.WasmType }
func (b *ExportBinding) WasmFuncType() FuncTypeRef { return b.WasmType }

func (b *ImportBinding) WebidlFuncType() TypeRef { return b.WebidlType }
func (b *ExportBinding) WebidlFuncType() TypeRef { return b.WebidlType }

func (*ImportBinding) binding() {}
func (*ExportBinding) binding() {}

// OutgoingMap is an ordered list of outgoing expressions, one per value.
type OutgoingMap []OutgoingExpr

// IncomingMap is an ordered list of incoming expressions, one per value.
type IncomingMap []IncomingExpr

// Bind associates a host function with a function binding.
type Bind struct {
	Func    FuncRef
	Binding BindingID
}

// Bindings is the function binding arena.
type Bindings struct {
	a arena[BindingID, FunctionBinding]
}

// Insert appends an unnamed binding.
func (bs *Bindings) Insert(b FunctionBinding) BindingID {
	id, _ := bs.a.insert("", b)
	return id
}

// InsertNamed appends a binding and registers its name.
func (bs *Bindings) InsertNamed(name string, b FunctionBinding) (BindingID, error) {
	id, ok := bs.a.insert(name, b)
	if !ok {
		return 0, errors.DuplicateName(errors.PhaseResolve, "binding", name)
	}
	return id, nil
}

func (bs *Bindings) InsertImport(b *ImportBinding) ImportBindingID {
	return ImportBindingID(bs.Insert(b))
}

func (bs *Bindings) InsertExport(b *ExportBinding) ExportBindingID {
	return ExportBindingID(bs.Insert(b))
}

// Get returns the binding for id, or nil if id is not in this arena.
func (bs *Bindings) Get(id BindingID) FunctionBinding {
	b, _ := bs.a.get(id)
	return b
}

// Import returns the import binding for id, or nil on absence or mismatch.
func (bs *Bindings) Import(id ImportBindingID) *ImportBinding {
	b, _ := bs.Get(BindingID(id)).(*ImportBinding)
	return b
}

// Export returns the export binding for id, or nil on absence or mismatch.
func (bs *Bindings) Export(id ExportBindingID) *ExportBinding {
	b, _ := bs.Get(BindingID(id)).(*ExportBinding)
	return b
}

func (bs *Bindings) ByName(name string) (BindingID, bool) {
	return bs.a.byName(name)
}

func (bs *Bindings) ByIndex(idx uint32) (BindingID, bool) {
	return bs.a.byIndex(idx)
}

func (bs *Bindings) Name(id BindingID) string {
	return bs.a.name(id)
}

func (bs *Bindings) Contains(id BindingID) bool {
	_, ok := bs.a.get(id)
	return ok
}

func (bs *Bindings) Len() int {
	return len(bs.a.items)
}

func (bs *Bindings) All() iter.Seq2[BindingID, FunctionBinding] {
	return bs.a.all()
}

// Binds is the bind arena. Binds are never named.
type Binds struct {
	a arena[BindID, Bind]
}

func (bs *Binds) Insert(b Bind) BindID {
	id, _ := bs.a.insert("", b)
	return id
}

// Get returns the bind for id.
func (bs *Binds) Get(id BindID) (Bind, bool) {
	return bs.a.get(id)
}

func (bs *Binds) ByIndex(idx uint32) (BindID, bool) {
	return bs.a.byIndex(idx)
}

func (bs *Binds) Len() int {
	return len(bs.a.items)
}

func (bs *Binds) All() iter.Seq2[BindID, Bind] {
	return bs.a.all()
}

// Section is the top-level container of a webidl-bindings section.
// The zero value is an empty section ready for use.
type Section struct {
	Types    Types
	Bindings Bindings
	Binds    Binds
}

// New returns an empty section.
func New() *Section {
	return &Section{}
}

// Empty reports whether the section holds no entities.
func (s *Section) Empty() bool {
	return s.Types.Len() == 0 && s.Bindings.Len() == 0 && s.Binds.Len() == 0
}
