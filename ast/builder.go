package ast

import (
	"fmt"

	"github.com/wippyai/webidl-bindings/errors"
)

// HostResolver resolves host module functions and function types by name or
// index for the construction API.
type HostResolver interface {
	FuncByName(name string) (FuncRef, bool)
	FuncByIndex(idx uint32) (FuncRef, bool)
	FuncTypeByName(name string) (FuncTypeRef, bool)
	FuncTypeByIndex(idx uint32) (FuncTypeRef, bool)
}

// Builder constructs a Section incrementally, in the order a front end
// encounters declarations. Every reference is resolved when it is made, so
// a name can only refer to an entity declared before it.
type Builder struct {
	section *Section
	host    HostResolver
}

// NewBuilder returns a builder over an empty section. host may be nil, in
// which case every host lookup fails.
func NewBuilder(host HostResolver) *Builder {
	return &Builder{section: New(), host: host}
}

// Section returns the section under construction.
func (b *Builder) Section() *Section {
	return b.section
}

// TypeRef resolves a scalar keyword or the name of a declared compound type.
func (b *Builder) TypeRef(name string) (TypeRef, error) {
	if s, ok := ScalarByName(name); ok {
		return s.Ref(), nil
	}
	if id, ok := b.section.Types.ByName(name); ok {
		return CompoundRef(id), nil
	}
	return TypeRef{}, errors.NotFound(errors.PhaseResolve, "type", name)
}

// TypeRefByIndex resolves a compound type by arena position.
func (b *Builder) TypeRefByIndex(idx uint32) (TypeRef, error) {
	if id, ok := b.section.Types.ByIndex(idx); ok {
		return CompoundRef(id), nil
	}
	return TypeRef{}, errors.IndexNotFound(errors.PhaseResolve, "type", idx)
}

// ValType resolves a host value kind keyword.
func (b *Builder) ValType(name string) (ValType, error) {
	if v, ok := ValTypeByName(name); ok {
		return v, nil
	}
	return 0, errors.NotFound(errors.PhaseResolve, "value type", name)
}

func (b *Builder) BindingByName(name string) (BindingID, error) {
	if id, ok := b.section.Bindings.ByName(name); ok {
		return id, nil
	}
	return 0, errors.NotFound(errors.PhaseResolve, "binding", name)
}

func (b *Builder) BindingByIndex(idx uint32) (BindingID, error) {
	if id, ok := b.section.Bindings.ByIndex(idx); ok {
		return id, nil
	}
	return 0, errors.IndexNotFound(errors.PhaseResolve, "binding", idx)
}

func (b *Builder) FuncByName(name string) (FuncRef, error) {
	if b.host != nil {
		if f, ok := b.host.FuncByName(name); ok {
			return f, nil
		}
	}
	return 0, errors.NotFound(errors.PhaseResolve, "function", name)
}

func (b *Builder) FuncByIndex(idx uint32) (FuncRef, error) {
	if b.host != nil {
		if f, ok := b.host.FuncByIndex(idx); ok {
			return f, nil
		}
	}
	return 0, errors.IndexNotFound(errors.PhaseResolve, "function", idx)
}

func (b *Builder) FuncTypeByName(name string) (FuncTypeRef, error) {
	if b.host != nil {
		if t, ok := b.host.FuncTypeByName(name); ok {
			return t, nil
		}
	}
	return 0, errors.NotFound(errors.PhaseResolve, "function type", name)
}

func (b *Builder) FuncTypeByIndex(idx uint32) (FuncTypeRef, error) {
	if b.host != nil {
		if t, ok := b.host.FuncTypeByIndex(idx); ok {
			return t, nil
		}
	}
	return 0, errors.IndexNotFound(errors.PhaseResolve, "function type", idx)
}

// DeclareType appends a compound type. Every type it references must already
// be declared. An empty name declares an unnamed type.
func (b *Builder) DeclareType(name string, t CompoundType) (TypeID, error) {
	if t == nil {
		return 0, errors.InvalidData(errors.PhaseResolve, []string{"type"}, "nil compound type")
	}
	for _, ref := range typeRefs(t) {
		if err := b.checkTypeRef(ref); err != nil {
			return 0, err
		}
	}
	return b.section.Types.InsertNamed(name, t)
}

// DeclareImport appends an import binding. Nil maps are stored as empty maps.
func (b *Builder) DeclareImport(name string, wasmTy FuncTypeRef, webidlTy TypeRef, params OutgoingMap, result IncomingMap) (BindingID, error) {
	if params == nil {
		params = OutgoingMap{}
	}
	if result == nil {
		result = IncomingMap{}
	}
	ib := &ImportBinding{WasmType: wasmTy, WebidlType: webidlTy, Params: params, Result: result}
	if err := b.checkBinding(ib); err != nil {
		return 0, err
	}
	return b.section.Bindings.InsertNamed(name, ib)
}

// DeclareExport appends an export binding. Nil maps are stored as empty maps.
func (b *Builder) DeclareExport(name string, wasmTy FuncTypeRef, webidlTy TypeRef, params IncomingMap, result OutgoingMap) (BindingID, error) {
	if params == nil {
		params = IncomingMap{}
	}
	if result == nil {
		result = OutgoingMap{}
	}
	eb := &ExportBinding{WasmType: wasmTy, WebidlType: webidlTy, Params: params, Result: result}
	if err := b.checkBinding(eb); err != nil {
		return 0, err
	}
	return b.section.Bindings.InsertNamed(name, eb)
}

// DeclareBind associates a host function with an already declared binding.
func (b *Builder) DeclareBind(fn FuncRef, binding BindingID) (BindID, error) {
	if !b.section.Bindings.Contains(binding) {
		return 0, errors.New(errors.PhaseResolve, errors.KindInvalidReference).
			Path("bind", "binding").
			Detail("binding %d is not declared", binding).
			Build()
	}
	return b.section.Binds.Insert(Bind{Func: fn, Binding: binding}), nil
}

func (b *Builder) checkTypeRef(ref TypeRef) error {
	if !ref.Valid() {
		return errors.New(errors.PhaseResolve, errors.KindInvalidReference).
			Detail("type reference is neither scalar nor compound").
			Build()
	}
	if ref.IsCompound() && !b.section.Types.Contains(ref.ID) {
		return errors.New(errors.PhaseResolve, errors.KindInvalidReference).
			Detail("compound type %d is not declared", ref.ID).
			Build()
	}
	return nil
}

func (b *Builder) checkBinding(fb FunctionBinding) error {
	if err := b.checkTypeRef(fb.WebidlFuncType()); err != nil {
		return err
	}
	switch fb := fb.(type) {
	case *ImportBinding:
		if err := b.checkOutgoing(fb.Params, "params"); err != nil {
			return err
		}
		return b.checkIncoming(fb.Result, "result")
	case *ExportBinding:
		if err := b.checkIncoming(fb.Params, "params"); err != nil {
			return err
		}
		return b.checkOutgoing(fb.Result, "result")
	}
	return nil
}

func (b *Builder) checkOutgoing(m OutgoingMap, field string) error {
	for i, e := range m {
		if err := b.checkOutgoingExpr(e); err != nil {
			return pathed(err, field, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

func (b *Builder) checkIncoming(m IncomingMap, field string) error {
	for i, e := range m {
		if err := b.checkIncomingExpr(e); err != nil {
			return pathed(err, field, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

func (b *Builder) checkOutgoingExpr(e OutgoingExpr) error {
	switch e := e.(type) {
	case *OutgoingAs:
		return b.checkTypeRef(e.Type)
	case *OutgoingUtf8Str:
		return b.checkTypeRef(e.Type)
	case *OutgoingUtf8CStr:
		return b.checkTypeRef(e.Type)
	case *OutgoingI32ToEnum:
		return b.checkTypeRef(e.Type)
	case *OutgoingView:
		return b.checkTypeRef(e.Type)
	case *OutgoingCopy:
		return b.checkTypeRef(e.Type)
	case *OutgoingDict:
		if err := b.checkTypeRef(e.Type); err != nil {
			return err
		}
		for _, f := range e.Fields {
			if err := b.checkOutgoingExpr(f); err != nil {
				return err
			}
		}
		return nil
	case *OutgoingBindExport:
		if err := b.checkTypeRef(e.Type); err != nil {
			return err
		}
		return b.checkBindingRef(e.Binding)
	case nil:
		return errors.InvalidData(errors.PhaseResolve, nil, "nil outgoing expression")
	}
	return nil
}

func (b *Builder) checkIncomingExpr(e IncomingExpr) error {
	switch e := e.(type) {
	case *IncomingGet:
		return nil
	case *IncomingAs:
		if _, ok := ValTypeFromByte(byte(e.Type)); !ok {
			return errors.New(errors.PhaseResolve, errors.KindInvalidData).
				Detail("invalid value type 0x%02X", byte(e.Type)).
				Build()
		}
		return b.checkIncomingExpr(e.Expr)
	case *IncomingAllocUtf8Str:
		return b.checkIncomingExpr(e.Expr)
	case *IncomingAllocCopy:
		return b.checkIncomingExpr(e.Expr)
	case *IncomingEnumToI32:
		if err := b.checkTypeRef(e.Type); err != nil {
			return err
		}
		return b.checkIncomingExpr(e.Expr)
	case *IncomingField:
		return b.checkIncomingExpr(e.Expr)
	case *IncomingBindImport:
		if err := b.checkBindingRef(e.Binding); err != nil {
			return err
		}
		return b.checkIncomingExpr(e.Expr)
	case nil:
		return errors.InvalidData(errors.PhaseResolve, nil, "nil incoming expression")
	}
	return nil
}

func (b *Builder) checkBindingRef(id BindingID) error {
	if !b.section.Bindings.Contains(id) {
		return errors.New(errors.PhaseResolve, errors.KindInvalidReference).
			Detail("binding %d is not declared", id).
			Build()
	}
	return nil
}

func pathed(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append(path, e.Path...)
	}
	return err
}
