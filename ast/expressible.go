package ast

import (
	"fmt"

	"github.com/wippyai/webidl-bindings/errors"
)

// FuncTypes resolves host function-type handles to their signatures.
type FuncTypes interface {
	FuncType(ref FuncTypeRef) (params, results []ValType, ok bool)
}

// IsExpressible reports whether binding id only performs conversions that
// the default Wasm to JS to Web IDL value coercions already perform, so the
// binding needs no runtime support.
func (s *Section) IsExpressible(id BindingID, host FuncTypes) bool {
	return s.Diagnose(id, host) == nil
}

// Diagnose is IsExpressible with a reason: it returns nil when the binding
// is expressible and an analyze-phase error naming the first failing
// position otherwise. A nil host resolves no function types.
func (s *Section) Diagnose(id BindingID, host FuncTypes) error {
	b := s.Bindings.Get(id)
	if b == nil {
		return errors.New(errors.PhaseAnalyze, errors.KindInvalidReference).
			Detail("binding %d is not in this section", id).
			Build()
	}
	return diagnose(&s.Types, b, host)
}

// IsExpressible reports whether the import binding is expressible without
// Web IDL bindings. See Section.IsExpressible.
func (b *ImportBinding) IsExpressible(types *Types, host FuncTypes) bool {
	return diagnose(types, b, host) == nil
}

// IsExpressible reports whether the export binding is expressible without
// Web IDL bindings. See Section.IsExpressible.
func (b *ExportBinding) IsExpressible(types *Types, host FuncTypes) bool {
	return diagnose(types, b, host) == nil
}

func diagnose(types *Types, b FunctionBinding, host FuncTypes) error {
	var (
		params, results []ValType
		ok              bool
	)
	if host != nil {
		params, results, ok = host.FuncType(b.WasmFuncType())
	}
	if !ok {
		return errors.New(errors.PhaseAnalyze, errors.KindNotFound).
			Path("wasm_ty").
			Detail("host function type %d not found", b.WasmFuncType()).
			Build()
	}

	fn := staticFunction(types, b.WebidlFuncType())
	if fn == nil {
		return errors.New(errors.PhaseAnalyze, errors.KindInvalidShape).
			Path("webidl_ty").
			Detail("not a static Web IDL function type").
			Build()
	}

	switch b := b.(type) {
	case *ImportBinding:
		if err := outgoingReason(b.Params, params, fn.Params); err != nil {
			return err.withPrefix("params")
		}
		if err := incomingReason(b.Result, fn.Results(), results); err != nil {
			return err.withPrefix("result")
		}
	case *ExportBinding:
		if err := incomingReason(b.Params, fn.Params, params); err != nil {
			return err.withPrefix("params")
		}
		if err := outgoingReason(b.Result, results, fn.Results()); err != nil {
			return err.withPrefix("result")
		}
	}
	return nil
}

func staticFunction(types *Types, ref TypeRef) *Function {
	if !ref.IsCompound() {
		return nil
	}
	f, ok := types.Get(ref.ID).(*Function)
	if !ok || f.Call != CallStatic {
		return nil
	}
	return f
}

// IsExpressible reports whether every outgoing expression is a trivial
// in-order (as) of a coercible Wasm value.
func (m OutgoingMap) IsExpressible(from []ValType, to []TypeRef) bool {
	return outgoingReason(m, from, to) == nil
}

// IsExpressible reports whether every incoming expression is a trivial
// in-order (as (get i)) of a coercible Web IDL value.
func (m IncomingMap) IsExpressible(from []TypeRef, to []ValType) bool {
	return incomingReason(m, from, to) == nil
}

// OutgoingExpressible reports whether e, at position idx, is expressible
// when converting a from value to a to value.
func OutgoingExpressible(e OutgoingExpr, from ValType, to TypeRef, idx uint32) bool {
	return outgoingExprReason(e, from, to, idx) == ""
}

// IncomingExpressible reports whether e, at position idx, is expressible
// when converting a from value to a to value.
func IncomingExpressible(e IncomingExpr, from TypeRef, to ValType, idx uint32) bool {
	return incomingExprReason(e, from, to, idx) == ""
}

type mapError struct {
	detail string
	pos    int
}

func (e *mapError) withPrefix(field string) error {
	path := []string{field}
	if e.pos >= 0 {
		path = append(path, fmt.Sprintf("[%d]", e.pos))
	}
	return errors.New(errors.PhaseAnalyze, errors.KindInvalidShape).
		Path(path...).
		Detail("%s", e.detail).
		Build()
}

func arityReason(n, from, to int) *mapError {
	if n != from || n != to {
		return &mapError{
			pos:    -1,
			detail: fmt.Sprintf("arity mismatch: %d expressions, %d source types, %d destination types", n, from, to),
		}
	}
	return nil
}

func outgoingReason(m OutgoingMap, from []ValType, to []TypeRef) *mapError {
	if err := arityReason(len(m), len(from), len(to)); err != nil {
		return err
	}
	for i, e := range m {
		if r := outgoingExprReason(e, from[i], to[i], uint32(i)); r != "" {
			return &mapError{pos: i, detail: r}
		}
	}
	return nil
}

func incomingReason(m IncomingMap, from []TypeRef, to []ValType) *mapError {
	if err := arityReason(len(m), len(from), len(to)); err != nil {
		return err
	}
	for i, e := range m {
		if r := incomingExprReason(e, from[i], to[i], uint32(i)); r != "" {
			return &mapError{pos: i, detail: r}
		}
	}
	return nil
}

func outgoingExprReason(e OutgoingExpr, from ValType, to TypeRef, idx uint32) string {
	as, ok := e.(*OutgoingAs)
	if !ok {
		return fmt.Sprintf("%s requires explicit binding support", opName(e))
	}
	if as.Idx != idx {
		return fmt.Sprintf("uses value %d at position %d", as.Idx, idx)
	}
	if as.Type != to {
		return fmt.Sprintf("converts to %s but the Web IDL type is %s", as.Type, to)
	}
	if !to.IsScalar() {
		return fmt.Sprintf("%s is not a scalar type", to)
	}
	if !outgoingCoercible(from, to.Scalar) {
		return fmt.Sprintf("%s does not coerce to %s", from, to.Scalar)
	}
	return ""
}

func incomingExprReason(e IncomingExpr, from TypeRef, to ValType, idx uint32) string {
	as, ok := e.(*IncomingAs)
	if !ok {
		return fmt.Sprintf("%s requires explicit binding support", opName(e))
	}
	if as.Type != to {
		return fmt.Sprintf("converts to %s but the Wasm type is %s", as.Type, to)
	}
	get, ok := as.Expr.(*IncomingGet)
	if !ok {
		return fmt.Sprintf("as wraps %s instead of get", opName(as.Expr))
	}
	if get.Idx != idx {
		return fmt.Sprintf("gets value %d at position %d", get.Idx, idx)
	}
	if !from.IsScalar() {
		return fmt.Sprintf("%s is not a scalar type", from)
	}
	if !incomingCoercible(from.Scalar, to) {
		return fmt.Sprintf("%s does not coerce to %s", from.Scalar, to)
	}
	return ""
}

func opName(e interface{ String() string }) string {
	switch e := e.(type) {
	case OutgoingExpr:
		return e.Op().String()
	case IncomingExpr:
		return e.Op().String()
	default:
		return "nothing"
	}
}

// outgoingCoercible is the Wasm to Web IDL default coercion table.
func outgoingCoercible(from ValType, to Scalar) bool {
	if to == Any {
		return true
	}
	switch from {
	case I32:
		switch to {
		case Byte, Octet, Short, UnsignedShort, Long, LongLong,
			Float, UnrestrictedFloat, Double, UnrestrictedDouble:
			return true
		}
	case F32:
		switch to {
		case Float, UnrestrictedFloat, Double, UnrestrictedDouble:
			return true
		}
	case F64:
		switch to {
		case Double, UnrestrictedDouble:
			return true
		}
	}
	return false
}

// incomingCoercible is the Web IDL to Wasm default coercion table.
func incomingCoercible(from Scalar, to ValType) bool {
	switch to {
	case AnyRef:
		return from == Any
	case I32:
		switch from {
		case Boolean, Byte, Octet, Short, UnsignedShort, Long, UnsignedLong:
			return true
		}
	case F32:
		switch from {
		case Byte, Octet, Short, UnsignedShort, Float, UnrestrictedFloat:
			return true
		}
	case F64:
		switch from {
		case Byte, Octet, Short, UnsignedShort, Long, UnsignedLong,
			Float, UnrestrictedFloat, Double, UnrestrictedDouble:
			return true
		}
	}
	return false
}
