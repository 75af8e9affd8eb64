package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// OutgoingOp is the wire discriminant of an outgoing expression.
type OutgoingOp byte

const (
	OutAs         OutgoingOp = 0
	OutUtf8Str    OutgoingOp = 1
	OutUtf8CStr   OutgoingOp = 2
	OutI32ToEnum  OutgoingOp = 3
	OutView       OutgoingOp = 4
	OutCopy       OutgoingOp = 5
	OutDict       OutgoingOp = 6
	OutBindExport OutgoingOp = 7
)

var outgoingOpNames = [...]string{
	OutAs:         "as",
	OutUtf8Str:    "utf8-str",
	OutUtf8CStr:   "utf8-cstr",
	OutI32ToEnum:  "i32-to-enum",
	OutView:       "view",
	OutCopy:       "copy",
	OutDict:       "dict",
	OutBindExport: "bind-export",
}

func (op OutgoingOp) String() string {
	if int(op) < len(outgoingOpNames) {
		return outgoingOpNames[op]
	}
	return fmt.Sprintf("outgoing(%d)", byte(op))
}

// IncomingOp is the wire discriminant of an incoming expression.
type IncomingOp byte

const (
	InGet          IncomingOp = 0
	InAs           IncomingOp = 1
	InAllocUtf8Str IncomingOp = 2
	InAllocCopy    IncomingOp = 3
	InEnumToI32    IncomingOp = 4
	InField        IncomingOp = 5
	InBindImport   IncomingOp = 6
)

var incomingOpNames = [...]string{
	InGet:          "get",
	InAs:           "as",
	InAllocUtf8Str: "alloc-utf8-str",
	InAllocCopy:    "alloc-copy",
	InEnumToI32:    "enum-to-i32",
	InField:        "field",
	InBindImport:   "bind-import",
}

func (op IncomingOp) String() string {
	if int(op) < len(incomingOpNames) {
		return incomingOpNames[op]
	}
	return fmt.Sprintf("incoming(%d)", byte(op))
}

// OutgoingExpr converts Wasm values into a Web IDL value.
type OutgoingExpr interface {
	Op() OutgoingOp
	String() string
	outgoing()
}

// IncomingExpr converts Web IDL values into a Wasm value.
type IncomingExpr interface {
	Op() IncomingOp
	String() string
	incoming()
}

// OutgoingAs reinterprets Wasm value Idx as Type.
type OutgoingAs struct {
	Type TypeRef
	Idx  uint32
}

// OutgoingUtf8Str reads a UTF-8 string from memory given an offset and a length.
type OutgoingUtf8Str struct {
	Type   TypeRef
	Offset uint32
	Length uint32
}

// OutgoingUtf8CStr reads a NUL-terminated UTF-8 string from memory.
type OutgoingUtf8CStr struct {
	Type   TypeRef
	Offset uint32
}

// OutgoingI32ToEnum maps an i32 to the enumeration value at that position.
type OutgoingI32ToEnum struct {
	Type TypeRef
	Idx  uint32
}

// OutgoingView creates a view over memory.
type OutgoingView struct {
	Type   TypeRef
	Offset uint32
	Length uint32
}

// OutgoingCopy copies a memory region.
type OutgoingCopy struct {
	Type   TypeRef
	Offset uint32
	Length uint32
}

// OutgoingDict builds a dictionary from one expression per field.
type OutgoingDict struct {
	Type   TypeRef
	Fields []OutgoingExpr
}

// OutgoingBindExport wraps table element Idx as a callback through Binding.
type OutgoingBindExport struct {
	Type    TypeRef
	Binding BindingID
	Idx     uint32
}

func (*OutgoingAs) Op() OutgoingOp         { return OutAs }
func (*OutgoingUtf8Str) Op() OutgoingOp    { return OutUtf8Str }
func (*OutgoingUtf8CStr) Op() OutgoingOp   { return OutUtf8CStr }
func (*OutgoingI32ToEnum) Op() OutgoingOp  { return OutI32ToEnum }
func (*OutgoingView) Op() OutgoingOp       { return OutView }
func (*OutgoingCopy) Op() OutgoingOp       { return OutCopy }
func (*OutgoingDict) Op() OutgoingOp       { return OutDict }
func (*OutgoingBindExport) Op() OutgoingOp { return OutBindExport }

func (*OutgoingAs) outgoing()         {}
func (*OutgoingUtf8Str) outgoing()    {}
func (*OutgoingUtf8CStr) outgoing()   {}
func (*OutgoingI32ToEnum) outgoing()  {}
func (*OutgoingView) outgoing()       {}
func (*OutgoingCopy) outgoing()       {}
func (*OutgoingDict) outgoing()       {}
func (*OutgoingBindExport) outgoing() {}

// IncomingGet fetches Web IDL value Idx.
type IncomingGet struct {
	Idx uint32
}

// IncomingAs converts the inner value to a Wasm value type.
type IncomingAs struct {
	Expr IncomingExpr
	Type ValType
}

// IncomingAllocUtf8Str allocates with AllocFunc and writes the inner string as UTF-8.
type IncomingAllocUtf8Str struct {
	Expr      IncomingExpr
	AllocFunc string
}

// IncomingAllocCopy allocates with AllocFunc and copies the inner buffer.
type IncomingAllocCopy struct {
	Expr      IncomingExpr
	AllocFunc string
}

// IncomingEnumToI32 maps an enumeration value to its position.
type IncomingEnumToI32 struct {
	Expr IncomingExpr
	Type TypeRef
}

// IncomingField reads dictionary field Idx of the inner value.
type IncomingField struct {
	Expr IncomingExpr
	Idx  uint32
}

// IncomingBindImport turns the inner callable into a Wasm function of FuncType through Binding.
type IncomingBindImport struct {
	Expr     IncomingExpr
	FuncType FuncTypeRef
	Binding  BindingID
}

func (*IncomingGet) Op() IncomingOp          { return InGet }
func (*IncomingAs) Op() IncomingOp           { return InAs }
func (*IncomingAllocUtf8Str) Op() IncomingOp { return InAllocUtf8Str }
func (*IncomingAllocCopy) Op() IncomingOp    { return InAllocCopy }
func (*IncomingEnumToI32) Op() IncomingOp    { return InEnumToI32 }
func (*IncomingField) Op() IncomingOp        { return InField }
func (*IncomingBindImport) Op() IncomingOp   { return InBindImport }

func (*IncomingGet) incoming()          {}
func (*IncomingAs) incoming()           {}
func (*IncomingAllocUtf8Str) incoming() {}
func (*IncomingAllocCopy) incoming()    {}
func (*IncomingEnumToI32) incoming()    {}
func (*IncomingField) incoming()        {}
func (*IncomingBindImport) incoming()   {}

// S-expression rendering, matching the text format keywords. Compound type
// and binding references print as arena indices.

func sexpr(op string, args ...string) string {
	return "(" + op + " " + strings.Join(args, " ") + ")"
}

func u32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func bindingIndex(id BindingID) string {
	if !id.Valid() {
		return "<invalid>"
	}
	return u32(uint32(id) - 1)
}

func exprString(e interface{ String() string }) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

func (e *OutgoingAs) String() string {
	return sexpr("as", e.Type.String(), u32(e.Idx))
}

func (e *OutgoingUtf8Str) String() string {
	return sexpr("utf8-str", e.Type.String(), u32(e.Offset), u32(e.Length))
}

func (e *OutgoingUtf8CStr) String() string {
	return sexpr("utf8-cstr", e.Type.String(), u32(e.Offset))
}

func (e *OutgoingI32ToEnum) String() string {
	return sexpr("i32-to-enum", e.Type.String(), u32(e.Idx))
}

func (e *OutgoingView) String() string {
	return sexpr("view", e.Type.String(), u32(e.Offset), u32(e.Length))
}

func (e *OutgoingCopy) String() string {
	return sexpr("copy", e.Type.String(), u32(e.Offset), u32(e.Length))
}

func (e *OutgoingDict) String() string {
	args := []string{e.Type.String()}
	for _, f := range e.Fields {
		args = append(args, exprString(f))
	}
	return sexpr("dict", args...)
}

func (e *OutgoingBindExport) String() string {
	return sexpr("bind-export", e.Type.String(), bindingIndex(e.Binding), u32(e.Idx))
}

func (e *IncomingGet) String() string {
	return sexpr("get", u32(e.Idx))
}

func (e *IncomingAs) String() string {
	return sexpr("as", e.Type.String(), exprString(e.Expr))
}

func (e *IncomingAllocUtf8Str) String() string {
	return sexpr("alloc-utf8-str", e.AllocFunc, exprString(e.Expr))
}

func (e *IncomingAllocCopy) String() string {
	return sexpr("alloc-copy", e.AllocFunc, exprString(e.Expr))
}

func (e *IncomingEnumToI32) String() string {
	return sexpr("enum-to-i32", e.Type.String(), exprString(e.Expr))
}

func (e *IncomingField) String() string {
	return sexpr("field", u32(e.Idx), exprString(e.Expr))
}

func (e *IncomingBindImport) String() string {
	return sexpr("bind-import", u32(uint32(e.FuncType)), bindingIndex(e.Binding), exprString(e.Expr))
}
