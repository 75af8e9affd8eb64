package binary

import (
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/internal/wire"
)

// Indices reports the host module index of each host handle a section holds.
type Indices interface {
	FuncIndex(f ast.FuncRef) (uint32, bool)
	FuncTypeIndex(t ast.FuncTypeRef) (uint32, bool)
}

// indexer hands out wire indices during encoding. Section-local handles are
// assigned as each entity is written, so looking up one that is not yet
// assigned means a forward or self reference and panics.
type indexer interface {
	assignType(id ast.TypeID)
	typeIndex(id ast.TypeID) uint32
	assignBinding(id ast.BindingID)
	bindingIndex(id ast.BindingID) uint32
	funcIndex(f ast.FuncRef) uint32
	funcTypeIndex(t ast.FuncTypeRef) uint32
}

// encodeContext assigns section-local indices densely in assignment order
// and defers host handles to Indices.
type encodeContext struct {
	host     Indices
	types    map[ast.TypeID]uint32
	bindings map[ast.BindingID]uint32
}

func newEncodeContext(host Indices) *encodeContext {
	return &encodeContext{
		host:     host,
		types:    make(map[ast.TypeID]uint32),
		bindings: make(map[ast.BindingID]uint32),
	}
}

func (c *encodeContext) assignType(id ast.TypeID) {
	if _, ok := c.types[id]; !ok {
		c.types[id] = uint32(len(c.types))
	}
}

func (c *encodeContext) typeIndex(id ast.TypeID) uint32 {
	idx, ok := c.types[id]
	if !ok {
		panic(fmt.Sprintf("webidl-bindings: compound type %d is not declared before its use", id))
	}
	return idx
}

func (c *encodeContext) assignBinding(id ast.BindingID) {
	if _, ok := c.bindings[id]; !ok {
		c.bindings[id] = uint32(len(c.bindings))
	}
}

func (c *encodeContext) bindingIndex(id ast.BindingID) uint32 {
	idx, ok := c.bindings[id]
	if !ok {
		panic(fmt.Sprintf("webidl-bindings: function binding %d is not declared before its use", id))
	}
	return idx
}

func (c *encodeContext) funcIndex(f ast.FuncRef) uint32 {
	if c.host != nil {
		if idx, ok := c.host.FuncIndex(f); ok {
			return idx
		}
	}
	panic(fmt.Sprintf("webidl-bindings: function handle %d is unknown to the host module", f))
}

func (c *encodeContext) funcTypeIndex(t ast.FuncTypeRef) uint32 {
	if c.host != nil {
		if idx, ok := c.host.FuncTypeIndex(t); ok {
			return idx
		}
	}
	panic(fmt.Sprintf("webidl-bindings: function type handle %d is unknown to the host module", t))
}

// Encode writes the section payload to w. Every reference held by s must
// resolve, either through host or into s itself at an earlier position than
// the entity holding it, and every string must be valid UTF-8. Anything else
// is a programming error and panics, since the decoder would reject the
// output. The only errors returned come from w.
func Encode(w io.Writer, s *ast.Section, host Indices) error {
	_, err := w.Write(EncodeBytes(s, host))
	return err
}

// EncodeBytes returns the section payload. It panics under the same
// conditions as Encode.
func EncodeBytes(s *ast.Section, host Indices) []byte {
	cx := newEncodeContext(host)
	e := &encoder{w: wire.NewWriter(), cx: cx}
	e.section(s)

	Logger().Debug("encoded webidl-bindings section",
		zap.Int("types", len(cx.types)),
		zap.Int("bindings", len(cx.bindings)),
		zap.Int("binds", s.Binds.Len()),
		zap.Int("bytes", e.w.Len()))
	return e.w.Bytes()
}

type encoder struct {
	w  *wire.Writer
	cx indexer
}

func (e *encoder) section(s *ast.Section) {
	e.w.Byte(typesSubsection)
	e.w.WriteCount(s.Types.Len())
	for id, t := range s.Types.All() {
		e.compoundType(t)
		e.cx.assignType(id)
	}

	e.w.Byte(bindingsSubsection)
	e.w.WriteCount(s.Bindings.Len())
	for id, b := range s.Bindings.All() {
		e.functionBinding(b)
		e.cx.assignBinding(id)
	}

	e.w.WriteCount(s.Binds.Len())
	for _, b := range s.Binds.All() {
		e.bind(b)
	}
}

func (e *encoder) typeRef(r ast.TypeRef) {
	switch {
	case r.IsScalar():
		e.w.WriteS32(r.Scalar.Code())
	case r.IsCompound():
		idx := e.cx.typeIndex(r.ID)
		if idx > math.MaxInt32 {
			panic(fmt.Sprintf("webidl-bindings: compound type index %d does not fit a type reference", idx))
		}
		e.w.WriteS32(int32(idx))
	default:
		panic(fmt.Sprintf("webidl-bindings: unresolved type reference %+v", r))
	}
}

func (e *encoder) str(s string) {
	if !utf8.ValidString(s) {
		panic(fmt.Sprintf("webidl-bindings: string %q is not valid UTF-8", s))
	}
	e.w.WriteString(s)
}

func (e *encoder) typeRefs(refs []ast.TypeRef) {
	e.w.WriteCount(len(refs))
	for _, r := range refs {
		e.typeRef(r)
	}
}

func (e *encoder) compoundType(t ast.CompoundType) {
	switch t := t.(type) {
	case *ast.Function:
		e.w.Byte(byte(ast.KindFunction))
		e.function(t)
	case *ast.Dictionary:
		e.w.Byte(byte(ast.KindDictionary))
		e.dictionary(t)
	case *ast.Enumeration:
		e.w.Byte(byte(ast.KindEnumeration))
		e.enumeration(t)
	case *ast.Union:
		e.w.Byte(byte(ast.KindUnion))
		e.union(t)
	default:
		panic(fmt.Sprintf("webidl-bindings: cannot encode compound type %T", t))
	}
}

func (e *encoder) function(f *ast.Function) {
	switch f.Call {
	case ast.CallStatic, ast.CallConstructor:
		e.w.Byte(byte(f.Call))
	case ast.CallMethod:
		e.w.Byte(byte(ast.CallMethod))
		e.typeRef(f.Receiver)
	default:
		panic(fmt.Sprintf("webidl-bindings: unknown function kind %d", f.Call))
	}
	e.typeRefs(f.Params)
	e.w.WriteOption(f.Result != nil)
	if f.Result != nil {
		e.typeRef(*f.Result)
	}
}

func (e *encoder) dictionary(d *ast.Dictionary) {
	e.w.WriteCount(len(d.Fields))
	for _, f := range d.Fields {
		e.str(f.Name)
		e.typeRef(f.Type)
	}
}

func (e *encoder) enumeration(en *ast.Enumeration) {
	e.w.WriteCount(len(en.Values))
	for _, v := range en.Values {
		e.str(v)
	}
}

func (e *encoder) union(u *ast.Union) {
	e.typeRefs(u.Members)
}

func (e *encoder) functionBinding(b ast.FunctionBinding) {
	switch b := b.(type) {
	case *ast.ImportBinding:
		e.w.Byte(byte(ast.BindingImport))
		e.w.WriteU32(e.cx.funcTypeIndex(b.WasmType))
		e.typeRef(b.WebidlType)
		e.outgoingMap(b.Params)
		e.incomingMap(b.Result)
	case *ast.ExportBinding:
		e.w.Byte(byte(ast.BindingExport))
		e.w.WriteU32(e.cx.funcTypeIndex(b.WasmType))
		e.typeRef(b.WebidlType)
		e.incomingMap(b.Params)
		e.outgoingMap(b.Result)
	default:
		panic(fmt.Sprintf("webidl-bindings: cannot encode function binding %T", b))
	}
}

func (e *encoder) bind(b ast.Bind) {
	e.w.WriteU32(e.cx.funcIndex(b.Func))
	e.w.WriteU32(e.cx.bindingIndex(b.Binding))
}

func (e *encoder) outgoingMap(m ast.OutgoingMap) {
	e.w.WriteCount(len(m))
	for _, x := range m {
		e.outgoing(x)
	}
}

func (e *encoder) incomingMap(m ast.IncomingMap) {
	e.w.WriteCount(len(m))
	for _, x := range m {
		e.incoming(x)
	}
}

func (e *encoder) outgoing(x ast.OutgoingExpr) {
	switch x := x.(type) {
	case *ast.OutgoingAs:
		e.w.Byte(byte(ast.OutAs))
		e.typeRef(x.Type)
		e.w.WriteU32(x.Idx)
	case *ast.OutgoingUtf8Str:
		e.w.Byte(byte(ast.OutUtf8Str))
		e.typeRef(x.Type)
		e.w.WriteU32(x.Offset)
		e.w.WriteU32(x.Length)
	case *ast.OutgoingUtf8CStr:
		e.w.Byte(byte(ast.OutUtf8CStr))
		e.typeRef(x.Type)
		e.w.WriteU32(x.Offset)
	case *ast.OutgoingI32ToEnum:
		e.w.Byte(byte(ast.OutI32ToEnum))
		e.typeRef(x.Type)
		e.w.WriteU32(x.Idx)
	case *ast.OutgoingView:
		e.w.Byte(byte(ast.OutView))
		e.typeRef(x.Type)
		e.w.WriteU32(x.Offset)
		e.w.WriteU32(x.Length)
	case *ast.OutgoingCopy:
		e.w.Byte(byte(ast.OutCopy))
		e.typeRef(x.Type)
		e.w.WriteU32(x.Offset)
		e.w.WriteU32(x.Length)
	case *ast.OutgoingDict:
		e.w.Byte(byte(ast.OutDict))
		e.typeRef(x.Type)
		e.outgoingMap(x.Fields)
	case *ast.OutgoingBindExport:
		e.w.Byte(byte(ast.OutBindExport))
		e.typeRef(x.Type)
		e.w.WriteU32(e.cx.bindingIndex(x.Binding))
		e.w.WriteU32(x.Idx)
	default:
		panic(fmt.Sprintf("webidl-bindings: cannot encode outgoing expression %T", x))
	}
}

func (e *encoder) incoming(x ast.IncomingExpr) {
	switch x := x.(type) {
	case *ast.IncomingGet:
		e.w.Byte(byte(ast.InGet))
		e.w.WriteU32(x.Idx)
	case *ast.IncomingAs:
		e.w.Byte(byte(ast.InAs))
		e.w.Byte(byte(x.Type))
		e.incoming(x.Expr)
	case *ast.IncomingAllocUtf8Str:
		e.w.Byte(byte(ast.InAllocUtf8Str))
		e.str(x.AllocFunc)
		e.incoming(x.Expr)
	case *ast.IncomingAllocCopy:
		e.w.Byte(byte(ast.InAllocCopy))
		e.str(x.AllocFunc)
		e.incoming(x.Expr)
	case *ast.IncomingEnumToI32:
		e.w.Byte(byte(ast.InEnumToI32))
		e.typeRef(x.Type)
		e.incoming(x.Expr)
	case *ast.IncomingField:
		e.w.Byte(byte(ast.InField))
		e.w.WriteU32(x.Idx)
		e.incoming(x.Expr)
	case *ast.IncomingBindImport:
		e.w.Byte(byte(ast.InBindImport))
		e.w.WriteU32(e.cx.funcTypeIndex(x.FuncType))
		e.w.WriteU32(e.cx.bindingIndex(x.Binding))
		e.incoming(x.Expr)
	default:
		panic(fmt.Sprintf("webidl-bindings: cannot encode incoming expression %T", x))
	}
}
