package binary

import (
	stderrors "errors"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/errors"
	"github.com/wippyai/webidl-bindings/internal/wire"
)

// Subsection discriminants.
const (
	typesSubsection    byte = 0x00
	bindingsSubsection byte = 0x01
)

var errTrailing = stderrors.New("trailing bytes")

// IDs resolves host module indices found in the section to host handles.
type IDs interface {
	FuncByIndex(idx uint32) (ast.FuncRef, bool)
	FuncTypeByIndex(idx uint32) (ast.FuncTypeRef, bool)
}

// Decode parses a webidl-bindings section payload into a fresh Section.
// Compound types and bindings are inserted as they are read, so every
// reference into the section's own arenas must point backwards.
func Decode(ids IDs, data []byte, opts ...Option) (*ast.Section, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := &decoder{
		r:       wire.NewReader(data),
		ids:     ids,
		section: ast.New(),
		opts:    o,
	}
	if err := d.decodeSection(); err != nil {
		return nil, err
	}

	Logger().Debug("decoded webidl-bindings section",
		zap.Int("bytes", len(data)),
		zap.Int("types", d.section.Types.Len()),
		zap.Int("bindings", d.section.Bindings.Len()),
		zap.Int("binds", d.section.Binds.Len()))
	return d.section, nil
}

// DecodeFrom reads r to the end and decodes the result.
func DecodeFrom(ids IDs, r io.Reader, opts ...Option) (*ast.Section, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "read section")
	}
	return Decode(ids, data, opts...)
}

type decoder struct {
	r       *wire.Reader
	ids     IDs
	section *ast.Section
	sub     string
	path    []string
	opts    options
	depth   int
}

func (d *decoder) decodeSection() error {
	d.sub = "types"
	if err := d.expectByte(typesSubsection); err != nil {
		return err
	}
	n, err := d.count()
	if err != nil {
		return err
	}
	for i := range n {
		mark := d.enter("types", index(i))
		t, err := d.compoundType()
		if err != nil {
			return err
		}
		d.section.Types.Insert(t)
		d.leave(mark)
	}

	d.sub = "bindings"
	if err := d.expectByte(bindingsSubsection); err != nil {
		return err
	}
	n, err = d.count()
	if err != nil {
		return err
	}
	for i := range n {
		mark := d.enter("bindings", index(i))
		b, err := d.functionBinding()
		if err != nil {
			return err
		}
		d.section.Bindings.Insert(b)
		d.leave(mark)
	}

	d.sub = "binds"
	n, err = d.count()
	if err != nil {
		return err
	}
	for i := range n {
		mark := d.enter("binds", index(i))
		b, err := d.bind()
		if err != nil {
			return err
		}
		d.section.Binds.Insert(b)
		d.leave(mark)
	}

	if rest := d.r.Len(); rest > 0 && !d.opts.allowTrailing {
		return errors.New(errors.PhaseDecode, errors.KindTrailingData).
			Value(rest).
			Detail("%d unexpected bytes after the bind sequence", rest).
			Cause(d.r.WrapError(d.sub, errTrailing)).
			Build()
	}
	return nil
}

// Path bookkeeping. Errors copy the path when they are built, so a failing
// decode may return without unwinding.

func (d *decoder) enter(segs ...string) int {
	mark := len(d.path)
	d.path = append(d.path, segs...)
	return mark
}

func (d *decoder) leave(mark int) {
	d.path = d.path[:mark]
}

func (d *decoder) here(segs ...string) []string {
	out := make([]string, 0, len(d.path)+len(segs))
	out = append(out, d.path...)
	return append(out, segs...)
}

func index(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// fail converts a primitive read failure into a decode error.
func (d *decoder) fail(err error) error {
	kind := errors.KindInvalidData
	detail := "malformed input"
	switch {
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		kind, detail = errors.KindUnexpectedEOF, "unexpected end of section"
	case stderrors.Is(err, wire.ErrOverflow):
		kind, detail = errors.KindOverflow, "integer does not fit its target width"
	case stderrors.Is(err, wire.ErrInvalidUTF8):
		kind, detail = errors.KindInvalidUTF8, "string is not valid UTF-8"
	case stderrors.Is(err, wire.ErrBadOption):
		kind, detail = errors.KindInvalidShape, "expected 0x0 or 0x1, found bad option discriminant"
	}
	return errors.New(errors.PhaseDecode, kind).
		Path(d.here()...).
		Detail("%s", detail).
		Cause(d.r.WrapError(d.sub, err)).
		Build()
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, d.fail(err)
	}
	return b, nil
}

func (d *decoder) expectByte(want byte) error {
	got, err := d.readByte()
	if err != nil {
		return err
	}
	if got != want {
		e := errors.UnexpectedByte(errors.PhaseDecode, d.here(d.sub), want, got)
		e.Cause = d.r.WrapError(d.sub, stderrors.New("subsection out of order"))
		return e
	}
	return nil
}

func (d *decoder) u32() (uint32, error) {
	v, err := d.r.ReadU32()
	if err != nil {
		return 0, d.fail(err)
	}
	return v, nil
}

func (d *decoder) count() (int, error) {
	n, err := d.r.ReadCount()
	if err != nil {
		return 0, d.fail(err)
	}
	return n, nil
}

func (d *decoder) option() (bool, error) {
	present, err := d.r.ReadOption()
	if err != nil {
		return false, d.fail(err)
	}
	return present, nil
}

func (d *decoder) readString() (string, error) {
	s, err := d.r.ReadString()
	if err != nil {
		return "", d.fail(err)
	}
	return s, nil
}

func (d *decoder) typeRef(segs ...string) (ast.TypeRef, error) {
	mark := d.enter(segs...)
	defer d.leave(mark)

	v, err := d.r.ReadS32()
	if err != nil {
		return ast.TypeRef{}, d.fail(err)
	}
	if v < 0 {
		s, ok := ast.ScalarFromCode(v)
		if !ok {
			return ast.TypeRef{}, errors.New(errors.PhaseDecode, errors.KindInvalidReference).
				Path(d.here()...).
				Value(int64(v)).
				Detail("reference to an unknown Web IDL scalar type: %d", v).
				Build()
		}
		return s.Ref(), nil
	}
	id, ok := d.section.Types.ByIndex(uint32(v))
	if !ok {
		return ast.TypeRef{}, errors.InvalidReference(errors.PhaseDecode, d.here(), "Web IDL compound type", int64(v))
	}
	return ast.CompoundRef(id), nil
}

func (d *decoder) typeRefs(field string) ([]ast.TypeRef, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	refs := make([]ast.TypeRef, 0, n)
	for i := range n {
		ref, err := d.typeRef(field, index(i))
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (d *decoder) bindingRef(field string) (ast.BindingID, error) {
	idx, err := d.u32()
	if err != nil {
		return 0, err
	}
	id, ok := d.section.Bindings.ByIndex(idx)
	if !ok {
		return 0, errors.InvalidReference(errors.PhaseDecode, d.here(field), "function binding", int64(idx))
	}
	return id, nil
}

func (d *decoder) funcRef(field string) (ast.FuncRef, error) {
	idx, err := d.u32()
	if err != nil {
		return 0, err
	}
	if d.ids != nil {
		if f, ok := d.ids.FuncByIndex(idx); ok {
			return f, nil
		}
	}
	return 0, errors.InvalidReference(errors.PhaseDecode, d.here(field), "function", int64(idx))
}

func (d *decoder) funcTypeRef(field string) (ast.FuncTypeRef, error) {
	idx, err := d.u32()
	if err != nil {
		return 0, err
	}
	if d.ids != nil {
		if t, ok := d.ids.FuncTypeByIndex(idx); ok {
			return t, nil
		}
	}
	return 0, errors.InvalidReference(errors.PhaseDecode, d.here(field), "function type", int64(idx))
}

func (d *decoder) valType() (ast.ValType, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}
	v, ok := ast.ValTypeFromByte(b)
	if !ok {
		return 0, errors.InvalidDiscriminant(errors.PhaseDecode, d.here("type"), "value type", b)
	}
	return v, nil
}

func (d *decoder) compoundType() (ast.CompoundType, error) {
	disc, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch ast.CompoundKind(disc) {
	case ast.KindFunction:
		return d.function()
	case ast.KindDictionary:
		return d.dictionary()
	case ast.KindEnumeration:
		return d.enumeration()
	case ast.KindUnion:
		return d.union()
	default:
		return nil, errors.InvalidDiscriminant(errors.PhaseDecode, d.here(), "Web IDL compound type", disc)
	}
}

func (d *decoder) function() (*ast.Function, error) {
	f := &ast.Function{}

	kind, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch ast.CallKind(kind) {
	case ast.CallStatic, ast.CallConstructor:
		f.Call = ast.CallKind(kind)
	case ast.CallMethod:
		f.Call = ast.CallMethod
		if f.Receiver, err = d.typeRef("receiver"); err != nil {
			return nil, err
		}
	default:
		return nil, errors.InvalidDiscriminant(errors.PhaseDecode, d.here("kind"), "Web IDL function kind", kind)
	}

	if f.Params, err = d.typeRefs("params"); err != nil {
		return nil, err
	}

	present, err := d.option()
	if err != nil {
		return nil, err
	}
	if present {
		result, err := d.typeRef("result")
		if err != nil {
			return nil, err
		}
		f.Result = &result
	}
	return f, nil
}

func (d *decoder) dictionary() (*ast.Dictionary, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	dict := &ast.Dictionary{Fields: make([]ast.DictionaryField, 0, n)}
	for i := range n {
		mark := d.enter("fields", index(i))
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		ty, err := d.typeRef()
		if err != nil {
			return nil, err
		}
		dict.Fields = append(dict.Fields, ast.DictionaryField{Name: name, Type: ty})
		d.leave(mark)
	}
	return dict, nil
}

func (d *decoder) enumeration() (*ast.Enumeration, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	enum := &ast.Enumeration{Values: make([]string, 0, n)}
	for i := range n {
		mark := d.enter("values", index(i))
		v, err := d.readString()
		if err != nil {
			return nil, err
		}
		enum.Values = append(enum.Values, v)
		d.leave(mark)
	}
	return enum, nil
}

func (d *decoder) union() (*ast.Union, error) {
	members, err := d.typeRefs("members")
	if err != nil {
		return nil, err
	}
	return &ast.Union{Members: members}, nil
}

func (d *decoder) functionBinding() (ast.FunctionBinding, error) {
	disc, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch ast.BindingKind(disc) {
	case ast.BindingImport:
		b := &ast.ImportBinding{}
		if b.WasmType, err = d.funcTypeRef("wasm_ty"); err != nil {
			return nil, err
		}
		if b.WebidlType, err = d.typeRef("webidl_ty"); err != nil {
			return nil, err
		}
		if b.Params, err = d.outgoingMap("params"); err != nil {
			return nil, err
		}
		if b.Result, err = d.incomingMap("result"); err != nil {
			return nil, err
		}
		return b, nil
	case ast.BindingExport:
		b := &ast.ExportBinding{}
		if b.WasmType, err = d.funcTypeRef("wasm_ty"); err != nil {
			return nil, err
		}
		if b.WebidlType, err = d.typeRef("webidl_ty"); err != nil {
			return nil, err
		}
		if b.Params, err = d.incomingMap("params"); err != nil {
			return nil, err
		}
		if b.Result, err = d.outgoingMap("result"); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errors.InvalidDiscriminant(errors.PhaseDecode, d.here(), "function binding", disc)
	}
}

func (d *decoder) bind() (ast.Bind, error) {
	fn, err := d.funcRef("func")
	if err != nil {
		return ast.Bind{}, err
	}
	binding, err := d.bindingRef("binding")
	if err != nil {
		return ast.Bind{}, err
	}
	return ast.Bind{Func: fn, Binding: binding}, nil
}

func (d *decoder) outgoingMap(field string) (ast.OutgoingMap, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	m := make(ast.OutgoingMap, 0, n)
	for i := range n {
		mark := d.enter(field, index(i))
		e, err := d.outgoing()
		if err != nil {
			return nil, err
		}
		m = append(m, e)
		d.leave(mark)
	}
	return m, nil
}

func (d *decoder) incomingMap(field string) (ast.IncomingMap, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	m := make(ast.IncomingMap, 0, n)
	for i := range n {
		mark := d.enter(field, index(i))
		e, err := d.incoming()
		if err != nil {
			return nil, err
		}
		m = append(m, e)
		d.leave(mark)
	}
	return m, nil
}

func (d *decoder) descend() error {
	d.depth++
	if d.opts.maxDepth > 0 && d.depth > d.opts.maxDepth {
		return errors.DepthExceeded(errors.PhaseDecode, d.here(), d.opts.maxDepth)
	}
	return nil
}

func (d *decoder) outgoing() (ast.OutgoingExpr, error) {
	if err := d.descend(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	disc, err := d.readByte()
	if err != nil {
		return nil, err
	}
	op := ast.OutgoingOp(disc)
	switch op {
	case ast.OutAs, ast.OutI32ToEnum:
		ty, err := d.typeRef("type")
		if err != nil {
			return nil, err
		}
		idx, err := d.u32()
		if err != nil {
			return nil, err
		}
		if op == ast.OutAs {
			return &ast.OutgoingAs{Type: ty, Idx: idx}, nil
		}
		return &ast.OutgoingI32ToEnum{Type: ty, Idx: idx}, nil

	case ast.OutUtf8Str, ast.OutView, ast.OutCopy:
		ty, err := d.typeRef("type")
		if err != nil {
			return nil, err
		}
		offset, err := d.u32()
		if err != nil {
			return nil, err
		}
		length, err := d.u32()
		if err != nil {
			return nil, err
		}
		switch op {
		case ast.OutUtf8Str:
			return &ast.OutgoingUtf8Str{Type: ty, Offset: offset, Length: length}, nil
		case ast.OutView:
			return &ast.OutgoingView{Type: ty, Offset: offset, Length: length}, nil
		default:
			return &ast.OutgoingCopy{Type: ty, Offset: offset, Length: length}, nil
		}

	case ast.OutUtf8CStr:
		ty, err := d.typeRef("type")
		if err != nil {
			return nil, err
		}
		offset, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &ast.OutgoingUtf8CStr{Type: ty, Offset: offset}, nil

	case ast.OutDict:
		ty, err := d.typeRef("type")
		if err != nil {
			return nil, err
		}
		fields, err := d.outgoingMap("fields")
		if err != nil {
			return nil, err
		}
		return &ast.OutgoingDict{Type: ty, Fields: fields}, nil

	case ast.OutBindExport:
		ty, err := d.typeRef("type")
		if err != nil {
			return nil, err
		}
		binding, err := d.bindingRef("binding")
		if err != nil {
			return nil, err
		}
		idx, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &ast.OutgoingBindExport{Type: ty, Binding: binding, Idx: idx}, nil

	default:
		return nil, errors.InvalidDiscriminant(errors.PhaseDecode, d.here(), "outgoing binding expression", disc)
	}
}

func (d *decoder) incoming() (ast.IncomingExpr, error) {
	if err := d.descend(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	disc, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch ast.IncomingOp(disc) {
	case ast.InGet:
		idx, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &ast.IncomingGet{Idx: idx}, nil

	case ast.InAs:
		ty, err := d.valType()
		if err != nil {
			return nil, err
		}
		inner, err := d.inner()
		if err != nil {
			return nil, err
		}
		return &ast.IncomingAs{Type: ty, Expr: inner}, nil

	case ast.InAllocUtf8Str, ast.InAllocCopy:
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		inner, err := d.inner()
		if err != nil {
			return nil, err
		}
		if ast.IncomingOp(disc) == ast.InAllocUtf8Str {
			return &ast.IncomingAllocUtf8Str{AllocFunc: name, Expr: inner}, nil
		}
		return &ast.IncomingAllocCopy{AllocFunc: name, Expr: inner}, nil

	case ast.InEnumToI32:
		ty, err := d.typeRef("type")
		if err != nil {
			return nil, err
		}
		inner, err := d.inner()
		if err != nil {
			return nil, err
		}
		return &ast.IncomingEnumToI32{Type: ty, Expr: inner}, nil

	case ast.InField:
		idx, err := d.u32()
		if err != nil {
			return nil, err
		}
		inner, err := d.inner()
		if err != nil {
			return nil, err
		}
		return &ast.IncomingField{Idx: idx, Expr: inner}, nil

	case ast.InBindImport:
		ft, err := d.funcTypeRef("type")
		if err != nil {
			return nil, err
		}
		binding, err := d.bindingRef("binding")
		if err != nil {
			return nil, err
		}
		inner, err := d.inner()
		if err != nil {
			return nil, err
		}
		return &ast.IncomingBindImport{FuncType: ft, Binding: binding, Expr: inner}, nil

	default:
		return nil, errors.InvalidDiscriminant(errors.PhaseDecode, d.here(), "incoming binding expression", disc)
	}
}

func (d *decoder) inner() (ast.IncomingExpr, error) {
	mark := d.enter("expr")
	e, err := d.incoming()
	if err != nil {
		return nil, err
	}
	d.leave(mark)
	return e, nil
}
