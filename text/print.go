package text

import (
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/binary"
	"github.com/wippyai/webidl-bindings/errors"
)

// Print writes s in text form, one declaration per line in arena order.
// Named types and bindings are declared and referenced as $name when the
// name is a valid identifier, and by index otherwise. Host functions and
// function types are always written as indices resolved through host.
//
// Parsing the output against the same host module yields a section with the
// same binary encoding.
func Print(w io.Writer, s *ast.Section, host binary.Indices) error {
	out, err := Format(s, host)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Format is Print into a string.
func Format(s *ast.Section, host binary.Indices) (string, error) {
	p := &printer{s: s, host: host}
	p.section()
	if p.err != nil {
		return "", p.err
	}
	return p.b.String(), nil
}

type printer struct {
	s    *ast.Section
	host binary.Indices
	err  error
	b    strings.Builder
}

func (p *printer) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *printer) section() {
	for id, t := range p.s.Types.All() {
		p.b.WriteString("type ")
		if name := p.s.Types.Name(id); isIdent(name) {
			p.b.WriteString("$" + name + " ")
		}
		p.compound(t)
		p.b.WriteByte('\n')
	}
	for id, fb := range p.s.Bindings.All() {
		p.binding(id, fb)
	}
	for _, bind := range p.s.Binds.All() {
		p.b.WriteString("bind ")
		p.funcRef(bind.Func)
		p.b.WriteByte(' ')
		p.bindingRef(bind.Binding)
		p.b.WriteByte('\n')
	}
}

// isIdent reports whether $name reads back as a single identifier token.
func isIdent(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && !strings.ContainsRune("_.$-", c) {
			return false
		}
	}
	return true
}

func (p *printer) compound(t ast.CompoundType) {
	switch t := t.(type) {
	case *ast.Function:
		p.b.WriteString("(func")
		switch t.Call {
		case ast.CallMethod:
			p.b.WriteString(" (method ")
			p.typeRef(t.Receiver)
			p.b.WriteByte(')')
		case ast.CallConstructor:
			p.b.WriteString(" (constructor default-new-target)")
		}
		if len(t.Params) > 0 {
			p.b.WriteString(" (param")
			for _, ref := range t.Params {
				p.b.WriteByte(' ')
				p.typeRef(ref)
			}
			p.b.WriteByte(')')
		}
		if t.Result != nil {
			p.b.WriteString(" (result ")
			p.typeRef(*t.Result)
			p.b.WriteByte(')')
		}
		p.b.WriteByte(')')
	case *ast.Dictionary:
		p.b.WriteString("(dict")
		for _, f := range t.Fields {
			p.b.WriteString(" (field ")
			p.b.WriteString(quote(f.Name))
			p.b.WriteByte(' ')
			p.typeRef(f.Type)
			p.b.WriteByte(')')
		}
		p.b.WriteByte(')')
	case *ast.Enumeration:
		p.b.WriteString("(enum")
		for _, v := range t.Values {
			p.b.WriteByte(' ')
			p.b.WriteString(quote(v))
		}
		p.b.WriteByte(')')
	case *ast.Union:
		p.b.WriteString("(union")
		for _, ref := range t.Members {
			p.b.WriteByte(' ')
			p.typeRef(ref)
		}
		p.b.WriteByte(')')
	default:
		p.fail(errors.Unsupported(errors.PhaseText, "unknown compound type"))
	}
}

func (p *printer) binding(id ast.BindingID, fb ast.FunctionBinding) {
	p.b.WriteString("func-binding ")
	if name := p.s.Bindings.Name(id); isIdent(name) {
		p.b.WriteString("$" + name + " ")
	}
	p.b.WriteString(fb.Kind().String())
	p.b.WriteByte(' ')
	p.funcTypeRef(fb.WasmFuncType())
	p.b.WriteByte(' ')
	p.typeRef(fb.WebidlFuncType())
	p.b.WriteString("\n  (param")
	switch fb := fb.(type) {
	case *ast.ImportBinding:
		p.outgoingMap(fb.Params)
		p.b.WriteString(")\n  (result")
		p.incomingMap(fb.Result)
	case *ast.ExportBinding:
		p.incomingMap(fb.Params)
		p.b.WriteString(")\n  (result")
		p.outgoingMap(fb.Result)
	}
	p.b.WriteString(")\n")
}

func (p *printer) u32(v uint32) {
	p.b.WriteString(strconv.FormatUint(uint64(v), 10))
}

func (p *printer) typeRef(ref ast.TypeRef) {
	switch {
	case ref.IsScalar():
		p.b.WriteString(ref.Scalar.String())
	case ref.IsCompound():
		if name := p.s.Types.Name(ref.ID); isIdent(name) {
			p.b.WriteString("$" + name)
			return
		}
		p.u32(uint32(ref.ID) - 1)
	default:
		p.fail(errors.InvalidReference(errors.PhaseText, nil, "type", 0))
	}
}

func (p *printer) bindingRef(id ast.BindingID) {
	if !id.Valid() {
		p.fail(errors.InvalidReference(errors.PhaseText, nil, "binding", 0))
		return
	}
	if name := p.s.Bindings.Name(id); isIdent(name) {
		p.b.WriteString("$" + name)
		return
	}
	p.u32(uint32(id) - 1)
}

func (p *printer) funcRef(f ast.FuncRef) {
	idx, ok := p.host.FuncIndex(f)
	if !ok {
		p.fail(errors.InvalidReference(errors.PhaseText, nil, "function", int64(f)))
		return
	}
	p.u32(idx)
}

func (p *printer) funcTypeRef(t ast.FuncTypeRef) {
	idx, ok := p.host.FuncTypeIndex(t)
	if !ok {
		p.fail(errors.InvalidReference(errors.PhaseText, nil, "function type", int64(t)))
		return
	}
	p.u32(idx)
}

func (p *printer) outgoingMap(m ast.OutgoingMap) {
	for _, e := range m {
		p.b.WriteByte(' ')
		p.outgoing(e)
	}
}

func (p *printer) incomingMap(m ast.IncomingMap) {
	for _, e := range m {
		p.b.WriteByte(' ')
		p.incoming(e)
	}
}

// open writes "(op " followed by the expression's type reference.
func (p *printer) open(op string, ref ast.TypeRef) {
	p.b.WriteByte('(')
	p.b.WriteString(op)
	p.b.WriteByte(' ')
	p.typeRef(ref)
}

func (p *printer) args(vals ...uint32) {
	for _, v := range vals {
		p.b.WriteByte(' ')
		p.u32(v)
	}
	p.b.WriteByte(')')
}

func (p *printer) outgoing(e ast.OutgoingExpr) {
	switch e := e.(type) {
	case *ast.OutgoingAs:
		p.open("as", e.Type)
		p.args(e.Idx)
	case *ast.OutgoingUtf8Str:
		p.open("utf8-str", e.Type)
		p.args(e.Offset, e.Length)
	case *ast.OutgoingUtf8CStr:
		p.open("utf8-cstr", e.Type)
		p.args(e.Offset)
	case *ast.OutgoingI32ToEnum:
		p.open("i32-to-enum", e.Type)
		p.args(e.Idx)
	case *ast.OutgoingView:
		p.open("view", e.Type)
		p.args(e.Offset, e.Length)
	case *ast.OutgoingCopy:
		p.open("copy", e.Type)
		p.args(e.Offset, e.Length)
	case *ast.OutgoingDict:
		p.open("dict", e.Type)
		p.outgoingMap(e.Fields)
		p.b.WriteByte(')')
	case *ast.OutgoingBindExport:
		p.open("bind-export", e.Type)
		p.b.WriteByte(' ')
		p.bindingRef(e.Binding)
		p.args(e.Idx)
	default:
		p.fail(errors.Unsupported(errors.PhaseText, "unknown outgoing expression"))
	}
}

func (p *printer) incoming(e ast.IncomingExpr) {
	switch e := e.(type) {
	case *ast.IncomingGet:
		p.b.WriteString("(get")
		p.args(e.Idx)
		return
	case *ast.IncomingAs:
		p.b.WriteString("(as ")
		p.b.WriteString(e.Type.String())
	case *ast.IncomingAllocUtf8Str:
		p.b.WriteString("(alloc-utf8-str ")
		p.symbol(e.AllocFunc)
	case *ast.IncomingAllocCopy:
		p.b.WriteString("(alloc-copy ")
		p.symbol(e.AllocFunc)
	case *ast.IncomingEnumToI32:
		p.open("enum-to-i32", e.Type)
	case *ast.IncomingField:
		p.b.WriteString("(field ")
		p.u32(e.Idx)
	case *ast.IncomingBindImport:
		p.b.WriteString("(bind-import ")
		p.funcTypeRef(e.FuncType)
		p.b.WriteByte(' ')
		p.bindingRef(e.Binding)
	default:
		p.fail(errors.Unsupported(errors.PhaseText, "unknown incoming expression"))
		return
	}
	p.b.WriteByte(' ')
	p.incoming(innerOf(e))
	p.b.WriteByte(')')
}

func innerOf(e ast.IncomingExpr) ast.IncomingExpr {
	switch e := e.(type) {
	case *ast.IncomingAs:
		return e.Expr
	case *ast.IncomingAllocUtf8Str:
		return e.Expr
	case *ast.IncomingAllocCopy:
		return e.Expr
	case *ast.IncomingEnumToI32:
		return e.Expr
	case *ast.IncomingField:
		return e.Expr
	case *ast.IncomingBindImport:
		return e.Expr
	}
	return nil
}

// symbol writes an export name bare when it reads back as an identifier.
func (p *printer) symbol(name string) {
	if r, _ := utf8.DecodeRuneInString(name); isIdent(name) && (unicode.IsLetter(r) || r == '_' || r == '$') {
		p.b.WriteString(name)
		return
	}
	p.b.WriteString(quote(name))
}
