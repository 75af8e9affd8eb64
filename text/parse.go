package text

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/errors"
	"github.com/wippyai/webidl-bindings/text/internal/token"
)

// Parse reads the text form of a section. host resolves references to host
// functions and function types and may be nil when the text has none.
//
// Declarations are processed in order and every reference must point to an
// entity declared earlier, as in the binary format.
func Parse(input string, host ast.HostResolver) (*ast.Section, error) {
	p := &parser{
		b:      ast.NewBuilder(host),
		tokens: token.Tokenize(input),
	}
	if err := p.parseSection(); err != nil {
		return nil, err
	}
	return p.b.Section(), nil
}

type parser struct {
	b      *ast.Builder
	tokens []token.Token
	pos    int
}

func (p *parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

// line is the line of the next token, or of the last one at end of input.
func (p *parser) line() int {
	if t := p.peek(); t != nil {
		return t.Line
	}
	if len(p.tokens) == 0 {
		return 1
	}
	return p.tokens[len(p.tokens)-1].Line
}

func (p *parser) expect(typ token.Type) (*token.Token, error) {
	line := p.line()
	t := p.next()
	if t == nil {
		return nil, errors.Syntax(line, "unexpected end of input, expected %v", typ)
	}
	if t.Type != typ {
		return nil, errors.Syntax(t.Line, "expected %v, got %q", typ, t.Value)
	}
	return t, nil
}

func (p *parser) expectKeyword(kw string) error {
	t, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	if t.Value != kw {
		return errors.Syntax(t.Line, "expected %q, got %q", kw, t.Value)
	}
	return nil
}

// peekClause reports the keyword of a parenthesized clause starting at the
// next token, or "" if the next token does not open one.
func (p *parser) peekClause() string {
	if p.pos+1 >= len(p.tokens) || p.tokens[p.pos].Type != token.LParen {
		return ""
	}
	if t := p.tokens[p.pos+1]; t.Type == token.Ident {
		return t.Value
	}
	return ""
}

// openClause consumes "(" kw.
func (p *parser) openClause(kw string) error {
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	return p.expectKeyword(kw)
}

func (p *parser) closeClause() error {
	_, err := p.expect(token.RParen)
	return err
}

// resolved attaches the line of the reference to a construction error.
func resolved(line int, err error) error {
	kind := errors.KindInvalidReference
	var e *errors.Error
	if stderrors.As(err, &e) {
		kind = e.Kind
	}
	return errors.New(errors.PhaseText, kind).
		Detail("line %d", line).
		Cause(err).
		Build()
}

func (p *parser) parseSection() error {
	for {
		t := p.next()
		if t == nil {
			return nil
		}
		if t.Type != token.Ident {
			return errors.Syntax(t.Line, "expected declaration, got %q", t.Value)
		}
		var err error
		switch t.Value {
		case "type":
			err = p.parseType()
		case "func-binding":
			err = p.parseBinding()
		case "bind":
			err = p.parseBind()
		default:
			err = errors.Syntax(t.Line, "unknown declaration %q", t.Value)
		}
		if err != nil {
			return err
		}
	}
}

// parseName consumes an optional declaration name, dropping a leading $.
func (p *parser) parseName(reserved ...string) (string, error) {
	t := p.peek()
	if t == nil || t.Type != token.Ident {
		return "", nil
	}
	for _, r := range reserved {
		if t.Value == r {
			return "", nil
		}
	}
	p.next()
	name := bare(t.Value)
	if name == "" {
		return "", errors.Syntax(t.Line, "empty name")
	}
	return name, nil
}

func (p *parser) parseU32() (uint32, error) {
	t, err := p.expect(token.Number)
	if err != nil {
		return 0, err
	}
	s := strings.ReplaceAll(t.Value, "_", "")
	val, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Syntax(t.Line, "invalid number %q", t.Value)
	}
	return uint32(val), nil
}

// parseSymbol reads an export name, bare or quoted.
func (p *parser) parseSymbol() (string, error) {
	if t := p.peek(); t != nil && t.Type == token.Ident {
		p.next()
		return t.Value, nil
	}
	return p.parseString()
}

func (p *parser) parseString() (string, error) {
	t, err := p.expect(token.String)
	if err != nil {
		return "", err
	}
	s, err := unquote(t.Value)
	if err != nil {
		return "", errors.Syntax(t.Line, "%v", err)
	}
	return s, nil
}

// reference reads a name or index token for resolution by byName or
// byIndex. byName receives the name as written, $ included.
func reference[T any](p *parser, what string, byName func(string) (T, error), byIndex func(uint32) (T, error)) (T, error) {
	var zero T
	line := p.line()
	t := p.peek()
	if t == nil {
		return zero, errors.Syntax(line, "unexpected end of input, expected %s", what)
	}
	switch t.Type {
	case token.Number:
		idx, err := p.parseU32()
		if err != nil {
			return zero, err
		}
		v, err := byIndex(idx)
		if err != nil {
			return zero, resolved(line, err)
		}
		return v, nil
	case token.Ident:
		p.next()
		v, err := byName(t.Value)
		if err != nil {
			return zero, resolved(line, err)
		}
		return v, nil
	}
	return zero, errors.Syntax(t.Line, "expected %s, got %q", what, t.Value)
}

func bare(name string) string {
	return strings.TrimPrefix(name, "$")
}

// parseTypeRef reads a scalar keyword, a compound type name or an index.
// A $-prefixed name always refers to a compound type.
func (p *parser) parseTypeRef() (ast.TypeRef, error) {
	return reference(p, "type reference", func(name string) (ast.TypeRef, error) {
		if !strings.HasPrefix(name, "$") {
			return p.b.TypeRef(name)
		}
		if id, ok := p.b.Section().Types.ByName(bare(name)); ok {
			return ast.CompoundRef(id), nil
		}
		return ast.TypeRef{}, errors.NotFound(errors.PhaseResolve, "type", bare(name))
	}, p.b.TypeRefByIndex)
}

func (p *parser) parseFuncTypeRef() (ast.FuncTypeRef, error) {
	return reference(p, "function type reference", func(name string) (ast.FuncTypeRef, error) {
		return p.b.FuncTypeByName(bare(name))
	}, p.b.FuncTypeByIndex)
}

func (p *parser) parseFuncRef() (ast.FuncRef, error) {
	return reference(p, "function reference", func(name string) (ast.FuncRef, error) {
		return p.b.FuncByName(bare(name))
	}, p.b.FuncByIndex)
}

func (p *parser) parseBindingRef() (ast.BindingID, error) {
	return reference(p, "binding reference", func(name string) (ast.BindingID, error) {
		return p.b.BindingByName(bare(name))
	}, p.b.BindingByIndex)
}

func (p *parser) parseValType() (ast.ValType, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return 0, err
	}
	v, ok := ast.ValTypeByName(t.Value)
	if !ok {
		return 0, errors.Syntax(t.Line, "unknown value type %q", t.Value)
	}
	return v, nil
}

// parseType reads: type name? (func|dict|enum|union ...)
func (p *parser) parseType() error {
	line := p.line()
	name, err := p.parseName()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	kw, err := p.expect(token.Ident)
	if err != nil {
		return err
	}

	var t ast.CompoundType
	switch kw.Value {
	case "func":
		t, err = p.parseFunction()
	case "dict":
		t, err = p.parseDictionary()
	case "enum":
		t, err = p.parseEnumeration()
	case "union":
		t, err = p.parseUnion()
	default:
		return errors.Syntax(kw.Line, "unknown compound type %q", kw.Value)
	}
	if err != nil {
		return err
	}
	if err := p.closeClause(); err != nil {
		return err
	}
	if _, err := p.b.DeclareType(name, t); err != nil {
		return resolved(line, err)
	}
	return nil
}

// parseFunction reads the clauses of a func type after the keyword. Each
// clause is optional and they must appear in the order
// (method T) | (constructor default-new-target), (param T*), (result T).
func (p *parser) parseFunction() (*ast.Function, error) {
	f := &ast.Function{Call: ast.CallStatic}
	stage := 0
	for {
		kw := p.peekClause()
		var next int
		switch kw {
		case "method", "constructor":
			next = 1
		case "param":
			next = 2
		case "result":
			next = 3
		case "":
			return f, nil
		default:
			return nil, errors.Syntax(p.line(), "unexpected clause %q in func", kw)
		}
		if next <= stage {
			return nil, errors.Syntax(p.line(), "clause %q out of order or repeated", kw)
		}
		stage = next
		p.pos += 2

		switch kw {
		case "method":
			recv, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			f.Call = ast.CallMethod
			f.Receiver = recv
		case "constructor":
			if err := p.expectKeyword("default-new-target"); err != nil {
				return nil, err
			}
			f.Call = ast.CallConstructor
		case "param":
			for t := p.peek(); t != nil && t.Type != token.RParen; t = p.peek() {
				ref, err := p.parseTypeRef()
				if err != nil {
					return nil, err
				}
				f.Params = append(f.Params, ref)
			}
		case "result":
			ref, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			f.Result = &ref
		}
		if err := p.closeClause(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseDictionary() (*ast.Dictionary, error) {
	d := &ast.Dictionary{}
	for p.peekClause() != "" {
		if err := p.openClause("field"); err != nil {
			return nil, err
		}
		name, err := p.parseString()
		if err != nil {
			return nil, err
		}
		ref, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		if err := p.closeClause(); err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, ast.DictionaryField{Name: name, Type: ref})
	}
	return d, nil
}

func (p *parser) parseEnumeration() (*ast.Enumeration, error) {
	e := &ast.Enumeration{}
	for t := p.peek(); t != nil && t.Type != token.RParen; t = p.peek() {
		v, err := p.parseString()
		if err != nil {
			return nil, err
		}
		e.Values = append(e.Values, v)
	}
	return e, nil
}

func (p *parser) parseUnion() (*ast.Union, error) {
	u := &ast.Union{}
	for t := p.peek(); t != nil && t.Type != token.RParen; t = p.peek() {
		ref, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		u.Members = append(u.Members, ref)
	}
	return u, nil
}

// parseBinding reads:
//
//	func-binding name? import|export wasm-type webidl-type (param expr*) (result expr*)
func (p *parser) parseBinding() error {
	line := p.line()
	name, err := p.parseName("import", "export")
	if err != nil {
		return err
	}
	dir, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	if dir.Value != "import" && dir.Value != "export" {
		return errors.Syntax(dir.Line, "expected import or export, got %q", dir.Value)
	}
	wasmTy, err := p.parseFuncTypeRef()
	if err != nil {
		return err
	}
	webidlTy, err := p.parseTypeRef()
	if err != nil {
		return err
	}

	if dir.Value == "import" {
		params, result, err := clauses(p, p.parseOutgoingMap, p.parseIncomingMap)
		if err != nil {
			return err
		}
		if _, err := p.b.DeclareImport(name, wasmTy, webidlTy, params, result); err != nil {
			return resolved(line, err)
		}
		return nil
	}
	params, result, err := clauses(p, p.parseIncomingMap, p.parseOutgoingMap)
	if err != nil {
		return err
	}
	if _, err := p.b.DeclareExport(name, wasmTy, webidlTy, params, result); err != nil {
		return resolved(line, err)
	}
	return nil
}

// clauses reads the mandatory (param ...) and (result ...) clauses.
func clauses[P, R any](p *parser, params func() (P, error), result func() (R, error)) (P, R, error) {
	var (
		ps P
		rs R
	)
	if err := p.openClause("param"); err != nil {
		return ps, rs, err
	}
	ps, err := params()
	if err != nil {
		return ps, rs, err
	}
	if err := p.closeClause(); err != nil {
		return ps, rs, err
	}
	if err := p.openClause("result"); err != nil {
		return ps, rs, err
	}
	rs, err = result()
	if err != nil {
		return ps, rs, err
	}
	return ps, rs, p.closeClause()
}

// parseBind reads: bind func binding
func (p *parser) parseBind() error {
	line := p.line()
	fn, err := p.parseFuncRef()
	if err != nil {
		return err
	}
	binding, err := p.parseBindingRef()
	if err != nil {
		return err
	}
	if _, err := p.b.DeclareBind(fn, binding); err != nil {
		return resolved(line, err)
	}
	return nil
}

func (p *parser) parseOutgoingMap() (ast.OutgoingMap, error) {
	var m ast.OutgoingMap
	for p.peekClause() != "" {
		e, err := p.parseOutgoing()
		if err != nil {
			return nil, err
		}
		m = append(m, e)
	}
	if t := p.peek(); t != nil && t.Type != token.RParen {
		return nil, errors.Syntax(t.Line, "expected outgoing expression, got %q", t.Value)
	}
	return m, nil
}

func (p *parser) parseIncomingMap() (ast.IncomingMap, error) {
	var m ast.IncomingMap
	for p.peekClause() != "" {
		e, err := p.parseIncoming()
		if err != nil {
			return nil, err
		}
		m = append(m, e)
	}
	if t := p.peek(); t != nil && t.Type != token.RParen {
		return nil, errors.Syntax(t.Line, "expected incoming expression, got %q", t.Value)
	}
	return m, nil
}

// typeAndU32s reads a type reference followed by n unsigned integers.
func (p *parser) typeAndU32s(n int) (ast.TypeRef, []uint32, error) {
	ref, err := p.parseTypeRef()
	if err != nil {
		return ast.TypeRef{}, nil, err
	}
	vals := make([]uint32, n)
	for i := range vals {
		if vals[i], err = p.parseU32(); err != nil {
			return ast.TypeRef{}, nil, err
		}
	}
	return ref, vals, nil
}

func (p *parser) parseOutgoing() (ast.OutgoingExpr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	op, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	var e ast.OutgoingExpr
	switch op.Value {
	case "as":
		ref, v, err := p.typeAndU32s(1)
		if err != nil {
			return nil, err
		}
		e = &ast.OutgoingAs{Type: ref, Idx: v[0]}
	case "utf8-str":
		ref, v, err := p.typeAndU32s(2)
		if err != nil {
			return nil, err
		}
		e = &ast.OutgoingUtf8Str{Type: ref, Offset: v[0], Length: v[1]}
	case "utf8-cstr":
		ref, v, err := p.typeAndU32s(1)
		if err != nil {
			return nil, err
		}
		e = &ast.OutgoingUtf8CStr{Type: ref, Offset: v[0]}
	case "i32-to-enum":
		ref, v, err := p.typeAndU32s(1)
		if err != nil {
			return nil, err
		}
		e = &ast.OutgoingI32ToEnum{Type: ref, Idx: v[0]}
	case "view":
		ref, v, err := p.typeAndU32s(2)
		if err != nil {
			return nil, err
		}
		e = &ast.OutgoingView{Type: ref, Offset: v[0], Length: v[1]}
	case "copy":
		ref, v, err := p.typeAndU32s(2)
		if err != nil {
			return nil, err
		}
		e = &ast.OutgoingCopy{Type: ref, Offset: v[0], Length: v[1]}
	case "dict":
		ref, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		fields, err := p.parseOutgoingMap()
		if err != nil {
			return nil, err
		}
		e = &ast.OutgoingDict{Type: ref, Fields: fields}
	case "bind-export":
		ref, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		binding, err := p.parseBindingRef()
		if err != nil {
			return nil, err
		}
		idx, err := p.parseU32()
		if err != nil {
			return nil, err
		}
		e = &ast.OutgoingBindExport{Type: ref, Binding: binding, Idx: idx}
	default:
		return nil, errors.Syntax(op.Line, "unknown outgoing expression %q", op.Value)
	}
	if err := p.closeClause(); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseIncoming() (ast.IncomingExpr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	op, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	var e ast.IncomingExpr
	switch op.Value {
	case "get":
		idx, err := p.parseU32()
		if err != nil {
			return nil, err
		}
		e = &ast.IncomingGet{Idx: idx}
	case "as":
		vt, err := p.parseValType()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseIncoming()
		if err != nil {
			return nil, err
		}
		e = &ast.IncomingAs{Type: vt, Expr: inner}
	case "alloc-utf8-str", "alloc-copy":
		fn, err := p.parseSymbol()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseIncoming()
		if err != nil {
			return nil, err
		}
		if op.Value == "alloc-copy" {
			e = &ast.IncomingAllocCopy{AllocFunc: fn, Expr: inner}
		} else {
			e = &ast.IncomingAllocUtf8Str{AllocFunc: fn, Expr: inner}
		}
	case "enum-to-i32":
		ref, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseIncoming()
		if err != nil {
			return nil, err
		}
		e = &ast.IncomingEnumToI32{Type: ref, Expr: inner}
	case "field":
		idx, err := p.parseU32()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseIncoming()
		if err != nil {
			return nil, err
		}
		e = &ast.IncomingField{Idx: idx, Expr: inner}
	case "bind-import":
		ft, err := p.parseFuncTypeRef()
		if err != nil {
			return nil, err
		}
		binding, err := p.parseBindingRef()
		if err != nil {
			return nil, err
		}
		inner, err := p.parseIncoming()
		if err != nil {
			return nil, err
		}
		e = &ast.IncomingBindImport{FuncType: ft, Binding: binding, Expr: inner}
	default:
		return nil, errors.Syntax(op.Line, "unknown incoming expression %q", op.Value)
	}
	if err := p.closeClause(); err != nil {
		return nil, err
	}
	return e, nil
}
