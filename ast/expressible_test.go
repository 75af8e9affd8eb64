package ast_test

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/errors"
)

type signature struct {
	params, results []ast.ValType
}

// funcTypes is a host stub keyed by function-type handle.
type funcTypes map[ast.FuncTypeRef]signature

func (f funcTypes) FuncType(ref ast.FuncTypeRef) ([]ast.ValType, []ast.ValType, bool) {
	sig, ok := f[ref]
	return sig.params, sig.results, ok
}

func vals(vs ...ast.ValType) []ast.ValType { return vs }

func refs(ss ...ast.Scalar) []ast.TypeRef {
	out := make([]ast.TypeRef, len(ss))
	for i, s := range ss {
		out[i] = s.Ref()
	}
	return out
}

func resultRef(s ast.Scalar) *ast.TypeRef {
	r := s.Ref()
	return &r
}

func asGet(ty ast.ValType, idx uint32) ast.IncomingExpr {
	return &ast.IncomingAs{Type: ty, Expr: &ast.IncomingGet{Idx: idx}}
}

func staticLongToLong(s *ast.Section) ast.TypeRef {
	id := s.Types.Insert(&ast.Function{
		Call:   ast.CallStatic,
		Params: refs(ast.Long),
		Result: resultRef(ast.Long),
	})
	return ast.CompoundRef(id)
}

func TestImportExpressible(t *testing.T) {
	host := funcTypes{1: {params: vals(ast.I32), results: vals(ast.I32)}}
	s := ast.New()

	id := s.Bindings.Insert(&ast.ImportBinding{
		WasmType:   1,
		WebidlType: staticLongToLong(s),
		Params:     ast.OutgoingMap{&ast.OutgoingAs{Type: ast.Long.Ref(), Idx: 0}},
		Result:     ast.IncomingMap{asGet(ast.I32, 0)},
	})

	if !s.IsExpressible(id, host) {
		t.Fatalf("import should be expressible: %v", s.Diagnose(id, host))
	}
	if !s.Bindings.Get(id).(*ast.ImportBinding).IsExpressible(&s.Types, host) {
		t.Error("ImportBinding.IsExpressible disagrees with Section.IsExpressible")
	}
}

func TestImportNotExpressible(t *testing.T) {
	host := funcTypes{1: {params: vals(ast.I32, ast.I32), results: vals(ast.I32)}}
	s := ast.New()

	fn := s.Types.Insert(&ast.Function{
		Params: refs(ast.DOMString),
		Result: resultRef(ast.Long),
	})
	id := s.Bindings.Insert(&ast.ImportBinding{
		WasmType:   1,
		WebidlType: ast.CompoundRef(fn),
		Params:     ast.OutgoingMap{&ast.OutgoingUtf8Str{Type: ast.DOMString.Ref(), Offset: 0, Length: 1}},
		Result:     ast.IncomingMap{asGet(ast.I32, 0)},
	})

	if s.IsExpressible(id, host) {
		t.Fatal("utf8-str import should not be expressible")
	}
}

func TestImportMethodKindNotExpressible(t *testing.T) {
	host := funcTypes{1: {params: vals(ast.AnyRef)}}
	s := ast.New()

	fn := s.Types.Insert(&ast.Function{Call: ast.CallMethod, Receiver: ast.Any.Ref()})
	id := s.Bindings.Insert(&ast.ImportBinding{
		WasmType:   1,
		WebidlType: ast.CompoundRef(fn),
		Params:     ast.OutgoingMap{&ast.OutgoingAs{Type: ast.Any.Ref(), Idx: 0}},
		Result:     ast.IncomingMap{},
	})

	if s.IsExpressible(id, host) {
		t.Fatal("method kind should not be expressible")
	}
	err := s.Diagnose(id, host)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidShape || errors.JoinPath(e.Path) != "webidl_ty" {
		t.Errorf("unexpected diagnosis: %v", err)
	}
}

func TestExportExpressible(t *testing.T) {
	host := funcTypes{7: {params: vals(ast.I32), results: vals(ast.I32)}}
	s := ast.New()

	id := s.Bindings.Insert(&ast.ExportBinding{
		WasmType:   7,
		WebidlType: staticLongToLong(s),
		Params:     ast.IncomingMap{asGet(ast.I32, 0)},
		Result:     ast.OutgoingMap{&ast.OutgoingAs{Type: ast.Long.Ref(), Idx: 0}},
	})

	if !s.IsExpressible(id, host) {
		t.Fatalf("export should be expressible: %v", s.Diagnose(id, host))
	}
}

func TestExportNotExpressible(t *testing.T) {
	host := funcTypes{7: {params: vals(ast.I32, ast.I32), results: vals(ast.I32)}}
	s := ast.New()

	fn := s.Types.Insert(&ast.Function{Params: refs(ast.DOMString), Result: resultRef(ast.Long)})
	id := s.Bindings.Insert(&ast.ExportBinding{
		WasmType:   7,
		WebidlType: ast.CompoundRef(fn),
		Params: ast.IncomingMap{&ast.IncomingAllocUtf8Str{
			AllocFunc: "malloc",
			Expr:      &ast.IncomingGet{Idx: 0},
		}},
		Result: ast.OutgoingMap{&ast.OutgoingAs{Type: ast.Long.Ref(), Idx: 0}},
	})

	if s.IsExpressible(id, host) {
		t.Fatal("alloc-utf8-str export should not be expressible")
	}
}

func TestExportMethodKindNotExpressible(t *testing.T) {
	host := funcTypes{7: {params: vals(ast.AnyRef)}}
	s := ast.New()

	fn := s.Types.Insert(&ast.Function{Call: ast.CallMethod, Receiver: ast.Any.Ref()})
	id := s.Bindings.Insert(&ast.ExportBinding{
		WasmType:   7,
		WebidlType: ast.CompoundRef(fn),
		Params:     ast.IncomingMap{asGet(ast.AnyRef, 0)},
		Result:     ast.OutgoingMap{},
	})

	if s.IsExpressible(id, host) {
		t.Fatal("method kind should not be expressible")
	}
}

func TestBindingNotExpressibleWithoutFunctionType(t *testing.T) {
	host := funcTypes{1: {}}
	s := ast.New()

	dict := s.Types.Insert(&ast.Dictionary{})
	scalar := s.Bindings.Insert(&ast.ImportBinding{WasmType: 1, WebidlType: ast.Long.Ref()})
	compound := s.Bindings.Insert(&ast.ImportBinding{WasmType: 1, WebidlType: ast.CompoundRef(dict)})
	missingHost := s.Bindings.Insert(&ast.ImportBinding{WasmType: 99, WebidlType: staticLongToLong(s)})

	for _, id := range []ast.BindingID{scalar, compound, missingHost} {
		if s.IsExpressible(id, host) {
			t.Errorf("binding %d should not be expressible", id)
		}
	}
	if s.IsExpressible(ast.BindingID(42), host) {
		t.Error("absent binding should not be expressible")
	}
}

func TestConstructorKindNotExpressible(t *testing.T) {
	host := funcTypes{1: {}}
	s := ast.New()
	fn := s.Types.Insert(&ast.Function{Call: ast.CallConstructor})
	id := s.Bindings.Insert(&ast.ImportBinding{WasmType: 1, WebidlType: ast.CompoundRef(fn)})
	if s.IsExpressible(id, host) {
		t.Fatal("constructor kind should not be expressible")
	}
}

func TestEmptyMapsExpressible(t *testing.T) {
	if !(ast.IncomingMap{}).IsExpressible(nil, nil) {
		t.Error("empty incoming map should be expressible")
	}
	if !(ast.OutgoingMap{}).IsExpressible(nil, nil) {
		t.Error("empty outgoing map should be expressible")
	}

	host := funcTypes{1: {}}
	s := ast.New()
	fn := s.Types.Insert(&ast.Function{})
	id := s.Bindings.Insert(&ast.ExportBinding{WasmType: 1, WebidlType: ast.CompoundRef(fn)})
	if !s.IsExpressible(id, host) {
		t.Errorf("nullary export should be expressible: %v", s.Diagnose(id, host))
	}
}

func TestIncomingArity(t *testing.T) {
	m := ast.IncomingMap{asGet(ast.I32, 0)}

	tests := []struct {
		name string
		from []ast.TypeRef
		to   []ast.ValType
	}{
		{"too many Web IDL types", refs(ast.Long, ast.Long), vals(ast.I32)},
		{"not enough Web IDL types", nil, vals(ast.I32)},
		{"too many wasm types", refs(ast.Long), vals(ast.I32, ast.I32)},
		{"not enough wasm types", refs(ast.Long), nil},
	}
	for _, tt := range tests {
		if m.IsExpressible(tt.from, tt.to) {
			t.Errorf("%s: should not be expressible", tt.name)
		}
	}
	if !m.IsExpressible(refs(ast.Long), vals(ast.I32)) {
		t.Error("matching arity should be expressible")
	}
}

func TestOutgoingArity(t *testing.T) {
	m := ast.OutgoingMap{&ast.OutgoingAs{Type: ast.Long.Ref(), Idx: 0}}

	tests := []struct {
		name string
		from []ast.ValType
		to   []ast.TypeRef
	}{
		{"too many Web IDL types", vals(ast.I32), refs(ast.Long, ast.Long)},
		{"not enough Web IDL types", vals(ast.I32), nil},
		{"too many wasm types", vals(ast.I32, ast.I32), refs(ast.Long)},
		{"not enough wasm types", nil, refs(ast.Long)},
	}
	for _, tt := range tests {
		if m.IsExpressible(tt.from, tt.to) {
			t.Errorf("%s: should not be expressible", tt.name)
		}
	}
}

func TestOrderingOnlyIdentityAccepted(t *testing.T) {
	perms := [][]uint32{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
		{0, 0, 1}, {0, 1, 1}, {1, 1, 1},
	}
	from := refs(ast.Long, ast.Long, ast.Long)
	wasm := vals(ast.I32, ast.I32, ast.I32)

	for _, p := range perms {
		identity := p[0] == 0 && p[1] == 1 && p[2] == 2

		var in ast.IncomingMap
		var out ast.OutgoingMap
		for _, idx := range p {
			in = append(in, asGet(ast.I32, idx))
			out = append(out, &ast.OutgoingAs{Type: ast.Long.Ref(), Idx: idx})
		}

		if got := in.IsExpressible(from, wasm); got != identity {
			t.Errorf("incoming %v: got %v, want %v", p, got, identity)
		}
		if got := out.IsExpressible(wasm, from); got != identity {
			t.Errorf("outgoing %v: got %v, want %v", p, got, identity)
		}
	}
}

func TestOperatorsNotExpressible(t *testing.T) {
	in := ast.IncomingMap{&ast.IncomingAllocUtf8Str{AllocFunc: "malloc", Expr: &ast.IncomingGet{Idx: 0}}}
	if in.IsExpressible(refs(ast.DOMString), vals(ast.I32, ast.I32)) {
		t.Error("alloc-utf8-str should not be expressible")
	}

	out := ast.OutgoingMap{&ast.OutgoingUtf8Str{Type: ast.DOMString.Ref(), Offset: 0, Length: 1}}
	if out.IsExpressible(vals(ast.I32, ast.I32), refs(ast.DOMString)) {
		t.Error("utf8-str should not be expressible")
	}

	outgoing := []ast.OutgoingExpr{
		&ast.OutgoingUtf8CStr{Type: ast.DOMString.Ref()},
		&ast.OutgoingI32ToEnum{Type: ast.Long.Ref()},
		&ast.OutgoingView{Type: ast.Uint8Array.Ref()},
		&ast.OutgoingCopy{Type: ast.Uint8Array.Ref()},
		&ast.OutgoingDict{Type: ast.Long.Ref()},
		&ast.OutgoingBindExport{Type: ast.Long.Ref(), Binding: 1},
	}
	for _, e := range outgoing {
		if ast.OutgoingExpressible(e, ast.I32, ast.Long.Ref(), 0) {
			t.Errorf("%s should not be expressible", e)
		}
	}

	incoming := []ast.IncomingExpr{
		&ast.IncomingGet{Idx: 0},
		&ast.IncomingAllocCopy{AllocFunc: "malloc", Expr: &ast.IncomingGet{}},
		&ast.IncomingEnumToI32{Type: ast.Long.Ref(), Expr: &ast.IncomingGet{}},
		&ast.IncomingField{Idx: 0, Expr: &ast.IncomingGet{}},
		&ast.IncomingBindImport{FuncType: 1, Binding: 1, Expr: &ast.IncomingGet{}},
		&ast.IncomingAs{Type: ast.I32, Expr: &ast.IncomingField{Expr: &ast.IncomingGet{}}},
	}
	for _, e := range incoming {
		if ast.IncomingExpressible(e, ast.Long.Ref(), ast.I32, 0) {
			t.Errorf("%s should not be expressible", e)
		}
	}
}

func TestOutgoingAsTypeMustMatchTarget(t *testing.T) {
	e := &ast.OutgoingAs{Type: ast.Double.Ref(), Idx: 0}
	if ast.OutgoingExpressible(e, ast.I32, ast.Long.Ref(), 0) {
		t.Error("as double against long should not be expressible")
	}
	if !ast.OutgoingExpressible(e, ast.I32, ast.Double.Ref(), 0) {
		t.Error("as double against double should be expressible")
	}
}

func TestIncomingAsTypeMustMatchTarget(t *testing.T) {
	e := asGet(ast.F64, 0)
	if ast.IncomingExpressible(e, ast.Long.Ref(), ast.I32, 0) {
		t.Error("as f64 against i32 should not be expressible")
	}
}

func TestCompoundTypesNeverCoercible(t *testing.T) {
	s := ast.New()
	dict := ast.CompoundRef(s.Types.Insert(&ast.Dictionary{}))

	if ast.OutgoingExpressible(&ast.OutgoingAs{Type: dict, Idx: 0}, ast.I32, dict, 0) {
		t.Error("outgoing compound should not be expressible")
	}
	if ast.IncomingExpressible(asGet(ast.I32, 0), dict, ast.I32, 0) {
		t.Error("incoming compound should not be expressible")
	}
}

func TestOutgoingCoercionTable(t *testing.T) {
	accepted := map[ast.ValType][]ast.Scalar{
		ast.I32: {ast.Byte, ast.Octet, ast.Short, ast.UnsignedShort, ast.Long, ast.LongLong,
			ast.Float, ast.UnrestrictedFloat, ast.Double, ast.UnrestrictedDouble},
		ast.F32: {ast.Float, ast.UnrestrictedFloat, ast.Double, ast.UnrestrictedDouble},
		ast.F64: {ast.Double, ast.UnrestrictedDouble},
	}

	for _, from := range ast.ValTypes() {
		want := map[ast.Scalar]bool{ast.Any: true}
		for _, s := range accepted[from] {
			want[s] = true
		}
		for _, to := range ast.Scalars() {
			m := ast.OutgoingMap{&ast.OutgoingAs{Type: to.Ref(), Idx: 0}}
			got := m.IsExpressible(vals(from), refs(to))
			if got != want[to] {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want[to])
			}
		}
	}
}

func TestIncomingCoercionTable(t *testing.T) {
	accepted := map[ast.ValType][]ast.Scalar{
		ast.AnyRef: {ast.Any},
		ast.I32:    {ast.Boolean, ast.Byte, ast.Octet, ast.Short, ast.UnsignedShort, ast.Long, ast.UnsignedLong},
		ast.F32:    {ast.Byte, ast.Octet, ast.Short, ast.UnsignedShort, ast.Float, ast.UnrestrictedFloat},
		ast.F64: {ast.Byte, ast.Octet, ast.Short, ast.UnsignedShort, ast.Long, ast.UnsignedLong,
			ast.Float, ast.UnrestrictedFloat, ast.Double, ast.UnrestrictedDouble},
	}

	for _, to := range ast.ValTypes() {
		want := map[ast.Scalar]bool{}
		for _, s := range accepted[to] {
			want[s] = true
		}
		m := ast.IncomingMap{asGet(to, 0)}
		for _, from := range ast.Scalars() {
			got := m.IsExpressible(refs(from), vals(to))
			if got != want[from] {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want[from])
			}
		}
	}
}

func TestDiagnosePath(t *testing.T) {
	host := funcTypes{1: {params: vals(ast.I32, ast.I32), results: vals(ast.I32)}}
	s := ast.New()
	fn := s.Types.Insert(&ast.Function{Params: refs(ast.Long, ast.Long), Result: resultRef(ast.Long)})
	id := s.Bindings.Insert(&ast.ImportBinding{
		WasmType:   1,
		WebidlType: ast.CompoundRef(fn),
		Params: ast.OutgoingMap{
			&ast.OutgoingAs{Type: ast.Long.Ref(), Idx: 0},
			&ast.OutgoingCopy{Type: ast.Long.Ref()},
		},
		Result: ast.IncomingMap{asGet(ast.I32, 0)},
	})

	err := s.Diagnose(id, host)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %v", err)
	}
	if e.Phase != errors.PhaseAnalyze {
		t.Errorf("phase = %s", e.Phase)
	}
	if got := errors.JoinPath(e.Path); got != "params[1]" {
		t.Errorf("path = %q, want params[1]", got)
	}
}

func TestDiagnoseWithoutHost(t *testing.T) {
	s := ast.New()
	fn := s.Types.Insert(&ast.Function{})
	id := s.Bindings.Insert(&ast.ImportBinding{WasmType: 1, WebidlType: ast.CompoundRef(fn)})

	err := s.Diagnose(id, nil)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAnalyze, Kind: errors.KindNotFound}) {
		t.Errorf("Diagnose with nil host = %v, want analyze not_found", err)
	}
	if s.IsExpressible(id, nil) {
		t.Error("binding should not be expressible without a host")
	}
}
