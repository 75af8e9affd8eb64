package ast_test

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/errors"
)

func TestTypesArena(t *testing.T) {
	var s ast.Section

	fn := s.Types.InsertFunction(&ast.Function{Params: refs(ast.Long)})
	dict := s.Types.InsertDictionary(&ast.Dictionary{Fields: []ast.DictionaryField{{Name: "x", Type: ast.Double.Ref()}}})
	enum := s.Types.InsertEnumeration(&ast.Enumeration{Values: []string{"a", "b"}})
	union, err := s.Types.InsertNamed("$U", &ast.Union{Members: refs(ast.Long, ast.DOMString)})
	if err != nil {
		t.Fatalf("InsertNamed: %v", err)
	}

	if s.Types.Len() != 4 {
		t.Fatalf("Len = %d, want 4", s.Types.Len())
	}

	for i, want := range []ast.TypeID{fn.Type(), dict.Type(), enum.Type(), union} {
		got, ok := s.Types.ByIndex(uint32(i))
		if !ok || got != want {
			t.Errorf("ByIndex(%d) = %v, %v; want %v", i, got, ok, want)
		}
	}
	if _, ok := s.Types.ByIndex(4); ok {
		t.Error("ByIndex past the end should fail")
	}

	if got, ok := s.Types.ByName("$U"); !ok || got != union {
		t.Errorf("ByName($U) = %v, %v", got, ok)
	}
	if _, ok := s.Types.ByName("$missing"); ok {
		t.Error("ByName of undeclared name should fail")
	}
	if s.Types.Name(union) != "$U" || s.Types.Name(fn.Type()) != "" {
		t.Error("Name returned unexpected values")
	}

	if s.Types.Function(fn) == nil || s.Types.Dictionary(dict) == nil ||
		s.Types.Enumeration(enum) == nil || s.Types.Union(ast.UnionID(union)) == nil {
		t.Error("typed getters should resolve their own variant")
	}
	if s.Types.Function(ast.FunctionID(dict)) != nil {
		t.Error("Function on a dictionary handle should be nil")
	}
	if s.Types.Get(ast.TypeID(0)) != nil || s.Types.Get(ast.TypeID(99)) != nil {
		t.Error("Get of foreign handle should be nil")
	}

	var kinds []ast.CompoundKind
	for id, ty := range s.Types.All() {
		if s.Types.Get(id) != ty {
			t.Errorf("All yielded mismatched pair for %d", id)
		}
		kinds = append(kinds, ty.Kind())
	}
	want := []ast.CompoundKind{ast.KindFunction, ast.KindDictionary, ast.KindEnumeration, ast.KindUnion}
	if len(kinds) != len(want) {
		t.Fatalf("All yielded %d types", len(kinds))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kind[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestDuplicateNameRejected(t *testing.T) {
	var s ast.Section
	if _, err := s.Types.InsertNamed("$T", &ast.Enumeration{}); err != nil {
		t.Fatal(err)
	}
	_, err := s.Types.InsertNamed("$T", &ast.Union{})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindDuplicateName}) {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
	if s.Types.Len() != 1 {
		t.Errorf("rejected insert must not append, Len = %d", s.Types.Len())
	}

	if _, err := s.Bindings.InsertNamed("$b", &ast.ImportBinding{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Bindings.InsertNamed("$b", &ast.ExportBinding{}); err == nil {
		t.Error("duplicate binding name should be rejected")
	}

	// unnamed entries never collide
	s.Types.Insert(&ast.Union{})
	s.Types.Insert(&ast.Union{})
	if s.Types.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Types.Len())
	}
}

func TestBindingsAndBinds(t *testing.T) {
	s := ast.New()
	if !s.Empty() {
		t.Fatal("new section should be empty")
	}

	imp := s.Bindings.InsertImport(&ast.ImportBinding{WasmType: 3})
	exp := s.Bindings.InsertExport(&ast.ExportBinding{WasmType: 4})

	if s.Bindings.Import(imp) == nil || s.Bindings.Export(exp) == nil {
		t.Error("typed binding getters should resolve")
	}
	if s.Bindings.Import(ast.ImportBindingID(exp)) != nil {
		t.Error("Import on an export handle should be nil")
	}
	if got := s.Bindings.Get(exp.Binding()).WasmFuncType(); got != 4 {
		t.Errorf("WasmFuncType = %d, want 4", got)
	}
	if s.Bindings.Get(imp.Binding()).Kind() != ast.BindingImport {
		t.Error("import binding reports wrong kind")
	}

	b := s.Binds.Insert(ast.Bind{Func: 9, Binding: exp.Binding()})
	got, ok := s.Binds.Get(b)
	if !ok || got.Func != 9 || got.Binding != exp.Binding() {
		t.Errorf("Binds.Get = %+v, %v", got, ok)
	}
	if id, ok := s.Binds.ByIndex(0); !ok || id != b {
		t.Errorf("Binds.ByIndex(0) = %v, %v", id, ok)
	}
	if _, ok := s.Binds.Get(ast.BindID(5)); ok {
		t.Error("Get of foreign bind handle should fail")
	}

	n := 0
	for range s.Binds.All() {
		n++
	}
	if n != 1 || s.Empty() {
		t.Errorf("expected one bind, iterated %d", n)
	}
}

func TestAllStopsEarly(t *testing.T) {
	var s ast.Section
	for range 5 {
		s.Types.Insert(&ast.Enumeration{})
	}
	seen := 0
	for range s.Types.All() {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("seen = %d", seen)
	}
}

func TestScalarCodes(t *testing.T) {
	scalars := ast.Scalars()
	if len(scalars) != 30 {
		t.Fatalf("len(Scalars) = %d, want 30", len(scalars))
	}
	for i, s := range scalars {
		if s.Code() != int32(-(i + 1)) {
			t.Errorf("%s.Code() = %d, want %d", s, s.Code(), -(i + 1))
		}
		back, ok := ast.ScalarFromCode(s.Code())
		if !ok || back != s {
			t.Errorf("ScalarFromCode(%d) = %v, %v", s.Code(), back, ok)
		}
		byName, ok := ast.ScalarByName(s.String())
		if !ok || byName != s {
			t.Errorf("ScalarByName(%q) = %v, %v", s.String(), byName, ok)
		}
	}
	for _, code := range []int32{0, 1, 5, -31, -100} {
		if _, ok := ast.ScalarFromCode(code); ok {
			t.Errorf("ScalarFromCode(%d) should fail", code)
		}
	}
	if ast.Float64Array.Code() != -30 || ast.Any.Code() != -1 || ast.USVString.Code() != -17 {
		t.Error("scalar wire codes drifted")
	}
}

func TestValTypes(t *testing.T) {
	want := map[ast.ValType]string{
		ast.I32: "i32", ast.I64: "i64", ast.F32: "f32", ast.F64: "f64", ast.V128: "v128", ast.AnyRef: "anyref",
	}
	for v, name := range want {
		if v.String() != name {
			t.Errorf("%#x.String() = %q, want %q", byte(v), v.String(), name)
		}
		if got, ok := ast.ValTypeFromByte(byte(v)); !ok || got != v {
			t.Errorf("ValTypeFromByte(%#x) failed", byte(v))
		}
		if got, ok := ast.ValTypeByName(name); !ok || got != v {
			t.Errorf("ValTypeByName(%q) failed", name)
		}
	}
	for _, b := range []byte{0x00, 0x70, 0x7a, 0x80} {
		if _, ok := ast.ValTypeFromByte(b); ok {
			t.Errorf("ValTypeFromByte(%#x) should fail", b)
		}
	}
}

func TestTypeRef(t *testing.T) {
	if !ast.Long.Ref().IsScalar() || ast.Long.Ref().IsCompound() {
		t.Error("scalar ref misclassified")
	}
	c := ast.CompoundRef(3)
	if !c.IsCompound() || c.IsScalar() || c.String() != "2" {
		t.Errorf("compound ref misclassified: %s", c)
	}
	if (ast.TypeRef{}).Valid() || (ast.TypeRef{Scalar: ast.Long, ID: 1}).Valid() {
		t.Error("zero and mixed refs must be invalid")
	}
}

func TestExpressionStrings(t *testing.T) {
	tests := []struct {
		expr fmtStringer
		want string
	}{
		{&ast.OutgoingAs{Type: ast.Long.Ref(), Idx: 0}, "(as long 0)"},
		{&ast.OutgoingUtf8Str{Type: ast.DOMString.Ref(), Offset: 123, Length: 456}, "(utf8-str DOMString 123 456)"},
		{&ast.OutgoingUtf8CStr{Type: ast.DOMString.Ref(), Offset: 123}, "(utf8-cstr DOMString 123)"},
		{&ast.OutgoingI32ToEnum{Type: ast.CompoundRef(1), Idx: 22}, "(i32-to-enum 0 22)"},
		{&ast.OutgoingView{Type: ast.Uint8Array.Ref(), Offset: 2, Length: 3}, "(view Uint8Array 2 3)"},
		{&ast.OutgoingCopy{Type: ast.Uint8Array.Ref(), Offset: 2, Length: 3}, "(copy Uint8Array 2 3)"},
		{&ast.OutgoingDict{Type: ast.CompoundRef(2), Fields: []ast.OutgoingExpr{
			&ast.OutgoingUtf8Str{Type: ast.DOMString.Ref(), Offset: 0, Length: 1},
			&ast.OutgoingAs{Type: ast.Long.Ref(), Idx: 2},
		}}, "(dict 1 (utf8-str DOMString 0 1) (as long 2))"},
		{&ast.OutgoingBindExport{Type: ast.CompoundRef(1), Binding: 2, Idx: 2}, "(bind-export 0 1 2)"},
		{&ast.IncomingGet{Idx: 1}, "(get 1)"},
		{asGet(ast.I32, 0), "(as i32 (get 0))"},
		{&ast.IncomingAllocUtf8Str{AllocFunc: "malloc", Expr: &ast.IncomingGet{}}, "(alloc-utf8-str malloc (get 0))"},
		{&ast.IncomingAllocCopy{AllocFunc: "malloc", Expr: &ast.IncomingGet{}}, "(alloc-copy malloc (get 0))"},
		{&ast.IncomingEnumToI32{Type: ast.CompoundRef(1), Expr: &ast.IncomingGet{}}, "(enum-to-i32 0 (get 0))"},
		{&ast.IncomingField{Idx: 0, Expr: &ast.IncomingGet{Idx: 1}}, "(field 0 (get 1))"},
		{&ast.IncomingBindImport{FuncType: 4, Binding: 1, Expr: &ast.IncomingGet{Idx: 1}}, "(bind-import 4 0 (get 1))"},
	}
	for _, tt := range tests {
		if got := tt.expr.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

type fmtStringer interface{ String() string }
