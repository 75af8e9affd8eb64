package binary_test

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/binary"
	"github.com/wippyai/webidl-bindings/errors"
	"github.com/wippyai/webidl-bindings/internal/wire"
)

// hostIDs is a host with funcs functions and types function types. Handles
// are index+1 so that the zero handle stays invalid.
type hostIDs struct {
	funcs, types uint32
}

func (h hostIDs) FuncByIndex(idx uint32) (ast.FuncRef, bool) {
	if idx >= h.funcs {
		return 0, false
	}
	return ast.FuncRef(idx + 1), true
}

func (h hostIDs) FuncTypeByIndex(idx uint32) (ast.FuncTypeRef, bool) {
	if idx >= h.types {
		return 0, false
	}
	return ast.FuncTypeRef(idx + 1), true
}

func (h hostIDs) FuncIndex(f ast.FuncRef) (uint32, bool) {
	if f == 0 || uint32(f) > h.funcs {
		return 0, false
	}
	return uint32(f) - 1, true
}

func (h hostIDs) FuncTypeIndex(t ast.FuncTypeRef) (uint32, bool) {
	if t == 0 || uint32(t) > h.types {
		return 0, false
	}
	return uint32(t) - 1, true
}

var host = hostIDs{funcs: 64, types: 64}

// dump flattens a section into comparable form, since arenas keep their
// storage unexported.
type dump struct {
	Types    []ast.CompoundType
	Bindings []ast.FunctionBinding
	Binds    []ast.Bind
}

func dumpSection(s *ast.Section) dump {
	var d dump
	for _, t := range s.Types.All() {
		d.Types = append(d.Types, t)
	}
	for _, b := range s.Bindings.All() {
		d.Bindings = append(d.Bindings, b)
	}
	for _, b := range s.Binds.All() {
		d.Binds = append(d.Binds, b)
	}
	return d
}

func diffSections(want, got *ast.Section) string {
	return cmp.Diff(dumpSection(want), dumpSection(got), cmpopts.EquateEmpty())
}

func isKind(err error, kind errors.Kind) bool {
	return stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: kind})
}

// encodeIntoSection is the TextEncoder.encodeInto import: a method on `any`
// taking (USVString, Uint8Array) and returning a {read, written} dictionary.
var encodeIntoSection = []byte{
	0x00, 2,
	1, 2,
	4, 'r', 'e', 'a', 'd', 118,
	7, 'w', 'r', 'i', 't', 't', 'e', 'n', 118,
	0, 1, 127,
	2, 111, 103,
	1, 0,
	0x01, 1,
	0, 44, 1,
	3,
	0, 127, 0,
	0, 127, 1,
	4, 103, 2, 3,
	2,
	1, 126, 5, 0, 0, 0,
	1, 126, 5, 1, 0, 0,
	1,
	33, 0,
}

func TestDecodeEncodeInto(t *testing.T) {
	got, err := binary.Decode(host, encodeIntoSection)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := ast.New()
	dict := want.Types.InsertDictionary(&ast.Dictionary{Fields: []ast.DictionaryField{
		{Name: "read", Type: ast.UnsignedLongLong.Ref()},
		{Name: "written", Type: ast.UnsignedLongLong.Ref()},
	}})
	result := ast.CompoundRef(dict.Type())
	fn := want.Types.InsertFunction(&ast.Function{
		Call:     ast.CallMethod,
		Receiver: ast.Any.Ref(),
		Params:   []ast.TypeRef{ast.USVString.Ref(), ast.Uint8Array.Ref()},
		Result:   &result,
	})
	b := want.Bindings.InsertImport(&ast.ImportBinding{
		WasmType:   45,
		WebidlType: ast.CompoundRef(fn.Type()),
		Params: ast.OutgoingMap{
			&ast.OutgoingAs{Type: ast.Any.Ref(), Idx: 0},
			&ast.OutgoingAs{Type: ast.Any.Ref(), Idx: 1},
			&ast.OutgoingView{Type: ast.Uint8Array.Ref(), Offset: 2, Length: 3},
		},
		Result: ast.IncomingMap{
			&ast.IncomingAs{Type: ast.I64, Expr: &ast.IncomingField{Idx: 0, Expr: &ast.IncomingGet{Idx: 0}}},
			&ast.IncomingAs{Type: ast.I64, Expr: &ast.IncomingField{Idx: 1, Expr: &ast.IncomingGet{Idx: 0}}},
		},
	})
	want.Binds.Insert(ast.Bind{Func: 34, Binding: b.Binding()})

	if diff := diffSections(want, got); diff != "" {
		t.Fatalf("decoded section mismatch (-want +got):\n%s", diff)
	}

	if enc := binary.EncodeBytes(got, host); !bytes.Equal(enc, encodeIntoSection) {
		t.Fatalf("re-encoding differs:\n got  %v\n want %v", enc, encodeIntoSection)
	}
}

func TestDecodeEmpty(t *testing.T) {
	empty := []byte{0x00, 0x00, 0x01, 0x00, 0x00}

	s, err := binary.Decode(nil, empty)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !s.Empty() {
		t.Fatalf("expected empty section, got %d types, %d bindings, %d binds",
			s.Types.Len(), s.Bindings.Len(), s.Binds.Len())
	}

	if got := binary.EncodeBytes(ast.New(), nil); !bytes.Equal(got, empty) {
		t.Fatalf("EncodeBytes(empty) = %v, want %v", got, empty)
	}

	// A types subsection alone is not a complete section.
	if _, err := binary.Decode(nil, []byte{0x00, 0x00}); !isKind(err, errors.KindUnexpectedEOF) {
		t.Fatalf("types only: expected unexpected_eof, got %v", err)
	}
}

func TestDecodeFrom(t *testing.T) {
	s, err := binary.DecodeFrom(host, bytes.NewReader(encodeIntoSection))
	if err != nil {
		t.Fatalf("DecodeFrom: %v", err)
	}
	if s.Types.Len() != 2 || s.Bindings.Len() != 1 || s.Binds.Len() != 1 {
		t.Fatalf("unexpected counts: %d types, %d bindings, %d binds",
			s.Types.Len(), s.Bindings.Len(), s.Binds.Len())
	}
}

func TestEncodeWriter(t *testing.T) {
	s, err := binary.Decode(host, encodeIntoSection)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var buf bytes.Buffer
	if err := binary.Encode(&buf, s, host); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), encodeIntoSection) {
		t.Fatalf("Encode wrote %v", buf.Bytes())
	}
}

func TestDecodeTruncated(t *testing.T) {
	for n := range len(encodeIntoSection) {
		_, err := binary.Decode(host, encodeIntoSection[:n])
		if !isKind(err, errors.KindUnexpectedEOF) {
			t.Fatalf("prefix of %d bytes: expected unexpected_eof, got %v", n, err)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		ids      binary.IDs
		kind     errors.Kind
		path     string
		contains string
	}{
		{
			name: "bindings subsection first",
			data: []byte{0x01, 0x00, 0x00},
			kind: errors.KindInvalidShape,
			path: "types",
		},
		{
			name: "missing bindings subsection byte",
			data: []byte{0x00, 0x00, 0x00, 0x00, 0x00},
			kind: errors.KindInvalidShape,
			path: "bindings",
		},
		{
			name:     "compound reference out of range",
			data:     []byte{0x00, 1, 3, 1, 5, 0x01, 0, 0},
			kind:     errors.KindInvalidReference,
			path:     "types[0].members[0]",
			contains: "5 is an invalid Web IDL compound type reference",
		},
		{
			name: "self reference",
			data: []byte{0x00, 1, 3, 1, 0, 0x01, 0, 0},
			kind: errors.KindInvalidReference,
			path: "types[0].members[0]",
		},
		{
			name:     "unknown scalar",
			data:     []byte{0x00, 1, 3, 1, 0x61, 0x01, 0, 0},
			kind:     errors.KindInvalidReference,
			contains: "unknown Web IDL scalar type: -31",
		},
		{
			name:     "bad option",
			data:     []byte{0x00, 1, 0, 0, 0, 2, 0x01, 0, 0},
			kind:     errors.KindInvalidShape,
			path:     "types[0]",
			contains: "expected 0x0 or 0x1",
		},
		{
			name: "bad function kind",
			data: []byte{0x00, 1, 0, 3, 0, 0, 0x01, 0, 0},
			kind: errors.KindInvalidDiscriminant,
			path: "types[0].kind",
		},
		{
			name: "invalid utf8",
			data: []byte{0x00, 1, 2, 1, 1, 0xff, 0x01, 0, 0},
			kind: errors.KindInvalidUTF8,
			path: "types[0].values[0]",
		},
		{
			name: "count overflows u32",
			data: []byte{0x00, 0x80, 0x80, 0x80, 0x80, 0x10},
			kind: errors.KindOverflow,
		},
		{
			name: "type reference overflows i32",
			data: []byte{0x00, 1, 3, 1, 0x80, 0x80, 0x80, 0x80, 0x08, 0x01, 0, 0},
			kind: errors.KindOverflow,
			path: "types[0].members[0]",
		},
		{
			name: "count beyond input",
			data: []byte{0x00, 100, 3, 0},
			kind: errors.KindUnexpectedEOF,
		},
		{
			name: "trailing bytes",
			data: []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x09},
			kind: errors.KindTrailingData,
		},
		{
			name: "unknown host function type",
			data: []byte{0x00, 0, 0x01, 1, 1, 99, 0x7f, 0, 0, 0},
			kind: errors.KindInvalidReference,
			path: "bindings[0].wasm_ty",
		},
		{
			name: "unknown host function",
			data: []byte{0x00, 0, 0x01, 1, 1, 0, 0x7f, 0, 0, 1, 99, 0},
			kind: errors.KindInvalidReference,
			path: "binds[0].func",
		},
		{
			name: "bind to missing binding",
			data: []byte{0x00, 0, 0x01, 0, 1, 0, 0},
			kind: errors.KindInvalidReference,
			path: "binds[0].binding",
		},
		{
			name: "no host",
			data: []byte{0x00, 0, 0x01, 0, 1, 0, 0},
			ids:  nil,
			kind: errors.KindInvalidReference,
			path: "binds[0].func",
		},
		{
			name: "bind-export to a later binding",
			data: []byte{0x00, 0, 0x01, 1, 1, 0, 0x7f, 0, 1, 7, 0x7f, 0, 0, 0},
			kind: errors.KindInvalidReference,
			path: "bindings[0].result[0].binding",
		},
		{
			name: "invalid value type",
			data: []byte{0x00, 0, 0x01, 1, 0, 0, 0x7f, 0, 1, 1, 0x40, 0, 0, 0},
			kind: errors.KindInvalidDiscriminant,
			path: "bindings[0].result[0].type",
		},
		{
			name: "nested incoming path",
			data: []byte{0x00, 0, 0x01, 1, 0, 0, 0x7f, 0, 1, 1, 0x7f, 5, 0, 9},
			kind: errors.KindInvalidDiscriminant,
			path: "bindings[0].result[0].expr.expr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := tt.ids
			if ids == nil && tt.name != "no host" {
				ids = hostIDs{funcs: 4, types: 4}
			}
			_, err := binary.Decode(ids, tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if !isKind(err, tt.kind) {
				t.Fatalf("expected kind %s, got %v", tt.kind, err)
			}
			var de *errors.Error
			if !stderrors.As(err, &de) {
				t.Fatalf("expected *errors.Error, got %T", err)
			}
			if tt.path != "" && errors.JoinPath(de.Path) != tt.path {
				t.Errorf("path = %q, want %q", errors.JoinPath(de.Path), tt.path)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestDecodeErrorCarriesOffset(t *testing.T) {
	_, err := binary.Decode(host, []byte{0x00, 1, 2, 1, 1, 0xff, 0x01, 0, 0})
	var pe *wire.ParseError
	if !stderrors.As(err, &pe) {
		t.Fatalf("expected a wire.ParseError in the chain, got %v", err)
	}
	if pe.Section != "types" {
		t.Errorf("section = %q, want types", pe.Section)
	}
	if !stderrors.Is(err, wire.ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8 in the chain")
	}
}

func TestDecodeAllowTrailing(t *testing.T) {
	data := []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0xde, 0xad}
	s, err := binary.Decode(nil, data, binary.WithAllowTrailing(true))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !s.Empty() {
		t.Fatal("expected empty section")
	}
}

// nestedAs builds a section whose only import binding result is n nested
// (as i32 ...) nodes around a (get 0).
func nestedAs(n int) []byte {
	data := []byte{0x00, 0, 0x01, 1, 0, 0, 0x7f, 0, 1}
	for range n {
		data = append(data, 1, 0x7f)
	}
	return append(data, 0, 0, 0)
}

func TestDecodeDepth(t *testing.T) {
	if _, err := binary.Decode(host, nestedAs(3), binary.WithMaxDepth(4)); err != nil {
		t.Fatalf("depth 4 within budget: %v", err)
	}

	_, err := binary.Decode(host, nestedAs(4), binary.WithMaxDepth(4))
	if !isKind(err, errors.KindDepthExceeded) {
		t.Fatalf("expected depth_exceeded, got %v", err)
	}

	deep := nestedAs(binary.DefaultMaxDepth + 10)
	if _, err := binary.Decode(host, deep); !isKind(err, errors.KindDepthExceeded) {
		t.Fatalf("default budget: expected depth_exceeded, got %v", err)
	}
	if _, err := binary.Decode(host, deep, binary.WithMaxDepth(0)); err != nil {
		t.Fatalf("unbounded: %v", err)
	}
}

func TestDecodeLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := binary.Logger()
	binary.SetLogger(zap.New(core))
	defer binary.SetLogger(prev)

	if _, err := binary.Decode(host, encodeIntoSection); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	entries := logs.FilterMessage("decoded webidl-bindings section").All()
	if len(entries) != 1 {
		t.Fatalf("expected one decode log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["types"]; got != int64(2) {
		t.Errorf("types field = %v, want 2", got)
	}
}
