package ast

import (
	"fmt"
	"iter"

	"github.com/wippyai/webidl-bindings/errors"
)

// TypeRef refers to either a scalar type or a compound type in the arena.
// Exactly one field is set on a valid reference.
type TypeRef struct {
	Scalar Scalar
	ID     TypeID
}

// CompoundRef returns a reference to a compound type.
func CompoundRef(id TypeID) TypeRef {
	return TypeRef{ID: id}
}

// IsScalar reports whether r names a built-in scalar.
func (r TypeRef) IsScalar() bool {
	return r.Scalar.Valid() && r.ID == 0
}

// IsCompound reports whether r points into the type arena.
func (r TypeRef) IsCompound() bool {
	return r.ID.Valid() && r.Scalar == 0
}

// Valid reports whether r is exactly one of scalar or compound.
func (r TypeRef) Valid() bool {
	return r.IsScalar() || r.IsCompound()
}

// String renders scalars by keyword and compound references by arena index.
func (r TypeRef) String() string {
	switch {
	case r.IsScalar():
		return r.Scalar.String()
	case r.IsCompound():
		return fmt.Sprintf("%d", r.ID-1)
	default:
		return "<invalid>"
	}
}

// CompoundKind is the wire discriminant of a compound type.
type CompoundKind byte

const (
	KindFunction    CompoundKind = 0
	KindDictionary  CompoundKind = 1
	KindEnumeration CompoundKind = 2
	KindUnion       CompoundKind = 3
)

func (k CompoundKind) String() string {
	switch k {
	case KindFunction:
		return "func"
	case KindDictionary:
		return "dict"
	case KindEnumeration:
		return "enum"
	case KindUnion:
		return "union"
	default:
		return fmt.Sprintf("compound(%d)", byte(k))
	}
}

// CompoundType is implemented by *Function, *Dictionary, *Enumeration and *Union.
type CompoundType interface {
	Kind() CompoundKind
	compound()
}

// CallKind is the wire discriminant of a function's call kind.
type CallKind byte

const (
	CallStatic      CallKind = 0
	CallMethod      CallKind = 1
	CallConstructor CallKind = 2
)

func (k CallKind) String() string {
	switch k {
	case CallStatic:
		return "static"
	case CallMethod:
		return "method"
	case CallConstructor:
		return "constructor"
	default:
		return fmt.Sprintf("call(%d)", byte(k))
	}
}

// Function is a Web IDL function signature.
type Function struct {
	// Receiver is the type of `this` and is only meaningful for CallMethod.
	Receiver TypeRef
	Result   *TypeRef
	Params   []TypeRef
	Call     CallKind
}

// Results returns the optional result as a list of zero or one types.
func (f *Function) Results() []TypeRef {
	if f.Result == nil {
		return nil
	}
	return []TypeRef{*f.Result}
}

// Dictionary is an ordered set of named fields.
type Dictionary struct {
	Fields []DictionaryField
}

// DictionaryField is one dictionary member.
type DictionaryField struct {
	Name string
	Type TypeRef
}

// Enumeration is an ordered list of string values.
type Enumeration struct {
	Values []string
}

// Union is an ordered list of member types.
type Union struct {
	Members []TypeRef
}

func (*Function) Kind() CompoundKind    { return KindFunction }
func (*Dictionary) Kind() CompoundKind  { return KindDictionary }
func (*Enumeration) Kind() CompoundKind { return KindEnumeration }
func (*Union) Kind() CompoundKind       { return KindUnion }

func (*Function) compound()    {}
func (*Dictionary) compound()  {}
func (*Enumeration) compound() {}
func (*Union) compound()       {}

// typeRefs returns every type reference held directly by t.
func typeRefs(t CompoundType) []TypeRef {
	switch t := t.(type) {
	case *Function:
		refs := append([]TypeRef(nil), t.Params...)
		if t.Call == CallMethod {
			refs = append(refs, t.Receiver)
		}
		return append(refs, t.Results()...)
	case *Dictionary:
		refs := make([]TypeRef, len(t.Fields))
		for i, f := range t.Fields {
			refs[i] = f.Type
		}
		return refs
	case *Union:
		return t.Members
	}
	return nil
}

// Types is the compound type arena.
type Types struct {
	a arena[TypeID, CompoundType]
}

// Insert appends an unnamed type.
func (ts *Types) Insert(t CompoundType) TypeID {
	id, _ := ts.a.insert("", t)
	return id
}

// InsertNamed appends a type and registers its name. An empty name inserts
// an unnamed type. A name already in use is rejected and nothing is inserted.
func (ts *Types) InsertNamed(name string, t CompoundType) (TypeID, error) {
	id, ok := ts.a.insert(name, t)
	if !ok {
		return 0, errors.DuplicateName(errors.PhaseResolve, "type", name)
	}
	return id, nil
}

func (ts *Types) InsertFunction(f *Function) FunctionID {
	return FunctionID(ts.Insert(f))
}

func (ts *Types) InsertDictionary(d *Dictionary) DictionaryID {
	return DictionaryID(ts.Insert(d))
}

func (ts *Types) InsertEnumeration(e *Enumeration) EnumerationID {
	return EnumerationID(ts.Insert(e))
}

func (ts *Types) InsertUnion(u *Union) UnionID {
	return UnionID(ts.Insert(u))
}

// Get returns the type for id, or nil if id is not in this arena.
func (ts *Types) Get(id TypeID) CompoundType {
	t, _ := ts.a.get(id)
	return t
}

// Function returns the function for id, or nil if id is absent or not a function.
func (ts *Types) Function(id FunctionID) *Function {
	f, _ := ts.Get(TypeID(id)).(*Function)
	return f
}

// Dictionary returns the dictionary for id, or nil on absence or mismatch.
func (ts *Types) Dictionary(id DictionaryID) *Dictionary {
	d, _ := ts.Get(TypeID(id)).(*Dictionary)
	return d
}

// Enumeration returns the enumeration for id, or nil on absence or mismatch.
func (ts *Types) Enumeration(id EnumerationID) *Enumeration {
	e, _ := ts.Get(TypeID(id)).(*Enumeration)
	return e
}

// Union returns the union for id, or nil on absence or mismatch.
func (ts *Types) Union(id UnionID) *Union {
	u, _ := ts.Get(TypeID(id)).(*Union)
	return u
}

// ByName resolves a declared name.
func (ts *Types) ByName(name string) (TypeID, bool) {
	return ts.a.byName(name)
}

// ByIndex resolves a wire index (arena position).
func (ts *Types) ByIndex(idx uint32) (TypeID, bool) {
	return ts.a.byIndex(idx)
}

// Name returns the declared name of id, or "".
func (ts *Types) Name(id TypeID) string {
	return ts.a.name(id)
}

// Contains reports whether id refers to a type in this arena.
func (ts *Types) Contains(id TypeID) bool {
	_, ok := ts.a.get(id)
	return ok
}

// Len returns the number of types.
func (ts *Types) Len() int {
	return len(ts.a.items)
}

// All yields every type in position order.
func (ts *Types) All() iter.Seq2[TypeID, CompoundType] {
	return ts.a.all()
}
