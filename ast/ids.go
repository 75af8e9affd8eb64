package ast

// Handles are one-based positions; the zero value never refers to an entity.

// TypeID identifies a compound type in Types.
type TypeID uint32

// Typed views of TypeID for each compound variant.
type (
	FunctionID    TypeID
	DictionaryID  TypeID
	EnumerationID TypeID
	UnionID       TypeID
)

// BindingID identifies a function binding in Bindings.
type BindingID uint32

// Typed views of BindingID for each binding variant.
type (
	ImportBindingID BindingID
	ExportBindingID BindingID
)

// BindID identifies a bind in Binds.
type BindID uint32

// FuncRef is a host module function handle.
type FuncRef uint32

// FuncTypeRef is a host module function-type handle.
type FuncTypeRef uint32

// Valid reports whether id can refer to an entity.
func (id TypeID) Valid() bool { return id != 0 }

// Valid reports whether id can refer to an entity.
func (id BindingID) Valid() bool { return id != 0 }

// Valid reports whether id can refer to an entity.
func (id BindID) Valid() bool { return id != 0 }

func (id FunctionID) Type() TypeID    { return TypeID(id) }
func (id DictionaryID) Type() TypeID  { return TypeID(id) }
func (id EnumerationID) Type() TypeID { return TypeID(id) }
func (id UnionID) Type() TypeID       { return TypeID(id) }

func (id ImportBindingID) Binding() BindingID { return BindingID(id) }
func (id ExportBindingID) Binding() BindingID { return BindingID(id) }
