// Package ast holds the in-memory model of a webidl-bindings custom section.
//
// A Section owns three append-only arenas:
//
//   - Types: Web IDL compound types (function, dictionary, enumeration, union)
//   - Bindings: function bindings (import or export)
//   - Binds: associations of a host function with a function binding
//
// Every entity is addressed by a typed handle (TypeID, BindingID, BindID).
// Handles are assigned in insertion order and the position of an entity in
// its arena is its index on the wire. Arenas never reorder or delete.
//
// Names are optional. An arena maps a declared name to its handle, and name
// resolution only sees entries inserted earlier, so declarations must precede
// their uses.
//
// Host function and function-type references (FuncRef, FuncTypeRef) are
// opaque values owned by the host module; the section never interprets them
// beyond equality.
//
// The Builder type is the incremental construction API used by front ends.
// The expressibility analysis (IsExpressible, Diagnose) decides whether a
// binding only performs conversions the host already applies by default.
package ast
