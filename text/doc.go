// Package text reads and writes the text form of a webidl-bindings section.
//
// A text section is a sequence of declarations:
//
//	type $Contact (dict (field "name" DOMString) (field "age" long))
//	type $AddContact (func (method any) (param $Contact DOMString) (result boolean))
//
//	func-binding $addContact import $AddContactWasm $AddContact
//	  (param (as any 0) (dict $Contact (utf8-str DOMString 1 2) (as long 3)) (utf8-str DOMString 4 5))
//	  (result (as i32 (get 0)))
//
//	bind $addContact $addContact
//
// A type declaration holds one of func, dict, enum or union. A func type
// takes optional (method T) or (constructor default-new-target), (param T*)
// and (result T) clauses in that order. A func-binding names its direction
// (import or export), the host function type, the Web IDL function type and
// both expression lists. A bind pairs a host function with a binding.
//
// References are names or zero-based indices. Scalar types are written by
// keyword (long, unsigned_long_long, DOMString, Uint8Array and so on). A
// bare identifier that is not a scalar keyword names a compound type; a
// $name always does. Host functions and function types resolve through the
// host module: registered and name-section names, export names, and
// "module.name" imports.
//
// Comments are ;; to end of line and nestable (; ... ;) blocks.
package text
