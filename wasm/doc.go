// Package wasm reads and writes the parts of a core WebAssembly module that
// a webidl-bindings section refers to.
//
// A bindings section names functions and function types by their index in
// the host module, so this package decodes the type, import, function,
// export and code sections into a Module and keeps every other section as
// raw bytes. Custom sections are kept with their names, which is how the
// bindings section itself is found and replaced.
//
// # Parsing
//
//	data, _ := os.ReadFile("module.wasm")
//	m, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	payload, ok := m.CustomSection("webidl-bindings")
//
// Parse with validation enabled:
//
//	m, err := wasm.ParseModuleValidate(data)
//
// # Encoding
//
// Encode writes sections back in their original order. Modelled sections
// are regenerated from the Module fields, everything else is copied:
//
//	m.SetCustomSection("webidl-bindings", payload)
//	out := m.Encode()
//
// # Function index space
//
// Imported functions come first, followed by the functions declared in
// the function section. NumImportedFuncs, FuncTypeIndex and GetFuncType
// work in that combined space.
//
// # Not supported
//
// GC type forms (rec, sub, struct, array) and typed references in function
// signatures are rejected with an unsupported error. Instruction bodies are
// never decoded.
package wasm
