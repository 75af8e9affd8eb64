// Package webidlbindings reads and writes the webidl-bindings custom section
// of a core WebAssembly module.
//
// The section describes how the arguments and results of Wasm functions map
// onto Web IDL types, so a host can call Web APIs directly without JavaScript
// glue. This library models the section, encodes and decodes its binary form,
// and checks whether a binding is expressible with the default coercions.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	webidlbindings/      Section name, host module index, module glue
//	├── ast/             Arenas, types, bindings, expressions, Builder, analysis
//	├── binary/          Section encoder and decoder
//	├── wasm/            Core module parsing and encoding (index spaces, custom sections)
//	├── witmap/          Projection of Web IDL types onto WIT and canonical ABI layout
//	├── text/            Text form parser and printer
//	├── errors/          Structured error types for debugging
//	└── internal/wire/   LEB128 and byte cursor primitives
//
// # Quick Start
//
// Decode the section of a module:
//
//	m, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	section, ok, err := webidlbindings.FromModule(m)
//
// Build a section and attach it:
//
//	idx := webidlbindings.NewModuleIndex(m)
//	b := ast.NewBuilder(idx)
//	// declare types, bindings and binds ...
//	webidlbindings.AddToModule(m, b.Section())
//	out := m.Encode()
//
// Or parse it from text:
//
//	section, err := text.Parse(src, webidlbindings.NewModuleIndex(m))
//
// # Host references
//
// A section refers to host functions and function types through opaque
// handles. ModuleIndex hands out handles for a parsed module and maps them
// back to indices when encoding, so one ModuleIndex serves the Builder, the
// decoder, the encoder and the expressibility analysis.
package webidlbindings
