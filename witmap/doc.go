// Package witmap projects Web IDL types onto Component Model WIT types and
// computes their canonical ABI layout.
//
// # Projection Rules
//
//   - Integer, float and boolean scalars map to the WIT primitive of the
//     same width and signedness (long is s32, unsigned long long is u64)
//   - DOMString, ByteString and USVString map to string
//   - ArrayBuffer, DataView and typed arrays map to list of the element type
//   - Dictionaries become records, enumerations become enums and unions
//     become variants with one case per member
//   - any, object, symbol and function types have no WIT value type
//
// Identifiers are converted to kebab-case. Function types are projected
// with Projector.Signature instead of Projector.Type.
//
// # Layout
//
//	p := witmap.NewProjector(&section.Types)
//	info, err := p.Layout(witmap.NewCalculator(), ref)
//	// info.Size, info.Align, info.FieldOffs
package witmap
