// Package binary encodes and decodes the webidl-bindings custom section.
//
// The section has two subsections, always in this order:
//
//	0x00 vec(compound type)
//	0x01 vec(function binding) vec(bind)
//
// Counts and indices are unsigned LEB128. Type references are signed LEB128:
// -1 through -30 name the scalar types and non-negative values are positions
// in the compound type arena. Optional values are prefixed with 0x00 or 0x01
// and strings are a byte length followed by UTF-8.
//
// Both directions translate between section handles and wire positions
// through an injected context. Decode resolves host function and
// function-type indices through IDs; Encode reports them through Indices.
// Section-local positions are assigned in a complete pass over each arena
// before anything that references it is written, so encoding a section
// whose references all point into its own arenas is deterministic and
// inverts Decode.
//
// Decoding is all or nothing. Any malformed input yields an *errors.Error
// in the decode phase whose Path names the offending item (for example
// "bindings[2].params[0]") and whose cause carries the byte offset.
// Encoding a section whose references were never resolved panics.
package binary
