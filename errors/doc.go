// Package errors provides structured error types for the webidl-bindings module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: a path to the offending item, the type
// involved, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidReference).
//		Path("bindings", "[2]", "webidl_ty").
//		Detail("%d is an invalid Web IDL compound type reference", 7).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidDiscriminant(errors.PhaseDecode, path, "compound type", 0x09)
//	err := errors.NotFound(errors.PhaseResolve, "type", "$Point")
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when their Phase and Kind agree.
package errors
