package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode  Phase = "decode"  // bytes to section
	PhaseEncode  Phase = "encode"  // section to bytes
	PhaseResolve Phase = "resolve" // name/index resolution during construction
	PhaseAnalyze Phase = "analyze" // expressibility analysis
	PhaseLoad    Phase = "load"    // host module loading
	PhaseParse   Phase = "parse"   // host module section parsing
	PhaseProject Phase = "project" // projection onto WIT types
	PhaseText    Phase = "text"    // text format parsing
)

// Kind categorizes the error
type Kind string

const (
	// structural
	KindUnexpectedEOF       Kind = "unexpected_eof"
	KindInvalidDiscriminant Kind = "invalid_discriminant"
	KindOverflow            Kind = "overflow"
	KindInvalidUTF8         Kind = "invalid_utf8"

	// referential
	KindInvalidReference Kind = "invalid_reference"
	KindNotFound         Kind = "not_found"

	// shape
	KindInvalidShape  Kind = "invalid_shape"
	KindTrailingData  Kind = "trailing_data"
	KindDepthExceeded Kind = "depth_exceeded"

	KindInvalidData   Kind = "invalid_data"
	KindDuplicateName Kind = "duplicate_name"
	KindUnsupported   Kind = "unsupported"
	KindSyntax        Kind = "syntax"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(JoinPath(e.Path))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// JoinPath renders a path, attaching index segments ("[3]") to their parent
// instead of separating them with dots.
func JoinPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the path to the offending item
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the WebIDL or Wasm type name involved
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidDiscriminant creates an error for a tag byte outside the valid set
func InvalidDiscriminant(phase Phase, path []string, what string, disc byte) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("unknown %s discriminant 0x%02X", what, disc),
		Value:  disc,
	}
}

// UnexpectedByte creates a shape error for a fixed byte that did not match
func UnexpectedByte(phase Phase, path []string, want, got byte) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidShape,
		Path:   path,
		Detail: fmt.Sprintf("expected byte 0x%02X, found 0x%02X", want, got),
		Value:  got,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidReference creates an error for an index that resolves to nothing
func InvalidReference(phase Phase, path []string, what string, index int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidReference,
		Path:   path,
		Detail: fmt.Sprintf("%d is an invalid %s reference", index, what),
		Value:  index,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Type:   targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// DepthExceeded creates an error for expression trees nested past the budget
func DepthExceeded(phase Phase, path []string, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDepthExceeded,
		Path:   path,
		Detail: fmt.Sprintf("expression nesting exceeds %d levels", limit),
		Value:  limit,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// IndexNotFound creates a not-found error for a numeric reference
func IndexNotFound(phase Phase, what string, index uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("no %s at index %d", what, index),
		Value:  index,
	}
}

// DuplicateName creates an error for a name declared twice in one arena
func DuplicateName(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateName,
		Detail: fmt.Sprintf("%s %q already declared", what, name),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a host module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a host module parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Syntax creates a text format error at a source line
func Syntax(line int, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseText,
		Kind:   KindSyntax,
		Detail: fmt.Sprintf("line %d: ", line) + fmt.Sprintf(format, args...),
		Value:  line,
	}
}
