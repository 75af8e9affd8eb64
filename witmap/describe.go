package witmap

import (
	"strings"

	"go.bytecodealliance.org/wit"
)

// Describe renders t in WIT syntax. Named type definitions render as their
// name; anonymous ones are spelled out.
func Describe(t wit.Type) string {
	switch t := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if t.Name != nil {
			return *t.Name
		}
		return describeKind(t.Kind)
	case nil:
		return "_"
	default:
		return "unknown"
	}
}

// DescribeDef renders the definition of td, spelling out its kind even
// when it is named.
func DescribeDef(td *wit.TypeDef) string {
	return describeKind(td.Kind)
}

func describeKind(k wit.TypeDefKind) string {
	var b strings.Builder
	switch k := k.(type) {
	case *wit.List:
		b.WriteString("list<")
		b.WriteString(Describe(k.Type))
		b.WriteByte('>')
	case *wit.Record:
		b.WriteString("record {")
		for i, f := range k.Fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte(' ')
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(Describe(f.Type))
		}
		b.WriteString(" }")
	case *wit.Enum:
		b.WriteString("enum {")
		for i, c := range k.Cases {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte(' ')
			b.WriteString(c.Name)
		}
		b.WriteString(" }")
	case *wit.Variant:
		b.WriteString("variant {")
		for i, c := range k.Cases {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte(' ')
			b.WriteString(c.Name)
			if c.Type != nil {
				b.WriteByte('(')
				b.WriteString(Describe(c.Type))
				b.WriteByte(')')
			}
		}
		b.WriteString(" }")
	default:
		return "unknown"
	}
	return b.String()
}
