package witmap

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/errors"
)

// Projector maps Web IDL types of one section onto WIT types. Compound
// types are projected once and shared, so a dictionary used by two
// bindings yields the same *wit.TypeDef.
type Projector struct {
	types  *ast.Types
	cache  map[ast.TypeID]*wit.TypeDef
	active map[ast.TypeID]bool
}

// NewProjector returns a projector over types.
func NewProjector(types *ast.Types) *Projector {
	return &Projector{
		types:  types,
		cache:  make(map[ast.TypeID]*wit.TypeDef),
		active: make(map[ast.TypeID]bool),
	}
}

// Type projects ref. Scalars without a WIT counterpart (any, object,
// symbol) and function types fail with an unsupported error.
func (p *Projector) Type(ref ast.TypeRef) (wit.Type, error) {
	switch {
	case ref.IsScalar():
		return Scalar(ref.Scalar)
	case ref.IsCompound():
		return p.compound(ref.ID)
	default:
		return nil, errors.InvalidData(errors.PhaseProject, nil, "invalid type reference")
	}
}

// Signature projects the parameters and optional result of a function type.
func (p *Projector) Signature(id ast.FunctionID) (params []wit.Type, result wit.Type, err error) {
	fn := p.types.Function(id)
	if fn == nil {
		return nil, nil, errors.New(errors.PhaseProject, errors.KindInvalidReference).
			Detail("type %d is not a function", ast.TypeID(id)).
			Build()
	}
	params = make([]wit.Type, len(fn.Params))
	for i, ref := range fn.Params {
		if params[i], err = p.Type(ref); err != nil {
			return nil, nil, pathed(err, "params", fmt.Sprintf("[%d]", i))
		}
	}
	if fn.Result != nil {
		if result, err = p.Type(*fn.Result); err != nil {
			return nil, nil, pathed(err, "result")
		}
	}
	return params, result, nil
}

func (p *Projector) compound(id ast.TypeID) (wit.Type, error) {
	if td, ok := p.cache[id]; ok {
		return td, nil
	}
	t := p.types.Get(id)
	if t == nil {
		return nil, errors.New(errors.PhaseProject, errors.KindInvalidReference).
			Detail("compound type %d is not in this section", id).
			Build()
	}
	if p.active[id] {
		return nil, errors.New(errors.PhaseProject, errors.KindInvalidShape).
			Detail("type %d refers to itself", id).
			Build()
	}
	p.active[id] = true
	defer delete(p.active, id)

	var kind wit.TypeDefKind
	switch t := t.(type) {
	case *ast.Dictionary:
		rec := &wit.Record{Fields: make([]wit.Field, len(t.Fields))}
		for i, f := range t.Fields {
			ft, err := p.Type(f.Type)
			if err != nil {
				return nil, pathed(err, "fields", fmt.Sprintf("[%d]", i))
			}
			rec.Fields[i] = wit.Field{Name: witName(f.Name), Type: ft}
		}
		kind = rec
	case *ast.Enumeration:
		enum := &wit.Enum{Cases: make([]wit.EnumCase, len(t.Values))}
		for i, v := range t.Values {
			enum.Cases[i] = wit.EnumCase{Name: witName(v)}
		}
		kind = enum
	case *ast.Union:
		variant := &wit.Variant{Cases: make([]wit.Case, len(t.Members))}
		seen := make(map[string]bool, len(t.Members))
		for i, m := range t.Members {
			mt, err := p.Type(m)
			if err != nil {
				return nil, pathed(err, "members", fmt.Sprintf("[%d]", i))
			}
			name := p.caseName(m)
			if seen[name] {
				name = fmt.Sprintf("%s-%d", name, i)
			}
			seen[name] = true
			variant.Cases[i] = wit.Case{Name: name, Type: mt}
		}
		kind = variant
	case *ast.Function:
		return nil, errors.Unsupported(errors.PhaseProject,
			fmt.Sprintf("function type %d has no WIT value type; use Signature", id))
	}

	td := &wit.TypeDef{Kind: kind}
	if name := p.types.Name(id); name != "" {
		n := witName(name)
		td.Name = &n
	}
	p.cache[id] = td
	return td, nil
}

// caseName derives a variant case name from a union member.
func (p *Projector) caseName(ref ast.TypeRef) string {
	if ref.IsScalar() {
		return witName(ref.Scalar.String())
	}
	if name := p.types.Name(ref.ID); name != "" {
		return witName(name)
	}
	return fmt.Sprintf("type%d", ref.ID-1)
}

// Scalar projects a Web IDL scalar. Buffer and typed array types become
// lists of their element type.
func Scalar(s ast.Scalar) (wit.Type, error) {
	switch s {
	case ast.Boolean:
		return wit.Bool{}, nil
	case ast.Byte:
		return wit.S8{}, nil
	case ast.Octet:
		return wit.U8{}, nil
	case ast.Short:
		return wit.S16{}, nil
	case ast.UnsignedShort:
		return wit.U16{}, nil
	case ast.Long:
		return wit.S32{}, nil
	case ast.UnsignedLong:
		return wit.U32{}, nil
	case ast.LongLong:
		return wit.S64{}, nil
	case ast.UnsignedLongLong:
		return wit.U64{}, nil
	case ast.Float, ast.UnrestrictedFloat:
		return wit.F32{}, nil
	case ast.Double, ast.UnrestrictedDouble:
		return wit.F64{}, nil
	case ast.DOMString, ast.ByteString, ast.USVString:
		return wit.String{}, nil
	case ast.ArrayBuffer, ast.DataView, ast.Uint8Array, ast.Uint8ClampedArray:
		return listOf(wit.U8{}), nil
	case ast.Int8Array:
		return listOf(wit.S8{}), nil
	case ast.Int16Array:
		return listOf(wit.S16{}), nil
	case ast.Uint16Array:
		return listOf(wit.U16{}), nil
	case ast.Int32Array:
		return listOf(wit.S32{}), nil
	case ast.Uint32Array:
		return listOf(wit.U32{}), nil
	case ast.Float32Array:
		return listOf(wit.F32{}), nil
	case ast.Float64Array:
		return listOf(wit.F64{}), nil
	default:
		return nil, errors.Unsupported(errors.PhaseProject, fmt.Sprintf("%s has no WIT counterpart", s))
	}
}

func listOf(elem wit.Type) *wit.TypeDef {
	return &wit.TypeDef{Kind: &wit.List{Type: elem}}
}

// witName converts a Web IDL identifier or enum value to a WIT kebab-case
// identifier: "fontSize" and "font_size" both become "font-size", and a
// leading digit is prefixed ("2d" becomes "x2d").
func witName(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if prevLower {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			prevLower = false
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevLower = true
		default:
			if b.Len() > 0 && prevLower {
				b.WriteByte('-')
			}
			prevLower = false
		}
	}
	out := strings.TrimRight(b.String(), "-")
	switch {
	case out == "":
		return "empty"
	case out[0] >= '0' && out[0] <= '9':
		return "x" + out
	}
	return out
}

func pathed(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append(path, e.Path...)
	}
	return err
}
