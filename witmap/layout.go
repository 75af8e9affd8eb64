package witmap

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/webidl-bindings/ast"
)

// Info is the canonical ABI memory layout of a projected type.
type Info struct {
	FieldOffs map[string]uint32 // record field offsets, nil for other kinds
	Size      uint32
	Align     uint32
}

// Calculator computes canonical ABI layouts, caching type definitions.
type Calculator struct {
	cache map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]Info),
	}
}

// Calculate returns the layout of t. Kinds a projection never produces
// report a zero size.
func (c *Calculator) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case wit.String:
		return Info{Size: 8, Align: 4} // [ptr: u32, len: u32]
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) calculateTypeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info
	switch kind := t.Kind.(type) {
	case *wit.Record:
		info = c.calculateRecord(kind)
	case *wit.Variant:
		info = c.calculateVariant(kind)
	case *wit.Enum:
		size := discriminantSize(len(kind.Cases))
		info = Info{Size: size, Align: size}
	case *wit.List:
		info = Info{Size: 8, Align: 4}
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

func (c *Calculator) calculateRecord(r *wit.Record) Info {
	if len(r.Fields) == 0 {
		return Info{Size: 0, Align: 1}
	}

	fieldOffs := make(map[string]uint32, len(r.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for _, field := range r.Fields {
		fieldLayout := c.Calculate(field.Type)

		offset = alignTo(offset, fieldLayout.Align)
		fieldOffs[field.Name] = offset
		maxAlign = max(maxAlign, fieldLayout.Align)
		offset += fieldLayout.Size
	}

	return Info{
		Size:      alignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: fieldOffs,
	}
}

func (c *Calculator) calculateVariant(v *wit.Variant) Info {
	if len(v.Cases) == 0 {
		return Info{Size: 0, Align: 1}
	}

	discSize := discriminantSize(len(v.Cases))
	maxAlign := discSize
	maxSize := uint32(0)

	for _, cs := range v.Cases {
		if cs.Type == nil {
			continue
		}
		caseLayout := c.Calculate(cs.Type)
		maxAlign = max(maxAlign, caseLayout.Align)
		maxSize = max(maxSize, caseLayout.Size)
	}

	payloadOffset := alignTo(discSize, maxAlign)
	return Info{
		Size:  alignTo(payloadOffset+maxSize, maxAlign),
		Align: maxAlign,
	}
}

// discriminantSize is 1 byte for up to 256 cases, 2 for up to 65536, else 4.
func discriminantSize(numCases int) uint32 {
	if numCases <= 256 {
		return 1
	} else if numCases <= 65536 {
		return 2
	}
	return 4
}

func alignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Layout projects ref and returns its canonical ABI layout.
func (p *Projector) Layout(c *Calculator, ref ast.TypeRef) (Info, error) {
	t, err := p.Type(ref)
	if err != nil {
		return Info{}, err
	}
	return c.Calculate(t), nil
}
