package wasm

import (
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/wippyai/webidl-bindings/errors"
	"github.com/wippyai/webidl-bindings/internal/wire"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = stderrors.New("invalid wasm magic number")
	ErrInvalidVersion = stderrors.New("invalid wasm version")
)

// ParseModule parses a WebAssembly binary module
func ParseModule(data []byte) (*Module, error) {
	r := wire.NewReader(data)

	// Check magic number
	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, errors.Load("read header", r.WrapError("header", err))
	}
	if magic != Magic {
		return nil, errors.Load("read header", ErrInvalidMagic)
	}

	// Check version
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, errors.Load("read header", r.WrapError("header", err))
	}
	if version != Version {
		return nil, errors.Load("read header", ErrInvalidVersion)
	}

	m := &Module{}

	// Track section ordering using canonical order, not section IDs
	var lastSectionOrder int

	for r.Len() > 0 {
		sectionID, err := r.ReadByte()
		if err != nil {
			return nil, errors.Load("read section header", r.WrapError("section header", err))
		}

		// Validate section ordering (custom sections can appear anywhere)
		if sectionID != SectionCustom {
			order := sectionOrder(sectionID)
			if order == 0 {
				return nil, errors.Load(fmt.Sprintf("unknown section ID: 0x%02x", sectionID), nil)
			}
			if order <= lastSectionOrder {
				return nil, errors.Load(fmt.Sprintf("section %d appears out of order", sectionID), nil)
			}
			lastSectionOrder = order
		}

		sectionSize, err := r.ReadU32()
		if err != nil {
			return nil, errors.Load("read section size", r.WrapError("section size", err))
		}
		sectionData, err := r.ReadBytes(int(sectionSize))
		if err != nil {
			return nil, errors.Load("read section data", r.WrapError("section data", err))
		}

		sec := Section{ID: sectionID}
		sr := wire.NewReader(sectionData)
		structured := true

		switch sectionID {
		case SectionCustom:
			sec.Name, err = sr.ReadString()
			if err != nil {
				return nil, errors.ParseFailed("custom section", sr.WrapError("custom", err))
			}
			sec.Data = slices.Clone(sr.ReadRemaining())
			structured = false
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionImport:
			err = parseImportSection(sr, m, sectionData)
		case SectionFunction:
			err = parseFunctionSection(sr, m)
		case SectionExport:
			err = parseExportSection(sr, m)
		case SectionCode:
			err = parseCodeSection(sr, m)
		default:
			sec.Data = slices.Clone(sectionData)
			structured = false
		}
		if err != nil {
			return nil, errors.ParseFailed(sectionName(sectionID), sr.WrapError(sectionName(sectionID), err))
		}
		if structured && sr.Len() > 0 {
			return nil, errors.ParseFailed(sectionName(sectionID),
				sr.WrapError(sectionName(sectionID), fmt.Errorf("%d trailing bytes", sr.Len())))
		}

		m.Sections = append(m.Sections, sec)
	}

	if len(m.Funcs) != len(m.Code) {
		return nil, errors.ParseFailed("code section",
			fmt.Errorf("function and code section have inconsistent lengths: %d vs %d", len(m.Funcs), len(m.Code)))
	}

	return m, nil
}

// sectionOrder returns the canonical ordering for a section ID, or 0 for
// an unknown ID.
// WASM spec requires sections in specific order, which differs from section IDs.
func sectionOrder(id byte) int {
	switch id {
	case SectionType:
		return 1
	case SectionImport:
		return 2
	case SectionFunction:
		return 3
	case SectionTable:
		return 4
	case SectionMemory:
		return 5
	case SectionTag:
		return 6 // Tag comes after Memory, before Global
	case SectionGlobal:
		return 7
	case SectionExport:
		return 8
	case SectionStart:
		return 9
	case SectionElement:
		return 10
	case SectionDataCount:
		return 11 // DataCount must come before Code
	case SectionCode:
		return 12
	case SectionData:
		return 13
	default:
		return 0
	}
}

func sectionName(id byte) string {
	switch id {
	case SectionCustom:
		return "custom section"
	case SectionType:
		return "type section"
	case SectionImport:
		return "import section"
	case SectionFunction:
		return "function section"
	case SectionTable:
		return "table section"
	case SectionMemory:
		return "memory section"
	case SectionGlobal:
		return "global section"
	case SectionExport:
		return "export section"
	case SectionStart:
		return "start section"
	case SectionElement:
		return "element section"
	case SectionCode:
		return "code section"
	case SectionData:
		return "data section"
	case SectionDataCount:
		return "data count section"
	case SectionTag:
		return "tag section"
	default:
		return fmt.Sprintf("section %d", id)
	}
}

func parseTypeSection(r *wire.Reader, m *Module) error {
	count, err := r.ReadCount()
	if err != nil {
		return err
	}
	m.Types = make([]FuncType, 0, count)
	for i := range count {
		form, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch form {
		case FuncTypeByte:
		case RecTypeByte, SubTypeByte, SubFinalByte, StructTypeByte, ArrayTypeByte:
			return errors.Unsupported(errors.PhaseParse, fmt.Sprintf("GC type form 0x%02x at type %d", form, i))
		default:
			return fmt.Errorf("unsupported type form 0x%02x", form)
		}
		params, err := readValTypes(r)
		if err != nil {
			return err
		}
		results, err := readValTypes(r)
		if err != nil {
			return err
		}
		m.Types = append(m.Types, FuncType{Params: params, Results: results})
	}
	return nil
}

func readValTypes(r *wire.Reader) ([]ValType, error) {
	count, err := r.ReadCount()
	if err != nil {
		return nil, err
	}
	types := make([]ValType, count)
	for i := range types {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		v := ValType(b)
		switch v {
		case ValI32, ValI64, ValF32, ValF64, ValV128, ValFuncRef, ValExtern:
		case ValRefNull, ValRef:
			return nil, errors.Unsupported(errors.PhaseParse, "typed reference in function signature")
		default:
			return nil, fmt.Errorf("invalid value type 0x%02x", b)
		}
		types[i] = v
	}
	return types, nil
}

func parseImportSection(r *wire.Reader, m *Module, data []byte) error {
	count, err := r.ReadCount()
	if err != nil {
		return err
	}
	m.Imports = make([]Import, 0, count)
	for range count {
		module, err := r.ReadString()
		if err != nil {
			return err
		}
		name, err := r.ReadString()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}

		imp := Import{Module: module, Name: name, Kind: kind}
		start := r.Position()
		switch kind {
		case KindFunc:
			imp.TypeIdx, err = r.ReadU32()
		case KindTable:
			err = skipTableType(r)
		case KindMemory:
			err = skipLimits(r)
		case KindGlobal:
			err = skipGlobalType(r)
		case KindTag:
			if _, err = r.ReadByte(); err == nil {
				_, err = r.ReadU32()
			}
		default:
			return fmt.Errorf("unknown import kind: %d", kind)
		}
		if err != nil {
			return err
		}
		if kind != KindFunc {
			imp.Desc = slices.Clone(data[start:r.Position()])
		}
		m.Imports = append(m.Imports, imp)
	}
	return nil
}

func skipRefType(r *wire.Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	if b == byte(ValRefNull) || b == byte(ValRef) {
		_, err = r.ReadS64()
	}
	return err
}

func skipTableType(r *wire.Reader) error {
	if err := skipRefType(r); err != nil {
		return err
	}
	return skipLimits(r)
}

func skipLimits(r *wire.Reader) error {
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	read := func() error {
		if flags&LimitsMemory64 != 0 {
			_, err := r.ReadU64()
			return err
		}
		_, err := r.ReadU32()
		return err
	}
	if err := read(); err != nil {
		return err
	}
	if flags&LimitsHasMax != 0 {
		return read()
	}
	return nil
}

func skipGlobalType(r *wire.Reader) error {
	if err := skipRefType(r); err != nil {
		return err
	}
	_, err := r.ReadByte()
	return err
}

func parseFunctionSection(r *wire.Reader, m *Module) error {
	count, err := r.ReadCount()
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, count)
	for i := range m.Funcs {
		m.Funcs[i], err = r.ReadU32()
		if err != nil {
			return err
		}
	}
	return nil
}

func parseExportSection(r *wire.Reader, m *Module) error {
	count, err := r.ReadCount()
	if err != nil {
		return err
	}
	m.Exports = make([]Export, count)
	for i := range m.Exports {
		name, err := r.ReadString()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > KindTag {
			return fmt.Errorf("invalid export kind: 0x%02x", kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports[i] = Export{Name: name, Kind: kind, Idx: idx}
	}
	return nil
}

func parseCodeSection(r *wire.Reader, m *Module) error {
	count, err := r.ReadCount()
	if err != nil {
		return err
	}
	m.Code = make([][]byte, count)
	for i := range m.Code {
		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		body, err := r.ReadBytes(int(size))
		if err != nil {
			return err
		}
		m.Code[i] = slices.Clone(body)
	}
	return nil
}
