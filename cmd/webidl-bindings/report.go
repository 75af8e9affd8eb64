package main

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	webidlbindings "github.com/wippyai/webidl-bindings"
	"github.com/wippyai/webidl-bindings/ast"
	"github.com/wippyai/webidl-bindings/witmap"
)

// item is one listed entity: a one-line label and indented detail lines.
type item struct {
	label  string
	detail []string
	ok     bool // false marks an inexpressible binding or an unprojectable type
}

type report struct {
	types    []item
	bindings []item
	binds    []item
}

func buildReport(s *ast.Section, idx *webidlbindings.ModuleIndex) report {
	var r report
	proj := witmap.NewProjector(&s.Types)
	calc := witmap.NewCalculator()

	i := 0
	for id, t := range s.Types.All() {
		it := item{label: fmt.Sprintf("type %d%s: %s", i, nameSuffix(s.Types.Name(id)), describeCompound(s, t)), ok: true}
		it.detail, it.ok = projectionDetail(proj, calc, id, t)
		r.types = append(r.types, it)
		i++
	}

	i = 0
	for id, b := range s.Bindings.All() {
		r.bindings = append(r.bindings, bindingItem(s, idx, i, id, b))
		i++
	}

	i = 0
	for _, b := range s.Binds.All() {
		target := fmt.Sprintf("binding %s", bindingRef(s, b.Binding))
		r.binds = append(r.binds, item{
			label: fmt.Sprintf("bind %d: %s -> %s", i, funcLabel(idx, b.Func), target),
			ok:    true,
		})
		i++
	}
	return r
}

func projectionDetail(proj *witmap.Projector, calc *witmap.Calculator, id ast.TypeID, t ast.CompoundType) ([]string, bool) {
	if _, isFunc := t.(*ast.Function); isFunc {
		params, result, err := proj.Signature(ast.FunctionID(id))
		if err != nil {
			return []string{"wit: " + err.Error()}, false
		}
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = witmap.Describe(p)
		}
		sig := "wit: func(" + strings.Join(parts, ", ") + ")"
		if result != nil {
			sig += " -> " + witmap.Describe(result)
		}
		return []string{sig}, true
	}

	wt, err := proj.Type(ast.CompoundRef(id))
	if err != nil {
		return []string{"wit: " + err.Error()}, false
	}
	desc := witmap.Describe(wt)
	if td, ok := wt.(*wit.TypeDef); ok {
		desc = witmap.DescribeDef(td)
	}
	info := calc.Calculate(wt)
	return []string{
		"wit: " + desc,
		fmt.Sprintf("abi: size %d, align %d", info.Size, info.Align),
	}, true
}

func bindingItem(s *ast.Section, idx *webidlbindings.ModuleIndex, i int, id ast.BindingID, b ast.FunctionBinding) item {
	it := item{
		label: fmt.Sprintf("%s binding %d%s: wasm %s, webidl %s",
			b.Kind(), i, nameSuffix(s.Bindings.Name(id)),
			wasmSig(idx, b.WasmFuncType()), typeRef(s, b.WebidlFuncType())),
	}

	var params, result []string
	switch b := b.(type) {
	case *ast.ImportBinding:
		params = exprs(b.Params)
		result = exprs(b.Result)
	case *ast.ExportBinding:
		params = exprs(b.Params)
		result = exprs(b.Result)
	}
	it.detail = append(it.detail, "params: "+joinOrEmpty(params))
	it.detail = append(it.detail, "result: "+joinOrEmpty(result))

	if err := s.Diagnose(id, idx); err != nil {
		it.detail = append(it.detail, "needs bindings: "+err.Error())
	} else {
		it.detail = append(it.detail, "expressible with default coercions")
		it.ok = true
	}
	return it
}

func exprs[E interface{ String() string }](m []E) []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.String()
	}
	return out
}

func joinOrEmpty(parts []string) string {
	if len(parts) == 0 {
		return "()"
	}
	return strings.Join(parts, " ")
}

func nameSuffix(name string) string {
	if name == "" {
		return ""
	}
	return " $" + name
}

func describeCompound(s *ast.Section, t ast.CompoundType) string {
	switch t := t.(type) {
	case *ast.Function:
		var b strings.Builder
		b.WriteString("func ")
		b.WriteString(t.Call.String())
		if t.Call == ast.CallMethod {
			b.WriteString(" this=")
			b.WriteString(typeRef(s, t.Receiver))
		}
		b.WriteString(" (")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(typeRef(s, p))
		}
		b.WriteByte(')')
		if t.Result != nil {
			b.WriteString(" -> ")
			b.WriteString(typeRef(s, *t.Result))
		}
		return b.String()
	case *ast.Dictionary:
		fields := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = f.Name + ": " + typeRef(s, f.Type)
		}
		return "dict { " + strings.Join(fields, ", ") + " }"
	case *ast.Enumeration:
		values := make([]string, len(t.Values))
		for i, v := range t.Values {
			values[i] = fmt.Sprintf("%q", v)
		}
		return "enum { " + strings.Join(values, ", ") + " }"
	case *ast.Union:
		members := make([]string, len(t.Members))
		for i, m := range t.Members {
			members[i] = typeRef(s, m)
		}
		return "union { " + strings.Join(members, ", ") + " }"
	default:
		return "unknown"
	}
}

// typeRef renders scalars by keyword and compound types by name or index.
func typeRef(s *ast.Section, ref ast.TypeRef) string {
	if ref.IsCompound() {
		if name := s.Types.Name(ref.ID); name != "" {
			return "$" + name
		}
		return "type " + ref.String()
	}
	return ref.String()
}

func bindingRef(s *ast.Section, id ast.BindingID) string {
	if name := s.Bindings.Name(id); name != "" {
		return "$" + name
	}
	if !id.Valid() {
		return "<invalid>"
	}
	return fmt.Sprintf("%d", uint32(id)-1)
}

func funcLabel(idx *webidlbindings.ModuleIndex, ref ast.FuncRef) string {
	i, ok := idx.FuncIndex(ref)
	if !ok {
		return "func <unknown>"
	}
	if name := idx.FuncName(ref); name != "" {
		return fmt.Sprintf("func %d (%s)", i, name)
	}
	return fmt.Sprintf("func %d", i)
}

func wasmSig(idx *webidlbindings.ModuleIndex, ref ast.FuncTypeRef) string {
	i, ok := idx.FuncTypeIndex(ref)
	if !ok {
		return "<unknown type>"
	}
	params, results, ok := idx.FuncType(ref)
	if !ok {
		return fmt.Sprintf("type %d", i)
	}
	return fmt.Sprintf("type %d (%s) -> (%s)", i, valTypes(params), valTypes(results))
}

func valTypes(vs []ast.ValType) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
