package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	webidlbindings "github.com/wippyai/webidl-bindings"
	"github.com/wippyai/webidl-bindings/ast"
)

// validateModule compiles data with wazero and checks every bind against
// the compiled function definitions: the bound function must exist and its
// signature must match the binding's Wasm function type. Functions that are
// neither imported nor exported are checked against their declared type.
// It returns one message per mismatch.
func validateModule(ctx context.Context, data []byte, s *ast.Section, idx *webidlbindings.ModuleIndex, logger *zap.Logger) ([]string, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig())
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	defer compiled.Close(ctx)

	defs := make(map[uint32]api.FunctionDefinition)
	for _, def := range compiled.ImportedFunctions() {
		defs[def.Index()] = def
	}
	for _, def := range compiled.ExportedFunctions() {
		defs[def.Index()] = def
	}
	logger.Debug("compiled host module",
		zap.Int("imported", len(compiled.ImportedFunctions())),
		zap.Int("exported", len(compiled.ExportedFunctions())))

	var problems []string
	i := 0
	for _, bind := range s.Binds.All() {
		if msg := checkBind(s, idx, defs, bind); msg != "" {
			problems = append(problems, fmt.Sprintf("bind %d: %s", i, msg))
		}
		i++
	}
	return problems, nil
}

func checkBind(s *ast.Section, idx *webidlbindings.ModuleIndex, defs map[uint32]api.FunctionDefinition, bind ast.Bind) string {
	funcIdx, ok := idx.FuncIndex(bind.Func)
	if !ok {
		return "function handle does not resolve"
	}

	b := s.Bindings.Get(bind.Binding)
	if b == nil {
		return "binding does not resolve"
	}
	params, results, ok := idx.FuncType(b.WasmFuncType())
	if !ok {
		return "binding function type does not resolve"
	}

	def, ok := defs[funcIdx]
	if !ok {
		// wazero only defines imported and exported functions; internal
		// ones are checked against the parsed module.
		ft, ok := idx.FuncTypeOf(bind.Func)
		if !ok {
			return fmt.Sprintf("function %d has no type", funcIdx)
		}
		gotParams, gotResults, ok := idx.FuncType(ft)
		if !ok {
			return fmt.Sprintf("function %d has an unsupported type", funcIdx)
		}
		if !slices.Equal(params, gotParams) || !slices.Equal(results, gotResults) {
			return mismatch(fmt.Sprintf("function %d", funcIdx), valTypes(gotParams), valTypes(gotResults), params, results)
		}
		return ""
	}

	if !sameTypes(params, def.ParamTypes()) || !sameTypes(results, def.ResultTypes()) {
		return mismatch(displayName(def), apiTypes(def.ParamTypes()), apiTypes(def.ResultTypes()), params, results)
	}
	return ""
}

func mismatch(name, gotParams, gotResults string, params, results []ast.ValType) string {
	return fmt.Sprintf("%s has signature (%s) -> (%s), binding expects (%s) -> (%s)",
		name, gotParams, gotResults, valTypes(params), valTypes(results))
}

// sameTypes compares value kinds; ast.ValType and api.ValueType share the
// binary value type encoding.
func sameTypes(want []ast.ValType, got []api.ValueType) bool {
	return slices.EqualFunc(want, got, func(w ast.ValType, g api.ValueType) bool {
		return byte(w) == g
	})
}

func apiTypes(vs []api.ValueType) string {
	out := make([]ast.ValType, len(vs))
	for i, v := range vs {
		out[i] = ast.ValType(v)
	}
	return valTypes(out)
}

func displayName(def api.FunctionDefinition) string {
	if mod, name, ok := def.Import(); ok {
		return mod + "." + name
	}
	if names := def.ExportNames(); len(names) > 0 {
		return names[0]
	}
	return def.DebugName()
}
