package unit

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/errors"
)

// Symbol is a compiled module resolved by dotted name. The symbol a.b.C is
// the module stored as a/b/C.wasm on a search path.
type Symbol struct {
	Module   wazero.CompiledModule
	Location Location
	Name     string
}

// Exports returns the sorted names of the functions the module exports.
func (s *Symbol) Exports() []string {
	defs := s.Module.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadSymbol resolves and compiles a symbol according to the lookup policy
// of its namespace. The module is compiled and cached by the unit whose
// search path holds it. Every successful resolution marks the symbol's
// namespace as touched on u. The first source that holds the module decides:
// if it fails to compile, later sources are not consulted.
func (u *Unit) LoadSymbol(ctx context.Context, name string) (*Symbol, error) {
	if u.disposed.Load() {
		return nil, errors.InvalidState(u.owner, "unit "+u.id+" is disposed")
	}
	ns := SymbolNamespace(name)

	sources := []func(context.Context, string) (*Symbol, error){u.loadLocal, u.loadFromParent}
	if u.policy.For(ns) == ParentFirst {
		sources[0], sources[1] = sources[1], sources[0]
	}

	for _, load := range sources {
		sym, err := load(ctx, name)
		if err == nil {
			u.OnSymbolTouched(ns)
			return sym, nil
		}
		// a module that exists but cannot be loaded shadows later sources
		if !errors.HasKind(err, errors.KindNotFound) {
			return nil, err
		}
	}
	return nil, errors.NotFound(errors.PhaseLoad, "symbol", name)
}

func (u *Unit) loadFromParent(ctx context.Context, name string) (*Symbol, error) {
	p := u.Parent()
	if p == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "symbol", name)
	}
	return p.LoadSymbol(ctx, name)
}

func (u *Unit) loadLocal(ctx context.Context, name string) (*Symbol, error) {
	u.cacheMu.Lock()
	sym, ok := u.symbols[name]
	u.cacheMu.Unlock()
	if ok {
		return sym, nil
	}

	loc, ok := u.findLocal(SymbolResource(name))
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "symbol", name)
	}
	data, err := loc.ReadAll()
	if err != nil {
		return nil, errors.Load("read symbol "+name, err)
	}

	rt, err := u.wasmRuntime(ctx)
	if err != nil {
		return nil, err
	}
	mod, err := rt.CompileModule(ctx, data)
	if err != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Artifact(u.owner).
			Detail("compile symbol %s from %s", name, loc).
			Cause(err).
			Build()
	}

	u.cacheMu.Lock()
	if existing, ok := u.symbols[name]; ok {
		u.cacheMu.Unlock()
		_ = mod.Close(ctx)
		return existing, nil
	}
	sym = &Symbol{Module: mod, Location: loc, Name: name}
	u.symbols[name] = sym
	u.cacheMu.Unlock()

	Logger().Debug("loaded symbol",
		zap.String("unit", u.id),
		zap.String("symbol", name),
		zap.Stringer("location", loc))
	return sym, nil
}

// wasmRuntime returns the unit's runtime, creating it on first use.
func (u *Unit) wasmRuntime(ctx context.Context) (wazero.Runtime, error) {
	u.cacheMu.Lock()
	defer u.cacheMu.Unlock()

	if u.disposed.Load() {
		return nil, errors.InvalidState(u.owner, "unit "+u.id+" is disposed")
	}
	if u.runtime == nil {
		u.runtime = wazero.NewRuntimeWithConfig(ctx, u.runtimeConfig)
	}
	return u.runtime, nil
}
