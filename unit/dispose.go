package unit

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/coordinate"
	"github.com/wippyai/artifact-runtime/errors"
)

// Dispose tears the unit down. The steps run in a fixed order and a failing
// step never stops the ones after it:
//
//  1. dispose companion units
//  2. run the releasers of the families the unit touched
//  3. run shutdown listeners in registration order, then forget them
//  4. close compiled symbols, open archives and the wazero runtime
//
// Each failure is logged and returned as a ResourceLeak warning attributed
// to the unit's owner; the returned error aggregates them with multierr. The
// parent is never touched. Only the first call does any work.
func (u *Unit) Dispose(ctx context.Context) error {
	if !u.disposed.CompareAndSwap(false, true) {
		return nil
	}

	var warnings error
	warn := func(step string, err error) {
		if err == nil {
			return
		}
		Logger().Warn("dispose step failed, this can cause a leak",
			zap.String("unit", u.id),
			zap.String("owner", u.owner),
			zap.String("step", step),
			zap.Error(err))
		warnings = multierr.Append(warnings, errors.ResourceLeak(u.owner, step, err))
	}

	u.mu.Lock()
	companions := make([]*Unit, 0, len(u.companions))
	for _, c := range u.companions {
		companions = append(companions, c)
	}
	u.companions = make(map[coordinate.Key]*Unit)
	u.mu.Unlock()
	sort.Slice(companions, func(i, j int) bool { return companions[i].id < companions[j].id })
	for _, c := range companions {
		// companions log and wrap their own warnings
		warnings = multierr.Append(warnings, c.Dispose(ctx))
	}

	for i, f := range u.families {
		if !u.touched[i].Load() {
			continue
		}
		r := u.releaser(f.Name)
		if r == nil {
			continue
		}
		warn("release "+f.Name, safeCall(func() error { return r(ctx, u.owner) }))
	}

	u.listenersMu.Lock()
	listeners := u.listeners
	u.listeners = nil
	u.listenersMu.Unlock()
	for i, l := range listeners {
		warn(fmt.Sprintf("shutdown listener %d", i), safeCall(l))
	}

	u.cacheMu.Lock()
	symbols, archives, rt := u.symbols, u.archives, u.runtime
	u.symbols = make(map[string]*Symbol)
	u.archives = make(map[string]*archive)
	u.runtime = nil
	u.cacheMu.Unlock()

	for _, name := range sortedKeys(symbols) {
		warn("close symbol "+name, symbols[name].Module.Close(ctx))
	}
	for _, entry := range sortedKeys(archives) {
		warn("close archive "+entry, archives[entry].file.Close())
	}
	if rt != nil {
		warn("close runtime", rt.Close(ctx))
	}

	Logger().Debug("disposed unit",
		zap.String("unit", u.id),
		zap.String("owner", u.owner),
		zap.Int("companions", len(companions)),
		zap.Int("listeners", len(listeners)))
	return warnings
}

// safeCall runs fn and turns a panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
