package region

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/arena"
	"github.com/wippyai/artifact-runtime/coordinate"
	"github.com/wippyai/artifact-runtime/errors"
	"github.com/wippyai/artifact-runtime/unit"
)

// Unit roles, stored as the arena tag of each unit.
const (
	tagPrimary uint32 = iota
	tagChild
)

// Role names the role of a unit from its arena tag: "primary" or "child".
func Role(tag uint32) string {
	if tag == tagPrimary {
		return "primary"
	}
	return "child"
}

// rule sends names its filter exports to one child unit.
type rule struct {
	filter ExportFilter
	handle arena.Handle
	id     string
}

// Child is a composed unit and its export filter.
type Child struct {
	Unit   *unit.Unit
	Filter ExportFilter
}

// Region is the isolation boundary of one deployable: a primary unit plus
// filtered child units. The region owns every unit in it.
//
// Composition (AddChild, SetParent) happens before the region is published.
// Resolution is safe for concurrent use afterwards.
type Region struct {
	units    *arena.Table[*unit.Unit]
	owners   map[string]string // exported namespace -> child id
	rules    []rule
	name     string
	id       uuid.UUID
	primary  arena.Handle
	disposed atomic.Bool
}

// New creates a region owning primary. Observers see every unit the region
// takes in and releases, tagged with its role.
func New(name string, primary *unit.Unit, observers ...arena.Observer) *Region {
	r := &Region{
		units:  arena.NewTable[*unit.Unit](),
		owners: make(map[string]string),
		name:   name,
		id:     uuid.New(),
	}
	for _, o := range observers {
		if o != nil {
			r.units.Subscribe(o)
		}
	}
	r.primary = r.units.Insert(tagPrimary, primary)
	return r
}

// Name returns the name of the deployable the region belongs to.
func (r *Region) Name() string { return r.name }

// ID identifies this build of the region. A rebuilt region gets a new ID.
func (r *Region) ID() uuid.UUID { return r.id }

// Primary returns the primary unit.
func (r *Region) Primary() *unit.Unit {
	u, _ := r.units.Get(r.primary)
	return u
}

// Children returns the composed children in registration order.
func (r *Region) Children() []Child {
	out := make([]Child, 0, len(r.rules))
	for _, rl := range r.rules {
		if u, ok := r.units.Get(rl.handle); ok {
			out = append(out, Child{Unit: u, Filter: rl.filter})
		}
	}
	return out
}

// AddChild composes u into the region. It fails with a composition conflict
// when a namespace filter exports is already exported by a sibling; the
// region is left unchanged in that case.
func (r *Region) AddChild(u *unit.Unit, filter ExportFilter) error {
	if r.disposed.Load() {
		return errors.InvalidState(r.name, "region is disposed")
	}
	for _, ns := range filter.Namespaces() {
		if owner, ok := r.owners[ns]; ok && owner != u.ID() {
			return errors.CompositionConflict(u.ID(), ns, owner)
		}
	}

	h := r.units.Insert(tagChild, u)
	for _, ns := range filter.Namespaces() {
		r.owners[ns] = u.ID()
	}
	r.rules = append(r.rules, rule{filter: filter, handle: h, id: u.ID()})

	Logger().Debug("composed child unit",
		zap.String("region", r.name),
		zap.String("child", u.ID()),
		zap.Strings("namespaces", filter.Namespaces()))
	return nil
}

// SetParent sets the delegation parent of every unit in the region.
func (r *Region) SetParent(p unit.Parent) {
	r.units.Each(func(_ arena.Handle, _ uint32, u *unit.Unit) bool {
		u.SetParent(p)
		return true
	})
}

// FindResource resolves through the first child whose filter exports name,
// or through the primary unit when no child does. Coordinate requests always
// go to the primary unit.
func (r *Region) FindResource(name string) (unit.Location, bool) {
	if !coordinate.IsRequest(name) {
		for _, rl := range r.rules {
			if !rl.filter.ExportsResource(name) {
				continue
			}
			if u, ok := r.units.Get(rl.handle); ok {
				return u.FindResource(name)
			}
		}
	}
	p := r.Primary()
	if p == nil {
		return unit.Location{}, false
	}
	return p.FindResource(name)
}

// LoadSymbol resolves through the first child whose filter exports name, or
// through the primary unit when no child does.
func (r *Region) LoadSymbol(ctx context.Context, name string) (*unit.Symbol, error) {
	for _, rl := range r.rules {
		if !rl.filter.ExportsSymbol(name) {
			continue
		}
		if u, ok := r.units.Get(rl.handle); ok {
			return u.LoadSymbol(ctx, name)
		}
	}
	p := r.Primary()
	if p == nil {
		return nil, errors.InvalidState(r.name, "region is disposed")
	}
	return p.LoadSymbol(ctx, name)
}

// Dispose disposes the children in reverse registration order, then the
// primary unit, then releases the unit table. Warnings from every unit are
// aggregated. Only the first call does any work.
func (r *Region) Dispose(ctx context.Context) error {
	if !r.disposed.CompareAndSwap(false, true) {
		return nil
	}

	var warnings error
	for i := len(r.rules) - 1; i >= 0; i-- {
		if u, ok := r.units.Get(r.rules[i].handle); ok {
			warnings = multierr.Append(warnings, u.Dispose(ctx))
		}
	}
	if p := r.Primary(); p != nil {
		warnings = multierr.Append(warnings, p.Dispose(ctx))
	}
	warnings = multierr.Append(warnings, r.units.Close())

	Logger().Debug("disposed region",
		zap.String("region", r.name),
		zap.Stringer("id", r.id),
		zap.Int("warnings", len(multierr.Errors(warnings))))
	return warnings
}

// Disposed reports whether Dispose has been called.
func (r *Region) Disposed() bool {
	return r.disposed.Load()
}
