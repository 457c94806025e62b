package region

import (
	"context"

	"github.com/wippyai/artifact-runtime/errors"
	"github.com/wippyai/artifact-runtime/unit"
)

// filtered is a Parent that only lets exported names through.
type filtered struct {
	parent unit.Parent
	filter ExportFilter
}

// Filtered returns a view of parent that resolves only what filter exports.
// An empty filter exports everything, so Filtered returns parent itself.
func Filtered(parent unit.Parent, filter ExportFilter) unit.Parent {
	if parent == nil || filter.IsEmpty() {
		return parent
	}
	return &filtered{parent: parent, filter: filter}
}

func (f *filtered) FindResource(name string) (unit.Location, bool) {
	if !f.filter.ExportsResource(name) {
		return unit.Location{}, false
	}
	return f.parent.FindResource(name)
}

func (f *filtered) LoadSymbol(ctx context.Context, name string) (*unit.Symbol, error) {
	if !f.filter.ExportsSymbol(name) {
		return nil, errors.NotFound(errors.PhaseLoad, "symbol", name)
	}
	return f.parent.LoadSymbol(ctx, name)
}
