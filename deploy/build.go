package deploy

import (
	"context"

	"github.com/wippyai/artifact-runtime/coordinate"
	"github.com/wippyai/artifact-runtime/descriptor"
	"github.com/wippyai/artifact-runtime/region"
	"github.com/wippyai/artifact-runtime/unit"
)

// build turns a descriptor into a region: the primary unit on the
// descriptor's search path and one filtered child per plugin. On failure
// nothing built so far survives.
func (s *Service) build(ctx context.Context, desc *descriptor.Descriptor) (*region.Region, error) {
	policy, err := lookupPolicy(desc)
	if err != nil {
		return nil, err
	}
	coord, err := desc.ArtifactCoordinate()
	if err != nil {
		return nil, err
	}

	primary := unit.New(s.unitConfig(desc.Name, desc.Name, coord, desc.ResolvedSearchPath(), policy))
	r := region.New(desc.Name, primary, s.cfg.UnitObserver)

	for _, p := range desc.Plugins {
		u := unit.New(s.unitConfig(desc.Name+"/"+p.Name, desc.Name, nil, p.ResolvedSearchPath(desc.Dir), unit.LookupPolicy{}))
		if err := r.AddChild(u, exportFilter(p.Exports)); err != nil {
			reportLeaks(s.listener, desc.Name, u.Dispose(ctx))
			reportLeaks(s.listener, desc.Name, r.Dispose(ctx))
			return nil, err
		}
	}
	return r, nil
}

func (s *Service) unitConfig(id, owner string, coord *coordinate.Coordinate, searchPath []string, policy unit.LookupPolicy) unit.Config {
	cfg := unit.Config{
		Fs:            s.cfg.Fs,
		Natives:       s.cfg.Natives,
		Releasers:     s.cfg.Releasers,
		RuntimeConfig: s.cfg.RuntimeConfig,
		ID:            id,
		Owner:         owner,
		SearchPath:    searchPath,
		Families:      s.cfg.Families,
		Policy:        policy,
	}
	if coord != nil {
		cfg.Coordinate = *coord
	}
	return cfg
}

func lookupPolicy(desc *descriptor.Descriptor) (unit.LookupPolicy, error) {
	def := unit.ChildFirst
	if desc.DefaultLookup != "" {
		p, err := unit.ParsePolicy(desc.DefaultLookup)
		if err != nil {
			return unit.LookupPolicy{}, err
		}
		def = p
	}
	overrides := make(map[string]unit.Policy, len(desc.Lookup))
	for _, ns := range desc.LookupNamespaces() {
		p, err := unit.ParsePolicy(desc.Lookup[ns])
		if err != nil {
			return unit.LookupPolicy{}, err
		}
		overrides[ns] = p
	}
	return unit.NewLookupPolicy(def, overrides), nil
}

func exportFilter(e descriptor.Exports) region.ExportFilter {
	return region.NewExportFilter(e.Namespaces, e.Resources, e.Symbols)
}

func dependencyOf(desc *descriptor.Descriptor) (*Dependency, error) {
	if desc.Dependency == nil {
		return nil, nil
	}
	c, err := desc.DependencyCoordinate()
	if err != nil {
		return nil, err
	}
	if desc.Dependency.Name == "" && c == nil {
		return nil, nil
	}
	return &Dependency{Domain: c, Name: desc.Dependency.Name}, nil
}
