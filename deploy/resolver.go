package deploy

import (
	"sort"

	"github.com/wippyai/artifact-runtime/coordinate"
	"github.com/wippyai/artifact-runtime/errors"
)

// DefaultDomainName is the domain applications without a dependency bind to.
const DefaultDomainName = "default"

// Binding is the outcome of resolving a dependency.
type Binding struct {
	// Domain is the selected domain. It is nil when the default domain was
	// requested but none is deployed; the caller supplies one.
	Domain *Domain
	// Default is set when the application declared no dependency.
	Default bool
	// Compatible is set when the domain was chosen by version compatibility
	// rather than exact coordinate.
	Compatible bool
}

// Resolver binds an application's dependency to one deployed domain. It
// only reads the domains it is given.
type Resolver struct{}

// Resolve selects the domain dep refers to.
//
//   - no dependency: the domain named DefaultDomainName, if deployed
//   - name reference: the domain with that name, never a compatibility match;
//     a named domain without a coordinate is DescriptorMissing
//   - coordinate: the single domain that matches exactly or is compatible
//     (same major, version >= requested); an exact match does not hide a
//     compatible newer one. None is DependencyNotFound and several is
//     AmbiguousDependency
func (Resolver) Resolve(app string, dep *Dependency, domains []*Domain) (Binding, error) {
	if dep == nil || (dep.Name == "" && dep.Domain == nil) {
		for _, d := range domains {
			if d.name == DefaultDomainName {
				return Binding{Domain: d, Default: true}, nil
			}
		}
		return Binding{Default: true}, nil
	}

	if dep.IsNameReference() {
		return resolveByName(app, dep.Name, domains)
	}
	return resolveByCoordinate(app, *dep.Domain, domains)
}

func resolveByName(app, name string, domains []*Domain) (Binding, error) {
	for _, d := range domains {
		if d.name != name {
			continue
		}
		if d.coord == nil && name != DefaultDomainName {
			return Binding{}, errors.DescriptorMissing(app, name)
		}
		return Binding{Domain: d}, nil
	}
	return Binding{}, errors.DependencyNotFound(app, "no domain named "+name+" is deployed")
}

func resolveByCoordinate(app string, requested coordinate.Coordinate, domains []*Domain) (Binding, error) {
	var candidates []*Domain
	for _, d := range domains {
		if d.coord != nil && coordinate.Compatible(*d.coord, requested) {
			candidates = append(candidates, d)
		}
	}

	switch len(candidates) {
	case 0:
		return Binding{}, errors.DependencyNotFound(app,
			"no deployed domain matches or is compatible with "+requested.String())
	case 1:
		d := candidates[0]
		return Binding{Domain: d, Compatible: !d.coord.Equal(requested)}, nil
	default:
		return Binding{}, errors.AmbiguousDependency(app,
			"several domains satisfy "+requested.String()+", declare the domain by name or exact version",
			names(candidates))
	}
}

func names(domains []*Domain) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		out = append(out, d.name)
	}
	sort.Strings(out)
	return out
}
