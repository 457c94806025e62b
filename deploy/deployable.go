package deploy

import (
	"sync"

	"github.com/wippyai/artifact-runtime/coordinate"
	"github.com/wippyai/artifact-runtime/descriptor"
	"github.com/wippyai/artifact-runtime/region"
)

// Dependency is an application's declared domain. A non-empty Name is a
// name reference; otherwise Domain is matched by coordinate. A nil
// *Dependency means the default domain.
type Dependency struct {
	Domain *coordinate.Coordinate
	Name   string
}

// IsNameReference reports whether d binds by name.
func (d *Dependency) IsNameReference() bool {
	return d != nil && d.Name != ""
}

func (d *Dependency) String() string {
	switch {
	case d == nil:
		return "default domain"
	case d.IsNameReference():
		return "domain named " + d.Name
	case d.Domain != nil:
		return "domain " + d.Domain.String()
	default:
		return "default domain"
	}
}

// deployable is the state shared by domains and applications.
type deployable struct {
	desc   *descriptor.Descriptor
	coord  *coordinate.Coordinate
	region *region.Region
	name   string
	mu     sync.RWMutex
	state  RunState
}

// Name returns the deployable's name.
func (d *deployable) Name() string { return d.name }

// Coordinate returns the deployable's coordinate, if it declares one.
func (d *deployable) Coordinate() (coordinate.Coordinate, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.coord == nil {
		return coordinate.Coordinate{}, false
	}
	return *d.coord, true
}

// Descriptor returns the descriptor the deployable was last built from.
func (d *deployable) Descriptor() *descriptor.Descriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.desc
}

// Region returns the current region, or nil after a failed rebuild.
func (d *deployable) Region() *region.Region {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.region
}

// State returns the run state.
func (d *deployable) State() RunState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *deployable) setState(s RunState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *deployable) setRegion(r *region.Region) {
	d.mu.Lock()
	d.region = r
	d.mu.Unlock()
}

func (d *deployable) setDescriptor(desc *descriptor.Descriptor, coord *coordinate.Coordinate) {
	d.mu.Lock()
	d.desc = desc
	d.coord = coord
	d.mu.Unlock()
}

// Domain is a shared environment applications bind to.
type Domain struct {
	exports   region.ExportFilter
	synthetic bool
	deployable
}

// Exports returns the filter applications see the domain through.
func (d *Domain) Exports() region.ExportFilter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.exports
}

// Synthetic reports whether the domain was created implicitly as the
// default domain.
func (d *Domain) Synthetic() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.synthetic
}

// Application is a deployable bound to exactly one domain.
type Application struct {
	dependency *Dependency
	domainName string
	deployable
	priorState RunState
}

// Dependency returns the declared dependency, or nil for the default domain.
func (a *Application) Dependency() *Dependency {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dependency
}

// DomainName returns the name of the domain the application is bound to.
func (a *Application) DomainName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.domainName
}

// PriorState returns the run state the application had before its last
// redeploy. It is Created if it was never redeployed.
func (a *Application) PriorState() RunState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.priorState
}

func (a *Application) bind(domain string) {
	a.mu.Lock()
	a.domainName = domain
	a.mu.Unlock()
}
