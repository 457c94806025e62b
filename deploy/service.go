package deploy

import (
	"context"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/arena"
	"github.com/wippyai/artifact-runtime/descriptor"
	"github.com/wippyai/artifact-runtime/errors"
	"github.com/wippyai/artifact-runtime/region"
	"github.com/wippyai/artifact-runtime/unit"
)

// Config configures a Service.
type Config struct {
	// Fs holds every search-path entry. Defaults to the OS filesystem.
	Fs afero.Fs
	// Listener receives lifecycle events in addition to the log.
	Listener Listener
	// Natives is shared by every unit the service builds.
	Natives *unit.Natives
	// Releasers override the per-family releasers of every unit.
	Releasers map[string]unit.Releaser
	// RuntimeConfig configures the wazero runtimes of every unit.
	RuntimeConfig wazero.RuntimeConfig
	// Families is the touch-tracking table. nil means unit.DefaultFamilies.
	Families []unit.Family
	// UnitObserver, when set, watches the units of every region the
	// service builds.
	UnitObserver arena.Observer
}

// Service keeps the deployed domains and applications and drives their
// lifecycle. Operations are serialized by the service; resolution through
// published regions is not.
type Service struct {
	cfg      Config
	listener Listener
	domains  map[string]*Domain
	apps     map[string]*Application
	resolver Resolver
	mu       sync.Mutex
}

// NewService creates an empty service.
func NewService(cfg Config) *Service {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Natives == nil {
		cfg.Natives = unit.NewNatives()
	}
	listeners := Listeners{logListener{}}
	if cfg.Listener != nil {
		listeners = append(listeners, cfg.Listener)
	}
	return &Service{
		cfg:      cfg,
		listener: listeners,
		domains:  make(map[string]*Domain),
		apps:     make(map[string]*Application),
	}
}

// Natives returns the native handle registry shared by the service's units.
func (s *Service) Natives() *unit.Natives {
	return s.cfg.Natives
}

// DeployDomain builds and registers a domain in the Created state. Deploying
// over the implicitly created default domain redeploys it.
func (s *Service) DeployDomain(ctx context.Context, desc *descriptor.Descriptor) (*Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if desc.Kind != descriptor.KindDomain {
		err := errors.InvalidInput(errors.PhaseDeploy, desc.Name+" is not a domain descriptor")
		s.listener.OnDeploymentFailure(desc.Name, err)
		return nil, err
	}
	if existing, ok := s.domains[desc.Name]; ok && existing.Synthetic() {
		return existing, s.redeployDomain(ctx, existing, desc)
	}
	if err := s.checkFree(desc.Name); err != nil {
		s.listener.OnDeploymentFailure(desc.Name, err)
		return nil, err
	}

	coord, err := desc.ArtifactCoordinate()
	if err != nil {
		s.listener.OnDeploymentFailure(desc.Name, err)
		return nil, err
	}
	r, err := s.build(ctx, desc)
	if err != nil {
		s.listener.OnDeploymentFailure(desc.Name, err)
		return nil, err
	}

	d := &Domain{exports: exportFilter(desc.Exports)}
	d.name = desc.Name
	d.setDescriptor(desc, coord)
	d.setRegion(r)
	s.domains[d.name] = d

	s.listener.OnDeploymentSuccess(d.name)
	return d, nil
}

// DeployApplication builds an application, binds it to a domain and
// registers it in the Created state. A failed deployment leaves nothing
// registered.
func (s *Service) DeployApplication(ctx context.Context, desc *descriptor.Descriptor) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fail := func(err error) (*Application, error) {
		s.listener.OnDeploymentFailure(desc.Name, err)
		return nil, err
	}

	if desc.Kind != descriptor.KindApplication {
		return fail(errors.InvalidInput(errors.PhaseDeploy, desc.Name+" is not an application descriptor"))
	}
	if err := s.checkFree(desc.Name); err != nil {
		return fail(err)
	}
	dep, err := dependencyOf(desc)
	if err != nil {
		return fail(err)
	}
	coord, err := desc.ArtifactCoordinate()
	if err != nil {
		return fail(err)
	}

	a := &Application{dependency: dep}
	a.name = desc.Name
	a.setDescriptor(desc, coord)

	r, err := s.build(ctx, desc)
	if err != nil {
		return fail(err)
	}
	if err := s.bind(a, r); err != nil {
		reportLeaks(s.listener, a.name, r.Dispose(ctx))
		return fail(err)
	}
	a.setRegion(r)
	s.apps[a.name] = a

	s.listener.OnDeploymentSuccess(a.name)
	return a, nil
}

// bind resolves a's dependency and makes the bound domain's primary unit,
// seen through the domain's exports, the parent of every unit in r.
func (s *Service) bind(a *Application, r *region.Region) error {
	b, err := s.resolver.Resolve(a.name, a.Dependency(), s.domainList())
	if err != nil {
		return err
	}
	d := b.Domain
	if d == nil {
		d = s.defaultDomain()
	}
	dr := d.Region()
	if dr == nil {
		return errors.New(errors.PhaseDependency, errors.KindDependencyNotFound).
			Artifact(a.name).
			Detail("domain %s has no region, its last redeploy failed", d.name).
			Build()
	}

	r.SetParent(region.Filtered(dr.Primary(), d.Exports()))
	a.bind(d.name)

	Logger().Debug("bound application",
		zap.String("application", a.name),
		zap.String("domain", d.name),
		zap.Bool("default", b.Default),
		zap.Bool("compatible", b.Compatible))
	return nil
}

// defaultDomain creates and registers an empty default domain.
func (s *Service) defaultDomain() *Domain {
	desc := &descriptor.Descriptor{Kind: descriptor.KindDomain, Name: DefaultDomainName}
	d := &Domain{synthetic: true}
	d.name = DefaultDomainName
	d.setDescriptor(desc, nil)
	d.setRegion(region.New(DefaultDomainName,
		unit.New(s.unitConfig(DefaultDomainName, DefaultDomainName, nil, nil, unit.LookupPolicy{})),
		s.cfg.UnitObserver))
	s.domains[d.name] = d

	Logger().Info("created empty default domain")
	return d
}

// Start moves a deployable to Started. Starting a started deployable does
// nothing.
func (s *Service) Start(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.lookup(name)
	if err != nil {
		return err
	}
	switch d.State() {
	case Started:
		return nil
	case Destroyed:
		return errors.InvalidState(name, "cannot start a destroyed artifact")
	}
	if d.Region() == nil {
		return errors.InvalidState(name, "cannot start, the last redeploy failed")
	}
	d.setState(Started)
	Logger().Info("started", zap.String("artifact", name))
	return nil
}

// Stop moves a started deployable to Stopped. Stopping a stopped deployable
// does nothing; stopping one that never started is invalid.
func (s *Service) Stop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.lookup(name)
	if err != nil {
		return err
	}
	switch d.State() {
	case Started:
		d.setState(Stopped)
		Logger().Info("stopped", zap.String("artifact", name))
		return nil
	case Stopped:
		return nil
	case Created:
		return errors.InvalidState(name, "cannot stop an artifact that was never started")
	default:
		return errors.InvalidState(name, "cannot stop a destroyed artifact")
	}
}

// Undeploy destroys a deployable. Undeploying a domain undeploys the
// applications bound to it first. Disposal problems are reported as
// resource leaks and never fail the undeploy.
func (s *Service) Undeploy(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.domains[name]; ok {
		for _, a := range s.dependentsOf(name) {
			s.undeployApp(ctx, a)
		}
		s.destroy(ctx, &d.deployable)
		delete(s.domains, name)
		s.listener.OnUndeployment(name)
		return nil
	}
	if a, ok := s.apps[name]; ok {
		s.undeployApp(ctx, a)
		return nil
	}
	return errors.NotFound(errors.PhaseDeploy, "artifact", name)
}

func (s *Service) undeployApp(ctx context.Context, a *Application) {
	s.destroy(ctx, &a.deployable)
	delete(s.apps, a.name)
	s.listener.OnUndeployment(a.name)
}

func (s *Service) destroy(ctx context.Context, d *deployable) {
	d.mu.Lock()
	r := d.region
	d.region = nil
	d.state = Destroyed
	d.mu.Unlock()
	if r != nil {
		reportLeaks(s.listener, d.name, r.Dispose(ctx))
	}
}

// Close undeploys every application and then every domain.
func (s *Service) Close(ctx context.Context) {
	for _, a := range s.Applications() {
		_ = s.Undeploy(ctx, a.Name())
	}
	for _, d := range s.Domains() {
		_ = s.Undeploy(ctx, d.Name())
	}
}

// Domain returns the deployed domain called name.
func (s *Service) Domain(name string) (*Domain, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.domains[name]
	return d, ok
}

// Application returns the deployed application called name.
func (s *Service) Application(name string) (*Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[name]
	return a, ok
}

// Domains returns the deployed domains sorted by name.
func (s *Service) Domains() []*Domain {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domainList()
}

// Applications returns the deployed applications sorted by name.
func (s *Service) Applications() []*Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Application, 0, len(s.apps))
	for _, a := range s.apps {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (s *Service) domainList() []*Domain {
	out := make([]*Domain, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (s *Service) dependentsOf(domain string) []*Application {
	var out []*Application
	for _, a := range s.apps {
		if a.DomainName() == domain {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (s *Service) lookup(name string) (*deployable, error) {
	if a, ok := s.apps[name]; ok {
		return &a.deployable, nil
	}
	if d, ok := s.domains[name]; ok {
		return &d.deployable, nil
	}
	return nil, errors.NotFound(errors.PhaseLifecycle, "artifact", name)
}

func (s *Service) checkFree(name string) error {
	if _, ok := s.domains[name]; ok {
		return errors.AlreadyDeployed(name)
	}
	if _, ok := s.apps[name]; ok {
		return errors.AlreadyDeployed(name)
	}
	return nil
}
