package artifactruntime

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/tetratelabs/wazero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/arena"
	"github.com/wippyai/artifact-runtime/deploy"
	"github.com/wippyai/artifact-runtime/descriptor"
	"github.com/wippyai/artifact-runtime/errors"
	"github.com/wippyai/artifact-runtime/internal/metrics"
	"github.com/wippyai/artifact-runtime/region"
	"github.com/wippyai/artifact-runtime/unit"
)

// Config configures a Runtime.
type Config struct {
	// Fs holds descriptors and search-path entries. Defaults to the OS filesystem.
	Fs afero.Fs
	// Listener receives lifecycle events.
	Listener deploy.Listener
	// Registerer, when set, receives the lifecycle metrics.
	Registerer prometheus.Registerer
	// RuntimeConfig configures the wazero runtime of every unit.
	RuntimeConfig wazero.RuntimeConfig
	// Releasers override the per-family native releasers.
	Releasers map[string]unit.Releaser
	// Root is the directory holding domains/ and apps/.
	Root string
	// AutoStart starts every artifact after it deploys, and restarts
	// applications that were running before a redeploy.
	AutoStart bool
}

// Runtime ties descriptors on disk to a deployment service.
type Runtime struct {
	cfg     Config
	svc     *deploy.Service
	metrics *metrics.Recorder
	sources map[string]string // descriptor file -> artifact name
	mu      sync.Mutex
}

// SetLogger sets the logger of every package of the runtime.
func SetLogger(l *zap.Logger) {
	unit.SetLogger(l.Named("unit"))
	region.SetLogger(l.Named("region"))
	deploy.SetLogger(l.Named("deploy"))
}

// New creates a runtime with nothing deployed.
func New(cfg Config) *Runtime {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	r := &Runtime{
		cfg:     cfg,
		sources: make(map[string]string),
	}

	var (
		listeners deploy.Listeners
		observer  arena.Observer
	)
	if cfg.Registerer != nil {
		r.metrics = metrics.New(cfg.Registerer)
		listeners = append(listeners, r.metrics)
		observer = r.metrics
	}
	if cfg.Listener != nil {
		listeners = append(listeners, cfg.Listener)
	}
	r.svc = deploy.NewService(deploy.Config{
		Fs:            cfg.Fs,
		Listener:      listeners,
		Releasers:     cfg.Releasers,
		RuntimeConfig: cfg.RuntimeConfig,
		UnitObserver:  observer,
	})
	return r
}

// Service returns the underlying deployment service.
func (r *Runtime) Service() *deploy.Service {
	return r.svc
}

// DeployAll deploys every descriptor under Root: domains first, then
// applications. A failing artifact does not stop the others; all failures
// are returned together.
func (r *Runtime) DeployAll(ctx context.Context) error {
	set, err := descriptor.LoadDir(r.cfg.Fs, r.cfg.Root)
	if err != nil {
		return err
	}

	var errs error
	for _, d := range set.Domains {
		if _, err := r.svc.DeployDomain(ctx, d); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		r.deployed(d)
	}
	for _, d := range set.Applications {
		if _, err := r.svc.DeployApplication(ctx, d); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		r.deployed(d)
	}
	return errs
}

// Apply brings the service in line with one descriptor file: a new
// descriptor is deployed, a changed one redeployed and a removed one
// undeployed.
func (r *Runtime) Apply(ctx context.Context, name string) error {
	kind, ok := descriptor.KindOf(name)
	if !ok || !descriptor.IsDescriptorFile(name) {
		return errors.InvalidInput(errors.PhaseLoad, name+" is not a descriptor in a domains or apps directory")
	}

	r.mu.Lock()
	prev, known := r.sources[name]
	r.mu.Unlock()

	exists, err := afero.Exists(r.cfg.Fs, name)
	if err != nil {
		return errors.Load("stat "+name, err)
	}
	if !exists {
		if !known {
			return nil
		}
		r.forget(name)
		return r.svc.Undeploy(ctx, prev)
	}

	desc, err := descriptor.LoadAs(r.cfg.Fs, name, kind)
	if err != nil {
		return err
	}
	if known && prev != desc.Name {
		// the file now describes another artifact
		_ = r.svc.Undeploy(ctx, prev)
		r.forget(name)
	}

	switch kind {
	case descriptor.KindDomain:
		if d, ok := r.svc.Domain(desc.Name); ok {
			prior := d.State()
			err = r.svc.RedeployDomain(ctx, desc.Name, desc)
			r.redeployed(desc, prior, err)
			return err
		}
		_, err = r.svc.DeployDomain(ctx, desc)
	default:
		if _, ok := r.svc.Application(desc.Name); ok {
			err = r.svc.RedeployApplication(ctx, desc.Name, desc)
			r.redeployed(desc, deploy.Created, err)
			return err
		}
		_, err = r.svc.DeployApplication(ctx, desc)
	}
	if err != nil {
		return err
	}
	r.deployed(desc)
	return nil
}

// FindResource resolves name in the region of artifact.
func (r *Runtime) FindResource(artifact, name string) (unit.Location, error) {
	rg, err := r.region(artifact)
	if err != nil {
		return unit.Location{}, err
	}
	loc, ok := rg.FindResource(name)
	if !ok {
		return unit.Location{}, errors.NotFound(errors.PhaseLoad, "resource", name)
	}
	return loc, nil
}

// LoadSymbol resolves and compiles a symbol in the region of artifact.
func (r *Runtime) LoadSymbol(ctx context.Context, artifact, name string) (*unit.Symbol, error) {
	rg, err := r.region(artifact)
	if err != nil {
		return nil, err
	}
	return rg.LoadSymbol(ctx, name)
}

// Close undeploys everything.
func (r *Runtime) Close(ctx context.Context) {
	r.svc.Close(ctx)
	r.mu.Lock()
	r.sources = make(map[string]string)
	r.mu.Unlock()
}

func (r *Runtime) region(artifact string) (*region.Region, error) {
	var rg *region.Region
	if a, ok := r.svc.Application(artifact); ok {
		rg = a.Region()
	} else if d, ok := r.svc.Domain(artifact); ok {
		rg = d.Region()
	} else {
		return nil, errors.NotFound(errors.PhaseLoad, "artifact", artifact)
	}
	if rg == nil {
		return nil, errors.InvalidState(artifact, "artifact has no region, its last redeploy failed")
	}
	return rg, nil
}

// deployed records where desc came from and starts it when AutoStart is set.
func (r *Runtime) deployed(desc *descriptor.Descriptor) {
	r.record(desc)
	if r.cfg.AutoStart {
		r.start(desc.Name)
	}
}

// redeployed records desc after a redeploy. With AutoStart, a domain is
// started again if it was running before, and so are the applications that
// were running before it. Nothing the operator stopped is started.
func (r *Runtime) redeployed(desc *descriptor.Descriptor, domainPrior deploy.RunState, err error) {
	if err == nil {
		r.record(desc)
	}
	if !r.cfg.AutoStart {
		return
	}
	if err == nil && desc.Kind == descriptor.KindDomain && domainPrior == deploy.Started {
		r.start(desc.Name)
	}
	r.restart(desc.Name)
}

func (r *Runtime) record(desc *descriptor.Descriptor) {
	if desc.Source == "" {
		return
	}
	r.mu.Lock()
	r.sources[desc.Source] = desc.Name
	r.mu.Unlock()
}

func (r *Runtime) start(name string) {
	if err := r.svc.Start(name); err != nil {
		deploy.Logger().Warn("auto start failed", zap.String("artifact", name), zap.Error(err))
	}
}

// restart starts the applications left Created by a redeploy of name that
// were running before it.
func (r *Runtime) restart(name string) {
	for _, a := range r.svc.Applications() {
		if a.State() != deploy.Created || a.PriorState() != deploy.Started || a.Region() == nil {
			continue
		}
		if a.Name() != name && a.DomainName() != name {
			continue
		}
		if err := r.svc.Start(a.Name()); err != nil {
			deploy.Logger().Warn("restart failed", zap.String("application", a.Name()), zap.Error(err))
		}
	}
}

func (r *Runtime) forget(name string) {
	r.mu.Lock()
	delete(r.sources, name)
	r.mu.Unlock()
}
