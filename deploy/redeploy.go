package deploy

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/artifact-runtime/descriptor"
	"github.com/wippyai/artifact-runtime/errors"
)

// RedeployDomain rebuilds a domain from desc, or from its current descriptor
// when desc is nil, and then rebuilds every application bound to it.
//
// Every affected application ends up Created, whatever its state was, with
// that state kept as PriorState. Each of them gets exactly one
// redeploy-success or redeploy-failure event. An application whose rebuild
// fails keeps no region; its previous region stays disposed.
//
// The returned error reports the domain's own failure. Application failures
// are only reported through events.
func (s *Service) RedeployDomain(ctx context.Context, name string, desc *descriptor.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.domains[name]
	if !ok {
		return errors.NotFound(errors.PhaseRedeploy, "domain", name)
	}
	if desc == nil {
		desc = d.Descriptor()
	}
	if desc.Kind != descriptor.KindDomain || desc.Name != name {
		err := errors.InvalidInput(errors.PhaseRedeploy, "descriptor "+desc.Name+" does not describe domain "+name)
		s.listener.OnRedeploymentFailure(name, err)
		return err
	}
	return s.redeployDomain(ctx, d, desc)
}

func (s *Service) redeployDomain(ctx context.Context, d *Domain, desc *descriptor.Descriptor) error {
	dependents := s.dependentsOf(d.name)
	for _, a := range dependents {
		s.teardown(ctx, a)
	}

	d.mu.Lock()
	old := d.region
	d.region = nil
	d.state = Created
	d.mu.Unlock()
	if old != nil {
		reportLeaks(s.listener, d.name, old.Dispose(ctx))
	}

	coord, err := desc.ArtifactCoordinate()
	if err == nil {
		r, berr := s.build(ctx, desc)
		if berr == nil {
			d.mu.Lock()
			d.desc = desc
			d.coord = coord
			d.exports = exportFilter(desc.Exports)
			d.synthetic = false
			d.region = r
			d.mu.Unlock()
		}
		err = berr
	}
	if err != nil {
		s.listener.OnRedeploymentFailure(d.name, err)
		for _, a := range dependents {
			s.listener.OnRedeploymentFailure(a.name, errors.New(errors.PhaseRedeploy, errors.KindDependencyNotFound).
				Artifact(a.name).
				Detail("domain %s failed to redeploy", d.name).
				Cause(err).
				Build())
		}
		return err
	}
	s.listener.OnRedeploymentSuccess(d.name)

	for _, a := range dependents {
		_ = s.rebuild(ctx, a, a.Descriptor())
	}
	Logger().Debug("redeployed domain",
		zap.String("domain", d.name),
		zap.Int("dependents", len(dependents)))
	return nil
}

// RedeployApplication rebuilds an application from desc, or from its current
// descriptor when desc is nil, and binds it again. It ends up Created with
// its previous state kept as PriorState. A descriptor for another artifact is
// rejected before anything is torn down.
func (s *Service) RedeployApplication(ctx context.Context, name string, desc *descriptor.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[name]
	if !ok {
		return errors.NotFound(errors.PhaseRedeploy, "application", name)
	}
	if desc == nil {
		desc = a.Descriptor()
	}
	if desc.Kind != descriptor.KindApplication || desc.Name != name {
		err := errors.InvalidInput(errors.PhaseRedeploy, "descriptor "+desc.Name+" does not describe application "+name)
		s.listener.OnRedeploymentFailure(name, err)
		return err
	}

	s.teardown(ctx, a)
	return s.rebuild(ctx, a, desc)
}

// teardown disposes a's region and moves it to Created. The state it leaves
// is kept as PriorState unless a is already Created, so repeated redeploys
// keep the original intent.
func (s *Service) teardown(ctx context.Context, a *Application) {
	a.mu.Lock()
	if a.state != Created {
		a.priorState = a.state
	}
	a.state = Created
	r := a.region
	a.region = nil
	a.mu.Unlock()

	if r != nil {
		reportLeaks(s.listener, a.name, r.Dispose(ctx))
	}
}

// rebuild builds a's region from desc and binds it. It raises exactly one
// redeploy event for a.
func (s *Service) rebuild(ctx context.Context, a *Application, desc *descriptor.Descriptor) error {
	fail := func(err error) error {
		s.listener.OnRedeploymentFailure(a.name, err)
		return err
	}

	dep, err := dependencyOf(desc)
	if err != nil {
		return fail(err)
	}
	coord, err := desc.ArtifactCoordinate()
	if err != nil {
		return fail(err)
	}
	a.mu.Lock()
	a.desc = desc
	a.coord = coord
	a.dependency = dep
	a.mu.Unlock()

	r, err := s.build(ctx, desc)
	if err != nil {
		return fail(err)
	}
	if err := s.bind(a, r); err != nil {
		reportLeaks(s.listener, a.name, r.Dispose(ctx))
		return fail(err)
	}
	a.setRegion(r)

	s.listener.OnRedeploymentSuccess(a.name)
	return nil
}
