// Package deploy manages the lifecycle of domains and applications.
//
// A Domain is a shared parent context. An Application binds to exactly one
// domain, chosen by the Resolver from its declared dependency, and resolves
// through the domain's exported view. Every deployable owns one region.
//
// # Lifecycle
//
//	CREATED --Start--> STARTED --Stop--> STOPPED --Start--> STARTED
//	   any  --Undeploy--> DESTROYED
//
// Redeploying a domain tears down its applications, rebuilds the domain and
// then rebuilds and rebinds each application. Rebuilt applications are left
// CREATED; their earlier state is available as PriorState so a caller can
// restart them.
//
// # Dependency Resolution
//
//   - none declared: the domain named "default", created empty on demand
//   - by name: exactly that domain
//   - by coordinate: the single deployed domain that is exact or compatible
//
// # Events
//
// Every operation reports through a Listener. Deployment outcomes, redeploy
// outcomes, undeployments and disposal warnings each have their own callback.
// Recorder keeps events in memory for tests and tools.
//
// # Example
//
//	svc := deploy.NewService(deploy.Config{Fs: afero.NewOsFs()})
//	defer svc.Close(ctx)
//
//	if _, err := svc.DeployDomain(ctx, domainDesc); err != nil {
//	    return err
//	}
//	app, err := svc.DeployApplication(ctx, appDesc)
//	if err != nil {
//	    return err
//	}
//	_ = svc.Start(app.Name())
package deploy
