// Package artifactruntime hosts independently built artifacts in one
// process, each inside its own isolation region.
//
// Artifacts are domains (shared parent contexts) and applications (bound to
// exactly one domain). Each is described by a YAML descriptor and resolves
// resources and wasm symbols through a search path of directories and
// zip archives.
//
// # Architecture Overview
//
//	artifactruntime/     Root package: Runtime facade over a deployment directory
//	├── coordinate/      Artifact coordinates, version compatibility, request syntax
//	├── unit/            Isolation units: search path, lookup policy, companions, disposal
//	├── region/          Regions: a primary unit plus export-filtered children
//	├── deploy/          Domain and application lifecycle, dependency resolution, events
//	├── descriptor/      YAML descriptors and the domains/ apps/ layout
//	├── arena/           Generational handle table with drop hooks
//	├── errors/          Structured error types
//	└── cmd/isolate/     Command line: deploy, resolve, watch, inspect
//
// # Quick Start
//
//	rt := artifactruntime.New(artifactruntime.Config{Root: "/srv/artifacts"})
//	defer rt.Close(ctx)
//
//	if err := rt.DeployAll(ctx); err != nil {
//	    log.Print(err)
//	}
//	loc, err := rt.FindResource("shop-app", "com/acme/shop/config.yaml")
//
// # Deployment Directory
//
//	root/
//	├── domains/shop-domain.yaml
//	└── apps/shop-app.yaml
//
// Domains are deployed before applications. Apply reconciles a single
// changed, added or removed descriptor file.
//
// # Logging
//
// Every package logs through zap and is silent by default. SetLogger
// installs one logger for all of them.
package artifactruntime
